package util

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// EncodeDataURL renders bytes as a base64 data URL, the wire encoding used
// for upload and digitize payloads.
func EncodeDataURL(mimeType string, data []byte) string {
	if strings.TrimSpace(mimeType) == "" {
		mimeType = "application/octet-stream"
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

// DecodeDataURL parses a base64 data URL into its MIME type and raw bytes.
func DecodeDataURL(raw string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(raw, "data:")
	if !ok {
		return "", nil, errors.New("not a data url")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errors.New("malformed data url")
	}
	mimeType, encoding, _ := strings.Cut(meta, ";")
	if encoding != "base64" {
		return "", nil, fmt.Errorf("unsupported data url encoding %q", encoding)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode data url payload: %w", err)
	}
	return mimeType, data, nil
}
