// Package extract pulls plain text out of document payloads before they are
// sent to the classification sidecar. A locally extracted text layer avoids
// a round trip for digital-native PDFs and office files, and supplies the
// OCR line count when the sidecar omits it.
package extract

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/xuri/excelize/v2"

	"fleetdocs-backend/internal/docmime"
)

// Text extracts plain text from an in-memory payload. The MIME type is
// resolved through docmime so unreliable upstream hints do not pick the
// wrong extractor. Payloads outside the known set fall back to a UTF-8
// plaintext read; binary garbage yields an error.
func Text(ctx context.Context, data []byte, mimeHint, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch docmime.Infer(mimeHint, fileName) {
	case "application/pdf":
		return fromPDF(data)
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return fromDOCX(data)
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/vnd.ms-excel":
		return fromXLSX(data)
	default:
		return fromPlain(data, fileName)
	}
}

// LineCount returns the number of non-empty text lines in the payload, or 0
// when no text layer can be extracted. It never fails: scanned images have
// no local text layer and that is not an error.
func LineCount(ctx context.Context, data []byte, mimeHint, fileName string) int {
	text, err := Text(ctx, data, mimeHint, fileName)
	if err != nil {
		return 0
	}
	count := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	return count
}

func fromPDF(data []byte) (string, error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("pdf text: %w", err)
	}
	return buf.String(), nil
}

func fromDOCX(data []byte) (string, error) {
	reader, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read docx: %w", err)
	}
	defer reader.Close()

	content := reader.Editable().GetContent()
	return stripDocxXML(content), nil
}

func fromXLSX(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("read xlsx: %w", err)
	}
	defer f.Close()

	var buf strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("xlsx rows sheet=%s: %w", sheet, err)
		}
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, "\t"))
			if line == "" {
				continue
			}
			buf.WriteString(line)
			buf.WriteString("\n")
		}
	}
	return strings.TrimSpace(buf.String()), nil
}

func fromPlain(data []byte, fileName string) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("no text layer in %s", fileName)
	}
	return strings.TrimSpace(string(data)), nil
}

// stripDocxXML flattens word-processing XML into newline-separated text.
func stripDocxXML(raw string) string {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return raw
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				if buf.Len() > 0 {
					buf.WriteString("\n")
				}
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
