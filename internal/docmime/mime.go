// Package docmime resolves content types and safe filenames from the weak,
// often contradictory metadata attached to documents by different upstream
// sources. Uploads report browser MIME strings, agreements carry loose type
// labels, and externally ingested files sometimes carry nothing at all.
package docmime

import (
	"path/filepath"
	"strings"
)

// DefaultMime is assumed when neither the reported type nor the filename
// yields a usable signal. PDF dominates the document corpus.
const DefaultMime = "application/pdf"

type token struct {
	match string
	mime  string
}

// tokens is checked in order. Longer tokens precede their prefixes (docx
// before doc, xlsx before xls, jpeg before jpg) so containment matching
// stays unambiguous.
var tokens = []token{
	{"pdf", "application/pdf"},
	{"png", "image/png"},
	{"jpeg", "image/jpeg"},
	{"jpg", "image/jpeg"},
	{"gif", "image/gif"},
	{"docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	{"doc", "application/msword"},
	{"xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	{"xls", "application/vnd.ms-excel"},
}

// extensions maps resolved MIME types back to their canonical extension.
var extensions = map[string]string{
	"application/pdf": ".pdf",
	"image/png":       ".png",
	"image/jpeg":      ".jpg",
	"image/gif":       ".gif",
	"application/msword": ".doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
	"application/vnd.ms-excel": ".xls",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": ".xlsx",
}

// Infer resolves a content type from a reported type hint and a filename.
// Priority: the hint matched against the fixed token set, then the filename
// extension against the same tokens, then DefaultMime. Matching is
// case-insensitive throughout.
func Infer(typeHint, name string) string {
	if m, ok := fromHint(typeHint); ok {
		return m
	}
	if m, ok := fromExtension(name); ok {
		return m
	}
	return DefaultMime
}

func fromHint(hint string) (string, bool) {
	h := strings.ToLower(strings.TrimSpace(hint))
	if h == "" {
		return "", false
	}
	// A full canonical MIME string wins outright. Containment alone would
	// misread "…wordprocessingml.document" as the "doc" token.
	base, _, _ := strings.Cut(h, ";")
	if _, ok := extensions[strings.TrimSpace(base)]; ok {
		return strings.TrimSpace(base), true
	}
	for _, t := range tokens {
		if strings.Contains(h, t.match) {
			return t.mime, true
		}
	}
	return "", false
}

func fromExtension(name string) (string, bool) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" {
		return "", false
	}
	for _, t := range tokens {
		if ext == t.match {
			return t.mime, true
		}
	}
	return "", false
}

// EnsureExtension appends the canonical extension for mime when name has no
// extension at all. An existing extension is never rewritten, even when it
// contradicts the given MIME type.
func EnsureExtension(name, mime string) string {
	if strings.Contains(name, ".") {
		return name
	}
	ext, ok := extensions[mime]
	if !ok {
		ext = extensions[DefaultMime]
	}
	return name + ext
}

// Extension returns the canonical extension for a MIME type, without the
// leading dot, or "" when the type is unknown.
func Extension(mime string) string {
	return strings.TrimPrefix(extensions[mime], ".")
}

// Known reports whether the MIME type belongs to the fixed token set. The
// preview surface uses it to decide between rendering and the download
// fallback.
func Known(mime string) bool {
	base, _, _ := strings.Cut(mime, ";")
	_, ok := extensions[strings.ToLower(strings.TrimSpace(base))]
	return ok
}
