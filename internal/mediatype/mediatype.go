// Package mediatype infers and normalizes MIME types from file names.
package mediatype

import (
	"mime"
	"path/filepath"
	"strings"
)

// ByName returns the media type inferred from the file name's extension, without parameters.
// Returns an empty string if the type cannot be determined.
func ByName(name string) string {
	ext := filepath.Ext(name)
	if ext == "" {
		return ""
	}
	return Normalize(mime.TypeByExtension(ext))
}

// Normalize reduces raw to its lowercase token form, dropping any parameters such as charset.
// Returns an empty string if raw is not a valid media type.
func Normalize(raw string) string {
	mt, _, err := mime.ParseMediaType(raw)
	if err != nil {
		return ""
	}
	return mt
}

// IsImage reports whether mediaType has the top-level type "image".
func IsImage(mediaType string) bool {
	return strings.HasPrefix(mediaType, "image/")
}
