package constants

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// FileType is the declared kind of an input document.
type FileType string

const (
	PDF   FileType = "pdf"
	IMAGE FileType = "image"
	TEXT  FileType = "text"
)

// FileTypes holds the allowed values for the format column of extract_jobs.
var FileTypes = []string{string(PDF), string(IMAGE), string(TEXT)}

// ErrUnsupportedFileType is returned when a declared or detected type is not pdf, image or text.
var ErrUnsupportedFileType = errors.New("unsupported file type")

// DefaultAllowedExtensions holds the default allowed file extensions for report uploads.
var DefaultAllowedExtensions = []string{"pdf", "png", "jpg", "jpeg", "tiff", "bmp", "txt"}

var extToType = map[string]FileType{
	"pdf":  PDF,
	"png":  IMAGE,
	"jpg":  IMAGE,
	"jpeg": IMAGE,
	"tif":  IMAGE,
	"tiff": IMAGE,
	"bmp":  IMAGE,
	"txt":  TEXT,
	"text": TEXT,
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps a normalized extension to its FileType, or "" when unknown.
func MapExtToFormat(ext string) FileType {
	return extToType[NormalizeExt(ext)]
}

// DetectFileType infers the FileType from a path's extension.
func DetectFileType(path string) (FileType, error) {
	ext := NormalizeExt(filepath.Ext(path))
	if ft := MapExtToFormat(ext); ft != "" {
		return ft, nil
	}
	return "", fmt.Errorf("%w: extension %q", ErrUnsupportedFileType, ext)
}

// ParseFileType validates a host-declared file type string.
func ParseFileType(s string) (FileType, error) {
	switch FileType(strings.ToLower(strings.TrimSpace(s))) {
	case PDF:
		return PDF, nil
	case IMAGE:
		return IMAGE, nil
	case TEXT:
		return TEXT, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFileType, s)
}
