// Package validate checks files before any network call is made.
package validate

import (
	"fmt"
	"path/filepath"
	"strings"
)

// FileKind selects the extension allow-list a file is checked against.
type FileKind string

const (
	KindDocument FileKind = "document"
	KindPDF      FileKind = "pdf"
	KindImage    FileKind = "image"
)

// DefaultMaxSize is the upload size ceiling.
const DefaultMaxSize = 50 << 20 // 50 MiB

// MaxNameLength is the filename length above which a warning is raised.
const MaxNameLength = 255

// allowedExtensions maps each kind to its lower-cased extension allow-list.
var allowedExtensions = map[FileKind][]string{
	KindDocument: {".docx", ".doc", ".txt", ".rtf"},
	KindPDF:      {".pdf"},
	KindImage:    {".jpg", ".jpeg", ".png", ".gif", ".bmp"},
}

// File is the metadata a validation decision is based on.
type File struct {
	Name     string
	Size     int64
	MIMEType string
}

// Result reports all violations together. Warnings never affect IsValid.
type Result struct {
	IsValid  bool
	Errors   []string
	Warnings []string
}

// Validate applies every rule and reports all violations at once rather
// than stopping at the first. It is a pure function of the file metadata.
func Validate(f File, kind FileKind) Result {
	return ValidateWithMax(f, kind, DefaultMaxSize)
}

// ValidateWithMax is Validate with a caller-supplied size ceiling.
func ValidateWithMax(f File, kind FileKind, maxSize int64) Result {
	var res Result

	if f.Size > maxSize {
		res.Errors = append(res.Errors,
			fmt.Sprintf("文件大小超过限制: %s (最大 %d MiB)", f.Name, maxSize>>20))
	}

	if !extensionAllowed(f.Name, kind) {
		res.Errors = append(res.Errors,
			fmt.Sprintf("不支持的文件格式: %s (支持: %s)", f.Name, strings.Join(allowedExtensions[kind], " ")))
	}

	if f.Size == 0 {
		res.Errors = append(res.Errors, fmt.Sprintf("文件为空: %s", f.Name))
	}

	if len(f.Name) > MaxNameLength {
		res.Warnings = append(res.Warnings, "文件名过长，建议不超过255个字符")
	}

	res.IsValid = len(res.Errors) == 0
	return res
}

// extensionAllowed matches the final dot-segment case-insensitively.
func extensionAllowed(name string, kind FileKind) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return false
	}
	for _, allowed := range allowedExtensions[kind] {
		if ext == allowed {
			return true
		}
	}
	return false
}

// KindForExtension guesses the file kind from a filename, defaulting to
// document.
func KindForExtension(name string) FileKind {
	ext := strings.ToLower(filepath.Ext(name))
	for kind, exts := range allowedExtensions {
		for _, e := range exts {
			if ext == e {
				return kind
			}
		}
	}
	return KindDocument
}
