// Package format provides file format detection for uploaded documents.
package format

import (
	"archive/zip"
	"bytes"
	"io"
	"path/filepath"
	"strings"
)

// Format represents a document format accepted for upload.
type Format int

const (
	// Unknown indicates an unrecognized or rejected format.
	Unknown Format = iota
	// PDF indicates a PDF document.
	PDF
	// XLSX indicates a Microsoft Excel (.xlsx) workbook.
	XLSX
	// PPT indicates a legacy binary Microsoft PowerPoint (.ppt) presentation.
	PPT
	// PPTX indicates a Microsoft PowerPoint (.pptx) presentation.
	PPTX
)

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case PDF:
		return "PDF"
	case XLSX:
		return "XLSX"
	case PPT:
		return "PPT"
	case PPTX:
		return "PPTX"
	default:
		return "Unknown"
	}
}

// Extension returns the file extension for the format.
func (f Format) Extension() string {
	switch f {
	case PDF:
		return ".pdf"
	case XLSX:
		return ".xlsx"
	case PPT:
		return ".ppt"
	case PPTX:
		return ".pptx"
	default:
		return ""
	}
}

// Extractable reports whether slides can be extracted from the format.
func (f Format) Extractable() bool {
	return f == PPTX
}

// Extensions returns the accepted upload extensions, lower case with the
// leading dot.
func Extensions() []string {
	return []string{".xlsx", ".pdf", ".ppt", ".pptx"}
}

// Allowed reports whether ext (with or without the leading dot, any case)
// is an accepted upload extension.
func Allowed(ext string) bool {
	if ext == "" {
		return false
	}
	if ext[0] != '.' {
		ext = "." + ext
	}
	return FromExtension(ext) != Unknown
}

// FromExtension maps an extension such as ".PPTX" to its format.
func FromExtension(ext string) Format {
	switch strings.ToLower(ext) {
	case ".pdf":
		return PDF
	case ".xlsx":
		return XLSX
	case ".ppt":
		return PPT
	case ".pptx":
		return PPTX
	default:
		return Unknown
	}
}

// Detect determines file format from filename extension.
func Detect(filename string) Format {
	return FromExtension(filepath.Ext(filename))
}

var (
	pdfMagic = []byte("%PDF")
	zipMagic = []byte{0x50, 0x4B, 0x03, 0x04}
	// OLE2 compound file header, used by legacy Office formats.
	cfbMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// DetectFromMagic checks file magic bytes to determine format.
// This provides more reliable detection than extension-based detection.
// Returns Unknown if the format cannot be determined from magic bytes alone.
func DetectFromMagic(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, pdfMagic):
		return PDF
	case bytes.HasPrefix(data, cfbMagic):
		// Compound files also hold .doc and .xls; the header alone cannot
		// tell them apart, so trust the only one accepted for upload.
		return PPT
	case bytes.HasPrefix(data, zipMagic):
		// XLSX and PPTX are both ZIP archives
		// Return Unknown here - caller should use DetectFromReader for ZIP files
		return Unknown
	}
	return Unknown
}

// DetectFromReader inspects the content to determine format.
// This is more reliable than extension-based detection and can
// distinguish between the ZIP-based formats (XLSX, PPTX).
func DetectFromReader(r io.ReaderAt, size int64) (Format, error) {
	magic := make([]byte, 8)
	n, err := r.ReadAt(magic, 0)
	if err != nil && err != io.EOF {
		return Unknown, err
	}
	magic = magic[:n]

	if bytes.HasPrefix(magic, zipMagic) {
		// It's a ZIP archive - check contents to determine specific format
		return detectZIPFormat(r, size)
	}
	return DetectFromMagic(magic), nil
}

// detectZIPFormat inspects a ZIP archive to determine if it's XLSX or PPTX.
func detectZIPFormat(r io.ReaderAt, size int64) (Format, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return Unknown, err
	}

	// Check for Office Open XML markers
	ooxml := false
	var found Format
	for _, f := range zr.File {
		switch {
		case f.Name == "[Content_Types].xml":
			ooxml = true
		case found == Unknown && strings.HasPrefix(f.Name, "xl/"):
			found = XLSX
		case found == Unknown && strings.HasPrefix(f.Name, "ppt/"):
			found = PPTX
		}
	}
	if !ooxml {
		return Unknown, nil
	}
	return found, nil
}

// Matches reports whether content sniffed from data is consistent with the
// format implied by filename. Content that cannot be classified never
// matches.
func Matches(filename string, data []byte) bool {
	want := Detect(filename)
	if want == Unknown {
		return false
	}
	got, err := DetectFromReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	return got == want
}
