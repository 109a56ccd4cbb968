package ingest

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrUnsupportedKind reports a document kind the pipeline cannot ingest.
var ErrUnsupportedKind = errors.New("unsupported document kind")

// Kind identifies a document format handled by the ingestion pipeline.
type Kind string

const (
	KindUnknown Kind = ""
	KindText    Kind = "text"
	KindCSV     Kind = "csv"
	KindXLSX    Kind = "xlsx"
	KindDOCX    Kind = "docx"
	KindPDF     Kind = "pdf"
	KindImage   Kind = "image"
)

// KindFromExtension maps a file extension (with or without the leading dot)
// to a document kind. Unrecognized extensions yield KindUnknown.
func KindFromExtension(ext string) Kind {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "txt", "md", "text":
		return KindText
	case "csv":
		return KindCSV
	case "xlsx":
		return KindXLSX
	case "docx":
		return KindDOCX
	case "pdf":
		return KindPDF
	case "png", "jpg", "jpeg", "webp", "bmp", "tif", "tiff":
		return KindImage
	default:
		return KindUnknown
	}
}

// KindFromMIME maps a declared media type to a document kind.
func KindFromMIME(mediaType string) Kind {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	switch mt {
	case "text/plain", "text/markdown":
		return KindText
	case "text/csv":
		return KindCSV
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return KindXLSX
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return KindDOCX
	case "application/pdf":
		return KindPDF
	}
	if strings.HasPrefix(mt, "image/") {
		return KindImage
	}
	return KindUnknown
}

// KindForFile resolves a kind from the file's extension.
func KindForFile(path string) Kind {
	return KindFromExtension(filepath.Ext(path))
}
