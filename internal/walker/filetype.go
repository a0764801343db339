package walker

import (
	"path/filepath"
	"strings"
)

// FileTypePDF is the file type reported for PDF documents.
const FileTypePDF = "application/pdf"

// extensionToFileType maps file extensions to MIME types.
var extensionToFileType = map[string]string{
	".pdf":      FileTypePDF,
	".txt":      "text/plain",
	".text":     "text/plain",
	".log":      "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".csv":      "text/csv",
	".tsv":      "text/tab-separated-values",
	".json":     "application/json",
	".xml":      "application/xml",
	".html":     "text/html",
	".htm":      "text/html",
	".yaml":     "application/yaml",
	".yml":      "application/yaml",
	".rst":      "text/x-rst",
	".sql":      "application/sql",
}

// DetectFileType returns the MIME type for a filename based on its
// extension. Unrecognized files are reported as "text/plain" since only
// text content and PDFs survive the walk.
func DetectFileType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if t, ok := extensionToFileType[ext]; ok {
		return t
	}
	return "text/plain"
}

// IsPDF reports whether filename names a PDF document.
func IsPDF(filename string) bool {
	return DetectFileType(filename) == FileTypePDF
}
