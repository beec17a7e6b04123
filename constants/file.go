package constants

import "strings"

// PDF is the only document format the offers pipeline accepts.
const PDF = "PDF"

// PDFMime is the content type a dropped file must sniff as.
const PDFMime = "application/pdf"

// AllowedExtensions holds the file extensions picked up from the watch folder.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat returns the document format for a normalized extension, or "".
func MapExtToFormat(ext string) string {
	if NormalizeExt(ext) == "pdf" {
		return PDF
	}
	return ""
}
