package constants

import "strings"

// Source formats handed to the model.
const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
)

// ImageExtensions are the extensions classified as images regardless of declared MIME type.
var ImageExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat returns PDF, IMAGE, or "" for unknown extensions.
func MapExtToFormat(ext string) string {
	ext = NormalizeExt(ext)
	if ext == "pdf" {
		return PDF
	}
	if _, ok := ImageExtensions[ext]; ok {
		return IMAGE
	}
	return ""
}

// MimeForExt is used when the caller did not declare a content type.
func MimeForExt(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return "application/pdf"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	}
	return "application/octet-stream"
}

// Artifact file names inside a job workspace / artifact directory.
const (
	RawResponseFile = "raw_response.txt"
	ModelOutputFile = "model_output.txt"
)
