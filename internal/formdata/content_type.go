package formdata

import (
	"strings"

	"github.com/mansoorceksport/cookbook-upload/internal/domain"
)

const multipartFormData = "multipart/form-data"

// IsMultipartForm reports whether a Content-Type header declares multipart/form-data
func IsMultipartForm(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), multipartFormData)
}

// Boundary extracts the boundary parameter from a Content-Type header.
// Surrounding quotes are removed; everything else is taken verbatim.
func Boundary(contentType string) (string, error) {
	idx := strings.Index(strings.ToLower(contentType), "boundary=")
	if idx < 0 {
		return "", domain.ErrMissingBoundary
	}

	value := contentType[idx+len("boundary="):]
	if end := strings.IndexByte(value, ';'); end >= 0 {
		value = value[:end]
	}
	value = strings.TrimSpace(value)
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		value = value[1 : len(value)-1]
	}

	if value == "" {
		return "", domain.ErrMissingBoundary
	}
	return value, nil
}
