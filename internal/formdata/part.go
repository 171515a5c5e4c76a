package formdata

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/mansoorceksport/cookbook-upload/internal/domain"
)

var (
	fileFieldMarker   = []byte(`name="file"`)
	contentTypeMarker = []byte("Content-Type:")

	filenamePattern    = regexp.MustCompile(`filename="([^"]+)"`)
	contentTypePattern = regexp.MustCompile(`(?i)Content-Type:[ \t]*([^\r\n]+)`)

	crlf       = []byte("\r\n")
	lf         = []byte("\n")
	headerEnd  = []byte("\r\n\r\n")
	bareHeader = []byte("\n\n")
)

// File is a decoded file part. Content aliases the request buffer.
type File struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Select returns the first part naming the "file" field that also declares a
// Content-Type. Later matches are ignored.
func Select(parts [][]byte) ([]byte, error) {
	for _, p := range parts {
		if bytes.Contains(p, fileFieldMarker) && bytes.Contains(p, contentTypeMarker) {
			return p, nil
		}
	}
	return nil, domain.ErrNoFileField
}

// Decode separates a part into header block and content and reads the
// filename and media type from the headers. part is not modified.
func Decode(part []byte, defaults Defaults) (*File, error) {
	defaults = defaults.withFallbacks()

	header, body, ok := cutHeader(part)
	if !ok {
		return nil, domain.ErrMalformedPart
	}

	// one terminator belongs to the encoding, anything before it is content
	if bytes.HasSuffix(body, crlf) {
		body = body[:len(body)-len(crlf)]
	} else if bytes.HasSuffix(body, lf) {
		body = body[:len(body)-len(lf)]
	}

	f := &File{
		Filename:    defaults.Filename,
		ContentType: defaults.ContentType,
		Content:     body,
	}

	headerText := string(header)
	if m := filenamePattern.FindStringSubmatch(headerText); m != nil {
		f.Filename = m[1]
	}
	if m := contentTypePattern.FindStringSubmatch(headerText); m != nil {
		if ct := strings.TrimSpace(m[1]); ct != "" {
			f.ContentType = ct
		}
	}

	return f, nil
}

// cutHeader splits at the first blank line, CRLF or bare LF, whichever
// comes first. Content after it may contain either sequence.
func cutHeader(part []byte) (header, body []byte, ok bool) {
	i := bytes.Index(part, headerEnd)
	j := bytes.Index(part, bareHeader)
	switch {
	case i >= 0 && (j < 0 || i < j):
		return part[:i], part[i+len(headerEnd):], true
	case j >= 0:
		return part[:j], part[j+len(bareHeader):], true
	}
	return nil, nil, false
}

// Parse runs the whole decode pipeline over an already buffered body
func Parse(contentType string, body []byte, defaults Defaults) (*File, error) {
	boundary, err := Boundary(contentType)
	if err != nil {
		return nil, err
	}

	part, err := Select(Split(body, boundary))
	if err != nil {
		return nil, err
	}

	f, err := Decode(part, defaults)
	if err != nil {
		return nil, fmt.Errorf("decode file part: %w", err)
	}
	return f, nil
}
