// Package formdata is a small, byte-oriented multipart/form-data decoder for
// requests that carry exactly one file field.
//
// It does not aim at RFC 2046 compliance. The body is split on the literal
// "--<boundary>" delimiter, the first part that names the "file" field and
// declares a Content-Type is selected, and its header block is separated from
// the content. Only the header block is ever interpreted as text; file bytes
// are returned as a slice of the original buffer.
package formdata
