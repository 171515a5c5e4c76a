package formdata

import "bytes"

// Split cuts body on every literal "--<boundary>" delimiter.
// Leading preamble and the trailing "--" epilogue come back as ordinary
// fragments; Select skips them. The returned parts alias body.
func Split(body []byte, boundary string) [][]byte {
	if len(body) == 0 || boundary == "" {
		return nil
	}
	return bytes.Split(body, []byte("--"+boundary))
}
