package keygen

import (
	"encoding/hex"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator builds object keys of the form <prefix>/<unix-ms>-<token>.<ext>.
// The token is the 80-bit entropy half of a ULID, so two keys minted in the
// same millisecond still differ.
type Generator struct {
	prefix     string
	defaultExt string
	now        func() time.Time
	entropy    io.Reader
}

// Option customises a Generator
type Option func(*Generator)

// WithClock replaces the wall clock
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithEntropy replaces the random source. The reader must be safe for
// concurrent use if the generator is shared.
func WithEntropy(r io.Reader) Option {
	return func(g *Generator) { g.entropy = r }
}

// New creates a key generator
func New(prefix, defaultExt string, opts ...Option) *Generator {
	g := &Generator{
		prefix:     strings.Trim(prefix, "/"),
		defaultExt: defaultExt,
		now:        time.Now,
		entropy:    ulid.DefaultEntropy(),
	}
	if g.defaultExt == "" {
		g.defaultExt = "jpg"
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewKey returns a fresh key for filename
func (g *Generator) NewKey(filename string) string {
	t := g.now()
	id := ulid.MustNew(ulid.Timestamp(t), g.entropy)

	var b strings.Builder
	if g.prefix != "" {
		b.WriteString(g.prefix)
		b.WriteByte('/')
	}
	b.WriteString(strconv.FormatInt(t.UnixMilli(), 10))
	b.WriteByte('-')
	b.WriteString(hex.EncodeToString(id.Entropy()))
	b.WriteByte('.')
	b.WriteString(Extension(filename, g.defaultExt))
	return b.String()
}

// Extension returns the suffix after the last dot of filename, lower-cased.
// def is returned when there is no suffix or it is not plain alphanumerics.
func Extension(filename, def string) string {
	i := strings.LastIndexByte(filename, '.')
	if i < 0 || i == len(filename)-1 {
		return def
	}
	ext := filename[i+1:]
	for _, r := range ext {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return def
		}
	}
	return strings.ToLower(ext)
}
