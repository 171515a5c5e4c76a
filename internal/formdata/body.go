package formdata

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/mansoorceksport/cookbook-upload/internal/domain"
)

// ReadBody drains r into a single buffer.
// A read error or a cancelled ctx discards whatever was buffered so far.
func ReadBody(ctx context.Context, r io.Reader) ([]byte, error) {
	if r == nil {
		return []byte{}, nil
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(&ctxReader{ctx: ctx, r: r}); err != nil {
		buf.Reset()
		return nil, fmt.Errorf("%w: %w", domain.ErrBodyRead, err)
	}
	return buf.Bytes(), nil
}

// ctxReader stops reading once its context is done
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
