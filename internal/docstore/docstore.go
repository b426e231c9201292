// Package docstore turns uploaded travel documents into the opaque string
// stored on a trip. The inline encoder embeds the bytes as a data URL; the
// MinIO encoder uploads them to a bucket and stores an object reference.
package docstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"

	"github.com/pkordes/trip-planner/internal/domain"
)

// Encoder stores a payload and returns the string to keep on the document.
type Encoder interface {
	Encode(ctx context.Context, p domain.FilePayload) (string, error)
}

// Remover is implemented by encoders that keep payloads outside the trip.
// Remove deletes the payload behind a reference returned by Encode.
type Remover interface {
	Remove(ctx context.Context, ref string) error
}

// ErrTooLarge is returned while reading a payload that exceeds its limit.
var ErrTooLarge = errors.New("document too large")

// sniffLen is how many leading bytes are inspected for the content type.
const sniffLen = 3072

// Sniff detects the content type of r from its leading bytes. The returned
// reader yields the full original stream.
func Sniff(r io.Reader) (string, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", nil, fmt.Errorf("docstore.Sniff: %w", err)
	}
	head = head[:n]
	return mimetype.Detect(head).String(), io.MultiReader(bytes.NewReader(head), r), nil
}

// Limit wraps r so that reading more than max bytes fails with ErrTooLarge.
func Limit(r io.Reader, max int64) io.Reader {
	return &limitedReader{r: r, remaining: max, max: max}
}

type limitedReader struct {
	r         io.Reader
	remaining int64
	max       int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, l.tooLarge()
	}
	// Read one byte past the limit so overflow is detected, not truncated.
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n + int(l.remaining), l.tooLarge()
	}
	return n, err
}

func (l *limitedReader) tooLarge() error {
	return fmt.Errorf("%w: limit is %s", ErrTooLarge, humanize.Bytes(uint64(l.max)))
}
