package docstore

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/pkordes/trip-planner/internal/domain"
)

// Inline embeds documents in the trip as base64 data URLs.
type Inline struct{}

var _ Encoder = Inline{}

func (Inline) Encode(_ context.Context, p domain.FilePayload) (string, error) {
	b, err := io.ReadAll(p.Reader)
	if err != nil {
		return "", fmt.Errorf("docstore.Inline.Encode: %w", err)
	}
	ct := p.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(b), nil
}
