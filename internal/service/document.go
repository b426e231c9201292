package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/internal/docstore"
	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/repo"
)

// DocumentService attaches travel documents to a trip.
type DocumentService struct {
	trips    repo.TripStore
	enc      docstore.Encoder
	maxBytes int64
}

// NewDocumentService constructs a DocumentService that encodes uploads with
// enc. maxBytes <= 0 disables the size limit.
func NewDocumentService(trips repo.TripStore, enc docstore.Encoder, maxBytes int64) *DocumentService {
	return &DocumentService{trips: trips, enc: enc, maxBytes: maxBytes}
}

// Upload encodes the payload and records it on the trip.
// The payload is encoded after the trip is loaded and before it is written
// back, so a concurrent mutation during a slow upload is overwritten. If the
// trip cannot be written back, an externally stored payload is removed again.
func (s *DocumentService) Upload(ctx context.Context, tripID uuid.UUID, p domain.FilePayload) (domain.TravelDocument, error) {
	p.Name = cleanText(p.Name)
	if p.Name == "" {
		return domain.TravelDocument{}, fmt.Errorf("service.DocumentService.Upload: %w: file name is required", domain.ErrValidation)
	}
	if s.maxBytes > 0 && p.Size > s.maxBytes {
		return domain.TravelDocument{}, fmt.Errorf("service.DocumentService.Upload: %w: %s is larger than the %s limit",
			domain.ErrValidation, humanize.Bytes(uint64(p.Size)), humanize.Bytes(uint64(s.maxBytes)))
	}

	var doc domain.TravelDocument
	var stored string
	_, err := mutate(ctx, s.trips, "DocumentService.Upload", tripID, func(t *domain.Trip, caller domain.Identity) error {
		doc = domain.TravelDocument{ID: uuid.New(), Name: p.Name, UploadedBy: caller.UID}

		r := p.Reader
		if s.maxBytes > 0 {
			r = docstore.Limit(r, s.maxBytes)
		}
		counter := &countingReader{r: r}
		ct, sniffed, err := docstore.Sniff(counter)
		if err != nil {
			return encodeError(err)
		}

		payload := p
		payload.Key = t.ID.String() + "/" + doc.ID.String()
		payload.ContentType = ct
		payload.Reader = sniffed
		data, err := s.enc.Encode(ctx, payload)
		if err != nil {
			return encodeError(err)
		}
		stored = data

		doc.ContentType = ct
		doc.Size = counter.n
		doc.Data = data
		doc.UploadedAt = now()
		t.Documents = append(t.Documents, doc)
		return nil
	})
	if err != nil {
		if rm, ok := s.enc.(docstore.Remover); ok && stored != "" {
			if rmErr := rm.Remove(context.WithoutCancel(ctx), stored); rmErr != nil {
				err = errors.Join(err, fmt.Errorf("service.DocumentService.Upload: remove orphaned document: %w", rmErr))
			}
		}
		return domain.TravelDocument{}, err
	}
	return doc, nil
}

// DeleteDocument removes docID from the trip. Unknown ids are a no-op.
// Objects already written to external storage are not removed.
func (s *DocumentService) DeleteDocument(ctx context.Context, tripID, docID uuid.UUID) error {
	_, err := mutate(ctx, s.trips, "DocumentService.DeleteDocument", tripID, func(t *domain.Trip, _ domain.Identity) error {
		t.Documents = slices.DeleteFunc(t.Documents, func(d domain.TravelDocument) bool { return d.ID == docID })
		return nil
	})
	return err
}

func encodeError(err error) error {
	if errors.Is(err, docstore.ErrTooLarge) {
		return fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	return fmt.Errorf("%w: encode document: %w", domain.ErrUpstream, err)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
