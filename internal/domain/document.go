package domain

import (
	"io"
	"time"

	"github.com/google/uuid"
)

// TravelDocument is a file attached to a trip (tickets, bookings, passports).
// Data is the opaque string produced by the document encoder: an inline data URL
// or a reference into object storage, depending on configuration.
type TravelDocument struct {
	ID          uuid.UUID `json:"id" bson:"id"`
	Name        string    `json:"name" bson:"name"`
	ContentType string    `json:"content_type" bson:"content_type"`
	Size        int64     `json:"size" bson:"size"`
	Data        string    `json:"data" bson:"data"`
	UploadedAt  time.Time `json:"uploaded_at" bson:"uploaded_at"`
	UploadedBy  string    `json:"uploaded_by" bson:"uploaded_by"`
}

// FilePayload is an uploaded file on its way to the document encoder.
type FilePayload struct {
	// Key uniquely names the payload (trip id + document id) for encoders that
	// store the bytes out of line.
	Key         string
	Name        string
	ContentType string
	Size        int64
	Reader      io.Reader
}
