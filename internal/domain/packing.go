package domain

import (
	"math"

	"github.com/google/uuid"
)

// PackingItem is one line of a trip's packing list.
type PackingItem struct {
	ID     uuid.UUID `json:"id" bson:"id"`
	Name   string    `json:"name" bson:"name"`
	Packed bool      `json:"packed" bson:"packed"`
}

// PackingProgress reports how much of a packing list is done.
type PackingProgress struct {
	Packed  int `json:"packed"`
	Total   int `json:"total"`
	Percent int `json:"percent"`
}

// ProgressOf counts packed items and rounds the completion percentage.
func ProgressOf(items []PackingItem) PackingProgress {
	p := PackingProgress{Total: len(items)}
	for _, it := range items {
		if it.Packed {
			p.Packed++
		}
	}
	if p.Total > 0 {
		p.Percent = int(math.Round(float64(p.Packed) / float64(p.Total) * 100))
	}
	return p
}
