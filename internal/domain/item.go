package domain

import (
	"github.com/google/uuid"
)

// ItemType classifies an itinerary item.
type ItemType string

const (
	ItemTypeFlight   ItemType = "flight"
	ItemTypeHotel    ItemType = "hotel"
	ItemTypeActivity ItemType = "activity"
	ItemTypeNote     ItemType = "note"
)

// Valid reports whether t is one of the known item types.
func (t ItemType) Valid() bool {
	switch t {
	case ItemTypeFlight, ItemTypeHotel, ItemTypeActivity, ItemTypeNote:
		return true
	}
	return false
}

// ItineraryItem is one scheduled event on a trip.
// Start is an ISO 8601 timestamp string ("2024-06-02T09:00:00" or with offset);
// its first ten characters are the calendar day the item belongs to.
type ItineraryItem struct {
	ID       uuid.UUID      `json:"id" bson:"id"`
	Type     ItemType       `json:"type" bson:"type"`
	Title    string         `json:"title" bson:"title"`
	Start    string         `json:"start" bson:"start"`
	End      string         `json:"end,omitempty" bson:"end,omitempty"`
	Location *Location      `json:"location,omitempty" bson:"location,omitempty"`
	Details  map[string]any `json:"details,omitempty" bson:"details,omitempty"`
}

// Location is a named point on the map.
type Location struct {
	Name      string  `json:"name" bson:"name"`
	Latitude  float64 `json:"latitude" bson:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude"`
	Address   string  `json:"address,omitempty" bson:"address,omitempty"`
}

// DayKey returns the "2006-01-02" day the item is scheduled on, or "" when
// Start is too short to carry a date.
func (it ItineraryItem) DayKey() string {
	if len(it.Start) < 10 {
		return ""
	}
	return it.Start[:10]
}

// Clone returns a copy of it that shares no mutable state with the original.
func (it ItineraryItem) Clone() ItineraryItem {
	c := it
	if it.Location != nil {
		loc := *it.Location
		c.Location = &loc
	}
	c.Details = cloneDetails(it.Details)
	return c
}
