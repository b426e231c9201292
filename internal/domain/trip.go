// Package domain contains the core data types for the trip planner.
// This package has no dependencies beyond uuid and is imported by every other
// internal package (repo, service, live, handler).
package domain

import (
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Trip is the aggregate root. Every sub-entity (items, expenses, packing items,
// documents, reviews) lives inside the trip and is persisted only as part of the
// trip's serialized snapshot.
type Trip struct {
	ID        uuid.UUID `json:"id" bson:"_id"`
	Title     string    `json:"title" bson:"title"`
	StartDate string    `json:"start_date" bson:"start_date"` // "2006-01-02"
	EndDate   string    `json:"end_date" bson:"end_date"`     // "2006-01-02"

	Items       []ItineraryItem  `json:"items" bson:"items"`
	Expenses    []Expense        `json:"expenses" bson:"expenses"`
	PackingList []PackingItem    `json:"packing_list" bson:"packing_list"`
	Documents   []TravelDocument `json:"documents" bson:"documents"`
	Reviews     []Review         `json:"reviews" bson:"reviews"`

	// OwnerID is the uid of the creating user. Never changes.
	OwnerID string `json:"owner_id" bson:"owner_id"`
	// AllowedUsers always contains OwnerID.
	AllowedUsers []string `json:"allowed_users" bson:"allowed_users"`
	// Collaborators carries display metadata for AllowedUsers when collaborator
	// metadata tracking is enabled. It may lag AllowedUsers when tracking is off.
	Collaborators []Collaborator `json:"collaborators,omitempty" bson:"collaborators,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Collaborator is the display record stored next to a uid in AllowedUsers.
type Collaborator struct {
	UID   string `json:"uid" bson:"uid"`
	Email string `json:"email" bson:"email"`
}

// HasAccess reports whether uid may read and write the trip.
func (t Trip) HasAccess(uid string) bool {
	return uid != "" && slices.Contains(t.AllowedUsers, uid)
}

// Clone returns a deep copy of t. Stores hand out clones so callers can mutate
// a snapshot without touching the stored one.
func (t Trip) Clone() Trip {
	c := t
	c.Items = make([]ItineraryItem, len(t.Items))
	for i, it := range t.Items {
		c.Items[i] = it.Clone()
	}
	c.Expenses = slices.Clone(t.Expenses)
	c.PackingList = slices.Clone(t.PackingList)
	c.Documents = slices.Clone(t.Documents)
	c.Reviews = slices.Clone(t.Reviews)
	c.AllowedUsers = slices.Clone(t.AllowedUsers)
	c.Collaborators = slices.Clone(t.Collaborators)
	return c
}

// Normalize replaces nil collections with empty ones so a snapshot always
// serializes its sets as JSON arrays.
func (t *Trip) Normalize() {
	if t.Items == nil {
		t.Items = []ItineraryItem{}
	}
	if t.Expenses == nil {
		t.Expenses = []Expense{}
	}
	if t.PackingList == nil {
		t.PackingList = []PackingItem{}
	}
	if t.Documents == nil {
		t.Documents = []TravelDocument{}
	}
	if t.Reviews == nil {
		t.Reviews = []Review{}
	}
	if t.AllowedUsers == nil {
		t.AllowedUsers = []string{}
	}
}

// cloneDetails copies the free-form details map one level deep.
func cloneDetails(d map[string]any) map[string]any {
	if d == nil {
		return nil
	}
	return maps.Clone(d)
}
