package handler

import (
	"net/http"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/itinerary"
)

// ItemRequest is the body of POST /trips/{tripID}/items and
// PUT /trips/{tripID}/items/{itemID}.
type ItemRequest struct {
	Type     domain.ItemType  `json:"type"`
	Title    string           `json:"title"`
	Start    string           `json:"start"`
	End      string           `json:"end,omitempty"`
	Location *domain.Location `json:"location,omitempty"`
	Details  map[string]any   `json:"details,omitempty"`
}

// DayResponse is one entry of GET /trips/{tripID}/days.
type DayResponse struct {
	Index int                    `json:"index"`
	Date  string                 `json:"date"`
	Items []domain.ItineraryItem `json:"items"`
}

// AddItem handles POST /trips/{tripID}/items.
func (s *Server) AddItem(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}
	var body ItemRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	created, err := s.svc.Itinerary.AddItem(r.Context(), tripID, requestToItem(body))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateItem handles PUT /trips/{tripID}/items/{itemID}.
func (s *Server) UpdateItem(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}
	itemID, ok := pathUUID(w, r, "itemID")
	if !ok {
		return
	}
	var body ItemRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	item := requestToItem(body)
	item.ID = itemID
	updated, err := s.svc.Itinerary.UpdateItem(r.Context(), tripID, item)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteItem handles DELETE /trips/{tripID}/items/{itemID}.
// Deleting an item that does not exist still returns 204.
func (s *Server) DeleteItem(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}
	itemID, ok := pathUUID(w, r, "itemID")
	if !ok {
		return
	}
	if err := s.svc.Itinerary.DeleteItem(r.Context(), tripID, itemID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListDays handles GET /trips/{tripID}/days.
func (s *Server) ListDays(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}
	days, err := s.svc.Itinerary.Days(r.Context(), tripID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, daysToResponse(days))
}

func requestToItem(body ItemRequest) domain.ItineraryItem {
	return domain.ItineraryItem{
		Type:     body.Type,
		Title:    body.Title,
		Start:    body.Start,
		End:      body.End,
		Location: body.Location,
		Details:  body.Details,
	}
}

func daysToResponse(days []itinerary.DayBucket) []DayResponse {
	out := make([]DayResponse, len(days))
	for i, d := range days {
		items := d.Items
		if items == nil {
			items = []domain.ItineraryItem{}
		}
		out[i] = DayResponse{Index: d.Index, Date: d.Date, Items: items}
	}
	return out
}
