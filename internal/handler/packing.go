package handler

import (
	"net/http"
)

// PackingRequest is the body of POST /trips/{tripID}/packing.
type PackingRequest struct {
	Name string `json:"name"`
}

// AddPackingItem handles POST /trips/{tripID}/packing.
func (s *Server) AddPackingItem(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}
	var body PackingRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	item, err := s.svc.Packing.AddItem(r.Context(), tripID, body.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// TogglePackingItem handles POST /trips/{tripID}/packing/{itemID}/toggle and
// responds with the whole updated list.
func (s *Server) TogglePackingItem(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}
	itemID, ok := pathUUID(w, r, "itemID")
	if !ok {
		return
	}
	list, err := s.svc.Packing.ToggleItem(r.Context(), tripID, itemID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// RemovePackingItem handles DELETE /trips/{tripID}/packing/{itemID}.
func (s *Server) RemovePackingItem(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}
	itemID, ok := pathUUID(w, r, "itemID")
	if !ok {
		return
	}
	if err := s.svc.Packing.RemoveItem(r.Context(), tripID, itemID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PackingProgress handles GET /trips/{tripID}/packing/progress.
func (s *Server) PackingProgress(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}
	p, err := s.svc.Packing.Progress(r.Context(), tripID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
