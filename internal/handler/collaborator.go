package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// CollaboratorRequest is the body of POST /trips/{tripID}/collaborators.
type CollaboratorRequest struct {
	Email string `json:"email"`
}

// ListCollaborators handles GET /trips/{tripID}/collaborators.
func (s *Server) ListCollaborators(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}
	list, err := s.svc.Collaborators.List(r.Context(), tripID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// AddCollaborator handles POST /trips/{tripID}/collaborators.
// An email with no account yields 404 with code "user_not_found".
func (s *Server) AddCollaborator(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}
	var body CollaboratorRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	added, err := s.svc.Collaborators.AddByEmail(r.Context(), tripID, body.Email)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

// RemoveCollaborator handles DELETE /trips/{tripID}/collaborators/{uid}.
func (s *Server) RemoveCollaborator(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}
	uid := chi.URLParam(r, "uid")
	if err := s.svc.Collaborators.Remove(r.Context(), tripID, uid); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
