package handler

import "net/http"

// ReviewRequest is the body of POST /trips/{tripID}/reviews.
type ReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// AddReview handles POST /trips/{tripID}/reviews. The author is the caller.
func (s *Server) AddReview(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}
	var body ReviewRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	review, err := s.svc.Reviews.AddReview(r.Context(), tripID, body.Rating, body.Comment)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

// DeleteReview handles DELETE /trips/{tripID}/reviews/{reviewID}.
func (s *Server) DeleteReview(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}
	reviewID, ok := pathUUID(w, r, "reviewID")
	if !ok {
		return
	}
	if err := s.svc.Reviews.DeleteReview(r.Context(), tripID, reviewID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReviewSummary handles GET /trips/{tripID}/reviews/summary.
func (s *Server) ReviewSummary(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}
	sum, err := s.svc.Reviews.Summary(r.Context(), tripID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
