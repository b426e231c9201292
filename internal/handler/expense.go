package handler

import (
	"net/http"

	"github.com/pkordes/trip-planner/internal/domain"
)

// ExpenseRequest is the body of POST /trips/{tripID}/expenses.
type ExpenseRequest struct {
	Category domain.ExpenseCategory `json:"category"`
	Amount   float64                `json:"amount"`
	Note     string                 `json:"note"`
	Date     string                 `json:"date"`
}

// AddExpense handles POST /trips/{tripID}/expenses.
func (s *Server) AddExpense(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}
	var body ExpenseRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	created, err := s.svc.Expenses.AddExpense(r.Context(), tripID, domain.Expense{
		Category: body.Category,
		Amount:   body.Amount,
		Note:     body.Note,
		Date:     body.Date,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// DeleteExpense handles DELETE /trips/{tripID}/expenses/{expenseID}.
func (s *Server) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}
	expenseID, ok := pathUUID(w, r, "expenseID")
	if !ok {
		return
	}
	if err := s.svc.Expenses.DeleteExpense(r.Context(), tripID, expenseID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExpenseSummary handles GET /trips/{tripID}/expenses/summary.
func (s *Server) ExpenseSummary(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}
	sum, err := s.svc.Expenses.Summary(r.Context(), tripID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
