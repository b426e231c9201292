package service

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/itinerary"
	"github.com/pkordes/trip-planner/internal/repo"
)

// ExpenseService records money spent on a trip.
type ExpenseService struct {
	trips repo.TripStore
}

// NewExpenseService constructs an ExpenseService backed by the provided TripStore.
func NewExpenseService(trips repo.TripStore) *ExpenseService {
	return &ExpenseService{trips: trips}
}

// AddExpense appends e under a fresh id and returns it.
func (s *ExpenseService) AddExpense(ctx context.Context, tripID uuid.UUID, e domain.Expense) (domain.Expense, error) {
	if !e.Category.Valid() {
		return domain.Expense{}, fmt.Errorf("service.ExpenseService.AddExpense: %w: unknown category %q", domain.ErrValidation, e.Category)
	}
	if math.IsNaN(e.Amount) || math.IsInf(e.Amount, 0) || e.Amount < 0 {
		return domain.Expense{}, fmt.Errorf("service.ExpenseService.AddExpense: %w: amount must be a non-negative number", domain.ErrValidation)
	}
	if e.Date != "" {
		if _, err := itinerary.ParseDate(e.Date); err != nil {
			return domain.Expense{}, fmt.Errorf("service.ExpenseService.AddExpense: %w", err)
		}
	}
	e.Note = cleanText(e.Note)
	e.ID = uuid.New()

	_, err := mutate(ctx, s.trips, "ExpenseService.AddExpense", tripID, func(t *domain.Trip, _ domain.Identity) error {
		t.Expenses = append(t.Expenses, e)
		return nil
	})
	if err != nil {
		return domain.Expense{}, err
	}
	return e, nil
}

// DeleteExpense removes the expense with expenseID. Unknown ids are a no-op.
func (s *ExpenseService) DeleteExpense(ctx context.Context, tripID, expenseID uuid.UUID) error {
	_, err := mutate(ctx, s.trips, "ExpenseService.DeleteExpense", tripID, func(t *domain.Trip, _ domain.Identity) error {
		t.Expenses = slices.DeleteFunc(t.Expenses, func(e domain.Expense) bool { return e.ID == expenseID })
		return nil
	})
	return err
}

// Summary totals the trip's expenses overall and per category.
func (s *ExpenseService) Summary(ctx context.Context, tripID uuid.UUID) (domain.ExpenseSummary, error) {
	t, _, err := loadForCaller(ctx, s.trips, "ExpenseService.Summary", tripID)
	if err != nil {
		return domain.ExpenseSummary{}, err
	}
	return domain.SummarizeExpenses(t.Expenses), nil
}
