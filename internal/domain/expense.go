package domain

import "github.com/google/uuid"

// ExpenseCategory groups expenses for the per-category breakdown.
type ExpenseCategory string

const (
	ExpenseFlight    ExpenseCategory = "flight"
	ExpenseHotel     ExpenseCategory = "hotel"
	ExpenseFood      ExpenseCategory = "food"
	ExpenseActivity  ExpenseCategory = "activity"
	ExpenseTransport ExpenseCategory = "transport"
	ExpenseOther     ExpenseCategory = "other"
)

// ExpenseCategories lists every category in display order.
var ExpenseCategories = []ExpenseCategory{
	ExpenseFlight, ExpenseHotel, ExpenseFood, ExpenseActivity, ExpenseTransport, ExpenseOther,
}

// Valid reports whether c is a known category.
func (c ExpenseCategory) Valid() bool {
	for _, known := range ExpenseCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Expense is a single amount spent on a trip.
type Expense struct {
	ID       uuid.UUID       `json:"id" bson:"id"`
	Category ExpenseCategory `json:"category" bson:"category"`
	Amount   float64         `json:"amount" bson:"amount"`
	Note     string          `json:"note" bson:"note"`
	Date     string          `json:"date" bson:"date"`
}

// ExpenseSummary is the aggregate shown next to a trip's expense list.
type ExpenseSummary struct {
	Total      float64                     `json:"total"`
	Count      int                         `json:"count"`
	Average    float64                     `json:"average"`
	ByCategory map[ExpenseCategory]float64 `json:"by_category"`
}

// SummarizeExpenses totals expenses overall and per category.
func SummarizeExpenses(expenses []Expense) ExpenseSummary {
	s := ExpenseSummary{ByCategory: map[ExpenseCategory]float64{}}
	for _, e := range expenses {
		s.Total += e.Amount
		s.ByCategory[e.Category] += e.Amount
	}
	s.Count = len(expenses)
	if s.Count > 0 {
		s.Average = s.Total / float64(s.Count)
	}
	return s
}
