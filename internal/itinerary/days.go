// Package itinerary derives the per-day schedule of a trip from its flat list
// of timestamped items. Everything here is a pure function of its inputs.
package itinerary

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/pkordes/trip-planner/internal/domain"
)

// DayBucket is one day of a trip's itinerary view.
type DayBucket struct {
	// Index is the 1-based position of the day in the trip ("Day 1", "Day 2", …).
	Index int                    `json:"index"`
	Date  string                 `json:"date"`
	Items []domain.ItineraryItem `json:"items"`
}

// MaxDays is the longest trip span, in calendar days, that can be expanded
// into a day view.
const MaxDays = 3 * 366

// ParseDate parses a "2006-01-02" calendar date in UTC.
// Returns domain.ErrValidation when s is not a calendar date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a calendar date (want YYYY-MM-DD)", domain.ErrValidation, s)
	}
	return d, nil
}

// SpanDays returns the number of calendar days from startDate to endDate
// inclusive. It is zero when the end date is before the start date.
func SpanDays(startDate, endDate string) (int64, error) {
	start, err := ParseDate(startDate)
	if err != nil {
		return 0, err
	}
	end, err := ParseDate(endDate)
	if err != nil {
		return 0, err
	}
	return spanDays(start, end), nil
}

// spanDays counts on Unix seconds; time.Duration overflows past ~292 years.
func spanDays(start, end time.Time) int64 {
	if end.Before(start) {
		return 0
	}
	return (end.Unix()-start.Unix())/(24*60*60) + 1
}

// ExpandDays returns one day key per calendar day from startDate to endDate
// inclusive, in ascending order. An end date before the start date yields an
// empty slice and no error. Spans longer than MaxDays are domain.ErrValidation.
func ExpandDays(startDate, endDate string) ([]string, error) {
	start, err := ParseDate(startDate)
	if err != nil {
		return nil, err
	}
	end, err := ParseDate(endDate)
	if err != nil {
		return nil, err
	}
	n := spanDays(start, end)
	if n > MaxDays {
		return nil, fmt.Errorf("%w: trip spans %d days, the limit is %d", domain.ErrValidation, n, MaxDays)
	}

	days := make([]string, 0, n)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(time.DateOnly))
	}
	return days, nil
}

// ItemsForDay returns the items scheduled on day, ordered by their full start
// timestamp. The comparison is on the raw strings; items with equal starts keep
// their relative order from items.
func ItemsForDay(items []domain.ItineraryItem, day string) []domain.ItineraryItem {
	out := []domain.ItineraryItem{}
	for _, it := range items {
		if it.DayKey() == day {
			out = append(out, it)
		}
	}
	sortByStart(out)
	return out
}

func sortByStart(items []domain.ItineraryItem) {
	slices.SortStableFunc(items, func(a, b domain.ItineraryItem) int {
		return strings.Compare(a.Start, b.Start)
	})
}

// GroupByDay builds the day view of a trip. Items whose day falls outside
// [StartDate, EndDate] are not shown in any bucket; they stay on the trip.
func GroupByDay(trip domain.Trip) ([]DayBucket, error) {
	days, err := ExpandDays(trip.StartDate, trip.EndDate)
	if err != nil {
		return nil, err
	}

	byDay := make(map[string][]domain.ItineraryItem, len(days))
	for _, it := range trip.Items {
		key := it.DayKey()
		byDay[key] = append(byDay[key], it)
	}

	buckets := make([]DayBucket, len(days))
	for i, day := range days {
		items := byDay[day]
		if items == nil {
			items = []domain.ItineraryItem{}
		}
		sortByStart(items)
		buckets[i] = DayBucket{Index: i + 1, Date: day, Items: items}
	}
	return buckets, nil
}

// Export flattens the day view into export rows: one per visible item, or one
// empty row for a day without items.
func Export(trip domain.Trip) ([]domain.ExportRow, error) {
	buckets, err := GroupByDay(trip)
	if err != nil {
		return nil, err
	}

	rows := []domain.ExportRow{}
	for _, b := range buckets {
		if len(b.Items) == 0 {
			rows = append(rows, domain.ExportRow{DayIndex: b.Index, Date: b.Date})
			continue
		}
		for _, it := range b.Items {
			row := domain.ExportRow{
				DayIndex: b.Index,
				Date:     b.Date,
				Type:     it.Type,
				Title:    it.Title,
				Start:    it.Start,
				End:      it.End,
			}
			if it.Location != nil {
				row.Location = it.Location.Name
				row.Address = it.Location.Address
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}
