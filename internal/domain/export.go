package domain

// ExportRow is a single row in a trip's itinerary export.
// It is a flat, denormalized view: one row per item in the day view, with the
// day fields repeated for every item on that day. Days with no items yield one
// row with zero values for all item fields, so the export lists every day of
// the trip.
type ExportRow struct {
	// Day fields, repeated for every item on the day.
	DayIndex int    // 1-based
	Date     string // "2006-01-02"

	// Item fields, zero values when the day has no items.
	Type     ItemType
	Title    string
	Start    string
	End      string
	Location string
	Address  string
}
