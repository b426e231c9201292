package handler

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/trip-planner/internal/domain"
)

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"day", "date", "type", "title", "start", "end", "location", "address",
}

// ExportFormat selects the export encoding.
type ExportFormat string

const (
	ExportJSON ExportFormat = "json"
	ExportCSV  ExportFormat = "csv"
)

// ExportResponse is the JSON body of GET /trips/{tripID}/export.
type ExportResponse struct {
	TripID    uuid.UUID          `json:"trip_id"`
	Title     string             `json:"title"`
	StartDate openapi_types.Date `json:"start_date"`
	EndDate   openapi_types.Date `json:"end_date"`
	Rows      []ExportRow        `json:"rows"`
}

// ExportRow is one line of the JSON export. Item fields are omitted on days
// without items.
type ExportRow struct {
	Day      int                `json:"day"`
	Date     openapi_types.Date `json:"date"`
	Type     *domain.ItemType   `json:"type,omitempty"`
	Title    *string            `json:"title,omitempty"`
	Start    *string            `json:"start,omitempty"`
	End      *string            `json:"end,omitempty"`
	Location *string            `json:"location,omitempty"`
	Address  *string            `json:"address,omitempty"`
}

// GetExport implements GET /trips/{tripID}/export: the day-by-day itinerary
// as a flat table. Use ?format=csv to receive CSV; default is JSON.
func (s *Server) GetExport(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}
	var param *ExportFormat
	if !queryParam(w, r, "format", false, &param) {
		return
	}
	format := ExportJSON
	if param != nil {
		format = *param
	}
	if format != ExportJSON && format != ExportCSV {
		requestError(w, fmt.Sprintf("invalid format %q: want json or csv", format))
		return
	}

	trip, rows, err := s.svc.Export.Export(r.Context(), tripID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if format == ExportCSV {
		writeCSV(w, trip, rows)
		return
	}
	writeJSON(w, http.StatusOK, buildJSONResponse(trip, rows))
}

// buildJSONResponse converts domain rows to the typed JSON response.
func buildJSONResponse(trip domain.Trip, rows []domain.ExportRow) ExportResponse {
	out := ExportResponse{
		TripID:    trip.ID,
		Title:     trip.Title,
		StartDate: mustParseDate(trip.StartDate),
		EndDate:   mustParseDate(trip.EndDate),
		Rows:      make([]ExportRow, 0, len(rows)),
	}
	for _, r := range rows {
		out.Rows = append(out.Rows, domainRowToResponse(r))
	}
	return out
}

// writeCSV encodes domain rows as CSV and serves them as an attachment.
func writeCSV(w http.ResponseWriter, trip domain.Trip, rows []domain.ExportRow) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	// Writes into a bytes.Buffer cannot fail.
	_ = cw.Write(csvHeaders)
	for _, r := range rows {
		_ = cw.Write(domainRowToCSVRecord(r))
	}
	cw.Flush()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="trip-%s.csv"`, trip.ID))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// domainRowToResponse maps a domain.ExportRow to the JSON row.
// Fields that are empty strings become nil pointers (omitempty in JSON).
func domainRowToResponse(r domain.ExportRow) ExportRow {
	row := ExportRow{Day: r.DayIndex, Date: mustParseDate(r.Date)}
	if r.Type != "" {
		typ := r.Type
		row.Type = &typ
	}
	row.Title = optional(r.Title)
	row.Start = optional(r.Start)
	row.End = optional(r.End)
	row.Location = optional(r.Location)
	row.Address = optional(r.Address)
	return row
}

// domainRowToCSVRecord encodes a domain.ExportRow as a flat string slice.
func domainRowToCSVRecord(r domain.ExportRow) []string {
	return []string{
		strconv.Itoa(r.DayIndex),
		r.Date,
		string(r.Type),
		r.Title,
		r.Start,
		r.End,
		r.Location,
		r.Address,
	}
}

// mustParseDate parses an "2006-01-02" string into an openapi_types.Date.
// Panics on malformed input; callers are expected to pass service-validated dates.
func mustParseDate(s string) openapi_types.Date {
	t, err := time.Parse(openapi_types.DateFormat, s)
	if err != nil {
		panic("handler: malformed date from service: " + s)
	}
	return openapi_types.Date{Time: t}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
