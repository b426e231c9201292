package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/internal/auth"
	"github.com/pkordes/trip-planner/internal/domain"
)

// Server-sent event names.
const (
	eventSnapshot = "snapshot"
	eventAbsent   = "absent"
	eventTrips    = "trips"
)

// AbsentEvent is the payload of an "absent" event.
type AbsentEvent struct {
	TripID uuid.UUID `json:"trip_id"`
}

// StreamTrip handles GET /trips/{tripID}/events.
// It streams a "snapshot" event with the whole trip on connect and after every
// change. When the trip is deleted, or the caller loses access, it sends one
// "absent" event and ends the stream.
func (s *Server) StreamTrip(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}
	caller, err := auth.RequireUser(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	// Access check, and a 404 instead of an empty stream for unknown trips.
	if _, err := s.svc.Trips.Get(r.Context(), tripID); err != nil {
		s.writeError(w, r, err)
		return
	}

	sub, err := s.svc.Live.SubscribeTrip(r.Context(), tripID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer sub.Unsubscribe()

	stream := s.openStream(w)
	heartbeat := time.NewTicker(s.opts.Heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if stream.comment("ping") != nil {
				return
			}
		case snap, ok := <-sub.C():
			if !ok {
				return
			}
			if snap.Absent || snap.Trip == nil || !snap.Trip.HasAccess(caller.UID) {
				_ = stream.send(eventAbsent, AbsentEvent{TripID: tripID})
				return
			}
			if stream.send(eventSnapshot, snap.Trip) != nil {
				return
			}
		}
	}
}

// StreamUserTrips handles GET /trips/events.
// It streams a "trips" event with every trip the caller can access on connect
// and after every change that affects that list.
func (s *Server) StreamUserTrips(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.RequireUser(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sub, err := s.svc.Live.SubscribeUserTrips(r.Context(), caller.UID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer sub.Unsubscribe()

	stream := s.openStream(w)
	heartbeat := time.NewTicker(s.opts.Heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if stream.comment("ping") != nil {
				return
			}
		case trips, ok := <-sub.C():
			if !ok {
				return
			}
			if trips == nil {
				trips = []domain.Trip{}
			}
			if stream.send(eventTrips, trips) != nil {
				return
			}
		}
	}
}

// eventStream writes server-sent events and flushes after each one.
type eventStream struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

// openStream writes the event-stream headers and lifts the server's write
// deadline, which would otherwise cut long-lived streams.
func (s *Server) openStream(w http.ResponseWriter) *eventStream {
	rc := http.NewResponseController(w)
	// Not every writer supports deadlines (httptest.ResponseRecorder does not).
	_ = rc.SetWriteDeadline(time.Time{})

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	_ = rc.Flush()
	return &eventStream{w: w, rc: rc}
}

func (e *eventStream) send(event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(e.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	return e.rc.Flush()
}

func (e *eventStream) comment(text string) error {
	if _, err := fmt.Fprintf(e.w, ": %s\n\n", text); err != nil {
		return err
	}
	return e.rc.Flush()
}
