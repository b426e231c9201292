package handler

import "net/http"

// GetForecast handles GET /weather?lat=&lon=.
func (s *Server) GetForecast(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := coordinates(w, r)
	if !ok {
		return
	}
	days, err := s.svc.Weather.Forecast(r.Context(), lat, lon)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, days)
}

// ReverseGeocode handles GET /geocode/reverse?lat=&lon=.
func (s *Server) ReverseGeocode(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := coordinates(w, r)
	if !ok {
		return
	}
	place, err := s.svc.Weather.Reverse(r.Context(), lat, lon)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, place)
}

// GetTripWeather handles GET /trips/{tripID}/weather: one forecast per
// distinct item location.
func (s *Server) GetTripWeather(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}
	forecasts, err := s.svc.Weather.TripForecast(r.Context(), tripID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, forecasts)
}
