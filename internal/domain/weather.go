package domain

// DailyForecast is one calendar day of a location's forecast.
// Temp is the rounded mean of the provider's samples for that day, in °C.
type DailyForecast struct {
	Date        string `json:"date"`
	Temp        int    `json:"temp"`
	Description string `json:"description"`
}

// LocationForecast pairs an itinerary location with its forecast.
type LocationForecast struct {
	Location  Location        `json:"location"`
	Forecasts []DailyForecast `json:"forecasts"`
}

// Place is the result of reverse geocoding a map point.
type Place struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}
