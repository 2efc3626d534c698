package domain

import (
	"time"
)

// Detection represents a single satellite-observed thermal anomaly.
// Latitude and longitude may be null when geocoding is unresolved; such
// records are kept in the store but never emitted as GeoJSON features.
type Detection struct {
	ID         int64     `json:"id"`
	Latitude   *float64  `json:"latitude"`
	Longitude  *float64  `json:"longitude"`
	AcqDate    time.Time `json:"acq_date"` // UTC midnight of the acquisition day
	AcqTime    *string   `json:"acq_time,omitempty"`
	Brightness *float64  `json:"brightness,omitempty"`
	FRP        *float64  `json:"frp,omitempty"` // fire radiative power
	Satellite  *string   `json:"satellite,omitempty"`
	Instrument *string   `json:"instrument,omitempty"`
	Confidence *string   `json:"confidence,omitempty"`
	DayNight   *string   `json:"daynight,omitempty"`
}

// HasCoordinates reports whether both latitude and longitude are present.
func (d *Detection) HasCoordinates() bool {
	return d.Latitude != nil && d.Longitude != nil
}

// DetectionStats summarises the ingested detection data.
type DetectionStats struct {
	Total      int        `json:"total"`
	Satellites int        `json:"satellites"`
	FirstDate  *time.Time `json:"first_date,omitempty"`
	LastDate   *time.Time `json:"last_date,omitempty"`
}
