package domain

// FeatureCollection is a GeoJSON container for point features plus the
// response metadata the map client reads.
type FeatureCollection struct {
	Type     string             `json:"type"` // always "FeatureCollection"
	Features []Feature          `json:"features"`
	Metadata CollectionMetadata `json:"metadata"`
}

// Feature is a single GeoJSON feature with a point geometry.
type Feature struct {
	Type       string            `json:"type"` // always "Feature"
	Geometry   PointGeometry     `json:"geometry"`
	Properties FeatureProperties `json:"properties"`
}

// PointGeometry holds [longitude, latitude] per the GeoJSON spec.
type PointGeometry struct {
	Type        string     `json:"type"` // always "Point"
	Coordinates [2]float64 `json:"coordinates"`
}

// FeatureProperties carries the non-spatial attributes of a detection.
type FeatureProperties struct {
	ID         int64    `json:"id"`
	AcqDate    string   `json:"acq_date"` // YYYY-MM-DD
	AcqTime    *string  `json:"acq_time"`
	Brightness *float64 `json:"brightness"`
	FRP        *float64 `json:"frp"`
	Satellite  *string  `json:"satellite"`
	Instrument *string  `json:"instrument"`
	Confidence *string  `json:"confidence"`
	DayNight   *string  `json:"daynight"`
}

// CollectionMetadata reports what the query actually returned.
type CollectionMetadata struct {
	Count          int  `json:"count"`
	RequestedLimit int  `json:"requestedLimit"`
	BBoxProvided   bool `json:"bboxProvided"`
}

// NewFeatureCollection builds a FeatureCollection from detections, dropping
// any record without resolved coordinates.
func NewFeatureCollection(detections []Detection, requestedLimit int, bboxProvided bool) *FeatureCollection {
	features := make([]Feature, 0, len(detections))
	for i := range detections {
		d := &detections[i]
		if !d.HasCoordinates() {
			continue
		}
		features = append(features, Feature{
			Type: "Feature",
			Geometry: PointGeometry{
				Type:        "Point",
				Coordinates: [2]float64{*d.Longitude, *d.Latitude},
			},
			Properties: FeatureProperties{
				ID:         d.ID,
				AcqDate:    d.AcqDate.UTC().Format("2006-01-02"),
				AcqTime:    d.AcqTime,
				Brightness: d.Brightness,
				FRP:        d.FRP,
				Satellite:  d.Satellite,
				Instrument: d.Instrument,
				Confidence: d.Confidence,
				DayNight:   d.DayNight,
			},
		})
	}

	return &FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
		Metadata: CollectionMetadata{
			Count:          len(features),
			RequestedLimit: requestedLimit,
			BBoxProvided:   bboxProvided,
		},
	}
}
