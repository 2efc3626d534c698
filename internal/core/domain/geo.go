package domain

// Bounds represents a geographic bounding box (WGS 84). All four edges must
// be supplied for the box to participate in filtering; a partial set means
// no box at all.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}
