package domain

import (
	"time"
)

const (
	// DefaultLimit is applied when the client does not request one.
	DefaultLimit = 2500
	// MaxLimit is the hard ceiling on returned detections.
	MaxLimit = 10000
)

// DetectionFilter selects detections by acquisition date range, optional
// bounding box, and result cap. Build it with NewDetectionFilter so the
// end-of-day extension and limit clamping are always applied.
type DetectionFilter struct {
	Start time.Time // inclusive, 00:00:00 UTC
	End   time.Time // inclusive, 23:59:59.999 UTC of the end day
	BBox  *Bounds
	Limit int
}

// NewDetectionFilter builds a filter from parsed inputs. start and end are
// UTC midnights of the first and last day; the end bound is extended to the
// last millisecond of that day so a single-day range covers the full day.
// limit <= 0 selects the default; anything above MaxLimit is clamped.
func NewDetectionFilter(start, end time.Time, bbox *Bounds, limit int) DetectionFilter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return DetectionFilter{
		Start: start.UTC(),
		End:   end.UTC().Add(24*time.Hour - time.Millisecond),
		BBox:  bbox,
		Limit: limit,
	}
}
