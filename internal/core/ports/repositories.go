package ports

import (
	"context"

	"github.com/imiranda/rebrota/internal/core/domain"
)

// DetectionRepository reads fire detection records. Records are written by
// an external ingestion process; this service never mutates them.
type DetectionRepository interface {
	// Query returns detections matching the filter, ordered by acquisition
	// date ascending, capped at filter.Limit.
	Query(ctx context.Context, filter domain.DetectionFilter) ([]domain.Detection, error)
	// Stats returns summary counts over the whole table.
	Stats(ctx context.Context) (*domain.DetectionStats, error)
}
