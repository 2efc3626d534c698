package postgres

import (
	"context"
	"fmt"

	"github.com/imiranda/rebrota/internal/core/domain"
)

// DetectionRepo implements ports.DetectionRepository with pgx.
type DetectionRepo struct {
	db *DB
}

// NewDetectionRepo creates a new DetectionRepo.
func NewDetectionRepo(db *DB) *DetectionRepo {
	return &DetectionRepo{db: db}
}

// Query returns detections inside the filter's date range (and bounding box,
// when present), ordered by acquisition date ascending so the limit keeps
// the earliest matches. Null-coordinate rows are returned as-is; dropping
// them from spatial output is the service's job.
func (r *DetectionRepo) Query(ctx context.Context, f domain.DetectionFilter) ([]domain.Detection, error) {
	query := `
		SELECT id, latitude, longitude, acq_date, acq_time,
		       brightness, frp, satellite, instrument, confidence, daynight
		FROM fire_detections
		WHERE acq_date >= $1 AND acq_date <= $2`
	args := []any{f.Start, f.End}

	if f.BBox != nil {
		query += `
		  AND latitude BETWEEN $3 AND $4
		  AND longitude BETWEEN $5 AND $6`
		args = append(args, f.BBox.MinLat, f.BBox.MaxLat, f.BBox.MinLon, f.BBox.MaxLon)
	}

	query += fmt.Sprintf(`
		ORDER BY acq_date ASC, id ASC
		LIMIT $%d`, len(args)+1)
	args = append(args, f.Limit)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var detections []domain.Detection
	for rows.Next() {
		var d domain.Detection
		if err := rows.Scan(
			&d.ID, &d.Latitude, &d.Longitude, &d.AcqDate, &d.AcqTime,
			&d.Brightness, &d.FRP, &d.Satellite, &d.Instrument, &d.Confidence, &d.DayNight,
		); err != nil {
			return nil, err
		}
		detections = append(detections, d)
	}
	return detections, rows.Err()
}

// Stats returns row counts and the observed acquisition date range.
func (r *DetectionRepo) Stats(ctx context.Context) (*domain.DetectionStats, error) {
	var s domain.DetectionStats
	err := r.db.Pool.QueryRow(ctx, `
		SELECT count(*),
		       count(DISTINCT satellite),
		       min(acq_date),
		       max(acq_date)
		FROM fire_detections
	`).Scan(&s.Total, &s.Satellites, &s.FirstDate, &s.LastDate)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
