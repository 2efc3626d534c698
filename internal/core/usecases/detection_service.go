package usecases

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/imiranda/rebrota/internal/core/domain"
	"github.com/imiranda/rebrota/internal/core/ports"
)

// DetectionService handles fire-detection query logic.
type DetectionService struct {
	detections ports.DetectionRepository
	cache      ports.CacheService
}

// NewDetectionService creates a new DetectionService.
func NewDetectionService(detections ports.DetectionRepository, cache ports.CacheService) *DetectionService {
	return &DetectionService{detections: detections, cache: cache}
}

// QueryGeoJSON returns matching detections as a GeoJSON FeatureCollection.
// Records without resolved coordinates are dropped before serialization.
func (s *DetectionService) QueryGeoJSON(ctx context.Context, filter domain.DetectionFilter) (*domain.FeatureCollection, error) {
	cacheKey := filterCacheKey(filter)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var fc domain.FeatureCollection
			if err := json.Unmarshal(data, &fc); err == nil {
				return &fc, nil
			}
		}
	}

	detections, err := s.detections.Query(ctx, filter)
	if err != nil {
		return nil, err
	}

	fc := domain.NewFeatureCollection(detections, filter.Limit, filter.BBox != nil)

	// Cache for 5 minutes (historical detections don't change)
	if s.cache != nil {
		if data, err := json.Marshal(fc); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 300)
		}
	}

	return fc, nil
}

// Stats returns summary counts over the detection table.
func (s *DetectionService) Stats(ctx context.Context) (*domain.DetectionStats, error) {
	return s.detections.Stats(ctx)
}

func filterCacheKey(f domain.DetectionFilter) string {
	bbox := "none"
	if f.BBox != nil {
		bbox = fmt.Sprintf("%.4f:%.4f:%.4f:%.4f", f.BBox.MinLat, f.BBox.MaxLat, f.BBox.MinLon, f.BBox.MaxLon)
	}
	return fmt.Sprintf("fires:%d:%d:%s:%d", f.Start.Unix(), f.End.Unix(), bbox, f.Limit)
}
