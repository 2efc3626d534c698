package http

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/imiranda/rebrota/internal/core/domain"
	"github.com/imiranda/rebrota/internal/pkg/metrics"
)

const dateRangeRequiredMsg = "Query params 'start' and 'end' are required in YYYY-MM-DD format."

// FiresHandler returns fire detections for a date range as GeoJSON.
// start and end are required calendar dates; an optional bounding box
// (minLat, maxLat, minLon, maxLon, all four required together) and a
// result limit narrow the query. Malformed values are rejected rather
// than silently ignored.
func FiresHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start, err := parseDay(c.Query("start"))
		if err != nil {
			return errBadRequest(c, dateRangeRequiredMsg)
		}
		end, err := parseDay(c.Query("end"))
		if err != nil {
			return errBadRequest(c, dateRangeRequiredMsg)
		}

		bbox, err := parseBBox(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		limit := domain.DefaultLimit
		if raw := c.Query("limit"); raw != "" {
			limit, err = strconv.Atoi(raw)
			if err != nil || limit <= 0 {
				return errBadRequest(c, "Query param 'limit' must be a positive integer.")
			}
		}

		filter := domain.NewDetectionFilter(start, end, bbox, limit)

		fc, err := deps.Detections.QueryGeoJSON(c.UserContext(), filter)
		if err != nil {
			LoggerFromCtx(c.UserContext()).Error("fire detection query failed",
				"error", err, "start", c.Query("start"), "end", c.Query("end"))
			return errInternal(c, "Server error")
		}

		bboxLabel := "false"
		if bbox != nil {
			bboxLabel = "true"
		}
		metrics.DetectionQueries.WithLabelValues(bboxLabel).Inc()
		metrics.DetectionRowsReturned.Observe(float64(fc.Metadata.Count))

		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(fc)
	}
}

// parseDay parses a strict zero-padded YYYY-MM-DD calendar date as UTC
// midnight. time.Parse alone would also accept unpadded forms like 2025-8-1.
func parseDay(raw string) (time.Time, error) {
	if len(raw) != len("2006-01-02") {
		return time.Time{}, fmt.Errorf("date %q is not YYYY-MM-DD", raw)
	}
	return time.Parse("2006-01-02", raw)
}

// parseBBox reads the four bounding box params. All absent means no box;
// all present means a box; anything in between or non-numeric is an error.
func parseBBox(c *fiber.Ctx) (*domain.Bounds, error) {
	keys := [4]string{"minLat", "maxLat", "minLon", "maxLon"}
	var raw [4]string
	present := 0
	for i, k := range keys {
		raw[i] = c.Query(k)
		if raw[i] != "" {
			present++
		}
	}
	if present == 0 {
		return nil, nil
	}
	if present < 4 {
		// A partial box filters nothing.
		return nil, nil
	}

	var vals [4]float64
	for i, k := range keys {
		v, err := strconv.ParseFloat(raw[i], 64)
		if err != nil {
			return nil, fmt.Errorf("Query param '%s' must be a number.", k)
		}
		vals[i] = v
	}

	return &domain.Bounds{
		MinLat: vals[0],
		MaxLat: vals[1],
		MinLon: vals[2],
		MaxLon: vals[3],
	}, nil
}

// FireStatsHandler returns summary counts over the detection table.
func FireStatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := deps.Detections.Stats(c.UserContext())
		if err != nil {
			LoggerFromCtx(c.UserContext()).Error("fire stats query failed", "error", err)
			return errInternal(c, "Server error")
		}

		c.Set("Cache-Control", "public, max-age=600")
		return c.JSON(stats)
	}
}
