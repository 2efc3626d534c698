package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/imiranda/rebrota/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to the detection service.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	detectionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Detection",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.Int},
			"latitude":   &graphql.Field{Type: graphql.Float},
			"longitude":  &graphql.Field{Type: graphql.Float},
			"acq_date":   &graphql.Field{Type: graphql.String},
			"acq_time":   &graphql.Field{Type: graphql.String},
			"brightness": &graphql.Field{Type: graphql.Float},
			"frp":        &graphql.Field{Type: graphql.Float},
			"satellite":  &graphql.Field{Type: graphql.String},
			"instrument": &graphql.Field{Type: graphql.String},
			"confidence": &graphql.Field{Type: graphql.String},
			"daynight":   &graphql.Field{Type: graphql.String},
		},
	})

	statsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "DetectionStats",
		Fields: graphql.Fields{
			"total":      &graphql.Field{Type: graphql.Int},
			"satellites": &graphql.Field{Type: graphql.Int},
			"first_date": &graphql.Field{Type: graphql.String},
			"last_date":  &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"detections": &graphql.Field{
				Type:        graphql.NewList(detectionType),
				Description: "Fire detections within a date range, optionally bounded by a box",
				Args: graphql.FieldConfigArgument{
					"start":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"end":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"minLat": &graphql.ArgumentConfig{Type: graphql.Float},
					"maxLat": &graphql.ArgumentConfig{Type: graphql.Float},
					"minLon": &graphql.ArgumentConfig{Type: graphql.Float},
					"maxLon": &graphql.ArgumentConfig{Type: graphql.Float},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: domain.DefaultLimit},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					start, err := parseDay(p.Args["start"].(string))
					if err != nil {
						return nil, fmt.Errorf("start must be YYYY-MM-DD")
					}
					end, err := parseDay(p.Args["end"].(string))
					if err != nil {
						return nil, fmt.Errorf("end must be YYYY-MM-DD")
					}

					var bbox *domain.Bounds
					minLat, ok1 := p.Args["minLat"].(float64)
					maxLat, ok2 := p.Args["maxLat"].(float64)
					minLon, ok3 := p.Args["minLon"].(float64)
					maxLon, ok4 := p.Args["maxLon"].(float64)
					if ok1 && ok2 && ok3 && ok4 {
						bbox = &domain.Bounds{MinLat: minLat, MaxLat: maxLat, MinLon: minLon, MaxLon: maxLon}
					}

					limit, _ := p.Args["limit"].(int)
					filter := domain.NewDetectionFilter(start, end, bbox, limit)

					fc, err := deps.Detections.QueryGeoJSON(p.Context, filter)
					if err != nil {
						return nil, err
					}

					// Flatten features back to rows for GraphQL consumers
					rows := make([]map[string]interface{}, 0, len(fc.Features))
					for i := range fc.Features {
						f := &fc.Features[i]
						rows = append(rows, map[string]interface{}{
							"id":         f.Properties.ID,
							"latitude":   f.Geometry.Coordinates[1],
							"longitude":  f.Geometry.Coordinates[0],
							"acq_date":   f.Properties.AcqDate,
							"acq_time":   f.Properties.AcqTime,
							"brightness": f.Properties.Brightness,
							"frp":        f.Properties.FRP,
							"satellite":  f.Properties.Satellite,
							"instrument": f.Properties.Instrument,
							"confidence": f.Properties.Confidence,
							"daynight":   f.Properties.DayNight,
						})
					}
					return rows, nil
				},
			},
			"stats": &graphql.Field{
				Type:        statsType,
				Description: "Summary counts over the detection table",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					stats, err := deps.Detections.Stats(p.Context)
					if err != nil {
						return nil, err
					}
					m := map[string]interface{}{
						"total":      stats.Total,
						"satellites": stats.Satellites,
					}
					if stats.FirstDate != nil {
						m["first_date"] = stats.FirstDate.UTC().Format("2006-01-02")
					}
					if stats.LastDate != nil {
						m["last_date"] = stats.LastDate.UTC().Format("2006-01-02")
					}
					return m, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
