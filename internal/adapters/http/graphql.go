package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/coverage"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/domain"
)

// resultField resolves a figure of a coverage result, which carries no
// struct tags for the default resolver.
func resultField(typ graphql.Output, get func(r *coverage.Result) interface{}) *graphql.Field {
	return &graphql.Field{
		Type: typ,
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			r, ok := p.Source.(*coverage.Result)
			if !ok || r == nil {
				return nil, nil
			}
			return get(r), nil
		},
	}
}

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	farmType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Farm",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.String},
			"name":       &graphql.Field{Type: graphql.String},
			"city":       &graphql.Field{Type: graphql.String},
			"state":      &graphql.Field{Type: graphql.String},
			"created_at": &graphql.Field{Type: graphql.DateTime},
		},
	})

	fieldType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Field",
		Fields: graphql.Fields{
			"id":      &graphql.Field{Type: graphql.String},
			"farm_id": &graphql.Field{Type: graphql.String},
			"name":    &graphql.Field{Type: graphql.String},
			"crop":    &graphql.Field{Type: graphql.String},
			"area_ha": &graphql.Field{Type: graphql.Float},
			"mapped": &graphql.Field{
				Type:        graphql.Boolean,
				Description: "Whether the field has a boundary",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					f, ok := p.Source.(domain.Field)
					return ok && f.Boundary != nil, nil
				},
			},
		},
	})

	workOrderType := graphql.NewObject(graphql.ObjectConfig{
		Name: "WorkOrder",
		Fields: graphql.Fields{
			"id":                &graphql.Field{Type: graphql.String},
			"farm_id":           &graphql.Field{Type: graphql.String},
			"product_id":        &graphql.Field{Type: graphql.String},
			"aircraft_id":       &graphql.Field{Type: graphql.String},
			"field_ids":         &graphql.Field{Type: graphql.NewList(graphql.String)},
			"planned_date":      &graphql.Field{Type: graphql.DateTime},
			"dosage":            &graphql.Field{Type: graphql.Float},
			"pilot":             &graphql.Field{Type: graphql.String},
			"status":            &graphql.Field{Type: graphql.String},
			"planned_area_ha":   &graphql.Field{Type: graphql.Float},
			"volume_required_l": &graphql.Field{Type: graphql.Float},
			"estimated_cost":    &graphql.Field{Type: graphql.Float},
		},
	})

	coverageType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Coverage",
		Fields: graphql.Fields{
			"applied_ha":       resultField(graphql.Float, func(r *coverage.Result) interface{} { return r.AppliedHa }),
			"planned_ha":       resultField(graphql.Float, func(r *coverage.Result) interface{} { return r.PlannedHa }),
			"correct_ha":       resultField(graphql.Float, func(r *coverage.Result) interface{} { return r.CorrectHa }),
			"waste_ha":         resultField(graphql.Float, func(r *coverage.Result) interface{} { return r.WasteHa }),
			"missed_ha":        resultField(graphql.Float, func(r *coverage.Result) interface{} { return r.MissedHa }),
			"coverage_percent": resultField(graphql.Float, func(r *coverage.Result) interface{} { return r.CoveragePercent }),
			"point_count":      resultField(graphql.Int, func(r *coverage.Result) interface{} { return r.PointCount }),
			"flight_length_m":  resultField(graphql.Float, func(r *coverage.Result) interface{} { return r.FlightLengthMeters }),
			"swath_width_m":    resultField(graphql.Float, func(r *coverage.Result) interface{} { return r.SwathWidthMeters }),
			"flight_polyline": resultField(graphql.String, func(r *coverage.Result) interface{} {
				return coverage.EncodePolyline(r.FlightPath)
			}),
		},
	})

	failureType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Failure",
		Fields: graphql.Fields{
			"kind":    &graphql.Field{Type: graphql.String},
			"stage":   &graphql.Field{Type: graphql.String},
			"message": &graphql.Field{Type: graphql.String},
		},
	})

	applicationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Application",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.String},
			"work_order_id": &graphql.Field{Type: graphql.String},
			"status":        &graphql.Field{Type: graphql.String},
			"source":        &graphql.Field{Type: graphql.String},
			"submitted_at":  &graphql.Field{Type: graphql.DateTime},
			"processed_at":  &graphql.Field{Type: graphql.DateTime},
			"coverage":      &graphql.Field{Type: coverageType},
			"failure":       &graphql.Field{Type: failureType},
		},
	})

	applicationSummaryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ApplicationSummary",
		Fields: graphql.Fields{
			"id":               &graphql.Field{Type: graphql.String},
			"work_order_id":    &graphql.Field{Type: graphql.String},
			"farm_name":        &graphql.Field{Type: graphql.String},
			"product_name":     &graphql.Field{Type: graphql.String},
			"aircraft_prefix":  &graphql.Field{Type: graphql.String},
			"status":           &graphql.Field{Type: graphql.String},
			"applied_ha":       &graphql.Field{Type: graphql.Float},
			"coverage_percent": &graphql.Field{Type: graphql.Float},
			"processed_at":     &graphql.Field{Type: graphql.DateTime},
		},
	})

	idArg := graphql.FieldConfigArgument{
		"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"farms": &graphql.Field{
				Type:        graphql.NewList(farmType),
				Description: "List all farms",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Farms.List(p.Context)
				},
			},
			"farm": &graphql.Field{
				Type: farmType,
				Args: idArg,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Farms.GetByID(p.Context, p.Args["id"].(string))
				},
			},
			"fields": &graphql.Field{
				Type:        graphql.NewList(fieldType),
				Description: "Fields of a farm",
				Args: graphql.FieldConfigArgument{
					"farm_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Fields.ListByFarm(p.Context, p.Args["farm_id"].(string))
				},
			},
			"workOrders": &graphql.Field{
				Type:        graphql.NewList(workOrderType),
				Description: "Work orders, newest planned date first",
				Args: graphql.FieldConfigArgument{
					"farm_id": &graphql.ArgumentConfig{Type: graphql.String},
					"status":  &graphql.ArgumentConfig{Type: graphql.String},
					"limit":   &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 50},
					"offset":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					farmID, _ := p.Args["farm_id"].(string)
					status, _ := p.Args["status"].(string)
					return deps.WorkOrders.List(p.Context, domain.WorkOrderFilter{
						FarmID: farmID,
						Status: domain.WorkOrderStatus(status),
						Limit:  p.Args["limit"].(int),
						Offset: p.Args["offset"].(int),
					})
				},
			},
			"workOrder": &graphql.Field{
				Type: workOrderType,
				Args: idArg,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.WorkOrders.GetByID(p.Context, p.Args["id"].(string))
				},
			},
			"applications": &graphql.Field{
				Type:        graphql.NewList(applicationSummaryType),
				Description: "Processed and in-flight applications",
				Args: graphql.FieldConfigArgument{
					"work_order_id": &graphql.ArgumentConfig{Type: graphql.String},
					"farm_id":       &graphql.ArgumentConfig{Type: graphql.String},
					"status":        &graphql.ArgumentConfig{Type: graphql.String},
					"limit":         &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 50},
					"offset":        &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					woID, _ := p.Args["work_order_id"].(string)
					farmID, _ := p.Args["farm_id"].(string)
					status, _ := p.Args["status"].(string)
					return deps.Applications.List(p.Context, domain.ApplicationFilter{
						WorkOrderID: woID,
						FarmID:      farmID,
						Status:      domain.ApplicationStatus(status),
						Limit:       p.Args["limit"].(int),
						Offset:      p.Args["offset"].(int),
					})
				},
			},
			"application": &graphql.Field{
				Type:        applicationType,
				Description: "An application with its coverage figures",
				Args:        idArg,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Applications.GetByID(p.Context, p.Args["id"].(string))
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
