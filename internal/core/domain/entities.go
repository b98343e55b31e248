package domain

import (
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/coverage"
)

// Farm is a customer property grouping fields.
type Farm struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	City      string    `json:"city,omitempty"`
	State     string    `json:"state,omitempty"`
	Location  *GeoPoint `json:"location,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Field is a plot (talhão) of a farm. Boundary may be nil for fields that
// have not been mapped yet.
type Field struct {
	ID        string            `json:"id"`
	FarmID    string            `json:"farm_id"`
	Name      string            `json:"name"`
	Crop      string            `json:"crop,omitempty"`
	Boundary  *geojson.Geometry `json:"boundary,omitempty"`
	AreaHa    float64           `json:"area_ha"`
	Bounds    *Bounds           `json:"bounds,omitempty"` // computed field
	CreatedAt time.Time         `json:"created_at"`
}

// Product is a sprayable input (pesticide, fertilizer...).
type Product struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	ActiveIngredient string    `json:"active_ingredient,omitempty"`
	DefaultDosage    float64   `json:"default_dosage"` // L/ha
	CostPerLiter     float64   `json:"cost_per_liter"`
	CreatedAt        time.Time `json:"created_at"`
}

// Aircraft is a spraying aircraft or drone.
type Aircraft struct {
	ID         string    `json:"id"`
	Prefix     string    `json:"prefix"`
	Model      string    `json:"model,omitempty"`
	SwathWidth float64   `json:"swath_width"` // meters
	HourlyCost float64   `json:"hourly_cost"`
	CreatedAt  time.Time `json:"created_at"`
}

// WorkOrder is a planned spraying operation over one or more fields.
type WorkOrder struct {
	ID              string          `json:"id"`
	FarmID          string          `json:"farm_id"`
	ProductID       string          `json:"product_id"`
	AircraftID      string          `json:"aircraft_id"`
	FieldIDs        []string        `json:"field_ids"`
	PlannedDate     time.Time       `json:"planned_date"`
	Dosage          float64         `json:"dosage"` // L/ha
	Pilot           string          `json:"pilot,omitempty"`
	Status          WorkOrderStatus `json:"status"`
	PlannedAreaHa   float64         `json:"planned_area_ha"`
	VolumeRequiredL float64         `json:"volume_required_l"`
	EstimatedCost   float64         `json:"estimated_cost"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Application is one processed (or in-flight) flight log for a work order.
type Application struct {
	ID          string            `json:"id"`
	WorkOrderID string            `json:"work_order_id"`
	Status      ApplicationStatus `json:"status"`
	Source      LogSource         `json:"source"`
	Log         []byte            `json:"-"`
	Coverage    *coverage.Result  `json:"coverage,omitempty"`
	Failure     *coverage.Failure `json:"failure,omitempty"`
	SubmittedAt time.Time         `json:"submitted_at"`
	ProcessedAt *time.Time        `json:"processed_at,omitempty"`
}

// ApplicationSummary is an Application listed together with its work order
// context, without geometries.
type ApplicationSummary struct {
	ID              string            `json:"id"`
	WorkOrderID     string            `json:"work_order_id"`
	FarmName        string            `json:"farm_name"`
	ProductName     string            `json:"product_name"`
	AircraftPrefix  string            `json:"aircraft_prefix"`
	Status          ApplicationStatus `json:"status"`
	AppliedHa       float64           `json:"applied_ha"`
	CoveragePercent float64           `json:"coverage_percent"`
	ProcessedAt     *time.Time        `json:"processed_at,omitempty"`
}

// CoverageEvent is published when an application finishes processing.
type CoverageEvent struct {
	ID              string            `json:"id"`
	ApplicationID   string            `json:"application_id"`
	WorkOrderID     string            `json:"work_order_id"`
	FarmID          string            `json:"farm_id"`
	Status          ApplicationStatus `json:"status"`
	AppliedHa       float64           `json:"applied_ha,omitempty"`
	CorrectHa       float64           `json:"correct_ha,omitempty"`
	WasteHa         float64           `json:"waste_ha,omitempty"`
	MissedHa        float64           `json:"missed_ha,omitempty"`
	CoveragePercent float64           `json:"coverage_percent,omitempty"`
	FailureKind     coverage.Kind     `json:"failure_kind,omitempty"`
	Time            time.Time         `json:"time"`
}

// WorkOrderFilter narrows work order listings. Zero values match everything.
type WorkOrderFilter struct {
	FarmID string
	Status WorkOrderStatus
	Limit  int
	Offset int
}

// ApplicationFilter narrows application listings. Zero values match everything.
type ApplicationFilter struct {
	WorkOrderID string
	FarmID      string
	Status      ApplicationStatus
	Limit       int
	Offset      int
}
