package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/domain"
)

// workOrderRequest is the body of POST /v1/work-orders. planned_date accepts
// a plain date or RFC 3339.
type workOrderRequest struct {
	FarmID      string   `json:"farm_id"`
	ProductID   string   `json:"product_id"`
	AircraftID  string   `json:"aircraft_id"`
	FieldIDs    []string `json:"field_ids"`
	PlannedDate string   `json:"planned_date"`
	Dosage      float64  `json:"dosage"`
	Pilot       string   `json:"pilot"`
}

func parseDate(s string) (time.Time, bool) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// CreateWorkOrderHandler plans a spraying operation and returns it with its
// planned area, volume and cost.
func CreateWorkOrderHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req workOrderRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		wo := domain.WorkOrder{
			FarmID:     req.FarmID,
			ProductID:  req.ProductID,
			AircraftID: req.AircraftID,
			FieldIDs:   req.FieldIDs,
			Dosage:     req.Dosage,
			Pilot:      req.Pilot,
		}
		if req.PlannedDate != "" {
			d, ok := parseDate(req.PlannedDate)
			if !ok {
				return errBadRequest(c, "planned_date must be YYYY-MM-DD or RFC 3339")
			}
			wo.PlannedDate = d
		}

		if err := deps.WorkOrders.Create(c.UserContext(), &wo); err != nil {
			return errFromDomain(c, err)
		}
		c.Location("/v1/work-orders/" + wo.ID)
		return c.Status(fiber.StatusCreated).JSON(wo)
	}
}

// ListWorkOrdersHandler lists work orders filtered by farm_id and status.
func ListWorkOrdersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset, limit := pageParams(c, 50, 100)
		orders, err := deps.WorkOrders.List(c.UserContext(), domain.WorkOrderFilter{
			FarmID: c.Query("farm_id"),
			Status: domain.WorkOrderStatus(c.Query("status")),
			Limit:  limit + 1,
			Offset: offset,
		})
		if err != nil {
			return errFromDomain(c, err)
		}

		pg := Pagination{Offset: offset, Limit: limit}
		if len(orders) > limit {
			orders, pg.HasMore = orders[:limit], true
		}
		if orders == nil {
			orders = []domain.WorkOrder{}
		}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: orders, Pagination: pg})
	}
}

// GetWorkOrderHandler returns a single work order.
func GetWorkOrderHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		wo, err := deps.WorkOrders.GetByID(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(wo)
	}
}

// CancelWorkOrderHandler cancels an open work order.
func CancelWorkOrderHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if err := deps.WorkOrders.Cancel(c.UserContext(), id); err != nil {
			return errFromDomain(c, err)
		}
		wo, err := deps.WorkOrders.GetByID(c.UserContext(), id)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(wo)
	}
}
