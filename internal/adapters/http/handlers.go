package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/domain"
)

// ListFarmsHandler returns all farms.
func ListFarmsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		farms, err := deps.Farms.List(c.UserContext())
		if err != nil {
			return errFromDomain(c, err)
		}

		offset, limit := pageParams(c, 100, 200)
		page, pg := pageSlice(farms, offset, limit)
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: page, Pagination: pg})
	}
}

// GetFarmHandler returns a single farm.
func GetFarmHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		farm, err := deps.Farms.GetByID(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(farm)
	}
}

// CreateFarmHandler registers a farm.
func CreateFarmHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var farm domain.Farm
		if err := c.BodyParser(&farm); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := deps.Farms.Create(c.UserContext(), &farm); err != nil {
			return errFromDomain(c, err)
		}
		c.Location("/v1/farms/" + farm.ID)
		return c.Status(fiber.StatusCreated).JSON(farm)
	}
}

// ListFieldsHandler lists the fields of a farm.
func ListFieldsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		farmID := c.Query("farm_id")
		if farmID == "" {
			return errBadRequest(c, "farm_id query parameter is required")
		}
		fields, err := deps.Fields.ListByFarm(c.UserContext(), farmID)
		if err != nil {
			return errFromDomain(c, err)
		}

		offset, limit := pageParams(c, 100, 500)
		page, pg := pageSlice(fields, offset, limit)
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: page, Pagination: pg})
	}
}

// GetFieldHandler returns a field with its boundary.
func GetFieldHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		field, err := deps.Fields.GetByID(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(field)
	}
}

// CreateFieldHandler registers a field. The boundary is a GeoJSON Polygon
// or MultiPolygon; area_ha is computed from it when omitted.
func CreateFieldHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var field domain.Field
		if err := c.BodyParser(&field); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := deps.Fields.Create(c.UserContext(), &field); err != nil {
			return errFromDomain(c, err)
		}
		c.Location("/v1/fields/" + field.ID)
		return c.Status(fiber.StatusCreated).JSON(field)
	}
}

// ListProductsHandler returns the product catalog.
func ListProductsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		products, err := deps.Catalog.ListProducts(c.UserContext())
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(products)
	}
}

// CreateProductHandler adds a product to the catalog.
func CreateProductHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var p domain.Product
		if err := c.BodyParser(&p); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := deps.Catalog.CreateProduct(c.UserContext(), &p); err != nil {
			return errFromDomain(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(p)
	}
}

// ListAircraftHandler returns the fleet.
func ListAircraftHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		aircraft, err := deps.Catalog.ListAircraft(c.UserContext())
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(aircraft)
	}
}

// CreateAircraftHandler registers an aircraft. swath_width is in meters.
func CreateAircraftHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var a domain.Aircraft
		if err := c.BodyParser(&a); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := deps.Catalog.CreateAircraft(c.UserContext(), &a); err != nil {
			return errFromDomain(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(a)
	}
}
