package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/pkg/metrics"
)

const (
	requestTimeout = 15 * time.Second
	// Coverage previews run the whole pipeline inside the request.
	previewTimeout = 60 * time.Second
)

// deprecatedRoutes lists endpoints kept for older field tablets.
var deprecatedRoutes = []DeprecatedRoute{
	{
		Path:        "/v1/work-orders/:id/process-log",
		SunsetDate:  time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC),
		Alternative: "/v1/work-orders/{id}/flight-logs",
	},
}

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "rate limit exceeded",
				"message": "too many requests, please try again later",
			})
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", apiVersion)
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())
	app.Use(DeprecationMiddleware(deprecatedRoutes))

	// Health & readiness (no timeout)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	get := func(path string, h fiber.Handler) {
		v1.Get(path, timeout.NewWithContext(h, requestTimeout))
	}
	post := func(path string, h fiber.Handler) {
		v1.Post(path, timeout.NewWithContext(h, requestTimeout))
	}

	get("/farms", ListFarmsHandler(deps))
	post("/farms", CreateFarmHandler(deps))
	get("/farms/:id", GetFarmHandler(deps))

	get("/fields", ListFieldsHandler(deps))
	post("/fields", CreateFieldHandler(deps))
	get("/fields/:id", GetFieldHandler(deps))

	get("/products", ListProductsHandler(deps))
	post("/products", CreateProductHandler(deps))
	get("/aircraft", ListAircraftHandler(deps))
	post("/aircraft", CreateAircraftHandler(deps))

	get("/work-orders", ListWorkOrdersHandler(deps))
	post("/work-orders", CreateWorkOrderHandler(deps))
	get("/work-orders/:id", GetWorkOrderHandler(deps))
	post("/work-orders/:id/cancel", CancelWorkOrderHandler(deps))
	post("/work-orders/:id/flight-logs", SubmitFlightLogHandler(deps))
	post("/work-orders/:id/process-log", ProcessLogHandler(deps))

	get("/applications", ListApplicationsHandler(deps))
	get("/applications/:id", GetApplicationHandler(deps))
	get("/applications/:id/geojson", ApplicationGeoJSONHandler(deps))
	get("/applications/:id/kml", ApplicationKMLHandler(deps))
	get("/applications/:id/flight-path", ApplicationFlightPathHandler(deps))
	post("/applications/:id/retry", RetryApplicationHandler(deps))

	v1.Post("/coverage/preview", timeout.NewWithContext(CoveragePreviewHandler(deps), previewTimeout))

	app.Post("/graphql", GraphQLHandler(deps))

	SetupDocs(app)

	// Live coverage events
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
