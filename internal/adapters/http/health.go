package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// apiVersion is reported by /v1/health and the X-API-Version header.
const apiVersion = "1.0.0"

// readinessCheck asks one collaborator for its state. Optional checks are
// reported but never make the API unready.
type readinessCheck struct {
	name     string
	optional bool
	state    func(ctx context.Context) string
}

func readinessChecks(deps *Dependencies) []readinessCheck {
	return []readinessCheck{
		{name: "database", state: func(ctx context.Context) string {
			if deps.DB == nil {
				return "not configured"
			}
			return errState(deps.DB.Pool.Ping(ctx))
		}},
		{name: "processing", state: func(context.Context) string {
			if deps.Applications == nil || !deps.Applications.Dispatching() {
				return "no dispatcher"
			}
			return "ok"
		}},
		{name: "events", optional: true, state: func(context.Context) string {
			switch {
			case deps.NATS == nil:
				return "not configured"
			case !deps.NATS.IsConnected():
				return "disconnected"
			}
			return "ok"
		}},
		{name: "cache", optional: true, state: func(ctx context.Context) string {
			if deps.Cache == nil {
				return "not configured"
			}
			return errState(deps.Cache.Ping(ctx))
		}},
	}
}

func errState(err error) string {
	if err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}

// HealthHandler reports liveness.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "agrovetor-api",
			"version": apiVersion,
			"uptime":  time.Since(startedAt).Round(time.Second).String(),
		})
	}
}

// ReadyHandler answers 503 until the database is reachable and flight logs
// can be dispatched for processing.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	checks := readinessChecks(deps)
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		results := make(map[string]string, len(checks))
		ready := true
		for _, chk := range checks {
			state := chk.state(ctx)
			results[chk.name] = state
			if state != "ok" && !chk.optional {
				ready = false
			}
		}

		if !ready {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "not ready", "checks": results})
		}
		return c.JSON(fiber.Map{"status": "ready", "checks": results})
	}
}
