package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// resultCacheControl is set by handlers serving a stored coverage result,
// which never changes once written.
const resultCacheControl = "private, max-age=86400, immutable"

// cachePolicies maps path prefixes to Cache-Control values, most specific
// first. Catalog data changes rarely; anything tied to processing state must
// be revalidated.
var cachePolicies = []struct {
	prefix string
	value  string
}{
	{"/v1/health", "public, max-age=10"},
	{"/v1/ready", "public, max-age=10"},
	{"/metrics", "no-cache"},
	{"/graphql", "private, max-age=0"},
	{"/v1/products", "private, max-age=300"},
	{"/v1/aircraft", "private, max-age=300"},
	{"/v1/farms", "private, max-age=120"},
	{"/v1/fields", "private, max-age=120"},
	{"/v1/work-orders", "private, no-cache"},
	{"/v1/applications", "private, no-cache"},
	{"/v1/", "private, max-age=60"},
}

// CachingMiddleware fills in Cache-Control on GET responses whose handler did
// not set one.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if c.Method() != fiber.MethodGet || c.GetRespHeader(fiber.HeaderCacheControl) != "" {
			return err
		}

		path := c.Path()
		for _, p := range cachePolicies {
			if strings.HasPrefix(path, p.prefix) {
				c.Set(fiber.HeaderCacheControl, p.value)
				break
			}
		}
		return err
	}
}
