package http

import (
	"os"

	"github.com/gofiber/fiber/v2"
)

// openAPIPath is where the API document lives relative to the working
// directory of cmd/api.
const openAPIPath = "api/openapi.yaml"

// docsPage renders Swagger UI for the spraying API with the operation groups
// collapsed; farm managers mostly open work-orders and applications.
const docsPage = `<!DOCTYPE html>
<html lang="pt-BR">
<head>
  <meta charset="UTF-8">
  <title>AgroVetor Spraying API · Swagger UI</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
</head>
<body style="margin:0">
  <div id="swagger-ui"></div>
  <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: '/docs/openapi.yaml',
      dom_id: '#swagger-ui',
      docExpansion: 'none',
      tagsSorter: 'alpha',
      tryItOutEnabled: true,
    });
  </script>
</body>
</html>`

// SetupDocs serves Swagger UI at /docs and the API document at
// /docs/openapi.yaml.
func SetupDocs(app *fiber.App) {
	app.Get("/docs", func(c *fiber.Ctx) error {
		c.Type("html", "utf-8")
		return c.SendString(docsPage)
	})
	app.Get("/docs/openapi.yaml", func(c *fiber.Ctx) error {
		doc, err := os.ReadFile(openAPIPath)
		if err != nil {
			return errNotFound(c, "API document not available")
		}
		c.Set(fiber.HeaderContentType, "application/yaml")
		return c.Send(doc)
	})
}
