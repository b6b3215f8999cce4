package docs

import (
	_ "embed"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var openAPISpec []byte

// Handler serves the API description under /docs.
type Handler struct {
	spec map[string]interface{}
}

// NewHandler parses the embedded OpenAPI document once.
func NewHandler() (*Handler, error) {
	var spec map[string]interface{}
	if err := yaml.Unmarshal(openAPISpec, &spec); err != nil {
		return nil, fmt.Errorf("parse openapi document: %w", err)
	}
	return &Handler{spec: spec}, nil
}

func (h *Handler) RegisterRoutes(router gin.IRoutes) {
	router.GET("/docs/openapi.yaml", h.OpenAPISpec)
	router.GET("/docs/openapi.json", h.OpenAPISpecJSON)
}

func (h *Handler) OpenAPISpec(c *gin.Context) {
	c.Data(http.StatusOK, "application/yaml", openAPISpec)
}

func (h *Handler) OpenAPISpecJSON(c *gin.Context) {
	c.JSON(http.StatusOK, h.spec)
}
