package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/temcen/smartdiet/internal/ml"
)

// ModelHandler exposes the preference model registry to operators.
type ModelHandler struct {
	registry *ml.ModelRegistry
	logger   *logrus.Logger
}

func NewModelHandler(registry *ml.ModelRegistry, logger *logrus.Logger) *ModelHandler {
	return &ModelHandler{
		registry: registry,
		logger:   logger,
	}
}

// List handles GET /api/v1/models.
func (h *ModelHandler) List(c *gin.Context) {
	response := gin.H{
		"models": h.registry.ListModels(),
	}
	if active, err := h.registry.ActiveModel(); err == nil {
		response["active"] = active.Name
	}
	c.JSON(http.StatusOK, response)
}

// Get handles GET /api/v1/models/:name.
func (h *ModelHandler) Get(c *gin.Context) {
	info, err := h.registry.GetModelInfo(c.Param("name"))
	if err != nil {
		respondServiceError(c, h.logger, "get_model", err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// Load handles POST /api/v1/models. The body is a model weight document;
// a model with an existing name is replaced.
func (h *ModelHandler) Load(c *gin.Context) {
	data, err := c.GetRawData()
	if err != nil || len(data) == 0 {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Request body is required")
		return
	}

	info, err := h.registry.Load(data)
	if err != nil {
		respondServiceError(c, h.logger, "load_model", err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"model_name": info.Name,
		"version":    info.Version,
		"hash":       info.Hash,
	}).Info("Preference model uploaded")
	c.JSON(http.StatusCreated, info)
}

// Activate handles POST /api/v1/models/:name/activate.
func (h *ModelHandler) Activate(c *gin.Context) {
	name := c.Param("name")
	if err := h.registry.Activate(name); err != nil {
		respondServiceError(c, h.logger, "activate_model", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": name})
}
