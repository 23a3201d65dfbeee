package handlers

import (
	"net/http"
	"strconv"

	"granito/internal/logger"
	"granito/internal/models"
	"granito/internal/repositories"

	"github.com/gin-gonic/gin"
)

// EntityHandler serves the local mirror tables read-only.
type EntityHandler struct {
	repo   repositories.EntityRepository
	logger *logger.Logger
}

func NewEntityHandler(repo repositories.EntityRepository, logger *logger.Logger) *EntityHandler {
	return &EntityHandler{
		repo:   repo,
		logger: logger,
	}
}

func (h *EntityHandler) List(c *gin.Context) {
	kind, err := models.ParseEntityKind(c.Param("collection"))
	if err != nil {
		writeError(c, NotFound(err.Error()))
		return
	}

	// Pagination
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	filter := repositories.ListFilter{
		Page:   page,
		Limit:  limit,
		Search: c.Query("search"),
		Status: c.Query("status"),
	}.Normalize()

	records, total, err := h.repo.List(c.Request.Context(), kind, filter)
	if err != nil {
		h.logger.Error("Failed to list %s: %v", kind, err)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    records,
		"pagination": gin.H{
			"page":  filter.Page,
			"limit": filter.Limit,
			"total": total,
		},
	})
}

// Get accepts the local uuid or the Shopify id.
func (h *EntityHandler) Get(c *gin.Context) {
	kind, err := models.ParseEntityKind(c.Param("collection"))
	if err != nil {
		writeError(c, NotFound(err.Error()))
		return
	}

	record, err := h.repo.Get(c.Request.Context(), kind, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": record})
}
