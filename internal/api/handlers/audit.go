package handlers

import (
	"net/http"
	"strconv"

	"granito/internal/models"
	"granito/internal/repositories"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	repo repositories.AuditRepository
}

func NewAuditHandler(repo repositories.AuditRepository) *AuditHandler {
	return &AuditHandler{repo: repo}
}

func (h *AuditHandler) List(c *gin.Context) {
	filter := repositories.AuditFilter{
		Outcome: models.AuditOutcome(c.Query("outcome")),
		Action:  models.AuditAction(c.Query("action")),
		BatchID: c.Query("batch"),
	}
	if raw := c.Query("kind"); raw != "" {
		kind, err := models.ParseEntityKind(raw)
		if err != nil {
			writeError(c, NewHTTPError(http.StatusBadRequest, "Tipo de entidad desconocido", err.Error()))
			return
		}
		filter.Kind = kind
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))

	records, total, err := h.repo.List(c.Request.Context(), filter)
	if err != nil {
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
