package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"granito/internal/config"
	"granito/internal/logger"
	"granito/internal/models"
	"granito/internal/services/shopify"
	"granito/internal/services/syncer"

	"github.com/gin-gonic/gin"
)

type SyncHandler struct {
	syncer *syncer.Service
	logger *logger.Logger
	config *config.Config
}

func NewSyncHandler(s *syncer.Service, logger *logger.Logger, cfg *config.Config) *SyncHandler {
	return &SyncHandler{
		syncer: s,
		logger: logger,
		config: cfg,
	}
}

type syncRequest struct {
	Tipo  string          `json:"tipo"`
	Datos json.RawMessage `json:"datos"`
}

// SyncPayload reconciles entities pushed in the request body.
func (h *SyncHandler) SyncPayload(c *gin.Context) {
	var request syncRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		writeError(c, BadRequest("cuerpo JSON inválido: "+err.Error()))
		return
	}
	if len(request.Datos) == 0 || string(request.Datos) == "null" {
		writeError(c, BadRequest("el campo datos es obligatorio"))
		return
	}

	kind, err := h.resolveKind(c.Param("kind"), request.Tipo)
	if err != nil {
		writeError(c, err)
		return
	}

	entities, err := decodeEntities(request.Datos)
	if err != nil {
		writeError(c, BadRequest(err.Error()))
		return
	}

	result, err := h.syncer.SyncBatch(c.Request.Context(), kind, entities)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   result.Status == syncer.BatchCompleted,
		"resultado": result,
	})
}

// SyncRemote pulls up to ?limit entities from Shopify and reconciles them.
func (h *SyncHandler) SyncRemote(c *gin.Context) {
	kind, err := h.resolveKind(c.Param("kind"), "")
	if err != nil {
		writeError(c, err)
		return
	}

	limit := h.config.SyncDefaultLimit
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			writeError(c, BadRequest("limit debe ser un entero positivo"))
			return
		}
	}
	if limit > shopify.MaxLimit {
		limit = shopify.MaxLimit
	}

	result, err := h.syncer.SyncRemote(c.Request.Context(), kind, limit)
	if err != nil {
		h.logger.Error("Failed to sync %s from Shopify: %v", kind, err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   result.Status == syncer.BatchCompleted,
		"resultado": result,
	})
}

// SyncOne fetches one entity by id and reconciles it. Store failures still
// return the mapped payload with status partialSuccess.
func (h *SyncHandler) SyncOne(c *gin.Context) {
	kind, err := h.resolveKind(c.Param("kind"), "")
	if err != nil {
		writeError(c, err)
		return
	}

	result, err := h.syncer.SyncRemoteOne(c.Request.Context(), kind, c.Param("id"))
	if err != nil {
		h.logger.Error("Failed to sync %s %s from Shopify: %v", kind, c.Param("id"), err)
		writeError(c, err)
		return
	}

	response := gin.H{
		"success":   result.Status != syncer.StatusMappingError,
		"status":    result.Status,
		"data":      result.Data,
		"resultado": result.Batch,
	}
	if result.DBError != "" {
		response["db_error"] = result.DBError
	}
	if result.Error != "" {
		response["error"] = result.Error
	}
	c.JSON(http.StatusOK, response)
}

// Delete removes a mirrored row by its Shopify id.
func (h *SyncHandler) Delete(c *gin.Context) {
	kind, err := h.resolveKind(c.Param("kind"), "")
	if err != nil {
		writeError(c, err)
		return
	}

	deleted, err := h.syncer.Remove(c.Request.Context(), kind, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if !deleted {
		writeError(c, NotFound(fmt.Sprintf("%s %s no existe", kind.Label(), c.Param("id"))))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// resolveKind takes the kind from the route, the body, or both when they
// agree.
func (h *SyncHandler) resolveKind(fromPath, fromBody string) (models.EntityKind, error) {
	if fromPath == "" && fromBody == "" {
		return "", BadRequest("el campo tipo es obligatorio")
	}

	var kind models.EntityKind
	for _, raw := range []string{fromPath, fromBody} {
		if raw == "" {
			continue
		}
		parsed, err := models.ParseEntityKind(raw)
		if err != nil {
			return "", NewHTTPError(http.StatusBadRequest, "Tipo de entidad desconocido", err.Error())
		}
		if kind != "" && parsed != kind {
			return "", BadRequest(fmt.Sprintf("tipo %q no coincide con la ruta %q", fromBody, fromPath))
		}
		kind = parsed
	}
	return kind, nil
}

// decodeEntities accepts a list of entities or a single entity object.
func decodeEntities(raw json.RawMessage) ([]interface{}, error) {
	var value interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&value); err != nil {
		return nil, fmt.Errorf("datos inválidos: %w", err)
	}

	switch v := value.(type) {
	case []interface{}:
		return v, nil
	case map[string]interface{}:
		return []interface{}{v}, nil
	}
	return nil, fmt.Errorf("datos debe ser una lista o un objeto")
}
