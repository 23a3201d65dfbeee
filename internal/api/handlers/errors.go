package handlers

import (
	"context"
	"errors"
	"net/http"

	"granito/internal/repositories"
	"granito/internal/services/shopify"

	"github.com/gin-gonic/gin"
)

// HTTPError carries the status code and the user-facing message of a failed
// request.
type HTTPError struct {
	Code    int
	Message string
	Detail  string
}

func (e *HTTPError) Error() string {
	return e.Message
}

func NewHTTPError(code int, message, detail string) error {
	return &HTTPError{Code: code, Message: message, Detail: detail}
}

func BadRequest(detail string) error {
	return NewHTTPError(http.StatusBadRequest, "Faltan parámetros requeridos", detail)
}

func NotFound(detail string) error {
	return NewHTTPError(http.StatusNotFound, "Registro no encontrado", detail)
}

// writeError maps err onto the JSON error envelope
// {success:false, error, mensaje}.
func writeError(c *gin.Context, err error) {
	status, message, detail := http.StatusInternalServerError, "Error interno del servidor", err.Error()

	var httpErr *HTTPError
	var apiErr *shopify.APIError
	switch {
	case errors.As(err, &httpErr):
		status, message, detail = httpErr.Code, httpErr.Message, httpErr.Detail
	case errors.Is(err, shopify.ErrNotConfigured):
		message = "Shopify no está configurado"
	case errors.As(err, &apiErr):
		status, message, detail = apiErr.StatusCode, "Error de la API de Shopify", apiErr.Body
		if status < 400 {
			status = http.StatusBadGateway
		}
	case errors.Is(err, repositories.ErrNotFound):
		status, message = http.StatusNotFound, "Registro no encontrado"
	case errors.Is(err, repositories.ErrUnknownKind):
		status, message = http.StatusBadRequest, "Tipo de entidad desconocido"
	case errors.Is(err, context.DeadlineExceeded):
		status, message = http.StatusGatewayTimeout, "La operación excedió el tiempo límite"
	}

	if status >= 500 {
		c.Error(err)
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   message,
		"mensaje": detail,
	})
}
