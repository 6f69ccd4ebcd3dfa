// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"logishare/internal/modules/matching"
	"logishare/internal/modules/settlement"
	"logishare/internal/modules/shipment"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeEngineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, shipment.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, shipment.ErrNotFound), errors.Is(err, matching.ErrNotFound),
		errors.Is(err, settlement.ErrLedgerMissing):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, shipment.ErrInvalidState), errors.Is(err, shipment.ErrConflict),
		errors.Is(err, settlement.ErrPeriodClosed):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, matching.ErrNoCapacity):
		writeError(c, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
