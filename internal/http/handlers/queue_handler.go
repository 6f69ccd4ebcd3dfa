// README: Matching queue snapshot and match-note handlers for the dashboard.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"logishare/internal/ai"
	"logishare/internal/modules/matching"
	"logishare/internal/modules/shipment"
	"logishare/internal/types"
)

type QueueHandler struct {
	store     *matching.PGStore
	shipments *shipment.Service
	notes     ai.NoteProvider
}

func NewQueueHandler(store *matching.PGStore, shipments *shipment.Service, notes ai.NoteProvider) *QueueHandler {
	return &QueueHandler{store: store, shipments: shipments, notes: notes}
}

// Snapshot serves the matching_queue rows the dashboard polls or renders
// after an event.
func (h *QueueHandler) Snapshot(c *gin.Context) {
	rows, err := h.store.QueueSnapshot(c.Request.Context())
	if err != nil {
		writeEngineError(c, err)
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, r := range rows {
		out = append(out, gin.H{
			"shipment_id":        r.ShipmentID,
			"urgency":            r.Urgency,
			"request_time":       r.RequestedAt,
			"matching_score":     r.MatchingScore,
			"status":             r.Status,
			"matched_vehicle_id": r.MatchedVehicleID,
			"attempts":           r.Attempts,
		})
	}
	writeJSON(c, http.StatusOK, out)
}

// MatchNote asks the note generator for an operator-facing summary of a
// committed match. Returns 404 if the shipment has no active match and 503
// when no provider is configured.
func (h *QueueHandler) MatchNote(c *gin.Context) {
	if h.notes == nil {
		writeError(c, http.StatusServiceUnavailable, "note generator not configured")
		return
	}
	shipmentID := types.ID(c.Param("id"))
	sh, err := h.shipments.Get(c.Request.Context(), shipmentID)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	m, err := h.store.GetMatchByShipment(c.Request.Context(), shipmentID)
	if err != nil {
		writeEngineError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()
	note, err := h.notes.MatchNote(ctx, ai.MatchContext{
		Cargo:        sh.Cargo,
		WeightKg:     sh.WeightKg,
		Urgency:      string(sh.Urgency),
		Instructions: sh.Instructions,
		DistanceKm:   m.DistanceKm,
		Score:        m.Score,
	})
	if err != nil {
		writeError(c, http.StatusBadGateway, "note generation failed")
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"shipment_id": shipmentID, "note": note})
}
