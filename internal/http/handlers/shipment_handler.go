// README: Shipment handlers for create/get/cancel/dispatch/complete.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"logishare/internal/modules/matching"
	"logishare/internal/modules/shipment"
	"logishare/internal/types"
)

type ShipmentHandler struct {
	shipments *shipment.Service
	processor *matching.Processor
}

func NewShipmentHandler(shipments *shipment.Service, processor *matching.Processor) *ShipmentHandler {
	return &ShipmentHandler{shipments: shipments, processor: processor}
}

type createShipmentReq struct {
	CarrierID    string  `json:"carrier_id"`
	OriginLat    float64 `json:"origin_lat"`
	OriginLng    float64 `json:"origin_lng"`
	DestLat      float64 `json:"dest_lat"`
	DestLng      float64 `json:"dest_lng"`
	Cargo        string  `json:"cargo"`
	WeightKg     float64 `json:"weight_kg"`
	VolumeM3     float64 `json:"volume_m3"`
	Urgency      string  `json:"urgency"`
	RequestedAt  string  `json:"requested_at,omitempty"`
	Instructions string  `json:"special_instructions,omitempty"`
}

// Create persists the shipment and hands it straight to the matching queue.
func (h *ShipmentHandler) Create(c *gin.Context) {
	var req createShipmentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Urgency == "" {
		req.Urgency = string(shipment.UrgencyNormal)
	}
	var requestedAt time.Time
	if req.RequestedAt != "" {
		t, err := time.Parse(time.RFC3339, req.RequestedAt)
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid requested_at")
			return
		}
		requestedAt = t
	}

	id, err := h.shipments.Create(c.Request.Context(), shipment.CreateCommand{
		CarrierID:    types.ID(req.CarrierID),
		Origin:       types.Point{Lat: req.OriginLat, Lng: req.OriginLng},
		Destination:  types.Point{Lat: req.DestLat, Lng: req.DestLng},
		Cargo:        req.Cargo,
		WeightKg:     req.WeightKg,
		VolumeM3:     req.VolumeM3,
		Urgency:      shipment.Urgency(req.Urgency),
		RequestedAt:  requestedAt,
		Instructions: req.Instructions,
	})
	if err != nil {
		writeEngineError(c, err)
		return
	}
	if err := h.processor.Enqueue(c.Request.Context(), id); err != nil {
		writeEngineError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{"shipment_id": id, "status": shipment.StatusMatching})
}

func (h *ShipmentHandler) Get(c *gin.Context) {
	sh, err := h.shipments.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeEngineError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{
		"shipment_id": sh.ID,
		"status":      sh.Status,
		"urgency":     sh.Urgency,
		"weight_kg":   sh.WeightKg,
		"volume_m3":   sh.VolumeM3,
		"vehicle_id":  sh.VehicleID,
	})
}

func (h *ShipmentHandler) Cancel(c *gin.Context) {
	err := h.processor.Cancel(c.Request.Context(), types.ID(c.Param("id")), "shipper")
	if err != nil {
		writeEngineError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": shipment.StatusCancelled})
}

// Dispatch marks a matched shipment as picked up and in transit.
func (h *ShipmentHandler) Dispatch(c *gin.Context) {
	if err := h.processor.Dispatch(c.Request.Context(), types.ID(c.Param("id"))); err != nil {
		writeEngineError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": shipment.StatusInTransit})
}

// Complete finishes the trip; fare and settlement follow from here.
func (h *ShipmentHandler) Complete(c *gin.Context) {
	if err := h.processor.Complete(c.Request.Context(), types.ID(c.Param("id"))); err != nil {
		writeEngineError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": shipment.StatusCompleted})
}
