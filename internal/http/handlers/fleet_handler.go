// README: Fleet handlers; feed vehicle availability and empty-run legs into the candidate index.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"logishare/internal/modules/candidate"
	"logishare/internal/types"
)

type FleetHandler struct {
	index *candidate.Index
	store *candidate.Store
}

func NewFleetHandler(index *candidate.Index, store *candidate.Store) *FleetHandler {
	return &FleetHandler{index: index, store: store}
}

type vehicleAvailabilityReq struct {
	CarrierID  string  `json:"carrier_id"`
	CapacityKg float64 `json:"capacity_kg"`
	VolumeM3   float64 `json:"volume_m3"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	Rating     float64 `json:"rating"`
	Available  bool    `json:"available"`
}

// SetVehicleAvailability adds or removes a vehicle from the assignable pool.
func (h *FleetHandler) SetVehicleAvailability(c *gin.Context) {
	vehicleID := c.Param("id")
	var req vehicleAvailabilityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	id := types.ID("v_" + vehicleID)
	if !req.Available {
		h.index.Remove(id)
		_ = h.store.DropMirror(c.Request.Context(), id)
		writeJSON(c, http.StatusOK, gin.H{"candidate_id": id, "available": false})
		return
	}
	if req.CapacityKg <= 0 {
		writeError(c, http.StatusBadRequest, "capacity must be positive")
		return
	}

	cand := candidate.Candidate{
		ID:        id,
		Kind:      candidate.KindVehicle,
		CarrierID: types.ID(req.CarrierID),
		VehicleID: types.ID(vehicleID),
		Position:  types.Point{Lat: req.Lat, Lng: req.Lng},
		WeightKg:  req.CapacityKg,
		VolumeM3:  req.VolumeM3,
		Rating:    req.Rating,
	}
	h.index.Upsert(cand)
	_ = h.store.MirrorPosition(c.Request.Context(), cand)
	writeJSON(c, http.StatusOK, gin.H{"candidate_id": id, "available": true})
}

type emptyRunReq struct {
	EmptyRunID      string  `json:"emptyrun_id"`
	VehicleID       string  `json:"vehicle_id"`
	CarrierID       string  `json:"carrier_id"`
	OriginLat       float64 `json:"origin_lat"`
	OriginLng       float64 `json:"origin_lng"`
	DepartureAt     string  `json:"departure_at"`
	ArrivalAt       string  `json:"arrival_at"`
	AvailableWeight float64 `json:"available_weight"`
	Rating          float64 `json:"rating"`
}

// RegisterEmptyRun publishes a vehicle's spare capacity on a planned route
// as a matchable candidate until its window elapses.
func (h *FleetHandler) RegisterEmptyRun(c *gin.Context) {
	var req emptyRunReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.AvailableWeight <= 0 {
		writeError(c, http.StatusBadRequest, "available_weight must be positive")
		return
	}
	departAt, err := time.Parse(time.RFC3339, req.DepartureAt)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid departure_at")
		return
	}
	arriveAt, err := time.Parse(time.RFC3339, req.ArrivalAt)
	if err != nil || !arriveAt.After(departAt) {
		writeError(c, http.StatusBadRequest, "invalid arrival_at")
		return
	}

	cand := candidate.Candidate{
		ID:        types.ID("er_" + req.EmptyRunID),
		Kind:      candidate.KindEmptyRun,
		CarrierID: types.ID(req.CarrierID),
		VehicleID: types.ID(req.VehicleID),
		Position:  types.Point{Lat: req.OriginLat, Lng: req.OriginLng},
		WeightKg:  req.AvailableWeight,
		VolumeM3:  candidate.UnboundedVolume,
		Rating:    req.Rating,
		DepartAt:  departAt,
		ArriveAt:  arriveAt,
	}
	h.index.Upsert(cand)
	_ = h.store.MirrorPosition(c.Request.Context(), cand)
	writeJSON(c, http.StatusCreated, gin.H{"candidate_id": cand.ID})
}
