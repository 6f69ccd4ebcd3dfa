// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"logishare/internal/ai"
	"logishare/internal/http/handlers"
	"logishare/internal/http/middleware"
	"logishare/internal/modules/candidate"
	"logishare/internal/modules/matching"
	"logishare/internal/modules/settlement"
	"logishare/internal/modules/shipment"
)

type RouterDeps struct {
	Shipments       *shipment.Service
	Processor       *matching.Processor
	MatchStore      *matching.PGStore
	Index           *candidate.Index
	CandidateStore  *candidate.Store
	Aggregator      *settlement.Aggregator
	SettlementStore *settlement.PGStore
	Notes           ai.NoteProvider
}

func NewRouter(deps RouterDeps) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.Logging())

	shipmentHandler := handlers.NewShipmentHandler(deps.Shipments, deps.Processor)
	r.POST("/api/shipments", shipmentHandler.Create)
	r.GET("/api/shipments/:id", shipmentHandler.Get)
	r.POST("/api/shipments/:id/cancel", shipmentHandler.Cancel)
	r.POST("/api/shipments/:id/dispatch", shipmentHandler.Dispatch)
	r.POST("/api/shipments/:id/complete", shipmentHandler.Complete)

	fleetHandler := handlers.NewFleetHandler(deps.Index, deps.CandidateStore)
	r.PUT("/api/vehicles/:id/availability", fleetHandler.SetVehicleAvailability)
	r.POST("/api/emptyruns", fleetHandler.RegisterEmptyRun)

	queueHandler := handlers.NewQueueHandler(deps.MatchStore, deps.Shipments, deps.Notes)
	r.GET("/api/matching_queue", queueHandler.Snapshot)
	r.GET("/api/matching_queue/:id/note", queueHandler.MatchNote)

	settlementHandler := handlers.NewSettlementHandler(deps.Aggregator, deps.SettlementStore)
	r.GET("/api/shipment_settlements", settlementHandler.List)
	r.GET("/api/carriers/:id/ledger", settlementHandler.Ledger)
	r.POST("/api/carriers/:id/finalize", settlementHandler.Finalize)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}
