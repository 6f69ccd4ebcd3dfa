// README: Settlement and carrier ledger handlers.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"logishare/internal/modules/settlement"
	"logishare/internal/types"
)

type SettlementHandler struct {
	aggregator *settlement.Aggregator
	store      *settlement.PGStore
}

func NewSettlementHandler(aggregator *settlement.Aggregator, store *settlement.PGStore) *SettlementHandler {
	return &SettlementHandler{aggregator: aggregator, store: store}
}

// List serves recent settlement records for the dashboard table.
func (h *SettlementHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	rows, err := h.store.ListSettlements(c.Request.Context(), limit)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, s := range rows {
		out = append(out, gin.H{
			"settlement_id":      s.ID,
			"shipment_id":        s.ShipmentID,
			"carrier_id":         s.CarrierID,
			"matched_vehicle_id": s.VehicleID,
			"kind":               s.Kind,
			"base_fare":          s.BaseFare,
			"time_fare":          s.TimeFare,
			"weight_fare":        s.WeightFare,
			"total_fare":         s.TotalFare,
			"platform_fee":       s.PlatformFee,
			"carrier_amount":     s.CarrierAmount,
			"period":             s.Period.String(),
			"late":               s.Late,
			"completed_date":     s.CompletedAt,
		})
	}
	writeJSON(c, http.StatusOK, out)
}

// Ledger serves a carrier's rollup for the requested period (default: the
// current month).
func (h *SettlementHandler) Ledger(c *gin.Context) {
	carrierID := types.ID(c.Param("id"))
	period := settlement.PeriodOf(time.Now())
	if p := c.Query("period"); p != "" {
		t, err := time.Parse("2006-01", p)
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid period, want YYYY-MM")
			return
		}
		period = settlement.PeriodOf(t)
	}

	l, err := h.aggregator.Ledger(c.Request.Context(), carrierID, period)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{
		"carrier_id":       l.CarrierID,
		"period":           l.Period.String(),
		"total_deliveries": l.TotalDeliveries,
		"total_revenue":    l.TotalRevenue,
		"platform_fee":     l.PlatformFee,
		"net_amount":       l.NetAmount,
		"status":           l.Status,
		"settlement_date":  l.SettlementDate,
	})
}

// Finalize closes a carrier's period; subsequent settlements roll into the
// next one.
func (h *SettlementHandler) Finalize(c *gin.Context) {
	carrierID := types.ID(c.Param("id"))
	t, err := time.Parse("2006-01", c.Query("period"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid period, want YYYY-MM")
		return
	}
	if err := h.aggregator.Finalize(c.Request.Context(), carrierID, settlement.PeriodOf(t)); err != nil {
		writeEngineError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": settlement.LedgerSettled})
}
