package handler

import (
	"net/http"
	"strings"

	"entrywatch/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// ListAssets returns every tracked asset with its latest score and signal.
func (h *Handler) ListAssets(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.list-assets")
	defer span.End()

	assets := h.registry.List()
	out := make([]gin.H, 0, len(assets))
	for _, a := range assets {
		out = append(out, assetView(a))
	}
	c.JSON(http.StatusOK, gin.H{"assets": out})
}

func (h *Handler) GetAsset(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.get-asset")
	defer span.End()

	symbol := strings.ToUpper(c.Param("symbol"))
	span.SetAttributes(attribute.String("symbol", symbol))

	asset, ok := h.registry.GetBySymbol(symbol)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error":             "unknown symbol: " + symbol,
			"supported_symbols": domain.SupportedSymbols,
		})
		return
	}

	view := assetView(asset)
	view["indicators"] = asset.Indicators
	c.JSON(http.StatusOK, view)
}

type targetsRequest struct {
	EntryTarget    float64 `json:"entry_target" binding:"required,gt=0"`
	Target3Month   float64 `json:"target_3m"`
	TargetLongTerm float64 `json:"target_long_term"`
}

// SetTargets updates the consumer-owned price targets for one asset.
func (h *Handler) SetTargets(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.set-targets")
	defer span.End()

	symbol := strings.ToUpper(c.Param("symbol"))
	asset, ok := h.registry.GetBySymbol(symbol)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown symbol: " + symbol})
		return
	}

	var req targetsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.registry.SetTargets(asset.VendorID, req.EntryTarget, req.Target3Month, req.TargetLongTerm)
	updated, _ := h.registry.Get(asset.VendorID)
	c.JSON(http.StatusOK, assetView(updated))
}

func assetView(a domain.TrackedAsset) gin.H {
	return gin.H{
		"vendor_id":        a.VendorID,
		"symbol":           a.Symbol,
		"name":             a.Name,
		"current_price":    a.CurrentPrice,
		"entry_target":     a.EntryTarget,
		"target_3m":        a.Target3Month,
		"target_long_term": a.TargetLongTerm,
		"score":            a.Score,
		"signal":           a.Signal.String(),
		"status":           a.Status.String(),
		"price_updated_at": a.PriceUpdatedAt,
		"analyzed_at":      a.AnalyzedAt,
	}
}
