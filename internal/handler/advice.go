package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetAdvice asks the language-model advisor for a narrative read of one
// asset's latest analysis.
func (h *Handler) GetAdvice(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-advice")
	defer span.End()

	if h.advisor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "advisor is not configured"})
		return
	}

	symbol := strings.ToUpper(c.Param("symbol"))
	span.SetAttributes(attribute.String("symbol", symbol))

	asset, ok := h.registry.GetBySymbol(symbol)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown symbol: " + symbol})
		return
	}

	advice, err := h.advisor.Advise(ctx, asset)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "advice": advice})
}
