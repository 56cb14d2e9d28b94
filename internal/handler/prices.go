package handler

import (
	"net/http"
	"strconv"
	"strings"

	"entrywatch/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetPrices returns current prices for all tracked assets. Served from
// cache where fresh; at most one coordinated upstream call fills gaps.
func (h *Handler) GetPrices(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-prices")
	defer span.End()

	prices := h.fetcher.FetchBulkPrices(ctx, ConsumerID, h.registry.VendorIDs())

	out := make(map[string]float64, len(prices))
	for id, price := range prices {
		symbol := domain.CoinGeckoIDToSymbol[id]
		if symbol == "" {
			symbol = id
		}
		out[symbol] = price
	}
	c.JSON(http.StatusOK, gin.H{"prices": out})
}

// GetCandles returns persisted daily bars for one asset.
func (h *Handler) GetCandles(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-candles")
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

	if h.candles == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "candle storage is not configured"})
		return
	}

	limit := 30
	if l := c.Query("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 365 {
			limit = n
		}
	}

	points, err := h.candles.RecentCandles(ctx, asset.VendorID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "candles": points})
}

// CacheStats exposes hit and miss counters for the response cache.
func (h *Handler) CacheStats(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.cache-stats")
	defer span.End()

	stats := h.store.Stats()
	hits := make(map[string]int64, len(stats.Hits))
	misses := make(map[string]int64, len(stats.Misses))
	size := make(map[string]int, len(stats.Size))
	for k, v := range stats.Hits {
		hits[k.String()] = v
	}
	for k, v := range stats.Misses {
		misses[k.String()] = v
	}
	for k, v := range stats.Size {
		size[k.String()] = v
	}
	c.JSON(http.StatusOK, gin.H{"hits": hits, "misses": misses, "size": size})
}
