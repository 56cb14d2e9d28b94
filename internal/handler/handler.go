package handler

import (
	"context"

	"entrywatch/internal/cache"
	"entrywatch/internal/domain"
	"entrywatch/internal/registry"
	"entrywatch/internal/scheduler"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// ConsumerID identifies API-triggered fetches to the call coordinator.
const ConsumerID = "api"

type BulkPriceFetcher interface {
	FetchBulkPrices(ctx context.Context, consumerID string, ids []string) map[string]float64
}

type AnalysisScheduler interface {
	StartRun(ctx context.Context, onComplete func(scheduler.Summary)) error
	Cancel() bool
	Status() scheduler.Status
}

type CandleReader interface {
	RecentCandles(ctx context.Context, vendorID string, limit int) ([]domain.PricePoint, error)
}

type Advisor interface {
	Advise(ctx context.Context, asset domain.TrackedAsset) (string, error)
}

type Handler struct {
	tracer    trace.Tracer
	registry  *registry.Registry
	fetcher   BulkPriceFetcher
	scheduler AnalysisScheduler
	store     *cache.Store
	candles   CandleReader
	advisor   Advisor

	// OnRunComplete is attached to every API-triggered analysis run.
	// The composition root sets it to persist and announce results.
	OnRunComplete func(scheduler.Summary)
}

func New(tracer trace.Tracer, reg *registry.Registry, fetcher BulkPriceFetcher, sched AnalysisScheduler, store *cache.Store, candles CandleReader, advisor Advisor) *Handler {
	return &Handler{
		tracer:    tracer,
		registry:  reg,
		fetcher:   fetcher,
		scheduler: sched,
		store:     store,
		candles:   candles,
		advisor:   advisor,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine, apiKey string) {
	r.GET("/health", h.Health)

	api := r.Group("/api", APIKeyAuth(apiKey))
	api.GET("/assets", h.ListAssets)
	api.GET("/assets/:symbol", h.GetAsset)
	api.PUT("/assets/:symbol/targets", h.SetTargets)
	api.GET("/prices", h.GetPrices)
	api.GET("/candles/:symbol", h.GetCandles)
	api.POST("/analysis/run", h.StartAnalysis)
	api.POST("/analysis/cancel", h.CancelAnalysis)
	api.GET("/analysis/status", h.AnalysisStatus)
	api.GET("/cache/stats", h.CacheStats)
	api.GET("/advice/:symbol", h.GetAdvice)
}
