package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"entrywatch/internal/advisor"
	"entrywatch/internal/analysis"
	"entrywatch/internal/bot"
	"entrywatch/internal/cache"
	"entrywatch/internal/config"
	"entrywatch/internal/coordinator"
	"entrywatch/internal/db"
	"entrywatch/internal/domain"
	"entrywatch/internal/fetcher"
	"entrywatch/internal/handler"
	"entrywatch/internal/job"
	"entrywatch/internal/migrate"
	"entrywatch/internal/provider"
	"entrywatch/internal/registry"
	"entrywatch/internal/repository"
	"entrywatch/internal/scheduler"
	"entrywatch/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initPostgresFunc       = db.InitPostgres
	initRedisFunc          = cache.InitRedis
	initTracerFunc         = tracing.InitTracer
	migrateUpFunc          = func(ctx context.Context, pool migrate.DB) (int, error) { return migrate.Up(ctx, pool) }
	startRefresherFunc     = func(p *job.PriceRefresher, ctx context.Context) { go p.Start(ctx) }
	startTelegramBotFunc   = bot.StartTelegramBot
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	os.Setenv("DATABASE_URL", cfg.DatabaseURL)
	os.Setenv("REDIS_URL", cfg.RedisURL)
	usePostgres := initPostgresFunc(ctx)
	initRedisFunc(ctx)

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	// Repositories, migrations, and saved state
	var candleRepo *repository.CandleRepository
	var assetRepo *repository.AssetRepository
	seed := domain.DefaultTrackedAssets()
	if usePostgres {
		applied, err := migrateUpFunc(ctx, db.Pool)
		if err != nil {
			log.Fatalf("failed to apply schema migrations: %v", err)
		}
		if applied > 0 {
			log.Printf("applied %d schema migrations", applied)
		}
		candleRepo = repository.NewCandleRepository(db.Pool, tracer)
		assetRepo = repository.NewAssetRepository(db.Pool, tracer)
		if saved, err := assetRepo.LoadAssets(ctx); err != nil {
			log.Printf("failed to load saved assets, using defaults: %v", err)
		} else if len(saved) > 0 {
			seed = saved
		}
	}
	reg := registry.New(seed)

	// Shared market-data plumbing
	store := cache.NewStore(
		time.Duration(cfg.PriceTTLSecs)*time.Second,
		time.Duration(cfg.OHLCTTLSecs)*time.Second,
		time.Duration(cfg.MetaTTLSecs)*time.Second,
	)
	coord := coordinator.New(time.Duration(cfg.MinCallIntervalSecs) * time.Second)
	cgProvider := provider.NewCoinGeckoProvider(tracer, cfg.Currency)
	marketData := fetcher.New(tracer, cgProvider, coord, store, cache.Client)
	marketData.SetHistoryDays(cfg.HistoryDays)

	// Analysis pipeline
	var candleStore analysis.CandleStore
	if candleRepo != nil {
		candleStore = candleRepo
	}
	analyzer := analysis.NewAnalyzer(tracer, marketData, candleStore)
	sched := scheduler.New(tracer, analyzer, reg, coord)
	sched.SetTiming(
		time.Duration(cfg.AnalysisItemDelaySecs)*time.Second,
		time.Duration(cfg.AnalysisCooldownSecs)*time.Second,
	)

	// Background price refresh
	refresher := job.NewPriceRefresher(tracer, marketData, reg, coord, cfg.PriceRefreshSecs)
	startRefresherFunc(refresher, ctx)

	// Advisor is optional
	var advSvc *advisor.Service
	if cfg.OpenAIAPIKey != "" {
		advSvc = advisor.NewService(tracer, advisor.NewOpenAIClient(cfg.OpenAIAPIKey), cfg.OpenAIModel)
	}

	// Telegram bot
	os.Setenv("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	var botAdvisor bot.Advisor
	if advSvc != nil {
		botAdvisor = advSvc
	}
	startTelegramBotFunc(reg, sched, botAdvisor)

	// HTTP surface
	var candleReader handler.CandleReader
	if candleRepo != nil {
		candleReader = candleRepo
	}
	var apiAdvisor handler.Advisor
	if advSvc != nil {
		apiAdvisor = advSvc
	}
	h := handler.New(tracer, reg, marketData, sched, store, candleReader, apiAdvisor)
	h.OnRunComplete = func(sum scheduler.Summary) {
		log.Printf("analysis run complete: %d/%d processed, %d failed", sum.Processed, sum.Total, sum.Failed)
		if assetRepo == nil {
			return
		}
		saveCtx, saveCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer saveCancel()
		if err := assetRepo.SaveAssets(saveCtx, reg.List()); err != nil {
			log.Printf("failed to persist analysis results: %v", err)
		}
	}

	r := newRouterFunc()
	r.Use(otelgin.Middleware("entrywatch"))
	h.RegisterRoutes(r, cfg.APIKey)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
