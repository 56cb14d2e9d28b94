package main

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"entrywatch/internal/bot"
	"entrywatch/internal/config"
	"entrywatch/internal/job"
	"entrywatch/internal/migrate"
	"entrywatch/internal/registry"

	"github.com/gin-gonic/gin"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestMainBootstrap(t *testing.T) {
	gin.SetMode(gin.TestMode)
	restore := stubServerDeps()
	defer restore()

	done := make(chan struct{})
	go func() {
		main()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("main did not exit")
	}
}

func stubServerDeps() func() {
	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origInitPostgres := initPostgresFunc
	origInitRedis := initRedisFunc
	origInitTracer := initTracerFunc
	origMigrateUp := migrateUpFunc
	origStartRefresher := startRefresherFunc
	origStartTelegram := startTelegramBotFunc
	origNewRouter := newRouterFunc
	origSetupSignal := setupSignalNotify
	origWait := waitForSignalFunc
	origStartHTTP := startHTTPServerFunc
	origShutdownHTTP := shutdownHTTPServerFunc

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{
			Currency:              "usd",
			MinCallIntervalSecs:   1,
			PriceRefreshSecs:      1,
			PriceTTLSecs:          1,
			OHLCTTLSecs:           1,
			MetaTTLSecs:           1,
			AnalysisItemDelaySecs: 1,
			AnalysisCooldownSecs:  1,
			HTTPPort:              8080,
		}
	}
	initPostgresFunc = func(context.Context) bool { return false }
	migrateUpFunc = func(context.Context, migrate.DB) (int, error) { return 0, nil }
	initRedisFunc = func(context.Context) {}
	initTracerFunc = func(ctx context.Context) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	startRefresherFunc = func(*job.PriceRefresher, context.Context) {}
	startTelegramBotFunc = func(*registry.Registry, bot.AnalysisScheduler, bot.Advisor) {}
	newRouterFunc = func(...gin.OptionFunc) *gin.Engine { return gin.New() }
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) {}
	startHTTPServerFunc = func(*http.Server) error { return http.ErrServerClosed }
	shutdownHTTPServerFunc = func(*http.Server, context.Context) error { return nil }

	return func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		initPostgresFunc = origInitPostgres
		initRedisFunc = origInitRedis
		initTracerFunc = origInitTracer
		migrateUpFunc = origMigrateUp
		startRefresherFunc = origStartRefresher
		startTelegramBotFunc = origStartTelegram
		newRouterFunc = origNewRouter
		setupSignalNotify = origSetupSignal
		waitForSignalFunc = origWait
		startHTTPServerFunc = origStartHTTP
		shutdownHTTPServerFunc = origShutdownHTTP
	}
}
