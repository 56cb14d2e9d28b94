package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"entrywatch/internal/cache"
	"entrywatch/internal/domain"
	"entrywatch/internal/registry"
	"entrywatch/internal/scheduler"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

type fakePriceFetcher struct {
	prices map[string]float64
}

func (f *fakePriceFetcher) FetchBulkPrices(ctx context.Context, consumerID string, ids []string) map[string]float64 {
	return f.prices
}

type fakeScheduler struct {
	startErr error
	started  int
	cancelOK bool
	status   scheduler.Status
}

func (f *fakeScheduler) StartRun(ctx context.Context, onComplete func(scheduler.Summary)) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.started++
	return nil
}

func (f *fakeScheduler) Cancel() bool             { return f.cancelOK }
func (f *fakeScheduler) Status() scheduler.Status { return f.status }

type fakeCandleReader struct {
	points []domain.PricePoint
	err    error
}

func (f *fakeCandleReader) RecentCandles(ctx context.Context, vendorID string, limit int) ([]domain.PricePoint, error) {
	return f.points, f.err
}

type fakeAdvisor struct {
	advice string
	err    error
}

func (f *fakeAdvisor) Advise(ctx context.Context, asset domain.TrackedAsset) (string, error) {
	return f.advice, f.err
}

func newTestRouter(t *testing.T, mutate func(h *Handler)) (*gin.Engine, *registry.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := registry.New([]domain.TrackedAsset{
		{VendorID: "bitcoin", Symbol: "BTC", Name: "Bitcoin"},
		{VendorID: "ethereum", Symbol: "ETH", Name: "Ethereum"},
	})
	store := cache.NewStore(time.Minute, time.Minute, time.Minute)
	h := New(testTracer, reg, &fakePriceFetcher{prices: map[string]float64{"bitcoin": 97000}}, &fakeScheduler{}, store, nil, nil)
	if mutate != nil {
		mutate(h)
	}

	r := gin.New()
	h.RegisterRoutes(r, "")
	return r, reg
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

func TestListAssets(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w := doRequest(r, "GET", "/api/assets", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Assets []map[string]any `json:"assets"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if len(resp.Assets) != 2 || resp.Assets[0]["symbol"] != "BTC" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestGetAssetUnknownSymbol(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	if w := doRequest(r, "GET", "/api/assets/DOESNOTEXIST", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestSetTargets(t *testing.T) {
	r, reg := newTestRouter(t, nil)

	w := doRequest(r, "PUT", "/api/assets/BTC/targets", `{"entry_target": 90000, "target_3m": 120000}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	asset, _ := reg.Get("bitcoin")
	if asset.EntryTarget != 90000 || asset.Target3Month != 120000 {
		t.Fatalf("targets not applied: %+v", asset)
	}
}

func TestSetTargetsRejectsMissingEntry(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	if w := doRequest(r, "PUT", "/api/assets/BTC/targets", `{"target_3m": 1}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetPricesMapsSymbols(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w := doRequest(r, "GET", "/api/prices", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Prices map[string]float64 `json:"prices"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if resp.Prices["BTC"] != 97000 {
		t.Fatalf("vendor id not mapped to symbol: %+v", resp.Prices)
	}
}

func TestStartAnalysisConflicts(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{nil, http.StatusAccepted},
		{scheduler.ErrRunInProgress, http.StatusConflict},
		{scheduler.ErrCoolingDown, http.StatusConflict},
		{scheduler.ErrLockHeld, http.StatusConflict},
	}
	for _, tc := range cases {
		r, _ := newTestRouter(t, func(h *Handler) {
			h.scheduler = &fakeScheduler{startErr: tc.err}
		})
		if w := doRequest(r, "POST", "/api/analysis/run", ""); w.Code != tc.code {
			t.Fatalf("err %v: expected %d, got %d", tc.err, tc.code, w.Code)
		}
	}
}

func TestCancelAnalysis(t *testing.T) {
	r, _ := newTestRouter(t, func(h *Handler) {
		h.scheduler = &fakeScheduler{cancelOK: true}
	})
	if w := doRequest(r, "POST", "/api/analysis/cancel", ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	r, _ = newTestRouter(t, nil)
	if w := doRequest(r, "POST", "/api/analysis/cancel", ""); w.Code != http.StatusConflict {
		t.Fatalf("expected 409 when idle, got %d", w.Code)
	}
}

func TestAnalysisStatus(t *testing.T) {
	r, _ := newTestRouter(t, func(h *Handler) {
		h.scheduler = &fakeScheduler{status: scheduler.Status{Running: true, Current: "bitcoin"}}
	})

	w := doRequest(r, "GET", "/api/analysis/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp scheduler.Status
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if !resp.Running || resp.Current != "bitcoin" {
		t.Fatalf("unexpected status: %+v", resp)
	}
}

func TestGetCandlesUnavailable(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	if w := doRequest(r, "GET", "/api/candles/BTC", ""); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without storage, got %d", w.Code)
	}
}

func TestGetCandles(t *testing.T) {
	r, _ := newTestRouter(t, func(h *Handler) {
		h.candles = &fakeCandleReader{points: []domain.PricePoint{{Close: 100}}}
	})

	w := doRequest(r, "GET", "/api/candles/BTC?limit=5", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestGetAdvice(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	if w := doRequest(r, "GET", "/api/advice/BTC", ""); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without advisor, got %d", w.Code)
	}

	r, _ = newTestRouter(t, func(h *Handler) {
		h.advisor = &fakeAdvisor{advice: "hold steady"}
	})
	w := doRequest(r, "GET", "/api/advice/BTC", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "hold steady") {
		t.Fatalf("unexpected response: %d %s", w.Code, w.Body.String())
	}
}

func TestCacheStats(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	if w := doRequest(r, "GET", "/api/cache/stats", ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestAPIKeyAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", APIKeyAuth("secret"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/protected", nil)
	req.Header.Set("X-API-Key", "wrong")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 with bad key, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/protected", nil)
	req.Header.Set("X-API-Key", "secret")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with good key, got %d", w.Code)
	}
}
