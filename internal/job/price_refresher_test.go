package job

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

type stubFetcher struct {
	mu     sync.Mutex
	calls  int
	prices map[string]float64
}

func (s *stubFetcher) FetchBulkPrices(ctx context.Context, consumerID string, ids []string) map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.prices
}

func (s *stubFetcher) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubSink struct {
	mu     sync.Mutex
	ids    []string
	prices map[string]float64
}

func (s *stubSink) VendorIDs() []string {
	return append([]string(nil), s.ids...)
}

func (s *stubSink) SetPrice(vendorID string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prices == nil {
		s.prices = make(map[string]float64)
	}
	s.prices[vendorID] = price
}

func (s *stubSink) price(vendorID string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prices[vendorID]
}

type stubChecker struct{ allow bool }

func (c *stubChecker) CanMakeAPICall(consumerID, purpose string) bool { return c.allow }

func TestNewPriceRefresherInterval(t *testing.T) {
	r := NewPriceRefresher(testTracer, &stubFetcher{}, &stubSink{}, &stubChecker{allow: true}, 2)
	if r.interval != 2*time.Second {
		t.Fatalf("expected 2s interval, got %v", r.interval)
	}
}

func TestRefreshWritesPrices(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{prices: map[string]float64{"bitcoin": 97000, "ethereum": 3000}}
	sink := &stubSink{ids: []string{"bitcoin", "ethereum"}}
	r := NewPriceRefresher(testTracer, fetcher, sink, &stubChecker{allow: true}, 1)

	r.refresh(context.Background())

	if sink.price("bitcoin") != 97000 || sink.price("ethereum") != 3000 {
		t.Fatalf("prices not written: %+v", sink.prices)
	}
}

func TestRefreshSkipsWhenCoordinatorBusy(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{}
	sink := &stubSink{ids: []string{"bitcoin"}}
	r := NewPriceRefresher(testTracer, fetcher, sink, &stubChecker{allow: false}, 1)

	r.refresh(context.Background())

	if fetcher.callCount() != 0 {
		t.Fatal("a denied probe must skip the fetch entirely")
	}
}

func TestRefreshSkipsEmptyRegistry(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{}
	r := NewPriceRefresher(testTracer, fetcher, &stubSink{}, &stubChecker{allow: true}, 1)

	r.refresh(context.Background())

	if fetcher.callCount() != 0 {
		t.Fatal("nothing to refresh, nothing to fetch")
	}
}

func TestPriceRefresherStart(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{prices: map[string]float64{"bitcoin": 1}}
	sink := &stubSink{ids: []string{"bitcoin"}}
	r := NewPriceRefresher(testTracer, fetcher, sink, &stubChecker{allow: true}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	go r.Start(ctx)

	eventually(t, func() bool { return fetcher.callCount() > 0 })
	cancel()
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(100 * time.Millisecond)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met")
}
