// Package job holds the background loops that keep shared state fresh.
package job

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// ConsumerID identifies the refresher to the call coordinator.
const ConsumerID = "price-refresher"

// BulkPriceFetcher is the slice of the market-data layer the refresher needs.
type BulkPriceFetcher interface {
	FetchBulkPrices(ctx context.Context, consumerID string, ids []string) map[string]float64
}

// PriceSink receives fresh prices; the registry implements it.
type PriceSink interface {
	VendorIDs() []string
	SetPrice(vendorID string, price float64)
}

// CallChecker is the coordinator's side-effect-free probe. The
// refresher skips a tick entirely when a call would be denied anyway,
// so periodic refreshes never contend with an analysis run.
type CallChecker interface {
	CanMakeAPICall(consumerID, purpose string) bool
}

// PriceRefresher periodically pulls spot prices for every tracked
// asset into the registry.
type PriceRefresher struct {
	tracer   trace.Tracer
	fetcher  BulkPriceFetcher
	sink     PriceSink
	checker  CallChecker
	interval time.Duration
}

func NewPriceRefresher(tracer trace.Tracer, fetcher BulkPriceFetcher, sink PriceSink, checker CallChecker, intervalSecs int) *PriceRefresher {
	return &PriceRefresher{
		tracer:   tracer,
		fetcher:  fetcher,
		sink:     sink,
		checker:  checker,
		interval: time.Duration(intervalSecs) * time.Second,
	}
}

// Start runs the refresh loop. Blocks until ctx is cancelled.
func (p *PriceRefresher) Start(ctx context.Context) {
	log.Println("Price refresher starting...")

	p.refresh(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Price refresher stopped")
			return
		case <-ticker.C:
			p.refresh(ctx)
		}
	}
}

func (p *PriceRefresher) refresh(ctx context.Context) {
	ctx, span := p.tracer.Start(ctx, "job.refresh-prices")
	defer span.End()

	ids := p.sink.VendorIDs()
	if len(ids) == 0 {
		return
	}
	if p.checker != nil && !p.checker.CanMakeAPICall(ConsumerID, "bulk-prices") {
		log.Println("price refresh skipped, coordinator busy")
		return
	}

	prices := p.fetcher.FetchBulkPrices(ctx, ConsumerID, ids)
	for id, price := range prices {
		p.sink.SetPrice(id, price)
	}
}
