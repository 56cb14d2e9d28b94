package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"entrywatch/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const coingeckoBaseURL = "https://api.coingecko.com/api/v3"

// httpTimeout bounds connect+read per upstream call.
const httpTimeout = 10 * time.Second

// CoinGeckoProvider fetches spot prices and OHLC history from the
// CoinGecko free API. It performs the raw HTTP work only; rate
// coordination, caching, and retries live in the fetcher layer.
type CoinGeckoProvider struct {
	client   *http.Client
	baseURL  string
	tracer   trace.Tracer
	currency string
}

func NewCoinGeckoProvider(tracer trace.Tracer, currency string) *CoinGeckoProvider {
	if currency == "" {
		currency = "usd"
	}
	return &CoinGeckoProvider{
		client:   &http.Client{Timeout: httpTimeout},
		baseURL:  coingeckoBaseURL,
		tracer:   tracer,
		currency: currency,
	}
}

// FetchSpotPrices fetches current prices for the given vendor ids in a
// single batched call. Ids absent from the response are unknown, not an
// error, and are simply missing from the returned map.
func (p *CoinGeckoProvider) FetchSpotPrices(ctx context.Context, ids []string) (map[string]float64, error) {
	_, span := p.tracer.Start(ctx, "coingecko.fetch-spot-prices")
	defer span.End()

	url := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=%s",
		p.baseURL, strings.Join(ids, ","), p.currency)

	body, err := p.doRequest(ctx, "spot prices", url)
	if err != nil {
		return nil, err
	}

	// Response shape: {"bitcoin": {"usd": 97000}, ...}
	var raw map[string]map[string]float64
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &domain.MalformedResponseError{Op: "spot prices", Err: err}
	}

	result := make(map[string]float64, len(raw))
	for id, quote := range raw {
		price, ok := quote[p.currency]
		if !ok {
			continue
		}
		result[id] = price
	}
	return result, nil
}

// FetchOHLC fetches a time-ordered OHLC history for one vendor id.
// Rows carry an optional sixth volume element; rows without it get zero
// volume and downstream consumers fall back to price-scaled estimates.
func (p *CoinGeckoProvider) FetchOHLC(ctx context.Context, id string, days int) ([]domain.PricePoint, error) {
	_, span := p.tracer.Start(ctx, "coingecko.fetch-ohlc")
	defer span.End()

	url := fmt.Sprintf("%s/coins/%s/ohlc?vs_currency=%s&days=%d",
		p.baseURL, id, p.currency, days)

	body, err := p.doRequest(ctx, "ohlc history", url)
	if err != nil {
		return nil, err
	}

	var rows [][]float64
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, &domain.MalformedResponseError{Op: "ohlc history", Err: err}
	}

	points := make([]domain.PricePoint, 0, len(rows))
	for _, row := range rows {
		if len(row) < 5 {
			continue
		}
		pt := domain.PricePoint{
			Time:  time.UnixMilli(int64(row[0])).UTC(),
			Open:  row[1],
			High:  row[2],
			Low:   row[3],
			Close: row[4],
		}
		if len(row) >= 6 {
			pt.Volume = row[5]
		}
		points = append(points, pt)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })
	return points, nil
}

func (p *CoinGeckoProvider) doRequest(ctx context.Context, op, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &domain.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &domain.RateLimitedError{RetryAfter: retryAfter(resp.Header)}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &domain.NetworkError{
			Op:  op,
			Err: fmt.Errorf("coingecko API error %d: %s", resp.StatusCode, string(body)),
		}
	}

	return io.ReadAll(resp.Body)
}

func retryAfter(h http.Header) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
