package repository

import (
	"context"

	"entrywatch/internal/domain"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/trace"
)

type PgxPool interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// CandleRepository persists real daily bars so analysis history
// survives restarts. Synthetic bars are never written. The candles
// schema is owned by internal/migrate.
type CandleRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewCandleRepository(pool PgxPool, tracer trace.Tracer) *CandleRepository {
	return &CandleRepository{pool: pool, tracer: tracer}
}

func (r *CandleRepository) UpsertCandles(ctx context.Context, vendorID string, points []domain.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	_, span := r.tracer.Start(ctx, "candle-repo.upsert-candles")
	defer span.End()

	batch := &pgx.Batch{}
	queued := 0
	for _, p := range points {
		if p.Synthetic {
			continue
		}
		batch.Queue(
			`INSERT INTO candles (vendor_id, bar_time, open, high, low, close, volume)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (vendor_id, bar_time) DO UPDATE SET
			     open = EXCLUDED.open,
			     high = EXCLUDED.high,
			     low = EXCLUDED.low,
			     close = EXCLUDED.close,
			     volume = EXCLUDED.volume`,
			vendorID, p.Time, p.Open, p.High, p.Low, p.Close, p.Volume,
		)
		queued++
	}
	if queued == 0 {
		return nil
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < queued; i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// RecentCandles returns up to limit bars in ascending time order.
func (r *CandleRepository) RecentCandles(ctx context.Context, vendorID string, limit int) ([]domain.PricePoint, error) {
	_, span := r.tracer.Start(ctx, "candle-repo.recent-candles")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT bar_time, open, high, low, close, volume
		 FROM candles
		 WHERE vendor_id = $1
		 ORDER BY bar_time DESC
		 LIMIT $2`,
		vendorID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []domain.PricePoint
	for rows.Next() {
		var p domain.PricePoint
		if err := rows.Scan(&p.Time, &p.Open, &p.High, &p.Low, &p.Close, &p.Volume); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
	return points, nil
}
