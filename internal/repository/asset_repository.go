package repository

import (
	"context"
	"encoding/json"

	"entrywatch/internal/domain"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/trace"
)

// AssetRepository persists the tracked-asset set, targets and last
// analysis outcome included, so a restart restores the registry. The
// tracked_assets schema is owned by internal/migrate.
type AssetRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewAssetRepository(pool PgxPool, tracer trace.Tracer) *AssetRepository {
	return &AssetRepository{pool: pool, tracer: tracer}
}

// SaveAssets upserts the whole set, preserving registry order via the
// position column.
func (r *AssetRepository) SaveAssets(ctx context.Context, assets []domain.TrackedAsset) error {
	if len(assets) == 0 {
		return nil
	}

	_, span := r.tracer.Start(ctx, "asset-repo.save-assets")
	defer span.End()

	batch := &pgx.Batch{}
	for i, a := range assets {
		var indicators []byte
		if a.Indicators != nil {
			raw, err := json.Marshal(a.Indicators)
			if err != nil {
				return err
			}
			indicators = raw
		}
		batch.Queue(
			`INSERT INTO tracked_assets
			     (vendor_id, symbol, name, position, current_price, entry_target,
			      target_3m, target_long, holdings, avg_cost, score, signal, status,
			      indicators, price_updated_at, analyzed_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
			 ON CONFLICT (vendor_id) DO UPDATE SET
			     symbol = EXCLUDED.symbol,
			     name = EXCLUDED.name,
			     position = EXCLUDED.position,
			     current_price = EXCLUDED.current_price,
			     entry_target = EXCLUDED.entry_target,
			     target_3m = EXCLUDED.target_3m,
			     target_long = EXCLUDED.target_long,
			     holdings = EXCLUDED.holdings,
			     avg_cost = EXCLUDED.avg_cost,
			     score = EXCLUDED.score,
			     signal = EXCLUDED.signal,
			     status = EXCLUDED.status,
			     indicators = EXCLUDED.indicators,
			     price_updated_at = EXCLUDED.price_updated_at,
			     analyzed_at = EXCLUDED.analyzed_at`,
			a.VendorID, a.Symbol, a.Name, i, a.CurrentPrice, a.EntryTarget,
			a.Target3Month, a.TargetLongTerm, a.Holdings, a.AvgCost, a.Score,
			int(a.Signal), int(a.Status), indicators, a.PriceUpdatedAt, a.AnalyzedAt,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range assets {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadAssets restores the set in saved order. An empty table yields an
// empty slice, not an error.
func (r *AssetRepository) LoadAssets(ctx context.Context) ([]domain.TrackedAsset, error) {
	_, span := r.tracer.Start(ctx, "asset-repo.load-assets")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT vendor_id, symbol, name, current_price, entry_target,
		        target_3m, target_long, holdings, avg_cost, score, signal, status,
		        indicators, price_updated_at, analyzed_at
		 FROM tracked_assets
		 ORDER BY position`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []domain.TrackedAsset
	for rows.Next() {
		var a domain.TrackedAsset
		var signal, status int
		var indicators []byte
		if err := rows.Scan(
			&a.VendorID, &a.Symbol, &a.Name, &a.CurrentPrice, &a.EntryTarget,
			&a.Target3Month, &a.TargetLongTerm, &a.Holdings, &a.AvgCost, &a.Score,
			&signal, &status, &indicators, &a.PriceUpdatedAt, &a.AnalyzedAt,
		); err != nil {
			return nil, err
		}
		a.Signal = domain.TradeSignal(signal)
		a.Status = domain.AnalysisStatus(status)
		if len(indicators) > 0 {
			snap := &domain.IndicatorSnapshot{}
			if err := json.Unmarshal(indicators, snap); err != nil {
				return nil, err
			}
			a.Indicators = snap
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}
