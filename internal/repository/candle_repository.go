package repository

import (
	"context"
	"fmt"

	"crypto-mcp/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const candleSchema = `
CREATE TABLE IF NOT EXISTS exchange_candles (
    exchange            TEXT             NOT NULL,
    symbol              TEXT             NOT NULL,
    interval            TEXT             NOT NULL,
    open_time           BIGINT           NOT NULL,
    close_time          BIGINT           NOT NULL,
    open                DOUBLE PRECISION NOT NULL,
    high                DOUBLE PRECISION NOT NULL,
    low                 DOUBLE PRECISION NOT NULL,
    close               DOUBLE PRECISION NOT NULL,
    volume              DOUBLE PRECISION NOT NULL,
    quote_volume        DOUBLE PRECISION NOT NULL DEFAULT 0,
    trades              BIGINT           NOT NULL DEFAULT 0,
    PRIMARY KEY (exchange, symbol, interval, open_time)
);
CREATE INDEX IF NOT EXISTS exchange_candles_recent_idx
    ON exchange_candles (exchange, symbol, interval, open_time DESC);`

// CandleRepository archives candle series in Postgres.
type CandleRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewCandleRepository(pool PgxPool, tracer trace.Tracer) *CandleRepository {
	return &CandleRepository{pool: pool, tracer: tracer}
}

func (r *CandleRepository) RunMigrations(ctx context.Context) error {
	ctx, span := r.tracer.Start(ctx, "candle-repo.run-migrations")
	defer span.End()

	if _, err := r.pool.Exec(ctx, candleSchema); err != nil {
		return fmt.Errorf("create exchange_candles: %w", err)
	}
	return nil
}

func (r *CandleRepository) UpsertCandles(ctx context.Context, candles []domain.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	ctx, span := r.tracer.Start(ctx, "candle-repo.upsert-candles")
	defer span.End()
	span.SetAttributes(attribute.Int("candles", len(candles)))

	batch := &pgx.Batch{}
	for _, c := range candles {
		batch.Queue(
			`INSERT INTO exchange_candles (exchange, symbol, interval, open_time, close_time, open, high, low, close, volume, quote_volume, trades)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			 ON CONFLICT (exchange, symbol, interval, open_time) DO UPDATE SET
			     close_time = EXCLUDED.close_time,
			     open = EXCLUDED.open,
			     high = EXCLUDED.high,
			     low = EXCLUDED.low,
			     close = EXCLUDED.close,
			     volume = EXCLUDED.volume,
			     quote_volume = EXCLUDED.quote_volume,
			     trades = EXCLUDED.trades`,
			c.Exchange, c.Symbol, c.Interval, c.OpenTime, c.CloseTime,
			c.Open, c.High, c.Low, c.Close, c.Volume, c.QuoteAssetVolume, c.NumberOfTrades,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range candles {
		if _, err := br.Exec(); err != nil {
			span.RecordError(err)
			return fmt.Errorf("upsert candle: %w", err)
		}
	}
	return nil
}

// GetCandles returns up to limit archived candles, newest first.
func (r *CandleRepository) GetCandles(ctx context.Context, exchange, symbol, interval string, limit int) ([]domain.Candle, error) {
	ctx, span := r.tracer.Start(ctx, "candle-repo.get-candles")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT exchange, symbol, interval, open_time, close_time, open, high, low, close, volume, quote_volume, trades
		 FROM exchange_candles
		 WHERE exchange = $1 AND symbol = $2 AND interval = $3
		 ORDER BY open_time DESC
		 LIMIT $4`,
		exchange, symbol, interval, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candles []domain.Candle
	for rows.Next() {
		var c domain.Candle
		if err := rows.Scan(&c.Exchange, &c.Symbol, &c.Interval, &c.OpenTime, &c.CloseTime,
			&c.Open, &c.High, &c.Low, &c.Close, &c.Volume, &c.QuoteAssetVolume, &c.NumberOfTrades); err != nil {
			return nil, err
		}
		candles = append(candles, c)
	}
	return candles, rows.Err()
}

// Archive stores a fetched series. It satisfies service.CandleSink.
func (r *CandleRepository) Archive(ctx context.Context, exchange string, candles []domain.Candle) error {
	return r.UpsertCandles(ctx, candles)
}
