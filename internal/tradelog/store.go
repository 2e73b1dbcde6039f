package tradelog

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// NewPool opens a pgx pool. An empty url falls back to DATABASE_URL.
func NewPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	if url == "" {
		url = os.Getenv("DATABASE_URL")
	}
	return pgxpool.New(ctx, url)
}

// Record is one durably logged trade.
type Record struct {
	ID          uuid.UUID
	Instrument  string
	Price       decimal.Decimal
	Quantity    int64
	BuyOrderID  string
	SellOrderID string
	ExecutedAt  time.Time
}

// Store persists trade records.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS trades (
	id            UUID PRIMARY KEY,
	instrument    TEXT NOT NULL,
	price         NUMERIC NOT NULL,
	quantity      BIGINT NOT NULL,
	buy_order_id  TEXT NOT NULL,
	sell_order_id TEXT NOT NULL,
	executed_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS trades_instrument_idx ON trades (instrument, executed_at);
`

// Init creates the trades table on first run.
func (s *Store) Init(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, createTableSQL)
	if err != nil {
		return fmt.Errorf("create trades table: %w", err)
	}
	return nil
}

const insertSQL = `
INSERT INTO trades (id, instrument, price, quantity, buy_order_id, sell_order_id, executed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

func (s *Store) Insert(ctx context.Context, r Record) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.ExecutedAt.IsZero() {
		r.ExecutedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, insertSQL,
		pgUUID(r.ID), r.Instrument, numericFromDecimal(r.Price),
		r.Quantity, r.BuyOrderID, r.SellOrderID, r.ExecutedAt)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

const listByOrderSQL = `
SELECT id, instrument, price, quantity, buy_order_id, sell_order_id, executed_at
FROM trades
WHERE buy_order_id = $1 OR sell_order_id = $1
ORDER BY executed_at`

// ListByOrder returns the trades an order participated in, either side.
func (s *Store) ListByOrder(ctx context.Context, orderID string) ([]Record, error) {
	rows, err := s.pool.Query(ctx, listByOrderSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("list trades by order: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

const listByInstrumentSQL = `
SELECT id, instrument, price, quantity, buy_order_id, sell_order_id, executed_at
FROM trades
WHERE instrument = $1
ORDER BY executed_at DESC
LIMIT $2`

// ListByInstrument returns the most recent trades of an instrument.
func (s *Store) ListByInstrument(ctx context.Context, instrument string, limit int) ([]Record, error) {
	rows, err := s.pool.Query(ctx, listByInstrumentSQL, instrument, limit)
	if err != nil {
		return nil, fmt.Errorf("list trades by instrument: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanRecords(rows pgxRows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		var (
			id    pgtype.UUID
			price pgtype.Numeric
			r     Record
		)
		if err := rows.Scan(&id, &r.Instrument, &price, &r.Quantity,
			&r.BuyOrderID, &r.SellOrderID, &r.ExecutedAt); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		r.ID = uuid.UUID(id.Bytes)
		r.Price = decimalFromNumeric(price)
		out = append(out, r)
	}
	return out, rows.Err()
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func numericFromDecimal(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func decimalFromNumeric(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}
