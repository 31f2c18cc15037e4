// Package usage tracks AI token consumption and billing cost per client.
package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry is a single usage log row.
type Entry struct {
	ID         string
	ClientID   string
	TokensUsed int
	Cost       float64
	CreatedAt  time.Time
}

// Recorder persists usage entries.
type Recorder interface {
	Record(ctx context.Context, clientID string, tokensUsed int) error
	TotalsByClient(ctx context.Context, clientID string) (tokens int, cost float64, err error)
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRecorder writes usage entries to the relational database. The cost
// column is denormalized at write time so billing exports need no pricing
// table join.
type PostgresRecorder struct {
	pool      querier
	unitPrice float64 // dollars per thousand tokens
}

// NewPostgresRecorder initializes a recorder backed by pgxpool.
func NewPostgresRecorder(pool *pgxpool.Pool, unitPrice float64) *PostgresRecorder {
	if pool == nil {
		panic("usage: pgx pool required")
	}
	return &PostgresRecorder{pool: pool, unitPrice: unitPrice}
}

func newPostgresRecorderWithQuerier(q querier, unitPrice float64) *PostgresRecorder {
	return &PostgresRecorder{pool: q, unitPrice: unitPrice}
}

// Cost converts a token count to dollars at the configured unit price.
func (r *PostgresRecorder) Cost(tokensUsed int) float64 {
	return float64(tokensUsed) / 1000 * r.unitPrice
}

// Record appends a usage entry for one AI completion.
func (r *PostgresRecorder) Record(ctx context.Context, clientID string, tokensUsed int) error {
	query := `
		INSERT INTO usage_logs (id, client_id, tokens_used, cost, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query, uuid.NewString(), clientID, tokensUsed, r.Cost(tokensUsed), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("usage: record: %w", err)
	}
	return nil
}

// TotalsByClient sums a client's token and cost usage.
func (r *PostgresRecorder) TotalsByClient(ctx context.Context, clientID string) (int, float64, error) {
	query := `
		SELECT COALESCE(SUM(tokens_used), 0), COALESCE(SUM(cost), 0)
		FROM usage_logs WHERE client_id = $1
	`
	var tokens int
	var cost float64
	if err := r.pool.QueryRow(ctx, query, clientID).Scan(&tokens, &cost); err != nil {
		return 0, 0, fmt.Errorf("usage: totals: %w", err)
	}
	return tokens, cost, nil
}
