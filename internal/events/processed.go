// Package events tracks which inbound webhook deliveries have already been
// handled, so Twilio retries do not double-bill or double-reply.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProcessedStore records handled message identifiers.
type ProcessedStore interface {
	AlreadyProcessed(ctx context.Context, messageSid string) (bool, error)
	MarkProcessed(ctx context.Context, messageSid string) error
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps processed message SIDs in the relational database.
type PostgresStore struct {
	pool querier
}

// NewPostgresStore initializes a store backed by pgxpool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("events: pgx pool required")
	}
	return &PostgresStore{pool: pool}
}

func newPostgresStoreWithQuerier(q querier) *PostgresStore {
	return &PostgresStore{pool: q}
}

// AlreadyProcessed reports whether the message SID has been handled before.
func (s *PostgresStore) AlreadyProcessed(ctx context.Context, messageSid string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM processed_events WHERE message_sid = $1)`,
		messageSid).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("events: check processed: %w", err)
	}
	return exists, nil
}

// MarkProcessed records the message SID. Inserting an already recorded SID is
// a no-op, so concurrent retries cannot fail here.
func (s *PostgresStore) MarkProcessed(ctx context.Context, messageSid string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO processed_events (message_sid, processed_at) VALUES ($1, $2) ON CONFLICT (message_sid) DO NOTHING`,
		messageSid, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("events: mark processed: %w", err)
	}
	return nil
}
