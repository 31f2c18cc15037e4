package clients

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrClientNotFound is returned when no client owns the routing number.
var ErrClientNotFound = errors.New("clients: client not found")

// Repository defines the interface for client storage.
type Repository interface {
	GetByPhoneNumber(ctx context.Context, phoneNumber string) (*Client, error)
	GetByID(ctx context.Context, id string) (*Client, error)
	List(ctx context.Context) ([]*Client, error)
	AcceptTerms(ctx context.Context, id string, at time.Time) error
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores clients in the relational database.
type PostgresRepository struct {
	pool querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("clients: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

func newPostgresRepositoryWithQuerier(q querier) *PostgresRepository {
	return &PostgresRepository{pool: q}
}

const clientColumns = `id, business_name, phone_number, city, timezone, industry_type, terms_agreed_at, created_at`

// GetByPhoneNumber resolves the client owning an inbound routing number.
func (r *PostgresRepository) GetByPhoneNumber(ctx context.Context, phoneNumber string) (*Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE phone_number = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, phoneNumber))
}

// GetByID fetches a client by id.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

// List returns all clients ordered by business name.
func (r *PostgresRepository) List(ctx context.Context) ([]*Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients ORDER BY business_name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("clients: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.BusinessName, &c.PhoneNumber, &c.City, &c.Timezone, &c.IndustryType, &c.TermsAgreedAt, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("clients: scan failed: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// AcceptTerms records the terms-acceptance timestamp for a client.
func (r *PostgresRepository) AcceptTerms(ctx context.Context, id string, at time.Time) error {
	ct, err := r.pool.Exec(ctx, `UPDATE clients SET terms_agreed_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("clients: accept terms failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrClientNotFound
	}
	return nil
}

func (r *PostgresRepository) scanOne(row pgx.Row) (*Client, error) {
	var c Client
	if err := row.Scan(&c.ID, &c.BusinessName, &c.PhoneNumber, &c.City, &c.Timezone, &c.IndustryType, &c.TermsAgreedAt, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("clients: select failed: %w", err)
	}
	return &c, nil
}
