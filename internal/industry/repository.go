package industry

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrConfigNotFound is returned when no configuration row exists for an
// industry type.
var ErrConfigNotFound = errors.New("industry: config not found")

// Repository defines the interface for industry configuration storage.
type Repository interface {
	GetByType(ctx context.Context, industryType string) (*Config, error)
	UpdatePrompt(ctx context.Context, industryType, promptTemplate string) error
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores industry configurations in the relational
// database.
type PostgresRepository struct {
	pool querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("industry: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

func newPostgresRepositoryWithQuerier(q querier) *PostgresRepository {
	return &PostgresRepository{pool: q}
}

// GetByType fetches the configuration for an industry type.
func (r *PostgresRepository) GetByType(ctx context.Context, industryType string) (*Config, error) {
	query := `
		SELECT industry_type, system_prompt_template, safety_keywords, safety_response, vision_instruction
		FROM industry_configs WHERE industry_type = $1`
	var cfg Config
	err := r.pool.QueryRow(ctx, query, industryType).Scan(
		&cfg.IndustryType, &cfg.SystemPromptTemplate, &cfg.SafetyKeywords, &cfg.SafetyResponse, &cfg.VisionInstruction,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("industry: select config: %w", err)
	}
	return &cfg, nil
}

// UpdatePrompt replaces the system prompt template for an industry type.
func (r *PostgresRepository) UpdatePrompt(ctx context.Context, industryType, promptTemplate string) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE industry_configs SET system_prompt_template = $2 WHERE industry_type = $1`,
		industryType, promptTemplate)
	if err != nil {
		return fmt.Errorf("industry: update prompt: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrConfigNotFound
	}
	return nil
}
