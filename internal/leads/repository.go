package leads

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// HistoryUpdate appends a conversation turn to a lead's rolling history.
type HistoryUpdate struct {
	ClientID      string
	CustomerPhone string
	Entry         string
	MessageSid    string
	MaxLen        int
}

// Repository defines the interface for lead storage.
type Repository interface {
	GetByCustomerPhone(ctx context.Context, clientID, phone string) (*Lead, error)
	GetOrCreateByPhone(ctx context.Context, clientID, phone string) (*Lead, error)
	AppendHistory(ctx context.Context, upd HistoryUpdate) (bool, error)
	Pause(ctx context.Context, id string, until time.Time) error
	ListByClient(ctx context.Context, clientID string) ([]*Lead, error)
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	pool querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

func newPostgresRepositoryWithQuerier(q querier) *PostgresRepository {
	return &PostgresRepository{pool: q}
}

const leadColumns = `id, client_id, customer_phone, conversation_history, last_message_sid, ai_paused_until, status, created_at`

// GetByCustomerPhone fetches the lead for a customer number scoped to a client.
func (r *PostgresRepository) GetByCustomerPhone(ctx context.Context, clientID, phone string) (*Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE client_id = $1 AND customer_phone = $2`
	return scanLead(r.pool.QueryRow(ctx, query, clientID, phone))
}

// GetOrCreateByPhone resolves the lead for a customer number, creating a new
// row on first contact. The upsert keeps concurrent first messages from the
// same number racing into duplicate rows.
func (r *PostgresRepository) GetOrCreateByPhone(ctx context.Context, clientID, phone string) (*Lead, error) {
	query := `
		INSERT INTO leads (id, client_id, customer_phone, conversation_history, status)
		VALUES ($1, $2, $3, '', 'new')
		ON CONFLICT (client_id, customer_phone) DO UPDATE SET customer_phone = EXCLUDED.customer_phone
		RETURNING ` + leadColumns
	return scanLead(r.pool.QueryRow(ctx, query, uuid.NewString(), clientID, phone))
}

// AppendHistory appends the entry and truncates the history to the trailing
// MaxLen characters. The update is keyed on the inbound message identifier: a
// retry carrying an already recorded MessageSid is a no-op, reported as false.
func (r *PostgresRepository) AppendHistory(ctx context.Context, upd HistoryUpdate) (bool, error) {
	query := `
		UPDATE leads
		SET conversation_history = right(conversation_history || $3, $4),
		    last_message_sid = $5
		WHERE client_id = $1 AND customer_phone = $2
		  AND last_message_sid IS DISTINCT FROM $5
	`
	ct, err := r.pool.Exec(ctx, query, upd.ClientID, upd.CustomerPhone, upd.Entry, upd.MaxLen, upd.MessageSid)
	if err != nil {
		return false, fmt.Errorf("leads: append history: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

// Pause blocks AI replies for the lead until the given instant.
func (r *PostgresRepository) Pause(ctx context.Context, id string, until time.Time) error {
	ct, err := r.pool.Exec(ctx, `UPDATE leads SET ai_paused_until = $2 WHERE id = $1`, id, until.UTC())
	if err != nil {
		return fmt.Errorf("leads: pause: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrLeadNotFound
	}
	return nil
}

// ListByClient returns a client's leads, newest first.
func (r *PostgresRepository) ListByClient(ctx context.Context, clientID string) ([]*Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE client_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("leads: list: %w", err)
	}
	defer rows.Close()

	var out []*Lead
	for rows.Next() {
		var l Lead
		if err := rows.Scan(&l.ID, &l.ClientID, &l.CustomerPhone, &l.ConversationHistory, &l.LastMessageSid, &l.AIPausedUntil, &l.Status, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("leads: scan: %w", err)
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

func scanLead(row pgx.Row) (*Lead, error) {
	var l Lead
	if err := row.Scan(&l.ID, &l.ClientID, &l.CustomerPhone, &l.ConversationHistory, &l.LastMessageSid, &l.AIPausedUntil, &l.Status, &l.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: select: %w", err)
	}
	return &l, nil
}

// InMemoryRepository is a Repository backed by a map, used in tests and for
// local development without Postgres.
type InMemoryRepository struct {
	mu    sync.RWMutex
	leads map[string]*Lead // key: clientID + ":" + phone
}

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{leads: make(map[string]*Lead)}
}

func memKey(clientID, phone string) string { return clientID + ":" + phone }

func (r *InMemoryRepository) GetByCustomerPhone(ctx context.Context, clientID, phone string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lead, ok := r.leads[memKey(clientID, phone)]
	if !ok {
		return nil, ErrLeadNotFound
	}
	cp := *lead
	return &cp, nil
}

func (r *InMemoryRepository) GetOrCreateByPhone(ctx context.Context, clientID, phone string) (*Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if lead, ok := r.leads[memKey(clientID, phone)]; ok {
		cp := *lead
		return &cp, nil
	}
	lead := &Lead{
		ID:            uuid.NewString(),
		ClientID:      clientID,
		CustomerPhone: phone,
		Status:        "new",
		CreatedAt:     time.Now().UTC(),
	}
	r.leads[memKey(clientID, phone)] = lead
	cp := *lead
	return &cp, nil
}

func (r *InMemoryRepository) AppendHistory(ctx context.Context, upd HistoryUpdate) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lead, ok := r.leads[memKey(upd.ClientID, upd.CustomerPhone)]
	if !ok {
		return false, nil
	}
	if lead.LastMessageSid == upd.MessageSid {
		return false, nil
	}
	history := lead.ConversationHistory + upd.Entry
	if upd.MaxLen > 0 && len(history) > upd.MaxLen {
		history = history[len(history)-upd.MaxLen:]
	}
	lead.ConversationHistory = history
	lead.LastMessageSid = upd.MessageSid
	return true, nil
}

func (r *InMemoryRepository) Pause(ctx context.Context, id string, until time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, lead := range r.leads {
		if lead.ID == id {
			u := until.UTC()
			lead.AIPausedUntil = &u
			return nil
		}
	}
	return ErrLeadNotFound
}

func (r *InMemoryRepository) ListByClient(ctx context.Context, clientID string) ([]*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Lead
	for _, lead := range r.leads {
		if lead.ClientID == clientID {
			cp := *lead
			out = append(out, &cp)
		}
	}
	return out, nil
}
