// Package compliance provides audit logging for regulated messaging events.
package compliance

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ViolationType labels the category of a compliance record.
type ViolationType string

const (
	// ViolationSafetyStop is logged when a customer message matches an
	// industry safety keyword and the AI responder is bypassed.
	ViolationSafetyStop ViolationType = "Safety Stop"
	// ViolationSHAFT is logged when carrier-prohibited content is blocked.
	ViolationSHAFT ViolationType = "SHAFT"
)

// Record is an immutable compliance log row.
type Record struct {
	ID             string        `json:"id"`
	ClientID       string        `json:"client_id"`
	CustomerPhone  string        `json:"customer_phone"`
	ViolationType  ViolationType `json:"violation_type"`
	MessageContent string        `json:"message_content"`
	CreatedAt      time.Time     `json:"created_at"`
}

// AuditService handles compliance audit logging.
type AuditService struct {
	db *sql.DB
}

// NewAuditService creates a new audit service.
func NewAuditService(db *sql.DB) *AuditService {
	return &AuditService{db: db}
}

// LogRecord inserts a compliance record. Rows are append-only; nothing in the
// service updates or deletes them.
func (s *AuditService) LogRecord(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO compliance_logs (
			id, client_id, customer_phone, violation_type, message_content, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID,
		rec.ClientID,
		rec.CustomerPhone,
		rec.ViolationType,
		rec.MessageContent,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("compliance: failed to log record: %w", err)
	}

	return nil
}

// LogSafetyStop records a safety-keyword hit. The original message content is
// stored verbatim so incidents can be reviewed, even when the copy sent to
// the AI was redacted.
func (s *AuditService) LogSafetyStop(ctx context.Context, clientID, customerPhone, messageContent string) error {
	return s.LogRecord(ctx, Record{
		ClientID:       clientID,
		CustomerPhone:  customerPhone,
		ViolationType:  ViolationSafetyStop,
		MessageContent: messageContent,
	})
}

// ListByClient returns a client's compliance records, newest first.
func (s *AuditService) ListByClient(ctx context.Context, clientID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, client_id, customer_phone, violation_type, message_content, created_at
		FROM compliance_logs
		WHERE client_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, clientID, limit)
	if err != nil {
		return nil, fmt.Errorf("compliance: failed to list records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.ClientID, &rec.CustomerPhone, &rec.ViolationType, &rec.MessageContent, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("compliance: failed to scan record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
