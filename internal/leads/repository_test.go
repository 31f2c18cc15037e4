package leads

import (
	"context"
	"strings"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"
)

func leadRow(mock pgxmock.PgxPoolIface) *pgxmock.Rows {
	return mock.NewRows([]string{"id", "client_id", "customer_phone", "conversation_history", "last_message_sid", "ai_paused_until", "status", "created_at"}).
		AddRow("lead-1", "client-1", "+16045551234", "", "", (*time.Time)(nil), "new", time.Now().UTC())
}

func TestGetByCustomerPhoneNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := newPostgresRepositoryWithQuerier(mock)
	mock.ExpectQuery("SELECT (.+) FROM leads WHERE client_id").
		WithArgs("client-1", "+16045551234").
		WillReturnRows(mock.NewRows([]string{"id"}))

	if _, err := repo.GetByCustomerPhone(context.Background(), "client-1", "+16045551234"); err != ErrLeadNotFound {
		t.Fatalf("expected ErrLeadNotFound, got %v", err)
	}
}

func TestGetOrCreateByPhone(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := newPostgresRepositoryWithQuerier(mock)
	mock.ExpectQuery("INSERT INTO leads").
		WithArgs(pgxmock.AnyArg(), "client-1", "+16045551234").
		WillReturnRows(leadRow(mock))

	lead, err := repo.GetOrCreateByPhone(context.Background(), "client-1", "+16045551234")
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if lead.CustomerPhone != "+16045551234" {
		t.Fatalf("unexpected lead: %+v", lead)
	}
}

func TestAppendHistorySkipsDuplicateSid(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := newPostgresRepositoryWithQuerier(mock)
	upd := HistoryUpdate{
		ClientID:      "client-1",
		CustomerPhone: "+16045551234",
		Entry:         " | User: hi | AI: hello",
		MessageSid:    "SM123",
		MaxLen:        5000,
	}
	mock.ExpectExec("UPDATE leads").
		WithArgs(upd.ClientID, upd.CustomerPhone, upd.Entry, upd.MaxLen, upd.MessageSid).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	applied, err := repo.AppendHistory(context.Background(), upd)
	if err != nil {
		t.Fatalf("append history: %v", err)
	}
	if applied {
		t.Fatal("expected duplicate sid to be skipped")
	}
}

func TestInMemoryHistoryBound(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	if _, err := repo.GetOrCreateByPhone(ctx, "client-1", "+16045551234"); err != nil {
		t.Fatalf("create: %v", err)
	}

	entry := " | User: " + strings.Repeat("x", 100) + " | AI: reply"
	for i := 0; i < 200; i++ {
		applied, err := repo.AppendHistory(ctx, HistoryUpdate{
			ClientID:      "client-1",
			CustomerPhone: "+16045551234",
			Entry:         entry,
			MessageSid:    "SM" + strings.Repeat("0", i%5) + string(rune('a'+i%26)) + strings.Repeat("1", i/26),
			MaxLen:        5000,
		})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		_ = applied
		lead, err := repo.GetByCustomerPhone(ctx, "client-1", "+16045551234")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if len(lead.ConversationHistory) > 5000 {
			t.Fatalf("history exceeded bound after %d updates: %d chars", i+1, len(lead.ConversationHistory))
		}
	}
}

func TestInMemoryIdempotentAppend(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	if _, err := repo.GetOrCreateByPhone(ctx, "client-1", "+16045551234"); err != nil {
		t.Fatalf("create: %v", err)
	}

	upd := HistoryUpdate{
		ClientID:      "client-1",
		CustomerPhone: "+16045551234",
		Entry:         " | User: hi | AI: hello",
		MessageSid:    "SM123",
		MaxLen:        5000,
	}
	applied, err := repo.AppendHistory(ctx, upd)
	if err != nil || !applied {
		t.Fatalf("first append: applied=%v err=%v", applied, err)
	}
	applied, err = repo.AppendHistory(ctx, upd)
	if err != nil {
		t.Fatalf("second append: %v", err)
	}
	if applied {
		t.Fatal("expected retry with same sid to be a no-op")
	}

	lead, _ := repo.GetByCustomerPhone(ctx, "client-1", "+16045551234")
	if strings.Count(lead.ConversationHistory, "User: hi") != 1 {
		t.Fatalf("history duplicated: %q", lead.ConversationHistory)
	}
}

func TestLeadPaused(t *testing.T) {
	now := time.Now().UTC()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name  string
		until *time.Time
		want  bool
	}{
		{"nil pause", nil, false},
		{"future pause", &future, true},
		{"expired pause", &past, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &Lead{AIPausedUntil: tt.until}
			if got := l.Paused(now); got != tt.want {
				t.Fatalf("Paused = %v, want %v", got, tt.want)
			}
		})
	}
}
