package leads

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestMutex(t *testing.T) *PhoneMutex {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewPhoneMutex(client, 5*time.Second)
}

func TestPhoneMutexAcquireRelease(t *testing.T) {
	m := newTestMutex(t)
	ctx := context.Background()

	release, err := m.Acquire(ctx, "client-1", "+16045551234")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	release()

	// A second acquire after release must succeed immediately.
	release2, err := m.Acquire(ctx, "client-1", "+16045551234")
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	release2()
}

func TestPhoneMutexContention(t *testing.T) {
	m := newTestMutex(t)
	m.maxWait = 150 * time.Millisecond
	ctx := context.Background()

	release, err := m.Acquire(ctx, "client-1", "+16045551234")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer release()

	if _, err := m.Acquire(ctx, "client-1", "+16045551234"); err == nil {
		t.Fatal("expected contention error for held lock")
	}
}

func TestPhoneMutexIndependentKeys(t *testing.T) {
	m := newTestMutex(t)
	ctx := context.Background()

	release1, err := m.Acquire(ctx, "client-1", "+16045551234")
	if err != nil {
		t.Fatalf("acquire first: %v", err)
	}
	defer release1()

	// A different customer number must not contend.
	release2, err := m.Acquire(ctx, "client-1", "+16045559999")
	if err != nil {
		t.Fatalf("acquire second: %v", err)
	}
	release2()
}
