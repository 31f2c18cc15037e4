package leads

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// PhoneMutex serializes pipeline runs per customer phone number so two
// messages arriving close together cannot race on the same lead's history.
type PhoneMutex struct {
	client  *redis.Client
	ttl     time.Duration
	retry   time.Duration
	maxWait time.Duration
}

// NewPhoneMutex creates a redis-backed per-phone mutex. The TTL bounds how
// long a crashed holder can block other requests.
func NewPhoneMutex(client *redis.Client, ttl time.Duration) *PhoneMutex {
	if client == nil {
		panic("leads: redis client required")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &PhoneMutex{
		client:  client,
		ttl:     ttl,
		retry:   50 * time.Millisecond,
		maxWait: 5 * time.Second,
	}
}

func lockKey(clientID, phone string) string {
	return fmt.Sprintf("leadlock:%s:%s", clientID, phone)
}

// Acquire takes the per-phone lock, polling until the context, the wait
// budget, or the holder's TTL gives way. The returned release func deletes
// the lock only if this caller still owns it.
func (m *PhoneMutex) Acquire(ctx context.Context, clientID, phone string) (func(), error) {
	key := lockKey(clientID, phone)
	token := uuid.NewString()
	deadline := time.Now().Add(m.maxWait)

	for {
		ok, err := m.client.SetNX(ctx, key, token, m.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("leads: acquire lock: %w", err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("leads: lock contention on %s", phone)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.retry):
		}
	}

	release := func() {
		// Compare-and-delete so an expired lock taken over by another
		// request is not removed from under it.
		const script = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = m.client.Eval(releaseCtx, script, []string{key}, token).Err()
	}
	return release, nil
}
