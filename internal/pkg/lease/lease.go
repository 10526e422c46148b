package lease

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Lease is a best-effort leader lease over Redis, used so that a sweep tick
// runs once when the service is horizontally scaled. Correctness of the
// sweeps never depends on it - every swept operation is idempotent at the
// storage level - it only avoids duplicate work.
type Lease struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	token  string
}

func New(client *redis.Client, key string, ttl time.Duration) *Lease {
	return &Lease{
		client: client,
		key:    key,
		ttl:    ttl,
		token:  uuid.New().String(),
	}
}

// TryAcquire returns true when this process holds the lease for the tick.
// Without Redis configured every process proceeds.
func (l *Lease) TryAcquire(ctx context.Context) bool {
	if l.client == nil {
		return true
	}
	ok, err := l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		// Redis being down must not stall the sweeps.
		return true
	}
	return ok
}

// Release drops the lease if this process still holds it.
func (l *Lease) Release(ctx context.Context) {
	if l.client == nil {
		return
	}
	const script = `
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		end
		return 0
	`
	l.client.Eval(ctx, script, []string{l.key}, l.token)
}
