package consent

import (
	"context"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"ucm/internal/platform/redis"
	"ucm/pkg/domain"
)

// Deduper coalesces duplicate consent submissions. A submission digest maps
// to the consent ID that first recorded it, for the length of the dedupe
// window.
type Deduper interface {
	Lookup(ctx context.Context, digest string) (domain.ConsentID, bool, error)
	Remember(ctx context.Context, digest string, id domain.ConsentID, window time.Duration) error
}

// RedisDeduper shares the dedupe window across replicas.
type RedisDeduper struct {
	client *redis.Client
}

func NewRedisDeduper(client *redis.Client) *RedisDeduper {
	return &RedisDeduper{client: client}
}

func dedupeKey(digest string) string {
	return "ucm:consent:dedupe:" + digest
}

func (d *RedisDeduper) Lookup(ctx context.Context, digest string) (domain.ConsentID, bool, error) {
	val, err := d.client.Get(ctx, dedupeKey(digest)).Result()
	if err == goredis.Nil {
		return domain.ConsentID{}, false, nil
	}
	if err != nil {
		return domain.ConsentID{}, false, fmt.Errorf("dedupe lookup: %w", err)
	}
	id, err := domain.ParseConsentID(val)
	if err != nil {
		return domain.ConsentID{}, false, nil
	}
	return id, true, nil
}

func (d *RedisDeduper) Remember(ctx context.Context, digest string, id domain.ConsentID, window time.Duration) error {
	// NX keeps the first writer's ID if two replicas race on the same digest.
	if err := d.client.SetNX(ctx, dedupeKey(digest), id.String(), window).Err(); err != nil {
		return fmt.Errorf("dedupe remember: %w", err)
	}
	return nil
}

// InMemoryDeduper is the single-process fallback when Redis is not configured.
type InMemoryDeduper struct {
	mu      sync.Mutex
	entries map[string]dedupeEntry
	now     func() time.Time
}

type dedupeEntry struct {
	id      domain.ConsentID
	expires time.Time
}

func NewInMemoryDeduper() *InMemoryDeduper {
	return &InMemoryDeduper{
		entries: make(map[string]dedupeEntry),
		now:     time.Now,
	}
}

func (d *InMemoryDeduper) Lookup(_ context.Context, digest string) (domain.ConsentID, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.expire()
	entry, ok := d.entries[digest]
	if !ok {
		return domain.ConsentID{}, false, nil
	}
	return entry.id, true, nil
}

func (d *InMemoryDeduper) Remember(_ context.Context, digest string, id domain.ConsentID, window time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.expire()
	if _, exists := d.entries[digest]; exists {
		return nil
	}
	d.entries[digest] = dedupeEntry{id: id, expires: d.now().Add(window)}
	return nil
}

func (d *InMemoryDeduper) expire() {
	now := d.now()
	for digest, entry := range d.entries {
		if entry.expires.Before(now) {
			delete(d.entries, digest)
		}
	}
}
