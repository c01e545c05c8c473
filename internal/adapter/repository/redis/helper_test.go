package redis

import (
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
)

// redisFixture runs the currency cache and the idempotency store against
// one in-memory server. Everything is closed when the test ends.
type redisFixture struct {
	server *miniredis.Miniredis
	client *redislib.Client
	cache  *Cache
	idem   *IdempotencyStore
}

func newRedisFixture(t *testing.T) *redisFixture {
	t.Helper()

	server := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return &redisFixture{
		server: server,
		client: client,
		cache:  NewCache(client),
		idem:   NewIdempotencyStore(client),
	}
}

// raw reads a key as stored, bypassing the adapters' prefixes.
func (f *redisFixture) raw(t *testing.T, key string) (string, bool) {
	t.Helper()

	if !f.server.Exists(key) {
		return "", false
	}

	val, err := f.server.Get(key)
	if err != nil {
		t.Fatalf("read %s: %v", key, err)
	}

	return val, true
}
