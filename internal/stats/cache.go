package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cacheVersionKey = "stats:version"
	bumpChannel     = "stats.bump"

	keyDepartments = "stats:departments"
	keyHotspots    = "stats:hotspots"
)

// Cache versions its keys through a shared counter: readers append the
// current version to every key and writers bump the counter, orphaning all
// previously cached aggregates at once. A nil Cache (or nil client) degrades
// to computing every request.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil
}

// version reads the shared counter, seeding it on first use.
func (c *Cache) version(ctx context.Context) (int64, error) {
	if err := c.client.SetNX(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
		return 0, err
	}
	return c.client.Get(ctx, cacheVersionKey).Int64()
}

// getJSON serves dest from the versioned cache entry for base, computing and
// storing it through load on a miss.
func (c *Cache) getJSON(ctx context.Context, base string, dest any, load func(context.Context) (any, error)) error {
	if !c.enabled() {
		value, err := load(ctx)
		if err != nil {
			return err
		}
		return roundTrip(value, dest)
	}
	ver, err := c.version(ctx)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("%s:%d", base, ver)
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		return json.Unmarshal(raw, dest)
	case !errors.Is(err, redis.Nil):
		return err
	}
	value, err := load(ctx)
	if err != nil {
		return err
	}
	if raw, err = json.Marshal(value); err != nil {
		return err
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

func roundTrip(value, dest any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// Bump invalidates every cached aggregate by incrementing the version and
// publishes the new value for other instances.
func (c *Cache) Bump(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	ver, err := c.client.Incr(ctx, cacheVersionKey).Result()
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, bumpChannel, strconv.FormatInt(ver, 10)).Err()
}

// ListenForInvalidation follows version bumps published by other instances
// until ctx is cancelled.
func (c *Cache) ListenForInvalidation(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	sub := c.client.Subscribe(ctx, bumpChannel)
	go func() {
		<-ctx.Done()
		_ = sub.Close()
	}()
	go func() {
		for msg := range sub.Channel() {
			ver, err := strconv.ParseInt(msg.Payload, 10, 64)
			if err != nil {
				_ = c.client.Incr(ctx, cacheVersionKey).Err()
				continue
			}
			_ = c.client.Set(ctx, cacheVersionKey, ver, 0).Err()
		}
	}()
	return nil
}

type bumpWriter struct {
	http.ResponseWriter
	status int
}

func (w *bumpWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// InvalidateOnWrite bumps the cache version after any successful mutating
// request passing through it. Mount on the write route group only.
func (c *Cache) InvalidateOnWrite(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}
		bw := &bumpWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(bw, r)
		if bw.status < 300 {
			_ = c.Bump(r.Context())
		}
	})
}
