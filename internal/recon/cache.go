package recon

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kencana-erp/kencana/internal/accounting/periods"
	"github.com/kencana-erp/kencana/internal/accounting/reports"
)

const (
	cacheVersionKey = "recon:version"
	bumpChannel     = "ledger.bump"
)

// Cache wraps Redis-backed report caching with versioned keys. A nil client
// degrades to pass-through loads so the engine works without Redis.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the report cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Version returns the current cache version, initialising it when missing.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if err == redis.Nil {
		if err := c.client.Set(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	if ver <= 0 {
		ver = 1
		if err := c.client.Set(ctx, cacheVersionKey, ver, 0).Err(); err != nil {
			return 0, err
		}
	}
	return ver, nil
}

// BuildKey composes a versioned cache key for the filters.
func (c *Cache) BuildKey(ctx context.Context, f Filters) (string, error) {
	base := keyReport(f)
	if c == nil || c.client == nil {
		return base, nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return base + ":" + strconv.FormatInt(ver, 10), nil
}

// FetchReport loads a cached report or populates it using the loader. Degraded
// reports are never cached; a transient failure must not pin zeros for a TTL.
func (c *Cache) FetchReport(ctx context.Context, key string, loader func(context.Context) (Report, error)) (Report, error) {
	if loader == nil {
		return Report{}, errors.New("recon cache: loader required")
	}
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var report Report
		if uerr := json.Unmarshal(payload, &report); uerr == nil {
			return report, nil
		}
		// Fall through to a fresh load on a corrupt entry.
	} else if err != redis.Nil {
		return Report{}, err
	}
	report, err := loader(ctx)
	if err != nil {
		return Report{}, err
	}
	if !report.Degraded() {
		if raw, merr := json.Marshal(report); merr == nil {
			// A failed store is not a failed report.
			_ = c.client.Set(ctx, key, raw, c.ttl).Err()
		}
	}
	return report, nil
}

// Bump invalidates cached reports by incrementing the global version and
// publishing the new value for other nodes.
func (c *Cache) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	ver, err := c.client.Incr(ctx, cacheVersionKey).Result()
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, bumpChannel, strconv.FormatInt(ver, 10)).Err()
}

// Listen consumes bump notifications until the context is cancelled, invoking
// fn with the published version for each one.
func (c *Cache) Listen(ctx context.Context, fn func(version string)) error {
	if c == nil || c.client == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	sub := c.client.Subscribe(ctx, bumpChannel)
	defer func() { _ = sub.Close() }()
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			fn(msg.Payload)
		}
	}
}

func keyReport(f Filters) string {
	granularity := string(f.Granularity)
	if granularity == "" {
		granularity = string(periods.GranularityMonth)
	}
	period := f.Period
	if period == "" {
		period = "default"
	}
	mode := string(f.Mode)
	if mode == "" {
		mode = string(reports.ModeUnbalanced)
	}
	return strings.Join([]string{"recon", "report", granularity, period, mode}, ":")
}
