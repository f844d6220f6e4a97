// Package slotcache serves availability queries from Redis, falling back to the store.
//
// Entries are keyed by a per-service generation number. Invalidate bumps the generation,
// so entries written by a computation that raced an invalidation are never read again and
// simply expire.
package slotcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/availability"
	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/model"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Redis is the subset of *redis.Client the cache uses.
type Redis interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

// Source is where services are loaded from on a miss.
type Source interface {
	GetAllServices(ctx context.Context) ([]model.Service, error)
	GetService(ctx context.Context, id string) (model.Service, error)
}

type Config struct {
	TTL    time.Duration
	Prefix string
}

type Finder struct {
	source Source
	rdb    Redis
	logger *slog.Logger
	ttl    time.Duration
	prefix string
	group  singleflight.Group
}

const catalogScope = "catalog"

// New returns a Finder; a nil rdb disables caching.
func New(source Source, rdb Redis, logger *slog.Logger, cfg Config) *Finder {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Minute
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "slots"
	}
	return &Finder{
		source: source,
		rdb:    rdb,
		logger: logger,
		ttl:    cfg.TTL,
		prefix: cfg.Prefix,
	}
}

// ForService returns the available slots of one service on date.
func (f *Finder) ForService(ctx context.Context, serviceID string, date model.Date) ([]model.AvailableSlot, error) {
	return f.cached(ctx, serviceID, date, func(ctx context.Context) ([]model.AvailableSlot, error) {
		svc, err := f.source.GetService(ctx, serviceID)
		if err != nil {
			return nil, err
		}
		return availability.FindAvailable(svc, date), nil
	})
}

// ForCatalog returns the available slots of every service on date, in catalog order.
func (f *Finder) ForCatalog(ctx context.Context, date model.Date) ([]model.AvailableSlot, error) {
	return f.cached(ctx, catalogScope, date, func(ctx context.Context) ([]model.AvailableSlot, error) {
		services, err := f.source.GetAllServices(ctx)
		if err != nil {
			return nil, err
		}
		return availability.FindAvailableAll(services, date), nil
	})
}

// Invalidate drops cached answers for the service and for the catalog-wide query.
func (f *Finder) Invalidate(ctx context.Context, serviceID string) error {
	if f.rdb == nil {
		return nil
	}
	var errs []error
	for _, scope := range []string{serviceID, catalogScope} {
		if err := f.rdb.Incr(ctx, f.genKey(scope)).Err(); err != nil {
			errs = append(errs, fmt.Errorf("bump %s generation: %w", scope, err))
		}
	}
	return errors.Join(errs...)
}

func (f *Finder) cached(ctx context.Context, scope string, date model.Date, compute func(context.Context) ([]model.AvailableSlot, error)) ([]model.AvailableSlot, error) {
	if f.rdb == nil {
		return compute(ctx)
	}

	gen, err := f.generation(ctx, scope)
	if err != nil {
		f.logger.Warn("slot cache unavailable", "scope", scope, "err", err)
		return compute(ctx)
	}
	key := f.dataKey(scope, gen, date)

	if raw, err := f.rdb.Get(ctx, key).Bytes(); err == nil {
		var slots []model.AvailableSlot
		if err := json.Unmarshal(raw, &slots); err == nil {
			return slots, nil
		}
		f.logger.Warn("slot cache entry unreadable", "key", key)
	} else if !errors.Is(err, redis.Nil) {
		f.logger.Warn("slot cache get failed", "key", key, "err", err)
	}

	// Waiters share this computation, so one caller's cancellation must not fail the others.
	shared := context.WithoutCancel(ctx)
	v, err, _ := f.group.Do(key, func() (interface{}, error) {
		slots, err := compute(shared)
		if err != nil {
			return nil, err
		}
		if raw, err := json.Marshal(slots); err == nil {
			if err := f.rdb.Set(shared, key, raw, f.ttl).Err(); err != nil {
				f.logger.Warn("slot cache set failed", "key", key, "err", err)
			}
		}
		return slots, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.AvailableSlot), nil
}

func (f *Finder) generation(ctx context.Context, scope string) (int64, error) {
	raw, err := f.rdb.Get(ctx, f.genKey(scope)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}

func (f *Finder) genKey(scope string) string {
	return f.prefix + ":gen:" + scope
}

func (f *Finder) dataKey(scope string, gen int64, date model.Date) string {
	return fmt.Sprintf("%s:%s:%d:%s", f.prefix, scope, gen, date)
}
