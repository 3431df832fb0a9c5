package gateway

import (
	"context"
	"errors"
	"time"

	"tableadmin/internal/domain"
	"tableadmin/internal/domain/models"
	"tableadmin/internal/utils"
)

// ErrCacheMiss is returned by a SummaryCache holding no value.
var ErrCacheMiss = errors.New("summary cache miss")

// SummaryCache stores the last computed summary.
type SummaryCache interface {
	Get(ctx context.Context) (domain.Summary, error)
	Set(ctx context.Context, s domain.Summary, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

// DefaultSummaryTTL bounds staleness if an invalidation is ever lost.
const DefaultSummaryTTL = 10 * time.Minute

// Cached wraps a Gateway and memoizes GetSummary. Every successful or
// partially applied mutation drops the cached value. Cache failures are
// logged and fall through to the backend.
type Cached struct {
	Gateway
	Cache SummaryCache
	TTL   time.Duration
}

func NewCached(g Gateway, c SummaryCache) *Cached {
	return &Cached{Gateway: g, Cache: c, TTL: DefaultSummaryTTL}
}

// WithSummaryCache wraps g when a cache is configured and returns g as is
// otherwise.
func WithSummaryCache(g Gateway, c SummaryCache) Gateway {
	if c == nil {
		return g
	}
	return NewCached(g, c)
}

func (c *Cached) GetSummary(ctx context.Context) (domain.Summary, error) {
	s, err := c.Cache.Get(ctx)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		utils.LogError(utils.RequestIDFrom(ctx), "cache", "get_summary", err)
	}
	s, err = c.Gateway.GetSummary(ctx)
	if err != nil {
		return domain.Summary{}, err
	}
	if err := c.Cache.Set(ctx, s, c.TTL); err != nil {
		utils.LogError(utils.RequestIDFrom(ctx), "cache", "set_summary", err)
	}
	return s, nil
}

func (c *Cached) CreateRecord(ctx context.Context, r models.Record) (models.Record, error) {
	out, err := c.Gateway.CreateRecord(ctx, r)
	c.invalidate(ctx)
	return out, err
}

func (c *Cached) UpdateRecord(ctx context.Context, id int64, r models.Record) (models.Record, error) {
	out, err := c.Gateway.UpdateRecord(ctx, id, r)
	c.invalidate(ctx)
	return out, err
}

func (c *Cached) DeleteRecord(ctx context.Context, id int64) error {
	err := c.Gateway.DeleteRecord(ctx, id)
	c.invalidate(ctx)
	return err
}

func (c *Cached) BulkUpdateStatus(ctx context.Context, ids []int64, status models.Status) error {
	err := c.Gateway.BulkUpdateStatus(ctx, ids, status)
	c.invalidate(ctx)
	return err
}

// invalidate runs even when the mutation failed: a transport error may hide
// a write the backend did apply.
func (c *Cached) invalidate(ctx context.Context) {
	if err := c.Cache.Invalidate(ctx); err != nil {
		utils.LogError(utils.RequestIDFrom(ctx), "cache", "invalidate_summary", err)
	}
}
