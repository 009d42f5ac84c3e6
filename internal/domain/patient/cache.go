package patient

import (
	"context"
	"errors"
	"time"

	"github.com/carepanel/carepanel/internal/platform/cache"
)

// Cache holds mapped patient representations between reads.
//
// Every Invalidate advances the patient's generation. A reader takes the
// generation before loading from storage and passes it to Set, which drops
// the write if a mutation committed in between.
type Cache interface {
	Get(ctx context.Context, id string) (*PatientResponse, bool, error)
	Generation(ctx context.Context, id string) (int64, error)
	Set(ctx context.Context, p *PatientResponse, gen int64) error
	Invalidate(ctx context.Context, id string) error
}

type nopCache struct{}

// NopCache never stores anything.
func NopCache() Cache { return nopCache{} }

func (nopCache) Get(context.Context, string) (*PatientResponse, bool, error) { return nil, false, nil }
func (nopCache) Generation(context.Context, string) (int64, error)           { return 0, nil }
func (nopCache) Set(context.Context, *PatientResponse, int64) error          { return nil }
func (nopCache) Invalidate(context.Context, string) error                    { return nil }

type redisCache struct {
	client *cache.Client
	ttl    time.Duration
}

// generationTTL outlives any cached copy so a reader's token cannot wrap
// back to a value it already saw.
const generationTTL = 24 * time.Hour

// NewRedisCache stores patients under patient:<id> for ttl, guarded by a
// counter at patient:<id>:gen.
func NewRedisCache(client *cache.Client, ttl time.Duration) Cache {
	return &redisCache{client: client, ttl: ttl}
}

func cacheKey(id string) string { return "patient:" + id }

func generationKey(id string) string { return "patient:" + id + ":gen" }

func (c *redisCache) Get(ctx context.Context, id string) (*PatientResponse, bool, error) {
	var p PatientResponse
	err := c.client.GetJSON(ctx, cacheKey(id), &p)
	if errors.Is(err, cache.ErrMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &p, true, nil
}

func (c *redisCache) Generation(ctx context.Context, id string) (int64, error) {
	return c.client.Counter(ctx, generationKey(id))
}

// Set skips the write without error when the generation moved.
func (c *redisCache) Set(ctx context.Context, p *PatientResponse, gen int64) error {
	err := c.client.SetJSONIfCounter(ctx, cacheKey(p.ID), p, c.ttl, generationKey(p.ID), gen)
	if errors.Is(err, cache.ErrStale) {
		return nil
	}
	return err
}

func (c *redisCache) Invalidate(ctx context.Context, id string) error {
	return c.client.DeleteAndBump(ctx, cacheKey(id), generationKey(id), generationTTL)
}
