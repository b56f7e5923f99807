package services

import (
	"context"
	"time"

	"github.com/blagoySimandov/clinicbook/internal/cache"
	"github.com/blagoySimandov/clinicbook/internal/logging"
	"github.com/blagoySimandov/clinicbook/internal/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// upstreamTimeout bounds a shared listing once it no longer follows any caller's context.
const upstreamTimeout = 15 * time.Second

// CachedPlanLister serves plan listings from cache and collapses concurrent misses
// for the same account into one upstream call.
type CachedPlanLister struct {
	underlying PlanLister
	cache      cache.PlanCache
	group      singleflight.Group
}

func NewCachedPlanLister(underlying PlanLister, planCache cache.PlanCache) *CachedPlanLister {
	return &CachedPlanLister{
		underlying: underlying,
		cache:      planCache,
	}
}

func (c *CachedPlanLister) ListPlans(ctx context.Context, accountID string) ([]models.Plan, error) {
	if plans, ok := c.cache.Get(ctx, accountID); ok {
		log.Debug().
			Str("accountId", accountID).
			Int("numPlans", len(plans)).
			Msg("Plan cache hit")
		logging.EnrichPlans(ctx, len(plans), true)
		return plans, nil
	}

	log.Debug().
		Str("accountId", accountID).
		Msg("Plan cache miss, listing plans")

	ch := c.group.DoChan(accountID, func() (interface{}, error) {
		// Detached so one visitor leaving does not fail everyone waiting on the same account.
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), upstreamTimeout)
		defer cancel()

		plans, err := c.underlying.ListPlans(fetchCtx, accountID)
		if err != nil {
			return nil, err
		}
		if err := c.cache.Set(fetchCtx, accountID, plans); err != nil {
			log.Warn().
				Err(err).
				Str("accountId", accountID).
				Msg("Failed to cache plans")
		}
		return plans, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.Err != nil {
		return nil, res.Err
	}

	v := res.Val
	plans := v.([]models.Plan)
	logging.EnrichPlans(ctx, len(plans), false)

	result := make([]models.Plan, len(plans))
	copy(result, plans)
	return result, nil
}
