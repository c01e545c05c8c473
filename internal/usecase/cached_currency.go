package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/accountledger/internal/domain"
)

const currencyCachePrefix = "currency:"

// CachedCurrencyRepository serves currency lookups from a cache, falling
// back to the wrapped repository. Cache failures only cost a lookup.
type CachedCurrencyRepository struct {
	repo  CurrencyRepository
	cache Cache
	ttl   time.Duration
}

// NewCachedCurrencyRepository wraps repo with cache.
func NewCachedCurrencyRepository(repo CurrencyRepository, cache Cache, ttl time.Duration) *CachedCurrencyRepository {
	return &CachedCurrencyRepository{repo: repo, cache: cache, ttl: ttl}
}

// GetByID returns the currency, caching hits from the repository.
func (r *CachedCurrencyRepository) GetByID(ctx context.Context, id string) (*domain.Currency, error) {
	key := currencyCachePrefix + id
	logger := zerolog.Ctx(ctx)

	raw, err := r.cache.Get(ctx, key)
	if err != nil {
		logger.Warn().Err(err).Str("currency_id", id).Msg("currency cache read failed")
	}

	if len(raw) > 0 {
		var c domain.Currency
		if err := json.Unmarshal(raw, &c); err == nil {
			return &c, nil
		}
	}

	c, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(c); err == nil {
		if err := r.cache.Set(ctx, key, raw, r.ttl); err != nil {
			logger.Warn().Err(err).Str("currency_id", id).Msg("currency cache write failed")
		}
	}

	return c, nil
}
