package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iho/accountledger/internal/domain"
	"github.com/iho/accountledger/internal/usecase"
	"github.com/iho/accountledger/internal/usecase/mocks"
)

type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("redis down")
}

func (failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("redis down")
}

func (failingCache) Delete(context.Context, string) error {
	return nil
}

func TestCachedCurrencyRepositoryCachesHits(t *testing.T) {
	repo := mocks.NewMockCurrencyRepository(&domain.Currency{ID: "cur-1", Symbol: "Bs", Code: "BOB"})
	cache := mocks.NewMockCache()
	cached := usecase.NewCachedCurrencyRepository(repo, cache, time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		c, err := cached.GetByID(ctx, "cur-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.Symbol != "Bs" {
			t.Fatalf("expected symbol Bs, got %q", c.Symbol)
		}
	}

	if repo.Calls != 1 {
		t.Fatalf("expected 1 repository call, got %d", repo.Calls)
	}

	raw, _ := cache.Get(ctx, "currency:cur-1")
	if len(raw) == 0 {
		t.Fatalf("expected currency to be cached")
	}
}

func TestCachedCurrencyRepositoryDoesNotCacheMisses(t *testing.T) {
	repo := mocks.NewMockCurrencyRepository()
	cache := mocks.NewMockCache()
	cached := usecase.NewCachedCurrencyRepository(repo, cache, time.Hour)

	_, err := cached.GetByID(context.Background(), "cur-x")
	if !errors.Is(err, domain.ErrCurrencyNotFound) {
		t.Fatalf("expected ErrCurrencyNotFound, got %v", err)
	}

	if raw, _ := cache.Get(context.Background(), "currency:cur-x"); raw != nil {
		t.Fatalf("expected miss not to be cached")
	}
}

func TestCachedCurrencyRepositoryFallsBackWhenCacheFails(t *testing.T) {
	repo := mocks.NewMockCurrencyRepository(&domain.Currency{ID: "cur-1", Symbol: "$"})
	cached := usecase.NewCachedCurrencyRepository(repo, failingCache{}, time.Hour)

	c, err := cached.GetByID(context.Background(), "cur-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Symbol != "$" {
		t.Fatalf("expected repository value, got %q", c.Symbol)
	}
}
