package yahoo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/momentum/pkg/logger"
	"github.com/wonny/momentum/pkg/redis"
)

// OverviewStore keeps the latest market overview in process and
// mirrors it to Redis when a cache is configured
type OverviewStore struct {
	client  *Client
	symbols []string
	cache   *redis.Cache // nil 허용
	clock   func() time.Time
	logger  *logger.Logger

	mu      sync.RWMutex
	current *Overview
}

// NewOverviewStore creates a new store. Empty symbols uses DefaultSymbols.
func NewOverviewStore(client *Client, symbols []string, cache *redis.Cache, log *logger.Logger) *OverviewStore {
	if len(symbols) == 0 {
		symbols = DefaultSymbols
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &OverviewStore{
		client:  client,
		symbols: symbols,
		cache:   cache,
		clock:   time.Now,
		logger:  log,
	}
}

// Refresh fetches a new snapshot. When every symbol fails the previous
// snapshot is kept and ErrNoData is returned.
func (s *OverviewStore) Refresh(ctx context.Context) (*Overview, error) {
	overview := s.client.Overview(ctx, s.symbols, s.clock())
	if len(overview.Items) == 0 {
		s.logger.Warnf("Market overview refresh got no data for %d symbol(s), keeping previous snapshot", len(s.symbols))
		return nil, fmt.Errorf("market overview: %w", ErrNoData)
	}

	s.mu.Lock()
	s.current = overview
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.Set(ctx, redis.MarketOverviewKey(), overview, redis.TTLLong); err != nil {
			s.logger.WithError(err).Warn("Failed to mirror market overview to cache")
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"items":   len(overview.Items),
		"symbols": len(s.symbols),
	}).Info("Market overview refreshed")

	return overview, nil
}

// Get returns the latest snapshot, falling back to the Redis mirror
func (s *OverviewStore) Get(ctx context.Context) (*Overview, bool) {
	s.mu.RLock()
	current := s.current
	s.mu.RUnlock()
	if current != nil {
		return current, true
	}

	if s.cache == nil {
		return nil, false
	}
	var cached Overview
	found, err := s.cache.Get(ctx, redis.MarketOverviewKey(), &cached)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to read market overview from cache")
		return nil, false
	}
	if !found {
		return nil, false
	}
	return &cached, true
}
