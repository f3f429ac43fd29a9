package metadata

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/initia-labs/transfervolume/cache"
	"github.com/initia-labs/transfervolume/config"
	"github.com/initia-labs/transfervolume/metrics"
	"github.com/initia-labs/transfervolume/types"
)

const (
	SourceMemory   = "memory"
	SourceNegative = "negative"
	SourceShared   = "redis"
	SourceChain    = "chain"
)

// TokenMeta is the name and symbol of a token contract
type TokenMeta struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// Resolver looks up token metadata for a normalized address at a height
type Resolver interface {
	Resolve(ctx context.Context, address string, height int64) (TokenMeta, error)
}

// Fetcher reads metadata from the chain
type Fetcher interface {
	GetTokenMeta(ctx context.Context, tokenAddr string, height int64) (name, symbol string, err error)
}

// SharedCache is a cache tier shared between indexer instances
type SharedCache interface {
	Get(ctx context.Context, address string) (TokenMeta, bool, error)
	Set(ctx context.Context, address string, meta TokenMeta) error
}

// FetcherFunc adapts a function to Fetcher
type FetcherFunc func(ctx context.Context, tokenAddr string, height int64) (string, string, error)

func (f FetcherFunc) GetTokenMeta(ctx context.Context, tokenAddr string, height int64) (string, string, error) {
	return f(ctx, tokenAddr, height)
}

var _ Resolver = (*CachedResolver)(nil)

// CachedResolver memoizes chain lookups. Successful results are kept in an
// LRU and optionally in a shared cache, failures in a short lived negative cache.
type CachedResolver struct {
	logger   *slog.Logger
	fetcher  Fetcher
	shared   SharedCache
	memory   *cache.Cache[string, TokenMeta]
	negative *cache.TTLCache[string, error]
	group    singleflight.Group
}

func NewCachedResolver(cfg *config.MetadataConfig, fetcher Fetcher, shared SharedCache, logger *slog.Logger) *CachedResolver {
	size := cfg.CacheSize
	if size <= 0 {
		size = config.DefaultMetadataCacheSize
	}
	failureTTL := cfg.FailureTTL
	if failureTTL <= 0 {
		failureTTL = config.DefaultMetadataFailureTTL
	}

	return &CachedResolver{
		logger:   logger.With("component", "metadata"),
		fetcher:  fetcher,
		shared:   shared,
		memory:   cache.New[string, TokenMeta](size),
		negative: cache.NewTTL[string, error](size, failureTTL),
	}
}

func (r *CachedResolver) Resolve(ctx context.Context, address string, height int64) (TokenMeta, error) {
	lookups := metrics.GetMetrics().IndexerMetrics().MetadataLookupsTotal

	if meta, ok := r.memory.Get(address); ok {
		lookups.WithLabelValues(SourceMemory).Inc()
		return meta, nil
	}
	if err, ok := r.negative.Get(address); ok {
		lookups.WithLabelValues(SourceNegative).Inc()
		return TokenMeta{}, err
	}

	v, err, _ := r.group.Do(address, func() (any, error) {
		return r.load(ctx, address, height)
	})
	if err != nil {
		return TokenMeta{}, err
	}
	return v.(TokenMeta), nil
}

func (r *CachedResolver) load(ctx context.Context, address string, height int64) (TokenMeta, error) {
	lookups := metrics.GetMetrics().IndexerMetrics().MetadataLookupsTotal

	if r.shared != nil {
		meta, ok, err := r.shared.Get(ctx, address)
		switch {
		case err != nil:
			r.logger.Warn("failed to read shared metadata cache", slog.String("address", address), slog.Any("error", err))
		case ok:
			lookups.WithLabelValues(SourceShared).Inc()
			r.memory.Set(address, meta)
			return meta, nil
		}
	}

	lookups.WithLabelValues(SourceChain).Inc()
	name, symbol, err := r.fetcher.GetTokenMeta(ctx, "0x"+address, height)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return TokenMeta{}, err
		}
		fault := types.NewMetadataFault(address, err)
		r.negative.Set(address, fault)
		return TokenMeta{}, fault
	}

	meta := TokenMeta{Name: name, Symbol: symbol}
	r.memory.Set(address, meta)
	if r.shared != nil {
		if err := r.shared.Set(ctx, address, meta); err != nil {
			r.logger.Warn("failed to write shared metadata cache", slog.String("address", address), slog.Any("error", err))
		}
	}
	return meta, nil
}

// Forget drops an address from the in-process tiers
func (r *CachedResolver) Forget(address string) {
	r.memory.Remove(address)
	r.negative.Remove(address)
}
