package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/getsentry/sentry-go"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/initia-labs/transfervolume/config"
	"github.com/initia-labs/transfervolume/indexer/extractor"
	"github.com/initia-labs/transfervolume/indexer/metadata"
	"github.com/initia-labs/transfervolume/indexer/pipeline"
	"github.com/initia-labs/transfervolume/indexer/sink"
	"github.com/initia-labs/transfervolume/indexer/store"
	indexertypes "github.com/initia-labs/transfervolume/indexer/types"
	"github.com/initia-labs/transfervolume/metrics"
	"github.com/initia-labs/transfervolume/orm"
	"github.com/initia-labs/transfervolume/sentry_integration"
	"github.com/initia-labs/transfervolume/types"
	"github.com/initia-labs/transfervolume/util/querier"
)

// ChainClient is the subset of the querier the indexer reads blocks with
type ChainClient interface {
	GetLatestHeight(ctx context.Context) (int64, error)
	GetEvmTxs(ctx context.Context, height int64) ([]types.EvmTx, error)
	GetEvmBlockHeader(ctx context.Context, height int64) (*types.EvmBlockHeader, error)
}

type Indexer struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *orm.Database
	chain    ChainClient
	pipeline *pipeline.Pipeline
	store    *store.MemoryStore
	closers  []func() error
	height   int64
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *orm.Database) (*Indexer, error) {
	q := querier.NewQuerier(cfg)

	var shared metadata.SharedCache
	redisCache, err := metadata.NewRedisCache(ctx, cfg.GetMetadataConfig(), cfg.GetChainId())
	if err != nil {
		return nil, err
	}
	if redisCache != nil {
		shared = redisCache
	}
	resolver := metadata.NewCachedResolver(cfg.GetMetadataConfig(), q, shared, logger)

	i, err := NewWithClient(cfg, logger, db, q, resolver)
	if err != nil {
		return nil, err
	}
	if redisCache != nil {
		i.closers = append(i.closers, redisCache.Close)
	}
	return i, nil
}

// NewWithClient builds an indexer on an existing chain client and resolver
func NewWithClient(cfg *config.Config, logger *slog.Logger, db *orm.Database, chain ChainClient, resolver metadata.Resolver) (*Indexer, error) {
	e, err := extractor.New(logger, resolver, extractor.ContainsFilter(cfg.GetNameFilter()))
	if err != nil {
		return nil, err
	}

	return &Indexer{
		cfg:      cfg,
		logger:   logger.With("component", "indexer"),
		db:       db,
		chain:    chain,
		pipeline: pipeline.New(logger, e),
		store:    store.NewMemoryStore(),
	}, nil
}

func (i *Indexer) Run(ctx context.Context) error {
	defer metrics.RecoverFromPanic("indexer")
	defer i.close()

	chainHead, err := i.wait(ctx)
	if err != nil {
		return ignoreCancel(err)
	}

	var lastBlock types.CollectedBlock
	if err := i.db.
		Where("chain_id = ?", i.cfg.GetChainId()).
		Order("height desc").
		Limit(1).
		First(&lastBlock).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		i.logger.Error("failed to get the last block from db", slog.Any("error", err))
		return types.NewDatabaseError("get last block", err)
	}

	i.height = computeStartHeight(lastBlock.Height+1, chainHead, i.cfg.StartHeightSet(), i.cfg.StartHeightLatest(), i.cfg.GetStartHeight())
	if i.height < types.MinChainHeightToStart {
		i.height = types.MinChainHeightToStart
	}

	values, err := store.Load(i.db.DB)
	if err != nil {
		i.logger.Error("failed to restore volume store", slog.Any("error", err))
		return err
	}
	i.store.Restore(values)

	i.logger.Info("indexer started",
		slog.Int64("start_height", i.height),
		slog.Int64("chain_height", chainHead),
		slog.Int("restored_keys", len(values)))

	return ignoreCancel(i.loop(ctx, chainHead))
}

func (i *Indexer) loop(ctx context.Context, chainHead int64) error {
	indexerMetrics := metrics.GetMetrics().IndexerMetrics()
	indexerMetrics.ChainHeadHeight.Set(float64(chainHead))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if i.height > chainHead {
			latest, err := i.chain.GetLatestHeight(ctx)
			if err != nil {
				i.logger.Warn("failed to get chain height", slog.Any("error", err))
			} else {
				chainHead = latest
				indexerMetrics.ChainHeadHeight.Set(float64(chainHead))
			}

			if i.height > chainHead {
				if err := sleep(ctx, i.cfg.GetPollingInterval()); err != nil {
					return err
				}
				continue
			}
		}

		if err := i.processHeight(ctx, i.height); err != nil {
			if !orm.IsSerializationFailure(err) {
				return err
			}
			// counters were rolled back; the same height is replayed
			i.logger.Warn("serialization failure, retrying block", slog.Int64("height", i.height))
			if err := sleep(ctx, i.cfg.GetPollingInterval()); err != nil {
				return err
			}
			continue
		}
		i.height++
	}
}

// processHeight runs the pipeline on one block and commits its effects in a
// single transaction. On failure the in-memory counters are reverted.
func (i *Indexer) processHeight(ctx context.Context, height int64) error {
	transaction, ctx := sentry_integration.StartSentryTransaction(ctx, "ProcessBlock", "height "+strconv.FormatInt(height, 10))
	defer transaction.Finish()

	indexerMetrics := metrics.GetMetrics().IndexerMetrics()

	start := time.Now()
	block, err := i.fetchBlock(ctx, height)
	if err != nil {
		indexerMetrics.ProcessingErrors.WithLabelValues("fetch", errorLabel(err)).Inc()
		i.logger.Error("failed to fetch block", slog.Int64("height", height), slog.Any("error", err))
		return err
	}
	indexerMetrics.BlockProcessingTime.WithLabelValues("fetch").Observe(time.Since(start).Seconds())

	i.store.BeginBlock()
	result, err := i.pipeline.Process(ctx, block, i.store)
	if err != nil {
		i.store.Rollback()
		metrics.TrackError("indexer", errorLabel(err))
		if types.IsDecodeFault(err) {
			sentry_integration.CaptureCurrentHubException(err, sentry.LevelError)
		}
		return err
	}

	start = time.Now()
	deltas := i.store.Deltas()
	err = i.db.Transaction(func(tx *gorm.DB) error {
		rows, err := sink.Write(tx, height, result.Changes, i.db.GetBatchSize())
		if err != nil {
			return err
		}
		if err := store.Checkpoint(tx, height, deltas, i.db.GetBatchSize()); err != nil {
			return err
		}

		cb := types.CollectedBlock{
			ChainId:       block.ChainId,
			Height:        block.Height,
			Hash:          block.Hash,
			Timestamp:     block.Timestamp,
			TransferCount: len(result.Batch),
			RowCount:      rows,
		}
		// a committed height must never be replayed: the checkpoint adds deltas
		if err := tx.Create(&cb).Error; err != nil {
			return types.NewDatabaseError("insert block", err)
		}
		return nil
	})
	if err != nil {
		i.store.Rollback()
		indexerMetrics.ProcessingErrors.WithLabelValues("commit", errorLabel(err)).Inc()
		metrics.TrackError("indexer", "commit_error")
		i.logger.Error("failed to commit block", slog.Int64("height", height), slog.Any("error", err))
		return err
	}
	i.store.Commit()
	indexerMetrics.BlockProcessingTime.WithLabelValues("commit").Observe(time.Since(start).Seconds())

	indexerMetrics.BlocksProcessedTotal.Inc()
	indexerMetrics.CurrentBlockHeight.Set(float64(height))
	metrics.SetComponentHealth("indexer", true)

	i.logger.Info("indexed block",
		slog.Int64("height", height),
		slog.Int("matched", len(result.Batch)),
		slog.Int("rows", len(result.Changes)))
	return nil
}

func (i *Indexer) fetchBlock(ctx context.Context, height int64) (indexertypes.Block, error) {
	var (
		header *types.EvmBlockHeader
		txs    []types.EvmTx
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		header, err = i.chain.GetEvmBlockHeader(gctx, height)
		return err
	})
	g.Go(func() (err error) {
		txs, err = i.chain.GetEvmTxs(gctx, height)
		return err
	})
	if err := g.Wait(); err != nil {
		return indexertypes.Block{}, err
	}

	return buildBlock(i.cfg.GetChainId(), height, header, txs)
}

func buildBlock(chainId string, height int64, header *types.EvmBlockHeader, txs []types.EvmTx) (indexertypes.Block, error) {
	block := indexertypes.Block{
		ChainId: chainId,
		Height:  height,
	}

	if header != nil {
		block.Hash = header.Hash
		if header.Timestamp != "" {
			ts, err := hexutil.DecodeUint64(header.Timestamp)
			if err != nil {
				return block, types.NewInvalidValueError("timestamp", header.Timestamp, err.Error())
			}
			block.Timestamp = time.Unix(int64(ts), 0).UTC()
		}
	}

	for _, tx := range txs {
		for _, log := range tx.Logs {
			if log.Removed {
				continue
			}
			block.Logs = append(block.Logs, log)
		}
	}

	return block, nil
}

// wait blocks until the chain is past MinChainHeightToStart and returns its head
func (i *Indexer) wait(ctx context.Context) (int64, error) {
	for {
		chainHeight, err := i.chain.GetLatestHeight(ctx)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			i.logger.Error("failed to get chain height", slog.Any("error", err))
		case chainHeight > types.MinChainHeightToStart:
			return chainHeight, nil
		}

		if err := sleep(ctx, types.ChainCheckInterval); err != nil {
			return 0, err
		}
	}
}

func (i *Indexer) close() {
	for _, c := range i.closers {
		if err := c(); err != nil {
			i.logger.Warn("failed to close resource", slog.Any("error", err))
		}
	}
}

// Height returns the next height to be processed
func (i *Indexer) Height() int64 {
	return i.height
}

// computeStartHeight resolves where indexing begins.
// Without START_HEIGHT it resumes from the db; "latest" jumps to the chain head;
// an explicit value is clamped to the chain head. The result never rewinds
// below dbNext, since committed heights cannot be processed twice.
func computeStartHeight(dbNext, chainHead int64, explicitSet, latest bool, desired int64) int64 {
	if !explicitSet {
		return dbNext
	}

	start := desired
	if latest || start > chainHead {
		start = chainHead
	}
	return max(start, dbNext)
}

func errorLabel(err error) string {
	if errType, ok := types.ErrorTypeOf(err); ok {
		return string(errType)
	}
	if code, ok := orm.PgErrorCode(err); ok {
		return fmt.Sprintf("pg_%s", code)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "canceled"
	}
	return "unknown"
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
