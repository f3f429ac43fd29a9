package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/initia-labs/transfervolume/indexer/accumulator"
	"github.com/initia-labs/transfervolume/indexer/entity"
	"github.com/initia-labs/transfervolume/indexer/projector"
	"github.com/initia-labs/transfervolume/indexer/store"
	indexertypes "github.com/initia-labs/transfervolume/indexer/types"
	"github.com/initia-labs/transfervolume/metrics"
	"github.com/initia-labs/transfervolume/types"
)

// Extractor produces the match batch of a block
type Extractor interface {
	Extract(ctx context.Context, block indexertypes.Block) (indexertypes.MatchBatch, error)
}

// Result is everything one block produced
type Result struct {
	Height  int64
	Batch   indexertypes.MatchBatch
	Changes []entity.Change
}

// Pipeline runs extraction, accumulation and projection for one block.
// Projection reads the store after accumulation wrote it.
type Pipeline struct {
	logger    *slog.Logger
	extractor Extractor
}

func New(logger *slog.Logger, extractor Extractor) *Pipeline {
	return &Pipeline{
		logger:    logger.With("component", "pipeline"),
		extractor: extractor,
	}
}

func (p *Pipeline) Process(ctx context.Context, block indexertypes.Block, s store.Store) (Result, error) {
	indexerMetrics := metrics.GetMetrics().IndexerMetrics()

	start := time.Now()
	batch, err := p.extractor.Extract(ctx, block)
	if err != nil {
		errType, _ := types.ErrorTypeOf(err)
		indexerMetrics.ProcessingErrors.WithLabelValues("extract", string(errType)).Inc()
		p.logger.Error("failed to extract block", slog.Int64("height", block.Height), slog.Any("error", err))
		return Result{}, err
	}
	indexerMetrics.BlockProcessingTime.WithLabelValues("extract").Observe(time.Since(start).Seconds())

	start = time.Now()
	accumulator.Accumulate(batch, s)
	indexerMetrics.BlockProcessingTime.WithLabelValues("accumulate").Observe(time.Since(start).Seconds())

	start = time.Now()
	changes := projector.Project(batch, s)
	indexerMetrics.BlockProcessingTime.WithLabelValues("project").Observe(time.Since(start).Seconds())

	indexerMetrics.MatchedTransfersTotal.Add(float64(len(batch)))
	indexerMetrics.RowsEmittedTotal.Add(float64(len(changes)))

	if len(batch) > 0 {
		p.logger.Debug("processed block",
			slog.Int64("height", block.Height),
			slog.Int("matched", len(batch)),
			slog.Int("rows", len(changes)))
	}

	return Result{
		Height:  block.Height,
		Batch:   batch,
		Changes: changes,
	}, nil
}
