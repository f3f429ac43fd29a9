package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	IndexerLatencyBuckets = []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30}
)

// IndexerMetrics groups indexer-related metrics
type IndexerMetrics struct {
	// Core processing metrics
	BlocksProcessedTotal prometheus.Counter
	CurrentBlockHeight   prometheus.Gauge
	ChainHeadHeight      prometheus.Gauge
	BlockProcessingTime  *prometheus.HistogramVec

	// Pipeline output
	MatchedTransfersTotal prometheus.Counter
	RowsEmittedTotal      prometheus.Counter
	MetadataFaultsTotal   prometheus.Counter
	MetadataLookupsTotal  *prometheus.CounterVec

	// Error tracking
	ProcessingErrors *prometheus.CounterVec
}

// NewIndexerMetrics creates and returns indexer metrics
func NewIndexerMetrics() *IndexerMetrics {
	return &IndexerMetrics{
		BlocksProcessedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name:        "transfervolume_blocks_processed_total",
				Help:        "Total number of blocks processed",
				ConstLabels: constLabels(),
			},
		),
		CurrentBlockHeight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name:        "transfervolume_current_block_height",
				Help:        "Height of the last committed block",
				ConstLabels: constLabels(),
			},
		),
		ChainHeadHeight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name:        "transfervolume_chain_head_height",
				Help:        "Latest height reported by the chain",
				ConstLabels: constLabels(),
			},
		),
		BlockProcessingTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "transfervolume_block_processing_duration_seconds",
				Help:        "Time spent processing blocks",
				Buckets:     IndexerLatencyBuckets,
				ConstLabels: constLabels(),
			},
			[]string{"stage"}, // "fetch", "extract", "accumulate", "project", "commit"
		),
		MatchedTransfersTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name:        "transfervolume_matched_transfers_total",
				Help:        "Total number of transfer logs that passed the token name filter",
				ConstLabels: constLabels(),
			},
		),
		RowsEmittedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name:        "transfervolume_rows_emitted_total",
				Help:        "Total number of TransferVolume rows projected",
				ConstLabels: constLabels(),
			},
		),
		MetadataFaultsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name:        "transfervolume_metadata_faults_total",
				Help:        "Total number of token metadata lookups that failed and fell back to empty values",
				ConstLabels: constLabels(),
			},
		),
		MetadataLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "transfervolume_metadata_lookups_total",
				Help:        "Total number of token metadata lookups by source",
				ConstLabels: constLabels(),
			},
			[]string{"source"}, // "memory", "negative", "redis", "chain"
		),
		ProcessingErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "transfervolume_processing_errors_total",
				Help:        "Total number of block processing errors",
				ConstLabels: constLabels(),
			},
			[]string{"stage", "error_type"},
		),
	}
}

// Register registers all indexer metrics with the given registry
func (i *IndexerMetrics) Register(reg *prometheus.Registry) {
	reg.MustRegister(
		i.BlocksProcessedTotal,
		i.CurrentBlockHeight,
		i.ChainHeadHeight,
		i.BlockProcessingTime,
		i.MatchedTransfersTotal,
		i.RowsEmittedTotal,
		i.MetadataFaultsTotal,
		i.MetadataLookupsTotal,
		i.ProcessingErrors,
	)
}
