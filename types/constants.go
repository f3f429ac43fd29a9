package types

import "time"

// Indexer constants
const (
	// Chain readiness check
	MinChainHeightToStart = 1
	ChainCheckInterval    = 5 * time.Second

	// TransferVolumeTable is the entity name of projected rows
	TransferVolumeTable = "TransferVolume"

	// DefaultNameFilter is the substring a token name must contain to be tracked
	DefaultNameFilter = "Ape"
)
