package types

import (
	"time"

	"github.com/initia-labs/transfervolume/types"
)

// Block is one block of chain data handed to the pipeline. Logs are in
// transaction order then log order.
type Block struct {
	ChainId   string
	Height    int64
	Hash      string
	Timestamp time.Time
	Logs      []types.EvmLog
}

// MatchRecord is a Transfer log whose token passed the name filter.
// Address is 40 lowercase hex characters without 0x.
type MatchRecord struct {
	Address string
	Name    string
	Symbol  string
}

// MatchBatch is the ordered output of extraction for one block.
// Duplicate addresses stay as separate records.
type MatchBatch []MatchRecord
