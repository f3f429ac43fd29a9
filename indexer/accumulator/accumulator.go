package accumulator

import (
	indexertypes "github.com/initia-labs/transfervolume/indexer/types"
	"github.com/initia-labs/transfervolume/indexer/store"
)

// Accumulate adds one to the counter of every record's address
func Accumulate(batch indexertypes.MatchBatch, s store.Store) {
	for _, record := range batch {
		s.Add(record.Address, 1)
	}
}
