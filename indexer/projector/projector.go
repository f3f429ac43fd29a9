package projector

import (
	"github.com/initia-labs/transfervolume/indexer/entity"
	"github.com/initia-labs/transfervolume/indexer/store"
	indexertypes "github.com/initia-labs/transfervolume/indexer/types"
	"github.com/initia-labs/transfervolume/types"
)

const (
	FieldName    = "name"
	FieldSymbol  = "symbol"
	FieldAddress = "address"
	FieldVolume  = "volume"
)

// Project emits one TransferVolume create per record whose address has a
// counter. Records without a counter are skipped.
func Project(batch indexertypes.MatchBatch, s store.Store) []entity.Change {
	tables := entity.NewTables()

	for _, record := range batch {
		volume, ok := s.Get(record.Address)
		if !ok {
			continue
		}

		tables.CreateRow(types.TransferVolumeTable, record.Address).
			Set(FieldName, record.Name).
			Set(FieldSymbol, record.Symbol).
			Set(FieldAddress, record.Address).
			Set(FieldVolume, volume)
	}

	return tables.ToChanges()
}
