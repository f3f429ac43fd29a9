package store

import (
	"maps"
	"slices"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/initia-labs/transfervolume/types"
)

var addToExisting = clause.OnConflict{
	Columns: []clause.Column{{Name: "key"}},
	DoUpdates: clause.Assignments(map[string]any{
		"value":  gorm.Expr(`"transfer_volume_store"."value" + "excluded"."value"`),
		"height": gorm.Expr(`"excluded"."height"`),
	}),
}

// Load reads every persisted counter
func Load(db *gorm.DB) (map[string]int64, error) {
	var rows []types.CollectedVolumeStore
	if err := db.Find(&rows).Error; err != nil {
		return nil, types.NewDatabaseError("load volume store", err)
	}

	values := make(map[string]int64, len(rows))
	for _, row := range rows {
		values[row.Key] = row.Value
	}
	return values, nil
}

// Checkpoint adds the block's deltas to the persisted counters
func Checkpoint(tx *gorm.DB, height int64, deltas map[string]int64, batchSize int) error {
	if len(deltas) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = len(deltas)
	}

	rows := make([]types.CollectedVolumeStore, 0, len(deltas))
	for _, key := range slices.Sorted(maps.Keys(deltas)) {
		rows = append(rows, types.CollectedVolumeStore{
			Key:    key,
			Value:  deltas[key],
			Height: height,
		})
	}

	if err := tx.Clauses(addToExisting).CreateInBatches(rows, batchSize).Error; err != nil {
		return types.NewDatabaseError("checkpoint volume store", err)
	}
	return nil
}
