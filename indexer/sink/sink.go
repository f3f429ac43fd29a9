package sink

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/initia-labs/transfervolume/indexer/entity"
	"github.com/initia-labs/transfervolume/indexer/projector"
	"github.com/initia-labs/transfervolume/types"
)

var replaceTransferVolume = clause.OnConflict{
	Columns:   []clause.Column{{Name: "address"}},
	DoUpdates: clause.AssignmentColumns([]string{"name", "symbol", "volume", "height"}),
}

// Write applies the changes of one block to the transfer_volume table.
// Creates and updates of the same key collapse to the last one.
func Write(tx *gorm.DB, height int64, changes []entity.Change, batchSize int) (int, error) {
	var (
		rows    []types.CollectedTransferVolume
		index   = make(map[string]int)
		deletes []string
	)

	for _, change := range changes {
		if change.Entity != types.TransferVolumeTable {
			return 0, types.NewInternalError(fmt.Sprintf("unsupported entity %s", change.Entity), nil)
		}

		switch change.Operation {
		case entity.OperationCreate, entity.OperationUpdate:
			row, err := toRow(change, height)
			if err != nil {
				return 0, err
			}
			if i, ok := index[row.Address]; ok {
				rows[i] = row
				continue
			}
			index[row.Address] = len(rows)
			rows = append(rows, row)
		case entity.OperationDelete:
			deletes = append(deletes, change.ID)
		}
	}

	if len(rows) > 0 {
		if batchSize <= 0 {
			batchSize = len(rows)
		}
		if err := tx.Clauses(replaceTransferVolume).CreateInBatches(rows, batchSize).Error; err != nil {
			return 0, types.NewDatabaseError("write transfer volume", err)
		}
	}

	if len(deletes) > 0 {
		if err := tx.Where("address IN ?", deletes).Delete(&types.CollectedTransferVolume{}).Error; err != nil {
			return 0, types.NewDatabaseError("delete transfer volume", err)
		}
	}

	return len(rows), nil
}

func toRow(change entity.Change, height int64) (types.CollectedTransferVolume, error) {
	row := types.CollectedTransferVolume{Address: change.ID, Height: height}

	for _, field := range change.Fields {
		switch field.Name {
		case projector.FieldName:
			row.Name, _ = field.Value.(string)
		case projector.FieldSymbol:
			row.Symbol, _ = field.Value.(string)
		case projector.FieldAddress:
			if addr, ok := field.Value.(string); ok && addr != change.ID {
				return row, types.NewInvalidValueError("address", addr, "does not match row id "+change.ID)
			}
		case projector.FieldVolume:
			volume, ok := field.Value.(int64)
			if !ok {
				return row, types.NewInvalidValueError("volume", fmt.Sprint(field.Value), "must be int64")
			}
			row.Volume = volume
		}
	}

	return row, nil
}
