package v1_0_1

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/initia-labs/transfervolume/config"
	"github.com/initia-labs/transfervolume/indexer/entity"
	"github.com/initia-labs/transfervolume/indexer/projector"
	"github.com/initia-labs/transfervolume/indexer/sink"
	"github.com/initia-labs/transfervolume/types"
)

type staleRow struct {
	Address string
	Name    string
	Symbol  string
	Value   int64
	Height  int64
}

// Patch backfills transfer_volume.volume from the accumulator store.
// Rows written before the volume column existed hold zero.
func Patch(tx *gorm.DB, cfg *config.Config, logger *slog.Logger) error {
	var stale []staleRow
	if err := tx.Table("transfer_volume AS tv").
		Select("tv.address, tv.name, tv.symbol, s.value, s.height").
		Joins("JOIN transfer_volume_store AS s ON s.key = tv.address").
		Where("tv.volume <> s.value").
		Order("tv.address").
		Scan(&stale).Error; err != nil {
		return err
	}

	// sink stamps one height per write; rows keep the height of their last checkpoint
	var heights []int64
	byHeight := make(map[int64]*entity.Tables)
	for _, row := range stale {
		tables, ok := byHeight[row.Height]
		if !ok {
			tables = entity.NewTables()
			byHeight[row.Height] = tables
			heights = append(heights, row.Height)
		}
		tables.UpdateRow(types.TransferVolumeTable, row.Address).
			Set(projector.FieldName, row.Name).
			Set(projector.FieldSymbol, row.Symbol).
			Set(projector.FieldAddress, row.Address).
			Set(projector.FieldVolume, row.Value)
	}

	batchSize := 0
	if dbCfg := cfg.GetDBConfig(); dbCfg != nil {
		batchSize = dbCfg.BatchSize
	}

	for _, height := range heights {
		if _, err := sink.Write(tx, height, byHeight[height].ToChanges(), batchSize); err != nil {
			return err
		}
	}

	logger.Info("backfilled transfer volume", slog.Int("rows", len(stale)))
	return nil
}
