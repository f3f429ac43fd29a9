package v1_0_2

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/initia-labs/transfervolume/config"
	"github.com/initia-labs/transfervolume/indexer/entity"
	"github.com/initia-labs/transfervolume/indexer/sink"
	"github.com/initia-labs/transfervolume/types"
)

// Patch removes projected rows that have no counter behind them, left over
// from blocks whose store checkpoint was rolled back.
func Patch(tx *gorm.DB, cfg *config.Config, logger *slog.Logger) error {
	var orphans []string
	if err := tx.Model(&types.CollectedTransferVolume{}).
		Where("NOT EXISTS (SELECT 1 FROM transfer_volume_store AS s WHERE s.key = transfer_volume.address)").
		Order("address").
		Pluck("address", &orphans).Error; err != nil {
		return err
	}
	if len(orphans) == 0 {
		return nil
	}

	tables := entity.NewTables()
	for _, address := range orphans {
		tables.DeleteRow(types.TransferVolumeTable, address)
	}
	if _, err := sink.Write(tx, 0, tables.ToChanges(), 0); err != nil {
		return err
	}

	logger.Info("removed orphan transfer volume rows", slog.Int("rows", len(orphans)))
	return nil
}
