package patcher

import (
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/mod/semver"
	"gorm.io/gorm"

	"github.com/initia-labs/transfervolume/config"
	"github.com/initia-labs/transfervolume/orm"
	"github.com/initia-labs/transfervolume/patcher/v1_0_1"
	"github.com/initia-labs/transfervolume/patcher/v1_0_2"
	"github.com/initia-labs/transfervolume/types"
)

type PatchHandler struct {
	Version string
	Func    func(*gorm.DB, *config.Config, *slog.Logger) error
}

var patches = []PatchHandler{
	{"v1.0.1", v1_0_1.Patch},
	{"v1.0.2", v1_0_2.Patch},
}

// Patch applies data corrections that schema migrations cannot express.
// Each patch runs once in its own serializable transaction and is recorded
// in the upgrade_history table.
func Patch(cfg *config.Config, db *orm.Database, logger *slog.Logger) error {
	return run(patches, cfg, db, logger.With("component", "patcher"))
}

func run(handlers []PatchHandler, cfg *config.Config, db *orm.Database, logger *slog.Logger) error {
	// later patches assume earlier ones ran
	ordered := slices.Clone(handlers)
	slices.SortStableFunc(ordered, func(a, b PatchHandler) int {
		return semver.Compare(a.Version, b.Version)
	})

	for _, ph := range ordered {
		if !semver.IsValid(ph.Version) {
			return fmt.Errorf("invalid patch version %q", ph.Version)
		}

		if err := db.Transaction(func(tx *gorm.DB) error {
			applied, err := ph.isApplied(tx)
			if err != nil {
				return fmt.Errorf("failed to check patch %s: %w", ph.Version, err)
			}
			if applied {
				logger.Debug("patch already applied, skipping", slog.String("version", ph.Version))
				return nil
			}
			if err := ph.apply(tx, cfg, logger); err != nil {
				return fmt.Errorf("failed to apply patch %s: %w", ph.Version, err)
			}
			logger.Info("patch applied", slog.String("version", ph.Version))
			return nil
		}, &sql.TxOptions{Isolation: sql.LevelSerializable}); err != nil {
			return err
		}
	}
	return nil
}

func (p *PatchHandler) isApplied(tx *gorm.DB) (bool, error) {
	var count int64
	err := tx.Model(&types.CollectedUpgradeHistory{}).Where("version = ?", p.Version).Count(&count).Error
	return count > 0, err
}

func (p *PatchHandler) apply(tx *gorm.DB, cfg *config.Config, logger *slog.Logger) error {
	if err := p.Func(tx, cfg, logger); err != nil {
		return err
	}

	return tx.Create(&types.CollectedUpgradeHistory{
		Version: p.Version,
		Applied: time.Now().UTC(),
	}).Error
}
