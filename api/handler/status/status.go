package status

import (
	"database/sql"
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/initia-labs/transfervolume/config"
	"github.com/initia-labs/transfervolume/types"
)

type StatusResponse struct {
	Version       string `json:"version"`
	CommitHash    string `json:"commit_hash"`
	ChainId       string `json:"chain_id"`
	Height        int64  `json:"height"`
	TrackedTokens int64  `json:"tracked_tokens"`
}

// GetStatus handles GET /status
// @Summary Status check
// @Description Get current indexer status including chain ID, last committed height and number of tracked tokens
// @Tags App
// @Accept json
// @Produce json
// @Success 200 {object} StatusResponse
// @Router /status [get]
func (h *StatusHandler) GetStatus(c *fiber.Ctx) error {
	var lastBlock types.CollectedBlock

	// single read-only transaction for a consistent snapshot
	tx := h.GetDatabase().Begin(&sql.TxOptions{ReadOnly: true})
	defer tx.Rollback()

	if err := tx.
		Model(&types.CollectedBlock{}).
		Where("chain_id = ?", h.GetChainId()).
		Order("height DESC").
		First(&lastBlock).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	var tracked int64
	if err := tx.Model(&types.CollectedTransferVolume{}).Count(&tracked).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(&StatusResponse{
		Version:       config.Version,
		CommitHash:    config.CommitHash,
		ChainId:       h.GetChainId(),
		Height:        lastBlock.Height,
		TrackedTokens: tracked,
	})
}
