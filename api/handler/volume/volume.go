package volume

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/initia-labs/transfervolume/api/handler/common"
	"github.com/initia-labs/transfervolume/types"
	"github.com/initia-labs/transfervolume/util"
)

// GetTransferVolumes handles GET /transfer-volume
// @Summary List transfer volumes
// @Description Tokens ordered by transfer count, highest first unless pagination.reverse=false
// @Tags TransferVolume
// @Accept json
// @Produce json
// @Param pagination.offset query int false "Pagination offset"
// @Param pagination.limit query int false "Pagination limit" default(100)
// @Param pagination.reverse query bool false "Reverse order default(true) if set to true, the results will be ordered in descending order"
// @Success 200 {object} TransferVolumesResponse
// @Failure 400 {object} common.ErrorResponse
// @Failure 500 {object} common.ErrorResponse
// @Router /transfer-volume [get]
func (h *VolumeHandler) GetTransferVolumes(c *fiber.Ctx) error {
	pagination, err := common.ParsePagination(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	db := h.GetDatabase()

	var total int64
	if err := db.Model(&types.CollectedTransferVolume{}).Count(&total).Error; err != nil {
		h.TrackError("count_volumes")
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	var rows []types.CollectedTransferVolume
	if err := db.
		Order("volume " + pagination.Order).
		Order("address ASC").
		Limit(pagination.Limit).
		Offset(pagination.Offset).
		Find(&rows).Error; err != nil {
		h.TrackError("list_volumes")
		h.GetLogger().Error("failed to list transfer volumes", slog.Any("error", err))
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	volumes := make([]TransferVolumeResponse, 0, len(rows))
	for _, row := range rows {
		volumes = append(volumes, toResponse(row))
	}

	return c.JSON(&TransferVolumesResponse{
		Volumes:    volumes,
		Pagination: pagination.ToResponse(total),
	})
}

// GetTransferVolumeByAddress handles GET /transfer-volume/:address
// @Summary Get transfer volume of a token
// @Description Get the transfer count, name and symbol of a single token contract
// @Tags TransferVolume
// @Accept json
// @Produce json
// @Param address path string true "Token contract address (hex, 0x prefix optional)"
// @Success 200 {object} TransferVolumeResponse
// @Failure 400 {object} common.ErrorResponse
// @Failure 404 {object} common.ErrorResponse
// @Router /transfer-volume/{address} [get]
func (h *VolumeHandler) GetTransferVolumeByAddress(c *fiber.Ctx) error {
	address, err := util.NormalizeEvmAddress(c.Params("address"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	var row types.CollectedTransferVolume
	if err := h.GetDatabase().
		Where("address = ?", address).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "transfer volume not found")
		}
		h.TrackError("get_volume")
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(toResponse(row))
}
