package handler

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/initia-labs/transfervolume/api/handler/common"
	"github.com/initia-labs/transfervolume/api/handler/status"
	"github.com/initia-labs/transfervolume/api/handler/volume"
	"github.com/initia-labs/transfervolume/config"
	"github.com/initia-labs/transfervolume/orm"
)

func Register(router fiber.Router, db *orm.Database, cfg *config.Config, logger *slog.Logger) {
	base := common.NewBaseHandler(db, cfg, logger)
	handlers := []common.HandlerRegistrar{
		status.NewStatusHandler(base),
		volume.NewVolumeHandler(base),
	}

	for _, handler := range handlers {
		handler.Register(router)
	}
}
