package common

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/initia-labs/transfervolume/config"
	"github.com/initia-labs/transfervolume/metrics"
	"github.com/initia-labs/transfervolume/orm"
)

type HandlerRegistrar interface {
	Register(router fiber.Router)
}

type BaseHandler struct {
	db     *orm.Database
	cfg    *config.Config
	logger *slog.Logger
}

func NewBaseHandler(db *orm.Database, cfg *config.Config, logger *slog.Logger) *BaseHandler {
	return &BaseHandler{
		db:     db,
		cfg:    cfg,
		logger: logger,
	}
}

func (h *BaseHandler) GetDatabase() *orm.Database { return h.db }
func (h *BaseHandler) GetConfig() *config.Config  { return h.cfg }
func (h *BaseHandler) GetLogger() *slog.Logger    { return h.logger }

func (h *BaseHandler) GetChainId() string {
	return h.cfg.GetChainId()
}

// TrackError tracks errors in handlers
func (h *BaseHandler) TrackError(errorType string) {
	metrics.TrackError("api", errorType)
}
