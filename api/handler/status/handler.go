package status

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/initia-labs/transfervolume/api/cache"
	"github.com/initia-labs/transfervolume/api/handler/common"
)

type StatusHandler struct {
	*common.BaseHandler
}

var _ common.HandlerRegistrar = (*StatusHandler)(nil)

func NewStatusHandler(base *common.BaseHandler) *StatusHandler {
	return &StatusHandler{BaseHandler: base}
}

func (h *StatusHandler) Register(router fiber.Router) {
	router.Get("/status", cache.WithExpiration(250*time.Millisecond), h.GetStatus)
}
