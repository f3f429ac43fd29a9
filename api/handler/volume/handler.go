package volume

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/initia-labs/transfervolume/api/cache"
	"github.com/initia-labs/transfervolume/api/handler/common"
)

type VolumeHandler struct {
	*common.BaseHandler
}

var _ common.HandlerRegistrar = (*VolumeHandler)(nil)

func NewVolumeHandler(base *common.BaseHandler) *VolumeHandler {
	return &VolumeHandler{BaseHandler: base}
}

func (h *VolumeHandler) Register(router fiber.Router) {
	volumes := router.Group("/transfer-volume")

	volumes.Get("/", cache.WithExpiration(time.Second), h.GetTransferVolumes)
	volumes.Get("/:address", h.GetTransferVolumeByAddress)
}
