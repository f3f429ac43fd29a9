package volume

import (
	"github.com/initia-labs/transfervolume/api/handler/common"
	"github.com/initia-labs/transfervolume/types"
)

type TransferVolumeResponse struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
	Volume  int64  `json:"volume"`
	Height  int64  `json:"height"`
}

type TransferVolumesResponse struct {
	Volumes    []TransferVolumeResponse  `json:"volumes"`
	Pagination common.PaginationResponse `json:"pagination"`
}

func toResponse(row types.CollectedTransferVolume) TransferVolumeResponse {
	return TransferVolumeResponse{
		Address: "0x" + row.Address,
		Name:    row.Name,
		Symbol:  row.Symbol,
		Volume:  row.Volume,
		Height:  row.Height,
	}
}
