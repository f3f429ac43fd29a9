package types

import (
	"time"
)

type Table struct {
	Model interface{}
	Name  string
}

// CollectedBlock is the cursor of blocks whose effects are committed
type CollectedBlock struct {
	ChainId       string    `gorm:"type:text;primaryKey"`
	Height        int64     `gorm:"type:bigint;primaryKey;autoIncrement:false;index:block_height_desc,sort:desc"`
	Hash          string    `gorm:"type:text"`
	Timestamp     time.Time `gorm:"type:timestamptz;index:block_timestamp_desc,sort:desc"`
	TransferCount int       `gorm:"type:bigint"`
	RowCount      int       `gorm:"type:bigint"`
}

// CollectedTransferVolume is the projected TransferVolume row
type CollectedTransferVolume struct {
	Address string `gorm:"type:text;primaryKey"`
	Name    string `gorm:"type:text;index:transfer_volume_name"`
	Symbol  string `gorm:"type:text"`
	Volume  int64  `gorm:"type:bigint;index:transfer_volume_volume_desc,sort:desc"`
	Height  int64  `gorm:"type:bigint;index:transfer_volume_height"`
}

// CollectedVolumeStore persists the accumulator counters between runs
type CollectedVolumeStore struct {
	Key    string `gorm:"type:text;primaryKey"`
	Value  int64  `gorm:"type:bigint"`
	Height int64  `gorm:"type:bigint"`
}

// CollectedUpgradeHistory records data patches already applied
type CollectedUpgradeHistory struct {
	Version string    `gorm:"type:text;primaryKey"`
	Applied time.Time `gorm:"type:timestamptz"`
}

func (CollectedBlock) TableName() string {
	return "block"
}

func (CollectedTransferVolume) TableName() string {
	return "transfer_volume"
}

func (CollectedVolumeStore) TableName() string {
	return "transfer_volume_store"
}

func (CollectedUpgradeHistory) TableName() string {
	return "upgrade_history"
}

// AllTables lists every model owned by the indexer, in creation order
var AllTables = []Table{
	{Model: &CollectedBlock{}, Name: CollectedBlock{}.TableName()},
	{Model: &CollectedTransferVolume{}, Name: CollectedTransferVolume{}.TableName()},
	{Model: &CollectedVolumeStore{}, Name: CollectedVolumeStore{}.TableName()},
	{Model: &CollectedUpgradeHistory{}, Name: CollectedUpgradeHistory{}.TableName()},
}
