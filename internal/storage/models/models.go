package models

import (
	"time"

	"github.com/google/uuid"
)

// 不使用 gorm.Model，显式声明每个字段，避免隐式 DeletedAt

// Match 映射 matches 表：一次录像分析的归档
type Match struct {
	ID uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	// 解压后录像内容的 sha256
	Digest   string  `gorm:"column:digest;type:char(64);not null;uniqueIndex"`
	Map      string  `gorm:"column:map;type:text;not null;index"`
	Server   string  `gorm:"column:server;type:text"`
	Nick     string  `gorm:"column:nick;type:text"`
	Game     string  `gorm:"column:game;type:text"`
	Duration float32 `gorm:"column:duration"`
	Ticks    int32   `gorm:"column:ticks"`
	// 汇总计数，便于列表查询
	Players int32 `gorm:"column:players"`
	Rounds  int32 `gorm:"column:rounds"`
	Deaths  int32 `gorm:"column:deaths"`
	// 完整的文件头与分析结果
	Header    []byte    `gorm:"column:header;type:jsonb;not null"`
	Summary   []byte    `gorm:"column:summary;type:jsonb;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index:idx_matches_created,sort:desc"`
}

func (Match) TableName() string { return "matches" }
