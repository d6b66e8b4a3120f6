package model

import (
	"time"

	"gorm.io/datatypes"
)

// Document 通用文档表：collection + doc_id 唯一，data 为 jsonb
type Document struct {
	ID         uint64         `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	Collection string         `gorm:"column:collection;type:varchar(64);not null;uniqueIndex:uk_collection_doc;comment:集合名"`
	DocID      string         `gorm:"column:doc_id;type:varchar(128);not null;uniqueIndex:uk_collection_doc;comment:文档ID"`
	Data       datatypes.JSON `gorm:"column:data;type:jsonb;not null;comment:文档内容"`
	CreatedAt  time.Time      `gorm:"column:created_at;type:timestamp;default:now();comment:创建时间"`
	UpdatedAt  time.Time      `gorm:"column:updated_at;type:timestamp;default:now();comment:更新时间"`
}

func (Document) TableName() string { return "documents" }
