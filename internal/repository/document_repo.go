package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/KuiHua-JAC/winsports-cron/internal/interfaces"
	"github.com/KuiHua-JAC/winsports-cron/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// documentRepository 基于 PostgreSQL jsonb 的文档存储
type documentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) interfaces.DocumentStore {
	return &documentRepository{db: db}
}

// Upsert 不存在则插入；存在则 data = 旧 data || 新 data（顶层字段合并，未写入字段保留）
func (r *documentRepository) Upsert(ctx context.Context, collection, key string, fields map[string]interface{}) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("序列化文档失败: %w, key: %s", err, key)
	}
	doc := &model.Document{
		Collection: collection,
		DocID:      key,
		Data:       datatypes.JSON(data),
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "collection"}, {Name: "doc_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"data":       gorm.Expr("documents.data || excluded.data"),
			"updated_at": gorm.Expr("now()"),
		}),
	}).Create(doc).Error; err != nil {
		return fmt.Errorf("写入文档失败: %w, key: %s", err, key)
	}
	return nil
}

func (r *documentRepository) Get(ctx context.Context, collection, key string) (map[string]interface{}, error) {
	var doc model.Document
	if err := r.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, key).
		First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, interfaces.ErrDocumentNotFound
		}
		return nil, err
	}
	fields := make(map[string]interface{})
	if err := json.Unmarshal(doc.Data, &fields); err != nil {
		return nil, fmt.Errorf("解析文档失败: %w, key: %s", err, key)
	}
	return fields, nil
}

func (r *documentRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *documentRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
