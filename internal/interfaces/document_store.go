package interfaces

import (
	"context"
	"errors"
)

// ErrDocumentNotFound 文档不存在
var ErrDocumentNotFound = errors.New("document not found")

// DocumentStore 文档存储（按 collection + key 读写），Upsert 为 merge 语义：本次未写入的顶层字段保留
type DocumentStore interface {
	Upsert(ctx context.Context, collection, key string, fields map[string]interface{}) error
	Get(ctx context.Context, collection, key string) (map[string]interface{}, error)
	Ping(ctx context.Context) error
	Close() error
}
