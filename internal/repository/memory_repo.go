package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/KuiHua-JAC/winsports-cron/internal/interfaces"
)

// MemoryRepository 进程内文档存储（本地调试/测试用），与其他实现一样按 JSON 往返保存
type MemoryRepository struct {
	mu     sync.Mutex
	docs   map[string]map[string]interface{}
	writes int
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{docs: make(map[string]map[string]interface{})}
}

var _ interfaces.DocumentStore = (*MemoryRepository)(nil)

func (r *MemoryRepository) Upsert(_ context.Context, collection, key string, fields map[string]interface{}) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("序列化文档失败: %w, key: %s", err, key)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	id := collection + "/" + key
	doc, ok := r.docs[id]
	if !ok {
		doc = make(map[string]interface{}, len(decoded))
		r.docs[id] = doc
	}
	for k, v := range decoded {
		doc[k] = v
	}
	r.writes++
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, collection, key string) (map[string]interface{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[collection+"/"+key]
	if !ok {
		return nil, interfaces.ErrDocumentNotFound
	}
	out := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out, nil
}

// Writes 累计写入次数
func (r *MemoryRepository) Writes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes
}

// Len 文档数
func (r *MemoryRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.docs)
}

func (r *MemoryRepository) Ping(context.Context) error { return nil }

func (r *MemoryRepository) Close() error { return nil }
