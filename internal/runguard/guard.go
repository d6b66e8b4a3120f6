package runguard

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// Guard 按任务类型保证同一时刻最多一次运行；运行期间到达的调用方共享这次运行的结果
type Guard struct {
	group singleflight.Group
}

func New() *Guard {
	return &Guard{}
}

// Do 执行 fn；若同名任务正在运行，则等待并返回那次运行的结果，shared 表示结果是否被共享
func Do[T any](g *Guard, ctx context.Context, job string, fn func(ctx context.Context) T) (result T, shared bool) {
	// 运行不随单个调用方取消
	runCtx := context.WithoutCancel(ctx)
	v, _, shared := g.group.Do(job, func() (interface{}, error) {
		return fn(runCtx), nil
	})
	result, _ = v.(T)
	return result, shared
}
