package batch

import (
	"context"
	"sync"
	"time"
)

// ParallelOptions 并行执行配置
type ParallelOptions struct {
	// Concurrency 同时在途任务数上限，<=0 时取默认值
	Concurrency int
	// RateLimit 每秒任务启动数上限，<=0 表示不限速
	RateLimit int
}

// DefaultConcurrency 默认并发上限
const DefaultConcurrency = 5

// ParallelResult 并行执行的部分失败容器。
// Results 按输入序号对位存放成功结果（失败槽位为零值），
// Errors 记录每个失败任务的序号与错误。
type ParallelResult[R any] struct {
	Results []R
	Errors  []IndexedError
}

// ExecuteInParallel 以受限并发执行一组任务。
//
// 保证：
//   - 输入序号到输出槽位的映射保持不变；
//   - 单个任务失败不会取消兄弟任务；
//   - 不保证跨任务的完成时间顺序；
//   - 上下文取消后未启动的任务记录 ctx.Err()，在途任务自行收尾。
func ExecuteInParallel[R any](ctx context.Context, tasks []func(context.Context) (R, error), opts ParallelOptions) ParallelResult[R] {
	result := ParallelResult[R]{
		Results: make([]R, len(tasks)),
	}
	if len(tasks) == 0 {
		return result
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	var ticker *time.Ticker
	if opts.RateLimit > 0 {
		ticker = time.NewTicker(time.Second / time.Duration(opts.RateLimit))
		defer ticker.Stop()
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		semaphore = make(chan struct{}, concurrency)
	)

	record := func(index int, value R, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			result.Errors = append(result.Errors, IndexedError{Index: index, Err: err})
			return
		}
		result.Results[index] = value
	}

	for i, task := range tasks {
		// 上下文已取消：剩余任务不再启动，槽位记录取消错误
		if err := ctx.Err(); err != nil {
			record(i, *new(R), err)
			continue
		}

		if ticker != nil {
			select {
			case <-ticker.C:
			case <-ctx.Done():
				record(i, *new(R), ctx.Err())
				continue
			}
		}

		wg.Add(1)
		semaphore <- struct{}{}

		go func(index int, fn func(context.Context) (R, error)) {
			defer wg.Done()
			defer func() { <-semaphore }()

			value, err := fn(ctx)
			record(index, value, err)
		}(i, task)
	}

	wg.Wait()
	return result
}
