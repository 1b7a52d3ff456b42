package batch

import (
	"context"

	"ormkit/logging"
	"ormkit/retry"
)

// ProcessOptions 批次处理配置
type ProcessOptions struct {
	// Parallel 为 true 且批次数大于 1 时走并行路径
	Parallel bool
	// Concurrency 并行时的并发上限
	Concurrency int
	// RateLimit 每秒批次启动数上限
	RateLimit int
	// Retry 单个批次的重试策略，nil 表示不重试
	Retry *retry.Config
	// OnProgress 每个批次完成后回调（含失败批次），参数为已处理条数与总条数
	OnProgress func(processed, total int)
	// OnError 单个批次失败时回调
	OnError func(batchIndex int, err error)
}

// ProcessResult 批次处理结果。
// 调用方必须检查 Errors 以发现部分失败；单批失败不会让整次调用返回错误。
type ProcessResult[R any] struct {
	Results           []R
	Errors            []IndexedError
	TotalBatches      int
	SuccessfulBatches int
	FailedBatches     int
}

// Failed 是否存在失败批次
func (r ProcessResult[R]) Failed() bool {
	return len(r.Errors) > 0
}

// ProcessBatches 将 items 按 size 分批并通过 processor 逐批处理。
//
// 顺序路径按提交顺序逐批执行；并行路径（Parallel 且批次数 > 1）
// 委托给受限并发执行器。两条路径都把单批失败收进 Errors 而不中止
// 其余批次。
func ProcessBatches[T, R any](ctx context.Context, items []T, size int, processor func(ctx context.Context, batch []T, batchIndex int) (R, error), opts ProcessOptions) ProcessResult[R] {
	batches := CreateBatches(items, size)
	result := ProcessResult[R]{
		TotalBatches: len(batches),
	}
	if len(batches) == 0 {
		return result
	}

	log := logging.ComponentLogger("batch")

	run := func(ctx context.Context, batch []T, index int) (R, error) {
		if opts.Retry == nil {
			return processor(ctx, batch, index)
		}
		var value R
		err := retry.Do(ctx, func(ctx context.Context) error {
			var innerErr error
			value, innerErr = processor(ctx, batch, index)
			return innerErr
		}, *opts.Retry)
		return value, err
	}

	if opts.Parallel && len(batches) > 1 {
		tasks := make([]func(context.Context) (R, error), len(batches))
		for i, b := range batches {
			index, current := i, b
			tasks[i] = func(ctx context.Context) (R, error) {
				return run(ctx, current, index)
			}
		}
		parallel := ExecuteInParallel(ctx, tasks, ParallelOptions{
			Concurrency: opts.Concurrency,
			RateLimit:   opts.RateLimit,
		})

		result.Results = parallel.Results
		result.Errors = parallel.Errors
		result.FailedBatches = len(parallel.Errors)
		result.SuccessfulBatches = result.TotalBatches - result.FailedBatches

		for _, e := range parallel.Errors {
			if opts.OnError != nil {
				opts.OnError(e.Index, e.Err)
			}
			log.Warn(ctx, "批次执行失败",
				logging.Int("batch", e.Index),
				logging.Error(e.Err))
		}
		if opts.OnProgress != nil {
			opts.OnProgress(len(items), len(items))
		}
		return result
	}

	// 顺序路径
	result.Results = make([]R, len(batches))
	processed := 0
	for i, b := range batches {
		value, err := run(ctx, b, i)
		processed += len(b)
		if err != nil {
			result.Errors = append(result.Errors, IndexedError{Index: i, Err: err})
			result.FailedBatches++
			if opts.OnError != nil {
				opts.OnError(i, err)
			}
			log.Warn(ctx, "批次执行失败",
				logging.Int("batch", i),
				logging.Error(err))
		} else {
			result.Results[i] = value
			result.SuccessfulBatches++
		}
		if opts.OnProgress != nil {
			opts.OnProgress(processed, len(items))
		}
	}
	return result
}
