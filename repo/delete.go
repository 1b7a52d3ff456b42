package repo

import (
	"context"

	"ormkit/batch"
	"ormkit/client"
	"ormkit/dialect"
	"ormkit/errors"
	"ormkit/filter"
	"ormkit/logging"
)

// DeleteByFilter 按过滤数组删除，返回删除行数
func (r *Repo) DeleteByFilter(ctx context.Context, filters []filter.Tree, opts Options) (int64, error) {
	tree := buildTree(filters, &opts)
	n, err := r.client.DeleteMany(ctx, tree)
	if err != nil {
		return 0, errors.WrapDatabaseError(ctx, err, "deleteByFilter")
	}
	return n, nil
}

// DeleteByIDs 按主键列表删除。超出提供者删除批量上限时自动分批，
// 单批失败记日志后继续，返回实际删除总数。
func (r *Repo) DeleteByIDs(ctx context.Context, ids []any, opts Options) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	model, err := r.modelMeta()
	if err != nil {
		return 0, err
	}
	idColumn := model.PrimaryKeyField()

	size := dialect.OptimalBatchSize(dialect.OpDelete, r.provider)
	result := batch.ProcessBatches(ctx, ids, size,
		func(ctx context.Context, part []any, _ int) (int64, error) {
			return r.client.DeleteMany(ctx, client.Filter{
				idColumn: map[string]any{"in": part},
			})
		},
		batch.ProcessOptions{
			Parallel:    opts.Parallel,
			Concurrency: opts.Concurrency,
			RateLimit:   opts.RateLimit,
		})

	if result.FailedBatches > 0 {
		r.log.Warn(ctx, "按主键批量删除部分失败",
			logging.Int("total", result.TotalBatches),
			logging.Int("failed", result.FailedBatches))
	}

	var total int64
	for _, n := range result.Results {
		total += n
	}
	return total, nil
}
