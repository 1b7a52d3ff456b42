package repo

import (
	"context"
	"time"

	"ormkit/batch"
	"ormkit/client"
	"ormkit/dialect"
	"ormkit/errors"
	"ormkit/logging"
	"ormkit/meta"
	"ormkit/relation"
	"ormkit/sqlbuild"
)

// 文档型提供者批量更新事务的等待与超时参数
const (
	txMaxWait = 5 * time.Second
	txTimeout = 30 * time.Second
)

// UpdateManyByID 按主键批量更新，每条数据必须携带主键。
//
// 路径选择：
//   - 文档型提供者 → 按事务批量上限分批，每批在单个事务内逐行更新
//   - 配置了原生执行器的 SQL 提供者 → 合并为 CASE WHEN 批量语句
//   - 其余 → 逐行 update
//
// 单批失败记日志后继续，返回实际更新总数。
func (r *Repo) UpdateManyByID(ctx context.Context, items []client.Record, opts Options) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}
	model, err := r.modelMeta()
	if err != nil {
		return 0, err
	}
	idColumn := model.PrimaryKeyField()

	prepared := make([]client.Record, 0, len(items))
	for _, item := range items {
		id, ok := item[idColumn]
		if !ok || id == nil {
			return 0, errors.NewError(errors.ErrCodeInvalidInput, "批量更新的条目缺少主键")
		}
		data := item
		if opts.handleRelations() {
			data = relation.ProcessRelations(item, model)
			data = relation.NormalizeRelationsToFK(data, opts.KeyTransform)
		}
		prepared = append(prepared, data)
	}

	if r.provider.IsDocument() {
		return r.updateViaTransactions(ctx, prepared, idColumn, opts)
	}
	if r.raw != nil {
		return r.updateViaBulkSQL(ctx, prepared, model, opts)
	}
	return r.updatePerRow(ctx, prepared, idColumn, opts)
}

// updateViaBulkSQL 合并为 CASE WHEN 语句的快路径
func (r *Repo) updateViaBulkSQL(ctx context.Context, items []client.Record, model *meta.ModelMeta, opts Options) (int64, error) {
	d := dialect.New(r.provider)
	size := dialect.OptimalBatchSize(dialect.OpUpdateMany, r.provider)

	result := batch.ProcessBatches(ctx, items, size,
		func(ctx context.Context, part []client.Record, _ int) (int64, error) {
			query, err := sqlbuild.BuildUpdateQuery(part, r.table, model, d)
			if err != nil {
				return 0, err
			}
			return r.raw.ExecRaw(ctx, query)
		},
		batch.ProcessOptions{
			Parallel:    opts.Parallel,
			Concurrency: opts.Concurrency,
			RateLimit:   opts.RateLimit,
		})

	if result.FailedBatches > 0 {
		r.log.Warn(ctx, "批量 SQL 更新部分失败",
			logging.Int("total", result.TotalBatches),
			logging.Int("failed", result.FailedBatches))
	}

	var total int64
	for _, n := range result.Results {
		total += n
	}
	return total, nil
}

// updateViaTransactions 文档型提供者的事务回退路径
func (r *Repo) updateViaTransactions(ctx context.Context, items []client.Record, idColumn string, opts Options) (int64, error) {
	if r.tx == nil {
		return r.updatePerRow(ctx, items, idColumn, opts)
	}
	size := dialect.OptimalBatchSize(dialect.OpTransaction, r.provider)

	result := batch.ProcessBatches(ctx, items, size,
		func(ctx context.Context, part []client.Record, _ int) (int64, error) {
			ops := make([]client.TxOperation, len(part))
			for i, item := range part {
				row := item
				ops[i] = func(ctx context.Context) error {
					_, err := r.client.Update(ctx, row[idColumn], withoutKey(row, idColumn))
					return err
				}
			}
			err := r.tx.Transact(ctx, ops, &client.TxOptions{
				MaxWait: txMaxWait,
				Timeout: txTimeout,
			})
			if err != nil {
				return 0, err
			}
			return int64(len(part)), nil
		},
		batch.ProcessOptions{
			Parallel:    opts.Parallel,
			Concurrency: opts.Concurrency,
			RateLimit:   opts.RateLimit,
		})

	if result.FailedBatches > 0 {
		r.log.Warn(ctx, "事务批量更新部分失败",
			logging.Int("total", result.TotalBatches),
			logging.Int("failed", result.FailedBatches))
	}

	var total int64
	for _, n := range result.Results {
		total += n
	}
	return total, nil
}

// updatePerRow 逐行更新的兜底路径，单行失败记日志后继续
func (r *Repo) updatePerRow(ctx context.Context, items []client.Record, idColumn string, opts Options) (int64, error) {
	result := batch.ProcessBatches(ctx, items, 1,
		func(ctx context.Context, part []client.Record, _ int) (int64, error) {
			row := part[0]
			if _, err := r.client.Update(ctx, row[idColumn], withoutKey(row, idColumn)); err != nil {
				return 0, err
			}
			return 1, nil
		},
		batch.ProcessOptions{
			Parallel:    opts.Parallel,
			Concurrency: opts.Concurrency,
			RateLimit:   opts.RateLimit,
		})

	if result.FailedBatches > 0 {
		r.log.Warn(ctx, "逐行更新部分失败",
			logging.Int("total", result.TotalBatches),
			logging.Int("failed", result.FailedBatches))
	}

	var total int64
	for _, n := range result.Results {
		total += n
	}
	return total, nil
}

func withoutKey(row client.Record, key string) client.Record {
	out := make(client.Record, len(row))
	for k, v := range row {
		if k == key {
			continue
		}
		out[k] = v
	}
	return out
}
