// Package orbatch 实现 OR 条件的占位符安全分批执行。
//
// 顶层 OR 数组过大时单条查询的占位符数会超过提供者上限，这里
// 按 上限/每条件字段数 切分 OR 成员，分批查询后拼接并按 id 去重。
package orbatch

import (
	"context"

	"ormkit/batch"
	"ormkit/client"
	"ormkit/dialect"
	"ormkit/filter"
	"ormkit/logging"
)

// MaxConditionsPerQuery 单条查询可容纳的 OR 成员数上限
func MaxConditionsPerQuery(p dialect.Provider, fieldsPerCondition int) int {
	if fieldsPerCondition <= 0 {
		fieldsPerCondition = 1
	}
	caps := dialect.CapabilitiesFor(p)
	n := caps.MaxPlaceholders / fieldsPerCondition
	if n < 1 {
		n = 1
	}
	return n
}

// NeedsOrBatching 判断 OR 成员的占位符总数是否超出提供者安全上限
func NeedsOrBatching(p dialect.Provider, numConditions, fieldsPerCondition int) bool {
	if fieldsPerCondition <= 0 {
		fieldsPerCondition = 1
	}
	caps := dialect.CapabilitiesFor(p)
	return numConditions*fieldsPerCondition > caps.MaxPlaceholders
}

// CreateOrBatches 将 OR 成员切分为占位符安全的批次
func CreateOrBatches(conditions []filter.Tree, p dialect.Provider, fieldsPerCondition int) [][]filter.Tree {
	return batch.CreateBatches(conditions, MaxConditionsPerQuery(p, fieldsPerCondition))
}

// ExecuteArgs OR 分批查询参数
type ExecuteArgs struct {
	// Client 模型客户端
	Client client.IModelClient
	// Conditions 顶层 OR 成员，空时直接返回空结果
	Conditions []filter.Tree
	// Include 关联包含列表，透传给每次查询
	Include []string
	// FieldsPerCondition 每个 OR 成员占用的占位符数，默认 1
	FieldsPerCondition int
	// Provider 占位符上限来自该提供者的能力表
	Provider dialect.Provider
	// Parallel 分批时是否并行执行
	Parallel bool
	// Concurrency 并行批次的并发上限
	Concurrency int
}

// ExecuteWithOrBatching 执行 OR 条件查询，必要时自动分批。
//
// 无需分批时发出单条完整 OR 查询；分批路径下单批失败只记日志，
// 其余批次照常执行，最终结果拼接后按 id 去重。分批时服务端排序
// 对整体结果不成立，排序由调用方在客户端补做。
func ExecuteWithOrBatching(ctx context.Context, args ExecuteArgs) ([]client.Record, error) {
	if len(args.Conditions) == 0 {
		return nil, nil
	}

	query := func(ctx context.Context, conditions []filter.Tree) ([]client.Record, error) {
		members := make([]any, len(conditions))
		for i, c := range conditions {
			members[i] = c
		}
		return args.Client.FindMany(ctx, client.FindManyArgs{
			Where:   client.Filter{"OR": members},
			Include: args.Include,
		})
	}

	if !NeedsOrBatching(args.Provider, len(args.Conditions), args.FieldsPerCondition) {
		rows, err := query(ctx, args.Conditions)
		if err != nil {
			return nil, err
		}
		return DeduplicateResults(rows), nil
	}

	log := logging.ComponentLogger("orbatch")
	size := MaxConditionsPerQuery(args.Provider, args.FieldsPerCondition)
	result := batch.ProcessBatches(ctx, args.Conditions, size,
		func(ctx context.Context, conditions []filter.Tree, _ int) ([]client.Record, error) {
			return query(ctx, conditions)
		},
		batch.ProcessOptions{
			Parallel:    args.Parallel,
			Concurrency: args.Concurrency,
		})

	if result.FailedBatches > 0 {
		log.Warn(ctx, "OR 分批查询部分失败",
			logging.Int("total", result.TotalBatches),
			logging.Int("failed", result.FailedBatches))
	}

	var all []client.Record
	for _, rows := range result.Results {
		all = append(all, rows...)
	}
	return DeduplicateResults(all), nil
}

// DeduplicateResults 按 id 去重，保留首次出现。
// 没有 id 的行无法建立同一性，无条件保留。
func DeduplicateResults(rows []client.Record) []client.Record {
	if len(rows) <= 1 {
		return rows
	}
	seen := make(map[any]bool, len(rows))
	out := make([]client.Record, 0, len(rows))
	for _, row := range rows {
		id, ok := row["id"]
		if !ok || id == nil {
			out = append(out, row)
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, row)
	}
	return out
}
