package repo

import (
	"context"
	"sync"

	"ormkit/batch"
	"ormkit/client"
	"ormkit/compare"
	"ormkit/dialect"
	"ormkit/errors"
	"ormkit/filter"
	"ormkit/logging"
	"ormkit/orbatch"
	"ormkit/relation"
)

// UpsertResult 批量 upsert 的结构化结果
type UpsertResult struct {
	// Created 新建行数
	Created int
	// Updated 更新行数
	Updated int
	// Unchanged 变更检测判定无变化而跳过写入的条数
	Unchanged int
	// Total 输入条数
	Total int
	// FailedCreates 创建阶段失败条数
	FailedCreates int
	// FailedUpdates 更新阶段失败条数
	FailedUpdates int
	// Relations 多对多回填统计
	Relations relation.ApplyResult
	// SkippedRelations 因条目无变化而未回填的关联负载数。
	// 无变化条目不重放关联，调用方可据此判断是否需要显式重建。
	SkippedRelations int
}

// queuedItem 进入创建或更新队列的条目，index 保留原始下标供
// 关联回填使用
type queuedItem struct {
	index int
	id    any
	data  client.Record
}

// UpsertMany 批量创建或更新。
//
// 流程：抽离多对多负载 → 逐条预处理 → 按唯一键经 OR 分批回查
// 现存行 → 变更检测分流：命中且无变化计 Unchanged，命中有变化
// 进更新队列，未命中进创建队列 → 两个队列分别执行（双队列非空
// 且启用并行时并发执行）→ 对创建与更新的行回填多对多关联。
//
// 模型缺少唯一约束是配置错误，同步返回。无变化条目不发出任何
// 写入，时间戳保持不变。
func (r *Repo) UpsertMany(ctx context.Context, items []client.Record, opts Options) (*UpsertResult, error) {
	result := &UpsertResult{Total: len(items)}
	if len(items) == 0 {
		return result, nil
	}
	model, err := r.modelMeta()
	if err != nil {
		return nil, err
	}
	groups, err := r.uniqueGroups(true)
	if err != nil {
		return nil, err
	}

	var ext *relation.Extraction
	prepared := items
	if opts.handleRelations() {
		ext, err = relation.ExtractManyToMany(items, model, r.meta)
		if err != nil {
			return nil, err
		}
		prepared = ext.Cleaned
	}

	normalized := make([]client.Record, len(prepared))
	for i, item := range prepared {
		data := item
		if opts.handleRelations() {
			data = relation.ProcessRelations(item, model)
			data = relation.NormalizeRelationsToFK(data, opts.KeyTransform)
		}
		normalized[i] = data
	}

	existingByKey, err := r.fetchExistingByUniqueKey(ctx, normalized, groups, opts)
	if err != nil {
		return nil, errors.Wrap(ctx, err, errors.ErrCodeDatabase, "按唯一键回查现存行失败")
	}

	idColumn := model.PrimaryKeyField()
	var creates, updates []queuedItem
	for i, item := range normalized {
		key, _, ok := uniqueKeyOf(item, groups)
		if !ok {
			// 唯一键不全的条目无法判定存在性，按创建处理
			creates = append(creates, queuedItem{index: i, data: item})
			continue
		}
		existing, found := existingByKey[key]
		if !found {
			creates = append(creates, queuedItem{index: i, data: item})
			continue
		}
		if !compare.HasChanges(item, existing) {
			result.Unchanged++
			if ext != nil {
				if payload, has := ext.ByIndex[i]; has {
					result.SkippedRelations += len(payload)
				}
			}
			continue
		}
		updates = append(updates, queuedItem{index: i, id: existing[idColumn], data: item})
	}

	entityIDs := make(map[int]any)
	var idMu sync.Mutex

	runCreates := func() {
		created, failed, ids := r.upsertCreates(ctx, creates, groups, idColumn, opts)
		result.Created = created
		result.FailedCreates = failed
		idMu.Lock()
		for index, id := range ids {
			entityIDs[index] = id
		}
		idMu.Unlock()
	}
	runUpdates := func() {
		updated, failed := r.upsertUpdates(ctx, updates, opts)
		result.Updated = updated
		result.FailedUpdates = failed
		idMu.Lock()
		for _, q := range updates {
			entityIDs[q.index] = q.id
		}
		idMu.Unlock()
	}

	if opts.Parallel && len(creates) > 0 && len(updates) > 0 {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() { defer wg.Done(); runCreates() }()
		go func() { defer wg.Done(); runUpdates() }()
		wg.Wait()
	} else {
		runCreates()
		runUpdates()
	}

	if ext != nil && ext.HasRelations() {
		result.Relations = r.applyRelations(ctx, model, ext, entityIDs)
	}
	return result, nil
}

// fetchExistingByUniqueKey 按各条目的唯一键经 OR 分批回查现存行，
// 结果按唯一键索引
func (r *Repo) fetchExistingByUniqueKey(ctx context.Context, items []client.Record, groups [][]string, opts Options) (map[string]client.Record, error) {
	var conditions []filter.Tree
	for _, item := range items {
		if _, condition, ok := uniqueKeyOf(item, groups); ok {
			conditions = append(conditions, condition)
		}
	}
	if len(conditions) == 0 {
		return nil, nil
	}

	rows, err := orbatch.ExecuteWithOrBatching(ctx, orbatch.ExecuteArgs{
		Client:             r.client,
		Conditions:         conditions,
		FieldsPerCondition: fieldsPerCondition(conditions),
		Provider:           r.provider,
		Parallel:           opts.Parallel,
		Concurrency:        opts.Concurrency,
	})
	if err != nil {
		return nil, err
	}

	existing := make(map[string]client.Record, len(rows))
	for _, row := range rows {
		for _, key := range rowKeysOf(row, groups) {
			if _, dup := existing[key]; !dup {
				existing[key] = row
			}
		}
	}
	return existing, nil
}

// upsertCreates 执行创建队列：先分批插入，失败批次逐行兜底；
// 随后按唯一键回查生成主键。返回 (成功数, 失败数, 下标到主键映射)。
func (r *Repo) upsertCreates(ctx context.Context, creates []queuedItem, groups [][]string, idColumn string, opts Options) (int, int, map[int]any) {
	if len(creates) == 0 {
		return 0, 0, nil
	}
	data := make([]client.Record, len(creates))
	originals := make([]int, len(creates))
	for i, q := range creates {
		data[i] = q.data
		originals[i] = q.index
	}

	count, _, failedRows := r.insertBatches(ctx, data, opts)
	created := int(count)
	failed := 0
	if len(failedRows) > 0 {
		// 只对失败批次的条目逐行兜底；成功批次的行重放会让无唯一键
		// 保护的条目二次落库
		perRowCreated, perRowFailed := r.createPerRow(ctx, failedRows, opts)
		created += perRowCreated
		failed = perRowFailed
	}

	model, err := r.modelMeta()
	if err != nil {
		return created, failed, nil
	}
	ids, err := r.resolveIDsByUniqueKey(ctx, data, originals, groups, model)
	if err != nil {
		r.log.Warn(ctx, "回查新建行主键失败", logging.Error(err))
		return created, failed, nil
	}
	return created, failed, ids
}

// createPerRow 逐行创建兜底，唯一冲突行按已存在处理不计失败
func (r *Repo) createPerRow(ctx context.Context, data []client.Record, opts Options) (int, int) {
	d := dialect.New(r.provider)
	created, failed := 0, 0
	result := batch.ProcessBatches(ctx, data, 1,
		func(ctx context.Context, part []client.Record, _ int) (struct{}, error) {
			_, err := r.client.Create(ctx, part[0])
			if err != nil && d.IsUniqueViolation(err) {
				// 失败批次里部分已落库的行在兜底时表现为唯一冲突
				return struct{}{}, nil
			}
			return struct{}{}, err
		},
		batch.ProcessOptions{
			Parallel:    opts.Parallel,
			Concurrency: opts.Concurrency,
			RateLimit:   opts.RateLimit,
		})
	created = result.SuccessfulBatches
	failed = result.FailedBatches
	return created, failed
}

// upsertUpdates 执行更新队列，逐行更新，失败记日志后继续
func (r *Repo) upsertUpdates(ctx context.Context, updates []queuedItem, opts Options) (int, int) {
	if len(updates) == 0 {
		return 0, 0
	}
	result := batch.ProcessBatches(ctx, updates, 1,
		func(ctx context.Context, part []queuedItem, _ int) (struct{}, error) {
			q := part[0]
			_, err := r.client.Update(ctx, q.id, q.data)
			return struct{}{}, err
		},
		batch.ProcessOptions{
			Parallel:    opts.Parallel,
			Concurrency: opts.Concurrency,
			RateLimit:   opts.RateLimit,
		})

	if result.FailedBatches > 0 {
		r.log.Warn(ctx, "upsert 更新阶段部分失败",
			logging.Int("failed", result.FailedBatches))
	}
	return result.SuccessfulBatches, result.FailedBatches
}
