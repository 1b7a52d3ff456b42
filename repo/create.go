package repo

import (
	"context"

	"ormkit/batch"
	"ormkit/client"
	"ormkit/dialect"
	"ormkit/filter"
	"ormkit/logging"
	"ormkit/meta"
	"ormkit/orbatch"
	"ormkit/relation"
)

// CreateManyResult 批量创建的结构化结果。
// Count 是主体写入行数；关联回填与重复丢弃属于次级信息，失败
// 不会让调用本身报错。
type CreateManyResult struct {
	// Count 实际插入行数
	Count int64
	// DroppedDuplicates 批内按唯一键去重丢弃的条数
	DroppedDuplicates int
	// FailedBatches 插入阶段失败的批次数
	FailedBatches int
	// Relations 多对多回填统计
	Relations relation.ApplyResult
}

// CreateMany 批量创建。
//
// 流程：抽离多对多负载 → 逐条做关联预处理与外键压平 → 按唯一键
// 去重（保留首次出现，后续丢弃并记日志）→ 按提供者批量上限分批
// 插入（唯一冲突时在支持的提供者上带 skipDuplicates 重试一次）→
// 按唯一键回查取回生成的主键 → 回填多对多关联。
func (r *Repo) CreateMany(ctx context.Context, items []client.Record, opts Options) (*CreateManyResult, error) {
	result := &CreateManyResult{}
	if len(items) == 0 {
		return result, nil
	}
	model, err := r.modelMeta()
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

	groups, err := r.uniqueGroups(false)
	if err != nil {
		return nil, err
	}

	// 按唯一键去重，保留首次出现；originals 记录保留条目的原始下标
	var toInsert []client.Record
	var originals []int
	seen := make(map[string]bool)
	for i, item := range normalized {
		key, _, ok := uniqueKeyOf(item, groups)
		if ok {
			if seen[key] {
				result.DroppedDuplicates++
				r.log.Debug(ctx, "批内重复条目被丢弃",
					logging.String("key", key),
					logging.Int("index", i))
				continue
			}
			seen[key] = true
		}
		toInsert = append(toInsert, item)
		originals = append(originals, i)
	}

	count, failed, _ := r.insertBatches(ctx, toInsert, opts)
	result.Count = count
	result.FailedBatches = failed

	if ext != nil && ext.HasRelations() {
		entityIDs, err := r.resolveIDsByUniqueKey(ctx, toInsert, originals, groups, model)
		if err != nil {
			r.log.Warn(ctx, "回查生成主键失败，跳过关联回填", logging.Error(err))
			return result, nil
		}
		result.Relations = r.applyRelations(ctx, model, ext, entityIDs)
	}
	return result, nil
}

// insertBatches 分批插入，唯一冲突时条件性重试。
// 返回 (插入总数, 失败批次数, 失败批次所含条目)，失败条目供调用方
// 做逐行兜底，成功批次的条目不会混入。
func (r *Repo) insertBatches(ctx context.Context, items []client.Record, opts Options) (int64, int, []client.Record) {
	if len(items) == 0 {
		return 0, 0, nil
	}
	caps := dialect.CapabilitiesFor(r.provider)
	d := dialect.New(r.provider)
	skipDup := opts.SkipDuplicates && caps.SupportsSkipDuplicates
	size := dialect.OptimalBatchSize(dialect.OpCreateMany, r.provider)

	result := batch.ProcessBatches(ctx, items, size,
		func(ctx context.Context, part []client.Record, _ int) (int64, error) {
			n, err := r.client.CreateMany(ctx, part, skipDup)
			if err == nil {
				return n, nil
			}
			// 唯一冲突在支持 skipDuplicates 的提供者上重试一次，
			// 冲突识别走当前提供者的方言规则
			if !skipDup && caps.SupportsSkipDuplicates && d.IsUniqueViolation(err) {
				r.log.Info(ctx, "唯一冲突，带 skipDuplicates 重试批次", logging.Error(err))
				return r.client.CreateMany(ctx, part, true)
			}
			return 0, err
		},
		batch.ProcessOptions{
			Parallel:    opts.Parallel,
			Concurrency: opts.Concurrency,
			RateLimit:   opts.RateLimit,
		})

	if result.FailedBatches > 0 {
		r.log.Warn(ctx, "批量插入部分失败",
			logging.Int("total", result.TotalBatches),
			logging.Int("failed", result.FailedBatches))
	}

	var failedRows []client.Record
	for _, e := range result.Errors {
		start := e.Index * size
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		failedRows = append(failedRows, items[start:end]...)
	}

	var total int64
	for _, n := range result.Results {
		total += n
	}
	return total, result.FailedBatches, failedRows
}

// resolveIDsByUniqueKey 按唯一键回查落库行，建立原始下标到生成
// 主键的映射。回查是尽力而为：无唯一键的条目无法建立映射。
func (r *Repo) resolveIDsByUniqueKey(ctx context.Context, items []client.Record, originals []int, groups [][]string, model *meta.ModelMeta) (map[int]any, error) {
	var conditions []filter.Tree
	keyByOriginal := make(map[int]string, len(items))
	for i, item := range items {
		key, condition, ok := uniqueKeyOf(item, groups)
		if !ok {
			continue
		}
		conditions = append(conditions, condition)
		keyByOriginal[originals[i]] = key
	}
	if len(conditions) == 0 {
		return nil, nil
	}

	rows, err := orbatch.ExecuteWithOrBatching(ctx, orbatch.ExecuteArgs{
		Client:             r.client,
		Conditions:         conditions,
		FieldsPerCondition: fieldsPerCondition(conditions),
		Provider:           r.provider,
	})
	if err != nil {
		return nil, err
	}

	idColumn := model.PrimaryKeyField()
	idByKey := make(map[string]any, len(rows))
	for _, row := range rows {
		for _, key := range rowKeysOf(row, groups) {
			if _, dup := idByKey[key]; !dup {
				idByKey[key] = row[idColumn]
			}
		}
	}

	entityIDs := make(map[int]any, len(keyByOriginal))
	for original, key := range keyByOriginal {
		if id, ok := idByKey[key]; ok {
			entityIDs[original] = id
		}
	}
	return entityIDs, nil
}

// applyRelations 解析显式连接表并回填多对多负载
func (r *Repo) applyRelations(ctx context.Context, model *meta.ModelMeta, ext *relation.Extraction, entityIDs map[int]any) relation.ApplyResult {
	joinTables := make(map[string]*relation.JoinTableRef)
	for field, cardinality := range ext.Cardinality {
		if cardinality != relation.CardinalityExplicit {
			continue
		}
		jt, err := r.meta.JoinTable(model.Name, field)
		if err != nil || jt == nil {
			r.log.Warn(ctx, "连接表解析失败",
				logging.String("field", field),
				logging.Error(err))
			continue
		}
		joinTables[field] = &relation.JoinTableRef{
			TableName:   jt.JoinTableName,
			SourceField: jt.SourceField,
			TargetField: jt.TargetField,
		}
	}
	return relation.ApplyManyToMany(ctx, relation.ApplyArgs{
		Extraction: ext,
		EntityIDs:  entityIDs,
		ModelName:  model.Name,
		Client:     r.client,
		Raw:        r.raw,
		JoinTables: joinTables,
		Provider:   r.provider,
	})
}
