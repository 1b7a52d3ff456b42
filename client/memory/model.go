package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ormkit/client"
	"ormkit/errors"
)

// ModelClient 单个模型的内存客户端，实现 client.IModelClient
type ModelClient struct {
	store *Store
	model string
}

var _ client.IModelClient = (*ModelClient)(nil)

// FindMany 实现 client.IModelClient
func (m *ModelClient) FindMany(_ context.Context, args client.FindManyArgs) ([]client.Record, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()

	t := m.store.tables[m.model]
	var matched []client.Record
	for _, row := range t.rows {
		if matchesFilter(row, args.Where) {
			matched = append(matched, row)
		}
	}

	sortRecords(matched, args.OrderBy)

	if args.Skip != nil && *args.Skip > 0 {
		if *args.Skip >= len(matched) {
			matched = nil
		} else {
			matched = matched[*args.Skip:]
		}
	}
	if args.Take != nil && *args.Take >= 0 && *args.Take < len(matched) {
		matched = matched[:*args.Take]
	}

	out := make([]client.Record, len(matched))
	for i, r := range matched {
		out[i] = cloneRecord(r)
	}
	return out, nil
}

// FindFirst 实现 client.IModelClient，未命中返回 (nil, nil)
func (m *ModelClient) FindFirst(ctx context.Context, where client.Filter) (client.Record, error) {
	one := 1
	rows, err := m.FindMany(ctx, client.FindManyArgs{Where: where, Take: &one})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Count 实现 client.IModelClient
func (m *ModelClient) Count(_ context.Context, where client.Filter) (int64, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()

	t := m.store.tables[m.model]
	var n int64
	for _, row := range t.rows {
		if matchesFilter(row, where) {
			n++
		}
	}
	return n, nil
}

// Create 实现 client.IModelClient
func (m *ModelClient) Create(_ context.Context, data client.Record) (client.Record, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	row, err := m.insertLocked(data)
	if err != nil {
		return nil, err
	}
	return cloneRecord(row), nil
}

// CreateMany 实现 client.IModelClient。
// skipDuplicates 为 true 时唯一冲突行被静默跳过，返回实际插入数。
func (m *ModelClient) CreateMany(_ context.Context, data []client.Record, skipDuplicates bool) (int64, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	var inserted int64
	for _, item := range data {
		_, err := m.insertLocked(item)
		if err != nil {
			if skipDuplicates && errors.IsUniqueViolationMessage(err) {
				continue
			}
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

// Update 实现 client.IModelClient，按主键更新单行
func (m *ModelClient) Update(_ context.Context, id any, data client.Record) (client.Record, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	t := m.store.tables[m.model]
	for _, row := range t.rows {
		if valueEquals(row["id"], id) {
			m.applyLocked(row, data)
			return cloneRecord(row), nil
		}
	}
	return nil, errors.NewError(errors.ErrCodeNotFound,
		fmt.Sprintf("记录不存在: %s id=%v", m.model, id))
}

// UpdateMany 实现 client.IModelClient
func (m *ModelClient) UpdateMany(_ context.Context, where client.Filter, data client.Record) (int64, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	t := m.store.tables[m.model]
	var n int64
	for _, row := range t.rows {
		if matchesFilter(row, where) {
			m.applyLocked(row, data)
			n++
		}
	}
	return n, nil
}

// Delete 实现 client.IModelClient，按主键删除单行
func (m *ModelClient) Delete(_ context.Context, id any) (client.Record, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	t := m.store.tables[m.model]
	for i, row := range t.rows {
		if valueEquals(row["id"], id) {
			t.rows = append(t.rows[:i], t.rows[i+1:]...)
			return cloneRecord(row), nil
		}
	}
	return nil, errors.NewError(errors.ErrCodeNotFound,
		fmt.Sprintf("记录不存在: %s id=%v", m.model, id))
}

// DeleteMany 实现 client.IModelClient
func (m *ModelClient) DeleteMany(_ context.Context, where client.Filter) (int64, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	t := m.store.tables[m.model]
	var kept []client.Record
	var n int64
	for _, row := range t.rows {
		if matchesFilter(row, where) {
			n++
			continue
		}
		kept = append(kept, row)
	}
	t.rows = kept
	return n, nil
}

// insertLocked 插入单行：补全 id 与时间戳并检查唯一约束。
// 调用方必须持有写锁。
func (m *ModelClient) insertLocked(data client.Record) (client.Record, error) {
	t := m.store.tables[m.model]
	row := cloneRecord(data)
	if _, ok := row["id"]; !ok {
		row["id"] = uuid.NewString()
	}
	now := m.store.now()
	if _, ok := row["createdAt"]; !ok {
		row["createdAt"] = now
	}
	if _, ok := row["updatedAt"]; !ok {
		row["updatedAt"] = now
	}

	if err := m.checkUniqueLocked(t, row, nil); err != nil {
		return nil, err
	}
	t.rows = append(t.rows, row)
	return row, nil
}

// applyLocked 合并更新数据并刷新 updatedAt。调用方必须持有写锁。
func (m *ModelClient) applyLocked(row client.Record, data client.Record) {
	for k, v := range data {
		if k == "id" || k == "createdAt" {
			continue
		}
		row[k] = cloneValue(v)
	}
	row["updatedAt"] = m.store.now()
}

// checkUniqueLocked 检查 candidate 是否与现有行（除 exclude 外）
// 冲突。冲突消息模仿 PostgreSQL 的唯一约束错误格式。
func (m *ModelClient) checkUniqueLocked(t *table, candidate client.Record, exclude client.Record) error {
	for _, group := range t.uniques {
		if !hasAllFields(candidate, group) {
			continue
		}
		for _, row := range t.rows {
			if exclude != nil && sameRow(row, exclude) {
				continue
			}
			if fieldsEqual(row, candidate, group) {
				name := strings.ToLower(m.model) + "_" + strings.Join(group, "_") + "_key"
				return errors.NewError(errors.ErrCodeDuplicate,
					fmt.Sprintf("duplicate key value violates unique constraint %q", name))
			}
		}
	}
	return nil
}

func hasAllFields(row client.Record, fields []string) bool {
	for _, f := range fields {
		v, ok := row[f]
		if !ok || v == nil {
			return false
		}
	}
	return true
}

func fieldsEqual(a, b client.Record, fields []string) bool {
	for _, f := range fields {
		if !valueEquals(a[f], b[f]) {
			return false
		}
	}
	return true
}

func sameRow(a, b client.Record) bool {
	return valueEquals(a["id"], b["id"])
}

func cloneRecord(r client.Record) client.Record {
	out := make(client.Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, inner := range t {
			out[k] = cloneValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, inner := range t {
			out[i] = cloneValue(inner)
		}
		return out
	case time.Time:
		return t
	default:
		return v
	}
}
