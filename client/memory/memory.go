// Package memory 提供 client 契约的内存实现。
//
// 用于仓储层测试与本地开发：按模型维护行集合，支持唯一约束、
// 条件过滤、排序分页，并以 PostgreSQL 风格的消息报告唯一冲突，
// 使上层的冲突分类逻辑可以在无数据库环境下验证。
package memory

import (
	"context"
	"sync"
	"time"

	"ormkit/client"
)

// Store 内存数据存储，按模型名组织行集合
type Store struct {
	mu     sync.RWMutex
	tables map[string]*table
	// rawStatements 记录通过 ExecRaw 下发的语句，供测试断言
	rawStatements []string
	// now 可注入时钟，默认 time.Now
	now func() time.Time
}

type table struct {
	rows    []client.Record
	uniques [][]string
}

// NewStore 创建内存存储
func NewStore() *Store {
	return &Store{
		tables: make(map[string]*table),
		now:    time.Now,
	}
}

// SetClock 注入时钟，测试用
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// DefineUnique 为模型声明一组唯一约束字段
func (s *Store) DefineUnique(model string, fields ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.tableLocked(model)
	t.uniques = append(t.uniques, fields)
}

// Model 返回指定模型的客户端
func (s *Store) Model(name string) *ModelClient {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tableLocked(name)
	return &ModelClient{store: s, model: name}
}

// Rows 返回模型当前所有行的深拷贝，测试用
func (s *Store) Rows(model string) []client.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[model]
	if !ok {
		return nil
	}
	out := make([]client.Record, len(t.rows))
	for i, r := range t.rows {
		out[i] = cloneRecord(r)
	}
	return out
}

// ExecRaw 实现 client.IRawExecutor。
// 内存实现不解析 SQL，仅记录语句并返回 1，供显式连接表写入
// 路径的测试断言语句形状。
func (s *Store) ExecRaw(_ context.Context, query string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rawStatements = append(s.rawStatements, query)
	return 1, nil
}

// RawStatements 返回已记录的原生语句
func (s *Store) RawStatements() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.rawStatements...)
}

// Transact 实现 client.ITransactor。
// 执行前对全部表做快照，任一操作失败时整体恢复。
func (s *Store) Transact(ctx context.Context, ops []client.TxOperation, _ *client.TxOptions) error {
	snapshot := s.snapshot()
	for _, op := range ops {
		if err := op(ctx); err != nil {
			s.restore(snapshot)
			return err
		}
	}
	return nil
}

func (s *Store) snapshot() map[string][]client.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := make(map[string][]client.Record, len(s.tables))
	for name, t := range s.tables {
		rows := make([]client.Record, len(t.rows))
		for i, r := range t.rows {
			rows[i] = cloneRecord(r)
		}
		snap[name] = rows
	}
	return snap
}

func (s *Store) restore(snap map[string][]client.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, rows := range snap {
		s.tableLocked(name).rows = rows
	}
}

func (s *Store) tableLocked(name string) *table {
	t, ok := s.tables[name]
	if !ok {
		t = &table{}
		s.tables[name] = t
	}
	return t
}
