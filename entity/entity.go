// Package entity 提供实体数据载体的最小契约。
//
// 实体以字段名为键承载数据，仓储层通过 Get/Set 能力读写字段，
// Init 将部分数据负载逐键应用。不依赖反射或代码生成。
package entity

// IAccessor 字段读写能力
type IAccessor interface {
	// Get 读取字段值，不存在时返回 (nil, false)
	Get(field string) (any, bool)
	// Set 写入字段值
	Set(field string, value any)
}

// Entity 基于映射的实体实现
type Entity struct {
	data map[string]any
}

// New 创建空实体
func New() *Entity {
	return &Entity{data: make(map[string]any)}
}

// FromRecord 从已有数据创建实体，持有传入映射的引用
func FromRecord(record map[string]any) *Entity {
	if record == nil {
		record = make(map[string]any)
	}
	return &Entity{data: record}
}

// Get 实现 IAccessor
func (e *Entity) Get(field string) (any, bool) {
	v, ok := e.data[field]
	return v, ok
}

// Set 实现 IAccessor
func (e *Entity) Set(field string, value any) {
	e.data[field] = value
}

// Init 将部分数据负载逐键经 Set 应用到实体
func (e *Entity) Init(partial map[string]any) {
	for k, v := range partial {
		e.Set(k, v)
	}
}

// Record 实体当前数据的浅拷贝
func (e *Entity) Record() map[string]any {
	out := make(map[string]any, len(e.data))
	for k, v := range e.data {
		out[k] = v
	}
	return out
}
