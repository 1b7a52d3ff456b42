// Package relation 实现关联字段的写入预处理。
//
// 负责三件事：把嵌套对象/数组转换为 connect/create 指令；把
// connect 指令压平为外键标量；把多对多负载从写入数据中抽离，
// 待主体写入完成后再按显式/隐式两条路径回填。
package relation

import (
	"time"

	"ormkit/client"
	"ormkit/meta"
)

// KeyTransform 外键字段命名转换，默认 field + "Id"
type KeyTransform func(field string) string

// DefaultKeyTransform 默认外键命名
func DefaultKeyTransform(field string) string {
	return field + "Id"
}

// ProcessRelations 将数据中的关联字段转换为 connect/create 指令。
//
// 规则：
//   - 元数据标记为 JSON 或标量数组的字段原样透传
//   - 非对象/非数组/时间值原样透传
//   - 带 id 的对象 → {connect:{id}}
//   - 不带 id 的对象 → {create:{...}}
//   - 数组 → 过滤出带 id 的元素，包装为 {connect:[{id},...]}（空则丢弃）
//
// model 为 nil 时退化为纯形状判断，无法区分 JSON 字段与关联对象。
func ProcessRelations(data client.Record, model *meta.ModelMeta) client.Record {
	out := make(client.Record, len(data))
	for field, value := range data {
		if model != nil {
			if fm, ok := model.Field(field); ok && (fm.IsJSON() || fm.IsScalarList()) {
				out[field] = value
				continue
			}
		}
		switch v := value.(type) {
		case time.Time, *time.Time:
			out[field] = value
		case map[string]any:
			if isDirective(v) {
				out[field] = value
				continue
			}
			if id, ok := v["id"]; ok && id != nil {
				out[field] = map[string]any{"connect": map[string]any{"id": id}}
			} else {
				out[field] = map[string]any{"create": v}
			}
		case []any:
			connects := collectConnects(v)
			if len(connects) > 0 {
				out[field] = map[string]any{"connect": connects}
			}
		case []map[string]any:
			elems := make([]any, len(v))
			for i, e := range v {
				elems[i] = e
			}
			connects := collectConnects(elems)
			if len(connects) > 0 {
				out[field] = map[string]any{"connect": connects}
			}
		default:
			out[field] = value
		}
	}
	return out
}

// isDirective 值已经是 connect/create 指令时不再二次转换
func isDirective(m map[string]any) bool {
	if len(m) == 0 {
		return false
	}
	for k := range m {
		if k != "connect" && k != "create" && k != "connectOrCreate" && k != "set" {
			return false
		}
	}
	return true
}

func collectConnects(items []any) []any {
	var out []any
	for _, e := range items {
		obj, ok := e.(map[string]any)
		if !ok {
			continue
		}
		if id, ok := obj["id"]; ok && id != nil {
			out = append(out, map[string]any{"id": id})
		}
	}
	return out
}

// NormalizeRelationsToFK 将 {connect:{id}} 指令压平为外键标量。
//
// 字段重命名为 transform(field)（默认 field+"Id"），原键删除；
// 目标外键已存在时显式外键优先，关联对象被丢弃而不是覆盖。
func NormalizeRelationsToFK(data client.Record, transform KeyTransform) client.Record {
	if transform == nil {
		transform = DefaultKeyTransform
	}
	out := make(client.Record, len(data))
	for field, value := range data {
		out[field] = value
	}
	for field, value := range data {
		directive, ok := value.(map[string]any)
		if !ok {
			continue
		}
		connect, ok := directive["connect"].(map[string]any)
		if !ok {
			continue
		}
		id, ok := connect["id"]
		if !ok {
			continue
		}
		fkKey := transform(field)
		if existing, has := out[fkKey]; has && existing != nil {
			// 显式外键优先
			delete(out, field)
			continue
		}
		out[fkKey] = id
		delete(out, field)
	}
	return out
}

// Cardinality 多对多关联的类型
type Cardinality string

const (
	// CardinalityExplicit 显式多对多：中间类型本身是建模实体，
	// 连接行直接写入物理连接表
	CardinalityExplicit Cardinality = "explicit"
	// CardinalityImplicit 隐式多对多：由底层客户端透明管理
	CardinalityImplicit Cardinality = "implicit"
)

// Extraction 多对多抽离结果
type Extraction struct {
	// Cleaned 移除多对多字段后的写入数据，序与输入一致
	Cleaned []client.Record
	// ByIndex 按原始条目下标保存的多对多负载，键为字段名、
	// 值为目标 id 列表
	ByIndex map[int]map[string][]any
	// Cardinality 每个多对多字段的显式/隐式分类
	Cardinality map[string]Cardinality
}

// HasRelations 是否抽出了任何多对多负载
func (e *Extraction) HasRelations() bool {
	return len(e.ByIndex) > 0
}

// ExtractManyToMany 从写入数据中抽离多对多字段。
//
// 识别元数据中 kind==object 且 isList 的字段；负载接受裸数组或
// {connect:[...]} 包装，元素取 id（对象取其 id 属性，标量直接用）。
// 显式/隐式由 provider 的连接表查询决定。
func ExtractManyToMany(items []client.Record, model *meta.ModelMeta, provider meta.IProvider) (*Extraction, error) {
	result := &Extraction{
		Cleaned:     make([]client.Record, len(items)),
		ByIndex:     make(map[int]map[string][]any),
		Cardinality: make(map[string]Cardinality),
	}

	var m2mFields []string
	for _, f := range model.Fields {
		if f.Kind == meta.KindObject && f.IsList {
			m2mFields = append(m2mFields, f.Name)
		}
	}

	for i, item := range items {
		cleaned := make(client.Record, len(item))
		for k, v := range item {
			cleaned[k] = v
		}
		for _, field := range m2mFields {
			value, ok := item[field]
			if !ok {
				continue
			}
			ids := relationIDs(value)
			delete(cleaned, field)
			if len(ids) == 0 {
				continue
			}
			if result.ByIndex[i] == nil {
				result.ByIndex[i] = make(map[string][]any)
			}
			result.ByIndex[i][field] = ids

			if _, classified := result.Cardinality[field]; !classified {
				jt, err := provider.JoinTable(model.Name, field)
				if err != nil {
					return nil, err
				}
				if jt != nil {
					result.Cardinality[field] = CardinalityExplicit
				} else {
					result.Cardinality[field] = CardinalityImplicit
				}
			}
		}
		result.Cleaned[i] = cleaned
	}
	return result, nil
}

// relationIDs 从裸数组或 {connect:[...]} 包装中取出目标 id 列表
func relationIDs(value any) []any {
	if wrapper, ok := value.(map[string]any); ok {
		if inner, ok := wrapper["connect"]; ok {
			value = inner
		}
	}
	var elems []any
	switch v := value.(type) {
	case []any:
		elems = v
	case []map[string]any:
		for _, e := range v {
			elems = append(elems, e)
		}
	default:
		return nil
	}
	var ids []any
	for _, e := range elems {
		if obj, ok := e.(map[string]any); ok {
			if id, ok := obj["id"]; ok && id != nil {
				ids = append(ids, id)
			}
			continue
		}
		if e != nil {
			ids = append(ids, e)
		}
	}
	return ids
}
