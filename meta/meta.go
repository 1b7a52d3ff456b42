// Package meta 定义模型元数据的类型与提供者接口。
//
// 仓储层不自行内省模型结构，而是通过 IProvider 向外部元数据源
// 查询字段描述、唯一约束与多对多连接表信息。本包同时提供带
// LRU 缓存的 Registry 与面向测试的 StaticProvider。
package meta

// FieldKind 字段种类
type FieldKind string

const (
	// KindScalar 标量字段（含标量数组与 JSON）
	KindScalar FieldKind = "scalar"
	// KindObject 关联字段（指向另一个模型）
	KindObject FieldKind = "object"
	// KindEnum 枚举字段
	KindEnum FieldKind = "enum"
)

// FieldMeta 单个字段的元数据
type FieldMeta struct {
	// Name 字段名
	Name string
	// Kind 字段种类
	Kind FieldKind
	// Type 字段类型名；关联字段时为目标模型名
	Type string
	// IsList 是否为列表（标量数组或一对多/多对多关联）
	IsList bool
	// IsUnique 是否带单字段唯一约束
	IsUnique bool
	// RelationName 关联名称，非关联字段为空
	RelationName string
}

// IsJSON 字段是否为 JSON 类型。
// JSON 字段在关系处理与批量 SQL 构建中按原样透传/特殊转义。
func (f FieldMeta) IsJSON() bool {
	return f.Type == "Json"
}

// IsScalarList 是否为标量数组字段（如 string[]），与多对多关联区分
func (f FieldMeta) IsScalarList() bool {
	return f.Kind != KindObject && f.IsList
}

// IsRelation 是否为关联字段
func (f FieldMeta) IsRelation() bool {
	return f.Kind == KindObject
}

// ModelMeta 模型元数据
type ModelMeta struct {
	// Name 模型名
	Name string
	// Fields 字段列表
	Fields []FieldMeta
	// UniqueIndexes 复合唯一索引的字段组
	UniqueIndexes [][]string
	// PrimaryKey 主键字段名，默认 "id"
	PrimaryKey string
}

// Field 按名称查找字段元数据
func (m *ModelMeta) Field(name string) (FieldMeta, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldMeta{}, false
}

// PrimaryKeyField 主键字段名，未配置时回退为 "id"
func (m *ModelMeta) PrimaryKeyField() string {
	if m.PrimaryKey != "" {
		return m.PrimaryKey
	}
	return "id"
}

// JoinTableDescriptor 显式多对多关联的连接表描述。
// 显式关联的中间类型本身是被建模的实体，连接行需要直接写入
// 物理连接表；隐式关联由底层客户端透明管理。
type JoinTableDescriptor struct {
	// JoinTableName 连接表物理名
	JoinTableName string
	// SourceField 指向源实体的外键列
	SourceField string
	// TargetField 指向目标实体的外键列
	TargetField string
}

// IProvider 模型元数据提供者。
//
// JoinTable 对隐式多对多关联返回 (nil, nil)；仅在元数据源本身
// 查询失败时返回错误。
type IProvider interface {
	// Model 返回模型元数据；模型未定义时返回 ErrCodeModelNotConfigured
	Model(name string) (*ModelMeta, error)
	// UniqueConstraints 返回模型的唯一约束字段组（单字段唯一 + 复合索引）
	UniqueConstraints(name string) ([][]string, error)
	// JoinTable 解析多对多字段的连接表；隐式关联返回 nil
	JoinTable(modelName, fieldName string) (*JoinTableDescriptor, error)
}
