package meta

import (
	"time"

	"ormkit/cache"
	"ormkit/errors"
)

// Registry 带缓存的元数据提供者。
//
// 元数据在进程生命周期内几乎不变，查询结果用 LRU+TTL 缓存
// 包一层，避免热路径上反复访问底层元数据源。
type Registry struct {
	source     IProvider
	models     *cache.Cache[string, *ModelMeta]
	uniques    *cache.Cache[string, [][]string]
	joinTables *cache.Cache[string, *JoinTableDescriptor]
}

// RegistryConfig Registry 缓存配置
type RegistryConfig struct {
	// MaxModels 缓存的模型数上限，0 使用默认值 256
	MaxModels int
	// TTL 缓存过期时间，0 使用默认值 10 分钟
	TTL time.Duration
}

// NewRegistry 创建带缓存的元数据注册表
func NewRegistry(source IProvider, cfg RegistryConfig) *Registry {
	if cfg.MaxModels <= 0 {
		cfg.MaxModels = 256
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	return &Registry{
		source: source,
		models: cache.New[string, *ModelMeta](cache.Config{
			Name:    "meta.models",
			MaxSize: cfg.MaxModels,
			TTL:     cfg.TTL,
		}),
		uniques: cache.New[string, [][]string](cache.Config{
			Name:    "meta.uniques",
			MaxSize: cfg.MaxModels,
			TTL:     cfg.TTL,
		}),
		joinTables: cache.New[string, *JoinTableDescriptor](cache.Config{
			Name:    "meta.jointables",
			MaxSize: cfg.MaxModels * 4,
			TTL:     cfg.TTL,
		}),
	}
}

// Model 实现 IProvider
func (r *Registry) Model(name string) (*ModelMeta, error) {
	if m, ok := r.models.Get(name); ok {
		return m, nil
	}
	m, err := r.source.Model(name)
	if err != nil {
		return nil, err
	}
	r.models.Set(name, m)
	return m, nil
}

// UniqueConstraints 实现 IProvider
func (r *Registry) UniqueConstraints(name string) ([][]string, error) {
	if u, ok := r.uniques.Get(name); ok {
		return u, nil
	}
	u, err := r.source.UniqueConstraints(name)
	if err != nil {
		return nil, err
	}
	r.uniques.Set(name, u)
	return u, nil
}

// JoinTable 实现 IProvider。
// 隐式关联的 nil 结果同样缓存，用空描述符哨兵区分未命中。
func (r *Registry) JoinTable(modelName, fieldName string) (*JoinTableDescriptor, error) {
	key := modelName + "." + fieldName
	if jt, ok := r.joinTables.Get(key); ok {
		if jt.JoinTableName == "" {
			return nil, nil
		}
		return jt, nil
	}
	jt, err := r.source.JoinTable(modelName, fieldName)
	if err != nil {
		return nil, err
	}
	if jt == nil {
		r.joinTables.Set(key, &JoinTableDescriptor{})
		return nil, nil
	}
	r.joinTables.Set(key, jt)
	return jt, nil
}

// Invalidate 清空指定模型的缓存条目
func (r *Registry) Invalidate(name string) {
	r.models.Delete(name)
	r.uniques.Delete(name)
}

// StaticProvider 基于静态注册表的元数据提供者，主要用于测试
// 与代码生成场景。
type StaticProvider struct {
	Models map[string]*ModelMeta
	// JoinTables 键为 "模型名.字段名"
	JoinTables map[string]*JoinTableDescriptor
}

// NewStaticProvider 创建静态元数据提供者
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{
		Models:     make(map[string]*ModelMeta),
		JoinTables: make(map[string]*JoinTableDescriptor),
	}
}

// Register 注册模型元数据
func (p *StaticProvider) Register(m *ModelMeta) *StaticProvider {
	p.Models[m.Name] = m
	return p
}

// RegisterJoinTable 注册显式多对多连接表
func (p *StaticProvider) RegisterJoinTable(modelName, fieldName string, jt *JoinTableDescriptor) *StaticProvider {
	p.JoinTables[modelName+"."+fieldName] = jt
	return p
}

// Model 实现 IProvider
func (p *StaticProvider) Model(name string) (*ModelMeta, error) {
	m, ok := p.Models[name]
	if !ok {
		return nil, errors.NewError(errors.ErrCodeModelNotConfigured,
			"模型未配置: "+name)
	}
	return m, nil
}

// UniqueConstraints 实现 IProvider。
// 结果为单字段唯一约束加上复合唯一索引。
func (p *StaticProvider) UniqueConstraints(name string) ([][]string, error) {
	m, err := p.Model(name)
	if err != nil {
		return nil, err
	}
	var groups [][]string
	for _, f := range m.Fields {
		if f.IsUnique {
			groups = append(groups, []string{f.Name})
		}
	}
	groups = append(groups, m.UniqueIndexes...)
	return groups, nil
}

// JoinTable 实现 IProvider
func (p *StaticProvider) JoinTable(modelName, fieldName string) (*JoinTableDescriptor, error) {
	if _, err := p.Model(modelName); err != nil {
		return nil, err
	}
	return p.JoinTables[modelName+"."+fieldName], nil
}
