// Package repo 实现实体仓储的便捷编排层。
//
// 在底层数据访问客户端之上封装声明式过滤、搜索条件翻译、
// OR 分批、列表分块、变更检测 upsert、关联回填与批量 CASE WHEN
// 更新。仓储自身不持有连接，所有落库动作经 client 契约下发。
package repo

import (
	"fmt"
	"strings"

	"ormkit/client"
	"ormkit/dialect"
	"ormkit/errors"
	"ormkit/filter"
	"ormkit/logging"
	"ormkit/meta"
	"ormkit/relation"
)

// Config 仓储配置
type Config struct {
	// Model 元数据中的模型名，必填
	Model string
	// Table 物理表名，批量 SQL 快路径使用；空时按模型名小写加 s 推导
	Table string
	// Client 模型客户端，必填
	Client client.IModelClient
	// Raw 原生 SQL 执行器；nil 时批量更新退化为逐行路径
	Raw client.IRawExecutor
	// Tx 事务入口；文档型提供者的批量更新回退路径使用
	Tx client.ITransactor
	// Meta 元数据提供者，必填
	Meta meta.IProvider
	// Provider 数据库提供者；零值取进程级已检测提供者
	Provider dialect.Provider
}

// Repo 单个模型的仓储
type Repo struct {
	model    string
	table    string
	client   client.IModelClient
	raw      client.IRawExecutor
	tx       client.ITransactor
	meta     meta.IProvider
	provider dialect.Provider
	log      logging.Logger
}

// New 创建仓储实例
func New(cfg Config) (*Repo, error) {
	if cfg.Model == "" {
		return nil, errors.New(errors.ErrCodeModelNotConfigured, "模型名为空")
	}
	if cfg.Client == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "缺少模型客户端")
	}
	if cfg.Meta == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "缺少元数据提供者")
	}
	provider := cfg.Provider
	if provider == "" {
		provider = dialect.Active()
	}
	table := cfg.Table
	if table == "" {
		table = strings.ToLower(cfg.Model) + "s"
	}
	return &Repo{
		model:    cfg.Model,
		table:    table,
		client:   cfg.Client,
		raw:      cfg.Raw,
		tx:       cfg.Tx,
		meta:     cfg.Meta,
		provider: provider,
		log:      logging.ComponentLogger("repo." + cfg.Model),
	}, nil
}

// Pagination 分页参数。Take/Skip 显式给出时优先于 Page/PageSize 推导。
type Pagination struct {
	Page     int
	PageSize int
	Take     *int
	Skip     *int
}

// take 解析生效的 take 值
func (p *Pagination) take() (int, bool) {
	if p == nil {
		return 0, false
	}
	if p.Take != nil {
		return *p.Take, true
	}
	if p.PageSize > 0 {
		return p.PageSize, true
	}
	return 0, false
}

// skip 解析生效的 skip 值
func (p *Pagination) skip() (int, bool) {
	if p == nil {
		return 0, false
	}
	if p.Skip != nil {
		return *p.Skip, true
	}
	if p.Page > 0 && p.PageSize > 0 {
		return (p.Page - 1) * p.PageSize, true
	}
	return 0, false
}

// requested take 与 skip 同时可解析时视为请求了分页
func (p *Pagination) requested() bool {
	_, hasTake := p.take()
	_, hasSkip := p.skip()
	return hasTake && hasSkip
}

// Options 各操作共用的调用选项
type Options struct {
	// Search 搜索描述，翻译后并入过滤树
	Search *filter.Search
	// Pagination 分页；提供且可解析时查询结果带分页包装
	Pagination *Pagination
	// RelationsToInclude 关联包含列表，"*" 表示全部
	RelationsToInclude []string
	// OrderBy 排序
	OrderBy []client.OrderBy
	// OnlyOne 只取第一条
	OnlyOne bool
	// FilterGrouping 过滤数组的组合方式，零值按 and
	FilterGrouping filter.Grouping
	// Parallel 分批操作是否并行
	Parallel bool
	// Concurrency 并行并发上限
	Concurrency int
	// RateLimit 每秒批次上限
	RateLimit int
	// SkipDuplicates 创建时跳过唯一冲突行（仅支持该能力的提供者）
	SkipDuplicates bool
	// KeyTransform 外键命名转换，nil 用 field+"Id"
	KeyTransform relation.KeyTransform
	// HandleRelations 是否做关联预处理与多对多回填，nil 按 true
	HandleRelations *bool
}

func (o *Options) handleRelations() bool {
	return o.HandleRelations == nil || *o.HandleRelations
}

// PageInfo 分页包装的元信息
type PageInfo struct {
	Total    int64
	Page     int
	PageSize int
}

// FindResult 查询结果。请求分页时 Page 非 nil。
type FindResult struct {
	Data []client.Record
	Page *PageInfo
}

// First 第一条记录，空结果返回 nil
func (r *FindResult) First() client.Record {
	if r == nil || len(r.Data) == 0 {
		return nil
	}
	return r.Data[0]
}

// buildTree 合并过滤数组并应用搜索条件
func buildTree(filters []filter.Tree, opts *Options) filter.Tree {
	grouping := opts.FilterGrouping
	if grouping == "" {
		grouping = filter.GroupingAnd
	}
	base := filter.Merge(filters, grouping)
	return filter.Build(base, opts.Search)
}

// modelMeta 取模型元数据，未配置时为配置错误
func (r *Repo) modelMeta() (*meta.ModelMeta, error) {
	m, err := r.meta.Model(r.model)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// uniqueGroups 取唯一约束组；required 时空结果为配置错误
func (r *Repo) uniqueGroups(required bool) ([][]string, error) {
	groups, err := r.meta.UniqueConstraints(r.model)
	if err != nil {
		return nil, err
	}
	if required && len(groups) == 0 {
		return nil, errors.NewError(errors.ErrCodeNoUniqueConstraint,
			fmt.Sprintf("模型 %s 没有可用的唯一约束", r.model))
	}
	return groups, nil
}

// keyOfGroup 约束组字段全部齐全且有效时生成同一性键
func keyOfGroup(item client.Record, group []string) (string, bool) {
	var sb strings.Builder
	for _, field := range group {
		v, ok := item[field]
		if !ok || !filter.IsValid(v) {
			return "", false
		}
		sb.WriteString(field)
		sb.WriteString("=")
		fmt.Fprintf(&sb, "%v", v)
		sb.WriteString("|")
	}
	return sb.String(), true
}

// uniqueKeyOf 按首个字段齐全的唯一约束组生成条目的同一性键与
// 对应的查询条件
func uniqueKeyOf(item client.Record, groups [][]string) (string, filter.Tree, bool) {
	for _, group := range groups {
		key, ok := keyOfGroup(item, group)
		if !ok {
			continue
		}
		condition := make(filter.Tree, len(group))
		for _, field := range group {
			condition[field] = item[field]
		}
		return key, condition, true
	}
	return "", nil, false
}

// rowKeysOf 为回查行生成所有字段齐全约束组的键。
// 回查行带主键而输入条目往往不带：条目可能按 email 取键，行若只按
// 首个齐全的组（id）取键就永远对不上。行侧按全部约束组建索引，
// 条目侧无论选中哪个组都能命中。
func rowKeysOf(row client.Record, groups [][]string) []string {
	var keys []string
	for _, group := range groups {
		if key, ok := keyOfGroup(row, group); ok {
			keys = append(keys, key)
		}
	}
	return keys
}
