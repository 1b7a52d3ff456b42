// Package client 定义仓储层对底层数据访问客户端的依赖契约。
//
// 仓储层不直接持有连接或事务，所有数据操作通过 IModelClient
// 窄接口下发；批量 SQL 构建器额外需要 IRawExecutor，文档型
// 提供者的批量更新回退路径需要 ITransactor。
package client

import (
	"context"
	"time"
)

// Record 一行数据
type Record = map[string]any

// Filter 查询条件树
type Filter = map[string]any

// OrderBy 排序项
type OrderBy struct {
	Field string
	Desc  bool
}

// FindManyArgs 列表查询参数
type FindManyArgs struct {
	Where   Filter
	Include []string
	Take    *int
	Skip    *int
	OrderBy []OrderBy
}

// IModelClient 单个模型的数据访问客户端。
//
// 所有实现必须满足：
//   - FindFirst 未命中时返回 (nil, nil) 而不是错误
//   - CreateMany 在 skipDuplicates 为 true 且提供者支持时静默
//     跳过唯一冲突行，返回实际插入行数
//   - 唯一约束冲突以包含提供者特征消息的错误返回，供上层分类
type IModelClient interface {
	FindMany(ctx context.Context, args FindManyArgs) ([]Record, error)
	FindFirst(ctx context.Context, where Filter) (Record, error)
	Count(ctx context.Context, where Filter) (int64, error)

	Create(ctx context.Context, data Record) (Record, error)
	CreateMany(ctx context.Context, data []Record, skipDuplicates bool) (int64, error)

	Update(ctx context.Context, id any, data Record) (Record, error)
	UpdateMany(ctx context.Context, where Filter, data Record) (int64, error)

	Delete(ctx context.Context, id any) (Record, error)
	DeleteMany(ctx context.Context, where Filter) (int64, error)
}

// IRawExecutor 原生 SQL 执行入口。
// 仅批量 UPDATE 构建器与显式多对多连接表写入使用。
type IRawExecutor interface {
	// ExecRaw 执行单条语句，返回受影响行数
	ExecRaw(ctx context.Context, query string) (int64, error)
}

// TxOptions 事务参数，透传给底层客户端
type TxOptions struct {
	// MaxWait 获取事务的最长等待时间
	MaxWait time.Duration
	// Timeout 事务执行超时
	Timeout time.Duration
}

// TxOperation 事务内的单个操作
type TxOperation func(ctx context.Context) error

// ITransactor 批量事务入口。
// 仅文档型提供者的批量更新回退路径使用。
type ITransactor interface {
	// Transact 在单个事务中顺序执行 ops，任一失败则整体回滚
	Transact(ctx context.Context, ops []TxOperation, opts *TxOptions) error
}
