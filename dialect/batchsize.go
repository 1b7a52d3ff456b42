package dialect

import (
	"context"

	"ormkit/logging"
)

// Operation 批量操作类别，不同类别有不同的提供方批次上限
type Operation string

const (
	OpCreateMany  Operation = "createMany"
	OpUpdateMany  Operation = "updateMany"
	OpTransaction Operation = "transaction"
	OpDelete      Operation = "delete"
)

// 提供方检测失败时的保守默认批次大小
const (
	DefaultBatchSize            = 500
	DefaultTransactionBatchSize = 100
)

// 各提供方、各操作类别的批次上限。
// 数值基于占位符上限与事务体积的经验权衡。
var batchSizes = map[Provider]map[Operation]int{
	ProviderPostgres: {
		OpCreateMany:  2000,
		OpUpdateMany:  1000,
		OpTransaction: 500,
		OpDelete:      5000,
	},
	ProviderMySQL: {
		OpCreateMany:  1000,
		OpUpdateMany:  500,
		OpTransaction: 200,
		OpDelete:      2000,
	},
	ProviderSQLite: {
		OpCreateMany:  500,
		OpUpdateMany:  200,
		OpTransaction: 100,
		OpDelete:      1000,
	},
	ProviderSQLServer: {
		OpCreateMany:  500,
		OpUpdateMany:  200,
		OpTransaction: 100,
		OpDelete:      1000,
	},
	ProviderMongoDB: {
		OpCreateMany:  1000,
		OpUpdateMany:  500,
		OpTransaction: 100,
		OpDelete:      2000,
	},
}

// OptimalBatchSize 返回提供方在指定操作类别下的批次上限。
// 提供方未识别时回退到保守默认值并记录警告，不让调用失败。
func OptimalBatchSize(op Operation, p Provider) int {
	if sizes, ok := batchSizes[p]; ok {
		if size, ok := sizes[op]; ok {
			return size
		}
	}

	logging.ComponentLogger("dialect").Warn(context.Background(),
		"提供方未识别，回退到默认批次大小",
		logging.String("provider", string(p)),
		logging.String("operation", string(op)))

	if op == OpTransaction {
		return DefaultTransactionBatchSize
	}
	return DefaultBatchSize
}
