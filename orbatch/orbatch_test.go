package orbatch

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ormkit/client"
	"ormkit/client/memory"
	"ormkit/dialect"
	"ormkit/filter"
)

func TestNeedsOrBatching(t *testing.T) {
	// PostgreSQL 占位符上限 32767
	assert.False(t, NeedsOrBatching(dialect.ProviderPostgres, 100, 2))
	assert.True(t, NeedsOrBatching(dialect.ProviderPostgres, 20000, 2))
	// SQL Server 上限 2100
	assert.True(t, NeedsOrBatching(dialect.ProviderSQLServer, 1100, 2))
}

func TestCreateOrBatches(t *testing.T) {
	conditions := make([]filter.Tree, 5000)
	for i := range conditions {
		conditions[i] = filter.Tree{"id": i}
	}
	// 2100 / 2 = 1050 条每批
	batches := CreateOrBatches(conditions, dialect.ProviderSQLServer, 2)
	require.Len(t, batches, 5)
	assert.Len(t, batches[0], 1050)
	assert.Len(t, batches[4], 5000-4*1050)
}

func TestDeduplicateResults(t *testing.T) {
	rows := []client.Record{
		{"id": 1, "v": "first"},
		{"id": 2},
		{"id": 1, "v": "dup"},
		{"v": "no-id"},
		{"v": "no-id-2"},
	}
	out := DeduplicateResults(rows)
	require.Len(t, out, 4)
	assert.Equal(t, "first", out[0]["v"])
	assert.Equal(t, "no-id", out[2]["v"])
}

func TestExecuteWithOrBatching(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	items := store.Model("Item")

	var seed []client.Record
	for i := 0; i < 50; i++ {
		seed = append(seed, client.Record{
			"id":  fmt.Sprintf("id-%02d", i),
			"key": fmt.Sprintf("key-%02d", i),
		})
	}
	_, err := items.CreateMany(ctx, seed, false)
	require.NoError(t, err)

	conditions := make([]filter.Tree, 30)
	for i := range conditions {
		conditions[i] = filter.Tree{"key": fmt.Sprintf("key-%02d", i)}
	}

	t.Run("无需分批时单条查询", func(t *testing.T) {
		rows, err := ExecuteWithOrBatching(ctx, ExecuteArgs{
			Client:     items,
			Conditions: conditions,
			Provider:   dialect.ProviderPostgres,
		})
		require.NoError(t, err)
		assert.Len(t, rows, 30)
	})

	t.Run("超限时分批执行且结果去重", func(t *testing.T) {
		// 未知提供者的保守上限 2000；每条件 100 个占位符 → 每批 20 条
		rows, err := ExecuteWithOrBatching(ctx, ExecuteArgs{
			Client:             items,
			Conditions:         conditions,
			FieldsPerCondition: 100,
			Provider:           dialect.ProviderUnknown,
		})
		require.NoError(t, err)
		assert.Len(t, rows, 30)
	})

	t.Run("并行分批结果一致", func(t *testing.T) {
		rows, err := ExecuteWithOrBatching(ctx, ExecuteArgs{
			Client:             items,
			Conditions:         conditions,
			FieldsPerCondition: 100,
			Provider:           dialect.ProviderUnknown,
			Parallel:           true,
			Concurrency:        3,
		})
		require.NoError(t, err)
		assert.Len(t, rows, 30)
	})

	t.Run("空条件返回空", func(t *testing.T) {
		rows, err := ExecuteWithOrBatching(ctx, ExecuteArgs{Client: items, Provider: dialect.ProviderPostgres})
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}

func TestChunkListSearches(t *testing.T) {
	t.Run("未超阈值原样返回", func(t *testing.T) {
		s := &filter.Search{List: []filter.ListSearch{
			{Keys: []string{"id"}, Values: []any{1, 2, 3}, Mode: filter.ListIn},
		}}
		out := ChunkListSearches(s)
		require.Len(t, out, 1)
		assert.Same(t, s, out[0])
		assert.False(t, NeedsListChunking(s))
	})

	t.Run("超阈值按块深拷贝", func(t *testing.T) {
		values := make([]any, 25000)
		for i := range values {
			values[i] = i
		}
		s := &filter.Search{
			String: []filter.StringSearch{{Keys: []string{"name"}, Value: "x"}},
			List: []filter.ListSearch{
				{Keys: []string{"id"}, Values: values, Mode: filter.ListIn},
			},
		}
		assert.True(t, NeedsListChunking(s))

		out := ChunkListSearches(s)
		require.Len(t, out, 3)
		assert.Len(t, out[0].List[0].Values, 10000)
		assert.Len(t, out[2].List[0].Values, 5000)

		// 深拷贝：修改分块不影响原描述符
		out[0].List[0].Values[0] = "changed"
		assert.Equal(t, 0, s.List[0].Values[0])
		// 其余搜索描述随每块保留
		assert.Equal(t, "x", out[1].String[0].Value)
	})
}
