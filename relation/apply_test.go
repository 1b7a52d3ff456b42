package relation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ormkit/client"
	"ormkit/client/memory"
	"ormkit/dialect"
)

func TestApplyManyToMany(t *testing.T) {
	ctx := context.Background()

	t.Run("隐式关联聚合为一次 connect 更新", func(t *testing.T) {
		store := memory.NewStore()
		posts := store.Model("Post")
		row, err := posts.Create(ctx, client.Record{"title": "p"})
		require.NoError(t, err)

		ext := &Extraction{
			ByIndex: map[int]map[string][]any{
				0: {"tags": {"t1", "t2"}},
			},
			Cardinality: map[string]Cardinality{"tags": CardinalityImplicit},
		}
		result := ApplyManyToMany(ctx, ApplyArgs{
			Extraction: ext,
			EntityIDs:  map[int]any{0: row["id"]},
			ModelName:  "Post",
			Client:     posts,
			Provider:   dialect.ProviderPostgres,
		})
		assert.Equal(t, 1, result.Success)
		assert.Equal(t, 0, result.Failed)

		rows := store.Rows("Post")
		require.Len(t, rows, 1)
		assert.Equal(t, map[string]any{"connect": []any{
			map[string]any{"id": "t1"},
			map[string]any{"id": "t2"},
		}}, rows[0]["tags"])
	})

	t.Run("显式关联直接写连接表并带条件去重", func(t *testing.T) {
		store := memory.NewStore()
		posts := store.Model("Post")

		ext := &Extraction{
			ByIndex: map[int]map[string][]any{
				0: {"categories": {"c1", "c2"}},
			},
			Cardinality: map[string]Cardinality{"categories": CardinalityExplicit},
		}
		result := ApplyManyToMany(ctx, ApplyArgs{
			Extraction: ext,
			EntityIDs:  map[int]any{0: "p1"},
			ModelName:  "Post",
			Client:     posts,
			Raw:        store,
			JoinTables: map[string]*JoinTableRef{
				"categories": {TableName: "post_categories", SourceField: "post_id", TargetField: "category_id"},
			},
			Provider: dialect.ProviderPostgres,
		})
		assert.Equal(t, 2, result.Success)
		assert.Equal(t, 0, result.Failed)

		stmts := store.RawStatements()
		require.Len(t, stmts, 2)
		assert.Contains(t, stmts[0], `INSERT INTO "post_categories" ("post_id", "category_id") VALUES ('p1', 'c1')`)
		assert.Contains(t, stmts[0], "ON CONFLICT DO NOTHING")
	})

	t.Run("MySQL 用 INSERT IGNORE", func(t *testing.T) {
		store := memory.NewStore()
		ext := &Extraction{
			ByIndex:     map[int]map[string][]any{0: {"categories": {"c1"}}},
			Cardinality: map[string]Cardinality{"categories": CardinalityExplicit},
		}
		ApplyManyToMany(ctx, ApplyArgs{
			Extraction: ext,
			EntityIDs:  map[int]any{0: "p1"},
			ModelName:  "Post",
			Client:     store.Model("Post"),
			Raw:        store,
			JoinTables: map[string]*JoinTableRef{
				"categories": {TableName: "post_categories", SourceField: "post_id", TargetField: "category_id"},
			},
			Provider: dialect.ProviderMySQL,
		})
		stmts := store.RawStatements()
		require.Len(t, stmts, 1)
		assert.Contains(t, stmts[0], "INSERT IGNORE INTO")
		assert.NotContains(t, stmts[0], "ON CONFLICT")
	})

	t.Run("缺少实体 id 的下标跳过", func(t *testing.T) {
		store := memory.NewStore()
		ext := &Extraction{
			ByIndex:     map[int]map[string][]any{0: {"tags": {"t1"}}},
			Cardinality: map[string]Cardinality{"tags": CardinalityImplicit},
		}
		result := ApplyManyToMany(ctx, ApplyArgs{
			Extraction: ext,
			EntityIDs:  map[int]any{},
			ModelName:  "Post",
			Client:     store.Model("Post"),
			Provider:   dialect.ProviderPostgres,
		})
		assert.Equal(t, 0, result.Success)
		assert.Equal(t, 0, result.Failed)
	})

	t.Run("缺少连接表描述计为失败且不抛出", func(t *testing.T) {
		store := memory.NewStore()
		ext := &Extraction{
			ByIndex:     map[int]map[string][]any{0: {"categories": {"c1", "c2"}}},
			Cardinality: map[string]Cardinality{"categories": CardinalityExplicit},
		}
		result := ApplyManyToMany(ctx, ApplyArgs{
			Extraction: ext,
			EntityIDs:  map[int]any{0: "p1"},
			ModelName:  "Post",
			Client:     store.Model("Post"),
			Raw:        store,
			Provider:   dialect.ProviderPostgres,
		})
		assert.Equal(t, 0, result.Success)
		assert.Equal(t, 2, result.Failed)
	})
}
