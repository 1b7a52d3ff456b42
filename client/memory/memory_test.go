package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ormkit/client"
	"ormkit/errors"
)

func TestModelClientCRUD(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	users := store.Model("User")

	t.Run("创建补全 id 与时间戳", func(t *testing.T) {
		row, err := users.Create(ctx, client.Record{"name": "Alice"})
		require.NoError(t, err)
		assert.NotEmpty(t, row["id"])
		assert.IsType(t, time.Time{}, row["createdAt"])
		assert.IsType(t, time.Time{}, row["updatedAt"])
	})

	t.Run("更新刷新 updatedAt 且保留 createdAt", func(t *testing.T) {
		row, err := users.Create(ctx, client.Record{"name": "Bob"})
		require.NoError(t, err)
		created := row["createdAt"]

		store.SetClock(func() time.Time { return time.Now().Add(time.Hour) })
		defer store.SetClock(time.Now)

		updated, err := users.Update(ctx, row["id"], client.Record{"name": "Bobby"})
		require.NoError(t, err)
		assert.Equal(t, "Bobby", updated["name"])
		assert.Equal(t, created, updated["createdAt"])
		assert.NotEqual(t, row["updatedAt"], updated["updatedAt"])
	})

	t.Run("按主键删除", func(t *testing.T) {
		row, err := users.Create(ctx, client.Record{"name": "Gone"})
		require.NoError(t, err)
		_, err = users.Delete(ctx, row["id"])
		require.NoError(t, err)
		_, err = users.Delete(ctx, row["id"])
		assert.True(t, errors.IsNotFound(err))
	})
}

func TestUniqueConstraints(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	store.DefineUnique("User", "email")
	users := store.Model("User")

	_, err := users.Create(ctx, client.Record{"email": "a@x.com"})
	require.NoError(t, err)

	t.Run("冲突消息可被唯一冲突分类器识别", func(t *testing.T) {
		_, err := users.Create(ctx, client.Record{"email": "a@x.com"})
		require.Error(t, err)
		assert.True(t, errors.IsUniqueViolationMessage(err))
		assert.Contains(t, err.Error(), "user_email_key")
	})

	t.Run("skipDuplicates 静默跳过冲突行", func(t *testing.T) {
		n, err := users.CreateMany(ctx, []client.Record{
			{"email": "a@x.com"},
			{"email": "b@x.com"},
		}, true)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("不跳过时冲突中止", func(t *testing.T) {
		_, err := users.CreateMany(ctx, []client.Record{
			{"email": "a@x.com"},
		}, false)
		require.Error(t, err)
	})
}

func TestFilterEvaluation(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	items := store.Model("Item")

	seed := []client.Record{
		{"name": "alpha", "score": 10, "tags": []any{"red", "blue"}, "status": "active"},
		{"name": "beta", "score": 20, "tags": []any{"blue"}, "status": "active"},
		{"name": "gamma", "score": 30, "tags": []any{"green"}, "status": "inactive"},
	}
	_, err := items.CreateMany(ctx, seed, false)
	require.NoError(t, err)

	find := func(where client.Filter) []client.Record {
		rows, err := items.FindMany(ctx, client.FindManyArgs{Where: where})
		require.NoError(t, err)
		return rows
	}

	t.Run("等值", func(t *testing.T) {
		assert.Len(t, find(client.Filter{"status": "active"}), 2)
	})

	t.Run("字符串操作符", func(t *testing.T) {
		assert.Len(t, find(client.Filter{"name": map[string]any{"contains": "amm"}}), 1)
		assert.Len(t, find(client.Filter{"name": map[string]any{"startsWith": "al"}}), 1)
		assert.Len(t, find(client.Filter{"name": map[string]any{"endsWith": "ta"}}), 1)
	})

	t.Run("范围", func(t *testing.T) {
		rows := find(client.Filter{"score": map[string]any{"gte": 15, "lte": 25}})
		require.Len(t, rows, 1)
		assert.Equal(t, "beta", rows[0]["name"])
	})

	t.Run("列表操作符", func(t *testing.T) {
		assert.Len(t, find(client.Filter{"name": map[string]any{"in": []any{"alpha", "gamma"}}}), 2)
		assert.Len(t, find(client.Filter{"name": map[string]any{"notIn": []any{"alpha"}}}), 2)
		assert.Len(t, find(client.Filter{"tags": map[string]any{"hasSome": []any{"blue"}}}), 2)
		assert.Len(t, find(client.Filter{"tags": map[string]any{"hasEvery": []any{"red", "blue"}}}), 1)
	})

	t.Run("OR 分组", func(t *testing.T) {
		rows := find(client.Filter{"OR": []any{
			map[string]any{"name": "alpha"},
			map[string]any{"status": "inactive"},
		}})
		assert.Len(t, rows, 2)
	})

	t.Run("AND 与排序分页", func(t *testing.T) {
		take, skip := 1, 1
		rows, err := items.FindMany(ctx, client.FindManyArgs{
			Where:   client.Filter{"status": "active"},
			OrderBy: []client.OrderBy{{Field: "score", Desc: true}},
			Take:    &take,
			Skip:    &skip,
		})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "alpha", rows[0]["name"])
	})

	t.Run("Count", func(t *testing.T) {
		n, err := items.Count(ctx, client.Filter{"status": "active"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})
}

func TestTransactRollback(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	users := store.Model("User")

	_, err := users.Create(ctx, client.Record{"name": "keep"})
	require.NoError(t, err)

	err = store.Transact(ctx, []client.TxOperation{
		func(ctx context.Context) error {
			_, err := users.Create(ctx, client.Record{"name": "temp"})
			return err
		},
		func(ctx context.Context) error {
			return errors.NewError(errors.ErrCodeDatabase, "boom")
		},
	}, nil)
	require.Error(t, err)

	rows := store.Rows("User")
	require.Len(t, rows, 1)
	assert.Equal(t, "keep", rows[0]["name"])
}

func TestExecRawRecords(t *testing.T) {
	store := NewStore()
	n, err := store.ExecRaw(context.Background(), "INSERT INTO t VALUES (1)")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, []string{"INSERT INTO t VALUES (1)"}, store.RawStatements())
}

func TestFilterGroupValueForms(t *testing.T) {
	// AND/OR/NOT 的值同时接受 []any、[]map[string]any（即
	// []client.Filter）与单个 map
	row := client.Record{"name": "alpha", "status": "active"}

	assert.True(t, matchesFilter(row, client.Filter{"OR": []map[string]any{
		{"name": "alpha"}, {"status": "inactive"},
	}}))
	assert.True(t, matchesFilter(row, client.Filter{"OR": []client.Filter{
		{"status": "active"},
	}}))
	assert.True(t, matchesFilter(row, client.Filter{"AND": map[string]any{
		"name": "alpha",
	}}))
	assert.False(t, matchesFilter(row, client.Filter{"NOT": []map[string]any{
		{"name": "alpha"},
	}}))
}
