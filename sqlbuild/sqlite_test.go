package sqlbuild

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"ormkit/client"
	"ormkit/dialect"
)

// 针对真实 SQLite 引擎执行生成的批量更新语句，验证 CASE 表达式
// 与转义在数据库侧语义正确。
func TestBuildUpdateQueryAgainstSQLite(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, score INTEGER)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO users (id, name, score) VALUES
		(1, 'alice', 10), (2, 'bob', 20), (3, 'carol', 30)`)
	require.NoError(t, err)

	d := dialect.New(dialect.ProviderSQLite)
	batch := []client.Record{
		{"id": 1, "name": "it's alice", "score": 11},
		{"id": 2, "score": 22},
	}
	query, err := BuildUpdateQuery(batch, "users", nil, d)
	require.NoError(t, err)

	result, err := db.Exec(query)
	require.NoError(t, err)
	affected, err := result.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	type row struct {
		name  string
		score int
	}
	read := func(id int) row {
		var r row
		require.NoError(t, db.QueryRow(
			`SELECT name, score FROM users WHERE id = ?`, id).Scan(&r.name, &r.score))
		return r
	}

	// 批内行按各自新值更新，未覆盖字段经 ELSE 保持原值
	assert.Equal(t, row{"it's alice", 11}, read(1))
	assert.Equal(t, row{"bob", 22}, read(2))
	// 批外行完全不变
	assert.Equal(t, row{"carol", 30}, read(3))
}
