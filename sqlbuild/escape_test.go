package sqlbuild

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ormkit/dialect"
)

func TestIsSafeIdentifier(t *testing.T) {
	assert.True(t, IsSafeIdentifier("users"))
	assert.True(t, IsSafeIdentifier("_private"))
	assert.True(t, IsSafeIdentifier("schema.table"))
	assert.True(t, IsSafeIdentifier("a1_b2"))

	assert.False(t, IsSafeIdentifier(""))
	assert.False(t, IsSafeIdentifier("1abc"))
	assert.False(t, IsSafeIdentifier("users; DROP TABLE"))
	assert.False(t, IsSafeIdentifier("a..b"))
	assert.False(t, IsSafeIdentifier("col name"))
}

func TestEscapeValue(t *testing.T) {
	pg := dialect.New(dialect.ProviderPostgres)
	my := dialect.New(dialect.ProviderMySQL)

	t.Run("空值", func(t *testing.T) {
		assert.Equal(t, "NULL", EscapeValue(nil, pg, false))
	})

	t.Run("字符串引号双写与反斜杠转义", func(t *testing.T) {
		assert.Equal(t, "'it''s'", EscapeValue("it's", pg, false))
		assert.Equal(t, `'a\\b'`, EscapeValue(`a\b`, pg, false))
	})

	t.Run("布尔按方言", func(t *testing.T) {
		assert.Equal(t, "TRUE", EscapeValue(true, pg, false))
		assert.Equal(t, "1", EscapeValue(true, my, false))
		assert.Equal(t, "0", EscapeValue(false, my, false))
	})

	t.Run("数字与 NaN", func(t *testing.T) {
		assert.Equal(t, "42", EscapeValue(42, pg, false))
		assert.Equal(t, "3.5", EscapeValue(3.5, pg, false))
		assert.Equal(t, "NULL", EscapeValue(math.NaN(), pg, false))
		assert.Equal(t, "NULL", EscapeValue(math.Inf(1), pg, false))
	})

	t.Run("时间格式", func(t *testing.T) {
		ts := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
		assert.Equal(t, "'2024-03-15 09:30:00'", EscapeValue(ts, pg, false))
	})

	t.Run("数组按方言能力", func(t *testing.T) {
		arr := []any{"a", "b'c"}
		assert.Equal(t, "ARRAY['a', 'b''c']", EscapeValue(arr, pg, false))
		assert.Equal(t, "'a,b''c'", EscapeValue(arr, my, false))
	})

	t.Run("JSON 字段的数组 JSON 编码", func(t *testing.T) {
		assert.Equal(t, `'[1,2]'`, EscapeValue([]any{1, 2}, pg, true))
	})

	t.Run("对象 JSON 编码", func(t *testing.T) {
		obj := map[string]any{"k": "it's"}
		assert.Equal(t, `'{"k":"it''s"}'`, EscapeValue(obj, pg, false))
		assert.Equal(t, `'{"k":"it''s"}'`, EscapeValue(obj, my, false))
	})
}
