package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestStringCondition 字符串搜索模式映射
func TestStringCondition(t *testing.T) {
	tests := []struct {
		mode StringMode
		want Tree
	}{
		{StringExact, Tree{"equals": "v"}},
		{"", Tree{"equals": "v"}},
		{StringLike, Tree{"contains": "v"}},
		{StringStartsWith, Tree{"startsWith": "v"}},
		{StringEndsWith, Tree{"endsWith": "v"}},
	}
	for _, tt := range tests {
		got := StringCondition(StringSearch{Value: "v", Mode: tt.mode})
		assert.Equal(t, tt.want, got, "mode=%s", tt.mode)
	}
}

// TestRangeCondition 范围条件按 Min/Max 存在性输出
func TestRangeCondition(t *testing.T) {
	assert.Equal(t, Tree{"gte": 1, "lte": 10}, RangeCondition(RangeSearch{Min: 1, Max: 10}))
	assert.Equal(t, Tree{"gte": 1}, RangeCondition(RangeSearch{Min: 1}))
	assert.Equal(t, Tree{"lte": 10}, RangeCondition(RangeSearch{Max: 10}))
	assert.Equal(t, Tree{}, RangeCondition(RangeSearch{}))

	// 时间值同样适用
	now := time.Now()
	assert.Equal(t, Tree{"gte": now}, RangeCondition(RangeSearch{Min: now}))
}

// TestListCondition 列表搜索模式映射
func TestListCondition(t *testing.T) {
	values := []any{1, 2}
	assert.Equal(t, Tree{"in": values}, ListCondition(ListSearch{Values: values}))
	assert.Equal(t, Tree{"in": values}, ListCondition(ListSearch{Values: values, Mode: ListIn}))
	assert.Equal(t, Tree{"notIn": values}, ListCondition(ListSearch{Values: values, Mode: ListNotIn}))
	assert.Equal(t, Tree{"hasSome": values}, ListCondition(ListSearch{Values: values, Mode: ListHasSome}))
	assert.Equal(t, Tree{"hasEvery": values}, ListCondition(ListSearch{Values: values, Mode: ListHasEvery}))
}

// TestConditionBuilders_Pure 条件构建器是纯函数
func TestConditionBuilders_Pure(t *testing.T) {
	s := StringSearch{Value: "v", Mode: StringLike}
	assert.Equal(t, StringCondition(s), StringCondition(s))

	r := RangeSearch{Min: 1, Max: 2}
	assert.Equal(t, RangeCondition(r), RangeCondition(r))

	l := ListSearch{Values: []any{1}, Mode: ListIn}
	assert.Equal(t, ListCondition(l), ListCondition(l))
}

// TestIsValid 有效性谓词
func TestIsValid(t *testing.T) {
	// 无效值
	for _, v := range []any{nil, "", "   ", []any{}, map[string]any{}, map[string]any{"a": ""}} {
		assert.False(t, IsValid(v), "value=%#v", v)
	}

	// 有效值
	for _, v := range []any{0, false, []any{1}, map[string]any{"a": 1}, time.Now(), "x"} {
		assert.True(t, IsValid(v), "value=%#v", v)
	}

	// 嵌套递归：任一嵌套值有效即有效
	assert.True(t, IsValid(map[string]any{"a": "", "b": map[string]any{"c": 0}}))
	assert.False(t, IsValid(map[string]any{"a": "", "b": map[string]any{"c": ""}}))
}
