package pathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGet_Assign_RoundTrip 路径读写往返
func TestGet_Assign_RoundTrip(t *testing.T) {
	paths := []string{"a", "a.b", "a.b.c", "x.y.z.w"}
	for _, p := range paths {
		obj := make(map[string]any)
		Assign(obj, p, 42)
		got, ok := Get(obj, p)
		require.True(t, ok, "path %s", p)
		assert.Equal(t, 42, got, "path %s", p)
	}
}

// TestAssign_PreservesSiblings 写入叶子不影响兄弟键
func TestAssign_PreservesSiblings(t *testing.T) {
	obj := map[string]any{
		"a": map[string]any{
			"b": 1,
		},
	}
	Assign(obj, "a.c", 2)

	b, ok := Get(obj, "a.b")
	require.True(t, ok)
	assert.Equal(t, 1, b)

	c, ok := Get(obj, "a.c")
	require.True(t, ok)
	assert.Equal(t, 2, c)
}

// TestAssign_OverwritesLeaf 叶子覆盖写入
func TestAssign_OverwritesLeaf(t *testing.T) {
	obj := make(map[string]any)
	Assign(obj, "a.b", 1)
	Assign(obj, "a.b", 2)

	got, _ := Get(obj, "a.b")
	assert.Equal(t, 2, got)
}

// TestBuild_EqualsAssign Build 与 Assign 等价
func TestBuild_EqualsAssign(t *testing.T) {
	built := Build("a.b.c", "v")
	assigned := make(map[string]any)
	Assign(assigned, "a.b.c", "v")
	assert.Equal(t, assigned, built)
}

// TestBuild_EmptyPath 空路径返回空对象
func TestBuild_EmptyPath(t *testing.T) {
	assert.Empty(t, Build("", 1))
}

// TestGet_MissingSegment 缺失段返回未找到
func TestGet_MissingSegment(t *testing.T) {
	obj := map[string]any{"a": map[string]any{"b": 1}}

	_, ok := Get(obj, "a.c")
	assert.False(t, ok)

	_, ok = Get(obj, "a.b.c")
	assert.False(t, ok, "穿过非 map 值应视为不存在")

	_, ok = Get(obj, "")
	assert.False(t, ok)
}

// TestClean_RemovesEmptyAncestors 删除叶子后回收空祖先
func TestClean_RemovesEmptyAncestors(t *testing.T) {
	obj := make(map[string]any)
	Assign(obj, "a.b.c", 1)
	Clean(obj, []string{"a.b.c"})
	assert.Empty(t, obj)
}

// TestClean_StopsAtNonEmptyAncestor 非空祖先保留
func TestClean_StopsAtNonEmptyAncestor(t *testing.T) {
	obj := make(map[string]any)
	Assign(obj, "a.b.c", 1)
	Assign(obj, "a.d", 2)
	Clean(obj, []string{"a.b.c"})

	_, ok := Get(obj, "a.b")
	assert.False(t, ok, "空的 b 应被回收")

	d, ok := Get(obj, "a.d")
	require.True(t, ok)
	assert.Equal(t, 2, d)
}

// TestClean_MissingPathIsNoop 不存在的路径是 no-op
func TestClean_MissingPathIsNoop(t *testing.T) {
	obj := map[string]any{"a": 1}
	Clean(obj, []string{"x.y", ""})
	assert.Equal(t, map[string]any{"a": 1}, obj)
}

// TestClean_Idempotent 两次 Clean 等价于一次
func TestClean_Idempotent(t *testing.T) {
	build := func() map[string]any {
		obj := make(map[string]any)
		Assign(obj, "a.b.c", 1)
		Assign(obj, "a.d", 2)
		return obj
	}
	paths := []string{"a.b.c", "a.d"}

	once := build()
	Clean(once, paths)

	twice := build()
	Clean(twice, paths)
	Clean(twice, paths)

	assert.Equal(t, once, twice)
}

// TestClean_LeavesArraysUntouched 空数组保持不动
func TestClean_LeavesArraysUntouched(t *testing.T) {
	obj := map[string]any{
		"a": map[string]any{
			"list": []any{},
			"b":    1,
		},
	}
	Clean(obj, []string{"a.b"})

	list, ok := Get(obj, "a.list")
	require.True(t, ok)
	assert.Equal(t, []any{}, list)
}
