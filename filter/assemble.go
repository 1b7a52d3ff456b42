package filter

import "ormkit/pathutil"

// Build 将基础过滤条件与搜索描述合并为一棵过滤树。
//
// 流程：
//  1. 浅拷贝 baseFilter；
//  2. 依次处理字符串/范围/列表搜索，经条件构建器转换后丢弃无效条件；
//  3. grouping=or 的条件按 key 构建独立子树推入顶层 OR 数组，
//     并记录路径；grouping=and 的条件直接写入主树；
//  4. 最后对记录的 OR 路径执行 Clean，避免同一字段同时受
//     AND 与 OR 约束导致过度过滤。
//
// 各条件在进入清理阶段前彼此独立，描述的应用顺序只影响清理集合。
func Build(base Tree, search *Search) Tree {
	result := make(Tree, len(base)+4)
	for k, v := range base {
		result[k] = v
	}
	if search == nil {
		return result
	}

	var orPaths []string

	apply := func(keys []string, cond Tree, grouping Grouping) {
		if !IsValid(cond) {
			return
		}
		if grouping == GroupingOr {
			for _, key := range keys {
				if key == "" {
					continue
				}
				appendOr(result, pathutil.Build(key, cond))
				orPaths = append(orPaths, key)
			}
			return
		}
		for _, key := range keys {
			if key == "" {
				continue
			}
			pathutil.Assign(result, key, cond)
		}
	}

	for _, s := range search.String {
		apply(s.Keys, StringCondition(s), s.Grouping)
	}
	for _, s := range search.Range {
		apply(s.Keys, RangeCondition(s), s.Grouping)
	}
	for _, s := range search.List {
		apply(s.Keys, ListCondition(s), s.Grouping)
	}

	pathutil.Clean(result, orPaths)
	return result
}

// Merge 将过滤条件数组按分组方式合并为一棵树。
//
// or 分组产出裸 {OR: [...]} 树，这样下游的 OR 批量优化可以直接
// 识别并按占位符上限拆分执行；and 分组产出 {AND: [...]}。
// 空数组得到空树，单元素数组原样返回该元素。
func Merge(filters []Tree, grouping Grouping) Tree {
	switch len(filters) {
	case 0:
		return Tree{}
	case 1:
		return filters[0]
	}

	members := make([]Tree, len(filters))
	copy(members, filters)

	if grouping == GroupingOr {
		return Tree{"OR": members}
	}
	return Tree{"AND": members}
}

// OrConditions 提取树顶层的 OR 条件数组。
// 仅当整棵树恰好是 {OR: [...]} 形态时返回 (conditions, true)。
func OrConditions(tree Tree) ([]Tree, bool) {
	if len(tree) != 1 {
		return nil, false
	}
	raw, ok := tree["OR"]
	if !ok {
		return nil, false
	}
	return asTrees(raw)
}

// appendOr 向树的顶层 OR 数组追加一个成员，兼容已有的 []any 形态。
func appendOr(tree Tree, member Tree) {
	existing, ok := tree["OR"]
	if !ok {
		tree["OR"] = []Tree{member}
		return
	}
	if members, ok := asTrees(existing); ok {
		tree["OR"] = append(members, member)
		return
	}
	tree["OR"] = []Tree{member}
}

func asTrees(raw any) ([]Tree, bool) {
	switch v := raw.(type) {
	case []Tree:
		return v, true
	case []any:
		members := make([]Tree, 0, len(v))
		for _, m := range v {
			tree, ok := m.(map[string]any)
			if !ok {
				return nil, false
			}
			members = append(members, tree)
		}
		return members, true
	}
	return nil, false
}

// CloneTree 深拷贝一棵过滤树（map 与数组逐层复制，标量原样）。
func CloneTree(tree Tree) Tree {
	if tree == nil {
		return nil
	}
	out := make(Tree, len(tree))
	for k, v := range tree {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return CloneTree(val)
	case []Tree:
		members := make([]Tree, len(val))
		for i, m := range val {
			members[i] = CloneTree(m)
		}
		return members
	case []any:
		members := make([]any, len(val))
		for i, m := range val {
			members[i] = cloneValue(m)
		}
		return members
	default:
		return val
	}
}
