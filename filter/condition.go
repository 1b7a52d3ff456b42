package filter

import (
	"strings"
	"time"
)

// StringCondition 将字符串搜索转换为子句片段。
// EXACT → {equals}，LIKE → {contains}，STARTS_WITH → {startsWith}，
// ENDS_WITH → {endsWith}。
func StringCondition(s StringSearch) Tree {
	switch s.Mode {
	case StringLike:
		return Tree{"contains": s.Value}
	case StringStartsWith:
		return Tree{"startsWith": s.Value}
	case StringEndsWith:
		return Tree{"endsWith": s.Value}
	default:
		return Tree{"equals": s.Value}
	}
}

// RangeCondition 将范围搜索转换为子句片段。
// 按 Min/Max 的存在性输出 {gte}、{lte}、两者或空片段。
func RangeCondition(s RangeSearch) Tree {
	cond := Tree{}
	if s.Min != nil {
		cond["gte"] = s.Min
	}
	if s.Max != nil {
		cond["lte"] = s.Max
	}
	return cond
}

// ListCondition 将列表搜索转换为子句片段。
// IN → {in}，NOT_IN → {notIn}，HAS_SOME → {hasSome}，
// HAS_EVERY → {hasEvery}。
func ListCondition(s ListSearch) Tree {
	switch s.Mode {
	case ListNotIn:
		return Tree{"notIn": s.Values}
	case ListHasSome:
		return Tree{"hasSome": s.Values}
	case ListHasEvery:
		return Tree{"hasEvery": s.Values}
	default:
		return Tree{"in": s.Values}
	}
}

// IsValid 判断值是否构成有效的查询条件。
//
// 无效：nil、空字符串（含全空白）、空数组、所有嵌套值均无效的对象。
// 有效：0、false、时间值、非空容器。
// 用于在无效条件进入过滤树之前将其丢弃。
func IsValid(v any) bool {
	if v == nil {
		return false
	}
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val) != ""
	case []any:
		return len(val) > 0
	case []string:
		return len(val) > 0
	case []int:
		return len(val) > 0
	case []int64:
		return len(val) > 0
	case map[string]any:
		for _, nested := range val {
			if IsValid(nested) {
				return true
			}
		}
		return false
	case time.Time:
		return true
	default:
		// 0、false 等零值标量是合法条件
		return true
	}
}
