package memory

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"ormkit/client"
	"ormkit/compare"
	"ormkit/pathutil"
)

// matchesFilter 判断行是否满足条件树。
// 支持 AND/OR 分组、点路径嵌套以及 equals/contains/startsWith/
// endsWith/gte/lte/in/notIn/hasSome/hasEvery 条件操作符。
func matchesFilter(row client.Record, filter client.Filter) bool {
	if len(filter) == 0 {
		return true
	}
	for key, value := range filter {
		switch key {
		case "AND":
			for _, sub := range asFilterList(value) {
				if !matchesFilter(row, sub) {
					return false
				}
			}
		case "OR":
			subs := asFilterList(value)
			if len(subs) == 0 {
				continue
			}
			any := false
			for _, sub := range subs {
				if matchesFilter(row, sub) {
					any = true
					break
				}
			}
			if !any {
				return false
			}
		case "NOT":
			for _, sub := range asFilterList(value) {
				if matchesFilter(row, sub) {
					return false
				}
			}
		default:
			if !matchesField(row, key, value) {
				return false
			}
		}
	}
	return true
}

func asFilterList(value any) []client.Filter {
	switch t := value.(type) {
	// client.Filter 是 map[string]any 的别名，[]client.Filter 与
	// []map[string]any 是同一类型，只留一个 case
	case []map[string]any:
		out := make([]client.Filter, len(t))
		for i, f := range t {
			out[i] = f
		}
		return out
	case []any:
		var out []client.Filter
		for _, e := range t {
			if f, ok := e.(map[string]any); ok {
				out = append(out, f)
			}
		}
		return out
	case map[string]any:
		return []client.Filter{t}
	default:
		return nil
	}
}

func matchesField(row client.Record, path string, condition any) bool {
	cond, isMap := condition.(map[string]any)
	if isMap && isOperatorMap(cond) {
		actual, _ := pathutil.Get(row, path)
		return evalOperators(actual, cond)
	}
	if isMap {
		// 非操作符 map 表示嵌套路径
		for k, v := range cond {
			if !matchesField(row, path+"."+k, v) {
				return false
			}
		}
		return true
	}
	actual, _ := pathutil.Get(row, path)
	return valueEquals(actual, condition)
}

var operatorKeys = map[string]bool{
	"equals": true, "contains": true, "startsWith": true, "endsWith": true,
	"gte": true, "lte": true, "gt": true, "lt": true,
	"in": true, "notIn": true, "hasSome": true, "hasEvery": true,
	"mode": true,
}

func isOperatorMap(m map[string]any) bool {
	if len(m) == 0 {
		return false
	}
	for k := range m {
		if !operatorKeys[k] {
			return false
		}
	}
	return true
}

func evalOperators(actual any, cond map[string]any) bool {
	for op, expected := range cond {
		switch op {
		case "equals":
			if !valueEquals(actual, expected) {
				return false
			}
		case "contains":
			if !strings.Contains(asString(actual), asString(expected)) {
				return false
			}
		case "startsWith":
			if !strings.HasPrefix(asString(actual), asString(expected)) {
				return false
			}
		case "endsWith":
			if !strings.HasSuffix(asString(actual), asString(expected)) {
				return false
			}
		case "gte":
			if compareValues(actual, expected) < 0 {
				return false
			}
		case "lte":
			if compareValues(actual, expected) > 0 {
				return false
			}
		case "gt":
			if compareValues(actual, expected) <= 0 {
				return false
			}
		case "lt":
			if compareValues(actual, expected) >= 0 {
				return false
			}
		case "in":
			if !containsValue(asList(expected), actual) {
				return false
			}
		case "notIn":
			if containsValue(asList(expected), actual) {
				return false
			}
		case "hasSome":
			if !listOverlaps(asList(actual), asList(expected)) {
				return false
			}
		case "hasEvery":
			if !listCovers(asList(actual), asList(expected)) {
				return false
			}
		case "mode":
			// 大小写模式提示，内存实现忽略
		}
	}
	return true
}

func valueEquals(a, b any) bool {
	return compare.DeepEqual(a, b)
}

func asString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func asList(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	case []int:
		out := make([]any, len(t))
		for i, n := range t {
			out[i] = n
		}
		return out
	default:
		return []any{v}
	}
}

func containsValue(list []any, v any) bool {
	for _, e := range list {
		if valueEquals(e, v) {
			return true
		}
	}
	return false
}

func listOverlaps(actual, expected []any) bool {
	for _, e := range expected {
		if containsValue(actual, e) {
			return true
		}
	}
	return false
}

func listCovers(actual, expected []any) bool {
	for _, e := range expected {
		if !containsValue(actual, e) {
			return false
		}
	}
	return true
}

// compareValues 返回 -1/0/1，支持数字、字符串与时间
func compareValues(a, b any) int {
	if ta, ok := asTime(a); ok {
		if tb, ok := asTime(b); ok {
			switch {
			case ta.Before(tb):
				return -1
			case ta.After(tb):
				return 1
			default:
				return 0
			}
		}
	}
	if fa, ok := asFloat(a); ok {
		if fb, ok := asFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			default:
				return 0
			}
		}
	}
	return strings.Compare(asString(a), asString(b))
}

func asTime(v any) (time.Time, bool) {
	t, ok := v.(time.Time)
	return t, ok
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// sortRecords 按 orderBy 稳定排序
func sortRecords(rows []client.Record, orderBy []client.OrderBy) {
	if len(orderBy) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, o := range orderBy {
			a, _ := pathutil.Get(rows[i], o.Field)
			b, _ := pathutil.Get(rows[j], o.Field)
			c := compareValues(a, b)
			if c == 0 {
				continue
			}
			if o.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}
