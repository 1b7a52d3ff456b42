// Package compare 提供值规范化与深度相等比较，是 upsert 变更检测的基础。
//
// 设计目标：
//   - NormalizeValue 将 nil/空串统一折叠为 nil，字符串去除首尾空白；
//   - DeepEqual 对纯数据负载（map/slice/标量）做递归比较，不做环检测
//     （输入是查询结果与写入负载，不存在回指结构）；
//   - HasChanges 是 upsert 是否发起写入的唯一闸门，检测到首个差异即返回。
package compare

import (
	"reflect"
	"strings"
	"time"
)

// 变更检测始终忽略的元数据字段
var metaFields = map[string]struct{}{
	"id":        {},
	"createdAt": {},
	"updatedAt": {},
}

// NormalizeValue 规范化单个值：
//   - nil、空字符串 → nil；
//   - 字符串去首尾空白（全空白同样折叠为 nil）；
//   - 其余值原样返回。
func NormalizeValue(v any) any {
	if v == nil {
		return nil
	}
	if s, ok := v.(string); ok {
		trimmed := strings.TrimSpace(s)
		if trimmed == "" {
			return nil
		}
		return trimmed
	}
	return v
}

// DeepEqual 递归比较两个纯数据值。
//
// 比较顺序：引用/标量快速路径 → 类型不一致判不等 →
// 数组先比长度再逐元素 → 对象先比键集合再逐值递归。
// 数值类型之间按数值比较（int/int64/float64 等互相可比），
// 时间值使用 time.Time.Equal。
func DeepEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			bValue, exists := bv[k]
			if !exists || !DeepEqual(v, bValue) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !DeepEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}

	if an, aok := asFloat(a); aok {
		bn, bok := asFloat(b)
		return bok && an == bn
	}

	// 其余类型（自定义 slice、struct 等）走反射比较兜底
	return reflect.DeepEqual(a, b)
}

// HasChanges 判断 newData 相对 existing 是否存在实际变更。
//
// 规则：
//   - 跳过 id/createdAt/updatedAt 及 ignoreFields 中的字段；
//   - 两侧先 NormalizeValue，双 nil 视为无变更，单侧 nil 视为变更；
//   - 对象/数组走 DeepEqual，标量直接比较；
//   - 检测到首个变更即短路返回 true。
func HasChanges(newData, existing map[string]any, ignoreFields ...string) bool {
	ignored := make(map[string]struct{}, len(ignoreFields))
	for _, f := range ignoreFields {
		ignored[f] = struct{}{}
	}

	for key, newValue := range newData {
		if _, ok := metaFields[key]; ok {
			continue
		}
		if _, ok := ignored[key]; ok {
			continue
		}

		a := NormalizeValue(newValue)
		b := NormalizeValue(existing[key])

		if a == nil && b == nil {
			continue
		}
		if a == nil || b == nil {
			return true
		}
		if !DeepEqual(a, b) {
			return true
		}
	}
	return false
}

// asFloat 将任意数值类型转换为 float64 用于跨类型比较。
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
	}
	return 0, false
}
