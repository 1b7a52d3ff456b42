// Package sqlbuild 实现批量 UPDATE 语句的构建与值转义。
//
// 逐行 update 调用在大批量下不可扩展，这里把一批按主键的更新
// 合并为单条 CASE WHEN 语句。值全部经 EscapeValue 内联转义，
// 标识符经 IsSafeIdentifier 校验后按方言引用，绝不拼接未转义
// 的调用方数据。
package sqlbuild

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"ormkit/dialect"
)

// IsSafeIdentifier 判断标识符是否为安全的数据库标识符。
//
// 允许单一标识符与带点的限定名；每段首字符必须是字母或下划线，
// 后续字符必须是字母、数字或下划线。只做 ASCII 校验，足以拦截
// 常见注入片段（空格、分号等）。
func IsSafeIdentifier(name string) bool {
	if name == "" {
		return false
	}
	parts := strings.Split(name, ".")
	for _, part := range parts {
		if part == "" {
			return false
		}
		for i := 0; i < len(part); i++ {
			ch := part[i]
			if i == 0 {
				if !((ch >= 'a' && ch <= 'z') ||
					(ch >= 'A' && ch <= 'Z') ||
					ch == '_') {
					return false
				}
			} else {
				if !((ch >= 'a' && ch <= 'z') ||
					(ch >= 'A' && ch <= 'Z') ||
					(ch >= '0' && ch <= '9') ||
					ch == '_') {
					return false
				}
			}
		}
	}
	return true
}

// EscapeValue 将值转义为可直接内联进 SQL 的字面量。
//
// 规则：
//   - nil → NULL
//   - 字符串 → 单引号双写 + 反斜杠转义
//   - 布尔 → 方言布尔字面量
//   - 数字 → 字面量；NaN/Inf → NULL
//   - 时间 → 'YYYY-MM-DD HH:MM:SS'
//   - 数组 → 支持原生数组的方言用 ARRAY[...]，否则逐元素转义后
//     逗号拼接为字符串；isJSONField 时改为 JSON 编码
//   - 对象 → JSON 编码后按方言转义
func EscapeValue(value any, d dialect.Dialect, isJSONField bool) string {
	if value == nil {
		return "NULL"
	}
	switch v := value.(type) {
	case string:
		return quoteString(v)
	case bool:
		return d.BooleanLiteral(v)
	case int:
		return fmt.Sprintf("%d", v)
	case int8:
		return fmt.Sprintf("%d", v)
	case int16:
		return fmt.Sprintf("%d", v)
	case int32:
		return fmt.Sprintf("%d", v)
	case int64:
		return fmt.Sprintf("%d", v)
	case uint:
		return fmt.Sprintf("%d", v)
	case uint8:
		return fmt.Sprintf("%d", v)
	case uint16:
		return fmt.Sprintf("%d", v)
	case uint32:
		return fmt.Sprintf("%d", v)
	case uint64:
		return fmt.Sprintf("%d", v)
	case float32:
		return escapeFloat(float64(v))
	case float64:
		return escapeFloat(v)
	case time.Time:
		return "'" + v.Format("2006-01-02 15:04:05") + "'"
	case *time.Time:
		if v == nil {
			return "NULL"
		}
		return "'" + v.Format("2006-01-02 15:04:05") + "'"
	case []any:
		if isJSONField {
			return escapeJSON(v, d)
		}
		return escapeArray(v, d)
	case []string:
		elems := make([]any, len(v))
		for i, s := range v {
			elems[i] = s
		}
		if isJSONField {
			return escapeJSON(elems, d)
		}
		return escapeArray(elems, d)
	case map[string]any:
		return escapeJSON(v, d)
	default:
		return quoteString(fmt.Sprintf("%v", v))
	}
}

func escapeFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "NULL"
	}
	return fmt.Sprintf("%v", f)
}

// quoteString 单引号双写并转义反斜杠
func quoteString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "'", "''")
	return "'" + s + "'"
}

// escapeArray 原生数组方言生成 ARRAY[...]，否则退化为逗号拼接字符串
func escapeArray(elems []any, d dialect.Dialect) string {
	caps := dialect.CapabilitiesFor(d.Provider())
	if caps.SupportsArrays {
		parts := make([]string, len(elems))
		for i, e := range elems {
			parts[i] = EscapeValue(e, d, false)
		}
		return "ARRAY[" + strings.Join(parts, ", ") + "]"
	}
	parts := make([]string, len(elems))
	for i, e := range elems {
		parts[i] = fmt.Sprintf("%v", e)
	}
	return quoteString(strings.Join(parts, ","))
}

// escapeJSON JSON 编码后按方言转义。
// MySQL 原生处理 JSON 文本，只需引号转义；其余方言按普通字符串
// 同时转义反斜杠与引号。
func escapeJSON(value any, d dialect.Dialect) string {
	encoded, err := json.Marshal(value)
	if err != nil {
		return "NULL"
	}
	text := string(encoded)
	if d.Provider() == dialect.ProviderMySQL {
		return "'" + strings.ReplaceAll(text, "'", "''") + "'"
	}
	return quoteString(text)
}
