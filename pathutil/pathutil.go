// Package pathutil 提供基于点号路径的嵌套 map 读写工具。
//
// 过滤树（FilterTree）的构建依赖这里的路径操作：
//   - Get/Assign 以 "a.b.c" 形式访问嵌套 map[string]any；
//   - Build 构造全新的嵌套对象；
//   - Clean 删除路径叶子并回收变空的祖先节点。
//
// 约定：
//   - 路径分隔符固定为 "."；
//   - 中间节点必须是 map[string]any，遇到其他类型视为路径不存在；
//   - 单段路径等价于普通的 map 键访问。
package pathutil

import "strings"

// Get 返回 obj 在点号路径 path 处的值。
// 任一中间段缺失或不是 map 时返回 (nil, false)。
func Get(obj map[string]any, path string) (any, bool) {
	if obj == nil || path == "" {
		return nil, false
	}
	segments := strings.Split(path, ".")
	current := obj
	for i, seg := range segments {
		value, ok := current[seg]
		if !ok {
			return nil, false
		}
		if i == len(segments)-1 {
			return value, true
		}
		next, ok := value.(map[string]any)
		if !ok {
			return nil, false
		}
		current = next
	}
	return nil, false
}

// Assign 在 obj 的点号路径 path 处写入 value，按需创建中间 map。
// 叶子覆盖写入，兄弟键保持不变；中间段已有非 map 值时会被替换为新 map。
func Assign(obj map[string]any, path string, value any) {
	if obj == nil || path == "" {
		return
	}
	segments := strings.Split(path, ".")
	current := obj
	for i, seg := range segments {
		if i == len(segments)-1 {
			current[seg] = value
			return
		}
		next, ok := current[seg].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[seg] = next
		}
		current = next
	}
}

// Build 返回一个全新的嵌套对象，value 位于点号路径 path 的叶子处。
// 不修改任何已有对象。
func Build(path string, value any) map[string]any {
	result := make(map[string]any)
	if path == "" {
		return result
	}
	Assign(result, path, value)
	return result
}

// Clean 删除 obj 中各路径的叶子，并自底向上移除因此变空的祖先 map。
// 碰到第一个非空祖先（或根）即停止；数组即便为空也保持不动。
// 路径不存在时为 no-op。
func Clean(obj map[string]any, paths []string) {
	if obj == nil {
		return
	}
	for _, path := range paths {
		cleanPath(obj, path)
	}
}

func cleanPath(obj map[string]any, path string) {
	if path == "" {
		return
	}
	segments := strings.Split(path, ".")

	// 自顶向下收集祖先链，确认路径完整存在
	chain := make([]map[string]any, 0, len(segments))
	current := obj
	for i, seg := range segments {
		if i == len(segments)-1 {
			if _, ok := current[seg]; !ok {
				return
			}
			chain = append(chain, current)
			break
		}
		next, ok := current[seg].(map[string]any)
		if !ok {
			return
		}
		chain = append(chain, current)
		current = next
	}

	// 删除叶子，然后回收空祖先
	delete(chain[len(chain)-1], segments[len(segments)-1])
	for i := len(chain) - 2; i >= 0; i-- {
		child, ok := chain[i][segments[i]].(map[string]any)
		if !ok || len(child) > 0 {
			break
		}
		delete(chain[i], segments[i])
	}
}
