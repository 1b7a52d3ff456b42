// Package filter 将声明式的过滤/搜索描述翻译为原生查询子句树。
//
// 过滤树是 map[string]any：键为字段点号路径或逻辑算子 AND/OR，
// 叶子是可比较的原生值或子句片段（如 {gte, lte}、{contains}、{in}），
// 从不出现业务对象。树按调用临时构建，查询执行后即丢弃。
package filter

// Tree 过滤树。键为字段点号路径或 "AND"/"OR"，
// 值为标量、嵌套 Tree，或（OR 下的）Tree 数组。
type Tree = map[string]any

// Grouping 搜索条件与主树的组合方式
type Grouping string

const (
	// GroupingAnd 合并进主树（默认）
	GroupingAnd Grouping = "and"
	// GroupingOr 推入顶层 OR 数组，并从主树清除原路径
	GroupingOr Grouping = "or"
)

// StringMode 字符串搜索模式
type StringMode string

const (
	StringExact      StringMode = "EXACT"
	StringLike       StringMode = "LIKE"
	StringStartsWith StringMode = "STARTS_WITH"
	StringEndsWith   StringMode = "ENDS_WITH"
)

// ListMode 列表搜索模式
type ListMode string

const (
	ListIn       ListMode = "IN"
	ListNotIn    ListMode = "NOT_IN"
	ListHasSome  ListMode = "HAS_SOME"
	ListHasEvery ListMode = "HAS_EVERY"
)

// StringSearch 字符串搜索描述
type StringSearch struct {
	// Keys 一个或多个字段点号路径
	Keys []string
	// Value 搜索值
	Value string
	// Mode 匹配模式，零值按 EXACT 处理
	Mode StringMode
	// Grouping 组合方式，零值按 and 处理
	Grouping Grouping
}

// RangeSearch 范围搜索描述，适用于数值与时间
type RangeSearch struct {
	Keys     []string
	Min      any
	Max      any
	Grouping Grouping
}

// ListSearch 列表成员搜索描述
type ListSearch struct {
	Keys     []string
	Values   []any
	Mode     ListMode
	Grouping Grouping
}

// Search 一次查询携带的全部搜索描述
type Search struct {
	String []StringSearch
	Range  []RangeSearch
	List   []ListSearch
}

// Clone 深拷贝 Search，列表值逐元素复制。
// 列表分块执行时每个分块持有独立副本，避免跨分块篡改。
// 源切片为 nil 时保持 nil，克隆与源深比较相等。
func (s *Search) Clone() *Search {
	if s == nil {
		return nil
	}
	out := &Search{}
	if s.String != nil {
		out.String = make([]StringSearch, len(s.String))
		copy(out.String, s.String)
		for i := range out.String {
			out.String[i].Keys = append([]string(nil), out.String[i].Keys...)
		}
	}
	if s.Range != nil {
		out.Range = make([]RangeSearch, len(s.Range))
		copy(out.Range, s.Range)
		for i := range out.Range {
			out.Range[i].Keys = append([]string(nil), out.Range[i].Keys...)
		}
	}
	if s.List != nil {
		out.List = make([]ListSearch, len(s.List))
		for i, ls := range s.List {
			cloned := ls
			cloned.Keys = append([]string(nil), ls.Keys...)
			if ls.Values != nil {
				cloned.Values = make([]any, len(ls.Values))
				copy(cloned.Values, ls.Values)
			}
			out.List[i] = cloned
		}
	}
	return out
}
