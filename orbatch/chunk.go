package orbatch

import (
	"ormkit/batch"
	"ormkit/filter"
)

// ListChunkThreshold 列表搜索值数组触发分块的阈值
const ListChunkThreshold = 10000

// NeedsListChunking 是否存在超过阈值的列表搜索值数组
func NeedsListChunking(s *filter.Search) bool {
	if s == nil {
		return false
	}
	for _, ls := range s.List {
		if len(ls.Values) > ListChunkThreshold {
			return true
		}
	}
	return false
}

// ChunkListSearches 将首个超阈值的列表搜索按阈值切块，每块返回
// 一个持有该块值的 Search 深拷贝。一次调用只处理一个超限描述符，
// 多个超限描述符的组合会让查询数按乘积爆炸，实践中也不出现。
func ChunkListSearches(s *filter.Search) []*filter.Search {
	if s == nil {
		return nil
	}
	target := -1
	for i, ls := range s.List {
		if len(ls.Values) > ListChunkThreshold {
			target = i
			break
		}
	}
	if target < 0 {
		return []*filter.Search{s}
	}

	chunks := batch.CreateBatches(s.List[target].Values, ListChunkThreshold)
	out := make([]*filter.Search, len(chunks))
	for i, chunk := range chunks {
		cloned := s.Clone()
		// CreateBatches 返回的是原底层数组的切片，直接装进克隆会
		// 让分块与调用方互相别名，必须再复制一份
		cloned.List[target].Values = append([]any(nil), chunk...)
		out[i] = cloned
	}
	return out
}
