// Package batch 提供通用的分批与并行执行原语。
//
// “并行”指同时在途的异步数据库调用，由信号量限制并发数；
// 单个批次失败只记录到错误列表，不会中止其余批次。
package batch

// CreateBatches 将 items 切分为长度不超过 size 的连续分片。
// 保持顺序、恰好覆盖一次；只有最后一个分片可能不足 size。
func CreateBatches[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 {
		size = len(items)
	}

	numBatches := (len(items) + size - 1) / size
	batches := make([][]T, 0, numBatches)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}

// IndexedError 带输入序号的错误，用于部分失败的结果容器
type IndexedError struct {
	Index int
	Err   error
}

func (e IndexedError) Error() string {
	return e.Err.Error()
}

func (e IndexedError) Unwrap() error {
	return e.Err
}
