package dialect

import "sync"

// 进程级活跃提供方。
// 启动时由连接配置显式 Init 一次，之后只读；
// Reset 仅用于测试中切换提供方，不在请求路径上隐式重检测。
var (
	activeMu       sync.RWMutex
	activeProvider Provider
	activeSet      bool
)

// Init 设置进程级活跃提供方（幂等，后设置的覆盖先前的）
func Init(p Provider) {
	activeMu.Lock()
	defer activeMu.Unlock()
	activeProvider = p
	activeSet = true
}

// Reset 清除活跃提供方（测试用）
func Reset() {
	activeMu.Lock()
	defer activeMu.Unlock()
	activeProvider = ProviderUnknown
	activeSet = false
}

// Active 返回当前活跃提供方；未初始化时返回 Unknown
func Active() Provider {
	activeMu.RLock()
	defer activeMu.RUnlock()
	return activeProvider
}

// Initialized 活跃提供方是否已设置
func Initialized() bool {
	activeMu.RLock()
	defer activeMu.RUnlock()
	return activeSet
}

// ActiveDialect 返回活跃提供方对应的方言
func ActiveDialect() Dialect {
	return New(Active())
}
