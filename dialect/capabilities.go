package dialect

// Capabilities 表达提供方支持的能力集合。
// 超出能力的调用由上层返回明确错误或选择替代路径，而非静默降级。
type Capabilities struct {
	// SupportsSkipDuplicates 批量创建是否支持跳过重复行
	SupportsSkipDuplicates bool
	// SupportsReturning 写入是否支持返回生成列
	SupportsReturning bool
	// SupportsJSON 是否原生支持 JSON 列
	SupportsJSON bool
	// SupportsArrays 是否原生支持数组列
	SupportsArrays bool
	// MaxPlaceholders 单条语句的安全占位符上限
	MaxPlaceholders int
}

// 未识别提供方时的保守占位符上限
const defaultMaxPlaceholders = 2000

// CapabilitiesFor 返回提供方的能力集合。
// 未识别的提供方返回保守的默认能力。
func CapabilitiesFor(p Provider) Capabilities {
	switch p {
	case ProviderPostgres:
		return Capabilities{
			SupportsSkipDuplicates: true,
			SupportsReturning:      true,
			SupportsJSON:           true,
			SupportsArrays:         true,
			MaxPlaceholders:        32767,
		}
	case ProviderMySQL:
		return Capabilities{
			SupportsSkipDuplicates: false,
			SupportsJSON:           true,
			MaxPlaceholders:        65535,
		}
	case ProviderSQLite:
		return Capabilities{
			SupportsSkipDuplicates: true,
			SupportsReturning:      true,
			MaxPlaceholders:        32766,
		}
	case ProviderSQLServer:
		return Capabilities{
			MaxPlaceholders: 2100,
		}
	case ProviderMongoDB:
		return Capabilities{
			SupportsJSON:    true,
			MaxPlaceholders: 100000,
		}
	default:
		return Capabilities{
			MaxPlaceholders: defaultMaxPlaceholders,
		}
	}
}

// Capabilities 返回方言对应提供方的能力集合
func (d Dialect) Capabilities() Capabilities {
	return CapabilitiesFor(d.provider)
}
