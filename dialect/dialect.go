// Package dialect 抽象底层数据库提供方的方言能力。
//
// 只抽象本层实际用到的能力：
//   - 标识符转义与布尔字面量（批量 UPDATE 语句构建）；
//   - 唯一键/主键冲突错误识别（批量创建的重试分类）；
//   - 占位符上限与各操作的批次大小（OR 批量与分批写入）。
package dialect

import "strings"

// Provider 标准化的数据库提供方名称
type Provider string

const (
	ProviderMySQL     Provider = "mysql"
	ProviderPostgres  Provider = "postgres"
	ProviderSQLite    Provider = "sqlite"
	ProviderSQLServer Provider = "sqlserver"
	ProviderMongoDB   Provider = "mongodb"
	ProviderUnknown   Provider = ""
)

// ParseProvider 根据字符串构造提供方（大小写不敏感）
func ParseProvider(name string) Provider {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mysql":
		return ProviderMySQL
	case "postgres", "postgresql":
		return ProviderPostgres
	case "sqlite", "sqlite3":
		return ProviderSQLite
	case "sqlserver", "mssql":
		return ProviderSQLServer
	case "mongodb", "mongo":
		return ProviderMongoDB
	default:
		return ProviderUnknown
	}
}

// IsDocument 是否为文档型提供方（无原生 SQL 批量 UPDATE 能力）
func (p Provider) IsDocument() bool {
	return p == ProviderMongoDB
}

// Dialect 表示当前数据库的方言能力
type Dialect struct {
	provider Provider
}

// New 根据提供方构造方言
func New(provider Provider) Dialect {
	return Dialect{provider: provider}
}

// Provider 返回标准化提供方名
func (d Dialect) Provider() Provider {
	return d.provider
}

// QuoteIdentifier 根据方言对标识符进行转义（如表名/列名）。
//
// 约定：
//   - 支持 schema.table、table.column 等带点形式，会对每一段分别加引号；
//   - MySQL 使用反引号，Postgres/SQLite 使用双引号，SQL Server 使用方括号；
//   - Unknown/文档型方言返回原始字符串，不做修改；
//   - 该方法不负责校验标识符语法，仅负责按方言加引号。
func (d Dialect) QuoteIdentifier(name string) string {
	if name == "" {
		return ""
	}
	parts := strings.Split(name, ".")
	for i, p := range parts {
		if p == "" {
			continue
		}
		switch d.provider {
		case ProviderMySQL:
			parts[i] = "`" + p + "`"
		case ProviderPostgres, ProviderSQLite:
			parts[i] = `"` + p + `"`
		case ProviderSQLServer:
			parts[i] = "[" + p + "]"
		default:
			// 未知方言：保持原样
		}
	}
	return strings.Join(parts, ".")
}

// BooleanLiteral 返回方言的布尔字面量。
// MySQL/SQLite/SQL Server 使用 1/0，Postgres 使用 TRUE/FALSE。
func (d Dialect) BooleanLiteral(v bool) string {
	switch d.provider {
	case ProviderPostgres:
		if v {
			return "TRUE"
		}
		return "FALSE"
	default:
		if v {
			return "1"
		}
		return "0"
	}
}

// SupportsReturning 是否支持 RETURNING 子句
func (d Dialect) SupportsReturning() bool {
	switch d.provider {
	case ProviderPostgres, ProviderSQLite:
		return true
	default:
		return false
	}
}

// IsUniqueViolation 判断错误是否为唯一键/主键冲突
//
// 实现说明：
//   - 使用错误消息的关键字匹配，覆盖常见数据库的典型错误格式；
//   - 依赖错误消息文本可能受数据库版本、语言设置影响，
//     如需精确判断应使用驱动提供的错误类型（如 MySQL Error 1062、
//     Postgres Error 23505）。
func (d Dialect) IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	switch d.provider {
	case ProviderMySQL:
		return strings.Contains(msg, "duplicate entry") ||
			strings.Contains(msg, "duplicate key")
	case ProviderSQLite:
		return strings.Contains(msg, "unique constraint failed")
	case ProviderPostgres:
		return strings.Contains(msg, "duplicate key") ||
			strings.Contains(msg, "unique constraint")
	case ProviderSQLServer:
		return strings.Contains(msg, "unique key constraint") ||
			strings.Contains(msg, "duplicate key")
	case ProviderMongoDB:
		return strings.Contains(msg, "e11000") ||
			strings.Contains(msg, "duplicate key")
	default:
		// 对未知方言做宽松匹配，宁可返回 false 也不误判
		return strings.Contains(msg, "duplicate key") ||
			strings.Contains(msg, "unique constraint")
	}
}
