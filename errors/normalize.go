package errors

import "strings"

// Normalize 将驱动层错误规范化为 AppError。
//
// 设计目标：
//   - 对外统一暴露 ErrorCode 体系，调用方按 code 分类处理；
//   - 保留原始错误作为 cause，方便日志与调试；
//   - 只识别本层关心的错误族（唯一键冲突、未找到），其余保持原样。
//
// 注意：
//   - 如果传入的 err 已经是 IError，则原样返回；
//   - 未识别的错误保持原样，不强行包装，交由调用方决定是否 Wrap。
func Normalize(err error) error {
	if err == nil {
		return nil
	}

	// 已经是 AppError，直接返回
	if _, ok := err.(IError); ok {
		return err
	}

	if IsUniqueViolationMessage(err) {
		return WrapError(err, ErrCodeDuplicate, "唯一键冲突")
	}

	if isNotFoundMessage(err) {
		return WrapError(err, ErrCodeNotFound, "记录未找到")
	}

	// 未识别的错误保持原样
	return err
}

// IsUniqueViolationMessage 按错误消息识别唯一键/主键冲突。
//
// 覆盖常见数据库的典型错误格式：
//   - MySQL: "Duplicate entry", "duplicate key" (Error 1062, 1586)
//   - SQLite: "UNIQUE constraint failed"
//   - Postgres: "duplicate key value", "unique constraint" (Error 23505)
//   - SQL Server: "Violation of UNIQUE KEY constraint"
//   - MongoDB: "E11000 duplicate key"
//
// 消息匹配受数据库版本与语言设置影响，精确判断应使用驱动
// 提供的错误类型；对本层的重试分类来说这种权衡可以接受。
func IsUniqueViolationMessage(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique key constraint") ||
		strings.Contains(msg, "e11000")
}

func isNotFoundMessage(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no rows in result set") ||
		strings.Contains(msg, "record not found")
}
