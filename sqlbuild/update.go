package sqlbuild

import (
	"fmt"
	"strings"

	"ormkit/client"
	"ormkit/dialect"
	"ormkit/errors"
	"ormkit/meta"
)

// BuildUpdateQuery 将一批按主键的行更新合并为单条 UPDATE 语句。
//
// 每个字段生成一段 CASE 表达式：批内各行取各自的新值，批外的行
// 经 ELSE 分支保持原值；最后以 WHERE id IN (...) 限定范围。
// PostgreSQL 方言下 JSON 字段的值追加 ::jsonb 转换。
//
// 行缺少 id、表名或字段名不合法、批内没有可更新字段时返回错误。
func BuildUpdateQuery(batch []client.Record, tableName string, model *meta.ModelMeta, d dialect.Dialect) (string, error) {
	if len(batch) == 0 {
		return "", errors.NewError(errors.ErrCodeInvalidInput, "批量更新的批次为空")
	}
	if !IsSafeIdentifier(tableName) {
		return "", errors.NewError(errors.ErrCodeInvalidInput,
			"表名不合法: "+tableName)
	}

	idColumn := "id"
	if model != nil {
		idColumn = model.PrimaryKeyField()
	}
	if !IsSafeIdentifier(idColumn) {
		return "", errors.NewError(errors.ErrCodeInvalidInput,
			"主键列不合法: "+idColumn)
	}

	// 按首次出现顺序收集字段，值按 id 分组
	var fieldOrder []string
	valuesByField := make(map[string]map[string]any)
	var ids []any
	seenIDs := make(map[string]bool)

	for _, row := range batch {
		id, ok := row[idColumn]
		if !ok || id == nil {
			return "", errors.NewError(errors.ErrCodeInvalidInput,
				"批量更新的行缺少主键")
		}
		idKey := fmt.Sprintf("%v", id)
		if !seenIDs[idKey] {
			seenIDs[idKey] = true
			ids = append(ids, id)
		}
		for field, value := range row {
			if field == idColumn {
				continue
			}
			if _, ok := valuesByField[field]; !ok {
				valuesByField[field] = make(map[string]any)
				fieldOrder = append(fieldOrder, field)
			}
			valuesByField[field][idKey] = value
		}
	}

	if len(fieldOrder) == 0 {
		return "", errors.NewError(errors.ErrCodeInvalidInput, "批量更新没有可更新字段")
	}

	var sb strings.Builder
	sb.WriteString("UPDATE ")
	sb.WriteString(d.QuoteIdentifier(tableName))
	sb.WriteString(" SET ")

	for i, field := range fieldOrder {
		if !IsSafeIdentifier(field) {
			return "", errors.NewError(errors.ErrCodeInvalidInput,
				"字段名不合法: "+field)
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		isJSON := false
		if model != nil {
			if fm, ok := model.Field(field); ok {
				isJSON = fm.IsJSON()
			}
		}

		quoted := d.QuoteIdentifier(field)
		sb.WriteString(quoted)
		sb.WriteString(" = CASE ")
		sb.WriteString(d.QuoteIdentifier(idColumn))
		for _, id := range ids {
			idKey := fmt.Sprintf("%v", id)
			value, present := valuesByField[field][idKey]
			if !present {
				continue
			}
			sb.WriteString(" WHEN ")
			sb.WriteString(EscapeValue(id, d, false))
			sb.WriteString(" THEN ")
			sb.WriteString(EscapeValue(value, d, isJSON))
			if isJSON && d.Provider() == dialect.ProviderPostgres {
				sb.WriteString("::jsonb")
			}
		}
		sb.WriteString(" ELSE ")
		sb.WriteString(quoted)
		sb.WriteString(" END")
	}

	sb.WriteString(" WHERE ")
	sb.WriteString(d.QuoteIdentifier(idColumn))
	sb.WriteString(" IN (")
	for i, id := range ids {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(EscapeValue(id, d, false))
	}
	sb.WriteString(")")

	return sb.String(), nil
}
