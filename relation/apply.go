package relation

import (
	"context"
	"fmt"
	"strings"

	"ormkit/client"
	"ormkit/dialect"
	"ormkit/logging"
	"ormkit/sqlbuild"
)

// ApplyArgs 多对多回填参数
type ApplyArgs struct {
	// Extraction 之前抽离的多对多负载
	Extraction *Extraction
	// EntityIDs 抽离下标到已落库实体 id 的映射；缺失的下标跳过
	EntityIDs map[int]any
	// ModelName 源模型名
	ModelName string
	// Client 隐式关联走 ORM 的 connect 更新
	Client client.IModelClient
	// Raw 显式关联直接写连接表；nil 时显式负载计为失败
	Raw client.IRawExecutor
	// JoinTables 显式字段到连接表描述的映射
	JoinTables map[string]*JoinTableRef
	// Provider 决定连接表写入的去重语法
	Provider dialect.Provider
}

// JoinTableRef 显式多对多字段的连接表信息
type JoinTableRef struct {
	TableName   string
	SourceField string
	TargetField string
}

// ApplyResult 回填结果，失败只记日志不抛出
type ApplyResult struct {
	Success int
	Failed  int
}

// ApplyManyToMany 在主体写入完成后回填多对多关联。
//
// 隐式关联按实体聚合为一次 connect 更新；显式关联跳过 ORM 的
// 关联 API，按提供者语法直接插入连接表行并条件性跳过重复。
// 主体数据此时已经落库，单个关联失败只累计计数并记日志。
func ApplyManyToMany(ctx context.Context, args ApplyArgs) ApplyResult {
	log := logging.ComponentLogger("relation")
	var result ApplyResult

	for index, fields := range args.Extraction.ByIndex {
		entityID, ok := args.EntityIDs[index]
		if !ok || entityID == nil {
			continue
		}

		// 聚合该实体的全部隐式字段，合并为一次更新
		implicitUpdate := make(client.Record)
		for field, targetIDs := range fields {
			switch args.Extraction.Cardinality[field] {
			case CardinalityImplicit:
				connects := make([]any, len(targetIDs))
				for i, id := range targetIDs {
					connects[i] = map[string]any{"id": id}
				}
				implicitUpdate[field] = map[string]any{"connect": connects}
			case CardinalityExplicit:
				n, failed := applyExplicit(ctx, args, field, entityID, targetIDs)
				result.Success += n
				result.Failed += failed
			}
		}

		if len(implicitUpdate) > 0 {
			if _, err := args.Client.Update(ctx, entityID, implicitUpdate); err != nil {
				result.Failed++
				log.Warn(ctx, "隐式多对多回填失败",
					logging.String("model", args.ModelName),
					logging.Any("entityId", entityID),
					logging.Error(err))
			} else {
				result.Success++
			}
		}
	}
	return result
}

// applyExplicit 向物理连接表逐行插入，返回 (成功数, 失败数)
func applyExplicit(ctx context.Context, args ApplyArgs, field string, entityID any, targetIDs []any) (int, int) {
	log := logging.ComponentLogger("relation")

	jt := args.JoinTables[field]
	if jt == nil || args.Raw == nil {
		log.Warn(ctx, "显式多对多缺少连接表或原生执行器",
			logging.String("model", args.ModelName),
			logging.String("field", field))
		return 0, len(targetIDs)
	}
	if !sqlbuild.IsSafeIdentifier(jt.TableName) ||
		!sqlbuild.IsSafeIdentifier(jt.SourceField) ||
		!sqlbuild.IsSafeIdentifier(jt.TargetField) {
		log.Warn(ctx, "连接表标识符不合法",
			logging.String("table", jt.TableName))
		return 0, len(targetIDs)
	}

	d := dialect.New(args.Provider)
	success, failed := 0, 0
	for _, targetID := range targetIDs {
		query := buildJoinInsert(d, args.Provider, jt, entityID, targetID)
		if _, err := args.Raw.ExecRaw(ctx, query); err != nil {
			failed++
			log.Warn(ctx, "连接表写入失败",
				logging.String("table", jt.TableName),
				logging.Any("source", entityID),
				logging.Any("target", targetID),
				logging.Error(err))
		} else {
			success++
		}
	}
	return success, failed
}

// buildJoinInsert 生成带提供者条件去重的连接表插入语句
func buildJoinInsert(d dialect.Dialect, p dialect.Provider, jt *JoinTableRef, sourceID, targetID any) string {
	var b strings.Builder
	verb := "INSERT"
	if p == dialect.ProviderMySQL {
		verb = "INSERT IGNORE"
	}
	fmt.Fprintf(&b, "%s INTO %s (%s, %s) VALUES (%s, %s)",
		verb,
		d.QuoteIdentifier(jt.TableName),
		d.QuoteIdentifier(jt.SourceField),
		d.QuoteIdentifier(jt.TargetField),
		sqlbuild.EscapeValue(sourceID, d, false),
		sqlbuild.EscapeValue(targetID, d, false))
	if p == dialect.ProviderPostgres || p == dialect.ProviderSQLite {
		b.WriteString(" ON CONFLICT DO NOTHING")
	}
	return b.String()
}
