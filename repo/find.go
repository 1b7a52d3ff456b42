package repo

import (
	"context"
	"sort"
	"sync"

	"ormkit/batch"
	"ormkit/client"
	"ormkit/errors"
	"ormkit/filter"
	"ormkit/logging"
	"ormkit/orbatch"
	"ormkit/pathutil"
)

// FindByFilter 按过滤数组与选项查询。
//
// 执行路径按序判定：
//  1. 搜索中存在超阈值的列表值数组 → 分块查询后客户端合并
//  2. 过滤树恰为顶层 OR → OR 分批路径，排序分页在客户端补做
//  3. 其余 → 单条原生查询，take/skip/orderBy 下推；请求分页时
//     并行发出 count 查询
//
// OnlyOne 时结果至多一条；请求分页时返回值带 Page 元信息。
func (r *Repo) FindByFilter(ctx context.Context, filters []filter.Tree, opts Options) (*FindResult, error) {
	tree := buildTree(filters, &opts)

	if orbatch.NeedsListChunking(opts.Search) {
		return r.findChunked(ctx, filters, opts)
	}

	if members, ok := filter.OrConditions(tree); ok {
		rows, err := orbatch.ExecuteWithOrBatching(ctx, orbatch.ExecuteArgs{
			Client:             r.client,
			Conditions:         members,
			Include:            opts.RelationsToInclude,
			FieldsPerCondition: fieldsPerCondition(members),
			Provider:           r.provider,
			Parallel:           opts.Parallel,
			Concurrency:        opts.Concurrency,
		})
		if err != nil {
			return nil, err
		}
		return r.finishClientSide(rows, opts), nil
	}

	return r.findDirect(ctx, tree, opts)
}

// findDirect 单条原生查询路径
func (r *Repo) findDirect(ctx context.Context, tree filter.Tree, opts Options) (*FindResult, error) {
	args := client.FindManyArgs{
		Where:   tree,
		Include: opts.RelationsToInclude,
		OrderBy: opts.OrderBy,
	}
	paged := opts.Pagination.requested()
	if take, ok := opts.Pagination.take(); ok {
		t := take
		args.Take = &t
	}
	if skip, ok := opts.Pagination.skip(); ok {
		s := skip
		args.Skip = &s
	}
	if opts.OnlyOne {
		one := 1
		args.Take = &one
	}

	// 请求分页时并行发出 count
	var (
		total    int64
		countErr error
		wg       sync.WaitGroup
	)
	if paged && !opts.OnlyOne {
		wg.Add(1)
		go func() {
			defer wg.Done()
			total, countErr = r.client.Count(ctx, tree)
		}()
	}

	rows, err := r.client.FindMany(ctx, args)
	if paged && !opts.OnlyOne {
		wg.Wait()
	}
	if err != nil {
		return nil, errors.Normalize(err)
	}
	if countErr != nil {
		return nil, errors.Normalize(countErr)
	}

	result := &FindResult{Data: rows}
	if paged && !opts.OnlyOne {
		result.Page = r.pageInfo(total, opts.Pagination)
	}
	return result, nil
}

// findChunked 列表分块路径：逐块查询后客户端去重、排序、分页
func (r *Repo) findChunked(ctx context.Context, filters []filter.Tree, opts Options) (*FindResult, error) {
	chunks := orbatch.ChunkListSearches(opts.Search)

	result := batch.ProcessBatches(ctx, chunks, 1,
		func(ctx context.Context, part []*filter.Search, _ int) ([]client.Record, error) {
			chunkOpts := opts
			chunkOpts.Search = part[0]
			tree := buildTree(filters, &chunkOpts)
			return r.client.FindMany(ctx, client.FindManyArgs{
				Where:   tree,
				Include: opts.RelationsToInclude,
			})
		},
		batch.ProcessOptions{
			Parallel:    opts.Parallel,
			Concurrency: opts.Concurrency,
			RateLimit:   opts.RateLimit,
		})

	if result.FailedBatches > 0 {
		r.log.Warn(ctx, "列表分块查询部分失败",
			logging.Int("total", result.TotalBatches),
			logging.Int("failed", result.FailedBatches))
	}

	var all []client.Record
	for _, rows := range result.Results {
		all = append(all, rows...)
	}
	return r.finishClientSide(orbatch.DeduplicateResults(all), opts), nil
}

// finishClientSide 服务端无法保证整体排序分页的路径在这里补做
func (r *Repo) finishClientSide(rows []client.Record, opts Options) *FindResult {
	sortRecords(rows, opts.OrderBy)

	if opts.OnlyOne {
		if len(rows) > 1 {
			rows = rows[:1]
		}
		return &FindResult{Data: rows}
	}

	total := int64(len(rows))
	if opts.Pagination.requested() {
		skip, _ := opts.Pagination.skip()
		take, _ := opts.Pagination.take()
		if skip >= len(rows) {
			rows = nil
		} else {
			rows = rows[skip:]
		}
		if take < len(rows) {
			rows = rows[:take]
		}
		return &FindResult{Data: rows, Page: r.pageInfo(total, opts.Pagination)}
	}
	return &FindResult{Data: rows}
}

func (r *Repo) pageInfo(total int64, p *Pagination) *PageInfo {
	info := &PageInfo{Total: total}
	if p != nil {
		info.Page = p.Page
		info.PageSize = p.PageSize
		if info.Page == 0 {
			info.Page = 1
		}
		if info.PageSize == 0 {
			if take, ok := p.take(); ok {
				info.PageSize = take
			}
		}
	}
	return info
}

// CountByFilter 按过滤数组计数。顶层 OR 超限时退化为分批查询后
// 对去重结果计数。
func (r *Repo) CountByFilter(ctx context.Context, filters []filter.Tree, opts Options) (int64, error) {
	tree := buildTree(filters, &opts)

	if members, ok := filter.OrConditions(tree); ok {
		if orbatch.NeedsOrBatching(r.provider, len(members), fieldsPerCondition(members)) {
			rows, err := orbatch.ExecuteWithOrBatching(ctx, orbatch.ExecuteArgs{
				Client:             r.client,
				Conditions:         members,
				FieldsPerCondition: fieldsPerCondition(members),
				Provider:           r.provider,
				Parallel:           opts.Parallel,
				Concurrency:        opts.Concurrency,
			})
			if err != nil {
				return 0, err
			}
			return int64(len(rows)), nil
		}
	}
	total, err := r.client.Count(ctx, tree)
	if err != nil {
		return 0, errors.Normalize(err)
	}
	return total, nil
}

// fieldsPerCondition 估算每个 OR 成员占用的占位符数，取成员中的
// 最大字段数
func fieldsPerCondition(members []filter.Tree) int {
	max := 1
	for _, m := range members {
		if len(m) > max {
			max = len(m)
		}
	}
	return max
}

// sortRecords 客户端稳定排序
func sortRecords(rows []client.Record, orderBy []client.OrderBy) {
	if len(orderBy) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, o := range orderBy {
			a, _ := pathutil.Get(rows[i], o.Field)
			b, _ := pathutil.Get(rows[j], o.Field)
			c := compareForSort(a, b)
			if c == 0 {
				continue
			}
			if o.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}
