package repo

import (
	"context"
	"math"

	"gocrud/data/orm"
)

// Paginate 分页查询：Total 统计全部匹配记录，Data 为第 Page 页（从 1 开始）。
func (r *Repository[T]) Paginate(ctx context.Context, opts *QueryOptions) (*PagedResult[T], error) {
	return r.paginate(ctx, opts)
}

func (r *Repository[T]) PaginateWithTrashed(ctx context.Context, opts *QueryOptions) (*PagedResult[T], error) {
	return r.paginate(ctx, opts, orm.WithTrashed())
}

func (r *Repository[T]) PaginateFromTrash(ctx context.Context, opts *QueryOptions) (*PagedResult[T], error) {
	return r.paginate(ctx, opts, orm.OnlyTrashed())
}

func (r *Repository[T]) paginate(ctx context.Context, opts *QueryOptions, scope ...orm.QueryOption) (*PagedResult[T], error) {
	q, err := r.BuildQuery(ctx, opts)
	if err != nil {
		return nil, err
	}
	q = q.With(scope...)

	page, size := 1, r.pageSize
	if opts != nil {
		if opts.Page > 1 {
			page = opts.Page
		}
		if opts.Limit > 0 {
			size = opts.Limit
		}
	}

	total, err := q.Count(ctx)
	if err != nil {
		return nil, r.wrapError(ctx, err, "failed to count total records")
	}

	records, err := q.With(orm.WithLimit(size), orm.WithOffset((page-1)*size)).Find(ctx)
	if err != nil {
		return nil, r.wrapError(ctx, err, "failed to execute paginated query")
	}

	return &PagedResult[T]{
		Data:       records,
		Total:      total,
		Page:       page,
		Size:       size,
		TotalPages: int(math.Ceil(float64(total) / float64(size))),
	}, nil
}
