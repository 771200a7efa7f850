package repo

import (
	"context"
	ers "errors"
	"fmt"

	"gocrud/data/orm"
	"gocrud/errors"
	"gocrud/logging"
)

// GetOne 按主键查询，不存在时返回 (nil, nil)。
func (r *Repository[T]) GetOne(ctx context.Context, id any, opts *QueryOptions) (*T, error) {
	record, err := r.findByID(ctx, id, opts)
	if ers.Is(err, orm.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, r.wrapError(ctx, err, "get one")
	}
	return record, nil
}

// GetOneOrFail 按主键查询，不存在时返回 NOT_FOUND。
func (r *Repository[T]) GetOneOrFail(ctx context.Context, id any, opts *QueryOptions) (*T, error) {
	return r.getOneOrFail(ctx, id, opts)
}

// GetOneWithTrashedOrFail 同 GetOneOrFail，但包含已软删除记录。
func (r *Repository[T]) GetOneWithTrashedOrFail(ctx context.Context, id any, opts *QueryOptions) (*T, error) {
	return r.getOneOrFail(ctx, id, opts, orm.WithTrashed())
}

// GetOneFromTrashOrFail 只在已软删除记录中查找。
func (r *Repository[T]) GetOneFromTrashOrFail(ctx context.Context, id any, opts *QueryOptions) (*T, error) {
	return r.getOneOrFail(ctx, id, opts, orm.OnlyTrashed())
}

func (r *Repository[T]) getOneOrFail(ctx context.Context, id any, opts *QueryOptions, scope ...orm.QueryOption) (*T, error) {
	record, err := r.findByID(ctx, id, opts, scope...)
	if ers.Is(err, orm.ErrNotFound) {
		return nil, errors.NewNotFoundError(fmt.Sprintf("%s %v not found", r.meta.Table, id)).
			WithContext("id", id)
	}
	if err != nil {
		return nil, r.wrapError(ctx, err, "get one")
	}
	return record, nil
}

func (r *Repository[T]) findByID(ctx context.Context, id any, opts *QueryOptions, scope ...orm.QueryOption) (*T, error) {
	q, err := r.BuildQuery(ctx, opts)
	if err != nil {
		return nil, err
	}
	scope = append(scope,
		orm.WithFilter(orm.Where(r.meta.PrimaryKeyColumn(), string(OpEqual), id)),
		orm.WithLimit(1),
	)
	return q.With(scope...).First(ctx)
}

// GetMany 返回满足条件的全部（未删除）记录
func (r *Repository[T]) GetMany(ctx context.Context, opts *QueryOptions) ([]*T, error) {
	return r.getMany(ctx, opts)
}

func (r *Repository[T]) GetManyWithTrashed(ctx context.Context, opts *QueryOptions) ([]*T, error) {
	return r.getMany(ctx, opts, orm.WithTrashed())
}

func (r *Repository[T]) GetManyFromTrash(ctx context.Context, opts *QueryOptions) ([]*T, error) {
	return r.getMany(ctx, opts, orm.OnlyTrashed())
}

func (r *Repository[T]) getMany(ctx context.Context, opts *QueryOptions, scope ...orm.QueryOption) ([]*T, error) {
	q, err := r.BuildQuery(ctx, opts)
	if err != nil {
		return nil, err
	}
	records, err := q.With(scope...).Find(ctx)
	if err != nil {
		return nil, r.wrapError(ctx, err, "get many")
	}
	return records, nil
}

// Count 统计满足过滤与搜索条件的记录数
func (r *Repository[T]) Count(ctx context.Context, opts *QueryOptions) (int64, error) {
	q, err := r.BuildQuery(ctx, opts)
	if err != nil {
		return 0, err
	}
	total, err := q.Count(ctx)
	if err != nil {
		return 0, r.wrapError(ctx, err, "count")
	}
	return total, nil
}

// LatestWithSharedLock 在共享读锁下读取 column 最大的一条记录，不存在时返回 (nil, nil)。
// 需在事务中调用锁才有意义（见 Transaction）；SQLite 不支持行锁，忽略锁子句。
func (r *Repository[T]) LatestWithSharedLock(ctx context.Context, column string) (*T, error) {
	if !isSafeIdentifier(column) {
		return nil, errors.NewValidationError(fmt.Sprintf("invalid column %q", column)).
			WithContext("column", column)
	}
	if err := r.requireCapability(orm.CapabilityLocking, "shared lock"); err != nil {
		return nil, err
	}
	q := &Query[T]{model: r.model}
	record, err := q.With(
		orm.WithOrderBy(column, true),
		orm.WithLimit(1),
		orm.WithSharedLock(),
	).First(ctx)
	if ers.Is(err, orm.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, r.wrapError(ctx, err, "latest with shared lock", logging.String("column", column))
	}
	return record, nil
}
