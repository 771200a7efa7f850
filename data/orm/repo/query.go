package repo

import (
	"context"

	"gocrud/data/orm"
)

// Query 已组装的查询，可继续追加选项后执行。
type Query[T any] struct {
	model orm.IModel
	opts  []orm.QueryOption
}

// Options 返回已组装选项的副本
func (q *Query[T]) Options() []orm.QueryOption {
	return append([]orm.QueryOption(nil), q.opts...)
}

// With 返回追加了 opts 的新查询，原查询不变。
func (q *Query[T]) With(opts ...orm.QueryOption) *Query[T] {
	combined := make([]orm.QueryOption, 0, len(q.opts)+len(opts))
	combined = append(combined, q.opts...)
	combined = append(combined, opts...)
	return &Query[T]{model: q.model, opts: combined}
}

func (q *Query[T]) First(ctx context.Context) (*T, error) {
	var record T
	if err := q.model.First(ctx, &record, q.opts...); err != nil {
		return nil, err
	}
	return &record, nil
}

func (q *Query[T]) Find(ctx context.Context) ([]*T, error) {
	var records []*T
	if err := q.model.Find(ctx, &records, q.opts...); err != nil {
		return nil, err
	}
	if records == nil {
		records = []*T{}
	}
	return records, nil
}

func (q *Query[T]) Count(ctx context.Context) (int64, error) {
	return q.model.Count(ctx, q.opts...)
}
