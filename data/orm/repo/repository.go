// Package repo 把 QueryOptions（过滤、关联路径、搜索、排序、计数、预加载、分页）翻译为 ORM 查询。
//
// between 的两个槽位中 nil、空串与 false 视为开放端；0 与 "0" 是有效边界，
// 例如 views=0, 得到 views >= 0。= / != 与 nil 比较时渲染为 IS NULL / IS NOT NULL。
package repo

import (
	"context"
	"fmt"

	"gocrud/data/orm"
	"gocrud/errors"
	"gocrud/logging"
	"gocrud/validation"
)

// DefaultPageSize 未指定 Limit 时的分页大小
const DefaultPageSize = 15

// Repository 基于 gocrud/data/orm 的通用仓储：把 QueryOptions 翻译为 ORM 查询并执行终端操作。
type Repository[T any] struct {
	orm       orm.IOrm
	meta      *orm.ModelMeta
	model     orm.IModel
	validator validation.IValidator
	logger    logging.Logger
	pageSize  int
}

// Option 仓储构造选项
type Option func(*options)

type options struct {
	validator validation.IValidator
	logger    logging.Logger
	pageSize  int
}

// WithValidator 替换写入前的实体校验器，默认 validation.Default()。
func WithValidator(v validation.IValidator) Option {
	return func(o *options) {
		if v != nil {
			o.validator = v
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithPageSize 覆盖默认分页大小
func WithPageSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.pageSize = size
		}
	}
}

// NewRepository 创建仓储实例。
func NewRepository[T any](engine orm.IOrm, meta *orm.ModelMeta, opts ...Option) *Repository[T] {
	if meta.Model == nil {
		meta.Model = new(T)
	}
	o := options{
		validator: validation.Default(),
		logger:    logging.GetLogger(),
		pageSize:  DefaultPageSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Repository[T]{
		orm:       engine,
		meta:      meta,
		model:     engine.Model(meta),
		validator: o.validator,
		logger: o.logger.WithFields(
			logging.Component("repo"),
			logging.String("table", meta.Table),
		),
		pageSize: o.pageSize,
	}
}

// Model 暴露底层模型
func (r *Repository[T]) Model() orm.IModel { return r.model }

// Orm 返回绑定的 ORM 引擎。
func (r *Repository[T]) Orm() orm.IOrm { return r.orm }

func (r *Repository[T]) Meta() *orm.ModelMeta { return r.meta }

// BuildQuery 按固定顺序组装查询：
// select → filters(AND) → search(OR) → sorts → counts → eager-loads → limit。
// opts 为 nil 等价于空选项；opts 本身不会被修改。
func (r *Repository[T]) BuildQuery(ctx context.Context, opts *QueryOptions) (*Query[T], error) {
	q := &Query[T]{model: r.model}
	if opts == nil {
		return q, nil
	}

	if fields := sanitizeFields(opts.Fields); len(fields) > 0 {
		q.opts = append(q.opts, orm.WithSelect(fields...))
	}

	filters := make([]orm.Predicate, 0, len(opts.Filters))
	for _, f := range opts.Filters {
		p, err := filterPredicate(f)
		if err != nil {
			return nil, err
		}
		filters = append(filters, p)
	}
	if group := orm.And(filters...); len(group.Children) > 0 {
		q.opts = append(q.opts, orm.WithFilter(group))
	}

	search, err := searchPredicate(opts.Search, opts.SearchFields)
	if err != nil {
		return nil, err
	}
	if len(search.Children) > 0 {
		q.opts = append(q.opts, orm.WithFilter(search))
	}

	for _, s := range opts.Sorts {
		// 关联路径上的列不在主表中，排序时跳过
		if !isSafeIdentifier(s.Field) || !s.Direction.IsValid() {
			r.logger.Debug(ctx, "skip unsafe sort", logging.String("field", s.Field))
			continue
		}
		q.opts = append(q.opts, orm.WithOrderBy(s.Field, s.Direction == DESC))
	}

	if len(opts.Counts) > 0 {
		if err := r.requireCapability(orm.CapabilityRelations, "count relations"); err != nil {
			return nil, err
		}
		q.opts = append(q.opts, orm.WithCount(opts.Counts...))
	}

	if len(opts.Relations) > 0 {
		if err := r.requireCapability(orm.CapabilityPreload, "eager load"); err != nil {
			return nil, err
		}
	}
	for _, rel := range opts.Relations {
		if rel.Constraint.IsZero() {
			q.opts = append(q.opts, orm.WithPreload(rel.Name))
		} else {
			q.opts = append(q.opts, orm.WithPreloadWhere(rel.Name, rel.Constraint))
		}
	}

	if opts.Limit > 0 {
		q.opts = append(q.opts, orm.WithLimit(opts.Limit))
	}
	return q, nil
}

// Transaction 在事务中执行 fn，fn 收到绑定到事务会话的仓储副本。
// 在事务副本上再次调用时以保存点嵌套，内层失败只回滚到保存点。
func (r *Repository[T]) Transaction(ctx context.Context, fn func(tx *Repository[T]) error) (err error) {
	if err := r.requireCapability(orm.CapabilityTransaction, "transaction"); err != nil {
		return err
	}
	session, err := r.orm.Begin(ctx)
	if err != nil {
		return r.wrapError(ctx, err, "begin")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = session.Rollback()
			panic(p)
		}
	}()

	txRepo := *r
	txRepo.orm = session
	txRepo.model = session.Model(r.meta)
	if err = fn(&txRepo); err != nil {
		if rbErr := session.Rollback(); rbErr != nil {
			r.logger.Warn(ctx, "rollback failed", logging.Error(rbErr))
		}
		return err
	}
	if err = session.Commit(); err != nil {
		return r.wrapError(ctx, err, "commit")
	}
	return nil
}

// requireCapability 适配器未声明 capability 时返回 UNSUPPORTED
func (r *Repository[T]) requireCapability(capability orm.Capability, operation string) error {
	if r.orm.Capabilities().Supports(capability) {
		return nil
	}
	return errors.NewError(errors.ErrCodeUnsupported,
		fmt.Sprintf("%s on %s requires %s support", operation, r.meta.Table, capability)).
		WithContext("capability", string(capability))
}
