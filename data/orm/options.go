package orm

// Condition 表示原始查询条件，Expr 使用占位符 ?，Args 对应参数列表。
type Condition struct {
	Expr string
	Args []any
}

// OrderBy 表示排序字段。
type OrderBy struct {
	Column string
	Desc   bool
}

// Preload 表示预加载的关联及其附加约束。
type Preload struct {
	Name  string
	Where []Predicate
}

// TrashedScope 软删除可见性。
type TrashedScope int

const (
	// TrashedExcluded 默认：排除已软删除记录
	TrashedExcluded TrashedScope = iota
	// TrashedIncluded 包含已软删除记录
	TrashedIncluded
	// TrashedOnly 只返回已软删除记录
	TrashedOnly
)

// LockMode 读锁模式。
type LockMode int

const (
	LockNone LockMode = iota
	LockForUpdate
	LockShared
)

// QueryOptions 描述查询/更新的通用选项。
type QueryOptions struct {
	Where   []Condition
	Filters []Predicate
	OrderBy []OrderBy
	Limit   int
	Offset  int
	Select  []string
	Preload []Preload
	Counts  []string
	Trashed TrashedScope
	Lock    LockMode
}

// QueryOption 用于配置 QueryOptions。
type QueryOption func(*QueryOptions)

// WithWhere 追加原始查询条件。
func WithWhere(expr string, args ...any) QueryOption {
	return func(opts *QueryOptions) {
		if expr == "" {
			return
		}
		opts.Where = append(opts.Where, Condition{Expr: expr, Args: args})
	}
}

// WithFilter 追加谓词树，空谓词被忽略。
func WithFilter(preds ...Predicate) QueryOption {
	return func(opts *QueryOptions) {
		for _, p := range preds {
			if !p.IsZero() {
				opts.Filters = append(opts.Filters, p)
			}
		}
	}
}

// WithOrderBy 追加排序。
func WithOrderBy(column string, desc bool) QueryOption {
	return func(opts *QueryOptions) {
		if column == "" {
			return
		}
		opts.OrderBy = append(opts.OrderBy, OrderBy{Column: column, Desc: desc})
	}
}

// WithLimit 设置查询条数上限。
func WithLimit(limit int) QueryOption {
	return func(opts *QueryOptions) {
		if limit > 0 {
			opts.Limit = limit
		}
	}
}

// WithOffset 设置查询偏移。
func WithOffset(offset int) QueryOption {
	return func(opts *QueryOptions) {
		if offset > 0 {
			opts.Offset = offset
		}
	}
}

// WithSelect 指定返回列。
func WithSelect(columns ...string) QueryOption {
	return func(opts *QueryOptions) {
		if len(columns) == 0 {
			return
		}
		opts.Select = append(opts.Select, columns...)
	}
}

// WithPreload 追加预加载关联。
func WithPreload(relations ...string) QueryOption {
	return func(opts *QueryOptions) {
		for _, name := range relations {
			if name != "" {
				opts.Preload = append(opts.Preload, Preload{Name: name})
			}
		}
	}
}

// WithPreloadWhere 追加带约束的预加载。
func WithPreloadWhere(relation string, constraints ...Predicate) QueryOption {
	return func(opts *QueryOptions) {
		if relation == "" {
			return
		}
		opts.Preload = append(opts.Preload, Preload{Name: relation, Where: compact(constraints)})
	}
}

// WithCount 追加关联计数列（<relation>_count）。
func WithCount(relations ...string) QueryOption {
	return func(opts *QueryOptions) {
		for _, name := range relations {
			if name != "" {
				opts.Counts = append(opts.Counts, name)
			}
		}
	}
}

// WithTrashed 读取时包含已软删除记录。
func WithTrashed() QueryOption {
	return func(opts *QueryOptions) {
		opts.Trashed = TrashedIncluded
	}
}

// OnlyTrashed 读取时只返回已软删除记录。
func OnlyTrashed() QueryOption {
	return func(opts *QueryOptions) {
		opts.Trashed = TrashedOnly
	}
}

// WithForUpdate 标记需要排他行锁。
func WithForUpdate() QueryOption {
	return func(opts *QueryOptions) {
		opts.Lock = LockForUpdate
	}
}

// WithSharedLock 标记需要共享读锁。
func WithSharedLock() QueryOption {
	return func(opts *QueryOptions) {
		opts.Lock = LockShared
	}
}

// CollectQueryOptions 聚合 QueryOption，方便适配器读取。
func CollectQueryOptions(options ...QueryOption) QueryOptions {
	var opts QueryOptions
	for _, opt := range options {
		if opt != nil {
			opt(&opts)
		}
	}
	return opts
}
