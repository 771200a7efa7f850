package crud

import (
	"gocrud/data/orm"
	"gocrud/logging"
	"gocrud/messaging"
)

// DefaultLimit 默认分页大小
const DefaultLimit = 15

// RelationTarget 对外关联名映射到的内部关联：
// Named 只给出关联名；Computed 额外在预加载时附加约束。
type RelationTarget struct {
	relation   string
	constraint func() orm.Predicate
}

// Named 直接映射到内部关联
func Named(relation string) RelationTarget {
	return RelationTarget{relation: relation}
}

// Computed 映射到内部关联，并在预加载时附加 constraint() 返回的条件
func Computed(relation string, constraint func() orm.Predicate) RelationTarget {
	return RelationTarget{relation: relation, constraint: constraint}
}

func (t RelationTarget) Relation() string { return t.relation }

// Constraint 计算预加载约束，Named 目标返回零值谓词
func (t RelationTarget) Constraint() orm.Predicate {
	if t.constraint == nil {
		return orm.Predicate{}
	}
	return t.constraint()
}

// Config 服务配置
type Config struct {
	// Resource 资源名，用作事件类型前缀（post.created）；为空时取表名
	Resource string

	// AllowedRelations 对外（lowerCamel）关联名 → 内部关联；为空表示不允许任何关联
	AllowedRelations map[string]RelationTarget

	// Filterable 对外字段名 → 内部字段；nil 表示所有参数原样作为过滤字段
	Filterable map[string]string

	// Excludes 始终以 != 条件前置的过滤
	Excludes map[string]any

	DefaultLimit int
	// MaxLimit 0 表示不限制
	MaxLimit int

	Publisher messaging.IPublisher
	Logger    logging.Logger
}
