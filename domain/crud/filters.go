package crud

import "gocrud/data/orm/repo"

// FilterBuilder 提供类型安全的过滤条件构建器，用于 Service.AppendFilters。
//
// 字段可以是关联路径（author.name、comments.post.title）。
type FilterBuilder struct {
	filters []repo.Filter
}

// NewFilterBuilder 创建新的过滤构建器。
func NewFilterBuilder() *FilterBuilder {
	return &FilterBuilder{}
}

func (b *FilterBuilder) add(field string, op repo.Operator, value any) *FilterBuilder {
	if field == "" {
		return b
	}
	b.filters = append(b.filters, repo.Filter{Field: field, Value: value, Operator: op})
	return b
}

// Eq 等值匹配：field = value，value 为 nil 时匹配 field IS NULL
func (b *FilterBuilder) Eq(field string, value any) *FilterBuilder {
	return b.add(field, repo.OpEqual, value)
}

// Ne 不等于：field != value，value 为 nil 时匹配 field IS NOT NULL
func (b *FilterBuilder) Ne(field string, value any) *FilterBuilder {
	return b.add(field, repo.OpNotEqual, value)
}

// Gt 大于：field > value
func (b *FilterBuilder) Gt(field string, value any) *FilterBuilder {
	return b.add(field, repo.OpGreater, value)
}

// Gte 大于等于：field >= value
func (b *FilterBuilder) Gte(field string, value any) *FilterBuilder {
	return b.add(field, repo.OpGreaterOrEqual, value)
}

// Lt 小于：field < value
func (b *FilterBuilder) Lt(field string, value any) *FilterBuilder {
	return b.add(field, repo.OpLess, value)
}

// Lte 小于等于：field <= value
func (b *FilterBuilder) Lte(field string, value any) *FilterBuilder {
	return b.add(field, repo.OpLessOrEqual, value)
}

// Contain 大小写不敏感的子串匹配
func (b *FilterBuilder) Contain(field, value string) *FilterBuilder {
	return b.add(field, repo.OpContain, value)
}

// Between 闭区间，from/to 传 nil 或空串表示该端不限
func (b *FilterBuilder) Between(field string, from, to any) *FilterBuilder {
	return b.add(field, repo.OpBetween, []any{from, to})
}

// Date 只比较日期部分
func (b *FilterBuilder) Date(field string, value any) *FilterBuilder {
	return b.add(field, repo.OpDate, value)
}

// Exists present=true 表示 IS NOT NULL，否则 IS NULL
func (b *FilterBuilder) Exists(field string, present bool) *FilterBuilder {
	return b.add(field, repo.OpExists, present)
}

// NotHas 不存在关联记录，relationPath 形如 comments 或 author.posts
func (b *FilterBuilder) NotHas(relationPath string) *FilterBuilder {
	return b.add(relationPath, repo.OpNotHas, nil)
}

// In IN 列表
func (b *FilterBuilder) In(field string, values ...any) *FilterBuilder {
	if len(values) == 0 {
		return b
	}
	return b.add(field, repo.OpEqual, values)
}

// Build 返回构建结果的副本
func (b *FilterBuilder) Build() []repo.Filter {
	if len(b.filters) == 0 {
		return nil
	}
	return append([]repo.Filter(nil), b.filters...)
}
