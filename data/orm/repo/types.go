package repo

import (
	"strings"

	"gocrud/data/orm"
)

// Operator 过滤操作符（固定白名单）
type Operator string

const (
	OpEqual          Operator = "="
	OpNotEqual       Operator = "!="
	OpGreater        Operator = ">"
	OpGreaterOrEqual Operator = ">="
	OpLess           Operator = "<"
	OpLessOrEqual    Operator = "<="
	OpContain        Operator = "contain"
	OpBetween        Operator = "between"
	OpDate           Operator = "date"
	OpExists         Operator = "exists"
	OpNotHas         Operator = "not_has"
)

var operators = map[Operator]struct{}{
	OpEqual: {}, OpNotEqual: {}, OpGreater: {}, OpGreaterOrEqual: {},
	OpLess: {}, OpLessOrEqual: {}, OpContain: {}, OpBetween: {},
	OpDate: {}, OpExists: {}, OpNotHas: {},
}

func (o Operator) IsValid() bool {
	_, ok := operators[o]
	return ok
}

// ParseOperator 解析操作符字面量，大小写与首尾空白不敏感。
func ParseOperator(s string) (Operator, bool) {
	op := Operator(strings.ToLower(strings.TrimSpace(s)))
	return op, op.IsValid()
}

// SortDirection 排序方向
type SortDirection string

const (
	ASC  SortDirection = "asc"
	DESC SortDirection = "desc"
)

func (s SortDirection) IsValid() bool { return s == ASC || s == DESC }

// ParseSortDirection 解析排序方向（asc/desc，大小写不敏感）。
func ParseSortDirection(s string) (SortDirection, bool) {
	d := SortDirection(strings.ToLower(strings.TrimSpace(s)))
	return d, d.IsValid()
}

// Filter 单个过滤条件。Field 可以是 rel.col 或 rel1.rel2.col 形式的关联路径，
// Value 为标量或序列（序列在非 between 操作符下转换为 IN）。
type Filter struct {
	Field    string   `json:"field"`
	Value    any      `json:"value"`
	Operator Operator `json:"operator"`
}

// Sort 排序项，切片顺序即 ORDER BY 顺序
type Sort struct {
	Field     string        `json:"field"`
	Direction SortDirection `json:"direction"`
}

// Relation 预加载的关联，Constraint 非空时作为预加载的附加条件
type Relation struct {
	Name       string        `json:"name"`
	Constraint orm.Predicate `json:"-"`
}

// QueryOptions 单次请求的查询选项，由服务层构建，仓储只读不改。
type QueryOptions struct {
	Fields       []string   `json:"fields"`
	Filters      []Filter   `json:"filters"`
	Search       string     `json:"search"`
	SearchFields []string   `json:"search_fields"`
	Sorts        []Sort     `json:"sorts"`
	Relations    []Relation `json:"relations"`
	Counts       []string   `json:"counts"`
	Limit        int        `json:"limit"`
	Page         int        `json:"page"`
}

// PagedResult 分页结果
type PagedResult[T any] struct {
	Data       []*T  `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	TotalPages int   `json:"total_pages"`
}
