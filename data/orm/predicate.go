package orm

// PredicateKind 谓词类型。
type PredicateKind string

const (
	PredicateCompare    PredicateKind = "compare"
	PredicateIn         PredicateKind = "in"
	PredicateBetween    PredicateKind = "between"
	PredicateNull       PredicateKind = "null"
	PredicateNotNull    PredicateKind = "not_null"
	PredicateDate       PredicateKind = "date"
	PredicateILike      PredicateKind = "ilike"
	PredicateAnd        PredicateKind = "and"
	PredicateOr         PredicateKind = "or"
	PredicateHas        PredicateKind = "has"
	PredicateDoesntHave PredicateKind = "doesnt_have"
	PredicateRaw        PredicateKind = "raw"
)

// Predicate 与具体 SQL 方言无关的条件树，由适配器渲染。
//
// Column 为当前模型（或 Has/DoesntHave 所在关联目标模型）的列名；
// Has/DoesntHave 的 Children 在关联目标模型上求值。
type Predicate struct {
	Kind     PredicateKind
	Column   string
	Operator string
	Values   []any
	Relation string
	Children []Predicate
	Expr     string
}

// IsZero 判断是否为空谓词。
func (p Predicate) IsZero() bool { return p.Kind == "" }

// Where 基础比较：column op value。
func Where(column, operator string, value any) Predicate {
	return Predicate{Kind: PredicateCompare, Column: column, Operator: operator, Values: []any{value}}
}

// WhereIn column IN (values...)。
func WhereIn(column string, values []any) Predicate {
	return Predicate{Kind: PredicateIn, Column: column, Values: values}
}

// WhereBetween 闭区间 from <= column <= to。
func WhereBetween(column string, from, to any) Predicate {
	return Predicate{Kind: PredicateBetween, Column: column, Values: []any{from, to}}
}

func WhereNull(column string) Predicate {
	return Predicate{Kind: PredicateNull, Column: column}
}

func WhereNotNull(column string) Predicate {
	return Predicate{Kind: PredicateNotNull, Column: column}
}

// WhereDate 只比较日期部分。
func WhereDate(column string, value any) Predicate {
	return Predicate{Kind: PredicateDate, Column: column, Values: []any{value}}
}

// WhereILike 大小写不敏感的模式匹配，pattern 需自带 % 通配符。
func WhereILike(column, pattern string) Predicate {
	return Predicate{Kind: PredicateILike, Column: column, Values: []any{pattern}}
}

// And 组合为 AND 组，空谓词被忽略。
func And(preds ...Predicate) Predicate {
	return Predicate{Kind: PredicateAnd, Children: compact(preds)}
}

// Or 组合为 OR 组，空谓词被忽略。
func Or(preds ...Predicate) Predicate {
	return Predicate{Kind: PredicateOr, Children: compact(preds)}
}

// WhereHas 存在满足 constraints 的关联记录。
func WhereHas(relation string, constraints ...Predicate) Predicate {
	return Predicate{Kind: PredicateHas, Relation: relation, Children: compact(constraints)}
}

// WhereDoesntHave 不存在（满足 constraints 的）关联记录。
func WhereDoesntHave(relation string, constraints ...Predicate) Predicate {
	return Predicate{Kind: PredicateDoesntHave, Relation: relation, Children: compact(constraints)}
}

// Raw 原样嵌入的 SQL 片段，占位符为 ?。
func Raw(expr string, args ...any) Predicate {
	return Predicate{Kind: PredicateRaw, Expr: expr, Values: args}
}

func compact(preds []Predicate) []Predicate {
	if len(preds) == 0 {
		return nil
	}
	out := make([]Predicate, 0, len(preds))
	for _, p := range preds {
		if !p.IsZero() {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
