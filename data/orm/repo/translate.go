package repo

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/spf13/cast"

	"gocrud/data/orm"
	"gocrud/errors"
)

// filterPredicate 将单个 Filter 翻译为谓词。
// 返回零值谓词表示该过滤条件不产生任何约束（例如两端都为空的 between）。
func filterPredicate(f Filter) (orm.Predicate, error) {
	if !f.Operator.IsValid() {
		return orm.Predicate{}, errors.NewValidationError(fmt.Sprintf("invalid operator %q", f.Operator)).
			WithContext("field", f.Field).
			WithContext("operator", string(f.Operator))
	}
	path, err := ParseRelationPath(f.Field)
	if err != nil {
		return orm.Predicate{}, err
	}

	if f.Operator == OpNotHas {
		// 普通字段名视为关联名本身
		rels := path.Relations
		if path.IsSimple() {
			rels = []string{path.Column}
		}
		inner := orm.WhereDoesntHave(rels[len(rels)-1])
		return wrapRelations(rels[:len(rels)-1], inner), nil
	}

	inner := columnPredicate(path.Column, f.Operator, f.Value)
	if inner.IsZero() {
		return orm.Predicate{}, nil
	}
	return wrapRelations(path.Relations, inner), nil
}

// wrapRelations 由内向外用 WhereHas 包裹：rel1.rel2 → WhereHas(rel1, WhereHas(rel2, p))
func wrapRelations(relations []string, p orm.Predicate) orm.Predicate {
	for i := len(relations) - 1; i >= 0; i-- {
		p = orm.WhereHas(relations[i], p)
	}
	return p
}

func columnPredicate(column string, op Operator, value any) orm.Predicate {
	if op != OpBetween {
		if values, ok := asSlice(value); ok {
			return orm.WhereIn(column, values)
		}
	}

	switch op {
	case OpEqual:
		if value == nil {
			return orm.WhereNull(column)
		}
	case OpNotEqual:
		if value == nil {
			return orm.WhereNotNull(column)
		}
	case OpBetween:
		return betweenPredicate(column, value)
	case OpContain:
		return orm.WhereILike(column, "%"+cast.ToString(value)+"%")
	case OpDate:
		return orm.WhereDate(column, value)
	case OpExists:
		if isTruthy(value) {
			return orm.WhereNotNull(column)
		}
		return orm.WhereNull(column)
	}
	return orm.Where(column, string(op), value)
}

// betweenPredicate 两个槽位：[from, to]，空槽（nil、空串、false）视为开放端。
func betweenPredicate(column string, value any) orm.Predicate {
	values, ok := asSlice(value)
	if !ok {
		values = []any{value}
	}
	var from, to any
	hasFrom, hasTo := false, false
	if len(values) > 0 && !isEmptyBound(values[0]) {
		from, hasFrom = values[0], true
	}
	if len(values) > 1 && !isEmptyBound(values[1]) {
		to, hasTo = values[1], true
	}

	switch {
	case hasFrom && hasTo:
		return orm.WhereBetween(column, from, to)
	case hasFrom:
		return orm.Where(column, string(OpGreaterOrEqual), from)
	case hasTo:
		return orm.Where(column, string(OpLessOrEqual), to)
	default:
		return orm.Predicate{}
	}
}

func isEmptyBound(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case bool:
		return !x
	}
	return false
}

// isTruthy exists 操作符只认布尔 true 或字符串 "true"（大小写不敏感）
func isTruthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return strings.EqualFold(strings.TrimSpace(x), "true")
	}
	return false
}

// asSlice 将切片/数组值展开为 []any；[]byte 与字符串按标量处理。
func asSlice(v any) ([]any, bool) {
	switch x := v.(type) {
	case nil, string, []byte:
		return nil, false
	case []any:
		return x, true
	case []string:
		out := make([]any, len(x))
		for i := range x {
			out[i] = x[i]
		}
		return out, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// searchPredicate 搜索词对每个搜索字段做 contain，整体为一个 OR 组。
func searchPredicate(term string, fields []string) (orm.Predicate, error) {
	if strings.TrimSpace(term) == "" || len(fields) == 0 {
		return orm.Predicate{}, nil
	}
	preds := make([]orm.Predicate, 0, len(fields))
	for _, field := range fields {
		p, err := filterPredicate(Filter{Field: field, Value: term, Operator: OpContain})
		if err != nil {
			return orm.Predicate{}, err
		}
		preds = append(preds, p)
	}
	return orm.Or(preds...), nil
}
