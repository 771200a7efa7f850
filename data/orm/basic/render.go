package basic

import (
	"fmt"
	"strings"

	"gocrud/data/db/dialect"
	dbsql "gocrud/data/db/sql"
	"gocrud/data/orm"
)

// comparisonOperators 允许直接渲染的比较符
var comparisonOperators = map[string]string{
	"=":    "=",
	"!=":   "<>",
	"<>":   "<>",
	">":    ">",
	">=":   ">=",
	"<":    "<",
	"<=":   "<=",
	"like": "LIKE",
}

// renderer 将 orm.Predicate 渲染为参数化 SQL 片段
type renderer struct {
	dialect dialect.Dialect
}

func (r renderer) quote(name string) string {
	return r.dialect.QuoteIdentifier(name)
}

// column 返回带表名限定并已引用的列；已带点的列视为自行限定
func (r renderer) column(table, column string) (string, error) {
	if column == "*" {
		return r.quote(table) + ".*", nil
	}
	if !dbsql.IsSafeIdentifier(column) {
		return "", fmt.Errorf("%w: column %q", orm.ErrInvalidIdentifier, column)
	}
	if strings.Contains(column, ".") {
		return r.quote(column), nil
	}
	return r.quote(table + "." + column), nil
}

// trashedClause 返回软删除可见性条件，不支持软删除的模型返回空串
func (r renderer) trashedClause(meta *orm.ModelMeta, scope orm.TrashedScope) string {
	if !meta.SoftDeletes() {
		return ""
	}
	col := r.quote(meta.Table + "." + meta.SoftDeleteColumn)
	switch scope {
	case orm.TrashedIncluded:
		return ""
	case orm.TrashedOnly:
		return col + " IS NOT NULL"
	default:
		return col + " IS NULL"
	}
}

// render 在 meta 所描述的表上渲染谓词；空组返回空串
func (r renderer) render(meta *orm.ModelMeta, p orm.Predicate) (string, []any, error) {
	switch p.Kind {
	case orm.PredicateAnd, orm.PredicateOr:
		return r.group(meta, p.Children, p.Kind == orm.PredicateOr)
	case orm.PredicateHas, orm.PredicateDoesntHave:
		return r.exists(meta, p)
	case orm.PredicateRaw:
		return p.Expr, p.Values, nil
	case "":
		return "", nil, nil
	}

	col, err := r.column(meta.Table, p.Column)
	if err != nil {
		return "", nil, err
	}
	switch p.Kind {
	case orm.PredicateCompare:
		op, ok := comparisonOperators[strings.ToLower(p.Operator)]
		if !ok {
			return "", nil, fmt.Errorf("%w: operator %q", orm.ErrInvalidIdentifier, p.Operator)
		}
		return col + " " + op + " ?", []any{first(p.Values)}, nil
	case orm.PredicateIn:
		if len(p.Values) == 0 {
			return "1 = 0", nil, nil
		}
		return col + " IN (" + placeholders(len(p.Values)) + ")", p.Values, nil
	case orm.PredicateBetween:
		if len(p.Values) != 2 {
			return "", nil, fmt.Errorf("basic.Orm: between on %s needs 2 values, got %d", p.Column, len(p.Values))
		}
		return col + " BETWEEN ? AND ?", p.Values, nil
	case orm.PredicateNull:
		return col + " IS NULL", nil, nil
	case orm.PredicateNotNull:
		return col + " IS NOT NULL", nil, nil
	case orm.PredicateDate:
		return r.dialect.DateExpr(col) + " = ?", []any{first(p.Values)}, nil
	case orm.PredicateILike:
		return r.dialect.ILike(col), []any{first(p.Values)}, nil
	default:
		return "", nil, fmt.Errorf("%w: predicate kind %q", orm.ErrUnsupported, p.Kind)
	}
}

func (r renderer) group(meta *orm.ModelMeta, children []orm.Predicate, or bool) (string, []any, error) {
	parts := make([]string, 0, len(children))
	var args []any
	for _, child := range children {
		expr, childArgs, err := r.render(meta, child)
		if err != nil {
			return "", nil, err
		}
		if expr == "" {
			continue
		}
		parts = append(parts, expr)
		args = append(args, childArgs...)
	}
	if len(parts) == 0 {
		return "", nil, nil
	}
	sep := " AND "
	if or {
		sep = " OR "
	}
	return "(" + strings.Join(parts, sep) + ")", args, nil
}

// exists 渲染 [NOT] EXISTS (SELECT 1 FROM <target> WHERE <link> [AND <未删除>] [AND <约束>])
func (r renderer) exists(meta *orm.ModelMeta, p orm.Predicate) (string, []any, error) {
	assoc, err := r.association(meta, p.Relation)
	if err != nil {
		return "", nil, err
	}
	from, link, err := r.relationSource(meta, assoc)
	if err != nil {
		return "", nil, err
	}

	conds := []string{link}
	if trashed := r.trashedClause(assoc.Target, orm.TrashedExcluded); trashed != "" {
		conds = append(conds, trashed)
	}
	var args []any
	for _, child := range p.Children {
		expr, childArgs, err := r.render(assoc.Target, child)
		if err != nil {
			return "", nil, err
		}
		if expr != "" {
			conds = append(conds, expr)
			args = append(args, childArgs...)
		}
	}

	sub := "EXISTS (SELECT 1 FROM " + from + " WHERE " + strings.Join(conds, " AND ") + ")"
	if p.Kind == orm.PredicateDoesntHave {
		sub = "NOT " + sub
	}
	return sub, args, nil
}

// countColumn 渲染关联计数标量子查询，别名为 <relation>_count
func (r renderer) countColumn(meta *orm.ModelMeta, relation string) (string, error) {
	assoc, err := r.association(meta, relation)
	if err != nil {
		return "", err
	}
	from, link, err := r.relationSource(meta, assoc)
	if err != nil {
		return "", err
	}
	conds := []string{link}
	if trashed := r.trashedClause(assoc.Target, orm.TrashedExcluded); trashed != "" {
		conds = append(conds, trashed)
	}
	return "(SELECT COUNT(*) FROM " + from + " WHERE " + strings.Join(conds, " AND ") + ") AS " +
		r.quote(countAlias(relation)), nil
}

func (r renderer) association(meta *orm.ModelMeta, name string) (*orm.AssociationMeta, error) {
	assoc, ok := meta.Association(name)
	if !ok {
		return nil, fmt.Errorf("%w: relation %q on %s", orm.ErrInvalidIdentifier, name, meta.Table)
	}
	if assoc.Target == nil || assoc.Target.Table == "" {
		return nil, fmt.Errorf("basic.Orm: relation %q on %s has no target table", name, meta.Table)
	}
	return assoc, nil
}

// relationSource 返回关联目标的 FROM 片段及与外层表的关联条件
func (r renderer) relationSource(owner *orm.ModelMeta, assoc *orm.AssociationMeta) (string, string, error) {
	keys := resolveKeys(owner, assoc)
	target := assoc.Target
	switch assoc.Kind {
	case orm.AssociationBelongsTo, orm.AssociationHasOne, orm.AssociationHasMany:
		link := r.quote(target.Table+"."+keys.targetKey) + " = " + r.quote(owner.Table+"."+keys.ownerKey)
		return r.quote(target.Table), link, nil
	case orm.AssociationManyToMany:
		if assoc.JoinTable == "" {
			return "", "", fmt.Errorf("basic.Orm: many_to_many relation %q requires JoinTable", assoc.Name)
		}
		from := r.quote(target.Table) + " INNER JOIN " + r.quote(assoc.JoinTable) + " ON " +
			r.quote(assoc.JoinTable+"."+keys.joinTargetKey) + " = " + r.quote(target.Table+"."+target.PrimaryKeyColumn())
		link := r.quote(assoc.JoinTable+"."+keys.joinOwnerKey) + " = " + r.quote(owner.Table+"."+owner.PrimaryKeyColumn())
		return from, link, nil
	default:
		return "", "", fmt.Errorf("%w: association kind %q", orm.ErrUnsupported, assoc.Kind)
	}
}

// relationKeys 解析后的关联键：ownerKey 位于外层表，targetKey 位于目标表
type relationKeys struct {
	ownerKey      string
	targetKey     string
	joinOwnerKey  string
	joinTargetKey string
}

func resolveKeys(owner *orm.ModelMeta, assoc *orm.AssociationMeta) relationKeys {
	target := assoc.Target
	var keys relationKeys
	switch assoc.Kind {
	case orm.AssociationBelongsTo:
		keys.ownerKey = orDefault(assoc.ForeignKey, toSnakeCase(assoc.Name)+"_id")
		keys.targetKey = orDefault(assoc.ReferenceKey, target.PrimaryKeyColumn())
	case orm.AssociationHasOne, orm.AssociationHasMany:
		keys.ownerKey = orDefault(assoc.ReferenceKey, owner.PrimaryKeyColumn())
		keys.targetKey = orDefault(assoc.ForeignKey, singular(owner.Table)+"_id")
	case orm.AssociationManyToMany:
		keys.ownerKey = owner.PrimaryKeyColumn()
		keys.targetKey = target.PrimaryKeyColumn()
		keys.joinOwnerKey = orDefault(assoc.JoinForeignKey, singular(owner.Table)+"_id")
		keys.joinTargetKey = orDefault(assoc.JoinReferenceKey, singular(target.Table)+"_id")
	}
	return keys
}

func countAlias(relation string) string {
	return toSnakeCase(relation) + "_count"
}

func singular(table string) string {
	if strings.HasSuffix(table, "ies") {
		return strings.TrimSuffix(table, "ies") + "y"
	}
	return strings.TrimSuffix(table, "s")
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func first(values []any) any {
	if len(values) == 0 {
		return nil
	}
	return values[0]
}
