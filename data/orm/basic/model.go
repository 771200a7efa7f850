package basic

import (
	"context"
	"fmt"
	"reflect"
	"time"

	dbsql "gocrud/data/db/sql"
	"gocrud/data/orm"
)

// model 实现 orm.IModel
type model struct {
	orm  *Orm
	meta *orm.ModelMeta
}

func (m *model) Meta() *orm.ModelMeta { return m.meta }

func (m *model) renderer() renderer {
	return renderer{dialect: m.orm.sql.Dialect()}
}

// conditions 汇总原始条件、谓词与软删除可见性，返回可直接交给 builder.Where 的片段
func (m *model) conditions(qo orm.QueryOptions, read bool) ([]orm.Condition, error) {
	r := m.renderer()
	var out []orm.Condition
	if read {
		if trashed := r.trashedClause(m.meta, qo.Trashed); trashed != "" {
			out = append(out, orm.Condition{Expr: trashed})
		}
	}
	out = append(out, qo.Where...)
	for _, p := range qo.Filters {
		expr, args, err := r.render(m.meta, p)
		if err != nil {
			return nil, err
		}
		if expr != "" {
			out = append(out, orm.Condition{Expr: expr, Args: args})
		}
	}
	return out, nil
}

// selectBuilder 渲染 SELECT 查询（列、关联计数、条件、排序、分页、锁）
func (m *model) selectBuilder(qo orm.QueryOptions) (dbsql.ISelectBuilder, error) {
	r := m.renderer()

	columns := make([]string, 0, len(qo.Select)+len(qo.Counts))
	selectCols := qo.Select
	if len(selectCols) == 0 {
		selectCols = []string{"*"}
	} else if len(qo.Preload) > 0 {
		var err error
		if selectCols, err = m.withPreloadKeys(selectCols, qo.Preload); err != nil {
			return nil, err
		}
	}
	for _, c := range selectCols {
		col, err := r.column(m.meta.Table, c)
		if err != nil {
			return nil, err
		}
		columns = append(columns, col)
	}
	aliases := make(map[string]bool, len(qo.Counts))
	for _, relation := range qo.Counts {
		col, err := r.countColumn(m.meta, relation)
		if err != nil {
			return nil, err
		}
		columns = append(columns, col)
		aliases[countAlias(relation)] = true
	}

	builder := m.orm.sql.Select(columns...).From(r.quote(m.meta.Table))
	conds, err := m.conditions(qo, true)
	if err != nil {
		return nil, err
	}
	for _, c := range conds {
		builder = builder.Where(c.Expr, c.Args...)
	}

	for _, o := range qo.OrderBy {
		var col string
		if aliases[o.Column] {
			col = r.quote(o.Column)
		} else if col, err = r.column(m.meta.Table, o.Column); err != nil {
			return nil, err
		}
		if o.Desc {
			builder = builder.OrderBy(col + " DESC")
		} else {
			builder = builder.OrderBy(col + " ASC")
		}
	}
	if qo.Limit > 0 {
		builder = builder.Limit(qo.Limit)
	}
	if qo.Offset > 0 {
		builder = builder.Offset(qo.Offset)
	}
	switch qo.Lock {
	case orm.LockForUpdate:
		builder = builder.ForUpdate()
	case orm.LockShared:
		builder = builder.ForShare()
	}
	return builder, nil
}

// withPreloadKeys 预加载依赖本表的关联键，未被选中时追加到列表末尾
func (m *model) withPreloadKeys(columns []string, preloads []orm.Preload) ([]string, error) {
	selected := make(map[string]bool, len(columns))
	for _, c := range columns {
		if c == "*" {
			return columns, nil
		}
		selected[c] = true
	}
	out := append([]string(nil), columns...)
	for _, p := range preloads {
		assoc, err := m.renderer().association(m.meta, p.Name)
		if err != nil {
			return nil, err
		}
		key := resolveKeys(m.meta, assoc).ownerKey
		if !selected[key] {
			selected[key] = true
			out = append(out, key)
		}
	}
	return out, nil
}

// First 查询单条记录。
func (m *model) First(ctx context.Context, dest any, opts ...orm.QueryOption) error {
	qo := orm.CollectQueryOptions(opts...)
	if qo.Limit <= 0 {
		qo.Limit = 1
	}
	builder, err := m.selectBuilder(qo)
	if err != nil {
		return err
	}

	rows, err := builder.Query(ctx)
	if err != nil {
		return err
	}
	if !rows.Next() {
		_ = rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		return orm.ErrNotFound
	}
	if err := scanRowsIntoDest(rows, dest, m.orm); err != nil {
		_ = rows.Close()
		return err
	}
	// 预加载会发起新查询，需先释放连接（SQLite 单连接场景）
	if err := rows.Close(); err != nil {
		return err
	}
	return m.preload(ctx, dest, qo.Preload)
}

// Find 查询多条记录。
func (m *model) Find(ctx context.Context, dest any, opts ...orm.QueryOption) error {
	qo := orm.CollectQueryOptions(opts...)
	builder, err := m.selectBuilder(qo)
	if err != nil {
		return err
	}

	rows, err := builder.Query(ctx)
	if err != nil {
		return err
	}
	if err := scanRowsIntoDest(rows, dest, m.orm); err != nil {
		_ = rows.Close()
		return err
	}
	if err := rows.Close(); err != nil {
		return err
	}
	return m.preload(ctx, dest, qo.Preload)
}

// Count 统计数量。
func (m *model) Count(ctx context.Context, opts ...orm.QueryOption) (int64, error) {
	qo := orm.CollectQueryOptions(opts...)
	r := m.renderer()

	builder := m.orm.sql.Select("COUNT(*)").From(r.quote(m.meta.Table))
	conds, err := m.conditions(qo, true)
	if err != nil {
		return 0, err
	}
	for _, c := range conds {
		builder = builder.Where(c.Expr, c.Args...)
	}

	var count int64
	if err := builder.QueryRow(ctx).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// Create 插入记录（支持批量）；单条插入且整型主键为零值时由数据库生成并回填。
func (m *model) Create(ctx context.Context, entities ...any) error {
	if len(entities) == 0 {
		return nil
	}

	first := indirectValue(entities[0])
	if !first.IsValid() || first.Kind() != reflect.Struct {
		return fmt.Errorf("basic.Model.Create: entity must be *struct, got %T", entities[0])
	}
	sm := m.orm.structMetaFor(first.Type())
	pk, hasPK := sm.primaryKey(m.meta.PrimaryKeyColumn())
	generated := hasPK && isIntegerKind(pk.Type) && fieldByIndexSafe(first, pk.Index).IsZero()

	var fields []fieldInfo
	for _, f := range sm.writableFields() {
		if generated && f.Column == pk.Column {
			continue
		}
		fields = append(fields, f)
	}
	if len(fields) == 0 {
		return fmt.Errorf("basic.Model.Create: no insertable columns for %T", entities[0])
	}
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Column
	}

	now := time.Now()
	builder := m.orm.sql.InsertInto(m.meta.Table).Columns(cols...)
	for _, e := range entities {
		val := indirectValue(e)
		if !val.IsValid() || val.Kind() != reflect.Struct {
			return fmt.Errorf("basic.Model.Create: entity must be *struct, got %T", e)
		}
		touchTimestamps(val, sm, now, true)
		row := make([]any, len(fields))
		for i, f := range fields {
			row[i] = fieldByIndexSafe(val, f.Index).Interface()
		}
		builder = builder.Values(row...)
	}

	if !generated || len(entities) != 1 {
		_, err := builder.Exec(ctx)
		return err
	}

	id, err := builder.ExecReturningID(ctx, pk.Column)
	if err != nil {
		return err
	}
	return setInteger(fieldByIndexSafe(first, pk.Index), id)
}

// Save 按条件更新实体的全部可写列（主键除外）。
func (m *model) Save(ctx context.Context, entity any, opts ...orm.QueryOption) error {
	val := indirectValue(entity)
	if !val.IsValid() || val.Kind() != reflect.Struct {
		return fmt.Errorf("basic.Model.Save: entity must be *struct, got %T", entity)
	}
	sm := m.orm.structMetaFor(val.Type())
	pk, _ := sm.primaryKey(m.meta.PrimaryKeyColumn())

	qo := orm.CollectQueryOptions(opts...)
	conds, err := m.conditions(qo, false)
	if err != nil {
		return err
	}
	if len(conds) == 0 {
		return fmt.Errorf("basic.Orm: save without where is not allowed")
	}

	touchTimestamps(val, sm, time.Now(), false)
	builder := m.orm.sql.Update(m.meta.Table)
	for _, f := range sm.writableFields() {
		if f.Column == pk.Column {
			continue
		}
		builder = builder.Set(f.Column, fieldByIndexSafe(val, f.Index).Interface())
	}
	for _, c := range conds {
		builder = builder.Where(c.Expr, c.Args...)
	}
	_, err = builder.Exec(ctx)
	return err
}

// UpdateValues 根据 values 与条件进行更新。
func (m *model) UpdateValues(ctx context.Context, values map[string]any, opts ...orm.QueryOption) error {
	if len(values) == 0 {
		return nil
	}
	qo := orm.CollectQueryOptions(opts...)
	conds, err := m.conditions(qo, false)
	if err != nil {
		return err
	}
	if len(conds) == 0 {
		return fmt.Errorf("basic.Orm: update without where is not allowed")
	}

	builder := m.orm.sql.Update(m.meta.Table).SetMap(values)
	for _, c := range conds {
		builder = builder.Where(c.Expr, c.Args...)
	}
	_, err = builder.Exec(ctx)
	return err
}

// Delete 根据条件物理删除记录。
func (m *model) Delete(ctx context.Context, opts ...orm.QueryOption) error {
	qo := orm.CollectQueryOptions(opts...)
	conds, err := m.conditions(qo, false)
	if err != nil {
		return err
	}
	if len(conds) == 0 {
		return fmt.Errorf("basic.Orm: delete without where is not allowed")
	}

	builder := m.orm.sql.DeleteFrom(m.meta.Table)
	for _, c := range conds {
		builder = builder.Where(c.Expr, c.Args...)
	}
	_, err = builder.Exec(ctx)
	return err
}

// PrimaryKey 读取实体的主键值。
func (m *model) PrimaryKey(entity any) (any, error) {
	val := indirectValue(entity)
	if !val.IsValid() || val.Kind() != reflect.Struct {
		return nil, fmt.Errorf("basic.Model.PrimaryKey: entity must be *struct, got %T", entity)
	}
	sm := m.orm.structMetaFor(val.Type())
	pk, ok := sm.primaryKey(m.meta.PrimaryKeyColumn())
	if !ok {
		return nil, fmt.Errorf("basic.Model.PrimaryKey: %T has no column %q", entity, m.meta.PrimaryKeyColumn())
	}
	return fieldByIndexSafe(val, pk.Index).Interface(), nil
}

// touchTimestamps 维护 created_at / updated_at 约定列
func touchTimestamps(val reflect.Value, sm *structMeta, now time.Time, creating bool) {
	for _, col := range []string{"created_at", "updated_at"} {
		if col == "created_at" && !creating {
			continue
		}
		f, ok := sm.columnToInfo[col]
		if !ok || f.Type != reflect.TypeOf(time.Time{}) {
			continue
		}
		fv := fieldByIndexSafe(val, f.Index)
		if !fv.CanSet() {
			continue
		}
		if col == "updated_at" || fv.IsZero() {
			fv.Set(reflect.ValueOf(now))
		}
	}
}
