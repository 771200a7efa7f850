package basic

import (
	"context"
	"fmt"
	"reflect"

	"gocrud/data/orm"
)

// preload 为 dest 中的记录逐个加载关联，结果写入与关联同名的结构体字段。
// 每个关联一次 IN 查询，多对多额外查询一次中间表；嵌套预加载暂不支持。
func (m *model) preload(ctx context.Context, dest any, preloads []orm.Preload) error {
	if len(preloads) == 0 {
		return nil
	}
	owners := collectOwners(dest)
	if len(owners) == 0 {
		return nil
	}
	sm := m.orm.structMetaFor(owners[0].Type())
	for _, p := range preloads {
		if err := m.preloadOne(ctx, owners, sm, p); err != nil {
			return err
		}
	}
	return nil
}

func (m *model) preloadOne(ctx context.Context, owners []reflect.Value, sm *structMeta, p orm.Preload) error {
	assoc, err := m.renderer().association(m.meta, p.Name)
	if err != nil {
		return err
	}
	field, ok := sm.relationField(assoc.Name)
	if !ok {
		return fmt.Errorf("basic.Orm: %s has no field for relation %q", sm.typ, assoc.Name)
	}
	keys := resolveKeys(m.meta, assoc)
	ownerField, ok := sm.columnToInfo[keys.ownerKey]
	if !ok {
		return fmt.Errorf("basic.Orm: %s has no column %q", sm.typ, keys.ownerKey)
	}

	seen := make(map[string]bool, len(owners))
	ids := make([]any, 0, len(owners))
	for _, o := range owners {
		fv := fieldByIndexSafe(o, ownerField.Index)
		key, ok := keyOf(fv)
		if !ok || seen[key] {
			continue
		}
		seen[key] = true
		ids = append(ids, reflect.Indirect(fv).Interface())
	}

	elemType := field.Type
	isSlice := elemType.Kind() == reflect.Slice
	if isSlice {
		elemType = elemType.Elem()
	}
	isPtr := elemType.Kind() == reflect.Ptr
	baseType := elemType
	if isPtr {
		baseType = elemType.Elem()
	}
	tm := m.orm.structMetaFor(baseType)
	if tm == nil {
		return fmt.Errorf("basic.Orm: relation field %s.%s must hold structs", sm.typ, field.Name)
	}
	targetField, ok := tm.columnToInfo[keys.targetKey]
	if !ok {
		return fmt.Errorf("basic.Orm: %s has no column %q", baseType, keys.targetKey)
	}

	// links 将本表键映射到目标键，仅多对多关联使用
	var links map[string][]string
	targetIDs := ids
	if assoc.Kind == orm.AssociationManyToMany {
		if links, targetIDs, err = m.joinLinks(ctx, assoc, keys, ids); err != nil {
			return err
		}
	}

	results := reflect.New(reflect.SliceOf(baseType))
	if len(targetIDs) > 0 {
		target := &model{orm: m.orm, meta: assoc.Target}
		err := target.Find(ctx, results.Interface(),
			orm.WithFilter(orm.WhereIn(keys.targetKey, targetIDs)),
			orm.WithFilter(p.Where...),
		)
		if err != nil {
			return err
		}
	}

	grouped := make(map[string][]reflect.Value)
	items := results.Elem()
	for i := 0; i < items.Len(); i++ {
		item := items.Index(i)
		if key, ok := keyOf(fieldByIndexSafe(item, targetField.Index)); ok {
			grouped[key] = append(grouped[key], item)
		}
	}

	for _, o := range owners {
		fv := fieldByIndexSafe(o, field.Index)
		if !fv.CanSet() {
			continue
		}
		key, _ := keyOf(fieldByIndexSafe(o, ownerField.Index))
		var matches []reflect.Value
		if links != nil {
			for _, targetKey := range links[key] {
				matches = append(matches, grouped[targetKey]...)
			}
		} else {
			matches = grouped[key]
		}
		if isSlice {
			s := reflect.MakeSlice(field.Type, 0, len(matches))
			for _, match := range matches {
				if isPtr {
					s = reflect.Append(s, match.Addr())
				} else {
					s = reflect.Append(s, match)
				}
			}
			fv.Set(s)
			continue
		}
		if len(matches) == 0 {
			continue
		}
		if isPtr {
			fv.Set(matches[0].Addr())
		} else {
			fv.Set(matches[0])
		}
	}
	return nil
}

// joinLinks 查询中间表，返回 本表键 → 目标键 列表，以及去重后的目标键
func (m *model) joinLinks(ctx context.Context, assoc *orm.AssociationMeta, keys relationKeys, ids []any) (map[string][]string, []any, error) {
	links := make(map[string][]string, len(ids))
	if len(ids) == 0 {
		return links, nil, nil
	}
	if assoc.JoinTable == "" {
		return nil, nil, fmt.Errorf("basic.Orm: many_to_many relation %q requires JoinTable", assoc.Name)
	}
	r := m.renderer()
	ownerCol, err := r.column(assoc.JoinTable, keys.joinOwnerKey)
	if err != nil {
		return nil, nil, err
	}
	targetCol, err := r.column(assoc.JoinTable, keys.joinTargetKey)
	if err != nil {
		return nil, nil, err
	}

	rows, err := m.orm.sql.Select(ownerCol, targetCol).
		From(r.quote(assoc.JoinTable)).
		Where(ownerCol+" IN ("+placeholders(len(ids))+")", ids...).
		Query(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = rows.Close() }()

	seen := make(map[string]bool)
	var targetIDs []any
	for rows.Next() {
		var ownerID, targetID any
		if err := rows.Scan(&ownerID, &targetID); err != nil {
			return nil, nil, err
		}
		ownerKey, ok := keyOf(reflect.ValueOf(normalizeKey(ownerID)))
		if !ok {
			continue
		}
		targetKey, ok := keyOf(reflect.ValueOf(normalizeKey(targetID)))
		if !ok {
			continue
		}
		links[ownerKey] = append(links[ownerKey], targetKey)
		if !seen[targetKey] {
			seen[targetKey] = true
			targetIDs = append(targetIDs, normalizeKey(targetID))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return links, targetIDs, nil
}

// normalizeKey 驱动可能以 []byte 返回键值，统一为字符串
func normalizeKey(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// collectOwners 返回 dest 中可寻址的结构体值
func collectOwners(dest any) []reflect.Value {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return nil
	}
	rv = rv.Elem()
	switch rv.Kind() {
	case reflect.Struct:
		return []reflect.Value{rv}
	case reflect.Slice:
		out := make([]reflect.Value, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			item := rv.Index(i)
			if item.Kind() == reflect.Ptr {
				if item.IsNil() {
					continue
				}
				item = item.Elem()
			}
			out = append(out, item)
		}
		return out
	default:
		return nil
	}
}

// keyOf 将键值规整为字符串用于匹配，nil 指针视为无键
func keyOf(v reflect.Value) (string, bool) {
	for v.IsValid() && v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return "", false
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return "", false
	}
	return fmt.Sprint(v.Interface()), true
}
