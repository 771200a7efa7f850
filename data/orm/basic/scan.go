package basic

import (
	"fmt"
	"reflect"

	dbcore "gocrud/data/db"
)

// scanRowsIntoDest 将 rows 扫描到 dest 中。
// 支持 dest 为 *T、*[]T 或 *[]*T。
func scanRowsIntoDest(rows dbcore.IRows, dest any, o *Orm) error {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("basic.scanRowsIntoDest: dest must be non-nil pointer")
	}

	elem := rv.Elem()
	switch elem.Kind() {
	case reflect.Slice:
		elemType := elem.Type().Elem()
		isPtr := elemType.Kind() == reflect.Ptr
		if isPtr {
			elemType = elemType.Elem()
		}
		for rows.Next() {
			item := reflect.New(elemType)
			if err := scanOneRow(rows, item.Elem(), o); err != nil {
				return err
			}
			if isPtr {
				elem.Set(reflect.Append(elem, item))
			} else {
				elem.Set(reflect.Append(elem, item.Elem()))
			}
		}
		return rows.Err()
	case reflect.Struct:
		// 调用方已 Next() 过一行，这里直接扫描当前行
		return scanOneRow(rows, elem, o)
	default:
		return fmt.Errorf("basic.scanRowsIntoDest: unsupported dest element kind %s", elem.Kind())
	}
}

func scanOneRow(rows dbcore.IRows, v reflect.Value, o *Orm) error {
	cols, err := rows.Columns()
	if err != nil {
		return err
	}

	sm := o.structMetaFor(v.Type())
	destPtrs := make([]any, len(cols))
	for i, col := range cols {
		var discard any
		destPtrs[i] = &discard
		if sm == nil {
			continue
		}
		fi, ok := sm.columnToInfo[col]
		if !ok {
			continue
		}
		fv := fieldByIndexSafe(v, fi.Index)
		if fv.IsValid() && fv.CanSet() {
			destPtrs[i] = fv.Addr().Interface()
		}
	}
	return rows.Scan(destPtrs...)
}
