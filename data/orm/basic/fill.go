package basic

import (
	"fmt"
	"reflect"
	"time"

	"github.com/spf13/cast"
)

// Fill 按列名（或字段名的 snake_case 形式）将 values 转换后写入 dest。
// 主键与只读列被忽略，未知键被忽略。
func (m *model) Fill(dest any, values map[string]any) error {
	val := indirectValue(dest)
	if !val.IsValid() || val.Kind() != reflect.Struct || !val.CanSet() {
		return fmt.Errorf("basic.Model.Fill: dest must be non-nil *struct, got %T", dest)
	}
	sm := m.orm.structMetaFor(val.Type())
	pk, _ := sm.primaryKey(m.meta.PrimaryKeyColumn())

	for key, raw := range values {
		f, ok := sm.columnToInfo[key]
		if !ok {
			f, ok = sm.columnToInfo[toSnakeCase(key)]
		}
		if !ok || f.ReadOnly || f.Column == pk.Column {
			continue
		}
		if err := assign(fieldByIndexSafe(val, f.Index), raw); err != nil {
			return fmt.Errorf("field %s: %w", f.Column, err)
		}
	}
	return nil
}

// assign 使用 cast 将任意输入转换为字段类型
func assign(fv reflect.Value, raw any) error {
	if !fv.IsValid() || !fv.CanSet() {
		return nil
	}
	if fv.Kind() == reflect.Ptr {
		if raw == nil {
			fv.Set(reflect.Zero(fv.Type()))
			return nil
		}
		target := reflect.New(fv.Type().Elem())
		if err := assign(target.Elem(), raw); err != nil {
			return err
		}
		fv.Set(target)
		return nil
	}
	if raw == nil {
		fv.Set(reflect.Zero(fv.Type()))
		return nil
	}

	if fv.Type() == reflect.TypeOf(time.Time{}) {
		t, err := cast.ToTimeE(raw)
		if err != nil {
			return err
		}
		fv.Set(reflect.ValueOf(t))
		return nil
	}

	switch fv.Kind() {
	case reflect.String:
		s, err := cast.ToStringE(raw)
		if err != nil {
			return err
		}
		fv.SetString(s)
	case reflect.Bool:
		b, err := cast.ToBoolE(raw)
		if err != nil {
			return err
		}
		fv.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := cast.ToInt64E(raw)
		if err != nil {
			return err
		}
		return setInteger(fv, n)
	case reflect.Float32, reflect.Float64:
		f, err := cast.ToFloat64E(raw)
		if err != nil {
			return err
		}
		fv.SetFloat(f)
	default:
		return fmt.Errorf("unsupported field kind %s", fv.Kind())
	}
	return nil
}

func setInteger(fv reflect.Value, n int64) error {
	if !fv.IsValid() || !fv.CanSet() {
		return nil
	}
	switch fv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		fv.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if n < 0 {
			return fmt.Errorf("negative value %d for unsigned field", n)
		}
		fv.SetUint(uint64(n))
	default:
		return fmt.Errorf("cannot set integer on %s", fv.Kind())
	}
	return nil
}
