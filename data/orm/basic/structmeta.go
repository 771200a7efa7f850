package basic

import (
	"reflect"
	"strings"
	"unicode"
)

type fieldInfo struct {
	Name          string
	Column        string
	Index         []int
	Type          reflect.Type
	PrimaryKey    bool
	AutoIncrement bool
	// ReadOnly 只读列（gorm:"->"），例如关联计数，不参与写入
	ReadOnly bool
}

type structMeta struct {
	typ          reflect.Type
	fields       []fieldInfo
	columnToInfo map[string]fieldInfo
}

// primaryKey 返回主键字段：优先使用标签声明，其次按列名匹配。
func (sm *structMeta) primaryKey(column string) (fieldInfo, bool) {
	for _, f := range sm.fields {
		if f.PrimaryKey {
			return f, true
		}
	}
	f, ok := sm.columnToInfo[column]
	return f, ok
}

// writableFields 返回可写入的字段（排除只读列）。
func (sm *structMeta) writableFields() []fieldInfo {
	out := make([]fieldInfo, 0, len(sm.fields))
	for _, f := range sm.fields {
		if !f.ReadOnly {
			out = append(out, f)
		}
	}
	return out
}

// relationField 按关联名查找承载预加载结果的结构体字段（大小写与下划线不敏感）。
func (sm *structMeta) relationField(name string) (reflect.StructField, bool) {
	want := normalizeName(name)
	for i := 0; i < sm.typ.NumField(); i++ {
		f := sm.typ.Field(i)
		if f.PkgPath != "" || isScalarDBField(f.Type) {
			continue
		}
		if normalizeName(f.Name) == want {
			return f, true
		}
	}
	return reflect.StructField{}, false
}

// structMetaFor 构建或获取指定类型的 structMeta。
func (o *Orm) structMetaFor(t reflect.Type) *structMeta {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}

	o.mu.RLock()
	if sm, ok := o.structMap[t]; ok {
		o.mu.RUnlock()
		return sm
	}
	o.mu.RUnlock()

	sm := buildStructMeta(t)
	o.mu.Lock()
	o.structMap[t] = sm
	o.mu.Unlock()
	return sm
}

func (o *Orm) structMetaForValue(v any) *structMeta {
	return o.structMetaFor(reflect.TypeOf(v))
}

func buildStructMeta(t reflect.Type) *structMeta {
	sm := &structMeta{
		typ:          t,
		columnToInfo: make(map[string]fieldInfo),
	}

	var walk func(reflect.Type, []int)
	walk = func(cur reflect.Type, prefix []int) {
		for i := 0; i < cur.NumField(); i++ {
			f := cur.Field(i)
			if f.PkgPath != "" {
				continue
			}

			index := append(append([]int(nil), prefix...), i)

			if f.Anonymous && f.Type.Kind() == reflect.Struct && !isTimeType(f.Type) {
				// 内嵌结构体（例如 entity.Model），递归展开
				walk(f.Type, index)
				continue
			}

			// 只收集“标量”字段，关联字段（结构体/切片）留给预加载
			if !isScalarDBField(f.Type) {
				continue
			}

			tag := parseColumnTag(f)
			if tag.ignore {
				continue
			}
			col := tag.column
			if col == "" {
				col = toSnakeCase(f.Name)
			}

			info := fieldInfo{
				Name:          f.Name,
				Column:        col,
				Index:         index,
				Type:          f.Type,
				PrimaryKey:    tag.primaryKey,
				AutoIncrement: tag.autoIncrement,
				ReadOnly:      tag.readOnly,
			}
			if existing, ok := sm.columnToInfo[col]; ok {
				// 外层同名列覆盖内嵌定义
				sm.replaceField(existing, info)
			} else {
				sm.fields = append(sm.fields, info)
			}
			sm.columnToInfo[col] = info
		}
	}

	walk(t, nil)
	return sm
}

func (sm *structMeta) replaceField(old, updated fieldInfo) {
	for i := range sm.fields {
		if sm.fields[i].Column == old.Column {
			sm.fields[i] = updated
			return
		}
	}
}

func isScalarDBField(t reflect.Type) bool {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if isTimeType(t) {
		return true
	}
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:
		return true
	default:
		return false
	}
}

func isTimeType(t reflect.Type) bool {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.PkgPath() == "time" && t.Name() == "Time"
}

func isIntegerKind(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}

type columnTag struct {
	column        string
	primaryKey    bool
	autoIncrement bool
	readOnly      bool
	ignore        bool
}

// parseColumnTag 解析 gorm 风格标签，列名回退到 db / json 标签。
func parseColumnTag(f reflect.StructField) columnTag {
	var tag columnTag
	if gormTag := f.Tag.Get("gorm"); gormTag != "" {
		for _, part := range strings.Split(gormTag, ";") {
			part = strings.TrimSpace(part)
			switch {
			case part == "":
			case part == "-":
				tag.ignore = true
			case part == "->":
				tag.readOnly = true
			case strings.HasPrefix(part, "column:"):
				tag.column = strings.TrimPrefix(part, "column:")
			case strings.EqualFold(part, "primaryKey"), strings.EqualFold(part, "primary_key"):
				tag.primaryKey = true
			case strings.EqualFold(part, "autoIncrement"):
				tag.autoIncrement = true
			}
		}
	}

	if tag.column == "" {
		if dbTag := f.Tag.Get("db"); dbTag != "" {
			if dbTag == "-" {
				tag.ignore = true
			}
			tag.column = dbTag
		} else if jsonTag := f.Tag.Get("json"); jsonTag != "" && jsonTag != "-" {
			tag.column = strings.Split(jsonTag, ",")[0]
		}
	}
	return tag
}

func toSnakeCase(s string) string {
	var sb strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			// 连续大写（如 ID、URL）视为一个词
			if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				sb.WriteByte('_')
			}
			sb.WriteRune(unicode.ToLower(r))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func normalizeName(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "_", ""))
}

func fieldByIndexSafe(v reflect.Value, index []int) reflect.Value {
	for _, i := range index {
		if v.Kind() == reflect.Ptr {
			if v.IsNil() {
				return reflect.Value{}
			}
			v = v.Elem()
		}
		if v.Kind() != reflect.Struct || i < 0 || i >= v.NumField() {
			return reflect.Value{}
		}
		v = v.Field(i)
	}
	return v
}

// indirectValue 解引用到结构体值，nil 指针返回无效值
func indirectValue(v any) reflect.Value {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return reflect.Value{}
		}
		rv = rv.Elem()
	}
	return rv
}
