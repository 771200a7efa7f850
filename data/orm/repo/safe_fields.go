package repo

import "strings"

// isSafeIdentifier 判断单段标识符：首字符 [A-Za-z_]，后续 [A-Za-z0-9_]。
func isSafeIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		ch := name[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch == '_':
		case ch >= '0' && ch <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// isSafeFieldName 判断字段名是否为"安全标识符"，允许 rel.col 形式的点分路径，每段都必须安全。
func isSafeFieldName(name string) bool {
	if name == "" {
		return false
	}
	for _, part := range strings.Split(name, ".") {
		if !isSafeIdentifier(part) {
			return false
		}
	}
	return true
}

// sanitizeField 剔除 [a-zA-Z0-9_*] 以外的字符
func sanitizeField(field string) string {
	var b strings.Builder
	b.Grow(len(field))
	for i := 0; i < len(field); i++ {
		ch := field[i]
		if (ch >= 'a' && ch <= 'z') ||
			(ch >= 'A' && ch <= 'Z') ||
			(ch >= '0' && ch <= '9') ||
			ch == '_' || ch == '*' {
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// sanitizeFields 逐个清洗输出列，清洗后为空的丢弃。
func sanitizeFields(fields []string) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if s := sanitizeField(f); s != "" {
			out = append(out, s)
		}
	}
	return out
}
