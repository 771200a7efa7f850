package repo

import (
	"fmt"
	"strings"

	"gocrud/errors"
)

// maxRelationDepth 关联路径最多两层（rel1.rel2.col）
const maxRelationDepth = 2

// RelationPath 点分字段解析结果。Relations 为空表示普通列。
type RelationPath struct {
	Relations []string
	Column    string
}

// IsSimple 是否为普通列
func (p RelationPath) IsSimple() bool { return len(p.Relations) == 0 }

func (p RelationPath) String() string {
	if p.IsSimple() {
		return p.Column
	}
	return strings.Join(p.Relations, ".") + "." + p.Column
}

// ParseRelationPath 解析 col / rel.col / rel1.rel2.col。
// 超过两层的路径或含非法标识符的段返回校验错误。
func ParseRelationPath(field string) (RelationPath, error) {
	field = strings.TrimSpace(field)
	if !isSafeFieldName(field) {
		return RelationPath{}, errors.NewValidationError(fmt.Sprintf("invalid field %q", field)).
			WithContext("field", field)
	}
	parts := strings.Split(field, ".")
	if len(parts)-1 > maxRelationDepth {
		return RelationPath{}, errors.NewValidationError(
			fmt.Sprintf("relation path %q is deeper than %d levels", field, maxRelationDepth)).
			WithContext("field", field)
	}
	path := RelationPath{Column: parts[len(parts)-1]}
	if len(parts) > 1 {
		path.Relations = parts[:len(parts)-1]
	}
	return path, nil
}
