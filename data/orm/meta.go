package orm

import "strings"

// AssociationKind 表示关联类型。
type AssociationKind string

const (
	AssociationBelongsTo  AssociationKind = "belongs_to"
	AssociationHasOne     AssociationKind = "has_one"
	AssociationHasMany    AssociationKind = "has_many"
	AssociationManyToMany AssociationKind = "many_to_many"
)

// AssociationMeta 描述模型关联元信息。
//
// 键约定：
//   - belongs_to：本表 ForeignKey 指向目标表 ReferenceKey（默认目标主键）；
//   - has_one / has_many：目标表 ForeignKey 指向本表 ReferenceKey（默认本表主键）；
//   - many_to_many：中间表 JoinTable 的 JoinForeignKey 指向本表主键，JoinReferenceKey 指向目标主键。
type AssociationMeta struct {
	Name             string
	Kind             AssociationKind
	Target           *ModelMeta
	JoinTable        string
	ForeignKey       string
	ReferenceKey     string
	JoinForeignKey   string
	JoinReferenceKey string
}

// FieldMeta 描述字段元信息。
type FieldMeta struct {
	Name   string
	Column string
}

// ModelMeta 描述模型级别元信息。
type ModelMeta struct {
	Model any
	Table string
	// PrimaryKey 主键列名，为空时为 "id"
	PrimaryKey string
	// SoftDeleteColumn 软删除标记列（通常为 deleted_at），为空表示不支持软删除
	SoftDeleteColumn string
	// Fields 为空时不限制可排序/可查询列
	Fields       []FieldMeta
	Associations []AssociationMeta
}

// PrimaryKeyColumn 返回主键列名。
func (m *ModelMeta) PrimaryKeyColumn() string {
	if m == nil || m.PrimaryKey == "" {
		return "id"
	}
	return m.PrimaryKey
}

// SoftDeletes 是否启用软删除。
func (m *ModelMeta) SoftDeletes() bool {
	return m != nil && m.SoftDeleteColumn != ""
}

// Association 按名称查找关联（大小写不敏感）。
func (m *ModelMeta) Association(name string) (*AssociationMeta, bool) {
	if m == nil {
		return nil, false
	}
	for i := range m.Associations {
		if strings.EqualFold(m.Associations[i].Name, name) {
			return &m.Associations[i], true
		}
	}
	return nil, false
}

// HasField 判断列是否在 Fields 声明中；未声明 Fields 时一律返回 true。
func (m *ModelMeta) HasField(column string) bool {
	if m == nil || len(m.Fields) == 0 {
		return true
	}
	for _, f := range m.Fields {
		if f.Column == column || f.Name == column {
			return true
		}
	}
	return false
}
