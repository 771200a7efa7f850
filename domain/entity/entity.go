// Package entity 定义可嵌入的实体基础字段
//
// Model 提供自增主键与时间戳，SoftDeletes 提供软删除标记（deleted_at）。
// 两者都可以直接嵌入业务结构体，由 data/orm/basic 展开为列。
package entity

import "time"

// IObject 最基础的对象接口，所有实体的根接口
type IObject[T comparable] interface {
	// GetID 返回对象的唯一标识
	GetID() T
}

// ISoftDeletable 软删除接口
// 实现此接口的实体支持逻辑删除而非物理删除
type ISoftDeletable interface {
	// GetDeletedAt 返回删除时间，nil 表示未删除
	GetDeletedAt() *time.Time

	// IsTrashed 判断是否已软删除
	IsTrashed() bool
}

// Model 通用实体字段（用于嵌入）
type Model struct {
	ID        int64     `db:"id" json:"id" gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// GetID 实现 IObject 接口
func (m *Model) GetID() int64 {
	return m.ID
}

// SoftDeletes 软删除标记字段（用于嵌入），对应 ModelMeta.SoftDeleteColumn = "deleted_at"
type SoftDeletes struct {
	DeletedAt *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// GetDeletedAt 实现 ISoftDeletable 接口
func (s *SoftDeletes) GetDeletedAt() *time.Time {
	return s.DeletedAt
}

// IsTrashed 实现 ISoftDeletable 接口
func (s *SoftDeletes) IsTrashed() bool {
	return s.DeletedAt != nil
}

// SoftDeleteColumn 约定的软删除列名
const SoftDeleteColumn = "deleted_at"
