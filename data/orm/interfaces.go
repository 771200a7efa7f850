package orm

import (
	"context"
	"database/sql"

	"gocrud/data/db"
)

// IOrm 表示 ORM 适配器入口。
// 仅定义接口，具体实现由业务侧选择并以适配器形式注入。
type IOrm interface {
	// Capabilities 返回适配器支持的能力集合。
	Capabilities() Capabilities
	// Model 返回指定模型的操作入口。
	Model(meta *ModelMeta) IModel
	// Begin 开启事务会话。
	Begin(ctx context.Context) (IOrmSession, error)
	// BeginTx 开启带选项的事务会话。
	BeginTx(ctx context.Context, opts *sql.TxOptions) (IOrmSession, error)
	// Database 返回适配器绑定的通用数据库（可选，可为 nil）。
	Database() db.IDatabase
}

// IOrmSession 表示事务会话。
type IOrmSession interface {
	IOrm
	Commit() error
	Rollback() error
}

// IModel 封装模型级别的基础操作。
//
// 读操作（First/Find/Count）遵循 QueryOptions.Trashed；写操作不受软删除可见性影响。
type IModel interface {
	Meta() *ModelMeta

	// First 查询单条记录，不存在时返回 ErrNotFound。
	First(ctx context.Context, dest any, opts ...QueryOption) error
	Find(ctx context.Context, dest any, opts ...QueryOption) error
	// Count 忽略 Select/OrderBy/Limit/Offset/Preload/Counts。
	Count(ctx context.Context, opts ...QueryOption) (int64, error)

	// Create 插入记录；单条插入时回填自增主键。
	Create(ctx context.Context, entities ...any) error
	// Save 按 QueryOptions 条件更新实体的全部可写列。
	Save(ctx context.Context, entity any, opts ...QueryOption) error
	UpdateValues(ctx context.Context, values map[string]any, opts ...QueryOption) error
	Delete(ctx context.Context, opts ...QueryOption) error

	// Fill 将 values（列名 → 值）按字段类型转换后赋值到 dest，主键与只读列被忽略。
	Fill(dest any, values map[string]any) error
	// PrimaryKey 读取实体的主键值。
	PrimaryKey(entity any) (any, error)
}
