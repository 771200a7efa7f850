// Package basic 是基于 gocrud/data/db + gocrud/data/db/sql 的轻量 IOrm 实现。
//
// 谓词树渲染为参数化 SQL：关联条件使用相关子查询 EXISTS，关联计数使用标量子查询，
// 预加载按关联逐个执行 IN 查询后回填到同名结构体字段。
package basic

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"sync"

	dbcore "gocrud/data/db"
	dbsql "gocrud/data/db/sql"
	"gocrud/data/orm"
)

// Orm 基于 IDatabase 的 IOrm 实现
type Orm struct {
	db   dbcore.IDatabase
	sql  dbsql.ISql
	caps orm.Capabilities

	mu        sync.RWMutex
	structMap map[reflect.Type]*structMeta
}

// New 创建一个基于指定 IDatabase 的 Orm 适配器。
func New(db dbcore.IDatabase) *Orm {
	return &Orm{
		db:  db,
		sql: dbsql.New(db),
		caps: orm.NewCapabilities(
			orm.CapabilityBasicCRUD,
			orm.CapabilityQuery,
			orm.CapabilityPreload,
			orm.CapabilityRelations,
			orm.CapabilitySoftDelete,
			orm.CapabilityLocking,
			orm.CapabilityTransaction,
		),
		structMap: make(map[reflect.Type]*structMeta),
	}
}

func (o *Orm) Capabilities() orm.Capabilities { return o.caps }

// Model 返回模型级操作入口。
func (o *Orm) Model(meta *orm.ModelMeta) orm.IModel {
	if meta == nil {
		panic("basic.Orm: ModelMeta cannot be nil")
	}
	if meta.Table == "" {
		panic("basic.Orm: table name is empty")
	}
	return &model{orm: o, meta: meta}
}

// Begin 开启事务会话。
func (o *Orm) Begin(ctx context.Context) (orm.IOrmSession, error) {
	return o.BeginTx(ctx, nil)
}

// BeginTx 开启带选项的事务会话，会话共享结构体元信息缓存。
func (o *Orm) BeginTx(ctx context.Context, opts *sql.TxOptions) (orm.IOrmSession, error) {
	tx, err := o.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	inner := New(tx)
	inner.structMap = o.snapshotStructMap()
	return &session{Orm: inner, tx: tx}, nil
}

func (o *Orm) Database() dbcore.IDatabase { return o.db }

func (o *Orm) snapshotStructMap() map[reflect.Type]*structMeta {
	o.mu.RLock()
	defer o.mu.RUnlock()
	copied := make(map[reflect.Type]*structMeta, len(o.structMap))
	for k, v := range o.structMap {
		copied[k] = v
	}
	return copied
}

// session 实现 IOrmSession，委托给内部 Orm，并持有事务以便 Commit/Rollback。
type session struct {
	*Orm
	tx dbcore.ITransaction
}

func (s *session) Commit() error {
	if s.tx == nil {
		return fmt.Errorf("basic.session: tx is nil")
	}
	return s.tx.Commit()
}

func (s *session) Rollback() error {
	if s.tx == nil {
		return fmt.Errorf("basic.session: tx is nil")
	}
	return s.tx.Rollback()
}
