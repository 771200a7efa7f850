// Package sql 提供基于 IDatabase 的轻量 SQL 构建器，按方言处理引用、锁与占位符。
package sql

import (
	"context"
	"database/sql"

	core "gocrud/data/db"
	"gocrud/data/db/dialect"
)

// ISql 提供统一的 SQL 构建与执行接口。
type ISql interface {
	Select(columns ...string) ISelectBuilder
	InsertInto(table string) IInsertBuilder
	Update(table string) IUpdateBuilder
	DeleteFrom(table string) IDeleteBuilder

	// Dialect 返回当前数据库方言，供上层渲染 ILIKE / DATE 等表达式
	Dialect() dialect.Dialect
}

// ISelectBuilder SELECT 构建器
type ISelectBuilder interface {
	From(table string) ISelectBuilder
	Where(cond string, args ...any) ISelectBuilder
	OrderBy(exprs ...string) ISelectBuilder
	Limit(n int) ISelectBuilder
	Offset(n int) ISelectBuilder
	// ForUpdate 追加排他锁子句
	ForUpdate() ISelectBuilder
	// ForShare 追加共享锁子句
	ForShare() ISelectBuilder

	Build() (string, []any)
	Query(ctx context.Context) (core.IRows, error)
	QueryRow(ctx context.Context) core.IRow
}

// IInsertBuilder INSERT 构建器
type IInsertBuilder interface {
	Columns(cols ...string) IInsertBuilder
	Values(vals ...any) IInsertBuilder
	Build() (string, []any, error)
	Exec(ctx context.Context) (sql.Result, error)
	// ExecReturningID 插入单行并返回生成的整型主键 pk
	ExecReturningID(ctx context.Context, pk string) (int64, error)
}

// IUpdateBuilder UPDATE 构建器
type IUpdateBuilder interface {
	Set(col string, val any) IUpdateBuilder
	SetMap(values map[string]any) IUpdateBuilder
	Where(cond string, args ...any) IUpdateBuilder
	Build() (string, []any)
	Exec(ctx context.Context) (sql.Result, error)
}

// IDeleteBuilder DELETE 构建器
type IDeleteBuilder interface {
	Where(cond string, args ...any) IDeleteBuilder
	Limit(n int) IDeleteBuilder
	Build() (string, []any, error)
	Exec(ctx context.Context) (sql.Result, error)
}

type sqlImpl struct {
	db      core.IDatabase
	dialect dialect.Dialect
}

// New 基于 IDatabase 创建 ISql，方言从 IDatabase 推断
func New(db core.IDatabase) ISql {
	return &sqlImpl{db: db, dialect: dialect.FromDatabase(db)}
}

func (s *sqlImpl) Select(columns ...string) ISelectBuilder {
	if len(columns) == 0 {
		columns = []string{"*"}
	}
	return &selectBuilder{db: s.db, dialect: s.dialect, cols: columns}
}

func (s *sqlImpl) InsertInto(table string) IInsertBuilder {
	return &insertBuilder{db: s.db, dialect: s.dialect, table: table}
}

func (s *sqlImpl) Update(table string) IUpdateBuilder {
	return &updateBuilder{db: s.db, dialect: s.dialect, table: table}
}

func (s *sqlImpl) DeleteFrom(table string) IDeleteBuilder {
	return &deleteBuilder{db: s.db, dialect: s.dialect, table: table}
}

func (s *sqlImpl) Dialect() dialect.Dialect { return s.dialect }
