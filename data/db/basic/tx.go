package basic

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	core "gocrud/data/db"
	"gocrud/data/db/dialect"
)

// Tx 包装 *sql.Tx。在事务内再次 Begin 时以 SAVEPOINT 开启嵌套事务，
// 嵌套层的 Commit / Rollback 分别对应 RELEASE / ROLLBACK TO。
type Tx struct {
	owner   *DB
	tx      *sql.Tx
	dialect dialect.Dialect

	// savepoint 为空表示最外层事务
	savepoint string
	depth     int
	done      bool
}

func (t *Tx) Query(ctx context.Context, query string, args ...any) (core.IRows, error) {
	rows, err := t.tx.QueryContext(ctx, t.dialect.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	return &Rows{rows: rows}, nil
}

func (t *Tx) QueryRow(ctx context.Context, query string, args ...any) core.IRow {
	return &Row{row: t.tx.QueryRowContext(ctx, t.dialect.Rebind(query), args...)}
}

func (t *Tx) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, t.dialect.Rebind(query), args...)
}

func (t *Tx) Begin(ctx context.Context) (core.ITransaction, error) {
	return t.BeginTx(ctx, nil)
}

// BeginTx 开启嵌套事务。保存点沿用外层隔离级别，opts 只接受 nil 或默认值。
func (t *Tx) BeginTx(ctx context.Context, opts *sql.TxOptions) (core.ITransaction, error) {
	if t.done {
		return nil, sql.ErrTxDone
	}
	if opts != nil && (opts.Isolation != sql.LevelDefault || opts.ReadOnly) {
		return nil, fmt.Errorf("basic.Tx: nested transaction cannot change isolation or read-only mode")
	}
	name := fmt.Sprintf("sp_%d", t.depth+1)
	if _, err := t.tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return nil, fmt.Errorf("basic.Tx: savepoint: %w", err)
	}
	return &Tx{
		owner:     t.owner,
		tx:        t.tx,
		dialect:   t.dialect,
		savepoint: name,
		depth:     t.depth + 1,
	}, nil
}

func (t *Tx) Commit() error {
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	if t.savepoint == "" {
		return t.tx.Commit()
	}
	_, err := t.tx.Exec("RELEASE SAVEPOINT " + t.savepoint)
	return err
}

// Rollback 已提交或已回滚的事务再次回滚时返回 nil，便于 defer 使用。
func (t *Tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	if t.savepoint == "" {
		if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			return err
		}
		return nil
	}
	_, err := t.tx.Exec("ROLLBACK TO SAVEPOINT " + t.savepoint)
	return err
}

func (t *Tx) Ping(ctx context.Context) error { return t.owner.Ping(ctx) }

// Close 事务不持有连接池，关闭由外层 DB 负责
func (t *Tx) Close() error { return nil }
func (t *Tx) Raw() any     { return t.tx }

// Depth 嵌套深度，最外层为 0
func (t *Tx) Depth() int { return t.depth }

// GetDialectName 实现 core.IDialectNameProvider，便于在事务上下文中复用方言能力。
func (t *Tx) GetDialectName() string {
	return t.owner.GetDialectName()
}
