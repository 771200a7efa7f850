package sql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	core "gocrud/data/db"
	"gocrud/data/db/dialect"
)

type deleteBuilder struct {
	db      core.IDatabase
	dialect dialect.Dialect

	table string
	where []string
	args  []any
	limit int
}

func (b *deleteBuilder) Where(cond string, args ...any) IDeleteBuilder {
	if cond != "" {
		b.where = append(b.where, cond)
		b.args = append(b.args, args...)
	}
	return b
}

// Limit 仅在方言支持 DELETE ... LIMIT 时生效
func (b *deleteBuilder) Limit(n int) IDeleteBuilder {
	b.limit = n
	return b
}

// Build 渲染 DELETE。没有任何条件时返回错误，整表删除需显式写 Where("1 = 1")
func (b *deleteBuilder) Build() (string, []any, error) {
	if !IsSafeIdentifier(b.table) {
		return "", nil, fmt.Errorf("delete: unsafe table name %q", b.table)
	}
	if len(b.where) == 0 {
		return "", nil, fmt.Errorf("delete from %s: refusing to delete without where", b.table)
	}

	args := append(make([]any, 0, len(b.args)+1), b.args...)
	q := "DELETE FROM " + b.dialect.QuoteIdentifier(b.table) + " WHERE " + strings.Join(b.where, " AND ")
	if b.limit > 0 && b.dialect.SupportsDeleteLimit() {
		q += " LIMIT ?"
		args = append(args, b.limit)
	}
	return q, args, nil
}

func (b *deleteBuilder) Exec(ctx context.Context) (sql.Result, error) {
	q, args, err := b.Build()
	if err != nil {
		return nil, err
	}
	return b.db.Exec(ctx, q, args...)
}
