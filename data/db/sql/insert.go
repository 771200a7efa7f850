package sql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	core "gocrud/data/db"
	"gocrud/data/db/dialect"
)

type insertBuilder struct {
	db      core.IDatabase
	dialect dialect.Dialect

	table   string
	columns []string
	rows    [][]any
}

func (b *insertBuilder) Columns(cols ...string) IInsertBuilder {
	b.columns = cols
	return b
}

func (b *insertBuilder) Values(vals ...any) IInsertBuilder {
	if len(vals) > 0 {
		b.rows = append(b.rows, vals)
	}
	return b
}

// Build 渲染多行 INSERT；表名、列名不安全或行宽与列数不一致时返回错误
func (b *insertBuilder) Build() (string, []any, error) {
	if !IsSafeIdentifier(b.table) {
		return "", nil, fmt.Errorf("insert: unsafe table name %q", b.table)
	}
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("insert into %s: no columns", b.table)
	}
	if len(b.rows) == 0 {
		return "", nil, fmt.Errorf("insert into %s: no rows", b.table)
	}

	quoted := make([]string, len(b.columns))
	for i, col := range b.columns {
		if !IsSafeIdentifier(col) {
			return "", nil, fmt.Errorf("insert into %s: unsafe column name %q", b.table, col)
		}
		quoted[i] = b.dialect.QuoteIdentifier(col)
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(b.dialect.QuoteIdentifier(b.table))
	sb.WriteString(" (")
	sb.WriteString(strings.Join(quoted, ", "))
	sb.WriteString(") VALUES ")

	tuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(b.columns)), ", ") + ")"
	args := make([]any, 0, len(b.rows)*len(b.columns))
	for i, row := range b.rows {
		if len(row) != len(b.columns) {
			return "", nil, fmt.Errorf("insert into %s: row %d has %d values for %d columns",
				b.table, i, len(row), len(b.columns))
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(tuple)
		args = append(args, row...)
	}
	return sb.String(), args, nil
}

func (b *insertBuilder) Exec(ctx context.Context) (sql.Result, error) {
	q, args, err := b.Build()
	if err != nil {
		return nil, err
	}
	return b.db.Exec(ctx, q, args...)
}

// ExecReturningID 插入单行并返回自增主键：Postgres 使用 RETURNING，其余方言读取 LastInsertId
func (b *insertBuilder) ExecReturningID(ctx context.Context, pk string) (int64, error) {
	if len(b.rows) != 1 {
		return 0, fmt.Errorf("insert into %s: generated key needs exactly one row, got %d", b.table, len(b.rows))
	}
	q, args, err := b.Build()
	if err != nil {
		return 0, err
	}

	if b.dialect.Name() == dialect.NamePostgres {
		if !IsSafeIdentifier(pk) {
			return 0, fmt.Errorf("insert into %s: unsafe key column %q", b.table, pk)
		}
		var id int64
		err := b.db.QueryRow(ctx, q+" RETURNING "+b.dialect.QuoteIdentifier(pk), args...).Scan(&id)
		return id, err
	}

	res, err := b.db.Exec(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
