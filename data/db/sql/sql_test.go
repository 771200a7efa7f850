package sql_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocrud/data/db/basic"
	dbsql "gocrud/data/db/sql"
)

func newBuilder(t *testing.T, dialectName string) (dbsql.ISql, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return dbsql.New(basic.Wrap(conn, dialectName)), mock
}

func TestSelectBuildWithLockAndPaging(t *testing.T) {
	s, _ := newBuilder(t, "postgres")
	q, args := s.Select(`"posts".*`).
		From(`"posts"`).
		Where(`"posts"."status" = ?`, "draft").
		OrderBy(`"posts"."id" DESC`, "").
		Limit(10).
		Offset(20).
		ForShare().
		Build()

	assert.Equal(t, `SELECT "posts".* FROM "posts" WHERE "posts"."status" = ? ORDER BY "posts"."id" DESC LIMIT ? OFFSET ? FOR SHARE`, q)
	assert.Equal(t, []any{"draft", 10, 20}, args)
}

func TestSelectSQLiteIgnoresLock(t *testing.T) {
	s, _ := newBuilder(t, "sqlite")
	q, _ := s.Select().From("t").ForUpdate().Build()
	assert.Equal(t, "SELECT * FROM t", q)
}

func TestUpdateSetMapIsSorted(t *testing.T) {
	s, _ := newBuilder(t, "sqlite")
	q, args := s.Update("posts").
		SetMap(map[string]any{"title": "x", "deleted_at": nil}).
		Where(`"id" = ?`, 1).
		Build()

	assert.Equal(t, `UPDATE "posts" SET "deleted_at" = ?, "title" = ? WHERE "id" = ?`, q)
	assert.Equal(t, []any{nil, "x", 1}, args)
}

func TestInsertAndDeleteExec(t *testing.T) {
	s, mock := newBuilder(t, "postgres")
	mock.ExpectExec(`INSERT INTO "authors" ("name", "email") VALUES ($1, $2)`).
		WithArgs("Tolkien", "jrr@example.com").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`DELETE FROM "authors" WHERE "id" = $1`).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ctx := context.Background()
	_, err := s.InsertInto("authors").Columns("name", "email").Values("Tolkien", "jrr@example.com").Exec(ctx)
	require.NoError(t, err)
	_, err = s.DeleteFrom("authors").Where(`"id" = ?`, 1).Limit(1).Exec(ctx)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIsSafeIdentifier(t *testing.T) {
	assert.True(t, dbsql.IsSafeIdentifier("posts.author_id"))
	assert.False(t, dbsql.IsSafeIdentifier("1posts"))
	assert.False(t, dbsql.IsSafeIdentifier("posts;drop"))
	assert.False(t, dbsql.IsSafeIdentifier("posts."))
}

func TestInsertReturningIDPerDialect(t *testing.T) {
	ctx := context.Background()

	pg, pgMock := newBuilder(t, "postgres")
	pgMock.ExpectQuery(`INSERT INTO "posts" ("title") VALUES ($1) RETURNING "id"`).
		WithArgs("hello").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))
	id, err := pg.InsertInto("posts").Columns("title").Values("hello").ExecReturningID(ctx, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	require.NoError(t, pgMock.ExpectationsWereMet())

	my, myMock := newBuilder(t, "mysql")
	myMock.ExpectExec("INSERT INTO `posts` (`title`) VALUES (?)").
		WithArgs("hello").
		WillReturnResult(sqlmock.NewResult(7, 1))
	id, err = my.InsertInto("posts").Columns("title").Values("hello").ExecReturningID(ctx, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	require.NoError(t, myMock.ExpectationsWereMet())

	_, err = my.InsertInto("posts").Columns("title").Values("a").Values("b").ExecReturningID(ctx, "id")
	assert.Error(t, err)
}

func TestInsertAndDeleteBuildErrors(t *testing.T) {
	s, _ := newBuilder(t, "sqlite")

	_, _, err := s.InsertInto("posts").Build()
	assert.Error(t, err)
	_, _, err = s.InsertInto("posts").Columns("title", "status").Values("only one").Build()
	assert.Error(t, err)
	_, _, err = s.InsertInto("posts;drop").Columns("title").Values("x").Build()
	assert.Error(t, err)

	q, args, err := s.InsertInto("tags").Columns("name").Values("go").Values("sql").Build()
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "tags" ("name") VALUES (?), (?)`, q)
	assert.Equal(t, []any{"go", "sql"}, args)

	_, err = s.DeleteFrom("posts").Exec(context.Background())
	assert.ErrorContains(t, err, "without where")

	q, args, err = s.DeleteFrom("posts").Where(`"id" = ?`, 3).Limit(1).Build()
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "posts" WHERE "id" = ?`, q)
	assert.Equal(t, []any{3}, args)
}
