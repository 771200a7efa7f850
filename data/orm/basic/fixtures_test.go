package basic

import (
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"gocrud/data/db"
	dbbasic "gocrud/data/db/basic"
	"gocrud/data/db/dialect"
	"gocrud/data/orm"
)

type testAuthor struct {
	ID    int64  `db:"id" gorm:"primaryKey;autoIncrement"`
	Name  string `db:"name"`
	Email string `db:"email"`
}

type testComment struct {
	ID        int64      `db:"id" gorm:"primaryKey;autoIncrement"`
	PostID    int64      `db:"post_id"`
	Body      string     `db:"body"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at"`
}

type testPost struct {
	ID            int64      `db:"id" gorm:"primaryKey;autoIncrement"`
	AuthorID      *int64     `db:"author_id"`
	Title         string     `db:"title"`
	Status        string     `db:"status"`
	Views         int        `db:"views"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
	DeletedAt     *time.Time `db:"deleted_at"`
	CommentsCount int64      `db:"comments_count" gorm:"->"`

	Author   *testAuthor
	Comments []testComment
	Tags     []testTag
}

type testTag struct {
	ID   int64  `db:"id" gorm:"primaryKey;autoIncrement"`
	Name string `db:"name"`
}

const testSchema = `
CREATE TABLE authors (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	email TEXT NOT NULL DEFAULT ''
);
CREATE TABLE posts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	author_id INTEGER,
	title TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'draft',
	views INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME,
	updated_at DATETIME,
	deleted_at DATETIME
);
CREATE TABLE comments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	post_id INTEGER NOT NULL,
	body TEXT NOT NULL,
	created_at DATETIME,
	updated_at DATETIME,
	deleted_at DATETIME
);
CREATE TABLE tags (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL
);
CREATE TABLE post_tags (
	post_id INTEGER NOT NULL,
	tag_id INTEGER NOT NULL
);`

type testMetas struct {
	authors  *orm.ModelMeta
	posts    *orm.ModelMeta
	comments *orm.ModelMeta
	tags     *orm.ModelMeta
}

func newTestMetas() testMetas {
	authors := &orm.ModelMeta{Model: testAuthor{}, Table: "authors"}
	comments := &orm.ModelMeta{Model: testComment{}, Table: "comments", SoftDeleteColumn: "deleted_at"}
	tags := &orm.ModelMeta{Model: testTag{}, Table: "tags"}
	posts := &orm.ModelMeta{
		Model:            testPost{},
		Table:            "posts",
		SoftDeleteColumn: "deleted_at",
		Associations: []orm.AssociationMeta{
			{Name: "author", Kind: orm.AssociationBelongsTo, Target: authors},
			{Name: "comments", Kind: orm.AssociationHasMany, Target: comments},
			{Name: "tags", Kind: orm.AssociationManyToMany, Target: tags, JoinTable: "post_tags"},
		},
	}
	authors.Associations = []orm.AssociationMeta{
		{Name: "posts", Kind: orm.AssociationHasMany, Target: posts},
	}
	return testMetas{authors: authors, posts: posts, comments: comments, tags: tags}
}

// newMockOrm 返回基于 sqlmock 的 Orm，SQL 按字面量精确匹配
func newMockOrm(t *testing.T, dialectName string) (*Orm, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return New(dbbasic.Wrap(conn, dialectName)), mock
}

// newSQLiteOrm 返回建好表的内存 SQLite Orm
func newSQLiteOrm(t *testing.T) *Orm {
	t.Helper()
	database, err := dbbasic.New(db.DBConfig{
		Driver:       "sqlite",
		DSN:          ":memory:?_time_format=sqlite",
		MaxOpenConns: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	var statements []string
	for _, stmt := range strings.Split(testSchema, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			statements = append(statements, stmt)
		}
	}
	require.NoError(t, database.ExecDDL(t.Context(), statements...))
	return New(database)
}

func newTestDialect(name string) dialect.Dialect {
	return dialect.New(name)
}
