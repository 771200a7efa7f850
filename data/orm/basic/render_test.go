package basic

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocrud/data/orm"
)

func TestFindRendersRelationsCountsAndScope(t *testing.T) {
	o, mock := newMockOrm(t, "sqlite")
	metas := newTestMetas()

	mock.ExpectQuery(`SELECT "posts".*, ` +
		`(SELECT COUNT(*) FROM "comments" WHERE "comments"."post_id" = "posts"."id" AND "comments"."deleted_at" IS NULL) AS "comments_count" ` +
		`FROM "posts" WHERE "posts"."deleted_at" IS NULL ` +
		`AND (EXISTS (SELECT 1 FROM "authors" WHERE "authors"."id" = "posts"."author_id" AND LOWER("authors"."name") LIKE LOWER(?))) ` +
		`ORDER BY "comments_count" DESC, "posts"."id" ASC LIMIT ?`).
		WithArgs("%tolkien%", 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "comments_count"}).
			AddRow(int64(1), "The Hobbit", int64(3)))

	var posts []testPost
	err := o.Model(metas.posts).Find(context.Background(), &posts,
		orm.WithFilter(orm.And(orm.WhereHas("author", orm.WhereILike("name", "%tolkien%")))),
		orm.WithCount("comments"),
		orm.WithOrderBy("comments_count", true),
		orm.WithOrderBy("id", false),
		orm.WithLimit(10),
	)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "The Hobbit", posts[0].Title)
	assert.Equal(t, int64(3), posts[0].CommentsCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFirstWithSharedLockOnPostgres(t *testing.T) {
	o, mock := newMockOrm(t, "postgres")
	metas := newTestMetas()

	mock.ExpectQuery(`SELECT "posts".* FROM "posts" WHERE "posts"."deleted_at" IS NULL ` +
		`ORDER BY "posts"."created_at" DESC LIMIT $1 FOR SHARE`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow(int64(9), "latest"))

	var post testPost
	err := o.Model(metas.posts).First(context.Background(), &post,
		orm.WithOrderBy("created_at", true),
		orm.WithSharedLock(),
	)
	require.NoError(t, err)
	assert.Equal(t, int64(9), post.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCountRendersScalarPredicatesOnMySQL(t *testing.T) {
	o, mock := newMockOrm(t, "mysql")
	metas := newTestMetas()

	mock.ExpectQuery("SELECT COUNT(*) FROM `posts` WHERE `posts`.`deleted_at` IS NOT NULL AND " +
		"(`posts`.`id` IN (?, ?) AND `posts`.`views` BETWEEN ? AND ? AND DATE(`posts`.`created_at`) = ? " +
		"AND `posts`.`author_id` IS NULL AND `posts`.`status` <> ?)").
		WithArgs(1, 2, 10, 20, "2024-05-01", "archived").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(4)))

	count, err := o.Model(metas.posts).Count(context.Background(),
		orm.OnlyTrashed(),
		orm.WithFilter(orm.And(
			orm.WhereIn("id", []any{1, 2}),
			orm.WhereBetween("views", 10, 20),
			orm.WhereDate("created_at", "2024-05-01"),
			orm.WhereNull("author_id"),
			orm.Where("status", "!=", "archived"),
		)),
		orm.WithLimit(5),
	)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNestedAndNegatedRelations(t *testing.T) {
	r := renderer{dialect: newTestDialect("sqlite")}
	metas := newTestMetas()

	expr, args, err := r.render(metas.posts, orm.WhereHas("author", orm.WhereDoesntHave("posts")))
	require.NoError(t, err)
	assert.Equal(t, `EXISTS (SELECT 1 FROM "authors" WHERE "authors"."id" = "posts"."author_id" AND `+
		`NOT EXISTS (SELECT 1 FROM "posts" WHERE "posts"."author_id" = "authors"."id" AND "posts"."deleted_at" IS NULL))`, expr)
	assert.Empty(t, args)

	expr, args, err = r.render(metas.posts, orm.WhereHas("tags", orm.Where("name", "=", "go")))
	require.NoError(t, err)
	assert.Equal(t, `EXISTS (SELECT 1 FROM "tags" INNER JOIN "post_tags" ON "post_tags"."tag_id" = "tags"."id" `+
		`WHERE "post_tags"."post_id" = "posts"."id" AND "tags"."name" = ?)`, expr)
	assert.Equal(t, []any{"go"}, args)

	expr, _, err = r.render(metas.posts, orm.Or(orm.And(), orm.WhereNotNull("author_id")))
	require.NoError(t, err)
	assert.Equal(t, `("posts"."author_id" IS NOT NULL)`, expr)
}

func TestRenderRejectsUnsafeInput(t *testing.T) {
	r := renderer{dialect: newTestDialect("sqlite")}
	metas := newTestMetas()

	_, _, err := r.render(metas.posts, orm.Where("title; DROP TABLE posts", "=", 1))
	assert.ErrorIs(t, err, orm.ErrInvalidIdentifier)

	_, _, err = r.render(metas.posts, orm.Where("title", "~*", 1))
	assert.ErrorIs(t, err, orm.ErrInvalidIdentifier)

	_, _, err = r.render(metas.posts, orm.WhereHas("editor"))
	assert.ErrorIs(t, err, orm.ErrInvalidIdentifier)

	expr, _, err := r.render(metas.posts, orm.WhereIn("id", nil))
	require.NoError(t, err)
	assert.Equal(t, "1 = 0", expr)
}
