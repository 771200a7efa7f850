package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocrud/data/orm"
	"gocrud/data/orm/basic"
	"gocrud/errors"
	"gocrud/internal/blog"
)

type blogRepos struct {
	engine   *basic.Orm
	posts    *Repository[blog.Post]
	authors  *Repository[blog.Author]
	comments *Repository[blog.Comment]
}

func newBlogRepos(t *testing.T) blogRepos {
	t.Helper()
	database, err := blog.OpenMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	engine := basic.New(database)
	metas := blog.NewMetas()
	return blogRepos{
		engine:   engine,
		posts:    NewRepository[blog.Post](engine, metas.Posts),
		authors:  NewRepository[blog.Author](engine, metas.Authors),
		comments: NewRepository[blog.Comment](engine, metas.Comments),
	}
}

func postIDs(posts []*blog.Post) []int64 {
	ids := make([]int64, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	return ids
}

func TestBuildQueryAssemblyOrder(t *testing.T) {
	r := newBlogRepos(t)
	opts := &QueryOptions{
		Fields:       []string{"id", "ti tle"},
		Filters:      []Filter{{Field: "status", Value: "draft", Operator: OpEqual}, {Field: "views", Value: 3, Operator: OpGreater}},
		Search:       "go",
		SearchFields: []string{"title"},
		Sorts:        []Sort{{Field: "views", Direction: DESC}, {Field: "id", Direction: ASC}, {Field: "author.name", Direction: ASC}},
		Relations:    []Relation{{Name: "author"}, {Name: "comments", Constraint: orm.Where("body", "!=", "spam")}},
		Counts:       []string{"comments"},
		Limit:        20,
	}
	snapshot := *opts

	q, err := r.posts.BuildQuery(context.Background(), opts)
	require.NoError(t, err)
	qo := orm.CollectQueryOptions(q.Options()...)

	assert.Equal(t, []string{"id", "title"}, qo.Select)
	require.Len(t, qo.Filters, 2)
	assert.Equal(t, orm.And(orm.Where("status", "=", "draft"), orm.Where("views", ">", 3)), qo.Filters[0])
	assert.Equal(t, orm.Or(orm.WhereILike("title", "%go%")), qo.Filters[1])
	assert.Equal(t, []orm.OrderBy{{Column: "views", Desc: true}, {Column: "id"}}, qo.OrderBy)
	assert.Equal(t, []string{"comments"}, qo.Counts)
	require.Len(t, qo.Preload, 2)
	assert.Equal(t, "author", qo.Preload[0].Name)
	assert.Equal(t, []orm.Predicate{orm.Where("body", "!=", "spam")}, qo.Preload[1].Where)
	assert.Equal(t, 20, qo.Limit)

	assert.Equal(t, snapshot, *opts)
}

func TestBuildQueryEmptyInputs(t *testing.T) {
	r := newBlogRepos(t)

	q, err := r.posts.BuildQuery(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, q.Options())

	q, err = r.posts.BuildQuery(context.Background(), &QueryOptions{
		Filters: []Filter{{Field: "views", Value: []any{"", ""}, Operator: OpBetween}},
		Search:  "",
	})
	require.NoError(t, err)
	qo := orm.CollectQueryOptions(q.Options()...)
	assert.Empty(t, qo.Filters)
}

func TestBuildQueryRejectsInvalidOperator(t *testing.T) {
	r := newBlogRepos(t)
	_, err := r.posts.BuildQuery(context.Background(), &QueryOptions{
		Filters: []Filter{{Field: "title", Value: "x", Operator: Operator("like")}},
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeValidation, errors.GetErrorCode(err))
}

func TestGetManyFilters(t *testing.T) {
	r := newBlogRepos(t)
	ctx := context.Background()

	cases := []struct {
		name string
		opts *QueryOptions
		want []int64
	}{
		{"all visible", &QueryOptions{Sorts: []Sort{{Field: "id", Direction: ASC}}}, []int64{1, 2, 3, 5}},
		{"in", &QueryOptions{Filters: []Filter{{Field: "status", Value: []string{"draft"}, Operator: OpEqual}}}, []int64{2, 5}},
		{"between open upper", &QueryOptions{Filters: []Filter{{Field: "views", Value: []string{"15", ""}, Operator: OpBetween}}}, []int64{1, 2, 3}},
		{"between closed", &QueryOptions{Filters: []Filter{{Field: "views", Value: []any{10, 100}, Operator: OpBetween}}}, []int64{2, 3}},
		{"contain ignores case", &QueryOptions{Filters: []Filter{{Field: "title", Value: "QUERY", Operator: OpContain}}}, []int64{3}},
		{"date", &QueryOptions{Filters: []Filter{{Field: "created_at", Value: "2024-02-05", Operator: OpDate}}}, []int64{2, 3}},
		{"exists", &QueryOptions{Filters: []Filter{{Field: "published_at", Value: "true", Operator: OpExists}}}, []int64{1, 3}},
		{"not exists", &QueryOptions{Filters: []Filter{{Field: "author_id", Value: false, Operator: OpExists}}}, []int64{5}},
		{"not equal", &QueryOptions{Filters: []Filter{{Field: "status", Value: "draft", Operator: OpNotEqual}}}, []int64{1, 3}},
		{"relation", &QueryOptions{Filters: []Filter{{Field: "author.name", Value: "Bob", Operator: OpEqual}}}, []int64{3}},
		{"nested relation", &QueryOptions{Filters: []Filter{{Field: "author.posts.status", Value: "draft", Operator: OpEqual}}}, []int64{1, 2}},
		{"many to many", &QueryOptions{Filters: []Filter{{Field: "tags.name", Value: "sql", Operator: OpEqual}}}, []int64{3}},
		{"not has", &QueryOptions{Filters: []Filter{{Field: "comments.id", Operator: OpNotHas}}}, []int64{2, 5}},
		{"and", &QueryOptions{Filters: []Filter{
			{Field: "status", Value: "published", Operator: OpEqual},
			{Field: "views", Value: 100, Operator: OpLess},
		}}, []int64{3}},
		{"search across relation", &QueryOptions{Search: "alice", SearchFields: []string{"title", "author.name"}}, []int64{1, 2}},
		{"search and filter", &QueryOptions{
			Filters:      []Filter{{Field: "status", Value: "draft", Operator: OpEqual}},
			Search:       "notes",
			SearchFields: []string{"title"},
		}, []int64{5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			posts, err := r.posts.GetMany(ctx, tc.opts)
			require.NoError(t, err)
			assert.ElementsMatch(t, tc.want, postIDs(posts))
		})
	}
}

func TestSortsApplyInOrder(t *testing.T) {
	r := newBlogRepos(t)
	posts, err := r.posts.GetMany(context.Background(), &QueryOptions{
		Sorts: []Sort{{Field: "status", Direction: DESC}, {Field: "views", Direction: ASC}},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1, 5, 2}, postIDs(posts))
}

func TestTrashedVisibility(t *testing.T) {
	r := newBlogRepos(t)
	ctx := context.Background()

	visible, err := r.posts.GetMany(ctx, nil)
	require.NoError(t, err)
	assert.NotContains(t, postIDs(visible), int64(4))

	all, err := r.posts.GetManyWithTrashed(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	trash, err := r.posts.GetManyFromTrash(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{4}, postIDs(trash))

	got, err := r.posts.GetOne(ctx, 4, nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = r.posts.GetOneOrFail(ctx, 4, nil)
	assert.True(t, errors.IsNotFound(err))

	got, err = r.posts.GetOneWithTrashedOrFail(ctx, 4, nil)
	require.NoError(t, err)
	assert.True(t, got.IsTrashed())

	got, err = r.posts.GetOneFromTrashOrFail(ctx, 4, nil)
	require.NoError(t, err)
	assert.Equal(t, "Archived thoughts", got.Title)

	_, err = r.posts.GetOneFromTrashOrFail(ctx, 1, nil)
	assert.True(t, errors.IsNotFound(err))
}

func TestGetOneWithRelationsAndCounts(t *testing.T) {
	r := newBlogRepos(t)
	ctx := context.Background()

	post, err := r.posts.GetOneOrFail(ctx, 3, &QueryOptions{
		Relations: []Relation{{Name: "author"}, {Name: "comments"}},
		Counts:    []string{"comments", "tags"},
	})
	require.NoError(t, err)
	require.NotNil(t, post.Author)
	assert.Equal(t, "Bob", post.Author.Name)
	// 已软删除的评论既不预加载也不计数
	require.Len(t, post.Comments, 1)
	assert.Equal(t, "Nice builder", post.Comments[0].Body)
	assert.Equal(t, int64(1), post.CommentsCount)
	assert.Equal(t, int64(2), post.TagsCount)

	missing, err := r.posts.GetOne(ctx, 999, nil)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestEagerLoadConstraint(t *testing.T) {
	r := newBlogRepos(t)
	post, err := r.posts.GetOneOrFail(context.Background(), 1, &QueryOptions{
		Relations: []Relation{{Name: "comments", Constraint: orm.WhereILike("body", "%neat%")}},
	})
	require.NoError(t, err)
	require.Len(t, post.Comments, 1)
	assert.Equal(t, "Generics are neat", post.Comments[0].Body)
}

func TestUnknownRelationIsValidationError(t *testing.T) {
	r := newBlogRepos(t)
	_, err := r.posts.GetMany(context.Background(), &QueryOptions{
		Filters: []Filter{{Field: "editor.name", Value: "x", Operator: OpEqual}},
	})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestPaginate(t *testing.T) {
	r := newBlogRepos(t)
	ctx := context.Background()

	page, err := r.posts.Paginate(ctx, &QueryOptions{
		Sorts: []Sort{{Field: "id", Direction: ASC}},
		Limit: 3,
		Page:  2,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 3, page.Size)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, []int64{5}, postIDs(page.Data))

	page, err = r.posts.Paginate(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultPageSize, page.Size)
	assert.Equal(t, 1, page.Page)
	assert.Len(t, page.Data, 4)

	page, err = r.posts.PaginateWithTrashed(ctx, &QueryOptions{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, 3, page.TotalPages)

	page, err = r.posts.PaginateFromTrash(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	empty, err := r.posts.Paginate(ctx, &QueryOptions{
		Filters: []Filter{{Field: "status", Value: "missing", Operator: OpEqual}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), empty.Total)
	assert.NotNil(t, empty.Data)
	assert.Empty(t, empty.Data)
}

func TestCount(t *testing.T) {
	r := newBlogRepos(t)
	n, err := r.posts.Count(context.Background(), &QueryOptions{
		Search:       "go",
		SearchFields: []string{"title"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCreateUpdateDeleteRestore(t *testing.T) {
	r := newBlogRepos(t)
	ctx := context.Background()

	created, err := r.posts.CreateOne(ctx, map[string]any{
		"title":     "Fresh",
		"status":    "draft",
		"views":     "7",
		"author_id": 3,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(6), created.ID)
	assert.Equal(t, 7, created.Views)
	require.NotNil(t, created.AuthorID)
	assert.Equal(t, int64(3), *created.AuthorID)
	assert.False(t, created.CreatedAt.IsZero())

	updated, err := r.posts.UpdateOne(ctx, created, map[string]any{"status": "published", "id": 99})
	require.NoError(t, err)
	assert.Equal(t, int64(6), updated.ID)

	reloaded, err := r.posts.GetOneOrFail(ctx, 6, nil)
	require.NoError(t, err)
	assert.Equal(t, "published", reloaded.Status)

	deleted, err := r.posts.DeleteOne(ctx, reloaded)
	require.NoError(t, err)
	assert.True(t, deleted.IsTrashed())
	_, err = r.posts.GetOneOrFail(ctx, 6, nil)
	assert.True(t, errors.IsNotFound(err))

	trashed, err := r.posts.GetOneFromTrashOrFail(ctx, 6, nil)
	require.NoError(t, err)
	restored, err := r.posts.RestoreOne(ctx, trashed)
	require.NoError(t, err)
	assert.False(t, restored.IsTrashed())
	_, err = r.posts.GetOneOrFail(ctx, 6, nil)
	require.NoError(t, err)

	_, err = r.posts.ForceDeleteOne(ctx, restored)
	require.NoError(t, err)
	_, err = r.posts.GetOneWithTrashedOrFail(ctx, 6, nil)
	assert.True(t, errors.IsNotFound(err))
}

func TestNilRecordsAreNoOps(t *testing.T) {
	r := newBlogRepos(t)
	ctx := context.Background()

	got, err := r.posts.UpdateOne(ctx, nil, map[string]any{"title": "x"})
	assert.NoError(t, err)
	assert.Nil(t, got)

	got, err = r.posts.DeleteOne(ctx, nil)
	assert.NoError(t, err)
	assert.Nil(t, got)

	got, err = r.posts.RestoreOne(ctx, nil)
	assert.NoError(t, err)
	assert.Nil(t, got)

	got, err = r.posts.ForceDeleteOne(ctx, nil)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeleteWithoutSoftDeleteColumn(t *testing.T) {
	r := newBlogRepos(t)
	ctx := context.Background()

	carol, err := r.authors.GetOneOrFail(ctx, 3, nil)
	require.NoError(t, err)
	_, err = r.authors.DeleteOne(ctx, carol)
	require.NoError(t, err)

	got, err := r.authors.GetOne(ctx, 3, nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	bob, err := r.authors.GetOneOrFail(ctx, 2, nil)
	require.NoError(t, err)
	_, err = r.authors.RestoreOne(ctx, bob)
	assert.Equal(t, errors.ErrCodeUnsupported, errors.GetErrorCode(err))
}

func TestCreateValidationAndConflict(t *testing.T) {
	r := newBlogRepos(t)
	ctx := context.Background()

	_, err := r.posts.CreateOne(ctx, map[string]any{"title": "", "status": "unknown"})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	var appErr errors.IError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Details(), "title")
	assert.Contains(t, appErr.Details(), "status")

	_, err = r.posts.CreateOne(ctx, map[string]any{"title": "x", "status": "draft", "views": "many"})
	assert.True(t, errors.IsValidation(err))

	_, err = r.authors.CreateOne(ctx, map[string]any{"name": "Alice again", "email": "alice@example.com"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConflict, errors.GetErrorCode(err))
}

func TestLatestWithSharedLock(t *testing.T) {
	r := newBlogRepos(t)
	ctx := context.Background()

	var latest *blog.Post
	err := r.posts.Transaction(ctx, func(tx *Repository[blog.Post]) error {
		var err error
		latest, err = tx.LatestWithSharedLock(ctx, "created_at")
		return err
	})
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, int64(5), latest.ID)

	_, err = r.posts.LatestWithSharedLock(ctx, "created_at desc")
	assert.True(t, errors.IsValidation(err))
}

func TestLatestWithSharedLockEmptyTable(t *testing.T) {
	r := newBlogRepos(t)
	ctx := context.Background()

	trash, err := r.comments.GetManyWithTrashed(ctx, nil)
	require.NoError(t, err)
	for _, c := range trash {
		_, err := r.comments.ForceDeleteOne(ctx, c)
		require.NoError(t, err)
	}

	latest, err := r.comments.LatestWithSharedLock(ctx, "id")
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestTransactionRollback(t *testing.T) {
	r := newBlogRepos(t)
	ctx := context.Background()

	boom := errors.NewError(errors.ErrCodeInternal, "boom")
	err := r.posts.Transaction(ctx, func(tx *Repository[blog.Post]) error {
		if _, err := tx.CreateOne(ctx, map[string]any{"title": "tx", "status": "draft"}); err != nil {
			return err
		}
		return boom
	})
	assert.Same(t, boom, err)

	n, err := r.posts.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestNestedTransactionRollsBackInnerOnly(t *testing.T) {
	r := newBlogRepos(t)
	ctx := context.Background()

	boom := errors.NewError(errors.ErrCodeInternal, "boom")
	err := r.posts.Transaction(ctx, func(tx *Repository[blog.Post]) error {
		if _, err := tx.CreateOne(ctx, map[string]any{"title": "outer", "status": "draft"}); err != nil {
			return err
		}
		inner := tx.Transaction(ctx, func(nested *Repository[blog.Post]) error {
			if _, err := nested.CreateOne(ctx, map[string]any{"title": "inner", "status": "draft"}); err != nil {
				return err
			}
			return boom
		})
		assert.Same(t, boom, inner)
		return nil
	})
	require.NoError(t, err)

	titles, err := r.posts.GetMany(ctx, &QueryOptions{Filters: []Filter{{Field: "id", Value: 5, Operator: OpGreater}}})
	require.NoError(t, err)
	require.Len(t, titles, 1)
	assert.Equal(t, "outer", titles[0].Title)
}

// restrictedOrm 只声明部分能力的适配器
type restrictedOrm struct {
	*basic.Orm
	caps orm.Capabilities
}

func (o restrictedOrm) Capabilities() orm.Capabilities { return o.caps }

func TestUndeclaredCapabilitiesAreUnsupported(t *testing.T) {
	r := newBlogRepos(t)
	ctx := context.Background()
	engine := restrictedOrm{Orm: r.engine, caps: orm.NewCapabilities(orm.CapabilityBasicCRUD, orm.CapabilityQuery)}
	posts := NewRepository[blog.Post](engine, blog.NewMetas().Posts)

	unsupported := func(err error) {
		t.Helper()
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeUnsupported, errors.GetErrorCode(err))
	}

	_, err := posts.GetMany(ctx, &QueryOptions{Relations: []Relation{{Name: "author"}}})
	unsupported(err)
	_, err = posts.GetMany(ctx, &QueryOptions{Counts: []string{"comments"}})
	unsupported(err)
	_, err = posts.LatestWithSharedLock(ctx, "created_at")
	unsupported(err)
	unsupported(posts.Transaction(ctx, func(*Repository[blog.Post]) error { return nil }))

	post, err := posts.GetOneOrFail(ctx, 1, nil)
	require.NoError(t, err)
	_, err = posts.DeleteOne(ctx, post)
	unsupported(err)
	trashed, err := posts.GetOneFromTrashOrFail(ctx, 4, nil)
	require.NoError(t, err)
	_, err = posts.RestoreOne(ctx, trashed)
	unsupported(err)

	all, err := posts.GetMany(ctx, &QueryOptions{
		Filters: []Filter{{Field: "status", Value: "draft", Operator: OpEqual}},
		Sorts:   []Sort{{Field: "id", Direction: ASC}},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 5}, postIDs(all))
}
