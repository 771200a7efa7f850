package repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocrud/data/orm"
	"gocrud/errors"
)

func TestFilterPredicateOperators(t *testing.T) {
	cases := []struct {
		name   string
		filter Filter
		want   orm.Predicate
	}{
		{
			name:   "equal",
			filter: Filter{Field: "status", Value: "draft", Operator: OpEqual},
			want:   orm.Where("status", "=", "draft"),
		},
		{
			name:   "greater",
			filter: Filter{Field: "views", Value: 10, Operator: OpGreater},
			want:   orm.Where("views", ">", 10),
		},
		{
			name:   "sequence becomes IN",
			filter: Filter{Field: "status", Value: []string{"draft", "published"}, Operator: OpEqual},
			want:   orm.WhereIn("status", []any{"draft", "published"}),
		},
		{
			name:   "sequence wins over contain",
			filter: Filter{Field: "id", Value: []int{1, 2}, Operator: OpContain},
			want:   orm.WhereIn("id", []any{1, 2}),
		},
		{
			name:   "contain",
			filter: Filter{Field: "title", Value: "Go", Operator: OpContain},
			want:   orm.WhereILike("title", "%Go%"),
		},
		{
			name:   "date",
			filter: Filter{Field: "created_at", Value: "2024-02-05", Operator: OpDate},
			want:   orm.WhereDate("created_at", "2024-02-05"),
		},
		{
			name:   "exists true",
			filter: Filter{Field: "published_at", Value: true, Operator: OpExists},
			want:   orm.WhereNotNull("published_at"),
		},
		{
			name:   "exists TRUE string",
			filter: Filter{Field: "published_at", Value: "TRUE", Operator: OpExists},
			want:   orm.WhereNotNull("published_at"),
		},
		{
			name:   "exists other",
			filter: Filter{Field: "published_at", Value: "yes", Operator: OpExists},
			want:   orm.WhereNull("published_at"),
		},
		{
			name:   "equal nil",
			filter: Filter{Field: "author_id", Value: nil, Operator: OpEqual},
			want:   orm.WhereNull("author_id"),
		},
		{
			name:   "not equal nil",
			filter: Filter{Field: "author_id", Value: nil, Operator: OpNotEqual},
			want:   orm.WhereNotNull("author_id"),
		},
		{
			name:   "relation not equal nil",
			filter: Filter{Field: "author.email", Value: nil, Operator: OpNotEqual},
			want:   orm.WhereHas("author", orm.WhereNotNull("email")),
		},
		{
			name:   "exists false",
			filter: Filter{Field: "published_at", Value: false, Operator: OpExists},
			want:   orm.WhereNull("published_at"),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := filterPredicate(tc.filter)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFilterPredicateBetween(t *testing.T) {
	cases := []struct {
		name  string
		value any
		want  orm.Predicate
	}{
		{"both ends", []any{1, 10}, orm.WhereBetween("views", 1, 10)},
		{"lower only", []string{"5", ""}, orm.Where("views", ">=", "5")},
		{"upper only", []string{"", "10"}, orm.Where("views", "<=", "10")},
		{"scalar is lower bound", "3", orm.Where("views", ">=", "3")},
		{"zero is a value", []any{0, 10}, orm.WhereBetween("views", 0, 10)},
		{"zero string lower only", []string{"0", ""}, orm.Where("views", ">=", "0")},
		{"false and nil are empty", []any{false, nil}, orm.Predicate{}},
		{"empty sequence", []any{}, orm.Predicate{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := filterPredicate(Filter{Field: "views", Value: tc.value, Operator: OpBetween})
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFilterPredicateRelations(t *testing.T) {
	got, err := filterPredicate(Filter{Field: "author.name", Value: "Alice", Operator: OpEqual})
	require.NoError(t, err)
	assert.Equal(t, orm.WhereHas("author", orm.Where("name", "=", "Alice")), got)

	got, err = filterPredicate(Filter{Field: "comments.post.title", Value: "go", Operator: OpContain})
	require.NoError(t, err)
	assert.Equal(t, orm.WhereHas("comments", orm.WhereHas("post", orm.WhereILike("title", "%go%"))), got)

	got, err = filterPredicate(Filter{Field: "comments.id", Value: "ignored", Operator: OpNotHas})
	require.NoError(t, err)
	assert.Equal(t, orm.WhereDoesntHave("comments"), got)

	got, err = filterPredicate(Filter{Field: "author.posts.id", Operator: OpNotHas})
	require.NoError(t, err)
	assert.Equal(t, orm.WhereHas("author", orm.WhereDoesntHave("posts")), got)

	got, err = filterPredicate(Filter{Field: "comments", Operator: OpNotHas})
	require.NoError(t, err)
	assert.Equal(t, orm.WhereDoesntHave("comments"), got)

	// 内层为空的 between 不产生关联约束
	got, err = filterPredicate(Filter{Field: "comments.id", Value: []any{"", ""}, Operator: OpBetween})
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestFilterPredicateRejects(t *testing.T) {
	_, err := filterPredicate(Filter{Field: "title", Value: "x", Operator: Operator("~~")})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	_, err = filterPredicate(Filter{Field: "a.b.c.d", Value: "x", Operator: OpEqual})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	_, err = filterPredicate(Filter{Field: "title; DROP TABLE posts", Value: "x", Operator: OpEqual})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestSearchPredicate(t *testing.T) {
	got, err := searchPredicate("go", []string{"title", "author.name"})
	require.NoError(t, err)
	assert.Equal(t, orm.Or(
		orm.WhereILike("title", "%go%"),
		orm.WhereHas("author", orm.WhereILike("name", "%go%")),
	), got)

	got, err = searchPredicate("  ", []string{"title"})
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	got, err = searchPredicate("go", nil)
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestParseRelationPath(t *testing.T) {
	p, err := ParseRelationPath("title")
	require.NoError(t, err)
	assert.True(t, p.IsSimple())
	assert.Equal(t, RelationPath{Column: "title"}, p)

	p, err = ParseRelationPath("author.name")
	require.NoError(t, err)
	assert.Equal(t, RelationPath{Relations: []string{"author"}, Column: "name"}, p)

	p, err = ParseRelationPath("comments.post.title")
	require.NoError(t, err)
	assert.Equal(t, []string{"comments", "post"}, p.Relations)
	assert.Equal(t, "comments.post.title", p.String())

	_, err = ParseRelationPath("a.b.c.d")
	assert.True(t, errors.IsValidation(err))

	_, err = ParseRelationPath("author.")
	assert.True(t, errors.IsValidation(err))
}

func TestParseOperator(t *testing.T) {
	op, ok := ParseOperator(" Contain ")
	assert.True(t, ok)
	assert.Equal(t, OpContain, op)

	_, ok = ParseOperator("like")
	assert.False(t, ok)

	d, ok := ParseSortDirection("DESC")
	assert.True(t, ok)
	assert.Equal(t, DESC, d)

	_, ok = ParseSortDirection("sideways")
	assert.False(t, ok)
}

func TestSanitizeFields(t *testing.T) {
	assert.Equal(t, []string{"title", "*", "authorname", "id"},
		sanitizeFields([]string{"ti-tle", "*", "author.name", "$$", "id"}))
	assert.True(t, isSafeFieldName("author.name"))
	assert.False(t, isSafeFieldName("1abc"))
	assert.False(t, isSafeIdentifier("author.name"))
}
