// Package blog 演示用的博客领域：作者、文章、评论与标签。
// 供 cmd/gocrud 以及仓储/服务的集成测试共用。
package blog

import (
	"time"

	"gocrud/data/orm"
	"gocrud/domain/entity"
)

type Author struct {
	entity.Model
	Name  string `db:"name" json:"name" validate:"required,max=100"`
	Email string `db:"email" json:"email" validate:"omitempty,email"`

	PostsCount int64  `db:"posts_count" json:"posts_count,omitempty" gorm:"->"`
	Posts      []Post `json:"posts,omitempty"`
}

type Post struct {
	entity.Model
	entity.SoftDeletes
	AuthorID    *int64     `db:"author_id" json:"author_id"`
	Title       string     `db:"title" json:"title" validate:"required,max=200"`
	Status      string     `db:"status" json:"status" validate:"required,oneof=draft published archived"`
	Views       int        `db:"views" json:"views" validate:"gte=0"`
	PublishedAt *time.Time `db:"published_at" json:"published_at,omitempty"`

	CommentsCount int64     `db:"comments_count" json:"comments_count,omitempty" gorm:"->"`
	TagsCount     int64     `db:"tags_count" json:"tags_count,omitempty" gorm:"->"`
	Author        *Author   `json:"author,omitempty"`
	Comments      []Comment `json:"comments,omitempty"`
	Tags          []Tag     `json:"tags,omitempty"`
}

type Comment struct {
	entity.Model
	entity.SoftDeletes
	PostID int64  `db:"post_id" json:"post_id" validate:"required"`
	Body   string `db:"body" json:"body" validate:"required"`

	Post *Post `json:"post,omitempty"`
}

type Tag struct {
	entity.Model
	Name string `db:"name" json:"name" validate:"required"`
}

// Metas 博客模型的元数据集合，每次调用返回新实例
type Metas struct {
	Authors  *orm.ModelMeta
	Posts    *orm.ModelMeta
	Comments *orm.ModelMeta
	Tags     *orm.ModelMeta
}

// NewMetas 构建模型元数据及其关联。
func NewMetas() Metas {
	authors := &orm.ModelMeta{Model: Author{}, Table: "authors"}
	posts := &orm.ModelMeta{Model: Post{}, Table: "posts", SoftDeleteColumn: entity.SoftDeleteColumn}
	comments := &orm.ModelMeta{Model: Comment{}, Table: "comments", SoftDeleteColumn: entity.SoftDeleteColumn}
	tags := &orm.ModelMeta{Model: Tag{}, Table: "tags"}

	authors.Associations = []orm.AssociationMeta{
		{Name: "posts", Kind: orm.AssociationHasMany, Target: posts},
	}
	posts.Associations = []orm.AssociationMeta{
		{Name: "author", Kind: orm.AssociationBelongsTo, Target: authors},
		{Name: "comments", Kind: orm.AssociationHasMany, Target: comments},
		{Name: "tags", Kind: orm.AssociationManyToMany, Target: tags, JoinTable: "post_tags"},
	}
	comments.Associations = []orm.AssociationMeta{
		{Name: "post", Kind: orm.AssociationBelongsTo, Target: posts},
	}
	return Metas{Authors: authors, Posts: posts, Comments: comments, Tags: tags}
}
