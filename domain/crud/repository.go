// Package crud 提供面向 RESTful 资源的通用 CRUD 服务：
// 把请求参数解析为 repo.QueryOptions（操作符白名单、关联白名单、字段映射），
// 再委托给仓储执行，并在写操作成功后发布变更事件。
package crud

import (
	"context"

	"gocrud/data/orm"
	"gocrud/data/orm/repo"
)

// IRepository 服务依赖的仓储能力，*repo.Repository[T] 实现了该接口
type IRepository[T any] interface {
	Meta() *orm.ModelMeta

	GetOneOrFail(ctx context.Context, id any, opts *repo.QueryOptions) (*T, error)
	GetOneWithTrashedOrFail(ctx context.Context, id any, opts *repo.QueryOptions) (*T, error)
	GetOneFromTrashOrFail(ctx context.Context, id any, opts *repo.QueryOptions) (*T, error)

	GetMany(ctx context.Context, opts *repo.QueryOptions) ([]*T, error)
	GetManyWithTrashed(ctx context.Context, opts *repo.QueryOptions) ([]*T, error)
	GetManyFromTrash(ctx context.Context, opts *repo.QueryOptions) ([]*T, error)

	Paginate(ctx context.Context, opts *repo.QueryOptions) (*repo.PagedResult[T], error)
	PaginateWithTrashed(ctx context.Context, opts *repo.QueryOptions) (*repo.PagedResult[T], error)
	PaginateFromTrash(ctx context.Context, opts *repo.QueryOptions) (*repo.PagedResult[T], error)

	CreateOne(ctx context.Context, payload map[string]any) (*T, error)
	UpdateOne(ctx context.Context, record *T, payload map[string]any) (*T, error)
	DeleteOne(ctx context.Context, record *T) (*T, error)
	RestoreOne(ctx context.Context, record *T) (*T, error)
	ForceDeleteOne(ctx context.Context, record *T) (*T, error)
}

var _ IRepository[struct{}] = (*repo.Repository[struct{}])(nil)
