package crud

import (
	"context"

	"gocrud/data/orm/repo"
	"gocrud/errors"
	"gocrud/logging"
	"gocrud/messaging"
)

// 变更事件动作，事件类型为 <resource>.<action>
const (
	ActionCreated      = "created"
	ActionUpdated      = "updated"
	ActionDeleted      = "deleted"
	ActionRestored     = "restored"
	ActionForceDeleted = "force_deleted"
)

// IndexResult 列表结果：分页时 Page 非空，no_pagination 时只有 Items。
type IndexResult[T any] struct {
	Page  *repo.PagedResult[T]
	Items []*T
}

// Service 通用 CRUD 服务
type Service[T any] struct {
	repo   IRepository[T]
	cfg    Config
	logger logging.Logger
}

// NewService 创建服务。cfg.Resource 为空时使用表名，DefaultLimit 为空时为 15。
func NewService[T any](repository IRepository[T], cfg Config) *Service[T] {
	if cfg.Resource == "" && repository.Meta() != nil {
		cfg.Resource = repository.Meta().Table
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = DefaultLimit
	}
	if cfg.MaxLimit > 0 && cfg.DefaultLimit > cfg.MaxLimit {
		cfg.DefaultLimit = cfg.MaxLimit
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Service[T]{
		repo:   repository,
		cfg:    cfg,
		logger: logger.WithFields(logging.Component("crud"), logging.String("resource", cfg.Resource)),
	}
}

// Repository 返回底层仓储
func (s *Service[T]) Repository() IRepository[T] { return s.repo }

// Resource 资源名
func (s *Service[T]) Resource() string { return s.cfg.Resource }

// Index 列出未删除的记录
func (s *Service[T]) Index(ctx context.Context, params Params) (*IndexResult[T], error) {
	return s.index(ctx, params, s.repo.Paginate, s.repo.GetMany)
}

// IndexWithTrashed 列出全部记录（包括已软删除）
func (s *Service[T]) IndexWithTrashed(ctx context.Context, params Params) (*IndexResult[T], error) {
	return s.index(ctx, params, s.repo.PaginateWithTrashed, s.repo.GetManyWithTrashed)
}

// IndexTrashed 只列出回收站中的记录
func (s *Service[T]) IndexTrashed(ctx context.Context, params Params) (*IndexResult[T], error) {
	return s.index(ctx, params, s.repo.PaginateFromTrash, s.repo.GetManyFromTrash)
}

func (s *Service[T]) index(
	ctx context.Context,
	params Params,
	paginate func(context.Context, *repo.QueryOptions) (*repo.PagedResult[T], error),
	list func(context.Context, *repo.QueryOptions) ([]*T, error),
) (*IndexResult[T], error) {
	opts, err := s.PrepareOptions(params)
	if err != nil {
		return nil, err
	}
	if noPagination(params) {
		items, err := list(ctx, opts)
		if err != nil {
			return nil, err
		}
		return &IndexResult[T]{Items: items}, nil
	}
	page, err := paginate(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &IndexResult[T]{Page: page, Items: page.Data}, nil
}

// Show 按主键读取单条记录，params 中的 relations/counts/fields 生效
func (s *Service[T]) Show(ctx context.Context, id any, params Params) (*T, error) {
	opts, err := s.PrepareOptions(params)
	if err != nil {
		return nil, err
	}
	// 单条查询不分页
	opts.Limit, opts.Page = 0, 0
	return s.repo.GetOneOrFail(ctx, id, opts)
}

func (s *Service[T]) Store(ctx context.Context, payload map[string]any) (*T, error) {
	record, err := s.repo.CreateOne(ctx, payload)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, ActionCreated, record)
	return record, nil
}

// Update 更新未删除的记录
func (s *Service[T]) Update(ctx context.Context, id any, payload map[string]any) (*T, error) {
	record, err := s.repo.GetOneOrFail(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	record, err = s.repo.UpdateOne(ctx, record, payload)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, ActionUpdated, record)
	return record, nil
}

// Destroy 删除记录：支持软删除的模型移入回收站，否则物理删除
func (s *Service[T]) Destroy(ctx context.Context, id any) (*T, error) {
	record, err := s.repo.GetOneOrFail(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	record, err = s.repo.DeleteOne(ctx, record)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, ActionDeleted, record)
	return record, nil
}

// Restore 从回收站恢复，记录不在回收站时返回 NOT_FOUND
func (s *Service[T]) Restore(ctx context.Context, id any) (*T, error) {
	if meta := s.repo.Meta(); meta != nil && !meta.SoftDeletes() {
		return nil, errors.NewError(errors.ErrCodeUnsupported, s.cfg.Resource+" does not support restore")
	}
	record, err := s.repo.GetOneFromTrashOrFail(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	record, err = s.repo.RestoreOne(ctx, record)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, ActionRestored, record)
	return record, nil
}

// ForceDelete 物理删除，已软删除的记录同样适用
func (s *Service[T]) ForceDelete(ctx context.Context, id any) (*T, error) {
	record, err := s.repo.GetOneWithTrashedOrFail(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	record, err = s.repo.ForceDeleteOne(ctx, record)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, ActionForceDeleted, record)
	return record, nil
}

// publish 发布变更事件；发布失败只记录告警，不影响写操作结果
func (s *Service[T]) publish(ctx context.Context, action string, record *T) {
	if s.cfg.Publisher == nil {
		return
	}
	event := messaging.NewEvent(s.cfg.Resource+"."+action, record)
	event.SetMetadata("resource", s.cfg.Resource)
	event.SetMetadata("action", action)
	if err := s.cfg.Publisher.Publish(ctx, event); err != nil {
		s.logger.Warn(ctx, "failed to publish change event",
			logging.Error(err),
			logging.String("event_type", event.Type),
			logging.String("event_id", event.ID),
		)
	}
}
