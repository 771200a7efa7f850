package repo

import (
	"context"
	"fmt"
	"time"

	"gocrud/data/db/dialect"
	"gocrud/data/orm"
	"gocrud/errors"
	"gocrud/logging"
)

// CreateOne 用 payload（列名 → 值）填充新实体，校验后插入并返回。
func (r *Repository[T]) CreateOne(ctx context.Context, payload map[string]any) (*T, error) {
	record := new(T)
	if err := r.fill(record, payload); err != nil {
		return nil, err
	}
	if err := r.validator.Validate(record); err != nil {
		return nil, err
	}
	if err := r.model.Create(ctx, record); err != nil {
		return nil, r.wrapError(ctx, err, "create")
	}
	return record, nil
}

// UpdateOne 用 payload 更新已有实体；record 为 nil 时返回 (nil, nil)。
func (r *Repository[T]) UpdateOne(ctx context.Context, record *T, payload map[string]any) (*T, error) {
	if record == nil {
		return nil, nil
	}
	if err := r.fill(record, payload); err != nil {
		return nil, err
	}
	if err := r.validator.Validate(record); err != nil {
		return nil, err
	}
	where, err := r.byPrimaryKey(record)
	if err != nil {
		return nil, err
	}
	if err := r.model.Save(ctx, record, where); err != nil {
		return nil, r.wrapError(ctx, err, "update")
	}
	return record, nil
}

// DeleteOne 模型声明了软删除列时写入删除时间，否则物理删除。
func (r *Repository[T]) DeleteOne(ctx context.Context, record *T) (*T, error) {
	if record == nil {
		return nil, nil
	}
	if !r.meta.SoftDeletes() {
		return r.ForceDeleteOne(ctx, record)
	}
	if err := r.requireCapability(orm.CapabilitySoftDelete, "soft delete"); err != nil {
		return nil, err
	}
	if err := r.setTrashedAt(ctx, record, time.Now()); err != nil {
		return nil, r.wrapError(ctx, err, "delete")
	}
	return record, nil
}

// RestoreOne 清除软删除标记
func (r *Repository[T]) RestoreOne(ctx context.Context, record *T) (*T, error) {
	if record == nil {
		return nil, nil
	}
	if !r.meta.SoftDeletes() {
		return nil, errors.NewError(errors.ErrCodeUnsupported,
			fmt.Sprintf("%s does not support soft delete", r.meta.Table))
	}
	if err := r.requireCapability(orm.CapabilitySoftDelete, "restore"); err != nil {
		return nil, err
	}
	if err := r.setTrashedAt(ctx, record, nil); err != nil {
		return nil, r.wrapError(ctx, err, "restore")
	}
	return record, nil
}

// ForceDeleteOne 物理删除，无论是否已软删除
func (r *Repository[T]) ForceDeleteOne(ctx context.Context, record *T) (*T, error) {
	if record == nil {
		return nil, nil
	}
	where, err := r.byPrimaryKey(record)
	if err != nil {
		return nil, err
	}
	if err := r.model.Delete(ctx, where); err != nil {
		return nil, r.wrapError(ctx, err, "force delete")
	}
	return record, nil
}

// setTrashedAt 更新软删除列并同步到 record
func (r *Repository[T]) setTrashedAt(ctx context.Context, record *T, at any) error {
	where, err := r.byPrimaryKey(record)
	if err != nil {
		return err
	}
	column := r.meta.SoftDeleteColumn
	if err := r.model.UpdateValues(ctx, map[string]any{column: at}, where); err != nil {
		return err
	}
	return r.model.Fill(record, map[string]any{column: at})
}

func (r *Repository[T]) byPrimaryKey(record *T) (orm.QueryOption, error) {
	id, err := r.model.PrimaryKey(record)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrCodeInternal, "failed to read primary key")
	}
	return orm.WithFilter(orm.Where(r.meta.PrimaryKeyColumn(), string(OpEqual), id)), nil
}

func (r *Repository[T]) fill(record *T, payload map[string]any) error {
	if err := r.model.Fill(record, payload); err != nil {
		return errors.WrapError(err, errors.ErrCodeValidation, "invalid payload")
	}
	return nil
}

// wrapError 唯一约束冲突映射为 CONFLICT，其余交给 errors.WrapDatabaseError。
func (r *Repository[T]) wrapError(ctx context.Context, err error, operation string, fields ...logging.Field) error {
	if err == nil {
		return nil
	}
	if database := r.orm.Database(); database != nil && dialect.FromDatabase(database).IsUniqueViolation(err) {
		return errors.WrapError(err, errors.ErrCodeConflict, "duplicate record")
	}
	fields = append(fields, logging.String("table", r.meta.Table))
	return errors.WrapDatabaseError(ctx, err, operation, fields...)
}
