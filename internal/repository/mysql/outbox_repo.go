package mysql

import (
	"context"

	"Memeologia/internal/model"

	"gorm.io/gorm"
)

type OutboxRepository struct {
	DB *gorm.DB
}

// List 按 id 升序取出待投递的事件
func (r *OutboxRepository) List(ctx context.Context, batchSize int) ([]model.AccountOutbox, error) {
	var list []model.AccountOutbox
	if err := r.DB.WithContext(ctx).
		Where("status = ?", model.OutboxPending).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// SuccessUpdate 投递成功
func (r *OutboxRepository) SuccessUpdate(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.AccountOutbox{}).Where("id = ?", id).
		Update("status", model.OutboxSent).Error
}

// FailUpdate 投递失败，累加重试次数；giveUp 时标记 failed，否则留在 pending 等下一轮
func (r *OutboxRepository) FailUpdate(ctx context.Context, id uint64, giveUp bool) error {
	status := model.OutboxPending
	if giveUp {
		status = model.OutboxFailed
	}
	return r.DB.WithContext(ctx).Model(&model.AccountOutbox{}).Where("id = ?", id).
		Updates(map[string]any{"status": status, "retry": gorm.Expr("retry + 1")}).Error
}
