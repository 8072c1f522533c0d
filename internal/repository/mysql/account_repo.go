package mysql

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"Memeologia/internal/model"
	"Memeologia/internal/pkg"

	"gorm.io/gorm"
)

type AccountRepository struct {
	DB *gorm.DB
}

// Create 插入账号并在同一事务写入 account.registered 事件
func (r *AccountRepository) Create(ctx context.Context, acc *model.Account) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(acc).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return pkg.Conflict("email already registered")
			}
			return err
		}
		return insertOutbox(tx, model.EventAccountRegistered, acc.ID)
	})
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	var acc model.Account
	err := r.DB.WithContext(ctx).Where("email = ?", email).First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkg.NotFound("account not found")
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// FindByID 只查询公开字段，不带邮箱和密码
func (r *AccountRepository) FindByID(ctx context.Context, id uint64) (*model.Account, error) {
	var acc model.Account
	err := r.DB.WithContext(ctx).
		Select("id", "name", "role", "photo_url").
		Where("id = ?", id).
		First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkg.NotFound("account not found")
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// FindAuthors 一次 IN 查询取回一批作者，缺失的 id 不出现在结果中
func (r *AccountRepository) FindAuthors(ctx context.Context, ids []uint64) (map[uint64]model.Author, error) {
	authors := make(map[uint64]model.Author, len(ids))
	if len(ids) == 0 {
		return authors, nil
	}
	var rows []model.Author
	if err := r.DB.WithContext(ctx).
		Model(&model.Account{}).
		Select("id", "name", "photo_url").
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, a := range rows {
		authors[a.ID] = a
	}
	return authors, nil
}

func (r *AccountRepository) List(ctx context.Context) ([]model.Account, error) {
	var list []model.Account
	if err := r.DB.WithContext(ctx).
		Select("id", "name", "email", "role", "photo_url", "created_at", "updated_at").
		Order("id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *AccountRepository) UpdateName(ctx context.Context, id uint64, name string) error {
	return r.updateColumn(ctx, id, "name", name)
}

func (r *AccountRepository) UpdatePhotoURL(ctx context.Context, id uint64, url string) error {
	return r.updateColumn(ctx, id, "photo_url", url)
}

func (r *AccountRepository) updateColumn(ctx context.Context, id uint64, column string, value any) error {
	res := r.DB.WithContext(ctx).Model(&model.Account{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	// 值未变化时 MySQL 也返回 0 行，再确认一次记录是否存在
	var n int64
	if err := r.DB.WithContext(ctx).Model(&model.Account{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return pkg.NotFound("account not found")
	}
	return nil
}

// Delete 删除账号并写入 account.deleted 事件，记录不存在返回 NotFound
func (r *AccountRepository) Delete(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&model.Account{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return pkg.NotFound("account not found")
		}
		return insertOutbox(tx, model.EventAccountDeleted, id)
	})
}

// Ping 健康检查
func (r *AccountRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// 插入outbox事件表
func insertOutbox(tx *gorm.DB, event string, accountID uint64) error {
	payload, err := json.Marshal(model.AccountEvent{
		Event:     event,
		AccountID: accountID,
		EventTime: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return tx.Create(&model.AccountOutbox{
		EventType: event,
		AccountID: accountID,
		Payload:   string(payload),
		Status:    model.OutboxPending,
	}).Error
}
