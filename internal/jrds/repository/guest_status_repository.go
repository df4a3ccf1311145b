package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/jimyag/jrds/internal/jrds/repository/model"
)

// GuestStatusRepository guest 状态仓库接口
type GuestStatusRepository interface {
	Create(ctx context.Context, status *model.GuestStatus) error
	GetByInstanceID(ctx context.Context, instanceID string) (*model.GuestStatus, error)
	UpdateState(ctx context.Context, instanceID, state string) error
	Delete(ctx context.Context, instanceID string) error
}

type guestStatusRepository struct {
	db *gorm.DB
}

// NewGuestStatusRepository 创建 guest 状态仓库
func NewGuestStatusRepository(db *gorm.DB) GuestStatusRepository {
	return &guestStatusRepository{db: db}
}

// Create 创建 guest 状态记录
func (r *guestStatusRepository) Create(ctx context.Context, status *model.GuestStatus) error {
	return r.db.WithContext(ctx).Create(status).Error
}

// GetByInstanceID 获取实例的 guest 状态
func (r *guestStatusRepository) GetByInstanceID(ctx context.Context, instanceID string) (*model.GuestStatus, error) {
	var status model.GuestStatus
	if err := r.db.WithContext(ctx).Where("instance_id = ?", instanceID).First(&status).Error; err != nil {
		return nil, err
	}
	return &status, nil
}

// UpdateState 按实例 ID 原子更新 guest 状态
// 单条 UPDATE 语句，重复应用同一状态是幂等的，
// 多个 reconciler 实例并发消费同一主题也不会产生竞态
func (r *guestStatusRepository) UpdateState(ctx context.Context, instanceID, state string) error {
	result := r.db.WithContext(ctx).
		Model(&model.GuestStatus{}).
		Where("instance_id = ?", instanceID).
		Update("state", state)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete 软删除实例的 guest 状态记录
func (r *guestStatusRepository) Delete(ctx context.Context, instanceID string) error {
	result := r.db.WithContext(ctx).Where("instance_id = ?", instanceID).Delete(&model.GuestStatus{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
