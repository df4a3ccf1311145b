package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/jimyag/jrds/internal/jrds/repository/model"
)

// InstanceRepository 实例仓库接口
type InstanceRepository interface {
	Create(ctx context.Context, instance *model.Instance) error
	GetByID(ctx context.Context, id string) (*model.Instance, error)
	GetByHostname(ctx context.Context, hostname string) (*model.Instance, error)
	List(ctx context.Context, tenantID string) ([]*model.Instance, error)
	CountActiveByTenant(ctx context.Context, tenantID string) (int64, error)
	UpdateFields(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
}

type instanceRepository struct {
	db *gorm.DB
}

// NewInstanceRepository 创建实例仓库
func NewInstanceRepository(db *gorm.DB) InstanceRepository {
	return &instanceRepository{db: db}
}

// Create 创建实例
func (r *instanceRepository) Create(ctx context.Context, instance *model.Instance) error {
	return r.db.WithContext(ctx).Create(instance).Error
}

// GetByID 根据 ID 获取实例（自动过滤已删除）
func (r *instanceRepository) GetByID(ctx context.Context, id string) (*model.Instance, error) {
	var instance model.Instance
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&instance).Error; err != nil {
		return nil, err
	}
	return &instance, nil
}

// GetByHostname 根据远端主机名获取实例
// phone-home 消息只携带主机名，reconciler 靠这里反查实例
func (r *instanceRepository) GetByHostname(ctx context.Context, hostname string) (*model.Instance, error) {
	var instance model.Instance
	if err := r.db.WithContext(ctx).Where("remote_hostname = ?", hostname).First(&instance).Error; err != nil {
		return nil, err
	}
	return &instance, nil
}

// List 列出租户的所有实例
func (r *instanceRepository) List(ctx context.Context, tenantID string) ([]*model.Instance, error) {
	var instances []*model.Instance
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&instances).Error; err != nil {
		return nil, err
	}
	return instances, nil
}

// CountActiveByTenant 统计租户未删除的实例数量（用于配额准入）
func (r *instanceRepository) CountActiveByTenant(ctx context.Context, tenantID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&model.Instance{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// UpdateFields 按主键对实例执行单条原子 UPDATE
// 不做先读后写，多个写入路径（HTTP handler、reconciler）可以安全并发
func (r *instanceRepository) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&model.Instance{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete 软删除实例
func (r *instanceRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Instance{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
