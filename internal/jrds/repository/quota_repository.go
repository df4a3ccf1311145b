package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/jimyag/jrds/internal/jrds/repository/model"
)

// QuotaRepository 配额仓库接口
// 配额只由管理操作写入，供给路径只读
type QuotaRepository interface {
	Get(ctx context.Context, tenantID, resource string) (*model.Quota, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*model.Quota, error)
	Upsert(ctx context.Context, quota *model.Quota) error
}

type quotaRepository struct {
	db *gorm.DB
}

// NewQuotaRepository 创建配额仓库
func NewQuotaRepository(db *gorm.DB) QuotaRepository {
	return &quotaRepository{db: db}
}

// Get 获取租户某种资源的配额记录
// 记录不存在返回 gorm.ErrRecordNotFound，调用方回退到系统默认值
func (r *quotaRepository) Get(ctx context.Context, tenantID, resource string) (*model.Quota, error) {
	var quota model.Quota
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND resource = ?", tenantID, resource).
		First(&quota).Error; err != nil {
		return nil, err
	}
	return &quota, nil
}

// ListByTenant 列出租户的所有配额记录
func (r *quotaRepository) ListByTenant(ctx context.Context, tenantID string) ([]*model.Quota, error) {
	var quotas []*model.Quota
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Find(&quotas).Error; err != nil {
		return nil, err
	}
	return quotas, nil
}

// Upsert 创建或更新配额记录
func (r *quotaRepository) Upsert(ctx context.Context, quota *model.Quota) error {
	existing, err := r.Get(ctx, quota.TenantID, quota.Resource)
	if err == gorm.ErrRecordNotFound {
		return r.db.WithContext(ctx).Create(quota).Error
	}
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&model.Quota{}).
		Where("id = ?", existing.ID).
		Update("hard_limit", quota.HardLimit).Error
}
