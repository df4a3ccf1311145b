package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/jimyag/jrds/internal/jrds/repository/model"
)

// SnapshotRepository 快照仓库接口
type SnapshotRepository interface {
	Create(ctx context.Context, snapshot *model.Snapshot) error
	GetByID(ctx context.Context, id string) (*model.Snapshot, error)
	List(ctx context.Context, tenantID string) ([]*model.Snapshot, error)
	ListByInstance(ctx context.Context, instanceID string) ([]*model.Snapshot, error)
	CountActiveByTenant(ctx context.Context, tenantID string) (int64, error)
	UpdateState(ctx context.Context, id, state, storageURI, storageSize string) error
	Delete(ctx context.Context, id string) error
}

type snapshotRepository struct {
	db *gorm.DB
}

// NewSnapshotRepository 创建快照仓库
func NewSnapshotRepository(db *gorm.DB) SnapshotRepository {
	return &snapshotRepository{db: db}
}

// Create 创建快照
func (r *snapshotRepository) Create(ctx context.Context, snapshot *model.Snapshot) error {
	return r.db.WithContext(ctx).Create(snapshot).Error
}

// GetByID 根据 ID 获取快照（自动过滤已删除）
func (r *snapshotRepository) GetByID(ctx context.Context, id string) (*model.Snapshot, error) {
	var snapshot model.Snapshot
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&snapshot).Error; err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// List 列出租户的所有快照
func (r *snapshotRepository) List(ctx context.Context, tenantID string) ([]*model.Snapshot, error) {
	var snapshots []*model.Snapshot
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&snapshots).Error; err != nil {
		return nil, err
	}
	return snapshots, nil
}

// ListByInstance 列出某个实例的所有快照
func (r *snapshotRepository) ListByInstance(ctx context.Context, instanceID string) ([]*model.Snapshot, error) {
	var snapshots []*model.Snapshot
	if err := r.db.WithContext(ctx).
		Where("instance_id = ?", instanceID).
		Order("created_at DESC").
		Find(&snapshots).Error; err != nil {
		return nil, err
	}
	return snapshots, nil
}

// CountActiveByTenant 统计租户未删除的快照数量（用于配额准入）
func (r *snapshotRepository) CountActiveByTenant(ctx context.Context, tenantID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&model.Snapshot{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// UpdateState 按主键原子更新快照的状态和存储信息
// 状态、存储地址、存储大小在一条 UPDATE 中写入
func (r *snapshotRepository) UpdateState(ctx context.Context, id, state, storageURI, storageSize string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Snapshot{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"state":        state,
			"storage_uri":  storageURI,
			"storage_size": storageSize,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete 软删除快照
func (r *snapshotRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Snapshot{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
