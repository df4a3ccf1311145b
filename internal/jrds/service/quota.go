package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/jimyag/jrds/internal/jrds/entity"
	"github.com/jimyag/jrds/internal/jrds/repository"
	"github.com/jimyag/jrds/internal/jrds/repository/model"
	"github.com/jimyag/jrds/pkg/apierror"
)

// QuotaController 配额准入控制器
// 租户没有专属配额记录时回退到系统默认值，
// HardLimit 为 -1 表示不限制
type QuotaController struct {
	quotaRepo    repository.QuotaRepository
	instanceRepo repository.InstanceRepository
	snapshotRepo repository.SnapshotRepository
	defaults     map[string]int
}

// NewQuotaController 创建配额准入控制器
func NewQuotaController(
	quotaRepo repository.QuotaRepository,
	instanceRepo repository.InstanceRepository,
	snapshotRepo repository.SnapshotRepository,
	defaultInstances int,
	defaultSnapshots int,
) *QuotaController {
	return &QuotaController{
		quotaRepo:    quotaRepo,
		instanceRepo: instanceRepo,
		snapshotRepo: snapshotRepo,
		defaults: map[string]int{
			model.ResourceInstances: defaultInstances,
			model.ResourceSnapshots: defaultSnapshots,
		},
	}
}

// Limit 查询租户某种资源的配额上限
// 没有专属配额记录时返回系统默认值
func (q *QuotaController) Limit(ctx context.Context, tenantID, resource string) (int, error) {
	quota, err := q.quotaRepo.Get(ctx, tenantID, resource)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			limit, ok := q.defaults[resource]
			if !ok {
				return 0, apierror.WrapErrorf(apierror.ErrInvalidParameter, nil, "unknown resource %s", resource)
			}
			return limit, nil
		}
		return 0, apierror.WrapErrorf(apierror.ErrInternalError, err, "load quota of %s", tenantID)
	}
	return quota.HardLimit, nil
}

// Allowed 计算在当前用量下还能批准多少个资源
// allowed = max(0, min(requested, limit-usage))；上限为 -1 时全部批准。
// 用量由调用方在自己的事务里统计后传入，保证计数和写入看到同一份数据
func (q *QuotaController) Allowed(ctx context.Context, tenantID, resource string, requested int, inUse int64) (int, error) {
	if requested < 0 {
		return 0, apierror.WrapErrorf(apierror.ErrInvalidParameter, nil, "requested count %d is negative", requested)
	}
	limit, err := q.Limit(ctx, tenantID, resource)
	if err != nil {
		return 0, err
	}
	if limit == entity.UnlimitedQuota {
		return requested, nil
	}
	headroom := limit - int(inUse)
	if headroom < 0 {
		headroom = 0
	}
	if requested < headroom {
		return requested, nil
	}
	return headroom, nil
}

// DescribeQuotas 返回租户所有资源的配额与用量
func (q *QuotaController) DescribeQuotas(ctx context.Context, tenantID string) (*entity.DescribeQuotasResponse, error) {
	instanceLimit, err := q.Limit(ctx, tenantID, model.ResourceInstances)
	if err != nil {
		return nil, err
	}
	snapshotLimit, err := q.Limit(ctx, tenantID, model.ResourceSnapshots)
	if err != nil {
		return nil, err
	}
	instanceCount, err := q.instanceRepo.CountActiveByTenant(ctx, tenantID)
	if err != nil {
		return nil, apierror.WrapErrorf(apierror.ErrInternalError, err, "count instances of %s", tenantID)
	}
	snapshotCount, err := q.snapshotRepo.CountActiveByTenant(ctx, tenantID)
	if err != nil {
		return nil, apierror.WrapErrorf(apierror.ErrInternalError, err, "count snapshots of %s", tenantID)
	}
	return &entity.DescribeQuotasResponse{
		TenantID: tenantID,
		Quotas: []entity.QuotaUsage{
			{Resource: model.ResourceInstances, HardLimit: instanceLimit, InUse: int(instanceCount)},
			{Resource: model.ResourceSnapshots, HardLimit: snapshotLimit, InUse: int(snapshotCount)},
		},
	}, nil
}

// ModifyQuota 设置租户某种资源的配额上限
// 上限必须大于等于 -1
func (q *QuotaController) ModifyQuota(ctx context.Context, tenantID, resource string, hardLimit int) error {
	if _, ok := q.defaults[resource]; !ok {
		return apierror.WrapErrorf(apierror.ErrInvalidParameter, nil, "unknown resource %s", resource)
	}
	if hardLimit < entity.UnlimitedQuota {
		return apierror.WrapErrorf(apierror.ErrInvalidParameter, nil, "hard limit %d is invalid", hardLimit)
	}
	quota := &model.Quota{TenantID: tenantID, Resource: resource, HardLimit: hardLimit}
	if err := q.quotaRepo.Upsert(ctx, quota); err != nil {
		return apierror.WrapErrorf(apierror.ErrInternalError, err, "save quota of %s", tenantID)
	}
	return nil
}
