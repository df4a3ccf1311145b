package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/jimyag/jrds/internal/jrds/entity"
	"github.com/jimyag/jrds/internal/jrds/repository"
	"github.com/jimyag/jrds/internal/jrds/repository/model"
	"github.com/jimyag/jrds/pkg/apierror"
	"github.com/jimyag/jrds/pkg/idgen"
)

// SnapshotService 快照服务
// 快照上传和恢复由 guest 执行，控制面只负责准入、下发命令和登记状态
type SnapshotService struct {
	repo         *repository.Repository
	snapshotRepo repository.SnapshotRepository
	instanceRepo repository.InstanceRepository
	quota        *QuotaController
	guest        GuestClient
	idGen        *idgen.Generator

	storageAuthURL string
}

// NewSnapshotService 创建快照服务
func NewSnapshotService(
	repo *repository.Repository,
	snapshotRepo repository.SnapshotRepository,
	instanceRepo repository.InstanceRepository,
	quota *QuotaController,
	guest GuestClient,
	idGen *idgen.Generator,
	storageAuthURL string,
) *SnapshotService {
	return &SnapshotService{
		repo:           repo,
		snapshotRepo:   snapshotRepo,
		instanceRepo:   instanceRepo,
		quota:          quota,
		guest:          guest,
		idGen:          idGen,
		storageAuthURL: storageAuthURL,
	}
}

// CreateSnapshot 创建快照
// 配额检查和记录写入在同一个事务里完成；提交后向 guest 下发上传命令，
// 存储凭证由控制面派生（"<tenant_id>:<user_name>" + 实例凭证），
// guest 不需要访问凭证存储
func (s *SnapshotService) CreateSnapshot(ctx context.Context, tenantID, userID string, req *entity.CreateSnapshotRequest) (*entity.CreateSnapshotResponse, error) {
	instance, err := s.loadOwnedInstance(ctx, tenantID, req.InstanceID)
	if err != nil {
		return nil, err
	}

	id, err := s.idGen.GenerateSnapshotID()
	if err != nil {
		return nil, apierror.WrapErrorf(apierror.ErrInternalError, err, "generate snapshot id")
	}
	snapshot := &model.Snapshot{
		ID:         id,
		InstanceID: instance.ID,
		Name:       req.Name,
		State:      entity.SnapshotStateBuilding,
		TenantID:   tenantID,
		UserID:     userID,
	}

	err = s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		txSnapshots := repository.NewSnapshotRepository(tx)
		inUse, err := txSnapshots.CountActiveByTenant(ctx, tenantID)
		if err != nil {
			return apierror.WrapErrorf(apierror.ErrInternalError, err, "count snapshots of %s", tenantID)
		}
		allowed, err := s.quota.Allowed(ctx, tenantID, model.ResourceSnapshots, 1, inUse)
		if err != nil {
			return err
		}
		if allowed < 1 {
			return apierror.WrapErrorf(apierror.ErrQuotaExceeded, nil, "snapshot quota of %s exhausted", tenantID)
		}
		if err = txSnapshots.Create(ctx, snapshot); err != nil {
			return apierror.WrapErrorf(apierror.ErrInternalError, err, "create snapshot")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err = s.guest.CreateSnapshot(ctx, instance.RemoteHostname, SnapshotUpload{
		SnapshotID: id,
		Credential: fmt.Sprintf("%s:%s", tenantID, userID),
		Key:        instance.GuestPassword,
		AuthURL:    s.storageAuthURL,
	}); err != nil {
		// 命令没有投递出去，快照不会有后续回调
		if updateErr := s.snapshotRepo.UpdateState(ctx, id, entity.SnapshotStateFailed, "", ""); updateErr != nil {
			zerolog.Ctx(ctx).Error().Err(updateErr).
				Str("snapshot_id", id).
				Msg("failed to mark snapshot failed after dispatch error")
		}
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Str("snapshot_id", id).
		Str("instance_id", instance.ID).
		Msg("snapshot admitted")
	result := toSnapshotEntity(snapshot)
	return &entity.CreateSnapshotResponse{Snapshot: &result}, nil
}

// DescribeSnapshots 查询快照
// 支持按 ID 集合或来源实例过滤，不指定时返回租户全部快照
func (s *SnapshotService) DescribeSnapshots(ctx context.Context, tenantID string, req *entity.DescribeSnapshotsRequest) (*entity.DescribeSnapshotsResponse, error) {
	var snapshots []*model.Snapshot
	switch {
	case len(req.SnapshotIDs) > 0:
		for _, id := range req.SnapshotIDs {
			snapshot, err := s.loadOwnedSnapshot(ctx, tenantID, id)
			if err != nil {
				return nil, err
			}
			snapshots = append(snapshots, snapshot)
		}
	case req.InstanceID != "":
		if _, err := s.loadOwnedInstance(ctx, tenantID, req.InstanceID); err != nil {
			return nil, err
		}
		var err error
		snapshots, err = s.snapshotRepo.ListByInstance(ctx, req.InstanceID)
		if err != nil {
			return nil, apierror.WrapErrorf(apierror.ErrInternalError, err, "list snapshots of instance %s", req.InstanceID)
		}
	default:
		var err error
		snapshots, err = s.snapshotRepo.List(ctx, tenantID)
		if err != nil {
			return nil, apierror.WrapErrorf(apierror.ErrInternalError, err, "list snapshots of %s", tenantID)
		}
	}

	result := make([]entity.Snapshot, 0, len(snapshots))
	for _, snapshot := range snapshots {
		result = append(result, toSnapshotEntity(snapshot))
	}
	return &entity.DescribeSnapshotsResponse{Snapshots: result}, nil
}

// DeleteSnapshot 删除快照
func (s *SnapshotService) DeleteSnapshot(ctx context.Context, tenantID string, req *entity.DeleteSnapshotRequest) error {
	snapshot, err := s.loadOwnedSnapshot(ctx, tenantID, req.SnapshotID)
	if err != nil {
		return err
	}
	if err = s.snapshotRepo.Delete(ctx, snapshot.ID); err != nil {
		return apierror.WrapErrorf(apierror.ErrInternalError, err, "delete snapshot %s", snapshot.ID)
	}
	zerolog.Ctx(ctx).Info().Str("snapshot_id", snapshot.ID).Msg("snapshot deleted")
	return nil
}

// ApplySnapshot 把快照恢复到实例
// 快照可以来自已删除的实例，但必须处于 success 状态
func (s *SnapshotService) ApplySnapshot(ctx context.Context, tenantID string, req *entity.ApplySnapshotRequest) error {
	instance, err := s.loadOwnedInstance(ctx, tenantID, req.InstanceID)
	if err != nil {
		return err
	}
	snapshot, err := s.loadOwnedSnapshot(ctx, tenantID, req.SnapshotID)
	if err != nil {
		return err
	}
	if snapshot.State != entity.SnapshotStateSuccess {
		return apierror.WrapErrorf(apierror.ErrInvalidParameter, nil, "snapshot %s is %s, not restorable", snapshot.ID, snapshot.State)
	}
	return s.guest.ApplySnapshot(ctx, instance.RemoteHostname, SnapshotRestore{
		SnapshotID: snapshot.ID,
		StorageURI: snapshot.StorageURI,
		Credential: fmt.Sprintf("%s:%s", tenantID, instance.UserID),
		Key:        instance.GuestPassword,
		AuthURL:    s.storageAuthURL,
	})
}

// loadOwnedInstance 加载实例并校验租户归属
func (s *SnapshotService) loadOwnedInstance(ctx context.Context, tenantID, instanceID string) (*model.Instance, error) {
	instance, err := s.instanceRepo.GetByID(ctx, instanceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.WrapErrorf(apierror.ErrInstanceNotFound, err, "instance %s", instanceID)
		}
		return nil, apierror.WrapErrorf(apierror.ErrInternalError, err, "load instance %s", instanceID)
	}
	if instance.TenantID != tenantID {
		return nil, apierror.WrapErrorf(apierror.ErrInstanceNotFound, nil, "instance %s", instanceID)
	}
	return instance, nil
}

// loadOwnedSnapshot 加载快照并校验租户归属
func (s *SnapshotService) loadOwnedSnapshot(ctx context.Context, tenantID, snapshotID string) (*model.Snapshot, error) {
	snapshot, err := s.snapshotRepo.GetByID(ctx, snapshotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.WrapErrorf(apierror.ErrSnapshotNotFound, err, "snapshot %s", snapshotID)
		}
		return nil, apierror.WrapErrorf(apierror.ErrInternalError, err, "load snapshot %s", snapshotID)
	}
	if snapshot.TenantID != tenantID {
		return nil, apierror.WrapErrorf(apierror.ErrSnapshotNotFound, nil, "snapshot %s", snapshotID)
	}
	return snapshot, nil
}
