package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jimyag/jrds/internal/jrds/entity"
	"github.com/jimyag/jrds/internal/jrds/service"
	"github.com/jimyag/jrds/pkg/ginx"
)

// SnapshotServiceInterface 定义快照服务的接口
type SnapshotServiceInterface interface {
	CreateSnapshot(ctx context.Context, tenantID, userID string, req *entity.CreateSnapshotRequest) (*entity.CreateSnapshotResponse, error)
	DescribeSnapshots(ctx context.Context, tenantID string, req *entity.DescribeSnapshotsRequest) (*entity.DescribeSnapshotsResponse, error)
	DeleteSnapshot(ctx context.Context, tenantID string, req *entity.DeleteSnapshotRequest) error
	ApplySnapshot(ctx context.Context, tenantID string, req *entity.ApplySnapshotRequest) error
}

type Snapshot struct {
	snapshotService SnapshotServiceInterface
}

func NewSnapshot(snapshotService *service.SnapshotService) *Snapshot {
	return &Snapshot{
		snapshotService: snapshotService,
	}
}

func (s *Snapshot) RegisterRoutes(router *gin.RouterGroup) {
	snapshotRouter := router.Group("/snapshots")
	snapshotRouter.POST("/create", ginx.Adapt5(s.CreateSnapshot))
	snapshotRouter.POST("/describe", ginx.Adapt5(s.DescribeSnapshots))
	snapshotRouter.POST("/delete", ginx.Adapt4(s.DeleteSnapshot))
	snapshotRouter.POST("/apply", ginx.Adapt4(s.ApplySnapshot))
}

func (s *Snapshot) CreateSnapshot(ctx *gin.Context, req *entity.CreateSnapshotRequest) (*entity.CreateSnapshotResponse, error) {
	logger := zerolog.Ctx(ctx)
	logger.Info().
		Str("instance_id", req.InstanceID).
		Str("name", req.Name).
		Msg("CreateSnapshot called")

	response, err := s.snapshotService.CreateSnapshot(ctx, tenantID(ctx), userID(ctx), req)
	if err != nil {
		logger.Error().
			Err(err).
			Str("instance_id", req.InstanceID).
			Msg("Failed to create snapshot")
		return nil, err
	}

	logger.Info().
		Str("snapshot_id", response.Snapshot.ID).
		Msg("Snapshot created successfully")
	return response, nil
}

func (s *Snapshot) DescribeSnapshots(ctx *gin.Context, req *entity.DescribeSnapshotsRequest) (*entity.DescribeSnapshotsResponse, error) {
	logger := zerolog.Ctx(ctx)

	response, err := s.snapshotService.DescribeSnapshots(ctx, tenantID(ctx), req)
	if err != nil {
		logger.Error().
			Err(err).
			Msg("Failed to describe snapshots")
		return nil, err
	}
	return response, nil
}

func (s *Snapshot) DeleteSnapshot(ctx *gin.Context, req *entity.DeleteSnapshotRequest) error {
	logger := zerolog.Ctx(ctx)
	logger.Info().
		Str("snapshot_id", req.SnapshotID).
		Msg("DeleteSnapshot called")

	if err := s.snapshotService.DeleteSnapshot(ctx, tenantID(ctx), req); err != nil {
		logger.Error().
			Err(err).
			Str("snapshot_id", req.SnapshotID).
			Msg("Failed to delete snapshot")
		return err
	}
	return nil
}

func (s *Snapshot) ApplySnapshot(ctx *gin.Context, req *entity.ApplySnapshotRequest) error {
	logger := zerolog.Ctx(ctx)
	logger.Info().
		Str("snapshot_id", req.SnapshotID).
		Str("instance_id", req.InstanceID).
		Msg("ApplySnapshot called")

	if err := s.snapshotService.ApplySnapshot(ctx, tenantID(ctx), req); err != nil {
		logger.Error().
			Err(err).
			Str("snapshot_id", req.SnapshotID).
			Msg("Failed to apply snapshot")
		return err
	}
	return nil
}
