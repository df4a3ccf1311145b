package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jimyag/jrds/internal/jrds/entity"
	"github.com/jimyag/jrds/internal/jrds/service"
	"github.com/jimyag/jrds/pkg/ginx"
)

// DatabaseServiceInterface 定义数据库管理服务的接口
type DatabaseServiceInterface interface {
	CreateDatabases(ctx context.Context, tenantID string, req *entity.CreateDatabasesRequest) error
	DescribeDatabases(ctx context.Context, tenantID string, req *entity.DescribeDatabasesRequest) (*entity.DescribeDatabasesResponse, error)
	DeleteDatabase(ctx context.Context, tenantID string, req *entity.DeleteDatabaseRequest) error
}

type Database struct {
	databaseService DatabaseServiceInterface
}

func NewDatabase(databaseService *service.DatabaseService) *Database {
	return &Database{
		databaseService: databaseService,
	}
}

func (d *Database) RegisterRoutes(router *gin.RouterGroup) {
	databaseRouter := router.Group("/databases")
	databaseRouter.POST("/create", ginx.Adapt4(d.CreateDatabases))
	databaseRouter.POST("/describe", ginx.Adapt5(d.DescribeDatabases))
	databaseRouter.POST("/delete", ginx.Adapt4(d.DeleteDatabase))
}

func (d *Database) CreateDatabases(ctx *gin.Context, req *entity.CreateDatabasesRequest) error {
	logger := zerolog.Ctx(ctx)
	logger.Info().
		Str("instance_id", req.InstanceID).
		Int("count", len(req.Databases)).
		Msg("CreateDatabases called")

	if err := d.databaseService.CreateDatabases(ctx, tenantID(ctx), req); err != nil {
		logger.Error().
			Err(err).
			Str("instance_id", req.InstanceID).
			Msg("Failed to create databases")
		return err
	}
	return nil
}

func (d *Database) DescribeDatabases(ctx *gin.Context, req *entity.DescribeDatabasesRequest) (*entity.DescribeDatabasesResponse, error) {
	logger := zerolog.Ctx(ctx)

	response, err := d.databaseService.DescribeDatabases(ctx, tenantID(ctx), req)
	if err != nil {
		logger.Error().
			Err(err).
			Str("instance_id", req.InstanceID).
			Msg("Failed to describe databases")
		return nil, err
	}
	return response, nil
}

func (d *Database) DeleteDatabase(ctx *gin.Context, req *entity.DeleteDatabaseRequest) error {
	logger := zerolog.Ctx(ctx)
	logger.Info().
		Str("instance_id", req.InstanceID).
		Str("name", req.Name).
		Msg("DeleteDatabase called")

	if err := d.databaseService.DeleteDatabase(ctx, tenantID(ctx), req); err != nil {
		logger.Error().
			Err(err).
			Str("instance_id", req.InstanceID).
			Msg("Failed to delete database")
		return err
	}
	return nil
}
