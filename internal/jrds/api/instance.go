package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jimyag/jrds/internal/jrds/entity"
	"github.com/jimyag/jrds/internal/jrds/service"
	"github.com/jimyag/jrds/pkg/ginx"
)

// InstanceServiceInterface 定义实例服务的接口
type InstanceServiceInterface interface {
	RunInstance(ctx context.Context, tenantID, userID string, req *entity.RunInstanceRequest) (*entity.RunInstanceResponse, error)
	DescribeInstances(ctx context.Context, tenantID string, req *entity.DescribeInstancesRequest) (*entity.DescribeInstancesResponse, error)
	DeleteInstance(ctx context.Context, tenantID string, req *entity.DeleteInstanceRequest) error
	RestartInstance(ctx context.Context, tenantID string, req *entity.RestartInstanceRequest) error
	ResetPassword(ctx context.Context, tenantID string, req *entity.ResetPasswordRequest) (*entity.ResetPasswordResponse, error)
	CheckStatus(ctx context.Context, tenantID string, req *entity.CheckStatusRequest) (*entity.CheckStatusResponse, error)
}

type Instance struct {
	instanceService InstanceServiceInterface
}

func NewInstance(instanceService *service.InstanceService) *Instance {
	return &Instance{
		instanceService: instanceService,
	}
}

func (i *Instance) RegisterRoutes(router *gin.RouterGroup) {
	instanceRouter := router.Group("/instances")
	instanceRouter.POST("/run", ginx.Adapt5(i.RunInstance))
	instanceRouter.POST("/describe", ginx.Adapt5(i.DescribeInstances))
	instanceRouter.POST("/delete", ginx.Adapt4(i.DeleteInstance))
	instanceRouter.POST("/restart", ginx.Adapt4(i.RestartInstance))
	instanceRouter.POST("/reset-password", ginx.Adapt5(i.ResetPassword))
	instanceRouter.POST("/status", ginx.Adapt5(i.CheckStatus))
}

func (i *Instance) RunInstance(ctx *gin.Context, req *entity.RunInstanceRequest) (*entity.RunInstanceResponse, error) {
	logger := zerolog.Ctx(ctx)
	logger.Info().
		Str("name", req.Name).
		Str("flavor_id", req.FlavorID).
		Msg("RunInstance called")

	response, err := i.instanceService.RunInstance(ctx, tenantID(ctx), userID(ctx), req)
	if err != nil {
		logger.Error().
			Err(err).
			Msg("Failed to run instance")
		return nil, err
	}

	logger.Info().
		Str("instance_id", response.Instance.ID).
		Msg("Instance created successfully")
	return response, nil
}

func (i *Instance) DescribeInstances(ctx *gin.Context, req *entity.DescribeInstancesRequest) (*entity.DescribeInstancesResponse, error) {
	logger := zerolog.Ctx(ctx)

	response, err := i.instanceService.DescribeInstances(ctx, tenantID(ctx), req)
	if err != nil {
		logger.Error().
			Err(err).
			Msg("Failed to describe instances")
		return nil, err
	}
	return response, nil
}

func (i *Instance) DeleteInstance(ctx *gin.Context, req *entity.DeleteInstanceRequest) error {
	logger := zerolog.Ctx(ctx)
	logger.Info().
		Str("instance_id", req.InstanceID).
		Msg("DeleteInstance called")

	if err := i.instanceService.DeleteInstance(ctx, tenantID(ctx), req); err != nil {
		logger.Error().
			Err(err).
			Str("instance_id", req.InstanceID).
			Msg("Failed to delete instance")
		return err
	}
	return nil
}

func (i *Instance) RestartInstance(ctx *gin.Context, req *entity.RestartInstanceRequest) error {
	logger := zerolog.Ctx(ctx)
	logger.Info().
		Str("instance_id", req.InstanceID).
		Msg("RestartInstance called")

	if err := i.instanceService.RestartInstance(ctx, tenantID(ctx), req); err != nil {
		logger.Error().
			Err(err).
			Str("instance_id", req.InstanceID).
			Msg("Failed to restart instance")
		return err
	}
	return nil
}

func (i *Instance) ResetPassword(ctx *gin.Context, req *entity.ResetPasswordRequest) (*entity.ResetPasswordResponse, error) {
	logger := zerolog.Ctx(ctx)
	logger.Info().
		Str("instance_id", req.InstanceID).
		Msg("ResetPassword called")

	response, err := i.instanceService.ResetPassword(ctx, tenantID(ctx), req)
	if err != nil {
		logger.Error().
			Err(err).
			Str("instance_id", req.InstanceID).
			Msg("Failed to reset password")
		return nil, err
	}

	logger.Info().
		Str("instance_id", req.InstanceID).
		Str("user_name", response.UserName).
		Msg("Password reset successfully")
	return response, nil
}

func (i *Instance) CheckStatus(ctx *gin.Context, req *entity.CheckStatusRequest) (*entity.CheckStatusResponse, error) {
	logger := zerolog.Ctx(ctx)

	response, err := i.instanceService.CheckStatus(ctx, tenantID(ctx), req)
	if err != nil {
		logger.Error().
			Err(err).
			Str("instance_id", req.InstanceID).
			Msg("Failed to check instance status")
		return nil, err
	}
	return response, nil
}
