package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jimyag/jrds/internal/jrds/entity"
	"github.com/jimyag/jrds/internal/jrds/service"
	"github.com/jimyag/jrds/pkg/ginx"
)

// UserServiceInterface 定义用户管理服务的接口
type UserServiceInterface interface {
	CreateUsers(ctx context.Context, tenantID string, req *entity.CreateUsersRequest) error
	DescribeUsers(ctx context.Context, tenantID string, req *entity.DescribeUsersRequest) (*entity.DescribeUsersResponse, error)
	DeleteUser(ctx context.Context, tenantID string, req *entity.DeleteUserRequest) error
	EnableRoot(ctx context.Context, tenantID string, req *entity.EnableRootRequest) (*entity.EnableRootResponse, error)
	DisableRoot(ctx context.Context, tenantID string, req *entity.DisableRootRequest) error
	RootStatus(ctx context.Context, tenantID string, req *entity.RootStatusRequest) (*entity.RootStatusResponse, error)
}

type User struct {
	userService UserServiceInterface
}

func NewUser(userService *service.UserService) *User {
	return &User{
		userService: userService,
	}
}

func (u *User) RegisterRoutes(router *gin.RouterGroup) {
	userRouter := router.Group("/users")
	userRouter.POST("/create", ginx.Adapt4(u.CreateUsers))
	userRouter.POST("/describe", ginx.Adapt5(u.DescribeUsers))
	userRouter.POST("/delete", ginx.Adapt4(u.DeleteUser))
	userRouter.POST("/enable-root", ginx.Adapt5(u.EnableRoot))
	userRouter.POST("/disable-root", ginx.Adapt4(u.DisableRoot))
	userRouter.POST("/root-status", ginx.Adapt5(u.RootStatus))
}

func (u *User) CreateUsers(ctx *gin.Context, req *entity.CreateUsersRequest) error {
	logger := zerolog.Ctx(ctx)
	logger.Info().
		Str("instance_id", req.InstanceID).
		Int("count", len(req.Users)).
		Msg("CreateUsers called")

	if err := u.userService.CreateUsers(ctx, tenantID(ctx), req); err != nil {
		logger.Error().
			Err(err).
			Str("instance_id", req.InstanceID).
			Msg("Failed to create users")
		return err
	}
	return nil
}

func (u *User) DescribeUsers(ctx *gin.Context, req *entity.DescribeUsersRequest) (*entity.DescribeUsersResponse, error) {
	logger := zerolog.Ctx(ctx)

	response, err := u.userService.DescribeUsers(ctx, tenantID(ctx), req)
	if err != nil {
		logger.Error().
			Err(err).
			Str("instance_id", req.InstanceID).
			Msg("Failed to describe users")
		return nil, err
	}
	return response, nil
}

func (u *User) DeleteUser(ctx *gin.Context, req *entity.DeleteUserRequest) error {
	logger := zerolog.Ctx(ctx)
	logger.Info().
		Str("instance_id", req.InstanceID).
		Str("name", req.Name).
		Msg("DeleteUser called")

	if err := u.userService.DeleteUser(ctx, tenantID(ctx), req); err != nil {
		logger.Error().
			Err(err).
			Str("instance_id", req.InstanceID).
			Msg("Failed to delete user")
		return err
	}
	return nil
}

func (u *User) EnableRoot(ctx *gin.Context, req *entity.EnableRootRequest) (*entity.EnableRootResponse, error) {
	logger := zerolog.Ctx(ctx)
	logger.Info().
		Str("instance_id", req.InstanceID).
		Msg("EnableRoot called")

	response, err := u.userService.EnableRoot(ctx, tenantID(ctx), req)
	if err != nil {
		logger.Error().
			Err(err).
			Str("instance_id", req.InstanceID).
			Msg("Failed to enable root")
		return nil, err
	}

	logger.Info().
		Str("instance_id", req.InstanceID).
		Msg("Root enabled successfully")
	return response, nil
}

func (u *User) DisableRoot(ctx *gin.Context, req *entity.DisableRootRequest) error {
	logger := zerolog.Ctx(ctx)
	logger.Info().
		Str("instance_id", req.InstanceID).
		Msg("DisableRoot called")

	if err := u.userService.DisableRoot(ctx, tenantID(ctx), req); err != nil {
		logger.Error().
			Err(err).
			Str("instance_id", req.InstanceID).
			Msg("Failed to disable root")
		return err
	}
	return nil
}

func (u *User) RootStatus(ctx *gin.Context, req *entity.RootStatusRequest) (*entity.RootStatusResponse, error) {
	logger := zerolog.Ctx(ctx)

	response, err := u.userService.RootStatus(ctx, tenantID(ctx), req)
	if err != nil {
		logger.Error().
			Err(err).
			Str("instance_id", req.InstanceID).
			Msg("Failed to query root status")
		return nil, err
	}
	return response, nil
}
