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

// UserService 实例内数据库用户管理服务
// 用户对象只存在于 guest 上，控制面不落库
type UserService struct {
	instanceRepo repository.InstanceRepository
	guest        GuestClient
}

// NewUserService 创建用户管理服务
func NewUserService(instanceRepo repository.InstanceRepository, guest GuestClient) *UserService {
	return &UserService{instanceRepo: instanceRepo, guest: guest}
}

// CreateUsers 在实例上创建数据库用户
func (s *UserService) CreateUsers(ctx context.Context, tenantID string, req *entity.CreateUsersRequest) error {
	instance, err := s.ownedInstance(ctx, tenantID, req.InstanceID)
	if err != nil {
		return err
	}
	return s.guest.CreateUsers(ctx, instance.RemoteHostname, req.Users)
}

// DescribeUsers 列出实例上的数据库用户
func (s *UserService) DescribeUsers(ctx context.Context, tenantID string, req *entity.DescribeUsersRequest) (*entity.DescribeUsersResponse, error) {
	instance, err := s.ownedInstance(ctx, tenantID, req.InstanceID)
	if err != nil {
		return nil, err
	}
	users, err := s.guest.ListUsers(ctx, instance.RemoteHostname)
	if err != nil {
		return nil, err
	}
	// guest 不应该返回密码，防御性清空
	for i := range users {
		users[i].Password = ""
	}
	return &entity.DescribeUsersResponse{Users: users}, nil
}

// DeleteUser 删除实例上的数据库用户
func (s *UserService) DeleteUser(ctx context.Context, tenantID string, req *entity.DeleteUserRequest) error {
	instance, err := s.ownedInstance(ctx, tenantID, req.InstanceID)
	if err != nil {
		return err
	}
	return s.guest.DeleteUser(ctx, instance.RemoteHostname, req.Name)
}

// EnableRoot 开启 root 访问
// guest 生成新的 root 密码并在响应中返回，控制面不保存
func (s *UserService) EnableRoot(ctx context.Context, tenantID string, req *entity.EnableRootRequest) (*entity.EnableRootResponse, error) {
	instance, err := s.ownedInstance(ctx, tenantID, req.InstanceID)
	if err != nil {
		return nil, err
	}
	root, err := s.guest.EnableRoot(ctx, instance.RemoteHostname)
	if err != nil {
		return nil, err
	}
	return &entity.EnableRootResponse{Name: root.Name, Password: root.Password}, nil
}

// DisableRoot 关闭 root 访问
func (s *UserService) DisableRoot(ctx context.Context, tenantID string, req *entity.DisableRootRequest) error {
	instance, err := s.ownedInstance(ctx, tenantID, req.InstanceID)
	if err != nil {
		return err
	}
	return s.guest.DisableRoot(ctx, instance.RemoteHostname)
}

// RootStatus 查询 root 访问是否开启
func (s *UserService) RootStatus(ctx context.Context, tenantID string, req *entity.RootStatusRequest) (*entity.RootStatusResponse, error) {
	instance, err := s.ownedInstance(ctx, tenantID, req.InstanceID)
	if err != nil {
		return nil, err
	}
	enabled, err := s.guest.IsRootEnabled(ctx, instance.RemoteHostname)
	if err != nil {
		return nil, err
	}
	return &entity.RootStatusResponse{Enabled: enabled}, nil
}

// ownedInstance 加载实例并校验租户归属
func (s *UserService) ownedInstance(ctx context.Context, tenantID, instanceID string) (*model.Instance, error) {
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
