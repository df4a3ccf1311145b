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

// DatabaseService 实例内数据库管理服务
// 数据库对象只存在于 guest 上，控制面不落库，所有操作都转发给 guest
type DatabaseService struct {
	instanceRepo repository.InstanceRepository
	guest        GuestClient
}

// NewDatabaseService 创建数据库管理服务
func NewDatabaseService(instanceRepo repository.InstanceRepository, guest GuestClient) *DatabaseService {
	return &DatabaseService{instanceRepo: instanceRepo, guest: guest}
}

// CreateDatabases 在实例上创建数据库
// 命令投递即返回，guest 执行结果通过后续状态上报体现
func (s *DatabaseService) CreateDatabases(ctx context.Context, tenantID string, req *entity.CreateDatabasesRequest) error {
	instance, err := s.ownedInstance(ctx, tenantID, req.InstanceID)
	if err != nil {
		return err
	}
	return s.guest.CreateDatabases(ctx, instance.RemoteHostname, req.Databases)
}

// DescribeDatabases 列出实例上的数据库
func (s *DatabaseService) DescribeDatabases(ctx context.Context, tenantID string, req *entity.DescribeDatabasesRequest) (*entity.DescribeDatabasesResponse, error) {
	instance, err := s.ownedInstance(ctx, tenantID, req.InstanceID)
	if err != nil {
		return nil, err
	}
	databases, err := s.guest.ListDatabases(ctx, instance.RemoteHostname)
	if err != nil {
		return nil, err
	}
	return &entity.DescribeDatabasesResponse{Databases: databases}, nil
}

// DeleteDatabase 删除实例上的数据库
func (s *DatabaseService) DeleteDatabase(ctx context.Context, tenantID string, req *entity.DeleteDatabaseRequest) error {
	instance, err := s.ownedInstance(ctx, tenantID, req.InstanceID)
	if err != nil {
		return err
	}
	return s.guest.DeleteDatabase(ctx, instance.RemoteHostname, req.Name)
}

// ownedInstance 加载实例并校验租户归属
func (s *DatabaseService) ownedInstance(ctx context.Context, tenantID, instanceID string) (*model.Instance, error) {
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
