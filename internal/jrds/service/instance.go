package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/jimyag/jrds/internal/jrds/entity"
	"github.com/jimyag/jrds/internal/jrds/repository"
	"github.com/jimyag/jrds/internal/jrds/repository/model"
	"github.com/jimyag/jrds/pkg/apierror"
	"github.com/jimyag/jrds/pkg/compute"
	"github.com/jimyag/jrds/pkg/idgen"
)

// defaultInstancePort 数据库服务默认端口
const defaultInstancePort = 3306

// agentConfig 注入 guest agent 的启动配置
// worker 创建虚拟机时写入 guest 文件系统
type agentConfig struct {
	AMQPURI        string `yaml:"amqp_uri"`         // 消息代理地址
	PhoneHomeTopic string `yaml:"phone_home_topic"` // 状态上报主题
	GuestTopic     string `yaml:"guest_topic"`      // guest 自己的命令队列
	Password       string `yaml:"password"`         // 实例凭证
}

// InstanceService 实例生命周期服务
type InstanceService struct {
	repo            *repository.Repository
	instanceRepo    repository.InstanceRepository
	guestStatusRepo repository.GuestStatusRepository
	quota           *QuotaController
	guest           GuestClient
	worker          WorkerClient
	compute         compute.Client
	idGen           *idgen.Generator

	brokerURI      string
	phoneHomeTopic string
}

// NewInstanceService 创建实例服务
func NewInstanceService(
	repo *repository.Repository,
	instanceRepo repository.InstanceRepository,
	guestStatusRepo repository.GuestStatusRepository,
	quota *QuotaController,
	guest GuestClient,
	worker WorkerClient,
	computeClient compute.Client,
	idGen *idgen.Generator,
	brokerURI string,
	phoneHomeTopic string,
) *InstanceService {
	return &InstanceService{
		repo:            repo,
		instanceRepo:    instanceRepo,
		guestStatusRepo: guestStatusRepo,
		quota:           quota,
		guest:           guest,
		worker:          worker,
		compute:         computeClient,
		idGen:           idGen,
		brokerURI:       brokerURI,
		phoneHomeTopic:  phoneHomeTopic,
	}
}

// RunInstance 创建实例
// 配额检查和记录写入在同一个事务里完成，并发创建不会超卖；
// 事务提交后再向 worker 投递供给任务，投递失败实例标记为 failed
func (s *InstanceService) RunInstance(ctx context.Context, tenantID, userID string, req *entity.RunInstanceRequest) (*entity.RunInstanceResponse, error) {
	if _, err := s.compute.GetFlavor(ctx, req.FlavorID); err != nil {
		return nil, apierror.WrapErrorf(apierror.ErrFlavorNotFound, err, "flavor %s", req.FlavorID)
	}

	id, err := s.idGen.GenerateInstanceID()
	if err != nil {
		return nil, apierror.WrapErrorf(apierror.ErrInternalError, err, "generate instance id")
	}
	remoteSeq, err := s.idGen.GenerateID()
	if err != nil {
		return nil, apierror.WrapErrorf(apierror.ErrInternalError, err, "generate remote uuid")
	}
	remoteUUID := fmt.Sprintf("%016x", remoteSeq)
	password, err := generatePassword()
	if err != nil {
		return nil, apierror.WrapErrorf(apierror.ErrInternalError, err, "generate instance credential")
	}

	port := req.Port
	if port == 0 {
		port = defaultInstancePort
	}
	// 主机名的第一个标签就是实例 ID，路由键由此推导
	hostname := fmt.Sprintf("%s.guest.jrds", id)

	instance := &model.Instance{
		ID:               id,
		Name:             req.Name,
		Status:           entity.InstanceStatusBuilding,
		TenantID:         tenantID,
		UserID:           userID,
		RemoteUUID:       remoteUUID,
		RemoteHostname:   hostname,
		GuestPassword:    password,
		Port:             port,
		FlavorID:         req.FlavorID,
		AvailabilityZone: req.AvailabilityZone,
	}

	err = s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		txInstances := repository.NewInstanceRepository(tx)
		inUse, err := txInstances.CountActiveByTenant(ctx, tenantID)
		if err != nil {
			return apierror.WrapErrorf(apierror.ErrInternalError, err, "count instances of %s", tenantID)
		}
		allowed, err := s.quota.Allowed(ctx, tenantID, model.ResourceInstances, 1, inUse)
		if err != nil {
			return err
		}
		if allowed < 1 {
			return apierror.WrapErrorf(apierror.ErrQuotaExceeded, nil, "instance quota of %s exhausted", tenantID)
		}
		if err = txInstances.Create(ctx, instance); err != nil {
			return apierror.WrapErrorf(apierror.ErrInternalError, err, "create instance")
		}
		status := &model.GuestStatus{InstanceID: id, State: string(entity.GuestStateBuilding)}
		if err = repository.NewGuestStatusRepository(tx).Create(ctx, status); err != nil {
			return apierror.WrapErrorf(apierror.ErrInternalError, err, "create guest status")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	cfg, err := yaml.Marshal(agentConfig{
		AMQPURI:        s.brokerURI,
		PhoneHomeTopic: s.phoneHomeTopic,
		GuestTopic:     GuestTopic(hostname),
		Password:       password,
	})
	if err != nil {
		return nil, apierror.WrapErrorf(apierror.ErrInternalError, err, "build agent config")
	}

	if err = s.worker.EnsureInstanceCreated(ctx, InstanceJob{
		InstanceID:     id,
		RemoteUUID:     remoteUUID,
		RemoteHostname: hostname,
		AgentConfig:    cfg,
	}); err != nil {
		// 任务没有投递出去，实例不会被供给
		if updateErr := s.instanceRepo.UpdateFields(ctx, id, map[string]any{
			"status": entity.InstanceStatusFailed,
		}); updateErr != nil {
			zerolog.Ctx(ctx).Error().Err(updateErr).
				Str("instance_id", id).
				Msg("failed to mark instance failed after dispatch error")
		}
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Str("instance_id", id).
		Str("tenant_id", tenantID).
		Msg("instance admitted")
	result := toInstanceEntity(instance, string(entity.GuestStateBuilding))
	return &entity.RunInstanceResponse{Instance: &result}, nil
}

// DescribeInstances 查询实例
// 不指定 ID 时返回租户的全部实例，指定 ID 时逐个校验归属
func (s *InstanceService) DescribeInstances(ctx context.Context, tenantID string, req *entity.DescribeInstancesRequest) (*entity.DescribeInstancesResponse, error) {
	var instances []*model.Instance
	if len(req.InstanceIDs) == 0 {
		var err error
		instances, err = s.instanceRepo.List(ctx, tenantID)
		if err != nil {
			return nil, apierror.WrapErrorf(apierror.ErrInternalError, err, "list instances of %s", tenantID)
		}
	} else {
		for _, id := range req.InstanceIDs {
			instance, err := s.loadOwned(ctx, tenantID, id)
			if err != nil {
				return nil, err
			}
			instances = append(instances, instance)
		}
	}

	result := make([]entity.Instance, 0, len(instances))
	for _, instance := range instances {
		result = append(result, toInstanceEntity(instance, s.guestStateOf(ctx, instance.ID)))
	}
	return &entity.DescribeInstancesResponse{Instances: result}, nil
}

// DeleteInstance 删除实例
// 软删除实例和 guest 状态记录，释放配额占用
func (s *InstanceService) DeleteInstance(ctx context.Context, tenantID string, req *entity.DeleteInstanceRequest) error {
	instance, err := s.loadOwned(ctx, tenantID, req.InstanceID)
	if err != nil {
		return err
	}
	if err = s.guestStatusRepo.Delete(ctx, instance.ID); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return apierror.WrapErrorf(apierror.ErrInternalError, err, "delete guest status of %s", instance.ID)
	}
	if err = s.instanceRepo.Delete(ctx, instance.ID); err != nil {
		return apierror.WrapErrorf(apierror.ErrInternalError, err, "delete instance %s", instance.ID)
	}
	zerolog.Ctx(ctx).Info().Str("instance_id", instance.ID).Msg("instance deleted")
	return nil
}

// RestartInstance 重启实例
// 通过计算服务软重启虚拟机，guest agent 随系统恢复后会上报 running
func (s *InstanceService) RestartInstance(ctx context.Context, tenantID string, req *entity.RestartInstanceRequest) error {
	instance, err := s.loadOwned(ctx, tenantID, req.InstanceID)
	if err != nil {
		return err
	}
	if instance.RemoteID == "" {
		return apierror.WrapErrorf(apierror.ErrInstanceNotReady, nil, "instance %s has no compute server yet", instance.ID)
	}
	if err = s.compute.RebootServer(ctx, instance.RemoteID); err != nil {
		return apierror.WrapErrorf(apierror.ErrComputeFailed, err, "reboot instance %s", instance.ID)
	}
	if err = s.instanceRepo.UpdateFields(ctx, instance.ID, map[string]any{
		"status": entity.InstanceStatusRestarting,
	}); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return apierror.WrapErrorf(apierror.ErrInternalError, err, "update instance %s", instance.ID)
	}
	return nil
}

// ResetPassword 重置数据库用户密码
// 新密码由控制面生成并同步下发，guest 确认后才返回给调用方
func (s *InstanceService) ResetPassword(ctx context.Context, tenantID string, req *entity.ResetPasswordRequest) (*entity.ResetPasswordResponse, error) {
	instance, err := s.loadOwned(ctx, tenantID, req.InstanceID)
	if err != nil {
		return nil, err
	}
	userName := req.UserName
	if userName == "" {
		userName = "root"
	}
	password, err := generatePassword()
	if err != nil {
		return nil, apierror.WrapErrorf(apierror.ErrInternalError, err, "generate password")
	}
	if err = s.guest.ResetPassword(ctx, instance.RemoteHostname, userName, password); err != nil {
		return nil, err
	}
	return &entity.ResetPasswordResponse{
		InstanceID: instance.ID,
		UserName:   userName,
		Password:   password,
	}, nil
}

// CheckStatus 同步探测 guest 的运行状态
// 探测结果会持久化，下一次 DescribeInstances 能直接读到
func (s *InstanceService) CheckStatus(ctx context.Context, tenantID string, req *entity.CheckStatusRequest) (*entity.CheckStatusResponse, error) {
	instance, err := s.loadOwned(ctx, tenantID, req.InstanceID)
	if err != nil {
		return nil, err
	}
	state, err := s.guest.CheckStatus(ctx, instance.ID, instance.RemoteHostname)
	if err != nil {
		return nil, err
	}
	return &entity.CheckStatusResponse{
		InstanceID: instance.ID,
		State:      string(state),
	}, nil
}

// loadOwned 加载实例并校验租户归属
// 归属不匹配按不存在处理，不向调用方泄露其他租户的实例
func (s *InstanceService) loadOwned(ctx context.Context, tenantID, instanceID string) (*model.Instance, error) {
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

// guestStateOf 读取实例最近一次上报的 guest 状态，没有记录时返回空
func (s *InstanceService) guestStateOf(ctx context.Context, instanceID string) string {
	status, err := s.guestStatusRepo.GetByInstanceID(ctx, instanceID)
	if err != nil {
		return ""
	}
	return status.State
}

// generatePassword 生成随机凭证
func generatePassword() (string, error) {
	buf := make([]byte, 18)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
