// Package jrds 提供 jrds 服务器的主入口和初始化逻辑
package jrds

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jimmicro/grace"
	"github.com/rs/zerolog"

	"github.com/jimyag/jrds/internal/jrds/api"
	"github.com/jimyag/jrds/internal/jrds/config"
	"github.com/jimyag/jrds/internal/jrds/repository"
	"github.com/jimyag/jrds/internal/jrds/service"
	"github.com/jimyag/jrds/pkg/compute"
	"github.com/jimyag/jrds/pkg/idgen"
	"github.com/jimyag/jrds/pkg/mq"
)

type Server struct {
	cfg        *config.Config
	api        *api.API
	reconciler *service.Reconciler
	broker     mq.Broker
	repo       *repository.Repository
}

func New(cfg *config.Config) (*Server, error) {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &logger

	// 1. 打开记录存储
	repo, err := repository.New(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("create repository: %w", err)
	}
	instanceRepo := repository.NewInstanceRepository(repo.DB())
	guestStatusRepo := repository.NewGuestStatusRepository(repo.DB())
	snapshotRepo := repository.NewSnapshotRepository(repo.DB())
	quotaRepo := repository.NewQuotaRepository(repo.DB())

	// 2. 连接消息代理
	broker, err := mq.Dial(cfg.BrokerURI)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	logger.Info().Str("broker", cfg.BrokerURI).Msg("Connected to message broker")

	// 3. 连接计算服务
	computeClient, err := compute.New(compute.AuthConfig{
		AuthURL:    cfg.Compute.AuthURL,
		Username:   cfg.Compute.Username,
		Password:   cfg.Compute.Password,
		TenantName: cfg.Compute.TenantName,
		DomainName: cfg.Compute.DomainName,
		Region:     cfg.Compute.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create compute client: %w", err)
	}

	// 4. 创建业务服务
	idGen := idgen.New()
	quotaController := service.NewQuotaController(
		quotaRepo, instanceRepo, snapshotRepo,
		cfg.DefaultInstanceQuota, cfg.DefaultSnapshotQuota,
	)
	guestClient := service.NewGuestClient(broker, guestStatusRepo, cfg.GuestCallTimeout)
	workerClient := service.NewWorkerClient(broker, cfg.WorkTopic)
	instanceService := service.NewInstanceService(
		repo, instanceRepo, guestStatusRepo,
		quotaController, guestClient, workerClient, computeClient, idGen,
		cfg.BrokerURI, cfg.PhoneHomeTopic,
	)
	snapshotService := service.NewSnapshotService(
		repo, snapshotRepo, instanceRepo,
		quotaController, guestClient, idGen,
		cfg.StorageAuthURL,
	)
	databaseService := service.NewDatabaseService(instanceRepo, guestClient)
	userService := service.NewUserService(instanceRepo, guestClient)
	flavorService := service.NewFlavorService(computeClient)

	// 5. 创建 phone-home reconciler
	reconciler, err := service.NewReconciler(
		broker, cfg.PhoneHomeTopic,
		instanceRepo, guestStatusRepo, snapshotRepo,
	)
	if err != nil {
		return nil, fmt.Errorf("create reconciler: %w", err)
	}

	// 6. 创建 API
	apiInstance, err := api.New(
		cfg.Address,
		instanceService, snapshotService, databaseService,
		userService, flavorService, quotaController,
	)
	if err != nil {
		return nil, fmt.Errorf("create api: %w", err)
	}

	return &Server{
		cfg:        cfg,
		api:        apiInstance,
		reconciler: reconciler,
		broker:     broker,
		repo:       repo,
	}, nil
}

func (s *Server) Run(ctx context.Context) error {
	// 使用 grace.Shepherd 管理服务生命周期
	services := []grace.Grace{
		s.api,
		s.reconciler,
	}

	shepherd := grace.NewShepherd(
		services,
		grace.WithTimeout(30*time.Second),
		grace.WithLogger(&zerologLogger{}),
	)

	shepherd.Start(ctx)

	// 所有服务退出后释放外部连接
	if err := s.broker.Close(); err != nil {
		zerolog.DefaultContextLogger.Error().Err(err).Msg("Failed to close broker")
	}
	if err := s.repo.Close(); err != nil {
		zerolog.DefaultContextLogger.Error().Err(err).Msg("Failed to close repository")
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.reconciler.Shutdown(ctx); err != nil {
		return err
	}
	return s.api.Shutdown(ctx)
}

// Name 实现 grace.Grace 接口
func (s *Server) Name() string {
	return "jrds Server"
}

// zerologLogger 实现 grace.Logger 接口
type zerologLogger struct{}

func (l *zerologLogger) Info(msg string, args ...interface{}) {
	logger := zerolog.DefaultContextLogger.Info()
	// 如果有参数，使用 Msgf 格式化消息
	if len(args) > 0 {
		logger.Msgf(msg, args...)
	} else {
		logger.Msg(msg)
	}
}

func (l *zerologLogger) Error(msg string, args ...interface{}) {
	logger := zerolog.DefaultContextLogger.Error()
	// 如果有参数，使用 Msgf 格式化消息
	if len(args) > 0 {
		logger.Msgf(msg, args...)
	} else {
		logger.Msg(msg)
	}
}
