package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/jimyag/jrds/internal/jrds/entity"
	"github.com/jimyag/jrds/internal/jrds/repository"
	"github.com/jimyag/jrds/internal/jrds/repository/model"
	"github.com/jimyag/jrds/pkg/mq"
)

// phone-home 消息方法名
const (
	methodUpdateInstanceState = "update_instance_state"
	methodUpdateSnapshotState = "update_snapshot_state"
)

// reconcileHandler 单个 phone-home 方法的处理函数
// 返回错误表示消息被拒绝，调用方记录日志后丢弃，不会重试
type reconcileHandler func(ctx context.Context, args map[string]any) error

// Reconciler phone-home 消息的消费者
// guest agent 把状态变化上报到控制主题，reconciler 校验、分发、落库。
// 消费循环永远不会因为单条坏消息而退出：
// 非法消息记录日志后丢弃，乱序消息按最后写入为准
type Reconciler struct {
	broker          mq.Broker
	topic           string
	instanceRepo    repository.InstanceRepository
	guestStatusRepo repository.GuestStatusRepository
	snapshotRepo    repository.SnapshotRepository

	handlers map[string]reconcileHandler

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewReconciler 创建 reconciler
// 处理函数表在构造时建好并校验，保证两个已知方法都有处理函数
func NewReconciler(
	broker mq.Broker,
	topic string,
	instanceRepo repository.InstanceRepository,
	guestStatusRepo repository.GuestStatusRepository,
	snapshotRepo repository.SnapshotRepository,
) (*Reconciler, error) {
	r := &Reconciler{
		broker:          broker,
		topic:           topic,
		instanceRepo:    instanceRepo,
		guestStatusRepo: guestStatusRepo,
		snapshotRepo:    snapshotRepo,
	}
	r.handlers = map[string]reconcileHandler{
		methodUpdateInstanceState: r.handleInstanceState,
		methodUpdateSnapshotState: r.handleSnapshotState,
	}
	for _, method := range []string{methodUpdateInstanceState, methodUpdateSnapshotState} {
		if r.handlers[method] == nil {
			return nil, fmt.Errorf("missing handler for %s", method)
		}
	}
	return r, nil
}

// Name 服务名
func (r *Reconciler) Name() string {
	return "phone-home-reconciler"
}

// Run 订阅控制主题并阻塞消费，直到 Shutdown 或 ctx 结束
func (r *Reconciler) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()

	zerolog.Ctx(ctx).Info().Str("topic", r.topic).Msg("reconciler started")
	err := r.broker.Subscribe(ctx, r.topic, r.Handle)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Shutdown 停止消费，Run 还没启动时也可以安全调用
func (r *Reconciler) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return nil
}

// Handle 处理一条 phone-home 消息
// 任何失败都只记录日志，绝不让异常逃逸到消费循环
func (r *Reconciler) Handle(ctx context.Context, body []byte) {
	logger := zerolog.Ctx(ctx)
	defer func() {
		if p := recover(); p != nil {
			logger.Error().Any("panic", p).Msg("panic while handling phone-home message")
		}
	}()

	var msg struct {
		Method string         `json:"method"`
		Args   map[string]any `json:"args"`
	}
	if err := json.Unmarshal(body, &msg); err != nil {
		logger.Warn().Err(err).Msg("dropping undecodable phone-home message")
		return
	}
	if msg.Method == "" {
		logger.Warn().Msg("dropping phone-home message without method")
		return
	}
	if msg.Args == nil {
		logger.Warn().Str("method", msg.Method).Msg("dropping phone-home message without args")
		return
	}

	handler, ok := r.handlers[msg.Method]
	if !ok {
		// 未知方法不是错误，可能来自更新版本的 guest agent
		logger.Warn().Str("method", msg.Method).Msg("ignoring phone-home message with unknown method")
		return
	}
	if err := handler(ctx, msg.Args); err != nil {
		logger.Warn().Err(err).Str("method", msg.Method).Msg("dropping rejected phone-home message")
		return
	}
	logger.Debug().Str("method", msg.Method).Msg("applied phone-home message")
}

// handleInstanceState 应用 guest 上报的实例状态
// 消息只携带主机名，通过 remote_hostname 反查实例；
// 查不到实例按无害消息丢弃（实例可能刚被删除）
func (r *Reconciler) handleInstanceState(ctx context.Context, args map[string]any) error {
	hostname, err := stringArg(args, "hostname")
	if err != nil {
		return err
	}
	rawState, ok := args["state"]
	if !ok {
		return errors.New("state is required")
	}
	state, err := entity.ParseGuestState(rawState)
	if err != nil {
		return err
	}

	instance, err := r.instanceRepo.GetByHostname(ctx, hostname)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			zerolog.Ctx(ctx).Warn().Str("hostname", hostname).Msg("phone-home for unknown instance")
			return nil
		}
		return fmt.Errorf("lookup instance by hostname %s: %w", hostname, err)
	}

	if err = r.guestStatusRepo.UpdateState(ctx, instance.ID, string(state)); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("update guest status of %s: %w", instance.ID, err)
		}
		status := &model.GuestStatus{InstanceID: instance.ID, State: string(state)}
		if err = r.guestStatusRepo.Create(ctx, status); err != nil {
			return fmt.Errorf("create guest status of %s: %w", instance.ID, err)
		}
	}

	if err = r.instanceRepo.UpdateFields(ctx, instance.ID, map[string]any{
		"status": instanceStatusOf(state),
	}); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("update instance %s: %w", instance.ID, err)
	}
	return nil
}

// handleSnapshotState 应用 guest 上报的快照状态
// 四个参数都必须存在；storage_size 非空，"0" 是合法值（空快照）
func (r *Reconciler) handleSnapshotState(ctx context.Context, args map[string]any) error {
	snapshotID, err := stringArg(args, "sid")
	if err != nil {
		return err
	}
	rawState, ok := args["state"]
	if !ok {
		return errors.New("state is required")
	}
	state, err := parseSnapshotState(rawState)
	if err != nil {
		return err
	}
	storageSize, err := sizeArg(args, "storage_size")
	if err != nil {
		return err
	}
	// storage_uri 必须存在，失败回调允许为空字符串
	rawURI, ok := args["storage_uri"]
	if !ok {
		return errors.New("storage_uri is required")
	}
	storageURI, ok := rawURI.(string)
	if !ok {
		return errors.New("storage_uri must be a string")
	}

	err = r.snapshotRepo.UpdateState(ctx, snapshotID, state, storageURI, storageSize)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		zerolog.Ctx(ctx).Warn().Str("snapshot_id", snapshotID).Msg("phone-home for unknown snapshot")
		return nil
	}
	if err != nil {
		return fmt.Errorf("update snapshot %s: %w", snapshotID, err)
	}
	return nil
}

// instanceStatusOf 把 guest 状态映射为实例生命周期状态
func instanceStatusOf(state entity.GuestState) string {
	switch state {
	case entity.GuestStateBuilding:
		return entity.InstanceStatusBuilding
	case entity.GuestStateRunning:
		return entity.InstanceStatusRunning
	case entity.GuestStateRestarting:
		return entity.InstanceStatusRestarting
	case entity.GuestStateStop:
		return entity.InstanceStatusStopped
	default:
		return entity.InstanceStatusFailed
	}
}

// snapshotStateCodes 旧版 guest agent 使用的快照状态码
var snapshotStateCodes = map[int]string{
	0: entity.SnapshotStateBuilding,
	1: entity.SnapshotStateSuccess,
	2: entity.SnapshotStateFailed,
}

// parseSnapshotState 翻译快照状态的线上表示
func parseSnapshotState(value any) (string, error) {
	switch v := value.(type) {
	case string:
		switch v {
		case entity.SnapshotStateBuilding, entity.SnapshotStateSuccess, entity.SnapshotStateFailed:
			return v, nil
		}
		if code, err := strconv.Atoi(v); err == nil {
			if state, ok := snapshotStateCodes[code]; ok {
				return state, nil
			}
		}
		return "", fmt.Errorf("unknown snapshot state %q", v)
	case float64:
		if state, ok := snapshotStateCodes[int(v)]; ok {
			return state, nil
		}
		return "", fmt.Errorf("unknown snapshot state code %v", v)
	default:
		return "", fmt.Errorf("unsupported snapshot state type %T", value)
	}
}

// stringArg 取必填的非空字符串参数
func stringArg(args map[string]any, key string) (string, error) {
	value, ok := args[key]
	if !ok {
		return "", fmt.Errorf("%s is required", key)
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", key)
	}
	if s == "" {
		return "", fmt.Errorf("%s must not be empty", key)
	}
	return s, nil
}

// sizeArg 取必填的大小参数，接受字符串或数字，空字符串非法
func sizeArg(args map[string]any, key string) (string, error) {
	value, ok := args[key]
	if !ok {
		return "", fmt.Errorf("%s is required", key)
	}
	switch v := value.(type) {
	case string:
		if v == "" {
			return "", fmt.Errorf("%s must not be empty", key)
		}
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("%s must be a string or number", key)
	}
}
