// Package service 实现业务逻辑
package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/jimyag/jrds/internal/jrds/entity"
	"github.com/jimyag/jrds/internal/jrds/repository"
	"github.com/jimyag/jrds/internal/jrds/repository/model"
	"github.com/jimyag/jrds/pkg/apierror"
	"github.com/jimyag/jrds/pkg/mq"
)

// guestTopicPrefix guest agent 队列名前缀
const guestTopicPrefix = "guest."

// GuestTopic 根据实例的远端主机名推导 guest agent 的路由键
// 取主机名的第一个 DNS 标签，其余部分丢弃："abc.def.com" -> "guest.abc"
func GuestTopic(remoteHostname string) string {
	label, _, _ := strings.Cut(remoteHostname, ".")
	return guestTopicPrefix + label
}

// guestMessage guest agent 消息信封
type guestMessage struct {
	Method string         `json:"method"`
	Args   map[string]any `json:"args"`
}

// guestReply guest agent 同步调用的响应
type guestReply struct {
	Result  json.RawMessage `json:"result"`
	Failure string          `json:"failure"`
}

// SnapshotUpload 创建快照时传给 guest 的存储信息
type SnapshotUpload struct {
	SnapshotID string
	Credential string // "<tenant_id>:<user_name>"
	Key        string // 存储访问密码
	AuthURL    string
}

// SnapshotRestore 恢复快照时传给 guest 的存储信息
type SnapshotRestore struct {
	SnapshotID string
	StorageURI string
	Credential string
	Key        string
	AuthURL    string
}

// GuestClient guest agent RPC 客户端
// 写操作用 cast 投递后立即返回，真实结果由 guest 通过 phone-home 上报；
// 读操作用 call 同步等待响应
type GuestClient interface {
	CreateUsers(ctx context.Context, hostname string, users []entity.DBUser) error
	ListUsers(ctx context.Context, hostname string) ([]entity.DBUser, error)
	DeleteUser(ctx context.Context, hostname, name string) error
	CreateDatabases(ctx context.Context, hostname string, databases []entity.Database) error
	ListDatabases(ctx context.Context, hostname string) ([]entity.Database, error)
	DeleteDatabase(ctx context.Context, hostname, name string) error
	EnableRoot(ctx context.Context, hostname string) (*entity.DBUser, error)
	DisableRoot(ctx context.Context, hostname string) error
	IsRootEnabled(ctx context.Context, hostname string) (bool, error)
	ResetPassword(ctx context.Context, hostname, userName, password string) error
	CheckStatus(ctx context.Context, instanceID, hostname string) (entity.GuestState, error)
	CreateSnapshot(ctx context.Context, hostname string, upload SnapshotUpload) error
	ApplySnapshot(ctx context.Context, hostname string, restore SnapshotRestore) error
	Upgrade(ctx context.Context, hostname string) error
}

type guestClient struct {
	broker          mq.Broker
	guestStatusRepo repository.GuestStatusRepository
	timeout         time.Duration
}

var _ GuestClient = (*guestClient)(nil)

// NewGuestClient 创建 guest agent RPC 客户端
func NewGuestClient(broker mq.Broker, guestStatusRepo repository.GuestStatusRepository, timeout time.Duration) GuestClient {
	return &guestClient{
		broker:          broker,
		guestStatusRepo: guestStatusRepo,
		timeout:         timeout,
	}
}

// cast 向 guest 投递单向消息，broker 接收即返回
func (c *guestClient) cast(ctx context.Context, hostname, method string, args map[string]any) error {
	if hostname == "" {
		return apierror.ErrInstanceNotReady
	}
	topic := GuestTopic(hostname)
	msg := guestMessage{Method: method, Args: args}
	if err := c.broker.Cast(ctx, topic, msg); err != nil {
		return apierror.WrapErrorf(apierror.ErrTransport, err, "cast %s to %s", method, topic)
	}
	zerolog.Ctx(ctx).Debug().
		Str("topic", topic).
		Str("method", method).
		Msg("cast message to guest")
	return nil
}

// call 向 guest 发起同步调用并等待响应
// 超时映射为 guest 不可达，guest 返回 failure 映射为命令执行失败
func (c *guestClient) call(ctx context.Context, hostname, method string, args map[string]any) (json.RawMessage, error) {
	if hostname == "" {
		return nil, apierror.ErrInstanceNotReady
	}
	topic := GuestTopic(hostname)
	msg := guestMessage{Method: method, Args: args}
	body, err := c.broker.Call(ctx, topic, msg, c.timeout)
	if err != nil {
		if errors.Is(err, mq.ErrTimeout) {
			return nil, apierror.WrapErrorf(apierror.ErrGuestUnreachable, err, "call %s on %s", method, topic)
		}
		return nil, apierror.WrapErrorf(apierror.ErrTransport, err, "call %s on %s", method, topic)
	}
	var reply guestReply
	if err = json.Unmarshal(body, &reply); err != nil {
		return nil, apierror.WrapErrorf(apierror.ErrMalformedMessage, err, "decode reply of %s from %s", method, topic)
	}
	if reply.Failure != "" {
		return nil, apierror.WrapErrorf(apierror.ErrGuestCommandFailed, errors.New(reply.Failure), "guest failed to run %s", method)
	}
	return reply.Result, nil
}

// CreateUsers 在实例上创建数据库用户
func (c *guestClient) CreateUsers(ctx context.Context, hostname string, users []entity.DBUser) error {
	return c.cast(ctx, hostname, "create_user", map[string]any{"users": users})
}

// ListUsers 列出实例上的数据库用户
func (c *guestClient) ListUsers(ctx context.Context, hostname string) ([]entity.DBUser, error) {
	result, err := c.call(ctx, hostname, "list_users", map[string]any{})
	if err != nil {
		return nil, err
	}
	var users []entity.DBUser
	if err = json.Unmarshal(result, &users); err != nil {
		return nil, apierror.WrapErrorf(apierror.ErrMalformedMessage, err, "decode user list")
	}
	return users, nil
}

// DeleteUser 删除实例上的数据库用户
func (c *guestClient) DeleteUser(ctx context.Context, hostname, name string) error {
	return c.cast(ctx, hostname, "delete_user", map[string]any{"user_name": name})
}

// CreateDatabases 在实例上创建数据库
func (c *guestClient) CreateDatabases(ctx context.Context, hostname string, databases []entity.Database) error {
	return c.cast(ctx, hostname, "create_database", map[string]any{"databases": databases})
}

// ListDatabases 列出实例上的数据库
func (c *guestClient) ListDatabases(ctx context.Context, hostname string) ([]entity.Database, error) {
	result, err := c.call(ctx, hostname, "list_databases", map[string]any{})
	if err != nil {
		return nil, err
	}
	var databases []entity.Database
	if err = json.Unmarshal(result, &databases); err != nil {
		return nil, apierror.WrapErrorf(apierror.ErrMalformedMessage, err, "decode database list")
	}
	return databases, nil
}

// DeleteDatabase 删除实例上的数据库
func (c *guestClient) DeleteDatabase(ctx context.Context, hostname, name string) error {
	return c.cast(ctx, hostname, "delete_database", map[string]any{"database_name": name})
}

// EnableRoot 开启 root 访问，guest 返回带新密码的 root 用户
func (c *guestClient) EnableRoot(ctx context.Context, hostname string) (*entity.DBUser, error) {
	result, err := c.call(ctx, hostname, "enable_root", map[string]any{})
	if err != nil {
		return nil, err
	}
	var user entity.DBUser
	if err = json.Unmarshal(result, &user); err != nil {
		return nil, apierror.WrapErrorf(apierror.ErrMalformedMessage, err, "decode root user")
	}
	return &user, nil
}

// DisableRoot 关闭 root 访问，同步等待 guest 确认
func (c *guestClient) DisableRoot(ctx context.Context, hostname string) error {
	_, err := c.call(ctx, hostname, "disable_root", map[string]any{})
	return err
}

// IsRootEnabled 查询 root 访问是否开启
func (c *guestClient) IsRootEnabled(ctx context.Context, hostname string) (bool, error) {
	result, err := c.call(ctx, hostname, "is_root_enabled", map[string]any{})
	if err != nil {
		return false, err
	}
	var enabled bool
	if err = json.Unmarshal(result, &enabled); err != nil {
		return false, apierror.WrapErrorf(apierror.ErrMalformedMessage, err, "decode root enabled flag")
	}
	return enabled, nil
}

// ResetPassword 重置数据库用户密码，同步等待 guest 确认
func (c *guestClient) ResetPassword(ctx context.Context, hostname, userName, password string) error {
	_, err := c.call(ctx, hostname, "reset_password", map[string]any{
		"user_name": userName,
		"password":  password,
	})
	return err
}

// CheckStatus 同步查询 guest 的运行状态并持久化
// guest 的响应经过 ParseGuestState 翻译后写入 guest_statuses，
// 再次查询同一实例时 HTTP 层能直接读到最近一次探测结果
func (c *guestClient) CheckStatus(ctx context.Context, instanceID, hostname string) (entity.GuestState, error) {
	result, err := c.call(ctx, hostname, "check_mysql_status", map[string]any{})
	if err != nil {
		return "", err
	}
	var raw any
	if err = json.Unmarshal(result, &raw); err != nil {
		return "", apierror.WrapErrorf(apierror.ErrMalformedMessage, err, "decode guest status")
	}
	state, err := entity.ParseGuestState(raw)
	if err != nil {
		return "", apierror.WrapErrorf(apierror.ErrMalformedMessage, err, "parse guest status")
	}
	if err = c.guestStatusRepo.UpdateState(ctx, instanceID, string(state)); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apierror.WrapErrorf(apierror.ErrInternalError, err, "persist guest status")
		}
		status := &model.GuestStatus{InstanceID: instanceID, State: string(state)}
		if err = c.guestStatusRepo.Create(ctx, status); err != nil {
			return "", apierror.WrapErrorf(apierror.ErrInternalError, err, "persist guest status")
		}
	}
	return state, nil
}

// CreateSnapshot 让 guest 把数据备份上传到对象存储
func (c *guestClient) CreateSnapshot(ctx context.Context, hostname string, upload SnapshotUpload) error {
	return c.cast(ctx, hostname, "create_snapshot", map[string]any{
		"sid":        upload.SnapshotID,
		"credential": upload.Credential,
		"key":        upload.Key,
		"auth_url":   upload.AuthURL,
	})
}

// ApplySnapshot 让 guest 从对象存储下载快照并恢复数据
func (c *guestClient) ApplySnapshot(ctx context.Context, hostname string, restore SnapshotRestore) error {
	return c.cast(ctx, hostname, "apply_snapshot", map[string]any{
		"sid":         restore.SnapshotID,
		"storage_uri": restore.StorageURI,
		"credential":  restore.Credential,
		"key":         restore.Key,
		"auth_url":    restore.AuthURL,
	})
}

// Upgrade 让 guest agent 自升级
func (c *guestClient) Upgrade(ctx context.Context, hostname string) error {
	return c.cast(ctx, hostname, "upgrade", map[string]any{})
}
