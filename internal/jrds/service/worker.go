package service

import (
	"context"
	"encoding/base64"

	"github.com/rs/zerolog"

	"github.com/jimyag/jrds/pkg/apierror"
	"github.com/jimyag/jrds/pkg/mq"
)

// InstanceJob 投递给 worker 的实例供给任务
type InstanceJob struct {
	InstanceID     string
	RemoteUUID     string
	RemoteHostname string
	AgentConfig    []byte // guest agent 的启动配置，投递时做 base64 编码
}

// WorkerClient worker 任务投递客户端
// worker 是独立进程，负责调用 IaaS 创建虚拟机并注入 guest agent，
// 控制面只投递任务，不等待结果
type WorkerClient interface {
	EnsureInstanceCreated(ctx context.Context, job InstanceJob) error
}

type workerClient struct {
	broker mq.Broker
	topic  string
}

var _ WorkerClient = (*workerClient)(nil)

// NewWorkerClient 创建 worker 任务投递客户端
func NewWorkerClient(broker mq.Broker, topic string) WorkerClient {
	return &workerClient{broker: broker, topic: topic}
}

// EnsureInstanceCreated 投递实例供给任务
func (w *workerClient) EnsureInstanceCreated(ctx context.Context, job InstanceJob) error {
	payload := map[string]any{
		"create-instance": map[string]any{
			"uuid":           job.InstanceID,
			"remoteUuid":     job.RemoteUUID,
			"remoteHostName": job.RemoteHostname,
			"agentConfig":    base64.StdEncoding.EncodeToString(job.AgentConfig),
		},
	}
	if err := w.broker.Cast(ctx, w.topic, payload); err != nil {
		return apierror.WrapErrorf(apierror.ErrTransport, err, "dispatch create-instance job for %s", job.InstanceID)
	}
	zerolog.Ctx(ctx).Info().
		Str("instance_id", job.InstanceID).
		Str("topic", w.topic).
		Msg("dispatched create-instance job")
	return nil
}
