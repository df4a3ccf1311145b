package mq

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout Call 在超时时间内没有收到关联的应答
var ErrTimeout = errors.New("mq: call timed out waiting for reply")

// Handler 订阅消息的处理函数
// handler 返回后消息即被确认，处理失败的消息不会重新投递
type Handler func(ctx context.Context, body []byte)

// Broker 消息代理接口
// 提供三个原语：
//   - Cast: 发布即忘，只保证消息被代理接收
//   - Call: 发布并等待关联应答（correlation id + 有界超时）
//   - Subscribe: 订阅一个主题，多个订阅者按竞争消费者模式分摊消息
type Broker interface {
	// Cast 发布消息到指定主题，不等待应答
	// 只有代理本身不可达或发布失败才返回错误
	Cast(ctx context.Context, topic string, payload any) error

	// Call 发布消息到指定主题并等待关联应答
	// 超时返回 ErrTimeout；超时后到达的应答会被丢弃
	Call(ctx context.Context, topic string, payload any, timeout time.Duration) ([]byte, error)

	// Subscribe 订阅指定主题，为每条消息调用 handler
	// 阻塞直到 ctx 取消或底层连接关闭
	Subscribe(ctx context.Context, topic string, handler Handler) error

	// Close 关闭与代理的连接
	Close() error
}
