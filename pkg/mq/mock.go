package mq

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockBroker 是 Broker 的 mock 实现
// 用于测试，不需要真实的 RabbitMQ
type MockBroker struct {
	mock.Mock
}

// 编译时检查 MockBroker 实现了 Broker 接口
var _ Broker = (*MockBroker)(nil)

// NewMockBroker 创建新的 MockBroker
func NewMockBroker() *MockBroker {
	return &MockBroker{}
}

// Cast 实现 Broker 接口
func (m *MockBroker) Cast(ctx context.Context, topic string, payload any) error {
	args := m.Called(ctx, topic, payload)
	return args.Error(0)
}

// Call 实现 Broker 接口
func (m *MockBroker) Call(ctx context.Context, topic string, payload any, timeout time.Duration) ([]byte, error) {
	args := m.Called(ctx, topic, payload, timeout)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// Subscribe 实现 Broker 接口
func (m *MockBroker) Subscribe(ctx context.Context, topic string, handler Handler) error {
	args := m.Called(ctx, topic, handler)
	return args.Error(0)
}

// Close 实现 Broker 接口
func (m *MockBroker) Close() error {
	args := m.Called()
	return args.Error(0)
}
