package compute

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockClient 是 Client 的 mock 实现
// 用于测试，不需要真实的计算服务
type MockClient struct {
	mock.Mock
}

// 编译时检查 MockClient 实现了 Client 接口
var _ Client = (*MockClient)(nil)

// NewMockClient 创建新的 MockClient
func NewMockClient() *MockClient {
	return &MockClient{}
}

// ListFlavors 实现 Client 接口
func (m *MockClient) ListFlavors(ctx context.Context) ([]Flavor, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Flavor), args.Error(1)
}

// GetFlavor 实现 Client 接口
func (m *MockClient) GetFlavor(ctx context.Context, id string) (*Flavor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Flavor), args.Error(1)
}

// RebootServer 实现 Client 接口
func (m *MockClient) RebootServer(ctx context.Context, serverID string) error {
	args := m.Called(ctx, serverID)
	return args.Error(0)
}
