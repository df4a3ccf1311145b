package compute

import (
	"context"
)

// Flavor 计算规格
type Flavor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	RAM   int    `json:"ram"`   // 内存大小（MB）
	VCPUs int    `json:"vcpus"` // 虚拟 CPU 数量
	Disk  int    `json:"disk"`  // 磁盘大小（GB）
}

// Client 计算服务客户端接口
// 封装 Nova 兼容的计算 API，只暴露控制面需要的操作
type Client interface {
	// ListFlavors 列出所有计算规格
	ListFlavors(ctx context.Context) ([]Flavor, error)

	// GetFlavor 根据 ID 获取计算规格
	GetFlavor(ctx context.Context, id string) (*Flavor, error)

	// RebootServer 软重启计算实例
	RebootServer(ctx context.Context, serverID string) error
}
