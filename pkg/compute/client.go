package compute

import (
	"context"
	"fmt"

	"github.com/gophercloud/gophercloud"
	"github.com/gophercloud/gophercloud/openstack"
	"github.com/gophercloud/gophercloud/openstack/compute/v2/flavors"
	"github.com/gophercloud/gophercloud/openstack/compute/v2/servers"
)

// AuthConfig 计算服务认证配置
type AuthConfig struct {
	// AuthURL 身份服务地址，例如 http://keystone:5000/v3
	AuthURL string
	// Username / Password 服务账号凭证
	Username string
	Password string
	// TenantName 服务账号所在租户
	TenantName string
	// DomainName 认证域，默认 Default
	DomainName string
	// Region 计算服务所在区域
	Region string
}

// novaClient 基于 gophercloud 的 Client 实现
type novaClient struct {
	compute *gophercloud.ServiceClient
}

// 编译时检查 novaClient 实现了 Client 接口
var _ Client = (*novaClient)(nil)

// New 创建计算服务客户端
func New(cfg AuthConfig) (Client, error) {
	domain := cfg.DomainName
	if domain == "" {
		domain = "Default"
	}

	provider, err := openstack.AuthenticatedClient(gophercloud.AuthOptions{
		IdentityEndpoint: cfg.AuthURL,
		Username:         cfg.Username,
		Password:         cfg.Password,
		TenantName:       cfg.TenantName,
		DomainName:       domain,
		// 控制面是长生命周期进程，token 过期后自动重新认证
		AllowReauth: true,
	})
	if err != nil {
		return nil, fmt.Errorf("authenticate compute provider: %w", err)
	}

	client, err := openstack.NewComputeV2(provider, gophercloud.EndpointOpts{
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("locate compute endpoint: %w", err)
	}

	return &novaClient{compute: client}, nil
}

// ListFlavors 列出所有计算规格
func (c *novaClient) ListFlavors(ctx context.Context) ([]Flavor, error) {
	pages, err := flavors.ListDetail(c.compute, flavors.ListOpts{}).AllPages()
	if err != nil {
		return nil, fmt.Errorf("list flavors: %w", err)
	}

	raw, err := flavors.ExtractFlavors(pages)
	if err != nil {
		return nil, fmt.Errorf("extract flavors: %w", err)
	}

	result := make([]Flavor, 0, len(raw))
	for _, f := range raw {
		result = append(result, Flavor{
			ID:    f.ID,
			Name:  f.Name,
			RAM:   f.RAM,
			VCPUs: f.VCPUs,
			Disk:  f.Disk,
		})
	}
	return result, nil
}

// GetFlavor 根据 ID 获取计算规格
func (c *novaClient) GetFlavor(ctx context.Context, id string) (*Flavor, error) {
	f, err := flavors.Get(c.compute, id).Extract()
	if err != nil {
		return nil, fmt.Errorf("get flavor %s: %w", id, err)
	}
	return &Flavor{
		ID:    f.ID,
		Name:  f.Name,
		RAM:   f.RAM,
		VCPUs: f.VCPUs,
		Disk:  f.Disk,
	}, nil
}

// RebootServer 软重启计算实例
// 软重启通知操作系统正常关机再启动，guest agent 会随系统一起恢复
func (c *novaClient) RebootServer(ctx context.Context, serverID string) error {
	err := servers.Reboot(c.compute, serverID, servers.RebootOpts{
		Type: servers.SoftReboot,
	}).ExtractErr()
	if err != nil {
		return fmt.Errorf("reboot server %s: %w", serverID, err)
	}
	return nil
}
