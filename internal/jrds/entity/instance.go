// Package entity 定义业务实体
package entity

import "errors"

// 实例生命周期状态
const (
	InstanceStatusBuilding   = "building"   // 供给请求已准入，等待 worker 和 guest
	InstanceStatusRunning    = "running"    // guest 上报正常运行
	InstanceStatusRestarting = "restarting" // 重启中
	InstanceStatusStopped    = "stopped"    // guest 上报已停止
	InstanceStatusFailed     = "failed"     // 供给或运行失败
)

// Instance 实例信息
type Instance struct {
	ID               string `json:"id"`                // Instance ID: i-{id}
	Name             string `json:"name"`              // 实例名称
	Status           string `json:"status"`            // 生命周期状态
	TenantID         string `json:"tenant_id"`         // 所属租户
	UserID           string `json:"user_id"`           // 创建者
	RemoteHostname   string `json:"remote_hostname"`   // 远端主机名
	Address          string `json:"address"`           // 服务地址
	Port             int    `json:"port"`              // 服务端口
	FlavorID         string `json:"flavor_id"`         // 计算规格
	AvailabilityZone string `json:"availability_zone"` // 可用区
	GuestState       string `json:"guest_state"`       // guest 最近上报的状态
	CreatedAt        string `json:"created_at"`        // 创建时间
}

// RunInstanceRequest 创建实例请求
type RunInstanceRequest struct {
	Name             string `json:"name"`                        // 实例名称
	FlavorID         string `json:"flavor_id"`                   // 计算规格（必填）
	Port             int    `json:"port,omitempty"`              // 服务端口（可选，默认 3306）
	AvailabilityZone string `json:"availability_zone,omitempty"` // 可用区（可选）
}

// IsValid 校验请求参数
func (r *RunInstanceRequest) IsValid() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.FlavorID == "" {
		return errors.New("flavor_id is required")
	}
	return nil
}

// RunInstanceResponse 创建实例响应
type RunInstanceResponse struct {
	Instance *Instance `json:"instance"`
}

// DescribeInstancesRequest 描述实例请求
type DescribeInstancesRequest struct {
	InstanceIDs []string `json:"instance_ids,omitempty"` // 为空时返回租户全部实例
}

// DescribeInstancesResponse 描述实例响应
type DescribeInstancesResponse struct {
	Instances []Instance `json:"instances"`
}

// DeleteInstanceRequest 删除实例请求
type DeleteInstanceRequest struct {
	InstanceID string `json:"instance_id"`
}

// IsValid 校验请求参数
func (r *DeleteInstanceRequest) IsValid() error {
	if r.InstanceID == "" {
		return errors.New("instance_id is required")
	}
	return nil
}

// RestartInstanceRequest 重启实例请求
type RestartInstanceRequest struct {
	InstanceID string `json:"instance_id"`
}

// IsValid 校验请求参数
func (r *RestartInstanceRequest) IsValid() error {
	if r.InstanceID == "" {
		return errors.New("instance_id is required")
	}
	return nil
}

// ResetPasswordRequest 重置密码请求
type ResetPasswordRequest struct {
	InstanceID string `json:"instance_id"`
	UserName   string `json:"user_name,omitempty"` // 可选，默认 root
}

// IsValid 校验请求参数
func (r *ResetPasswordRequest) IsValid() error {
	if r.InstanceID == "" {
		return errors.New("instance_id is required")
	}
	return nil
}

// ResetPasswordResponse 重置密码响应
type ResetPasswordResponse struct {
	InstanceID string `json:"instance_id"`
	UserName   string `json:"user_name"`
	Password   string `json:"password"` // 新密码，只在本次响应中返回
}

// CheckStatusRequest 查询 guest 状态请求
type CheckStatusRequest struct {
	InstanceID string `json:"instance_id"`
}

// IsValid 校验请求参数
func (r *CheckStatusRequest) IsValid() error {
	if r.InstanceID == "" {
		return errors.New("instance_id is required")
	}
	return nil
}

// CheckStatusResponse 查询 guest 状态响应
type CheckStatusResponse struct {
	InstanceID string `json:"instance_id"`
	State      string `json:"state"`
}
