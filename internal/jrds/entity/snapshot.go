package entity

import "errors"

// 快照生命周期状态
const (
	SnapshotStateBuilding = "building" // 已创建记录，等待 guest 上传
	SnapshotStateSuccess  = "success"  // guest 上报上传完成，可用于恢复
	SnapshotStateFailed   = "failed"   // guest 上报失败
)

// Snapshot 快照信息
type Snapshot struct {
	ID          string `json:"id"`           // Snapshot ID: snap-{id}
	InstanceID  string `json:"instance_id"`  // 来源实例，实例删除后仍保留
	Name        string `json:"name"`         // 快照名称
	State       string `json:"state"`        // 生命周期状态
	TenantID    string `json:"tenant_id"`    // 所属租户
	StorageURI  string `json:"storage_uri"`  // 对象存储地址，guest 上报后填充
	StorageSize string `json:"storage_size"` // 存储大小，guest 上报后填充
	CreatedAt   string `json:"created_at"`   // 创建时间
}

// CreateSnapshotRequest 创建快照请求
type CreateSnapshotRequest struct {
	InstanceID string `json:"instance_id"`
	Name       string `json:"name"`
}

// IsValid 校验请求参数
func (r *CreateSnapshotRequest) IsValid() error {
	if r.InstanceID == "" {
		return errors.New("instance_id is required")
	}
	if r.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

// CreateSnapshotResponse 创建快照响应
type CreateSnapshotResponse struct {
	Snapshot *Snapshot `json:"snapshot"`
}

// DescribeSnapshotsRequest 描述快照请求
type DescribeSnapshotsRequest struct {
	SnapshotIDs []string `json:"snapshot_ids,omitempty"` // 为空时返回租户全部快照
	InstanceID  string   `json:"instance_id,omitempty"`  // 按来源实例过滤
}

// DescribeSnapshotsResponse 描述快照响应
type DescribeSnapshotsResponse struct {
	Snapshots []Snapshot `json:"snapshots"`
}

// DeleteSnapshotRequest 删除快照请求
type DeleteSnapshotRequest struct {
	SnapshotID string `json:"snapshot_id"`
}

// IsValid 校验请求参数
func (r *DeleteSnapshotRequest) IsValid() error {
	if r.SnapshotID == "" {
		return errors.New("snapshot_id is required")
	}
	return nil
}

// ApplySnapshotRequest 将快照恢复到实例请求
type ApplySnapshotRequest struct {
	InstanceID string `json:"instance_id"`
	SnapshotID string `json:"snapshot_id"`
}

// IsValid 校验请求参数
func (r *ApplySnapshotRequest) IsValid() error {
	if r.InstanceID == "" {
		return errors.New("instance_id is required")
	}
	if r.SnapshotID == "" {
		return errors.New("snapshot_id is required")
	}
	return nil
}
