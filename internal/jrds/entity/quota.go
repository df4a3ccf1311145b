package entity

import "errors"

// UnlimitedQuota 配额哨兵值，表示不限制
const UnlimitedQuota = -1

// QuotaUsage 租户某种资源的配额与用量
type QuotaUsage struct {
	Resource  string `json:"resource"`   // 资源类型：instances / snapshots
	HardLimit int    `json:"hard_limit"` // 上限，-1 表示不限制
	InUse     int    `json:"in_use"`     // 当前用量
}

// DescribeQuotasResponse 描述配额响应
type DescribeQuotasResponse struct {
	TenantID string       `json:"tenant_id"`
	Quotas   []QuotaUsage `json:"quotas"`
}

// ModifyQuotaRequest 修改配额请求（管理操作）
type ModifyQuotaRequest struct {
	Resource  string `json:"resource"`
	HardLimit int    `json:"hard_limit"` // -1 表示不限制
}

// IsValid 校验请求参数
func (r *ModifyQuotaRequest) IsValid() error {
	if r.Resource == "" {
		return errors.New("resource is required")
	}
	if r.HardLimit < UnlimitedQuota {
		return errors.New("hard_limit must be >= -1")
	}
	return nil
}
