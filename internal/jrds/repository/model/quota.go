package model

import (
	"time"

	"gorm.io/gorm"
)

// Quota 租户资源配额表
// 缺少记录不代表没有限制，而是回退到系统默认值
type Quota struct {
	ID        uint           `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	TenantID  string         `gorm:"type:text;not null;index:idx_quotas_tenant_id;column:tenant_id" json:"tenant_id"` // 租户
	Resource  string         `gorm:"type:text;not null;column:resource" json:"resource"`                              // instances, snapshots
	HardLimit int            `gorm:"type:integer;not null;column:hard_limit" json:"hard_limit"`                       // -1 表示不限制
	CreatedAt time.Time      `gorm:"type:datetime;not null;column:created_at" json:"created_at"`
	UpdatedAt time.Time      `gorm:"type:datetime;not null;column:updated_at" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"type:datetime;index:idx_quotas_deleted_at;column:deleted_at" json:"deleted_at,omitempty"` // 软删除
}

// TableName 指定表名
func (Quota) TableName() string {
	return "quotas"
}

// 资源种类
const (
	ResourceInstances = "instances"
	ResourceSnapshots = "snapshots"
)
