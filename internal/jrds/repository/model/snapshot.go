package model

import (
	"time"

	"gorm.io/gorm"
)

// Snapshot 快照表
// InstanceID 是弱引用：快照可以比它的实例活得更久，删除实例不会级联删除快照
type Snapshot struct {
	ID          string         `gorm:"primaryKey;type:text;column:id" json:"id"`                                              // snap-{id}
	InstanceID  string         `gorm:"type:text;not null;index:idx_snapshots_instance_id;column:instance_id" json:"instance_id"` // 来源实例
	Name        string         `gorm:"type:text;not null;column:name" json:"name"`                                            // 快照名称
	State       string         `gorm:"type:text;not null;index:idx_snapshots_state;column:state" json:"state"`                // building, success, failed
	TenantID    string         `gorm:"type:text;not null;index:idx_snapshots_tenant_id;column:tenant_id" json:"tenant_id"`    // 所属租户
	UserID      string         `gorm:"type:text;not null;column:user_id" json:"user_id"`                                      // 创建者
	StorageURI  string         `gorm:"type:text;column:storage_uri" json:"storage_uri"`                                       // 对象存储地址，完成回调后写入
	StorageSize string         `gorm:"type:text;column:storage_size" json:"storage_size"`                                     // 存储大小，字符串保留 "0"
	CreatedAt   time.Time      `gorm:"type:datetime;not null;column:created_at" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"type:datetime;not null;column:updated_at" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"type:datetime;index:idx_snapshots_deleted_at;column:deleted_at" json:"deleted_at,omitempty"` // 软删除
}

// TableName 指定表名
func (Snapshot) TableName() string {
	return "snapshots"
}
