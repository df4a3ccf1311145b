package model

import (
	"time"

	"gorm.io/gorm"
)

// GuestStatus guest agent 最近一次上报的健康状态
// 与 Instance 一比一，活跃记录的唯一性由部分唯一索引保证（见 repository.createIndexes）
type GuestStatus struct {
	ID         uint           `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	InstanceID string         `gorm:"type:text;not null;index:idx_guest_statuses_instance_id;column:instance_id" json:"instance_id"` // 关联 instances.id
	State      string         `gorm:"type:text;not null;column:state" json:"state"` // building, running, restarting, stop, failed（仅 guest 上报）
	CreatedAt  time.Time      `gorm:"type:datetime;not null;column:created_at" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"type:datetime;not null;column:updated_at" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"type:datetime;index:idx_guest_statuses_deleted_at;column:deleted_at" json:"deleted_at,omitempty"` // 软删除
}

// TableName 指定表名
func (GuestStatus) TableName() string {
	return "guest_statuses"
}
