package model

import (
	"time"

	"gorm.io/gorm"
)

// Instance 数据库实例表
type Instance struct {
	ID               string         `gorm:"primaryKey;type:text;column:id" json:"id"`                                              // i-{id}
	Name             string         `gorm:"type:text;not null;column:name" json:"name"`                                            // 实例名称
	Status           string         `gorm:"type:text;not null;index:idx_instances_status;column:status" json:"status"`             // building, running, restarting, stopped, failed
	TenantID         string         `gorm:"type:text;not null;index:idx_instances_tenant_id;column:tenant_id" json:"tenant_id"`    // 所属租户
	UserID           string         `gorm:"type:text;not null;column:user_id" json:"user_id"`                                      // 创建者
	RemoteID         string         `gorm:"type:text;column:remote_id" json:"remote_id"`                                           // 计算服务实例 ID
	RemoteUUID       string         `gorm:"type:text;column:remote_uuid" json:"remote_uuid"`                                       // 计算服务实例 UUID
	RemoteHostname   string         `gorm:"type:text;index:idx_instances_remote_hostname;column:remote_hostname" json:"remote_hostname"` // 路由键来源，compute 分配后写入
	GuestPassword    string         `gorm:"type:text;column:guest_password" json:"-"`                                              // guest 凭证，需要可还原以派生快照存储凭证
	Address          string         `gorm:"type:text;column:address" json:"address"`                                               // 服务地址
	Port             int            `gorm:"type:integer;column:port" json:"port"`                                                  // 服务端口
	FlavorID         string         `gorm:"type:text;not null;column:flavor_id" json:"flavor_id"`                                  // 计算规格
	AvailabilityZone string         `gorm:"type:text;column:availability_zone" json:"availability_zone"`                           // 可用区
	CreatedAt        time.Time      `gorm:"type:datetime;not null;index:idx_instances_created_at;column:created_at" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"type:datetime;not null;column:updated_at" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"type:datetime;index:idx_instances_deleted_at;column:deleted_at" json:"deleted_at,omitempty"` // 软删除
}

// TableName 指定表名
func (Instance) TableName() string {
	return "instances"
}
