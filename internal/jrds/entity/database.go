package entity

import "errors"

// Database 实例内数据库
type Database struct {
	Name         string `json:"name"`                    // 数据库名称
	CharacterSet string `json:"character_set,omitempty"` // 字符集，默认 utf8mb4
	Collate      string `json:"collate,omitempty"`       // 排序规则
}

// CreateDatabasesRequest 创建数据库请求
type CreateDatabasesRequest struct {
	InstanceID string     `json:"instance_id"`
	Databases  []Database `json:"databases"`
}

// IsValid 校验请求参数
func (r *CreateDatabasesRequest) IsValid() error {
	if r.InstanceID == "" {
		return errors.New("instance_id is required")
	}
	if len(r.Databases) == 0 {
		return errors.New("databases is required")
	}
	for _, db := range r.Databases {
		if db.Name == "" {
			return errors.New("database name is required")
		}
	}
	return nil
}

// DescribeDatabasesRequest 描述数据库请求
type DescribeDatabasesRequest struct {
	InstanceID string `json:"instance_id"`
}

// IsValid 校验请求参数
func (r *DescribeDatabasesRequest) IsValid() error {
	if r.InstanceID == "" {
		return errors.New("instance_id is required")
	}
	return nil
}

// DescribeDatabasesResponse 描述数据库响应
type DescribeDatabasesResponse struct {
	Databases []Database `json:"databases"`
}

// DeleteDatabaseRequest 删除数据库请求
type DeleteDatabaseRequest struct {
	InstanceID string `json:"instance_id"`
	Name       string `json:"name"`
}

// IsValid 校验请求参数
func (r *DeleteDatabaseRequest) IsValid() error {
	if r.InstanceID == "" {
		return errors.New("instance_id is required")
	}
	if r.Name == "" {
		return errors.New("name is required")
	}
	return nil
}
