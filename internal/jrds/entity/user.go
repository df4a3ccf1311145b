package entity

import "errors"

// DBUser 实例内数据库用户
type DBUser struct {
	Name      string   `json:"name"`                // 用户名
	Password  string   `json:"password,omitempty"`  // 密码，只在创建请求中出现
	Databases []string `json:"databases,omitempty"` // 授权的数据库
}

// CreateUsersRequest 创建用户请求
type CreateUsersRequest struct {
	InstanceID string   `json:"instance_id"`
	Users      []DBUser `json:"users"`
}

// IsValid 校验请求参数
func (r *CreateUsersRequest) IsValid() error {
	if r.InstanceID == "" {
		return errors.New("instance_id is required")
	}
	if len(r.Users) == 0 {
		return errors.New("users is required")
	}
	for _, user := range r.Users {
		if user.Name == "" {
			return errors.New("user name is required")
		}
		if user.Password == "" {
			return errors.New("user password is required")
		}
	}
	return nil
}

// DescribeUsersRequest 描述用户请求
type DescribeUsersRequest struct {
	InstanceID string `json:"instance_id"`
}

// IsValid 校验请求参数
func (r *DescribeUsersRequest) IsValid() error {
	if r.InstanceID == "" {
		return errors.New("instance_id is required")
	}
	return nil
}

// DescribeUsersResponse 描述用户响应
type DescribeUsersResponse struct {
	Users []DBUser `json:"users"`
}

// DeleteUserRequest 删除用户请求
type DeleteUserRequest struct {
	InstanceID string `json:"instance_id"`
	Name       string `json:"name"`
}

// IsValid 校验请求参数
func (r *DeleteUserRequest) IsValid() error {
	if r.InstanceID == "" {
		return errors.New("instance_id is required")
	}
	if r.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

// EnableRootRequest 开启 root 访问请求
type EnableRootRequest struct {
	InstanceID string `json:"instance_id"`
}

// IsValid 校验请求参数
func (r *EnableRootRequest) IsValid() error {
	if r.InstanceID == "" {
		return errors.New("instance_id is required")
	}
	return nil
}

// EnableRootResponse 开启 root 访问响应
type EnableRootResponse struct {
	Name     string `json:"name"`
	Password string `json:"password"` // 新生成的 root 密码，只在本次响应中返回
}

// DisableRootRequest 关闭 root 访问请求
type DisableRootRequest struct {
	InstanceID string `json:"instance_id"`
}

// IsValid 校验请求参数
func (r *DisableRootRequest) IsValid() error {
	if r.InstanceID == "" {
		return errors.New("instance_id is required")
	}
	return nil
}

// RootStatusRequest 查询 root 状态请求
type RootStatusRequest struct {
	InstanceID string `json:"instance_id"`
}

// IsValid 校验请求参数
func (r *RootStatusRequest) IsValid() error {
	if r.InstanceID == "" {
		return errors.New("instance_id is required")
	}
	return nil
}

// RootStatusResponse 查询 root 状态响应
type RootStatusResponse struct {
	Enabled bool `json:"enabled"`
}
