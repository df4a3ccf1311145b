package entity

// Flavor 计算规格
type Flavor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	RAM   int    `json:"ram"`   // 内存 MB
	VCPUs int    `json:"vcpus"` // 虚拟 CPU 数
	Disk  int    `json:"disk"`  // 磁盘 GB
}

// DescribeFlavorsRequest 描述计算规格请求
type DescribeFlavorsRequest struct {
	FlavorID string `json:"flavor_id,omitempty"` // 为空时返回全部规格
}

// DescribeFlavorsResponse 描述计算规格响应
type DescribeFlavorsResponse struct {
	Flavors []Flavor `json:"flavors"`
}
