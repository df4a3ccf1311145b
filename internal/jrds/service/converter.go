package service

import (
	"time"

	"github.com/jinzhu/copier"

	"github.com/jimyag/jrds/internal/jrds/entity"
	"github.com/jimyag/jrds/internal/jrds/repository/model"
	"github.com/jimyag/jrds/pkg/compute"
)

// toInstanceEntity 将实例模型转换为业务实体
// 时间字段格式化为 RFC3339，guest 状态由调用方单独查询后传入
func toInstanceEntity(m *model.Instance, guestState string) entity.Instance {
	var e entity.Instance
	_ = copier.Copy(&e, m)
	e.GuestState = guestState
	e.CreatedAt = m.CreatedAt.Format(time.RFC3339)
	return e
}

// toSnapshotEntity 将快照模型转换为业务实体
func toSnapshotEntity(m *model.Snapshot) entity.Snapshot {
	var e entity.Snapshot
	_ = copier.Copy(&e, m)
	e.CreatedAt = m.CreatedAt.Format(time.RFC3339)
	return e
}

// toFlavorEntity 将计算规格转换为业务实体
func toFlavorEntity(f *compute.Flavor) entity.Flavor {
	var e entity.Flavor
	_ = copier.Copy(&e, f)
	return e
}
