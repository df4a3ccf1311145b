package service

import (
	"context"

	"github.com/jimyag/jrds/internal/jrds/entity"
	"github.com/jimyag/jrds/pkg/apierror"
	"github.com/jimyag/jrds/pkg/compute"
)

// FlavorService 计算规格查询服务
// 规格数据来自计算服务，控制面不落库
type FlavorService struct {
	compute compute.Client
}

// NewFlavorService 创建计算规格查询服务
func NewFlavorService(computeClient compute.Client) *FlavorService {
	return &FlavorService{compute: computeClient}
}

// DescribeFlavors 查询计算规格
// 不指定 ID 时返回全部规格
func (s *FlavorService) DescribeFlavors(ctx context.Context, req *entity.DescribeFlavorsRequest) (*entity.DescribeFlavorsResponse, error) {
	if req.FlavorID != "" {
		flavor, err := s.compute.GetFlavor(ctx, req.FlavorID)
		if err != nil {
			return nil, apierror.WrapErrorf(apierror.ErrFlavorNotFound, err, "flavor %s", req.FlavorID)
		}
		return &entity.DescribeFlavorsResponse{
			Flavors: []entity.Flavor{toFlavorEntity(flavor)},
		}, nil
	}

	flavors, err := s.compute.ListFlavors(ctx)
	if err != nil {
		return nil, apierror.WrapErrorf(apierror.ErrComputeFailed, err, "list flavors")
	}
	result := make([]entity.Flavor, 0, len(flavors))
	for i := range flavors {
		result = append(result, toFlavorEntity(&flavors[i]))
	}
	return &entity.DescribeFlavorsResponse{Flavors: result}, nil
}
