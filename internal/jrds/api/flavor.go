package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jimyag/jrds/internal/jrds/entity"
	"github.com/jimyag/jrds/internal/jrds/service"
	"github.com/jimyag/jrds/pkg/ginx"
)

// FlavorServiceInterface 定义计算规格服务的接口
type FlavorServiceInterface interface {
	DescribeFlavors(ctx context.Context, req *entity.DescribeFlavorsRequest) (*entity.DescribeFlavorsResponse, error)
}

type Flavor struct {
	flavorService FlavorServiceInterface
}

func NewFlavor(flavorService *service.FlavorService) *Flavor {
	return &Flavor{
		flavorService: flavorService,
	}
}

func (f *Flavor) RegisterRoutes(router *gin.RouterGroup) {
	flavorRouter := router.Group("/flavors")
	flavorRouter.POST("/describe", ginx.Adapt5(f.DescribeFlavors))
}

func (f *Flavor) DescribeFlavors(ctx *gin.Context, req *entity.DescribeFlavorsRequest) (*entity.DescribeFlavorsResponse, error) {
	logger := zerolog.Ctx(ctx)

	response, err := f.flavorService.DescribeFlavors(ctx, req)
	if err != nil {
		logger.Error().
			Err(err).
			Msg("Failed to describe flavors")
		return nil, err
	}
	return response, nil
}
