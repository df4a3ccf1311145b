package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jimyag/jrds/internal/jrds/entity"
	"github.com/jimyag/jrds/internal/jrds/service"
	"github.com/jimyag/jrds/pkg/ginx"
)

// QuotaServiceInterface 定义配额服务的接口
type QuotaServiceInterface interface {
	DescribeQuotas(ctx context.Context, tenantID string) (*entity.DescribeQuotasResponse, error)
	ModifyQuota(ctx context.Context, tenantID, resource string, hardLimit int) error
}

type Quota struct {
	quotaService QuotaServiceInterface
}

func NewQuota(quotaController *service.QuotaController) *Quota {
	return &Quota{
		quotaService: quotaController,
	}
}

func (q *Quota) RegisterRoutes(router *gin.RouterGroup) {
	quotaRouter := router.Group("/quotas")
	quotaRouter.POST("/describe", ginx.Adapt2(q.DescribeQuotas))
	// 配额只能由管理员调整，X-Tenant-ID 指定被调整的租户
	quotaRouter.POST("/modify", AdminRequired(), ginx.Adapt4(q.ModifyQuota))
}

func (q *Quota) DescribeQuotas(ctx *gin.Context) (*entity.DescribeQuotasResponse, error) {
	logger := zerolog.Ctx(ctx)

	response, err := q.quotaService.DescribeQuotas(ctx, tenantID(ctx))
	if err != nil {
		logger.Error().
			Err(err).
			Msg("Failed to describe quotas")
		return nil, err
	}
	return response, nil
}

func (q *Quota) ModifyQuota(ctx *gin.Context, req *entity.ModifyQuotaRequest) error {
	logger := zerolog.Ctx(ctx)
	logger.Info().
		Str("resource", req.Resource).
		Int("hard_limit", req.HardLimit).
		Msg("ModifyQuota called")

	if err := q.quotaService.ModifyQuota(ctx, tenantID(ctx), req.Resource, req.HardLimit); err != nil {
		logger.Error().
			Err(err).
			Str("resource", req.Resource).
			Msg("Failed to modify quota")
		return err
	}
	return nil
}
