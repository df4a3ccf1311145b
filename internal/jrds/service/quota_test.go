package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jimyag/jrds/internal/jrds/repository"
	"github.com/jimyag/jrds/internal/jrds/repository/model"
	"github.com/jimyag/jrds/pkg/apierror"
)

func newQuotaController(t *testing.T, defaultInstances, defaultSnapshots int) (*QuotaController, repository.QuotaRepository, *repository.Repository) {
	t.Helper()
	repo := setupTestDB(t)
	quotaRepo := repository.NewQuotaRepository(repo.DB())
	controller := NewQuotaController(
		quotaRepo,
		repository.NewInstanceRepository(repo.DB()),
		repository.NewSnapshotRepository(repo.DB()),
		defaultInstances,
		defaultSnapshots,
	)
	return controller, quotaRepo, repo
}

func TestQuotaAllowed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("grants the remaining headroom", func(t *testing.T) {
		controller, quotaRepo, _ := newQuotaController(t, 5, 10)
		require.NoError(t, quotaRepo.Upsert(ctx, &model.Quota{
			TenantID: "t1", Resource: model.ResourceInstances, HardLimit: 3,
		}))

		// limit=3, usage=1, requested=5 -> 2
		allowed, err := controller.Allowed(ctx, "t1", model.ResourceInstances, 5, 1)
		require.NoError(t, err)
		assert.Equal(t, 2, allowed)
	})

	t.Run("exhausted quota grants zero", func(t *testing.T) {
		controller, quotaRepo, _ := newQuotaController(t, 5, 10)
		require.NoError(t, quotaRepo.Upsert(ctx, &model.Quota{
			TenantID: "t1", Resource: model.ResourceInstances, HardLimit: 3,
		}))

		allowed, err := controller.Allowed(ctx, "t1", model.ResourceInstances, 1, 3)
		require.NoError(t, err)
		assert.Equal(t, 0, allowed)
	})

	t.Run("usage above limit never goes negative", func(t *testing.T) {
		controller, quotaRepo, _ := newQuotaController(t, 5, 10)
		require.NoError(t, quotaRepo.Upsert(ctx, &model.Quota{
			TenantID: "t1", Resource: model.ResourceInstances, HardLimit: 3,
		}))

		allowed, err := controller.Allowed(ctx, "t1", model.ResourceInstances, 2, 7)
		require.NoError(t, err)
		assert.Equal(t, 0, allowed)
	})

	t.Run("falls back to default limit", func(t *testing.T) {
		controller, _, _ := newQuotaController(t, 0, 10)

		// 没有配额记录，默认上限 0
		allowed, err := controller.Allowed(ctx, "t2", model.ResourceInstances, 1, 0)
		require.NoError(t, err)
		assert.Equal(t, 0, allowed)
	})

	t.Run("unlimited sentinel grants everything", func(t *testing.T) {
		controller, quotaRepo, _ := newQuotaController(t, 5, 10)
		require.NoError(t, quotaRepo.Upsert(ctx, &model.Quota{
			TenantID: "t1", Resource: model.ResourceSnapshots, HardLimit: -1,
		}))

		allowed, err := controller.Allowed(ctx, "t1", model.ResourceSnapshots, 100, 9999)
		require.NoError(t, err)
		assert.Equal(t, 100, allowed)
	})

	t.Run("never grants more than requested", func(t *testing.T) {
		controller, quotaRepo, _ := newQuotaController(t, 5, 10)
		require.NoError(t, quotaRepo.Upsert(ctx, &model.Quota{
			TenantID: "t1", Resource: model.ResourceInstances, HardLimit: 100,
		}))

		allowed, err := controller.Allowed(ctx, "t1", model.ResourceInstances, 2, 0)
		require.NoError(t, err)
		assert.Equal(t, 2, allowed)
	})

	t.Run("negative request is invalid", func(t *testing.T) {
		controller, _, _ := newQuotaController(t, 5, 10)

		_, err := controller.Allowed(ctx, "t1", model.ResourceInstances, -1, 0)
		assert.ErrorIs(t, err, apierror.ErrInvalidParameter)
	})

	t.Run("unknown resource is invalid", func(t *testing.T) {
		controller, _, _ := newQuotaController(t, 5, 10)

		_, err := controller.Allowed(ctx, "t1", "volumes", 1, 0)
		assert.ErrorIs(t, err, apierror.ErrInvalidParameter)
	})
}

func TestDescribeQuotas(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	controller, quotaRepo, repo := newQuotaController(t, 5, 10)
	require.NoError(t, quotaRepo.Upsert(ctx, &model.Quota{
		TenantID: "t1", Resource: model.ResourceInstances, HardLimit: 3,
	}))
	instanceRepo := repository.NewInstanceRepository(repo.DB())
	require.NoError(t, instanceRepo.Create(ctx, &model.Instance{
		ID: "i-1", Name: "a", Status: "running", TenantID: "t1", UserID: "u1", FlavorID: "f1",
	}))

	response, err := controller.DescribeQuotas(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", response.TenantID)
	require.Len(t, response.Quotas, 2)

	byResource := map[string]int{}
	usage := map[string]int{}
	for _, q := range response.Quotas {
		byResource[q.Resource] = q.HardLimit
		usage[q.Resource] = q.InUse
	}
	assert.Equal(t, 3, byResource[model.ResourceInstances])
	assert.Equal(t, 1, usage[model.ResourceInstances])
	// 快照没有专属记录，回退默认值
	assert.Equal(t, 10, byResource[model.ResourceSnapshots])
	assert.Equal(t, 0, usage[model.ResourceSnapshots])
}

func TestModifyQuota(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	controller, quotaRepo, _ := newQuotaController(t, 5, 10)

	t.Run("sets a tenant specific limit", func(t *testing.T) {
		require.NoError(t, controller.ModifyQuota(ctx, "t1", model.ResourceInstances, 7))

		got, err := quotaRepo.Get(ctx, "t1", model.ResourceInstances)
		require.NoError(t, err)
		assert.Equal(t, 7, got.HardLimit)
	})

	t.Run("rejects unknown resource", func(t *testing.T) {
		err := controller.ModifyQuota(ctx, "t1", "volumes", 7)
		assert.ErrorIs(t, err, apierror.ErrInvalidParameter)
	})

	t.Run("rejects limit below the sentinel", func(t *testing.T) {
		err := controller.ModifyQuota(ctx, "t1", model.ResourceInstances, -2)
		assert.ErrorIs(t, err, apierror.ErrInvalidParameter)
	})
}
