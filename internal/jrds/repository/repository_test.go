package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/jimyag/jrds/internal/jrds/repository/model"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()
	tmpDir := t.TempDir()
	// 使用简单的数据库文件名
	dbPath := filepath.Join(tmpDir, "test.db")

	repo, err := New(dbPath)
	require.NoError(t, err)

	// 使用 t.Cleanup 确保在测试真正结束时清理，支持并发测试
	t.Cleanup(func() {
		_ = repo.Close()
		_ = os.RemoveAll(tmpDir)
	})

	return repo
}

func TestInstanceRepository(t *testing.T) {
	t.Parallel()

	repo := setupTestDB(t)

	instanceRepo := NewInstanceRepository(repo.DB())
	ctx := context.Background()

	t.Run("Create and GetByID", func(t *testing.T) {
		instance := &model.Instance{
			ID:             "i-123456",
			Name:           "test-instance",
			Status:         "building",
			TenantID:       "tenant-1",
			UserID:         "user-1",
			RemoteHostname: "i-123456.guest.jrds",
			FlavorID:       "flavor-1",
			Port:           3306,
		}

		err := instanceRepo.Create(ctx, instance)
		assert.NoError(t, err)

		got, err := instanceRepo.GetByID(ctx, "i-123456")
		assert.NoError(t, err)
		assert.Equal(t, instance.Name, got.Name)
		assert.Equal(t, instance.Status, got.Status)
		assert.Equal(t, instance.RemoteHostname, got.RemoteHostname)
	})

	t.Run("GetByHostname", func(t *testing.T) {
		got, err := instanceRepo.GetByHostname(ctx, "i-123456.guest.jrds")
		assert.NoError(t, err)
		assert.Equal(t, "i-123456", got.ID)

		_, err = instanceRepo.GetByHostname(ctx, "no-such-host")
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("UpdateFields", func(t *testing.T) {
		err := instanceRepo.UpdateFields(ctx, "i-123456", map[string]any{
			"status": "running",
		})
		assert.NoError(t, err)

		got, err := instanceRepo.GetByID(ctx, "i-123456")
		require.NoError(t, err)
		assert.Equal(t, "running", got.Status)

		err = instanceRepo.UpdateFields(ctx, "i-missing", map[string]any{"status": "running"})
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("CountActiveByTenant excludes soft deleted", func(t *testing.T) {
		second := &model.Instance{
			ID:       "i-234567",
			Name:     "second",
			Status:   "building",
			TenantID: "tenant-1",
			UserID:   "user-1",
			FlavorID: "flavor-1",
		}
		require.NoError(t, instanceRepo.Create(ctx, second))

		count, err := instanceRepo.CountActiveByTenant(ctx, "tenant-1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)

		require.NoError(t, instanceRepo.Delete(ctx, "i-234567"))

		count, err = instanceRepo.CountActiveByTenant(ctx, "tenant-1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		// 软删除之后按 ID 也查不到
		_, err = instanceRepo.GetByID(ctx, "i-234567")
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("Delete missing instance", func(t *testing.T) {
		err := instanceRepo.Delete(ctx, "i-missing")
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestGuestStatusRepository(t *testing.T) {
	t.Parallel()

	repo := setupTestDB(t)

	statusRepo := NewGuestStatusRepository(repo.DB())
	ctx := context.Background()

	t.Run("Create and UpdateState", func(t *testing.T) {
		status := &model.GuestStatus{InstanceID: "i-1", State: "building"}
		require.NoError(t, statusRepo.Create(ctx, status))

		require.NoError(t, statusRepo.UpdateState(ctx, "i-1", "running"))

		got, err := statusRepo.GetByInstanceID(ctx, "i-1")
		require.NoError(t, err)
		assert.Equal(t, "running", got.State)
	})

	t.Run("UpdateState is idempotent", func(t *testing.T) {
		require.NoError(t, statusRepo.UpdateState(ctx, "i-1", "running"))
		require.NoError(t, statusRepo.UpdateState(ctx, "i-1", "running"))

		got, err := statusRepo.GetByInstanceID(ctx, "i-1")
		require.NoError(t, err)
		assert.Equal(t, "running", got.State)
	})

	t.Run("UpdateState missing instance", func(t *testing.T) {
		err := statusRepo.UpdateState(ctx, "i-missing", "running")
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("only one active row per instance", func(t *testing.T) {
		dup := &model.GuestStatus{InstanceID: "i-1", State: "failed"}
		err := statusRepo.Create(ctx, dup)
		assert.Error(t, err)
	})

	t.Run("Delete releases the unique slot", func(t *testing.T) {
		require.NoError(t, statusRepo.Delete(ctx, "i-1"))

		_, err := statusRepo.GetByInstanceID(ctx, "i-1")
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

		// 软删除的行不再占用唯一索引
		fresh := &model.GuestStatus{InstanceID: "i-1", State: "building"}
		assert.NoError(t, statusRepo.Create(ctx, fresh))
	})
}

func TestSnapshotRepository(t *testing.T) {
	t.Parallel()

	repo := setupTestDB(t)

	snapshotRepo := NewSnapshotRepository(repo.DB())
	ctx := context.Background()

	t.Run("Create and UpdateState", func(t *testing.T) {
		snapshot := &model.Snapshot{
			ID:         "snap-1",
			InstanceID: "i-1",
			Name:       "nightly",
			State:      "building",
			TenantID:   "tenant-1",
			UserID:     "user-1",
		}
		require.NoError(t, snapshotRepo.Create(ctx, snapshot))

		err := snapshotRepo.UpdateState(ctx, "snap-1", "success", "swift://bucket/snap-1", "1024")
		require.NoError(t, err)

		got, err := snapshotRepo.GetByID(ctx, "snap-1")
		require.NoError(t, err)
		assert.Equal(t, "success", got.State)
		assert.Equal(t, "swift://bucket/snap-1", got.StorageURI)
		assert.Equal(t, "1024", got.StorageSize)
	})

	t.Run("UpdateState missing snapshot", func(t *testing.T) {
		err := snapshotRepo.UpdateState(ctx, "snap-missing", "success", "", "0")
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("ListByInstance", func(t *testing.T) {
		second := &model.Snapshot{
			ID:         "snap-2",
			InstanceID: "i-1",
			Name:       "weekly",
			State:      "building",
			TenantID:   "tenant-1",
			UserID:     "user-1",
		}
		require.NoError(t, snapshotRepo.Create(ctx, second))

		snapshots, err := snapshotRepo.ListByInstance(ctx, "i-1")
		require.NoError(t, err)
		assert.Len(t, snapshots, 2)
	})

	t.Run("CountActiveByTenant excludes soft deleted", func(t *testing.T) {
		count, err := snapshotRepo.CountActiveByTenant(ctx, "tenant-1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)

		require.NoError(t, snapshotRepo.Delete(ctx, "snap-2"))

		count, err = snapshotRepo.CountActiveByTenant(ctx, "tenant-1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
}

func TestQuotaRepository(t *testing.T) {
	t.Parallel()

	repo := setupTestDB(t)

	quotaRepo := NewQuotaRepository(repo.DB())
	ctx := context.Background()

	t.Run("Get missing quota", func(t *testing.T) {
		_, err := quotaRepo.Get(ctx, "tenant-1", model.ResourceInstances)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("Upsert creates then updates", func(t *testing.T) {
		quota := &model.Quota{TenantID: "tenant-1", Resource: model.ResourceInstances, HardLimit: 3}
		require.NoError(t, quotaRepo.Upsert(ctx, quota))

		got, err := quotaRepo.Get(ctx, "tenant-1", model.ResourceInstances)
		require.NoError(t, err)
		assert.Equal(t, 3, got.HardLimit)

		// 更新同一条记录而不是新增
		update := &model.Quota{TenantID: "tenant-1", Resource: model.ResourceInstances, HardLimit: -1}
		require.NoError(t, quotaRepo.Upsert(ctx, update))

		got, err = quotaRepo.Get(ctx, "tenant-1", model.ResourceInstances)
		require.NoError(t, err)
		assert.Equal(t, -1, got.HardLimit)

		quotas, err := quotaRepo.ListByTenant(ctx, "tenant-1")
		require.NoError(t, err)
		assert.Len(t, quotas, 1)
	})
}

func TestTransaction(t *testing.T) {
	t.Parallel()

	repo := setupTestDB(t)
	ctx := context.Background()

	t.Run("rollback on error", func(t *testing.T) {
		err := repo.Transaction(ctx, func(tx *gorm.DB) error {
			txRepo := NewInstanceRepository(tx)
			if err := txRepo.Create(ctx, &model.Instance{
				ID: "i-rollback", Name: "x", Status: "building",
				TenantID: "tenant-1", UserID: "user-1", FlavorID: "flavor-1",
			}); err != nil {
				return err
			}
			return assert.AnError
		})
		assert.ErrorIs(t, err, assert.AnError)

		_, err = NewInstanceRepository(repo.DB()).GetByID(ctx, "i-rollback")
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}
