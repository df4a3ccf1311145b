package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jimyag/jrds/internal/jrds/repository"
	"github.com/jimyag/jrds/internal/jrds/repository/model"
	"github.com/jimyag/jrds/pkg/mq"
)

type reconcilerFixture struct {
	reconciler      *Reconciler
	instanceRepo    repository.InstanceRepository
	guestStatusRepo repository.GuestStatusRepository
	snapshotRepo    repository.SnapshotRepository
}

func newReconcilerFixture(t *testing.T) *reconcilerFixture {
	t.Helper()
	repo := setupTestDB(t)
	instanceRepo := repository.NewInstanceRepository(repo.DB())
	guestStatusRepo := repository.NewGuestStatusRepository(repo.DB())
	snapshotRepo := repository.NewSnapshotRepository(repo.DB())

	reconciler, err := NewReconciler(mq.NewMockBroker(), "phonehome", instanceRepo, guestStatusRepo, snapshotRepo)
	require.NoError(t, err)

	return &reconcilerFixture{
		reconciler:      reconciler,
		instanceRepo:    instanceRepo,
		guestStatusRepo: guestStatusRepo,
		snapshotRepo:    snapshotRepo,
	}
}

func (f *reconcilerFixture) seedInstance(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.instanceRepo.Create(ctx, &model.Instance{
		ID: "i-1", Name: "db", Status: "building",
		TenantID: "t1", UserID: "u1", FlavorID: "f1",
		RemoteHostname: "i-1.guest.jrds",
	}))
	require.NoError(t, f.guestStatusRepo.Create(ctx, &model.GuestStatus{
		InstanceID: "i-1", State: "building",
	}))
}

func (f *reconcilerFixture) seedSnapshot(t *testing.T) {
	t.Helper()
	require.NoError(t, f.snapshotRepo.Create(context.Background(), &model.Snapshot{
		ID: "snap-1", InstanceID: "i-1", Name: "nightly", State: "building",
		TenantID: "t1", UserID: "u1",
	}))
}

func TestReconcilerInstanceState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("applies canonical state name", func(t *testing.T) {
		f := newReconcilerFixture(t)
		f.seedInstance(t)

		f.reconciler.Handle(ctx, []byte(`{"method":"update_instance_state","args":{"hostname":"i-1.guest.jrds","state":"running"}}`))

		status, err := f.guestStatusRepo.GetByInstanceID(ctx, "i-1")
		require.NoError(t, err)
		assert.Equal(t, "running", status.State)

		instance, err := f.instanceRepo.GetByID(ctx, "i-1")
		require.NoError(t, err)
		assert.Equal(t, "running", instance.Status)
	})

	t.Run("applies legacy integer code", func(t *testing.T) {
		f := newReconcilerFixture(t)
		f.seedInstance(t)

		f.reconciler.Handle(ctx, []byte(`{"method":"update_instance_state","args":{"hostname":"i-1.guest.jrds","state":3}}`))

		status, err := f.guestStatusRepo.GetByInstanceID(ctx, "i-1")
		require.NoError(t, err)
		assert.Equal(t, "stop", status.State)

		instance, err := f.instanceRepo.GetByID(ctx, "i-1")
		require.NoError(t, err)
		assert.Equal(t, "stopped", instance.Status)
	})

	t.Run("replaying the same message is idempotent", func(t *testing.T) {
		f := newReconcilerFixture(t)
		f.seedInstance(t)
		body := []byte(`{"method":"update_instance_state","args":{"hostname":"i-1.guest.jrds","state":"running"}}`)

		f.reconciler.Handle(ctx, body)
		f.reconciler.Handle(ctx, body)

		status, err := f.guestStatusRepo.GetByInstanceID(ctx, "i-1")
		require.NoError(t, err)
		assert.Equal(t, "running", status.State)
	})

	t.Run("out of order messages apply last write wins", func(t *testing.T) {
		f := newReconcilerFixture(t)
		f.seedInstance(t)

		f.reconciler.Handle(ctx, []byte(`{"method":"update_instance_state","args":{"hostname":"i-1.guest.jrds","state":"running"}}`))
		f.reconciler.Handle(ctx, []byte(`{"method":"update_instance_state","args":{"hostname":"i-1.guest.jrds","state":"stop"}}`))

		status, err := f.guestStatusRepo.GetByInstanceID(ctx, "i-1")
		require.NoError(t, err)
		assert.Equal(t, "stop", status.State)
	})

	t.Run("state outside the enum is dropped", func(t *testing.T) {
		f := newReconcilerFixture(t)
		f.seedInstance(t)

		f.reconciler.Handle(ctx, []byte(`{"method":"update_instance_state","args":{"hostname":"i-1.guest.jrds","state":"half-dead"}}`))
		f.reconciler.Handle(ctx, []byte(`{"method":"update_instance_state","args":{"hostname":"i-1.guest.jrds","state":99}}`))

		status, err := f.guestStatusRepo.GetByInstanceID(ctx, "i-1")
		require.NoError(t, err)
		assert.Equal(t, "building", status.State)
	})

	t.Run("unknown instance does not stop the listener", func(t *testing.T) {
		f := newReconcilerFixture(t)

		f.reconciler.Handle(ctx, []byte(`{"method":"update_instance_state","args":{"hostname":"ghost.guest.jrds","state":"running"}}`))
	})
}

func TestReconcilerSnapshotState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("applies completion callback", func(t *testing.T) {
		f := newReconcilerFixture(t)
		f.seedSnapshot(t)

		f.reconciler.Handle(ctx, []byte(`{"method":"update_snapshot_state","args":{"sid":"snap-1","state":"success","storage_uri":"swift://b/snap-1","storage_size":"2048"}}`))

		snapshot, err := f.snapshotRepo.GetByID(ctx, "snap-1")
		require.NoError(t, err)
		assert.Equal(t, "success", snapshot.State)
		assert.Equal(t, "swift://b/snap-1", snapshot.StorageURI)
		assert.Equal(t, "2048", snapshot.StorageSize)
	})

	t.Run("zero storage size is legal", func(t *testing.T) {
		f := newReconcilerFixture(t)
		f.seedSnapshot(t)

		f.reconciler.Handle(ctx, []byte(`{"method":"update_snapshot_state","args":{"sid":"snap-1","state":"failed","storage_uri":"","storage_size":"0"}}`))

		snapshot, err := f.snapshotRepo.GetByID(ctx, "snap-1")
		require.NoError(t, err)
		assert.Equal(t, "failed", snapshot.State)
		assert.Equal(t, "0", snapshot.StorageSize)
	})

	t.Run("empty storage size is rejected", func(t *testing.T) {
		f := newReconcilerFixture(t)
		f.seedSnapshot(t)

		f.reconciler.Handle(ctx, []byte(`{"method":"update_snapshot_state","args":{"sid":"snap-1","state":"success","storage_uri":"swift://b/snap-1","storage_size":""}}`))

		snapshot, err := f.snapshotRepo.GetByID(ctx, "snap-1")
		require.NoError(t, err)
		assert.Equal(t, "building", snapshot.State)
	})

	t.Run("empty state is rejected", func(t *testing.T) {
		f := newReconcilerFixture(t)
		f.seedSnapshot(t)

		f.reconciler.Handle(ctx, []byte(`{"method":"update_snapshot_state","args":{"sid":"snap-1","state":"","storage_size":"10"}}`))

		snapshot, err := f.snapshotRepo.GetByID(ctx, "snap-1")
		require.NoError(t, err)
		assert.Equal(t, "building", snapshot.State)
	})

	t.Run("missing storage uri is rejected", func(t *testing.T) {
		f := newReconcilerFixture(t)
		f.seedSnapshot(t)

		f.reconciler.Handle(ctx, []byte(`{"method":"update_snapshot_state","args":{"sid":"snap-1","state":"failed","storage_size":"0"}}`))

		snapshot, err := f.snapshotRepo.GetByID(ctx, "snap-1")
		require.NoError(t, err)
		assert.Equal(t, "building", snapshot.State)
	})

	t.Run("partial replay does not erase the stored uri", func(t *testing.T) {
		f := newReconcilerFixture(t)
		f.seedSnapshot(t)

		f.reconciler.Handle(ctx, []byte(`{"method":"update_snapshot_state","args":{"sid":"snap-1","state":"success","storage_uri":"swift://b/snap-1","storage_size":"2048"}}`))
		f.reconciler.Handle(ctx, []byte(`{"method":"update_snapshot_state","args":{"sid":"snap-1","state":"failed","storage_size":"0"}}`))

		snapshot, err := f.snapshotRepo.GetByID(ctx, "snap-1")
		require.NoError(t, err)
		assert.Equal(t, "success", snapshot.State)
		assert.Equal(t, "swift://b/snap-1", snapshot.StorageURI)
	})

	t.Run("unknown snapshot does not stop the listener", func(t *testing.T) {
		f := newReconcilerFixture(t)

		f.reconciler.Handle(ctx, []byte(`{"method":"update_snapshot_state","args":{"sid":"snap-ghost","state":"success","storage_uri":"swift://b/snap-ghost","storage_size":"1"}}`))
	})
}

func TestReconcilerNeverCrashes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newReconcilerFixture(t)
	f.seedInstance(t)

	bodies := [][]byte{
		[]byte(`not json at all`),
		[]byte(`{}`),
		[]byte(`{"method":""}`),
		[]byte(`{"method":"update_instance_state"}`),
		[]byte(`{"method":"update_instance_state","args":{}}`),
		[]byte(`{"method":"update_instance_state","args":{"hostname":"","state":"running"}}`),
		[]byte(`{"method":"update_instance_state","args":{"hostname":123,"state":true}}`),
		[]byte(`{"method":"update_snapshot_state","args":{"sid":"snap-1","state":["x"],"storage_size":{}}}`),
		[]byte(`{"method":"totally_new_method","args":{"anything":"goes"}}`),
		nil,
	}
	for i, body := range bodies {
		t.Run(fmt.Sprintf("message_%d", i), func(t *testing.T) {
			assert.NotPanics(t, func() {
				f.reconciler.Handle(ctx, body)
			})
		})
	}

	// 坏消息不会污染已有状态
	status, err := f.guestStatusRepo.GetByInstanceID(ctx, "i-1")
	require.NoError(t, err)
	assert.Equal(t, "building", status.State)
}

func TestReconcilerLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("shutdown before run is safe", func(t *testing.T) {
		f := newReconcilerFixture(t)
		assert.NoError(t, f.reconciler.Shutdown(ctx))
	})

	t.Run("shutdown stops a running listener", func(t *testing.T) {
		f := newReconcilerFixture(t)
		broker := f.reconciler.broker.(*mq.MockBroker)
		broker.On("Subscribe", mock.Anything, "phonehome", mock.Anything).
			Run(func(args mock.Arguments) {
				<-args.Get(0).(context.Context).Done()
			}).
			Return(context.Canceled)

		done := make(chan error, 1)
		go func() {
			done <- f.reconciler.Run(ctx)
		}()

		// 等消费循环启动后再停
		require.Eventually(t, func() bool {
			f.reconciler.mu.Lock()
			defer f.reconciler.mu.Unlock()
			return f.reconciler.cancel != nil
		}, time.Second, 10*time.Millisecond)

		require.NoError(t, f.reconciler.Shutdown(ctx))
		assert.NoError(t, <-done)
	})
}
