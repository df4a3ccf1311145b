package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jimyag/jrds/internal/jrds/entity"
	"github.com/jimyag/jrds/internal/jrds/repository"
	"github.com/jimyag/jrds/internal/jrds/repository/model"
	"github.com/jimyag/jrds/pkg/apierror"
	"github.com/jimyag/jrds/pkg/mq"
)

func TestGuestTopic(t *testing.T) {
	t.Parallel()

	// 只取主机名的第一个 DNS 标签
	assert.Equal(t, "guest.abc", GuestTopic("abc.def.com"))
	assert.Equal(t, "guest.abc", GuestTopic("abc"))
	assert.Equal(t, "guest.i-123", GuestTopic("i-123.guest.jrds"))
}

func TestGuestClientCast(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("returns once transport accepts", func(t *testing.T) {
		broker := mq.NewMockBroker()
		broker.On("Cast", mock.Anything, "guest.i-1", mock.Anything).Return(nil)

		client := NewGuestClient(broker, nil, time.Second)
		err := client.CreateDatabases(ctx, "i-1.guest.jrds", []entity.Database{{Name: "app"}})
		assert.NoError(t, err)
		broker.AssertExpectations(t)
	})

	t.Run("broker failure maps to transport error", func(t *testing.T) {
		broker := mq.NewMockBroker()
		broker.On("Cast", mock.Anything, "guest.i-1", mock.Anything).Return(assert.AnError)

		client := NewGuestClient(broker, nil, time.Second)
		err := client.Upgrade(ctx, "i-1.guest.jrds")
		assert.ErrorIs(t, err, apierror.ErrTransport)
	})

	t.Run("instance without hostname is not ready", func(t *testing.T) {
		client := NewGuestClient(mq.NewMockBroker(), nil, time.Second)
		err := client.DeleteUser(ctx, "", "alice")
		assert.ErrorIs(t, err, apierror.ErrInstanceNotReady)
	})
}

func TestGuestClientCall(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("timeout maps to guest unreachable", func(t *testing.T) {
		broker := mq.NewMockBroker()
		broker.On("Call", mock.Anything, "guest.i-1", mock.Anything, time.Second).
			Return(nil, mq.ErrTimeout)

		client := NewGuestClient(broker, nil, time.Second)
		_, err := client.ListUsers(ctx, "i-1.guest.jrds")
		assert.ErrorIs(t, err, apierror.ErrGuestUnreachable)
	})

	t.Run("failure reply maps to guest command failed", func(t *testing.T) {
		broker := mq.NewMockBroker()
		broker.On("Call", mock.Anything, "guest.i-1", mock.Anything, time.Second).
			Return([]byte(`{"result":null,"failure":"access denied for root"}`), nil)

		client := NewGuestClient(broker, nil, time.Second)
		_, err := client.EnableRoot(ctx, "i-1.guest.jrds")
		assert.ErrorIs(t, err, apierror.ErrGuestCommandFailed)
		assert.Contains(t, err.Error(), "access denied for root")
	})

	t.Run("decodes successful reply", func(t *testing.T) {
		broker := mq.NewMockBroker()
		broker.On("Call", mock.Anything, "guest.i-1", mock.Anything, time.Second).
			Return([]byte(`{"result":[{"name":"alice","databases":["app"]}],"failure":""}`), nil)

		client := NewGuestClient(broker, nil, time.Second)
		users, err := client.ListUsers(ctx, "i-1.guest.jrds")
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, "alice", users[0].Name)
	})
}

func TestGuestClientCheckStatus(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	newClient := func(t *testing.T, reply []byte) (GuestClient, repository.GuestStatusRepository) {
		t.Helper()
		repo := setupTestDB(t)
		statusRepo := repository.NewGuestStatusRepository(repo.DB())
		broker := mq.NewMockBroker()
		broker.On("Call", mock.Anything, "guest.i-1", mock.Anything, time.Second).
			Return(reply, nil)
		return NewGuestClient(broker, statusRepo, time.Second), statusRepo
	}

	t.Run("persists probed state", func(t *testing.T) {
		client, statusRepo := newClient(t, []byte(`{"result":"running","failure":""}`))

		state, err := client.CheckStatus(ctx, "i-1", "i-1.guest.jrds")
		require.NoError(t, err)
		assert.Equal(t, entity.GuestStateRunning, state)

		got, err := statusRepo.GetByInstanceID(ctx, "i-1")
		require.NoError(t, err)
		assert.Equal(t, "running", got.State)
	})

	t.Run("updates existing record", func(t *testing.T) {
		client, statusRepo := newClient(t, []byte(`{"result":4,"failure":""}`))
		require.NoError(t, statusRepo.Create(ctx, &model.GuestStatus{InstanceID: "i-1", State: "running"}))

		state, err := client.CheckStatus(ctx, "i-1", "i-1.guest.jrds")
		require.NoError(t, err)
		assert.Equal(t, entity.GuestStateFailed, state)

		got, err := statusRepo.GetByInstanceID(ctx, "i-1")
		require.NoError(t, err)
		assert.Equal(t, "failed", got.State)
	})

	t.Run("rejects state outside the enum", func(t *testing.T) {
		client, _ := newClient(t, []byte(`{"result":"half-dead","failure":""}`))

		_, err := client.CheckStatus(ctx, "i-1", "i-1.guest.jrds")
		assert.ErrorIs(t, err, apierror.ErrMalformedMessage)
	})
}
