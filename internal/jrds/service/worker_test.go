package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jimyag/jrds/pkg/apierror"
	"github.com/jimyag/jrds/pkg/mq"
)

func TestWorkerClient(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("casts the job to the work topic", func(t *testing.T) {
		broker := mq.NewMockBroker()
		var payload map[string]any
		broker.On("Cast", mock.Anything, "work", mock.MatchedBy(func(p any) bool {
			raw, err := json.Marshal(p)
			if err != nil {
				return false
			}
			return json.Unmarshal(raw, &payload) == nil
		})).Return(nil)

		worker := NewWorkerClient(broker, "work")
		err := worker.EnsureInstanceCreated(ctx, InstanceJob{
			InstanceID:     "i-1",
			RemoteUUID:     "abc",
			RemoteHostname: "i-1.guest.jrds",
			AgentConfig:    []byte("amqp_uri: amqp://localhost\n"),
		})
		require.NoError(t, err)

		job, ok := payload["create-instance"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "i-1", job["uuid"])
		assert.Equal(t, "abc", job["remoteUuid"])
		assert.Equal(t, "i-1.guest.jrds", job["remoteHostName"])

		// agent 配置 base64 编码后投递
		decoded, err := base64.StdEncoding.DecodeString(job["agentConfig"].(string))
		require.NoError(t, err)
		assert.Contains(t, string(decoded), "amqp_uri")
	})

	t.Run("broker failure maps to transport error", func(t *testing.T) {
		broker := mq.NewMockBroker()
		broker.On("Cast", mock.Anything, "work", mock.Anything).Return(assert.AnError)

		worker := NewWorkerClient(broker, "work")
		err := worker.EnsureInstanceCreated(ctx, InstanceJob{InstanceID: "i-1"})
		assert.ErrorIs(t, err, apierror.ErrTransport)
	})
}
