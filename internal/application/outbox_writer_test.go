package application

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RodolfoDevApp/eventshop-pos-sync-go/internal/domain"
	"github.com/RodolfoDevApp/eventshop-pos-sync-go/internal/infrastructure/localstore"
)

func TestOutboxWriter_StoresEventUnderRoutingKey(t *testing.T) {
	repo := localstore.NewOutboxRepository(localstore.NewMemoryMedium())
	w := NewOutboxWriter(repo, NoRetry, time.Second)

	ev := domain.NewSyncNotificationEvent("till-1", domain.Notification{Kind: domain.NotifySuccess, Title: "Sales synced"})
	require.NoError(t, w.Enqueue(context.Background(), ev))

	msgs, err := repo.GetPendingBatch(context.Background(), 5, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "PosSyncNotification", msgs[0].Type)
	assert.Zero(t, msgs[0].RetryCount)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(msgs[0].PayloadJSON), &body))
	assert.Equal(t, "till-1", body["deviceId"])
	assert.Equal(t, "Sales synced", body["title"])
}

func TestOutboxWriter_RetriesStorage(t *testing.T) {
	medium := &flakyMedium{QueueMedium: localstore.NewMemoryMedium(), failures: 1}
	w := NewOutboxWriter(localstore.NewOutboxRepository(medium), Backoff{Base: time.Millisecond, Attempts: 3}, time.Second)

	ev := domain.NewSyncNotificationEvent("till-1", domain.Notification{Kind: domain.NotifyError, Title: "x"})
	require.NoError(t, w.Enqueue(context.Background(), ev))
	assert.Equal(t, 2, medium.calls)
}
