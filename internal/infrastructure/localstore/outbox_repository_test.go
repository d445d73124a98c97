package localstore

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RodolfoDevApp/eventshop-pos-sync-go/internal/domain"
)

func TestOutboxRepository_InsertFillsDefaults(t *testing.T) {
	repo := NewOutboxRepository(NewMemoryMedium())
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, domain.OutboxMessage{Type: "PosSyncNotification", PayloadJSON: `{}`}))

	got, err := repo.GetPendingBatch(ctx, 5, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.NotEqual(t, uuid.Nil, got[0].ID)
	assert.NotZero(t, got[0].OccurredAtUtc)
}

func TestOutboxRepository_SaveKeepsPlaceAndSkipsExhausted(t *testing.T) {
	repo := NewOutboxRepository(NewMemoryMedium())
	ctx := context.Background()
	first := domain.OutboxMessage{ID: uuid.New(), Type: "A", PayloadJSON: `{}`, OccurredAtUtc: 1}
	second := domain.OutboxMessage{ID: uuid.New(), Type: "B", PayloadJSON: `{}`, OccurredAtUtc: 2}
	require.NoError(t, repo.Insert(ctx, first))
	require.NoError(t, repo.Insert(ctx, second))

	first.RetryCount = 1
	require.NoError(t, repo.Save(ctx, first))

	got, err := repo.GetPendingBatch(ctx, 5, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, first.ID, got[0].ID)
	assert.Equal(t, 1, got[0].RetryCount)

	got, err = repo.GetPendingBatch(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, second.ID, got[0].ID)

	require.NoError(t, repo.Delete(ctx, second.ID))
	got, err = repo.GetPendingBatch(ctx, 5, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestOutboxRepository_DropsUnreadableEntries(t *testing.T) {
	medium := NewMemoryMedium()
	ctx := context.Background()
	require.NoError(t, medium.Add(ctx, outboxCollection, domain.StoredRecord{ID: "junk", Data: json.RawMessage(`"nope"`)}))
	repo := NewOutboxRepository(medium)

	got, err := repo.GetPendingBatch(ctx, 5, 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	left, err := medium.ListAll(ctx, outboxCollection)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestOutboxRepository_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pos.db")
	ctx := context.Background()

	m, err := OpenSqliteMedium(ctx, path)
	require.NoError(t, err)
	require.NoError(t, NewOutboxRepository(m).Insert(ctx, domain.OutboxMessage{Type: "PosSyncNotification", PayloadJSON: `{"title":"x"}`}))
	require.NoError(t, m.Close())

	reopened, err := OpenSqliteMedium(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := NewOutboxRepository(reopened).GetPendingBatch(ctx, 5, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "PosSyncNotification", got[0].Type)
	assert.JSONEq(t, `{"title":"x"}`, got[0].PayloadJSON)
}
