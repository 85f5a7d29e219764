package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSummaryRoundtrip(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	rec := &Summary{
		ID:           "s1",
		RoomID:       "r1",
		Participants: []string{"alice", "bob"},
		Transcript:   "hello",
		Summary:      "- hi",
		AudioURL:     "/uploads/audio-1.webm",
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, m.CreateSummary(ctx, rec))

	got, err := m.GetSummary(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	// The store holds its own copy.
	got.Participants[0] = "tampered"
	again, err := m.GetSummary(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "alice", again.Participants[0])
}

func TestMemoryStoreGetSummaryMissing(t *testing.T) {
	m := NewMemoryStore()
	_, err := m.GetSummary(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreListNewestFirst(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	base := time.Now().UTC()

	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, m.CreateSummary(ctx, &Summary{
			ID:           id,
			Participants: []string{"alice"},
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, m.CreateSummary(ctx, &Summary{
		ID:           "other",
		Participants: []string{"bob"},
		CreatedAt:    base,
	}))

	got, err := m.ListSummariesByParticipant(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "new", got[0].ID)
	assert.Equal(t, "mid", got[1].ID)
	assert.Equal(t, "old", got[2].ID)
}

func TestMemoryStoreDeleteSummary(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, m.CreateSummary(ctx, &Summary{ID: "s1"}))
	require.NoError(t, m.DeleteSummary(ctx, "s1"))
	assert.ErrorIs(t, m.DeleteSummary(ctx, "s1"), ErrNotFound)
}

func TestMemoryStoreUserUniqueEmail(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, m.CreateUser(ctx, &User{ID: "u1", Email: "a@example.com"}))
	assert.ErrorIs(t, m.CreateUser(ctx, &User{ID: "u2", Email: "A@Example.com"}), ErrEmailTaken)

	got, err := m.GetUserByEmail(ctx, "A@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)

	_, err = m.GetUser(ctx, "u2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSummaryHasParticipant(t *testing.T) {
	s := &Summary{Participants: []string{"alice", "bob"}}
	assert.True(t, s.HasParticipant("bob"))
	assert.False(t, s.HasParticipant("mallory"))
}
