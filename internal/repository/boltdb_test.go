package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antagonist-oracle/oracle-bot/internal/domain"
)

func testProfile(id int64) *domain.Profile {
	return &domain.Profile{
		TelegramID: id,
		FirstName:  "Ada",
		Username:   "ada",
		BirthYear:  1991,
		BirthMonth: 4,
		BirthDay:   12,
		Location:   "Lisbon",
		Onboarded:  true,
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
	}
}

func TestBoltStore_SaveAndGet(t *testing.T) {
	store, err := NewTempBoltStore()
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	want := testProfile(100)
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Get(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestBoltStore_GetMissing(t *testing.T) {
	store, err := NewTempBoltStore()
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Get(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBoltStore_SaveOverwrites(t *testing.T) {
	store, err := NewTempBoltStore()
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	profile := testProfile(7)
	require.NoError(t, store.Save(ctx, profile))

	profile.Location = "Porto"
	require.NoError(t, store.Save(ctx, profile))

	got, err := store.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Porto", got.Location)
}

func TestBoltStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewBoltStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, testProfile(55)))
	require.NoError(t, store.Close())

	reopened, err := NewBoltStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, 55)
	require.NoError(t, err)
	assert.Equal(t, int64(55), got.TelegramID)
	assert.True(t, got.Onboarded)
}

func TestBoltStore_ListOnboarded(t *testing.T) {
	store, err := NewTempBoltStore()
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	onboarded := testProfile(1)
	require.NoError(t, store.Save(ctx, onboarded))

	pending := testProfile(2)
	pending.Onboarded = false
	require.NoError(t, store.Save(ctx, pending))

	got, err := store.ListOnboarded(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].TelegramID)
}
