package refreshtoken

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trove-app/trove/testutils"
)

func TestStore_Create(t *testing.T) {
	db := testutils.SetupTestDB(t, &RefreshToken{})
	store := NewStore(db, nil)
	ctx := context.Background()

	t.Run("mints a family when none given", func(t *testing.T) {
		token, err := store.Create(ctx, "user-1", "", time.Hour)
		require.NoError(t, err)

		assert.NotEmpty(t, token.ID)
		assert.NotEmpty(t, token.TokenFamily)
		assert.Equal(t, "user-1", token.UserID)
		assert.False(t, token.IsRevoked)
		assert.True(t, token.ExpiresAt.After(time.Now()))
	})

	t.Run("keeps the family it is given", func(t *testing.T) {
		token, err := store.Create(ctx, "user-1", "family-abc", time.Hour)
		require.NoError(t, err)

		assert.Equal(t, "family-abc", token.TokenFamily)
	})

	t.Run("every token id is fresh", func(t *testing.T) {
		a, err := store.Create(ctx, "user-1", "family-abc", time.Hour)
		require.NoError(t, err)
		b, err := store.Create(ctx, "user-1", "family-abc", time.Hour)
		require.NoError(t, err)

		assert.NotEqual(t, a.ID, b.ID)
	})
}

func TestStore_Get(t *testing.T) {
	db := testutils.SetupTestDB(t, &RefreshToken{})
	store := NewStore(db, nil)
	ctx := context.Background()

	created, err := store.Create(ctx, "user-1", "", time.Hour)
	require.NoError(t, err)

	t.Run("found", func(t *testing.T) {
		token, err := store.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, token.ID)
		assert.Equal(t, created.TokenFamily, token.TokenFamily)
	})

	t.Run("missing", func(t *testing.T) {
		token, err := store.Get(ctx, "no-such-token")
		assert.Nil(t, token)
		assert.ErrorIs(t, err, ErrTokenNotFound)
	})
}

func TestStore_ConsumeAndReplace(t *testing.T) {
	db := testutils.SetupTestDB(t, &RefreshToken{})
	store := NewStore(db, nil)
	ctx := context.Background()

	created, err := store.Create(ctx, "user-1", "", time.Hour)
	require.NoError(t, err)

	successor, won, err := store.ConsumeAndReplace(ctx, created, time.Hour)
	require.NoError(t, err)
	assert.True(t, won, "first consume wins the flip")
	require.NotNil(t, successor)
	assert.Equal(t, created.TokenFamily, successor.TokenFamily)
	assert.Equal(t, created.UserID, successor.UserID)
	assert.NotEqual(t, created.ID, successor.ID)
	assert.False(t, successor.IsRevoked)

	again, won, err := store.ConsumeAndReplace(ctx, created, time.Hour)
	require.NoError(t, err)
	assert.False(t, won, "second consume must lose")
	assert.Nil(t, again, "the loser gets no successor")

	row, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, row.IsRevoked)

	// exactly one successor exists in the family
	var count int64
	require.NoError(t, db.Model(&RefreshToken{}).
		Where("token_family = ? AND is_revoked = ?", created.TokenFamily, false).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestStore_ConsumeAndReplace_UnknownToken(t *testing.T) {
	db := testutils.SetupTestDB(t, &RefreshToken{})
	store := NewStore(db, nil)

	ghost := &RefreshToken{ID: "no-such-token", UserID: "user-1", TokenFamily: "family-g"}
	successor, won, err := store.ConsumeAndReplace(context.Background(), ghost, time.Hour)
	require.NoError(t, err)
	assert.False(t, won)
	assert.Nil(t, successor)
}

func TestStore_RevokeFamily(t *testing.T) {
	db := testutils.SetupTestDB(t, &RefreshToken{})
	store := NewStore(db, nil)
	ctx := context.Background()

	a, err := store.Create(ctx, "user-1", "family-x", time.Hour)
	require.NoError(t, err)
	b, err := store.Create(ctx, "user-1", "family-x", time.Hour)
	require.NoError(t, err)
	other, err := store.Create(ctx, "user-2", "family-y", time.Hour)
	require.NoError(t, err)

	count, err := store.RevokeFamily(ctx, "family-x")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	for _, id := range []string{a.ID, b.ID} {
		row, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.True(t, row.IsRevoked)
	}

	row, err := store.Get(ctx, other.ID)
	require.NoError(t, err)
	assert.False(t, row.IsRevoked, "other families are untouched")

	t.Run("idempotent", func(t *testing.T) {
		count, err := store.RevokeFamily(ctx, "family-x")
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)

		row, err := store.Get(ctx, a.ID)
		require.NoError(t, err)
		assert.True(t, row.IsRevoked)
	})
}

func TestStore_PurgeDead(t *testing.T) {
	db := testutils.SetupTestDB(t, &RefreshToken{})
	store := NewStore(db, nil)
	ctx := context.Background()

	expired, err := store.Create(ctx, "user-1", "", -time.Hour)
	require.NoError(t, err)
	revoked, err := store.Create(ctx, "user-1", "family-r", time.Hour)
	require.NoError(t, err)
	_, err = store.RevokeFamily(ctx, "family-r")
	require.NoError(t, err)
	active, err := store.Create(ctx, "user-1", "", time.Hour)
	require.NoError(t, err)

	count, err := store.PurgeDead(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	_, err = store.Get(ctx, expired.ID)
	assert.ErrorIs(t, err, ErrTokenNotFound)
	_, err = store.Get(ctx, revoked.ID)
	assert.ErrorIs(t, err, ErrTokenNotFound)

	row, err := store.Get(ctx, active.ID)
	require.NoError(t, err)
	assert.False(t, row.IsRevoked)

	t.Run("nothing left to purge", func(t *testing.T) {
		count, err := store.PurgeDead(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
	})
}
