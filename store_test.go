package auth_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	auth "github.com/hbiu/lms-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser() *auth.User {
	return &auth.User{
		ID:        uuid.MustParse("5e5d2c2e-0001-4b60-9c6d-1f2a3b4c5d6e"),
		Role:      auth.RoleStudent,
		FirstName: "Sarah",
		LastName:  "Mitchell",
		Email:     "student@hbiu.edu",
		Phone:     "+12025550101",
	}
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := auth.NewMemoryStore()

	user := testUser()
	require.NoError(t, store.Save(ctx, "real-token-abc", user))

	token, loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "real-token-abc", token)
	require.NotNil(t, loaded)
	assert.Equal(t, user.ID, loaded.ID)
	assert.Equal(t, user.Role, loaded.Role)
	assert.Equal(t, user.FirstName, loaded.FirstName)
	assert.Equal(t, user.LastName, loaded.LastName)
	assert.Equal(t, user.Email, loaded.Email)
	assert.Equal(t, user.Phone, loaded.Phone)
}

func TestMemoryStore_EmptyIsNoSession(t *testing.T) {
	ctx := context.Background()
	store := auth.NewMemoryStore()

	token, user, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Nil(t, user)
}

func TestMemoryStore_CorruptProfileYieldsEmptySession(t *testing.T) {
	ctx := context.Background()
	store := auth.NewMemoryStore()

	store.Put(auth.StoreKeyToken, "real-token-abc")
	store.Put(auth.StoreKeyUserData, "{not valid json")

	token, user, err := store.Load(ctx)
	require.NoError(t, err, "a corrupt profile must not surface as an error")
	assert.Empty(t, token)
	assert.Nil(t, user)
}

func TestMemoryStore_Clear(t *testing.T) {
	ctx := context.Background()
	store := auth.NewMemoryStore()

	require.NoError(t, store.Save(ctx, "real-token-abc", testUser()))
	require.NoError(t, store.Clear(ctx))

	token, user, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Nil(t, user)
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	ctx := context.Background()

	store, err := auth.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	user := testUser()
	require.NoError(t, store.Save(ctx, "real-token-abc", user))

	token, loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "real-token-abc", token)
	require.NotNil(t, loaded)
	assert.Equal(t, user.ID, loaded.ID)
	assert.Equal(t, user.Email, loaded.Email)
	assert.Equal(t, user.Role, loaded.Role)
}

func TestSQLiteStore_CorruptProfileYieldsEmptySession(t *testing.T) {
	ctx := context.Background()

	store, err := auth.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Put(ctx, auth.StoreKeyToken, "real-token-abc"))
	require.NoError(t, store.Put(ctx, auth.StoreKeyUserData, "][ garbage"))

	token, user, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Nil(t, user)
}

func TestSQLiteStore_ClearThenLoad(t *testing.T) {
	ctx := context.Background()

	store, err := auth.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(ctx, "real-token-abc", testUser()))
	require.NoError(t, store.Clear(ctx))

	token, user, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Nil(t, user)
}

func TestSQLiteStore_SaveOverwrites(t *testing.T) {
	ctx := context.Background()

	store, err := auth.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	first := testUser()
	require.NoError(t, store.Save(ctx, "token-one", first))

	second := testUser()
	second.Email = "lecturer@hbiu.edu"
	second.Role = auth.RoleLecturer
	require.NoError(t, store.Save(ctx, "token-two", second))

	token, loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "token-two", token)
	require.NotNil(t, loaded)
	assert.Equal(t, "lecturer@hbiu.edu", loaded.Email)
	assert.Equal(t, auth.RoleLecturer, loaded.Role)
}
