package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/MrEthical07/authcore/directory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseDirectory runs the behaviour every directory backend must share.
func exerciseDirectory(t *testing.T, d directory.Directory) {
	t.Helper()
	ctx := context.Background()

	created, err := d.Create(ctx, directory.User{
		Email:        "Carol@Example.com",
		Username:     "carol",
		Phone:        "+15550002",
		PasswordHash: "hash-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "carol@example.com", created.Email)
	assert.Equal(t, int64(0), created.TokenVersion)

	_, err = d.Create(ctx, directory.User{Email: "other@example.com", Username: "carol", PasswordHash: "h"})
	assert.ErrorIs(t, err, directory.ErrDuplicate)

	// absent phones are stored as NULL, so two users without one coexist
	_, err = d.Create(ctx, directory.User{Email: "dave@example.com", Username: "dave", PasswordHash: "h"})
	require.NoError(t, err)
	_, err = d.Create(ctx, directory.User{Email: "erin@example.com", Username: "erin", PasswordHash: "h"})
	require.NoError(t, err)

	byPhone, err := d.FindByPhone(ctx, "+15550002")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byPhone.ID)

	match, err := d.FindAny(ctx, directory.Lookup{Email: "nobody@example.com", Username: "carol"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, match.ID)

	_, err = d.FindAny(ctx, directory.Lookup{Email: "nobody@example.com"})
	assert.ErrorIs(t, err, directory.ErrNotFound)

	verified := true
	status := directory.StatusActive
	login := time.Now()
	updated, err := d.Update(ctx, created.ID, directory.Patch{IsVerified: &verified, AccountStatus: &status, LastLogin: &login})
	require.NoError(t, err)
	assert.True(t, updated.IsVerified)
	assert.Equal(t, directory.StatusActive, updated.AccountStatus)
	assert.Equal(t, "hash-1", updated.PasswordHash)
	require.NotNil(t, updated.LastLogin)

	v, err := d.IncrementTokenVersion(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	got, err := d.FindByEmail(ctx, "carol@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.TokenVersion)

	_, err = d.IncrementTokenVersion(ctx, "missing")
	assert.ErrorIs(t, err, directory.ErrNotFound)
}
