package access

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/AEARedGEM/LuxuryX-Token-Factory/errors"
	"github.com/AEARedGEM/LuxuryX-Token-Factory/types"
)

type recordingAdminStore struct {
	saved []types.Identity
	err   error
}

func (s *recordingAdminStore) SaveAdmin(_ context.Context, admin types.Identity) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, admin)
	return nil
}

func TestNewControllerRejectsNullAdmin(t *testing.T) {
	_, err := NewController("")
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidOwner)
}

func TestRequireAdmin(t *testing.T) {
	c, err := NewController("admin")
	require.NoError(t, err)

	assert.NoError(t, c.RequireAdmin("admin"))
	assert.ErrorIs(t, c.RequireAdmin("mallory"), pkgerrors.ErrUnauthorized)
	assert.ErrorIs(t, c.RequireAdmin(""), pkgerrors.ErrUnauthorized)
}

func TestTransferAdmin(t *testing.T) {
	store := &recordingAdminStore{}
	c, err := NewController("admin", WithAdminStore(store))
	require.NoError(t, err)

	ctx := context.Background()

	// Only the admin can nominate.
	err = c.TransferAdmin(ctx, "mallory", "mallory")
	assert.ErrorIs(t, err, pkgerrors.ErrUnauthorized)
	assert.Equal(t, types.Identity("admin"), c.Admin())

	// Null successor is rejected.
	err = c.TransferAdmin(ctx, "admin", "")
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidOwner)

	// Successful transfer persists and takes effect in one step.
	require.NoError(t, c.TransferAdmin(ctx, "admin", "next"))
	assert.Equal(t, types.Identity("next"), c.Admin())
	assert.Equal(t, []types.Identity{"next"}, store.saved)

	// The previous admin lost the capability.
	assert.ErrorIs(t, c.RequireAdmin("admin"), pkgerrors.ErrUnauthorized)
	assert.NoError(t, c.RequireAdmin("next"))
}

func TestTransferAdminPersistFailureLeavesAdminUnchanged(t *testing.T) {
	store := &recordingAdminStore{err: errors.New("kv down")}
	c, err := NewController("admin", WithAdminStore(store))
	require.NoError(t, err)

	err = c.TransferAdmin(context.Background(), "admin", "next")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsTransient(err))
	assert.Equal(t, types.Identity("admin"), c.Admin())
}

func TestEntryGuard(t *testing.T) {
	g := NewEntryGuard()

	require.NoError(t, g.Enter())

	// A second entry while the first is mid-flight is rejected immediately.
	err := g.Enter()
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrReentrantCall)

	g.Exit()
	assert.NoError(t, g.Enter())
	g.Exit()
}
