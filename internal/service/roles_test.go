package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soulsguard/guard-bot-go/internal/apperr"
	"github.com/soulsguard/guard-bot-go/internal/model"
)

type fakeRoleRepo struct {
	roles map[int64][]model.Role
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{roles: map[int64][]model.Role{}}
}

func (f *fakeRoleRepo) Grant(_ context.Context, userID int64, role model.Role) error {
	for _, r := range f.roles[userID] {
		if r == role {
			return nil
		}
	}
	f.roles[userID] = append(f.roles[userID], role)
	return nil
}

func (f *fakeRoleRepo) Revoke(_ context.Context, userID int64, role model.Role) error {
	kept := f.roles[userID][:0]
	for _, r := range f.roles[userID] {
		if r != role {
			kept = append(kept, r)
		}
	}
	f.roles[userID] = kept
	return nil
}

func (f *fakeRoleRepo) RevokeAll(_ context.Context, userID int64) (int64, error) {
	n := int64(len(f.roles[userID]))
	delete(f.roles, userID)
	return n, nil
}

func (f *fakeRoleRepo) ListByUser(_ context.Context, userID int64) ([]model.Role, error) {
	return f.roles[userID], nil
}

func (f *fakeRoleRepo) ListHolders(_ context.Context, roles []model.Role) ([]model.RoleHolder, error) {
	var out []model.RoleHolder
	for _, want := range roles {
		for userID, held := range f.roles {
			for _, r := range held {
				if r == want {
					out = append(out, model.RoleHolder{UserID: userID, Role: r})
				}
			}
		}
	}
	return out, nil
}

type recordingCloser struct {
	calls []struct {
		userID int64
		reason model.CloseReason
	}
}

func (c *recordingCloser) Close(_ context.Context, userID int64, _ *model.SessionKind, reason model.CloseReason) ([]model.ClosedSessionSummary, error) {
	c.calls = append(c.calls, struct {
		userID int64
		reason model.CloseReason
	}{userID, reason})
	return nil, nil
}

const ownerID = int64(1000)

func TestPromote(t *testing.T) {
	ctx := context.Background()

	t.Run("grants a role", func(t *testing.T) {
		repo := newFakeRoleRepo()
		svc := NewRoleService(repo, &recordingCloser{}, ownerID)

		require.NoError(t, svc.Promote(ctx, 5, model.RoleAdminChat))
		assert.Equal(t, []model.Role{model.RoleAdminChat}, repo.roles[5])
	})

	t.Run("rejects the owner role", func(t *testing.T) {
		svc := NewRoleService(newFakeRoleRepo(), &recordingCloser{}, ownerID)

		err := svc.Promote(ctx, 5, model.RoleOwner)
		assert.True(t, apperr.IsCode(err, apperr.ErrCodeInvalidInput))
	})

	t.Run("rejects unknown roles", func(t *testing.T) {
		svc := NewRoleService(newFakeRoleRepo(), &recordingCloser{}, ownerID)

		err := svc.Promote(ctx, 5, model.Role("emperor"))
		assert.True(t, apperr.IsCode(err, apperr.ErrCodeInvalidInput))
	})
}

func TestDemote(t *testing.T) {
	ctx := context.Background()

	t.Run("last role gone closes open sessions", func(t *testing.T) {
		repo := newFakeRoleRepo()
		closer := &recordingCloser{}
		svc := NewRoleService(repo, closer, ownerID)

		require.NoError(t, svc.Promote(ctx, 5, model.RoleAdminChat))
		require.NoError(t, svc.Demote(ctx, 5, model.RoleAdminChat))

		require.Len(t, closer.calls, 1)
		assert.Equal(t, int64(5), closer.calls[0].userID)
		assert.Equal(t, model.ReasonRoleRemoved, closer.calls[0].reason)
	})

	t.Run("remaining roles keep sessions alive", func(t *testing.T) {
		repo := newFakeRoleRepo()
		closer := &recordingCloser{}
		svc := NewRoleService(repo, closer, ownerID)

		require.NoError(t, svc.Promote(ctx, 5, model.RoleAdminChat))
		require.NoError(t, svc.Promote(ctx, 5, model.RoleAdminCall))
		require.NoError(t, svc.Demote(ctx, 5, model.RoleAdminChat))

		assert.Empty(t, closer.calls)
	})
}

func TestRoleChecks(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRoleRepo()
	svc := NewRoleService(repo, &recordingCloser{}, ownerID)

	require.NoError(t, svc.Promote(ctx, 5, model.RoleAdminChat))
	require.NoError(t, svc.Promote(ctx, 6, model.RoleSeniorChat))

	t.Run("IsManager", func(t *testing.T) {
		for _, id := range []int64{ownerID, 5, 6} {
			ok, err := svc.IsManager(ctx, id)
			require.NoError(t, err)
			assert.True(t, ok, "user %d", id)
		}
		ok, err := svc.IsManager(ctx, 999)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("IsSeniorOrOwner", func(t *testing.T) {
		ok, err := svc.IsSeniorOrOwner(ctx, 6)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = svc.IsSeniorOrOwner(ctx, 5)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = svc.IsSeniorOrOwner(ctx, ownerID)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("IsOwner", func(t *testing.T) {
		assert.True(t, svc.IsOwner(ownerID))
		assert.False(t, svc.IsOwner(5))
	})
}

func TestParseRole(t *testing.T) {
	cases := map[string]model.Role{
		"چت":      model.RoleAdminChat,
		"کال":     model.RoleAdminCall,
		"ارشد چت": model.RoleSeniorChat,
		"ارشد کال": model.RoleSeniorCall,
		"ارشد کل":  model.RoleSeniorAll,
	}
	for keyword, want := range cases {
		role, ok := ParseRole(keyword)
		assert.True(t, ok, keyword)
		assert.Equal(t, want, role)
	}

	_, ok := ParseRole("owner")
	assert.False(t, ok)
}

func TestGuardList(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRoleRepo()
	svc := NewRoleService(repo, &recordingCloser{}, ownerID)

	t.Run("empty hierarchy", func(t *testing.T) {
		list, err := svc.GuardList(ctx)
		require.NoError(t, err)
		assert.Equal(t, "no guard members yet", list)
	})

	t.Run("renders holders", func(t *testing.T) {
		require.NoError(t, svc.Promote(ctx, 5, model.RoleAdminChat))

		list, err := svc.GuardList(ctx)
		require.NoError(t, err)
		assert.Contains(t, list, "chat admin")
		assert.Contains(t, list, "tg://user?id=5")
	})
}
