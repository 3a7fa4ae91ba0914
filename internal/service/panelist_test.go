package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/concordance/api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPanelistService(env *lifecycleEnv, lifecycle PanelistLifecycle) *PanelistService {
	if lifecycle == nil {
		lifecycle = env.manager
	}
	return NewPanelistService(PanelistServiceConfig{
		Panelists:    env.store.Panelists(),
		Concordances: env.store.Concordances(),
		Lifecycle:    lifecycle,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

type mockLifecycle struct {
	createdFunc func(ctx context.Context, panelist *model.Panelist) error
	deletedFunc func(ctx context.Context, userID string) error
}

func (m *mockLifecycle) OnPanelistCreated(ctx context.Context, panelist *model.Panelist) error {
	if m.createdFunc != nil {
		return m.createdFunc(ctx, panelist)
	}
	return nil
}

func (m *mockLifecycle) OnPanelistDeleted(ctx context.Context, userID string) error {
	if m.deletedFunc != nil {
		return m.deletedFunc(ctx, userID)
	}
	return nil
}

func validRequest() *model.CreatePanelistRequest {
	return &model.CreatePanelistRequest{
		Firstname: " Ada ",
		Lastname:  "Lovelace",
		Email:     "Ada@Example.com",
	}
}

func TestPanelistService_Register(t *testing.T) {
	env := newLifecycleEnv(t, nil)
	svc := newTestPanelistService(env, nil)
	ctx := context.Background()

	panelist, err := svc.Register(ctx, env.concordance.ID, validRequest())
	require.NoError(t, err)
	assert.Equal(t, "Ada", panelist.Firstname)
	assert.Equal(t, "ada@example.com", panelist.Email)
	require.True(t, panelist.IsProvisioned())

	user, err := env.store.Users().GetByID(ctx, *panelist.UserID)
	require.NoError(t, err)
	assert.Equal(t, panelist.AccountName(), user.Firstname)

	list, err := svc.ListByConcordance(ctx, env.concordance.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, panelist.ID, list[0].ID)
}

func TestPanelistService_RegisterValidation(t *testing.T) {
	env := newLifecycleEnv(t, nil)
	svc := newTestPanelistService(env, nil)

	_, err := svc.Register(context.Background(), env.concordance.ID, &model.CreatePanelistRequest{Email: "bad"})
	require.ErrorIs(t, err, ErrInvalidPanelist)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.NotEmpty(t, verr.Fields)
}

func TestPanelistService_RegisterUnknownConcordance(t *testing.T) {
	env := newLifecycleEnv(t, nil)
	svc := newTestPanelistService(env, nil)

	_, err := svc.Register(context.Background(), "concordance:404", validRequest())
	assert.ErrorIs(t, err, ErrConcordanceNotFound)

	_, err = svc.ListByConcordance(context.Background(), "concordance:404")
	assert.ErrorIs(t, err, ErrConcordanceNotFound)
}

func TestPanelistService_RegisterKeepsRecordWhenProvisioningFails(t *testing.T) {
	env := newLifecycleEnv(t, StaticSystemRole("role:nope"))
	svc := newTestPanelistService(env, nil)
	ctx := context.Background()

	panelist, err := svc.Register(ctx, env.concordance.ID, validRequest())
	require.ErrorIs(t, err, ErrInvalidSystemRole)
	require.NotNil(t, panelist)
	assert.False(t, panelist.IsProvisioned())

	stored, err := svc.Get(ctx, panelist.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsProvisioned())

	// Fix the setting and retry.
	env.manager.systemRole = StaticSystemRole("role:coursecreator")
	reprovisioned, err := svc.Reprovision(ctx, panelist.ID)
	require.NoError(t, err)
	assert.True(t, reprovisioned.IsProvisioned())

	_, err = svc.Reprovision(ctx, panelist.ID)
	assert.ErrorIs(t, err, ErrAlreadyProvisioned)
}

func TestPanelistService_Remove(t *testing.T) {
	env := newLifecycleEnv(t, nil)
	svc := newTestPanelistService(env, nil)
	ctx := context.Background()

	panelist, err := svc.Register(ctx, env.concordance.ID, validRequest())
	require.NoError(t, err)
	userID := *panelist.UserID

	require.NoError(t, svc.Remove(ctx, panelist.ID))

	_, err = svc.Get(ctx, panelist.ID)
	assert.ErrorIs(t, err, ErrPanelistNotFound)

	user, err := env.store.Users().GetByID(ctx, userID)
	require.NoError(t, err)
	assert.True(t, user.Deleted)

	assert.ErrorIs(t, svc.Remove(ctx, panelist.ID), ErrPanelistNotFound)
}

func TestPanelistService_RemoveDeletesRecordBeforeDeactivating(t *testing.T) {
	env := newLifecycleEnv(t, nil)
	ctx := context.Background()

	var recordGone bool
	lifecycle := &mockLifecycle{
		createdFunc: env.manager.OnPanelistCreated,
		deletedFunc: func(ctx context.Context, userID string) error {
			p, err := env.store.Panelists().ListByConcordance(ctx, env.concordance.ID)
			require.NoError(t, err)
			recordGone = len(p) == 0
			return nil
		},
	}
	svc := newTestPanelistService(env, lifecycle)

	panelist, err := svc.Register(ctx, env.concordance.ID, validRequest())
	require.NoError(t, err)
	require.NoError(t, svc.Remove(ctx, panelist.ID))
	assert.True(t, recordGone)
}

func TestPanelistService_RemoveUnprovisioned(t *testing.T) {
	env := newLifecycleEnv(t, nil)
	called := false
	svc := newTestPanelistService(env, &mockLifecycle{
		createdFunc: func(context.Context, *model.Panelist) error { return errors.New("boom") },
		deletedFunc: func(context.Context, string) error {
			called = true
			return nil
		},
	})
	ctx := context.Background()

	panelist, err := svc.Register(ctx, env.concordance.ID, validRequest())
	require.Error(t, err)
	require.NoError(t, svc.Remove(ctx, panelist.ID))
	assert.False(t, called)
}
