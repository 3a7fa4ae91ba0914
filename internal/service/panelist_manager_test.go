package service

import (
	"context"
	"errors"
	"testing"

	"github.com/concordance/api/internal/database"
	"github.com/concordance/api/internal/memstore"
	"github.com/concordance/api/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"golang.org/x/crypto/bcrypt"
)

// lifecycleEnv wires a manager to an in-memory platform
type lifecycleEnv struct {
	store       *memstore.Store
	concordance *model.Concordance
	manager     *PanelistManager
	registry    *prometheus.Registry
}

func newLifecycleEnv(t *testing.T, systemRole SystemRoleSource) *lifecycleEnv {
	t.Helper()
	store := memstore.New()
	course := &model.Course{Shortname: "C", Fullname: "Course"}
	store.CreateCourse(course)
	generated := &model.Course{Shortname: "C-panel", Fullname: "Course panelists"}
	store.CreateCourse(generated)
	concordance := &model.Concordance{Name: "Concordance", CourseID: course.ID, CourseGenerated: generated.ID}
	store.CreateConcordance(concordance)

	reg := prometheus.NewRegistry()
	manager := NewPanelistManager(PanelistManagerConfig{
		Identities:   store.Users(),
		Enrollments:  store.Enrollments(),
		Roles:        store.Roles(),
		Panelists:    store.Panelists(),
		Concordances: store.Concordances(),
		SystemRole:   systemRole,
		HashCost:     bcrypt.MinCost,
		PromRegistry: reg,
	})
	return &lifecycleEnv{store: store, concordance: concordance, manager: manager, registry: reg}
}

func (e *lifecycleEnv) addPanelist(t *testing.T, id string) *model.Panelist {
	t.Helper()
	p := &model.Panelist{
		ID:            id,
		ConcordanceID: e.concordance.ID,
		Firstname:     "Ada",
		Lastname:      "Lovelace",
		Email:         "ada@example.com",
	}
	require.NoError(t, e.store.Panelists().Create(context.Background(), p))
	return p
}

func TestOnPanelistCreated_NoSystemRole(t *testing.T) {
	env := newLifecycleEnv(t, nil)
	ctx := context.Background()
	panelist := env.addPanelist(t, "panelist:42")

	require.NoError(t, env.manager.OnPanelistCreated(ctx, panelist))
	require.True(t, panelist.IsProvisioned())

	stored, err := env.store.Panelists().GetByID(ctx, panelist.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.UserID)
	assert.Equal(t, *panelist.UserID, *stored.UserID)

	user, err := env.store.Users().GetByID(ctx, *panelist.UserID)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "Panelist-42", user.Firstname)
	assert.Equal(t, "Panelist-42", user.Lastname)
	assert.Equal(t, model.AuthManual, user.Auth)
	assert.True(t, user.Confirmed)
	assert.False(t, user.Deleted)
	assert.Regexp(t, `^panelist-[0-9a-f-]{36}$`, user.Username)
	require.NotNil(t, user.Hash)
	assert.True(t, len(*user.Hash) > 0)

	systemRoles, err := env.store.Roles().ListRoles(ctx, model.ContextSystem, "", user.ID)
	require.NoError(t, err)
	assert.Empty(t, systemRoles)

	enrollments, err := env.store.Enrollments().ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	assert.Equal(t, env.concordance.CourseGenerated, enrollments[0].CourseID)
	assert.Equal(t, "role:student", enrollments[0].RoleID)

	courseRoles, err := env.store.Roles().ListRoles(ctx, model.ContextCourse, env.concordance.CourseGenerated, user.ID)
	require.NoError(t, err)
	require.Len(t, courseRoles, 1)
	assert.Equal(t, model.RoleStudent, courseRoles[0].Shortname)

	assert.Equal(t, 1.0, testutil.ToFloat64(env.manager.metrics.provisioned))
	assert.Equal(t, 0.0, testutil.ToFloat64(env.manager.metrics.systemRolesAssigned))
}

func TestOnPanelistCreated_WithSystemRole(t *testing.T) {
	env := newLifecycleEnv(t, StaticSystemRole("role:coursecreator"))
	ctx := context.Background()
	panelist := env.addPanelist(t, "panelist:7")

	require.NoError(t, env.manager.OnPanelistCreated(ctx, panelist))

	user, err := env.store.Users().GetByID(ctx, *panelist.UserID)
	require.NoError(t, err)
	assert.Equal(t, "Panelist-7", user.Firstname)

	systemRoles, err := env.store.Roles().ListRoles(ctx, model.ContextSystem, "", user.ID)
	require.NoError(t, err)
	require.Len(t, systemRoles, 1)
	assert.Equal(t, model.RoleCourseCreator, systemRoles[0].Shortname)

	assert.Equal(t, 1.0, testutil.ToFloat64(env.manager.metrics.systemRolesAssigned))
}

func TestOnPanelistCreated_BareSystemRoleKey(t *testing.T) {
	env := newLifecycleEnv(t, StaticSystemRole("coursecreator"))
	ctx := context.Background()
	panelist := env.addPanelist(t, "panelist:8")

	require.NoError(t, env.manager.OnPanelistCreated(ctx, panelist))

	systemRoles, err := env.store.Roles().ListRoles(ctx, model.ContextSystem, "", *panelist.UserID)
	require.NoError(t, err)
	require.Len(t, systemRoles, 1)
	assert.Equal(t, "role:coursecreator", systemRoles[0].ID)
}

func TestOnPanelistCreated_ZeroMeansNoSystemRole(t *testing.T) {
	env := newLifecycleEnv(t, StaticSystemRole("0"))
	ctx := context.Background()
	panelist := env.addPanelist(t, "")

	require.NoError(t, env.manager.OnPanelistCreated(ctx, panelist))

	systemRoles, err := env.store.Roles().ListRoles(ctx, model.ContextSystem, "", *panelist.UserID)
	require.NoError(t, err)
	assert.Empty(t, systemRoles)
}

func TestOnPanelistCreated_ReadsSettingEveryCall(t *testing.T) {
	env := newLifecycleEnv(t, nil)
	settings := env.store.Settings()
	env.manager.systemRole = settings
	ctx := context.Background()

	first := env.addPanelist(t, "")
	require.NoError(t, env.manager.OnPanelistCreated(ctx, first))

	require.NoError(t, settings.SetPanelistsSystemRole(ctx, "role:manager"))
	second := env.addPanelist(t, "")
	require.NoError(t, env.manager.OnPanelistCreated(ctx, second))

	roles, err := env.store.Roles().ListRoles(ctx, model.ContextSystem, "", *first.UserID)
	require.NoError(t, err)
	assert.Empty(t, roles)

	roles, err = env.store.Roles().ListRoles(ctx, model.ContextSystem, "", *second.UserID)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, model.RoleManager, roles[0].Shortname)
}

func TestOnPanelistCreated_AlreadyProvisioned(t *testing.T) {
	env := newLifecycleEnv(t, nil)
	ctx := context.Background()
	panelist := env.addPanelist(t, "")

	require.NoError(t, env.manager.OnPanelistCreated(ctx, panelist))
	userID := *panelist.UserID

	err := env.manager.OnPanelistCreated(ctx, panelist)
	assert.ErrorIs(t, err, ErrAlreadyProvisioned)
	assert.Equal(t, userID, *panelist.UserID)
}

func TestOnPanelistCreated_LostAttachRace(t *testing.T) {
	env := newLifecycleEnv(t, nil)
	ctx := context.Background()
	panelist := env.addPanelist(t, "")

	// Another caller provisioned the stored record after this copy was read.
	stale := *panelist
	require.NoError(t, env.manager.OnPanelistCreated(ctx, panelist))

	err := env.manager.OnPanelistCreated(ctx, &stale)
	assert.ErrorIs(t, err, ErrAlreadyProvisioned)
	assert.Nil(t, stale.UserID)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.manager.metrics.failures.WithLabelValues("created", stepAttachUser)))
}

func TestOnPanelistCreated_InvalidSystemRole(t *testing.T) {
	env := newLifecycleEnv(t, StaticSystemRole("role:nope"))
	ctx := context.Background()
	panelist := env.addPanelist(t, "")

	err := env.manager.OnPanelistCreated(ctx, panelist)
	assert.ErrorIs(t, err, ErrInvalidSystemRole)
	assert.False(t, panelist.IsProvisioned())

	stored, err := env.store.Panelists().GetByID(ctx, panelist.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsProvisioned())
	assert.Equal(t, 1.0, testutil.ToFloat64(env.manager.metrics.failures.WithLabelValues("created", stepResolve)))
}

func TestOnPanelistCreated_UnknownConcordance(t *testing.T) {
	env := newLifecycleEnv(t, nil)
	panelist := &model.Panelist{ID: "panelist:1", ConcordanceID: "concordance:404"}

	err := env.manager.OnPanelistCreated(context.Background(), panelist)
	assert.ErrorIs(t, err, ErrConcordanceNotFound)
}

func TestOnPanelistDeleted(t *testing.T) {
	env := newLifecycleEnv(t, StaticSystemRole("role:coursecreator"))
	ctx := context.Background()
	panelist := env.addPanelist(t, "panelist:7")
	require.NoError(t, env.manager.OnPanelistCreated(ctx, panelist))
	userID := *panelist.UserID

	require.NoError(t, env.store.Panelists().Delete(ctx, panelist.ID))
	require.NoError(t, env.manager.OnPanelistDeleted(ctx, userID))

	user, err := env.store.Users().GetByID(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.True(t, user.Deleted)

	enrollments, err := env.store.Enrollments().ListByUser(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, enrollments)

	assignments, err := env.store.Roles().ListAssignments(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, assignments)

	// A second deletion of the same account still succeeds.
	require.NoError(t, env.manager.OnPanelistDeleted(ctx, userID))
	assert.Equal(t, 2.0, testutil.ToFloat64(env.manager.metrics.deactivated))
}

func TestOnPanelistDeleted_UnknownUser(t *testing.T) {
	env := newLifecycleEnv(t, nil)

	err := env.manager.OnPanelistDeleted(context.Background(), "user:404")
	assert.ErrorIs(t, err, ErrIdentityNotFound)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.manager.metrics.failures.WithLabelValues("deleted", stepLookupUser)))
}

// Mock stores for failure injection

type mockIdentityStore struct {
	createFunc     func(ctx context.Context, user *model.User) error
	getByIDFunc    func(ctx context.Context, id string) (*model.User, error)
	deactivateFunc func(ctx context.Context, id string) error
}

func (m *mockIdentityStore) Create(ctx context.Context, user *model.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	user.ID = "user:1"
	return nil
}

func (m *mockIdentityStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &model.User{ID: id}, nil
}

func (m *mockIdentityStore) Deactivate(ctx context.Context, id string) error {
	if m.deactivateFunc != nil {
		return m.deactivateFunc(ctx, id)
	}
	return nil
}

type mockEnrollmentStore struct {
	enrollFunc    func(ctx context.Context, userID, courseID, roleID string) error
	revokeAllFunc func(ctx context.Context, userID string) error
}

func (m *mockEnrollmentStore) Enroll(ctx context.Context, userID, courseID, roleID string) error {
	if m.enrollFunc != nil {
		return m.enrollFunc(ctx, userID, courseID, roleID)
	}
	return nil
}

func (m *mockEnrollmentStore) RevokeAll(ctx context.Context, userID string) error {
	if m.revokeAllFunc != nil {
		return m.revokeAllFunc(ctx, userID)
	}
	return nil
}

type mockRoleStore struct {
	assignFunc    func(ctx context.Context, userID string, kind model.ContextKind, instance, roleID string) error
	revokeAllFunc func(ctx context.Context, userID string) error
}

func (m *mockRoleStore) GetByShortname(_ context.Context, shortname string) (*model.Role, error) {
	return &model.Role{ID: "role:" + shortname, Shortname: shortname}, nil
}

func (m *mockRoleStore) GetByID(_ context.Context, id string) (*model.Role, error) {
	return &model.Role{ID: id, Shortname: model.RecordKey(id)}, nil
}

func (m *mockRoleStore) Assign(ctx context.Context, userID string, kind model.ContextKind, instance, roleID string) error {
	if m.assignFunc != nil {
		return m.assignFunc(ctx, userID, kind, instance, roleID)
	}
	return nil
}

func (m *mockRoleStore) RevokeAll(ctx context.Context, userID string) error {
	if m.revokeAllFunc != nil {
		return m.revokeAllFunc(ctx, userID)
	}
	return nil
}

type mockPanelistStore struct {
	attachUserFunc func(ctx context.Context, panelistID, userID string) (bool, error)
}

func (m *mockPanelistStore) Create(context.Context, *model.Panelist) error { return nil }

func (m *mockPanelistStore) GetByID(context.Context, string) (*model.Panelist, error) {
	return nil, nil
}

func (m *mockPanelistStore) ListByConcordance(context.Context, string) ([]*model.Panelist, error) {
	return nil, nil
}

func (m *mockPanelistStore) AttachUser(ctx context.Context, panelistID, userID string) (bool, error) {
	if m.attachUserFunc != nil {
		return m.attachUserFunc(ctx, panelistID, userID)
	}
	return true, nil
}

func (m *mockPanelistStore) Delete(context.Context, string) error { return nil }

type mockConcordanceStore struct{}

func (mockConcordanceStore) GetByID(_ context.Context, id string) (*model.Concordance, error) {
	return &model.Concordance{ID: id, CourseID: "course:1", CourseGenerated: "course:2"}, nil
}

func newMockManager(identities *mockIdentityStore, enrollments *mockEnrollmentStore, roles *mockRoleStore, systemRole SystemRoleSource) *PanelistManager {
	return NewPanelistManager(PanelistManagerConfig{
		Identities:   identities,
		Enrollments:  enrollments,
		Roles:        roles,
		Panelists:    &mockPanelistStore{},
		Concordances: mockConcordanceStore{},
		SystemRole:   systemRole,
		HashCost:     bcrypt.MinCost,
	})
}

func TestOnPanelistCreated_PropagatesStoreFailures(t *testing.T) {
	storeErr := errors.New("store unavailable")

	tests := []struct {
		name        string
		identities  *mockIdentityStore
		enrollments *mockEnrollmentStore
		roles       *mockRoleStore
		provisioned bool
	}{
		{
			name: "create user",
			identities: &mockIdentityStore{createFunc: func(context.Context, *model.User) error {
				return storeErr
			}},
			enrollments: &mockEnrollmentStore{},
			roles:       &mockRoleStore{},
		},
		{
			name:       "enroll",
			identities: &mockIdentityStore{},
			enrollments: &mockEnrollmentStore{enrollFunc: func(context.Context, string, string, string) error {
				return storeErr
			}},
			roles:       &mockRoleStore{},
			provisioned: true,
		},
		{
			name:        "assign system role",
			identities:  &mockIdentityStore{},
			enrollments: &mockEnrollmentStore{},
			roles: &mockRoleStore{assignFunc: func(context.Context, string, model.ContextKind, string, string) error {
				return storeErr
			}},
			provisioned: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMockManager(tt.identities, tt.enrollments, tt.roles, StaticSystemRole("role:coursecreator"))
			panelist := &model.Panelist{ID: "panelist:1", ConcordanceID: "concordance:1"}

			err := m.OnPanelistCreated(context.Background(), panelist)
			assert.Same(t, storeErr, err)
			assert.Equal(t, tt.provisioned, panelist.IsProvisioned())
		})
	}
}

func TestOnPanelistCreated_EnrollsInGeneratedCourse(t *testing.T) {
	var enrolledCourse, enrolledRole string
	var systemKind model.ContextKind
	var systemRole string
	m := newMockManager(
		&mockIdentityStore{},
		&mockEnrollmentStore{enrollFunc: func(_ context.Context, _, courseID, roleID string) error {
			enrolledCourse, enrolledRole = courseID, roleID
			return nil
		}},
		&mockRoleStore{assignFunc: func(_ context.Context, _ string, kind model.ContextKind, _, roleID string) error {
			systemKind, systemRole = kind, roleID
			return nil
		}},
		StaticSystemRole("role:coursecreator"),
	)

	require.NoError(t, m.OnPanelistCreated(context.Background(), &model.Panelist{ID: "panelist:1", ConcordanceID: "concordance:1"}))
	assert.Equal(t, "course:2", enrolledCourse)
	assert.Equal(t, "role:student", enrolledRole)
	assert.Equal(t, model.ContextSystem, systemKind)
	assert.Equal(t, "role:coursecreator", systemRole)
}

func TestOnPanelistDeleted_PropagatesStoreFailures(t *testing.T) {
	storeErr := database.ErrConnection
	var revoked []string

	tests := []struct {
		name        string
		identities  *mockIdentityStore
		enrollments *mockEnrollmentStore
		roles       *mockRoleStore
		wantRevoked []string
	}{
		{
			name: "lookup",
			identities: &mockIdentityStore{getByIDFunc: func(context.Context, string) (*model.User, error) {
				return nil, storeErr
			}},
		},
		{
			name: "deactivate",
			identities: &mockIdentityStore{deactivateFunc: func(context.Context, string) error {
				return storeErr
			}},
		},
		{
			name:       "revoke enrollments",
			identities: &mockIdentityStore{},
			enrollments: &mockEnrollmentStore{revokeAllFunc: func(context.Context, string) error {
				return storeErr
			}},
		},
		{
			name:       "revoke roles",
			identities: &mockIdentityStore{},
			enrollments: &mockEnrollmentStore{revokeAllFunc: func(context.Context, string) error {
				revoked = append(revoked, "enrollments")
				return nil
			}},
			roles: &mockRoleStore{revokeAllFunc: func(context.Context, string) error {
				return storeErr
			}},
			wantRevoked: []string{"enrollments"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			revoked = nil
			enrollments := tt.enrollments
			if enrollments == nil {
				enrollments = &mockEnrollmentStore{}
			}
			roles := tt.roles
			if roles == nil {
				roles = &mockRoleStore{}
			}
			m := newMockManager(tt.identities, enrollments, roles, nil)

			err := m.OnPanelistDeleted(context.Background(), "user:1")
			assert.Same(t, storeErr, err)
			assert.Equal(t, tt.wantRevoked, revoked)
		})
	}
}

func TestPanelistManager_RecordsFailedSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = provider.Shutdown(context.Background())
	})

	env := newLifecycleEnv(t, nil)
	err := env.manager.OnPanelistDeleted(context.Background(), "user:404")
	require.ErrorIs(t, err, ErrIdentityNotFound)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "PanelistManager.OnPanelistDeleted", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}
