package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/concordance/api/internal/model"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"
)

const tracerName = "github.com/concordance/api/internal/service"

// IdentityStore manages platform user accounts
type IdentityStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	Deactivate(ctx context.Context, id string) error
}

// EnrollmentStore manages course enrollments
type EnrollmentStore interface {
	Enroll(ctx context.Context, userID, courseID, roleID string) error
	RevokeAll(ctx context.Context, userID string) error
}

// RoleStore manages roles and their assignments
type RoleStore interface {
	GetByShortname(ctx context.Context, shortname string) (*model.Role, error)
	GetByID(ctx context.Context, id string) (*model.Role, error)
	Assign(ctx context.Context, userID string, kind model.ContextKind, instance, roleID string) error
	RevokeAll(ctx context.Context, userID string) error
}

// PanelistStore persists panelist records
type PanelistStore interface {
	Create(ctx context.Context, panelist *model.Panelist) error
	GetByID(ctx context.Context, id string) (*model.Panelist, error)
	ListByConcordance(ctx context.Context, concordanceID string) ([]*model.Panelist, error)
	AttachUser(ctx context.Context, panelistID, userID string) (bool, error)
	Delete(ctx context.Context, id string) error
}

// ConcordanceStore reads concordance activities
type ConcordanceStore interface {
	GetByID(ctx context.Context, id string) (*model.Concordance, error)
}

// PanelistManagerConfig holds the collaborators of the panelist manager
type PanelistManagerConfig struct {
	Identities   IdentityStore
	Enrollments  EnrollmentStore
	Roles        RoleStore
	Panelists    PanelistStore
	Concordances ConcordanceStore
	SystemRole   SystemRoleSource
	// HashCost is the bcrypt cost for account secrets; zero uses bcrypt.DefaultCost
	HashCost     int
	PromRegistry prometheus.Registerer
}

// PanelistManager keeps a panelist's platform account in step with the
// panelist record: it provisions the account when a panelist is created and
// deactivates it when the panelist is deleted.
//
// Every step is a single store call. Nothing is rolled back on failure, so
// the panelist's UserID shows how far provisioning got.
type PanelistManager struct {
	identities   IdentityStore
	enrollments  EnrollmentStore
	roles        RoleStore
	panelists    PanelistStore
	concordances ConcordanceStore
	systemRole   SystemRoleSource
	hashCost     int
	metrics      *lifecycleMetrics
	tracer       trace.Tracer
}

// NewPanelistManager creates a new panelist manager
func NewPanelistManager(cfg PanelistManagerConfig) *PanelistManager {
	systemRole := cfg.SystemRole
	if systemRole == nil {
		systemRole = StaticSystemRole(model.NoSystemRole)
	}
	hashCost := cfg.HashCost
	if hashCost == 0 {
		hashCost = bcrypt.DefaultCost
	}
	return &PanelistManager{
		identities:   cfg.Identities,
		enrollments:  cfg.Enrollments,
		roles:        cfg.Roles,
		panelists:    cfg.Panelists,
		concordances: cfg.Concordances,
		systemRole:   systemRole,
		hashCost:     hashCost,
		metrics:      newLifecycleMetrics(cfg.PromRegistry),
		tracer:       otel.Tracer(tracerName),
	}
}

// OnPanelistCreated provisions the platform account of a new panelist:
// a confirmed user named after the panelist, a student enrollment in the
// concordance's course and, when configured, a system role.
// On success panelist.UserID holds the new account ID.
func (m *PanelistManager) OnPanelistCreated(ctx context.Context, panelist *model.Panelist) (err error) {
	ctx, span := m.tracer.Start(ctx, "PanelistManager.OnPanelistCreated",
		trace.WithAttributes(attribute.String("panelist.id", panelist.ID)))
	step := ""
	defer func() { m.finish(span, "created", step, err) }()

	if panelist.IsProvisioned() {
		return ErrAlreadyProvisioned
	}

	step = stepResolve
	concordance, err := m.concordances.GetByID(ctx, panelist.ConcordanceID)
	if err != nil {
		return err
	}
	if concordance == nil {
		return ErrConcordanceNotFound
	}
	student, err := m.roles.GetByShortname(ctx, model.RoleStudent)
	if err != nil {
		return err
	}
	if student == nil {
		return fmt.Errorf("%w: %s", ErrRoleNotFound, model.RoleStudent)
	}
	systemRole, err := m.resolveSystemRole(ctx)
	if err != nil {
		return err
	}

	step = stepCreateUser
	user, err := m.newPanelistUser(panelist)
	if err != nil {
		return err
	}
	if err := m.identities.Create(ctx, user); err != nil {
		return err
	}
	span.SetAttributes(attribute.String("user.id", user.ID))

	step = stepAttachUser
	attached, err := m.panelists.AttachUser(ctx, panelist.ID, user.ID)
	if err != nil {
		return err
	}
	if !attached {
		return ErrAlreadyProvisioned
	}
	userID := user.ID
	panelist.UserID = &userID

	step = stepEnroll
	if err := m.enrollments.Enroll(ctx, user.ID, concordance.PanelistCourseID(), student.ID); err != nil {
		return err
	}

	if systemRole != nil {
		step = stepSystemRole
		if err := m.roles.Assign(ctx, user.ID, model.ContextSystem, "", systemRole.ID); err != nil {
			return err
		}
		m.metrics.incSystemRole()
	}

	step = ""
	m.metrics.incProvisioned()
	return nil
}

// OnPanelistDeleted deactivates the platform account of a removed panelist
// and revokes every enrollment and role assignment it holds. The panelist
// record must already be gone; only the account ID is needed.
//
// Calling it again for an already deactivated account succeeds. An account
// that does not exist yields ErrIdentityNotFound.
func (m *PanelistManager) OnPanelistDeleted(ctx context.Context, userID string) (err error) {
	ctx, span := m.tracer.Start(ctx, "PanelistManager.OnPanelistDeleted",
		trace.WithAttributes(attribute.String("user.id", userID)))
	step := stepLookupUser
	defer func() { m.finish(span, "deleted", step, err) }()

	user, err := m.identities.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrIdentityNotFound
	}

	step = stepDeactivate
	if err := m.identities.Deactivate(ctx, userID); err != nil {
		return err
	}

	step = stepRevokeEnrol
	if err := m.enrollments.RevokeAll(ctx, userID); err != nil {
		return err
	}

	step = stepRevokeRoles
	if err := m.roles.RevokeAll(ctx, userID); err != nil {
		return err
	}

	step = ""
	m.metrics.incDeactivated()
	return nil
}

// resolveSystemRole reads the configured system role. It returns nil when
// panelists get no system role.
func (m *PanelistManager) resolveSystemRole(ctx context.Context) (*model.Role, error) {
	roleID, err := m.systemRole.PanelistsSystemRole(ctx)
	if err != nil {
		return nil, err
	}
	roleID = model.NormalizeSystemRole(roleID)
	if roleID == model.NoSystemRole {
		return nil, nil
	}
	role, err := m.roles.GetByID(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSystemRole, roleID)
	}
	return role, nil
}

// newPanelistUser builds the account for a panelist. Panelists never sign in
// with a password, so the secret is random and only its hash is kept.
func (m *PanelistManager) newPanelistUser(panelist *model.Panelist) (*model.User, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generating account secret: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(secret)), m.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hashing account secret: %w", err)
	}
	hashStr := string(hash)

	name := panelist.AccountName()
	return &model.User{
		Username:  "panelist-" + uuid.NewString(),
		Email:     panelist.Email,
		Firstname: name,
		Lastname:  name,
		Auth:      model.AuthManual,
		Hash:      &hashStr,
		Confirmed: true,
	}, nil
}

func (m *PanelistManager) finish(span trace.Span, operation, step string, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if step != "" {
			span.SetAttributes(attribute.String("failed.step", step))
			m.metrics.fail(operation, step)
		}
	}
	span.End()
}
