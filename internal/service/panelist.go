package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/concordance/api/internal/model"
)

// PanelistLifecycle reacts to panelists being created and deleted
type PanelistLifecycle interface {
	OnPanelistCreated(ctx context.Context, panelist *model.Panelist) error
	OnPanelistDeleted(ctx context.Context, userID string) error
}

// PanelistServiceConfig holds the dependencies of the panelist service
type PanelistServiceConfig struct {
	Panelists    PanelistStore
	Concordances ConcordanceStore
	Lifecycle    PanelistLifecycle
	Logger       *slog.Logger
}

// PanelistService is the panelist-management flow of a concordance activity.
// It owns the panelist records and hands account provisioning to the
// lifecycle manager.
type PanelistService struct {
	panelists    PanelistStore
	concordances ConcordanceStore
	lifecycle    PanelistLifecycle
	logger       *slog.Logger
}

// NewPanelistService creates a new panelist service
func NewPanelistService(cfg PanelistServiceConfig) *PanelistService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PanelistService{
		panelists:    cfg.Panelists,
		concordances: cfg.Concordances,
		lifecycle:    cfg.Lifecycle,
		logger:       logger.With("component", "panelist"),
	}
}

// ValidationError carries field errors for an invalid panelist request
type ValidationError struct {
	Fields []model.FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrInvalidPanelist.Error()
	}
	return fmt.Sprintf("%s: %s: %s", ErrInvalidPanelist, e.Fields[0].Field, e.Fields[0].Message)
}

// Unwrap lets errors.Is match ErrInvalidPanelist
func (e *ValidationError) Unwrap() error {
	return ErrInvalidPanelist
}

// Register records a new panelist for a concordance and provisions its
// platform account. When provisioning fails the panelist record is kept and
// returned together with the error, so the caller can inspect or retry.
func (s *PanelistService) Register(ctx context.Context, concordanceID string, req *model.CreatePanelistRequest) (*model.Panelist, error) {
	req.Normalize()
	if errs := req.Validate(); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	concordance, err := s.concordances.GetByID(ctx, concordanceID)
	if err != nil {
		return nil, err
	}
	if concordance == nil {
		return nil, ErrConcordanceNotFound
	}

	panelist := &model.Panelist{
		ConcordanceID: concordance.ID,
		Firstname:     req.Firstname,
		Lastname:      req.Lastname,
		Email:         req.Email,
		Bibliography:  req.Bibliography,
	}
	if err := s.panelists.Create(ctx, panelist); err != nil {
		return nil, err
	}

	if err := s.lifecycle.OnPanelistCreated(ctx, panelist); err != nil {
		s.logger.Error("panelist provisioning failed",
			slog.String("panelist_id", panelist.ID),
			slog.String("concordance_id", concordance.ID),
			slog.Bool("user_attached", panelist.IsProvisioned()),
			slog.String("error", err.Error()),
		)
		return panelist, err
	}

	s.logger.Info("panelist registered",
		slog.String("panelist_id", panelist.ID),
		slog.String("user_id", *panelist.UserID),
	)
	return panelist, nil
}

// Get retrieves a panelist by ID
func (s *PanelistService) Get(ctx context.Context, panelistID string) (*model.Panelist, error) {
	panelist, err := s.panelists.GetByID(ctx, panelistID)
	if err != nil {
		return nil, err
	}
	if panelist == nil {
		return nil, ErrPanelistNotFound
	}
	return panelist, nil
}

// ListByConcordance retrieves the panelists of a concordance
func (s *PanelistService) ListByConcordance(ctx context.Context, concordanceID string) ([]*model.Panelist, error) {
	concordance, err := s.concordances.GetByID(ctx, concordanceID)
	if err != nil {
		return nil, err
	}
	if concordance == nil {
		return nil, ErrConcordanceNotFound
	}
	return s.panelists.ListByConcordance(ctx, concordance.ID)
}

// Reprovision retries account provisioning for a panelist that has no
// platform account yet
func (s *PanelistService) Reprovision(ctx context.Context, panelistID string) (*model.Panelist, error) {
	panelist, err := s.Get(ctx, panelistID)
	if err != nil {
		return nil, err
	}
	if err := s.lifecycle.OnPanelistCreated(ctx, panelist); err != nil {
		return nil, err
	}

	s.logger.Info("panelist reprovisioned",
		slog.String("panelist_id", panelist.ID),
		slog.String("user_id", *panelist.UserID),
	)
	return panelist, nil
}

// Remove deletes a panelist and then deactivates its platform account.
// The record is deleted first: account deactivation only needs the user ID.
func (s *PanelistService) Remove(ctx context.Context, panelistID string) error {
	panelist, err := s.Get(ctx, panelistID)
	if err != nil {
		return err
	}

	if err := s.panelists.Delete(ctx, panelist.ID); err != nil {
		return err
	}

	if !panelist.IsProvisioned() {
		s.logger.Info("unprovisioned panelist removed", slog.String("panelist_id", panelist.ID))
		return nil
	}

	if err := s.lifecycle.OnPanelistDeleted(ctx, *panelist.UserID); err != nil {
		s.logger.Error("panelist account deactivation failed",
			slog.String("panelist_id", panelist.ID),
			slog.String("user_id", *panelist.UserID),
			slog.String("error", err.Error()),
		)
		return err
	}

	s.logger.Info("panelist removed",
		slog.String("panelist_id", panelist.ID),
		slog.String("user_id", *panelist.UserID),
	)
	return nil
}
