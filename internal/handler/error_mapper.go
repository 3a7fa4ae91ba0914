package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/concordance/api/internal/database"
	"github.com/concordance/api/internal/model"
	"github.com/concordance/api/internal/service"
)

// MapServiceError converts a service error to a ProblemDetails response.
// This centralizes error handling logic for all handlers, ensuring consistent
// HTTP status codes and error messages across the API.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	var verr *service.ValidationError

	switch {
	// ===== Not Found Errors → 404 =====
	case errors.Is(err, service.ErrPanelistNotFound):
		return model.NewNotFoundError("panelist")
	case errors.Is(err, service.ErrConcordanceNotFound):
		return model.NewNotFoundError("concordance")
	case errors.Is(err, service.ErrIdentityNotFound):
		return model.NewNotFoundError("platform account")

	// ===== Conflict Errors → 409 =====
	case errors.Is(err, service.ErrAlreadyProvisioned):
		return model.NewConflictError(err.Error())

	// ===== Validation Errors → 422 =====
	case errors.As(err, &verr):
		return model.NewValidationError(verr.Fields)
	case errors.Is(err, service.ErrInvalidPanelist):
		return model.NewValidationError([]model.FieldError{{Field: "panelist", Message: err.Error()}})

	// ===== Platform misconfiguration → 500 =====
	case errors.Is(err, service.ErrInvalidSystemRole),
		errors.Is(err, service.ErrRoleNotFound):
		return model.NewInternalError(err.Error())

	// ===== Store Errors =====
	case errors.Is(err, database.ErrNotFound):
		return model.NewNotFoundError("record")
	case errors.Is(err, database.ErrDuplicate):
		return model.NewConflictError("record already exists")
	case errors.Is(err, database.ErrConnection),
		errors.Is(err, database.ErrQuery):
		return model.NewDatabaseError()
	}

	return model.NewInternalError("")
}

// MapServiceErrorWithContext converts a service error to a ProblemDetails response
// with additional context about the operation that failed.
func MapServiceErrorWithContext(err error, operation string) *model.ProblemDetails {
	pd := MapServiceError(err)
	if pd != nil && pd.Status == 500 && pd.Detail == "An unexpected error occurred" {
		pd.Detail = operation + ": an unexpected error occurred"
	}
	return pd
}

// writeServiceError logs server-side failures and writes the mapped problem
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, operation string, err error) {
	pd := MapServiceErrorWithContext(err, operation)
	if pd.Status >= 500 {
		logger.Error(operation+" failed", slog.String("error", err.Error()))
	}
	WriteError(w, pd)
}
