package repository

import (
	"context"
	"fmt"

	"github.com/concordance/api/internal/database"
	"github.com/concordance/api/internal/model"
)

const panelistFields = `id, concordance AS concordance_id, user AS user_id, firstname, lastname, email, bibliography, created_on, updated_on`

var panelistLinks = []string{"concordance_id", "user_id"}

// PanelistRepository handles panelist data access
type PanelistRepository struct {
	db database.Database
}

// NewPanelistRepository creates a new panelist repository
func NewPanelistRepository(db database.Database) *PanelistRepository {
	return &PanelistRepository{db: db}
}

// Create creates a new panelist without a user account
func (r *PanelistRepository) Create(ctx context.Context, panelist *model.Panelist) error {
	query := `
		CREATE panelist CONTENT {
			concordance: type::record($concordance_id),
			firstname: $firstname,
			lastname: $lastname,
			email: $email,
			bibliography: $bibliography,
			created_on: time::now(),
			updated_on: time::now()
		}
	`
	vars := map[string]interface{}{
		"concordance_id": panelist.ConcordanceID,
		"firstname":      panelist.Firstname,
		"lastname":       panelist.Lastname,
		"email":          panelist.Email,
		"bibliography":   panelist.Bibliography,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return err
	}
	data, err := firstRecord(result)
	if err != nil {
		return err
	}
	created, err := decodeRecord[model.Panelist](data)
	if err != nil {
		return err
	}
	panelist.ID = created.ID
	panelist.CreatedOn = created.CreatedOn
	panelist.UpdatedOn = created.UpdatedOn
	return nil
}

// GetByID retrieves a panelist by ID
func (r *PanelistRepository) GetByID(ctx context.Context, id string) (*model.Panelist, error) {
	query := `SELECT ` + panelistFields + ` FROM type::record($id)`
	vars := map[string]interface{}{"id": id}

	result, err := r.db.QueryOne(ctx, query, vars)
	return getOne[model.Panelist](result, err, panelistLinks...)
}

// ListByConcordance returns the panelists of a concordance in creation order
func (r *PanelistRepository) ListByConcordance(ctx context.Context, concordanceID string) ([]*model.Panelist, error) {
	query := `SELECT ` + panelistFields + ` FROM panelist WHERE concordance = type::record($concordance_id) ORDER BY created_on`
	vars := map[string]interface{}{"concordance_id": concordanceID}

	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return decodeRecords[model.Panelist](results, panelistLinks...)
}

// AttachUser links a user account to a panelist that has none yet. It
// reports false when the panelist already has an account.
func (r *PanelistRepository) AttachUser(ctx context.Context, panelistID, userID string) (bool, error) {
	existing, err := r.GetByID(ctx, panelistID)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, fmt.Errorf("%w: panelist %s", database.ErrNotFound, panelistID)
	}

	query := `
		UPDATE type::record($id)
		SET user = type::record($user_id), updated_on = time::now()
		WHERE user = NONE
		RETURN id
	`
	vars := map[string]interface{}{
		"id":      panelistID,
		"user_id": userID,
	}
	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return false, err
	}
	return len(statementRecords(results)) > 0, nil
}

// Delete removes a panelist
func (r *PanelistRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE type::record($id) RETURN BEFORE`
	vars := map[string]interface{}{"id": id}

	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return err
	}
	if len(statementRecords(results)) == 0 {
		return fmt.Errorf("%w: panelist %s", database.ErrNotFound, id)
	}
	return nil
}
