package repository

import (
	"context"

	"github.com/concordance/api/internal/database"
	"github.com/concordance/api/internal/model"
)

// ConcordanceRepository reads concordance activities
type ConcordanceRepository struct {
	db database.Database
}

// NewConcordanceRepository creates a new concordance repository
func NewConcordanceRepository(db database.Database) *ConcordanceRepository {
	return &ConcordanceRepository{db: db}
}

// GetByID retrieves a concordance by ID
func (r *ConcordanceRepository) GetByID(ctx context.Context, id string) (*model.Concordance, error) {
	query := `SELECT id, name, course AS course_id, course_generated, created_on FROM type::record($id)`
	vars := map[string]interface{}{"id": id}

	result, err := r.db.QueryOne(ctx, query, vars)
	return getOne[model.Concordance](result, err, "course_id", "course_generated")
}
