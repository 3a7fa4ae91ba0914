package repository

import (
	"testing"
	"time"

	"github.com/concordance/api/internal/database"
	"github.com/concordance/api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/surrealdb/surrealdb.go/pkg/models"
)

func TestConvertSurrealID(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{"string", "panelist:42", "panelist:42"},
		{"record id", models.RecordID{Table: "user", ID: "abc"}, "user:abc"},
		{"record id pointer", &models.RecordID{Table: "role", ID: "student"}, "role:student"},
		{"numeric key", models.RecordID{Table: "panelist", ID: uint64(7)}, "panelist:7"},
		{"map", map[string]interface{}{"tb": "course", "id": map[string]interface{}{"String": "x1"}}, "course:x1"},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, convertSurrealID(tt.in))
		})
	}
}

func TestFirstRecord(t *testing.T) {
	record := map[string]interface{}{"id": "role:student"}

	got, err := firstRecord([]interface{}{map[string]interface{}{
		"status": "OK",
		"result": []interface{}{record},
	}})
	require.NoError(t, err)
	assert.Equal(t, record, got)

	got, err = firstRecord(record)
	require.NoError(t, err)
	assert.Equal(t, record, got)

	_, err = firstRecord([]interface{}{map[string]interface{}{"status": "OK", "result": []interface{}{}}})
	assert.ErrorIs(t, err, database.ErrNotFound)

	_, err = firstRecord(nil)
	assert.ErrorIs(t, err, database.ErrNotFound)

	_, err = firstRecord(42)
	assert.ErrorIs(t, err, errUnexpectedResult)
}

func TestDecodeRecord_FlattensLinksAndTimes(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	data := map[string]interface{}{
		"id":             models.RecordID{Table: "panelist", ID: uint64(42)},
		"concordance_id": models.RecordID{Table: "concordance", ID: "c1"},
		"user_id":        models.RecordID{Table: "user", ID: "u1"},
		"firstname":      "Ada",
		"created_on":     models.CustomDateTime{Time: created},
	}

	p, err := decodeRecord[model.Panelist](data, panelistLinks...)
	require.NoError(t, err)
	assert.Equal(t, "panelist:42", p.ID)
	assert.Equal(t, "concordance:c1", p.ConcordanceID)
	require.NotNil(t, p.UserID)
	assert.Equal(t, "user:u1", *p.UserID)
	assert.Equal(t, "Ada", p.Firstname)
	assert.True(t, created.Equal(p.CreatedOn))
	assert.Equal(t, "Panelist-42", p.AccountName())
}

func TestDecodeRecord_MissingLinkStaysNil(t *testing.T) {
	p, err := decodeRecord[model.Panelist](map[string]interface{}{"id": "panelist:1"}, panelistLinks...)
	require.NoError(t, err)
	assert.Nil(t, p.UserID)
	assert.False(t, p.IsProvisioned())
}

func TestGetOne_MissingIsNil(t *testing.T) {
	role, err := getOne[model.Role](nil, database.ErrNotFound)
	require.NoError(t, err)
	assert.Nil(t, role)

	_, err = getOne[model.Role](nil, database.ErrConnection)
	assert.ErrorIs(t, err, database.ErrConnection)
}

func TestIsUniqueConstraintError(t *testing.T) {
	assert.True(t, isUniqueConstraintError(database.ErrDuplicate))
	assert.False(t, isUniqueConstraintError(assert.AnError))
	assert.False(t, isUniqueConstraintError(nil))
}
