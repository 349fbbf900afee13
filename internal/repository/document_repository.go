package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
)

// DocumentRepository stores singleton configuration documents (planConfig, settings,
// displaySettings) as JSON keyed by name.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs the repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

type documentRow struct {
	Key       string         `db:"key"`
	Value     types.JSONText `db:"value"`
	UpdatedAt time.Time      `db:"updated_at"`
}

// Get decodes the document stored under key into dest. It returns sql.ErrNoRows when absent.
func (r *DocumentRepository) Get(ctx context.Context, key string, dest interface{}) error {
	var row documentRow
	if err := r.db.GetContext(ctx, &row, `SELECT key, value, updated_at FROM config_documents WHERE key = $1`, key); err != nil {
		return err
	}
	if err := row.Value.Unmarshal(dest); err != nil {
		return fmt.Errorf("decode document %s: %w", key, err)
	}
	return nil
}

// Put replaces the document stored under key.
func (r *DocumentRepository) Put(ctx context.Context, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", key, err)
	}
	row := documentRow{Key: key, Value: types.JSONText(payload), UpdatedAt: time.Now().UTC()}
	const query = `INSERT INTO config_documents (key, value, updated_at)
VALUES (:key, :value, :updated_at)
ON CONFLICT (key)
DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("put document %s: %w", key, err)
	}
	return nil
}
