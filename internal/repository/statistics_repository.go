package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/sma-score-portal/internal/models"
)

// StatisticsRepository persists published per-plan statistics documents.
type StatisticsRepository struct {
	db *sqlx.DB
}

// NewStatisticsRepository constructs the repository.
func NewStatisticsRepository(db *sqlx.DB) *StatisticsRepository {
	return &StatisticsRepository{db: db}
}

type statisticsRow struct {
	PlanKey  string         `db:"plan_key"`
	Document types.JSONText `db:"document"`
}

func (row statisticsRow) decode() (*models.PlanStatistics, error) {
	var stats models.PlanStatistics
	if err := row.Document.Unmarshal(&stats); err != nil {
		return nil, fmt.Errorf("decode statistics %s: %w", row.PlanKey, err)
	}
	if stats.PlanKey == "" {
		stats.PlanKey = row.PlanKey
	}
	return &stats, nil
}

// Get returns the published statistics of a plan or sql.ErrNoRows.
func (r *StatisticsRepository) Get(ctx context.Context, planKey string) (*models.PlanStatistics, error) {
	var row statisticsRow
	if err := r.db.GetContext(ctx, &row, `SELECT plan_key, document FROM study_plan_stats WHERE plan_key = $1`, planKey); err != nil {
		return nil, err
	}
	return row.decode()
}

// List returns every published statistics document keyed by plan.
func (r *StatisticsRepository) List(ctx context.Context) (map[string]models.PlanStatistics, error) {
	var rows []statisticsRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT plan_key, document FROM study_plan_stats ORDER BY plan_key ASC`); err != nil {
		return nil, fmt.Errorf("list statistics: %w", err)
	}
	result := make(map[string]models.PlanStatistics, len(rows))
	for _, row := range rows {
		stats, err := row.decode()
		if err != nil {
			return nil, err
		}
		result[row.PlanKey] = *stats
	}
	return result, nil
}

// Replace writes the full document of a plan, discarding the previous one.
func (r *StatisticsRepository) Replace(ctx context.Context, stats models.PlanStatistics) error {
	payload, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode statistics %s: %w", stats.PlanKey, err)
	}
	const query = `INSERT INTO study_plan_stats (plan_key, document, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (plan_key)
DO UPDATE SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, stats.PlanKey, types.JSONText(payload), stats.UpdatedAt); err != nil {
		return fmt.Errorf("replace statistics %s: %w", stats.PlanKey, err)
	}
	return nil
}
