package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"gridstats/internal/compare/domain/series"
)

const defaultStatisticTable = "comparison_statistics"

// StatisticRepository persists computed statistic rows. Persistence is
// optional: a run without a database URL never constructs one.
type StatisticRepository struct {
	db    *sql.DB
	table string
}

// RepositoryOption configures the repository.
type RepositoryOption func(*StatisticRepository)

// WithTable overrides the default table name.
func WithTable(table string) RepositoryOption {
	return func(r *StatisticRepository) {
		if table != "" {
			r.table = table
		}
	}
}

// NewStatisticRepository creates a repository using the default table.
func NewStatisticRepository(db *sql.DB, opts ...RepositoryOption) *StatisticRepository {
	repo := &StatisticRepository{db: db, table: defaultStatisticTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// Row is one persisted statistic value.
type Row struct {
	Entity series.Entity
	Day    series.Day
	Stat   string
	Value  float64
}

// Save upserts one statistic row on (entity, day, stat).
func (r *StatisticRepository) Save(ctx context.Context, row Row) error {
	if row.Entity == "" {
		return series.ErrEmptyEntity
	}
	if row.Day == "" {
		return series.ErrInvalidDay
	}
	if row.Stat == "" {
		return fmt.Errorf("statistic repo: empty stat column")
	}

	query := fmt.Sprintf(`
INSERT INTO %s (entity, day, stat, value, updated_at)
VALUES ($1, $2, $3, $4, NOW())
ON CONFLICT (entity, day, stat)
DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
`, r.table)

	_, err := r.db.ExecContext(ctx, query, string(row.Entity), string(row.Day), row.Stat, row.Value)
	if err != nil {
		return fmt.Errorf("statistic repo: save %s/%s/%s: %w", row.Entity, row.Day, row.Stat, err)
	}
	return nil
}

// SaveStore persists every statistic currently held by the store.
// Returns the number of rows written.
func (r *StatisticRepository) SaveStore(ctx context.Context, store *series.Store) (int, error) {
	var written int
	for _, entity := range store.Entities() {
		for _, day := range store.Days(entity) {
			for stat, value := range store.Stats(entity, day) {
				err := r.Save(ctx, Row{Entity: entity, Day: day, Stat: stat, Value: value})
				if err != nil {
					return written, err
				}
				written++
			}
		}
	}
	return written, nil
}
