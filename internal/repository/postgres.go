package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStatsRepository implements StatsRepository with raw SQL for
// PostgreSQL. Same queries as the MySQL variant with `$n` placeholders.
type PostgresStatsRepository struct {
	db *sql.DB
}

// NewPostgresStatsRepository creates a new PostgresStatsRepository.
func NewPostgresStatsRepository(db *sql.DB) *PostgresStatsRepository {
	return &PostgresStatsRepository{db: db}
}

// VersionHistogram counts classes per Java release for a scan.
func (r *PostgresStatsRepository) VersionHistogram(ctx context.Context, scanID int64) ([]VersionCount, error) {
	query := `
		SELECT COALESCE(java_release, ''), COUNT(*) AS classes
		FROM class_summaries
		WHERE scan_id = $1
		GROUP BY java_release
		ORDER BY classes DESC, java_release
	`

	rows, err := r.db.QueryContext(ctx, query, scanID)
	if err != nil {
		return nil, fmt.Errorf("failed to query version histogram: %w", err)
	}
	defer rows.Close()

	return scanVersionCounts(rows)
}

// TopPackages ranks packages by class count for a scan.
func (r *PostgresStatsRepository) TopPackages(ctx context.Context, scanID int64, limit int) ([]PackageCount, error) {
	query := `
		SELECT package_name, COUNT(*) AS classes, SUM(total_code_size) AS code_size
		FROM class_summaries
		WHERE scan_id = $1 AND package_name <> ''
		GROUP BY package_name
		ORDER BY classes DESC, package_name
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, scanID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top packages: %w", err)
	}
	defer rows.Close()

	return scanPackageCounts(rows)
}

// LargestClasses ranks classes by total bytecode size for a scan.
func (r *PostgresStatsRepository) LargestClasses(ctx context.Context, scanID int64, limit int) ([]ClassSize, error) {
	query := `
		SELECT class_name, total_code_size, method_count
		FROM class_summaries
		WHERE scan_id = $1
		ORDER BY total_code_size DESC, class_name
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, scanID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query largest classes: %w", err)
	}
	defer rows.Close()

	return scanClassSizes(rows)
}
