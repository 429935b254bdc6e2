package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// MySQLStatsRepository implements StatsRepository with raw SQL for
// MySQL. The GORM repositories cover row-at-a-time access; the
// aggregate queries here run as plain SQL so the GROUP BY plans stay
// visible and tunable. Placeholders are the MySQL `?` style, which
// sqlite also accepts.
type MySQLStatsRepository struct {
	db *sql.DB
}

// NewMySQLStatsRepository creates a new MySQLStatsRepository.
func NewMySQLStatsRepository(db *sql.DB) *MySQLStatsRepository {
	return &MySQLStatsRepository{db: db}
}

// VersionHistogram counts classes per Java release for a scan.
func (r *MySQLStatsRepository) VersionHistogram(ctx context.Context, scanID int64) ([]VersionCount, error) {
	query := `
		SELECT COALESCE(java_release, ''), COUNT(*) AS classes
		FROM class_summaries
		WHERE scan_id = ?
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
func (r *MySQLStatsRepository) TopPackages(ctx context.Context, scanID int64, limit int) ([]PackageCount, error) {
	query := `
		SELECT package_name, COUNT(*) AS classes, SUM(total_code_size) AS code_size
		FROM class_summaries
		WHERE scan_id = ? AND package_name <> ''
		GROUP BY package_name
		ORDER BY classes DESC, package_name
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, scanID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top packages: %w", err)
	}
	defer rows.Close()

	return scanPackageCounts(rows)
}

// LargestClasses ranks classes by total bytecode size for a scan.
func (r *MySQLStatsRepository) LargestClasses(ctx context.Context, scanID int64, limit int) ([]ClassSize, error) {
	query := `
		SELECT class_name, total_code_size, method_count
		FROM class_summaries
		WHERE scan_id = ?
		ORDER BY total_code_size DESC, class_name
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, scanID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query largest classes: %w", err)
	}
	defer rows.Close()

	return scanClassSizes(rows)
}
