package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/class-inspect/pkg/model"
)

// ScanRepository defines the interface for scan report operations.
type ScanRepository interface {
	// SaveScan persists a scan report and returns its database ID.
	SaveScan(ctx context.Context, report *model.ScanReport) (int64, error)

	// GetScan retrieves a scan report by its ID.
	GetScan(ctx context.Context, id int64) (*model.ScanReport, error)

	// ListScans retrieves the most recent scans, newest first.
	ListScans(ctx context.Context, limit int) ([]*ScanListing, error)

	// DeleteScan removes a scan and every class summary recorded under it.
	DeleteScan(ctx context.Context, id int64) error
}

// ClassRepository defines the interface for class summary operations.
type ClassRepository interface {
	// SaveClasses persists the class summaries of one scan.
	SaveClasses(ctx context.Context, scanID int64, summaries []*model.ClassSummary) error

	// GetClass retrieves one class summary by binary name.
	GetClass(ctx context.Context, scanID int64, className string) (*model.ClassSummary, error)

	// ListClasses retrieves a page of class summaries ordered by name.
	ListClasses(ctx context.Context, scanID int64, limit, offset int) ([]*model.ClassSummary, error)

	// CountClasses returns the number of classes recorded for a scan.
	CountClasses(ctx context.Context, scanID int64) (int64, error)
}

// StatsRepository defines the interface for aggregate corpus queries.
type StatsRepository interface {
	// VersionHistogram counts classes per Java release for a scan.
	VersionHistogram(ctx context.Context, scanID int64) ([]VersionCount, error)

	// TopPackages ranks packages by class count for a scan.
	TopPackages(ctx context.Context, scanID int64, limit int) ([]PackageCount, error)

	// LargestClasses ranks classes by total bytecode size for a scan.
	LargestClasses(ctx context.Context, scanID int64, limit int) ([]ClassSize, error)
}

// ScanListing is the abbreviated row returned by scan listings.
type ScanListing struct {
	ID            int64     `json:"id"`
	Root          string    `json:"root"`
	StartedAt     time.Time `json:"started_at"`
	DurationMS    int64     `json:"duration_ms"`
	ClassesFound  int       `json:"classes_found"`
	ClassesParsed int       `json:"classes_parsed"`
	FindingCount  int       `json:"finding_count"`
}

// VersionCount is one bucket of the version histogram.
type VersionCount struct {
	JavaRelease string `json:"java_release"`
	Classes     int    `json:"classes"`
}

// PackageCount aggregates the classes of one package.
type PackageCount struct {
	Package  string `json:"package"`
	Classes  int    `json:"classes"`
	CodeSize int64  `json:"code_size"`
}

// ClassSize is one row of the largest-classes ranking.
type ClassSize struct {
	ClassName     string `json:"class_name"`
	TotalCodeSize int    `json:"total_code_size"`
	MethodCount   int    `json:"method_count"`
}

// scanVersionCounts reads version histogram rows.
func scanVersionCounts(rows *sql.Rows) ([]VersionCount, error) {
	var counts []VersionCount
	for rows.Next() {
		var vc VersionCount
		if err := rows.Scan(&vc.JavaRelease, &vc.Classes); err != nil {
			return nil, err
		}
		counts = append(counts, vc)
	}
	return counts, rows.Err()
}

// scanPackageCounts reads package ranking rows.
func scanPackageCounts(rows *sql.Rows) ([]PackageCount, error) {
	var counts []PackageCount
	for rows.Next() {
		var pc PackageCount
		if err := rows.Scan(&pc.Package, &pc.Classes, &pc.CodeSize); err != nil {
			return nil, err
		}
		counts = append(counts, pc)
	}
	return counts, rows.Err()
}

// scanClassSizes reads largest-class rows.
func scanClassSizes(rows *sql.Rows) ([]ClassSize, error) {
	var sizes []ClassSize
	for rows.Next() {
		var cs ClassSize
		if err := rows.Scan(&cs.ClassName, &cs.TotalCodeSize, &cs.MethodCount); err != nil {
			return nil, err
		}
		sizes = append(sizes, cs)
	}
	return sizes, rows.Err()
}
