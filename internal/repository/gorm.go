package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/class-inspect/pkg/model"
	"gorm.io/gorm"
)

// GormScanRepository implements ScanRepository using GORM.
type GormScanRepository struct {
	db *gorm.DB
}

// NewGormScanRepository creates a new GormScanRepository.
func NewGormScanRepository(db *gorm.DB) *GormScanRepository {
	return &GormScanRepository{db: db}
}

// SaveScan persists a scan report and returns its database ID.
func (r *GormScanRepository) SaveScan(ctx context.Context, report *model.ScanReport) (int64, error) {
	record, err := NewScanRecord(report)
	if err != nil {
		return 0, fmt.Errorf("failed to encode scan report: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return 0, fmt.Errorf("failed to save scan report: %w", err)
	}

	return record.ID, nil
}

// GetScan retrieves a scan report by its ID.
func (r *GormScanRepository) GetScan(ctx context.Context, id int64) (*model.ScanReport, error) {
	var record ScanRecord

	err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("scan not found: %d", id)
		}
		return nil, fmt.Errorf("failed to get scan: %w", err)
	}

	report, err := record.ToModel()
	if err != nil {
		return nil, fmt.Errorf("failed to decode scan report: %w", err)
	}

	return report, nil
}

// ListScans retrieves the most recent scans, newest first.
func (r *GormScanRepository) ListScans(ctx context.Context, limit int) ([]*ScanListing, error) {
	var records []ScanRecord

	err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&records).Error

	if err != nil {
		return nil, fmt.Errorf("failed to query scans: %w", err)
	}

	listings := make([]*ScanListing, len(records))
	for i, rec := range records {
		listings[i] = &ScanListing{
			ID:            rec.ID,
			Root:          rec.Root,
			StartedAt:     rec.StartedAt,
			DurationMS:    rec.DurationMS,
			ClassesFound:  rec.ClassesFound,
			ClassesParsed: rec.ClassesParsed,
			FindingCount:  rec.FindingCount,
		}
	}

	return listings, nil
}

// DeleteScan removes a scan and every class summary recorded under it.
func (r *GormScanRepository) DeleteScan(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("scan_id = ?", id).Delete(&ClassRecord{}).Error; err != nil {
			return fmt.Errorf("failed to delete class summaries: %w", err)
		}

		result := tx.Where("id = ?", id).Delete(&ScanRecord{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete scan: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("scan not found: %d", id)
		}

		return nil
	})
}

// GormClassRepository implements ClassRepository using GORM.
type GormClassRepository struct {
	db *gorm.DB
}

// NewGormClassRepository creates a new GormClassRepository.
func NewGormClassRepository(db *gorm.DB) *GormClassRepository {
	return &GormClassRepository{db: db}
}

// SaveClasses persists the class summaries of one scan.
func (r *GormClassRepository) SaveClasses(ctx context.Context, scanID int64, summaries []*model.ClassSummary) error {
	if len(summaries) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, summary := range summaries {
			if summary == nil || summary.ClassName == "" {
				continue
			}

			record, err := NewClassRecord(scanID, summary)
			if err != nil {
				return fmt.Errorf("failed to encode class %s: %w", summary.ClassName, err)
			}

			if err := tx.Create(record).Error; err != nil {
				return fmt.Errorf("failed to insert class %s: %w", summary.ClassName, err)
			}
		}

		return nil
	})
}

// GetClass retrieves one class summary by binary name.
func (r *GormClassRepository) GetClass(ctx context.Context, scanID int64, className string) (*model.ClassSummary, error) {
	var record ClassRecord

	err := r.db.WithContext(ctx).
		Where("scan_id = ? AND class_name = ?", scanID, className).
		First(&record).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("class not found: %s", className)
		}
		return nil, fmt.Errorf("failed to get class: %w", err)
	}

	summary, err := record.ToModel()
	if err != nil {
		return nil, fmt.Errorf("failed to decode class %s: %w", className, err)
	}

	return summary, nil
}

// ListClasses retrieves a page of class summaries ordered by name.
func (r *GormClassRepository) ListClasses(ctx context.Context, scanID int64, limit, offset int) ([]*model.ClassSummary, error) {
	var records []ClassRecord

	err := r.db.WithContext(ctx).
		Where("scan_id = ?", scanID).
		Order("class_name").
		Limit(limit).
		Offset(offset).
		Find(&records).Error

	if err != nil {
		return nil, fmt.Errorf("failed to query classes: %w", err)
	}

	summaries := make([]*model.ClassSummary, len(records))
	for i, rec := range records {
		summary, err := rec.ToModel()
		if err != nil {
			return nil, fmt.Errorf("failed to decode class %s: %w", rec.ClassName, err)
		}
		summaries[i] = summary
	}

	return summaries, nil
}

// CountClasses returns the number of classes recorded for a scan.
func (r *GormClassRepository) CountClasses(ctx context.Context, scanID int64) (int64, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&ClassRecord{}).
		Where("scan_id = ?", scanID).
		Count(&count).Error

	if err != nil {
		return 0, fmt.Errorf("failed to count classes: %w", err)
	}

	return count, nil
}
