// Package repository provides database persistence for scan reports
// and class summaries.
package repository

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/class-inspect/pkg/model"
)

// ScanRecord represents the scan_reports table. One row per completed
// scan, with the aggregate statistics and artifact list stored as JSON.
type ScanRecord struct {
	ID             int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Root           string    `gorm:"column:root;type:varchar(512)"`
	StartedAt      time.Time `gorm:"column:started_at"`
	CompletedAt    time.Time `gorm:"column:completed_at"`
	DurationMS     int64     `gorm:"column:duration_ms"`
	ClassesFound   int       `gorm:"column:classes_found"`
	ClassesParsed  int       `gorm:"column:classes_parsed"`
	ClassesSkipped int       `gorm:"column:classes_skipped"`
	FindingCount   int       `gorm:"column:finding_count"`
	Failures       JSONField `gorm:"column:failures;type:json"`
	Stats          JSONField `gorm:"column:stats;type:json"`
	Artifacts      JSONField `gorm:"column:artifacts;type:json"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the table name for ScanRecord.
func (ScanRecord) TableName() string {
	return "scan_reports"
}

// NewScanRecord converts a scan report into its database row.
func NewScanRecord(report *model.ScanReport) (*ScanRecord, error) {
	record := &ScanRecord{
		Root:           report.Root,
		StartedAt:      report.StartedAt,
		CompletedAt:    report.CompletedAt,
		DurationMS:     report.DurationMS,
		ClassesFound:   report.ClassesFound,
		ClassesParsed:  report.ClassesParsed,
		ClassesSkipped: report.ClassesSkipped,
		FindingCount:   report.FindingCount,
	}

	var err error
	if len(report.Failures) > 0 {
		if record.Failures, err = json.Marshal(report.Failures); err != nil {
			return nil, err
		}
	}
	if report.Stats != nil {
		if record.Stats, err = json.Marshal(report.Stats); err != nil {
			return nil, err
		}
	}
	if len(report.Artifacts) > 0 {
		if record.Artifacts, err = json.Marshal(report.Artifacts); err != nil {
			return nil, err
		}
	}

	return record, nil
}

// ToModel converts ScanRecord to model.ScanReport.
func (r *ScanRecord) ToModel() (*model.ScanReport, error) {
	report := &model.ScanReport{
		Root:           r.Root,
		StartedAt:      r.StartedAt,
		CompletedAt:    r.CompletedAt,
		DurationMS:     r.DurationMS,
		ClassesFound:   r.ClassesFound,
		ClassesParsed:  r.ClassesParsed,
		ClassesSkipped: r.ClassesSkipped,
		FindingCount:   r.FindingCount,
	}

	if r.Failures != nil {
		if err := json.Unmarshal(r.Failures, &report.Failures); err != nil {
			return nil, err
		}
	}

	if r.Stats != nil {
		if err := json.Unmarshal(r.Stats, &report.Stats); err != nil {
			return nil, err
		}
	}

	if r.Artifacts != nil {
		if err := json.Unmarshal(r.Artifacts, &report.Artifacts); err != nil {
			return nil, err
		}
	}

	return report, nil
}

// ClassRecord represents the class_summaries table. One row per parsed
// class, keyed by the scan it belongs to. The scalar columns exist for
// SQL aggregation; Summary holds the full document.
type ClassRecord struct {
	ID            int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ScanID        int64     `gorm:"column:scan_id;index:idx_scan_class"`
	ClassName     string    `gorm:"column:class_name;type:varchar(512);index:idx_scan_class"`
	PackageName   string    `gorm:"column:package_name;type:varchar(512);index"`
	JavaRelease   string    `gorm:"column:java_release;type:varchar(32)"`
	MajorVersion  uint16    `gorm:"column:major_version"`
	SizeBytes     int64     `gorm:"column:size_bytes"`
	FieldCount    int       `gorm:"column:field_count"`
	MethodCount   int       `gorm:"column:method_count"`
	TotalCodeSize int       `gorm:"column:total_code_size"`
	FindingCount  int       `gorm:"column:finding_count"`
	Summary       JSONField `gorm:"column:summary;type:json"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the table name for ClassRecord.
func (ClassRecord) TableName() string {
	return "class_summaries"
}

// NewClassRecord converts a class summary into its database row.
func NewClassRecord(scanID int64, summary *model.ClassSummary) (*ClassRecord, error) {
	doc, err := json.Marshal(summary)
	if err != nil {
		return nil, err
	}

	return &ClassRecord{
		ScanID:        scanID,
		ClassName:     summary.ClassName,
		PackageName:   packageName(summary.ClassName),
		JavaRelease:   summary.JavaRelease,
		MajorVersion:  summary.MajorVersion,
		SizeBytes:     summary.SizeBytes,
		FieldCount:    summary.FieldCount(),
		MethodCount:   summary.MethodCount(),
		TotalCodeSize: summary.TotalCodeSize,
		FindingCount:  len(summary.Findings),
		Summary:       doc,
	}, nil
}

// ToModel converts ClassRecord to model.ClassSummary.
func (r *ClassRecord) ToModel() (*model.ClassSummary, error) {
	summary := &model.ClassSummary{}
	if r.Summary == nil {
		return nil, errors.New("class record has no summary document")
	}
	if err := json.Unmarshal(r.Summary, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// packageName extracts the package part of a binary class name, empty
// for classes in the default package.
func packageName(className string) string {
	if i := strings.LastIndexByte(className, '/'); i >= 0 {
		return className[:i]
	}
	return ""
}

// JSONField is a custom type for handling JSON columns in GORM.
type JSONField []byte

// Value implements driver.Valuer interface.
func (j JSONField) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return []byte(j), nil
}

// Scan implements sql.Scanner interface.
func (j *JSONField) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		*j = append((*j)[0:0], v...)
		return nil
	case string:
		*j = []byte(v)
		return nil
	default:
		return errors.New("unsupported type for JSONField")
	}
}

// MarshalJSON implements json.Marshaler interface.
func (j JSONField) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON implements json.Unmarshaler interface.
func (j *JSONField) UnmarshalJSON(data []byte) error {
	if data == nil || string(data) == "null" {
		*j = nil
		return nil
	}
	*j = append((*j)[0:0], data...)
	return nil
}
