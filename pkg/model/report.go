package model

import "time"

// ScanFailure records one file that could not be read or parsed.
type ScanFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// ScanReport is the end-of-scan document: what was walked, what parsed,
// what failed, and the aggregated statistics.
type ScanReport struct {
	Root           string        `json:"root"`
	StartedAt      time.Time     `json:"started_at"`
	CompletedAt    time.Time     `json:"completed_at"`
	DurationMS     int64         `json:"duration_ms"`
	ClassesFound   int           `json:"classes_found"`
	ClassesParsed  int           `json:"classes_parsed"`
	ClassesSkipped int           `json:"classes_skipped,omitempty"`
	FindingCount   int           `json:"finding_count"`
	Failures       []ScanFailure `json:"failures,omitempty"`
	Stats          *CorpusStats  `json:"stats,omitempty"`
	Artifacts      []string      `json:"artifacts,omitempty"`
}

// AddFailure appends one failed path with its error text.
func (r *ScanReport) AddFailure(path string, err error) {
	r.Failures = append(r.Failures, ScanFailure{Path: path, Error: err.Error()})
}

// Complete stamps the end time and duration.
func (r *ScanReport) Complete(now time.Time) {
	r.CompletedAt = now
	r.DurationMS = now.Sub(r.StartedAt).Milliseconds()
}

// FailureRate returns the fraction of found classes that failed to
// parse, between 0 and 1.
func (r *ScanReport) FailureRate() float64 {
	if r.ClassesFound == 0 {
		return 0
	}
	return float64(len(r.Failures)) / float64(r.ClassesFound)
}

// CorpusStats aggregates statistics across every class in a scan.
type CorpusStats struct {
	Classes        int              `json:"classes"`
	Fields         int              `json:"fields"`
	Methods        int              `json:"methods"`
	TotalCodeSize  int64            `json:"total_code_size"`
	VersionCounts  map[string]int   `json:"version_counts,omitempty"`
	OpcodeCounts   map[string]int64 `json:"opcode_counts,omitempty"`
	LargestMethods []MethodSize     `json:"largest_methods,omitempty"`
}

// MethodSize identifies one method and its bytecode size, used for the
// largest-methods ranking.
type MethodSize struct {
	Class      string `json:"class"`
	Method     string `json:"method"`
	Descriptor string `json:"descriptor"`
	CodeSize   int    `json:"code_size"`
}
