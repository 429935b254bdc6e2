package statistics

import (
	"github.com/class-inspect/pkg/model"
)

// CorpusCalculator aggregates per-class summaries into corpus
// statistics: totals, the Java release histogram, and the largest
// methods. Opcode counts come from the OpcodeCalculator and are filled
// in by the caller.
type CorpusCalculator struct {
	topMethods *TopMethodsCalculator
}

// NewCorpusCalculator creates a new CorpusCalculator. Options configure
// the embedded top-methods calculation.
func NewCorpusCalculator(opts ...TopMethodsOption) *CorpusCalculator {
	return &CorpusCalculator{
		topMethods: NewTopMethodsCalculator(opts...),
	}
}

// Calculate aggregates the given summaries. Nil entries are skipped, so
// the slice can carry failed parses as nils.
func (c *CorpusCalculator) Calculate(classes []*model.ClassSummary) *model.CorpusStats {
	stats := &model.CorpusStats{
		VersionCounts: make(map[string]int),
	}

	for _, class := range classes {
		if class == nil {
			continue
		}
		stats.Classes++
		stats.Fields += class.FieldCount()
		stats.Methods += class.MethodCount()
		stats.TotalCodeSize += int64(class.TotalCodeSize)
		stats.VersionCounts[class.JavaRelease]++
	}

	stats.LargestMethods = c.topMethods.Calculate(classes)
	return stats
}
