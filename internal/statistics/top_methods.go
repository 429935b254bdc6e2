// Package statistics computes corpus-level statistics over scanned
// class files.
package statistics

import (
	"sort"

	"github.com/class-inspect/pkg/model"
)

// TopMethodsCalculator finds the largest methods by bytecode size.
type TopMethodsCalculator struct {
	topN         int
	initializers bool
}

// TopMethodsOption configures the TopMethodsCalculator.
type TopMethodsOption func(*TopMethodsCalculator)

// WithTopN sets the number of methods to return.
func WithTopN(n int) TopMethodsOption {
	return func(c *TopMethodsCalculator) {
		c.topN = n
	}
}

// WithInitializers includes or excludes <init> and <clinit> bodies.
// Included by default, since generated static initializers are the
// usual source of oversized methods.
func WithInitializers(include bool) TopMethodsOption {
	return func(c *TopMethodsCalculator) {
		c.initializers = include
	}
}

// NewTopMethodsCalculator creates a new TopMethodsCalculator.
func NewTopMethodsCalculator(opts ...TopMethodsOption) *TopMethodsCalculator {
	c := &TopMethodsCalculator{
		topN:         15,
		initializers: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Calculate returns the top methods across the given classes, sorted by
// code size descending. Methods without a Code attribute are ignored.
func (c *TopMethodsCalculator) Calculate(classes []*model.ClassSummary) []model.MethodSize {
	entries := make([]model.MethodSize, 0)

	for _, class := range classes {
		if class == nil {
			continue
		}
		for _, m := range class.Methods {
			if m.CodeSize == 0 {
				continue
			}
			if !c.initializers && isInitializer(m.Name) {
				continue
			}
			entries = append(entries, model.MethodSize{
				Class:      class.ClassName,
				Method:     m.Name,
				Descriptor: m.Descriptor,
				CodeSize:   m.CodeSize,
			})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CodeSize > entries[j].CodeSize
	})

	topN := c.topN
	if topN > len(entries) {
		topN = len(entries)
	}
	return entries[:topN]
}

func isInitializer(name string) bool {
	return name == "<init>" || name == "<clinit>"
}
