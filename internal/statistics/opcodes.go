package statistics

import (
	"context"
	"sync"

	"github.com/class-inspect/internal/bytecode"
	"github.com/class-inspect/internal/classfile"
	"github.com/class-inspect/pkg/parallel"
)

// OpcodeCalculator counts opcode occurrences across method bodies. Code
// blobs are collected while classes stream through a scan, then decoded
// and counted in one parallel pass. Add methods are safe for concurrent
// use. Wide forms count under their base mnemonic.
type OpcodeCalculator struct {
	config parallel.PoolConfig

	mu    sync.Mutex
	blobs [][]byte
}

// OpcodeOption configures the OpcodeCalculator.
type OpcodeOption func(*OpcodeCalculator)

// WithPoolConfig sets the worker pool configuration for the counting
// pass.
func WithPoolConfig(config parallel.PoolConfig) OpcodeOption {
	return func(c *OpcodeCalculator) {
		c.config = config
	}
}

// NewOpcodeCalculator creates a new OpcodeCalculator.
func NewOpcodeCalculator(opts ...OpcodeOption) *OpcodeCalculator {
	c := &OpcodeCalculator{
		config: parallel.DefaultPoolConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Add collects one method body.
func (c *OpcodeCalculator) Add(code []byte) {
	if len(code) == 0 {
		return
	}
	c.mu.Lock()
	c.blobs = append(c.blobs, code)
	c.mu.Unlock()
}

// AddClass collects the bodies of every method that carries code.
func (c *OpcodeCalculator) AddClass(cf *classfile.ClassFile) {
	for idx := range cf.Methods {
		code, err := cf.Methods[idx].Code(cf.ConstantPool)
		if err != nil || code == nil {
			continue
		}
		c.Add(code.Code)
	}
}

// Blobs returns the number of collected method bodies.
func (c *OpcodeCalculator) Blobs() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.blobs)
}

// Count decodes all collected bodies and returns the mnemonic
// histogram. Each body decodes independently, so the pass map-reduces
// over the collected blobs. A malformed body contributes the
// instructions decoded before the error.
func (c *OpcodeCalculator) Count(ctx context.Context) map[string]int64 {
	c.mu.Lock()
	blobs := c.blobs
	c.mu.Unlock()

	if len(blobs) == 0 {
		return make(map[string]int64)
	}

	return parallel.MapReduce(ctx, blobs, c.config,
		func(ctx context.Context, code []byte) map[string]int64 {
			counts := make(map[string]int64)
			it := bytecode.NewIterator(code)
			for it.Next() {
				counts[it.Instruction().Mnemonic()]++
			}
			return counts
		},
		func(mapped []map[string]int64) map[string]int64 {
			merged := make(map[string]int64)
			for _, counts := range mapped {
				for mnemonic, n := range counts {
					merged[mnemonic] += n
				}
			}
			return merged
		})
}
