// Package inspector drives the inspection of a single class file: read,
// parse, summarize, advise. It is the shared core behind the CLI, the
// batch scanner, and the web UI.
package inspector

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/class-inspect/internal/advisor"
	"github.com/class-inspect/internal/classfile"
	"github.com/class-inspect/pkg/model"
	"github.com/class-inspect/pkg/telemetry"
	"github.com/class-inspect/pkg/utils"
)

// tracerName identifies inspection spans when tracing is enabled.
const tracerName = "class-inspect/inspector"

// Config holds configuration for the inspector.
type Config struct {
	// ParserOptions configures the class file parser.
	ParserOptions *classfile.ParserOptions

	// Rules overrides the advisory rule set. Nil selects the default
	// rules.
	Rules []advisor.Rule

	// Logger is used for debug logging and timing summaries. If nil,
	// both are suppressed.
	Logger utils.Logger
}

// DefaultConfig returns default inspector configuration.
func DefaultConfig() *Config {
	return &Config{
		ParserOptions: classfile.DefaultParserOptions(),
	}
}

// Inspector parses class files and derives summaries and findings.
type Inspector struct {
	config  *Config
	parser  *classfile.Parser
	advisor *advisor.Advisor
}

// New creates a new Inspector.
func New(config *Config) *Inspector {
	if config == nil {
		config = DefaultConfig()
	}

	adv := advisor.NewAdvisor()
	if config.Rules != nil {
		adv = advisor.NewAdvisorWithRules(config.Rules)
	}

	return &Inspector{
		config:  config,
		parser:  classfile.NewParser(config.ParserOptions),
		advisor: adv,
	}
}

// Result is the outcome of inspecting one class file.
type Result struct {
	// Path is the origin of the class bytes, when known.
	Path string

	// Size is the class file size in bytes.
	Size int64

	// Class is the parsed class file, available for further processing
	// such as disassembly.
	Class *classfile.ClassFile

	// Summary is the serializable condensed view, findings included.
	Summary *model.ClassSummary

	// Findings are the advisory findings, shared with Summary.Findings.
	Findings []model.Finding
}

// InspectFile reads and inspects the class file at path.
func (i *Inspector) InspectFile(ctx context.Context, path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read class file: %w", err)
	}

	result, err := i.InspectBytes(ctx, data)
	if err != nil {
		return nil, err
	}
	result.Path = path
	result.Summary.Path = path
	return result, nil
}

// InspectReader reads all input and inspects it as a class file.
func (i *Inspector) InspectReader(ctx context.Context, r io.Reader) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return i.InspectBytes(ctx, data)
}

// InspectBytes inspects raw class file bytes.
func (i *Inspector) InspectBytes(ctx context.Context, data []byte) (*Result, error) {
	timer := utils.NewTimer("Inspect", utils.WithLogger(i.config.Logger), utils.WithEnabled(i.config.Logger != nil))

	var span trace.Span
	if telemetry.Enabled() {
		ctx, span = otel.Tracer(tracerName).Start(ctx, "inspector.InspectBytes")
		defer span.End()
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pt := timer.Start("Parse class file")
	cf, err := i.parser.Parse(data)
	pt.Stop()
	if err != nil {
		if span != nil {
			span.RecordError(err)
		}
		return nil, err
	}

	var summary *model.ClassSummary
	timer.TimeFunc("Summarize", func() {
		summary = Summarize(cf)
	})
	summary.SizeBytes = int64(len(data))

	var findings []model.Finding
	timer.TimeFunc("Advise", func() {
		findings = i.advisor.Advise(&advisor.RuleContext{Class: cf})
	})
	summary.Findings = findings

	if span != nil {
		span.SetAttributes(
			attribute.String("class.name", summary.ClassName),
			attribute.Int64("class.size_bytes", summary.SizeBytes),
			attribute.Int("class.findings", len(findings)),
		)
	}

	if i.config.Logger != nil {
		i.config.Logger.Debug("inspected %s: %d fields, %d methods, %d findings",
			summary.ClassName, summary.FieldCount(), summary.MethodCount(), len(findings))
	}
	timer.PrintSummary()

	return &Result{
		Size:     int64(len(data)),
		Class:    cf,
		Summary:  summary,
		Findings: findings,
	}, nil
}
