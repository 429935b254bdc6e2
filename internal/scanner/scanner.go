// Package scanner walks directory trees and archives for class files
// and inspects them in parallel. A scan produces per-class artifacts,
// a scan report, corpus statistics, and a class reference graph.
package scanner

import (
	"context"
	"path"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/class-inspect/internal/inspector"
	"github.com/class-inspect/internal/refgraph"
	"github.com/class-inspect/internal/statistics"
	"github.com/class-inspect/pkg/compression"
	"github.com/class-inspect/pkg/filter"
	"github.com/class-inspect/pkg/model"
	"github.com/class-inspect/pkg/parallel"
	"github.com/class-inspect/pkg/telemetry"
	"github.com/class-inspect/pkg/utils"
)

const tracerName = "class-inspect/scanner"

// Uploader pushes finished artifacts to object storage. Satisfied by
// storage.Storage.
type Uploader interface {
	UploadFile(ctx context.Context, key string, localPath string) error
}

// Recorder persists scan results, typically to the database.
type Recorder interface {
	RecordScan(ctx context.Context, report *model.ScanReport, summaries []*model.ClassSummary) error
}

// Config holds scanner configuration.
type Config struct {
	// OutputDir is where artifacts are written. Empty disables
	// artifact writing and the scan is report-only.
	OutputDir string

	// Workers caps the parse pool size. Zero uses the pool default.
	Workers int

	// ScanArchives descends into .jar and .war archives.
	ScanArchives bool

	// IncludePrefixes and ExcludePrefixes restrict the scan by class
	// name prefix. Dotted and slash-separated forms both work.
	IncludePrefixes []string
	ExcludePrefixes []string

	// WriteDisassembly and WriteSummaries select per-class artifacts.
	WriteDisassembly bool
	WriteSummaries   bool

	// Compress compresses disassembly artifacts with CompressionType.
	Compress        bool
	CompressionType compression.Type

	// TopMethods bounds the largest-methods ranking. Zero uses the
	// statistics default.
	TopMethods int

	// GraphOptions configures reference graph extraction.
	GraphOptions *refgraph.Options

	// Inspector configures parsing and advisory rules.
	Inspector *inspector.Config

	// Uploader, when set, receives every artifact after the scan,
	// keyed under UploadPrefix.
	Uploader     Uploader
	UploadPrefix string

	// Recorder, when set, persists the report and summaries.
	Recorder Recorder

	// OnProgress receives parse progress updates. The final call
	// always reports the completed total.
	OnProgress func(completed, total int64)

	Logger utils.Logger
	Clock  utils.Clock
}

// DefaultConfig returns the default scanner configuration.
func DefaultConfig() *Config {
	return &Config{
		ScanArchives:     true,
		WriteDisassembly: true,
		WriteSummaries:   true,
		CompressionType:  compression.TypeZstd,
		Clock:            utils.NewRealClock(),
	}
}

// Scanner inspects every class file under a root and aggregates the
// results.
type Scanner struct {
	config    *Config
	logger    utils.Logger
	filter    *filter.ClassFilter
	inspector *inspector.Inspector
}

// New creates a Scanner. A nil config uses defaults.
func New(config *Config) *Scanner {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Clock == nil {
		config.Clock = utils.NewRealClock()
	}

	logger := config.Logger
	if logger == nil {
		logger = &utils.NullLogger{}
	}

	f := filter.NewClassFilter()
	f.SetIncludePrefixes(config.IncludePrefixes)
	f.SetExcludePrefixes(config.ExcludePrefixes)

	return &Scanner{
		config:    config,
		logger:    logger,
		filter:    f,
		inspector: inspector.New(config.Inspector),
	}
}

// Result bundles everything a scan produces.
type Result struct {
	Report    *model.ScanReport
	Graph     *refgraph.RefGraph
	Summaries []*model.ClassSummary
}

// entryOutcome is what one worker produces for one entry.
type entryOutcome struct {
	res       *inspector.Result
	artifacts []string
	skipped   bool
}

// Scan discovers, parses, and aggregates every class file under root.
// Per-file problems become report failures; only scan-level problems
// return an error.
func (s *Scanner) Scan(ctx context.Context, root string) (*Result, error) {
	timer := utils.NewTimer("scan",
		utils.WithLogger(s.config.Logger),
		utils.WithEnabled(s.config.Logger != nil),
	)

	var span trace.Span
	if telemetry.Enabled() {
		ctx, span = otel.Tracer(tracerName).Start(ctx, "scanner.Scan")
		defer span.End()
		span.SetAttributes(attribute.String("scan.root", root))
	}

	pt := timer.Start("Discover class files")
	fileSet, err := Discover(root, s.config.ScanArchives)
	pt.Stop()
	if err != nil {
		if span != nil {
			span.RecordError(err)
		}
		return nil, err
	}
	defer fileSet.Close()

	s.logger.Info("Scanning %s: %d class files", root, len(fileSet.Entries))

	report := &model.ScanReport{
		Root:         root,
		StartedAt:    s.config.Clock.Now(),
		ClassesFound: len(fileSet.Entries),
		Failures:     append([]model.ScanFailure(nil), fileSet.Failures...),
	}

	var arts *artifactWriter
	if s.config.OutputDir != "" {
		arts, err = newArtifactWriter(s.config)
		if err != nil {
			if span != nil {
				span.RecordError(err)
			}
			return nil, err
		}
		defer arts.Close()
	}

	opcodes := statistics.NewOpcodeCalculator()
	outcomes := s.parseAll(ctx, timer, fileSet.Entries, arts, opcodes)

	// A canceled scan has partially filled results; report nothing.
	if err := ctx.Err(); err != nil {
		if span != nil {
			span.RecordError(err)
		}
		return nil, err
	}

	pt = timer.Start("Aggregate results")
	graphBuilder := refgraph.NewBuilder(s.config.GraphOptions)
	summaries := make([]*model.ClassSummary, 0, len(outcomes))
	for i, out := range outcomes {
		entry := fileSet.Entries[i]
		switch {
		case out.Error != nil:
			report.AddFailure(entry.Path, out.Error)
		case out.Result.skipped:
			report.ClassesSkipped++
		default:
			res := out.Result.res
			report.ClassesParsed++
			report.FindingCount += len(res.Findings)
			summaries = append(summaries, res.Summary)
			if err := graphBuilder.Add(res.Class); err != nil {
				s.logger.Warn("Skipping %s in reference graph: %v", entry.Path, err)
			}
			report.Artifacts = append(report.Artifacts, out.Result.artifacts...)
		}
	}
	pt.Stop()

	timer.TimeFunc("Compute statistics", func() {
		var opts []statistics.TopMethodsOption
		if s.config.TopMethods > 0 {
			opts = append(opts, statistics.WithTopN(s.config.TopMethods))
		}
		stats := statistics.NewCorpusCalculator(opts...).Calculate(summaries)
		stats.OpcodeCounts = opcodes.Count(ctx)
		report.Stats = stats
	})

	var graph *refgraph.RefGraph
	timer.TimeFunc("Build reference graph", func() {
		graph = graphBuilder.Build()
		graph.Name = root
	})

	report.Complete(s.config.Clock.Now())

	if arts != nil {
		pt = timer.Start("Write scan artifacts")
		err = arts.writeScanArtifacts(report, graph)
		pt.Stop()
		if err != nil {
			if span != nil {
				span.RecordError(err)
			}
			return nil, err
		}
	}

	if s.config.Uploader != nil && arts != nil {
		pt = timer.Start("Upload artifacts")
		s.uploadArtifacts(ctx, report)
		pt.Stop()
	}

	// Persistence failures should not discard a finished scan.
	if s.config.Recorder != nil {
		if err := s.config.Recorder.RecordScan(ctx, report, summaries); err != nil {
			s.logger.Warn("Failed to record scan: %v", err)
		}
	}

	if span != nil {
		span.SetAttributes(
			attribute.Int("scan.classes_found", report.ClassesFound),
			attribute.Int("scan.classes_parsed", report.ClassesParsed),
			attribute.Int("scan.failures", len(report.Failures)),
		)
	}

	s.logger.Info("Scan complete: %d parsed, %d skipped, %d failed, %d findings",
		report.ClassesParsed, report.ClassesSkipped, len(report.Failures), report.FindingCount)
	timer.PrintSummary()

	return &Result{Report: report, Graph: graph, Summaries: summaries}, nil
}

// parseAll runs every entry through the worker pool.
func (s *Scanner) parseAll(ctx context.Context, timer *utils.Timer, entries []Entry, arts *artifactWriter, opcodes *statistics.OpcodeCalculator) []parallel.TaskResult[Entry, *entryOutcome] {
	if len(entries) == 0 {
		return nil
	}

	tracker := parallel.NewProgressTracker(int64(len(entries)), s.config.OnProgress, 0)
	tracker.Start(ctx)
	defer tracker.Stop()

	poolConfig := parallel.DefaultPoolConfig()
	if s.config.Workers > 0 {
		poolConfig = poolConfig.WithWorkers(s.config.Workers)
	}
	pool := parallel.NewWorkerPool[Entry, *entryOutcome](poolConfig)

	pt := timer.Start("Parse class files")
	results := pool.ExecuteFunc(ctx, entries, func(ctx context.Context, entry Entry) (*entryOutcome, error) {
		defer tracker.Increment()
		return s.processEntry(ctx, entry, arts, opcodes)
	})
	pt.Stop()

	if s.config.OnProgress != nil {
		s.config.OnProgress(tracker.Completed(), int64(len(entries)))
	}

	return results
}

// processEntry reads, inspects, and writes artifacts for one entry.
func (s *Scanner) processEntry(ctx context.Context, entry Entry, arts *artifactWriter, opcodes *statistics.OpcodeCalculator) (*entryOutcome, error) {
	data, err := entry.Read()
	if err != nil {
		return nil, err
	}

	res, err := s.inspector.InspectBytes(ctx, data)
	if err != nil {
		return nil, err
	}
	res.Path = entry.Path
	res.Summary.Path = entry.Path

	if !s.filter.Match(res.Summary.ClassName) {
		return &entryOutcome{skipped: true}, nil
	}

	opcodes.AddClass(res.Class)

	out := &entryOutcome{res: res}
	if arts != nil {
		names, err := arts.writeClassArtifacts(res)
		if err != nil {
			return nil, err
		}
		out.artifacts = names
	}
	return out, nil
}

// uploadArtifacts pushes the report and every listed artifact. Upload
// errors are logged, not fatal.
func (s *Scanner) uploadArtifacts(ctx context.Context, report *model.ScanReport) {
	names := append([]string(nil), report.Artifacts...)
	names = append(names, reportArtifact)

	uploaded := 0
	for _, rel := range names {
		key := rel
		if s.config.UploadPrefix != "" {
			key = path.Join(s.config.UploadPrefix, rel)
		}
		local := filepath.Join(s.config.OutputDir, filepath.FromSlash(rel))
		if err := s.config.Uploader.UploadFile(ctx, key, local); err != nil {
			s.logger.Error("Failed to upload %s: %v", rel, err)
			continue
		}
		uploaded++
	}
	s.logger.Info("Uploaded %d of %d scan artifacts", uploaded, len(names))
}
