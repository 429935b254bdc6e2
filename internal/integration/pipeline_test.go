package integration

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/class-inspect/internal/formatter"
	"github.com/class-inspect/internal/inspector"
	"github.com/class-inspect/internal/refgraph"
	"github.com/class-inspect/internal/scanner"
	"github.com/class-inspect/internal/testutil"
	"github.com/class-inspect/pkg/compression"
	"github.com/class-inspect/pkg/model"
)

// buildCorpus lays out a small class tree: a class with real bytecode,
// a plain helper class, a legacy-version class, and an archived class.
func buildCorpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	writeClassBytes(t, dir, "com/example/Main.class", mainClassBytes())
	writeClassBytes(t, dir, "com/example/Helper.class", testutil.MinimalClassBytes("com/example/Helper"))

	legacy := testutil.NewClassBuilder("legacy/Old").
		Version(48, 0).
		AddDefaultConstructor().
		SourceFile("Old.java").
		Build()
	writeClassBytes(t, dir, "legacy/Old.class", legacy)

	writeArchive(t, filepath.Join(dir, "lib", "dep.jar"), map[string][]byte{
		"org/dep/Dep.class": testutil.MinimalClassBytes("org/dep/Dep"),
	})

	return dir
}

// mainClassBytes builds a class with a constructor and a static run()
// method containing a counting loop, so the scan has real opcode
// variety and an unambiguous largest method.
func mainClassBytes() []byte {
	b := testutil.NewClassBuilder("com/example/Main")
	initRef := b.AddMethodref("java/lang/Object", "<init>", "()V")
	b.AddMethodWithCode(0x0001, "<init>", "()V", testutil.CodeSpec{
		MaxStack:  1,
		MaxLocals: 1,
		Code:      []byte{0x2a, 0xb7, byte(initRef >> 8), byte(initRef), 0xb1},
		LineNumbers: []testutil.LineNumberSpec{
			{StartPC: 0, Line: 3},
		},
	})
	b.AddMethodWithCode(0x0009, "run", "()V", testutil.CodeSpec{
		MaxStack:  2,
		MaxLocals: 2,
		Code: []byte{
			0x03,             // iconst_0
			0x3c,             // istore_1
			0x1b,             // iload_1
			0x10, 0x0a,       // bipush 10
			0xa2, 0x00, 0x09, // if_icmpge -> return
			0x84, 0x01, 0x01, // iinc 1, 1
			0xa7, 0xff, 0xf7, // goto -> loop head
			0xb1,             // return
		},
		LineNumbers: []testutil.LineNumberSpec{
			{StartPC: 0, Line: 6},
			{StartPC: 8, Line: 7},
			{StartPC: 14, Line: 9},
		},
	})
	b.SourceFile("Main.java")
	return b.Build()
}

func writeClassBytes(t *testing.T, dir, rel string, data []byte) {
	t.Helper()
	full := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, data, 0o644))
}

func writeArchive(t *testing.T, path string, members map[string][]byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, data := range members {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func runScan(t *testing.T, corpus string, configure func(*scanner.Config)) (*scanner.Result, string) {
	t.Helper()
	out := t.TempDir()
	config := scanner.DefaultConfig()
	config.OutputDir = out
	config.Workers = 2
	if configure != nil {
		configure(config)
	}
	res, err := scanner.New(config).Scan(context.Background(), corpus)
	require.NoError(t, err)
	return res, out
}

func TestFullInspectionPipeline_Directory(t *testing.T) {
	corpus := buildCorpus(t)

	// Step 1: Scan the tree
	res, out := runScan(t, corpus, nil)

	report := res.Report
	require.NotNil(t, report)
	assert.Equal(t, 4, report.ClassesFound)
	assert.Equal(t, 4, report.ClassesParsed)
	assert.Empty(t, report.Failures)
	assert.Len(t, res.Summaries, 4)

	// The legacy class is old enough to trip the version advisory.
	assert.Greater(t, report.FindingCount, 0)

	// Step 2: Verify corpus statistics
	stats := report.Stats
	require.NotNil(t, stats)
	assert.Equal(t, 4, stats.Classes)
	assert.Equal(t, 5, stats.Methods)
	assert.Equal(t, 3, stats.VersionCounts["Java 8"])
	assert.Equal(t, 1, stats.VersionCounts["Java 1.4"])
	assert.Greater(t, stats.OpcodeCounts["iinc"], int64(0))
	assert.Greater(t, stats.OpcodeCounts["if_icmpge"], int64(0))
	require.NotEmpty(t, stats.LargestMethods)
	assert.Equal(t, "com/example/Main", stats.LargestMethods[0].Class)
	assert.Equal(t, "run", stats.LargestMethods[0].Method)
	assert.Equal(t, 15, stats.LargestMethods[0].CodeSize)

	// Step 3: Verify the reference graph
	graph := res.Graph
	require.NotNil(t, graph)
	assert.Equal(t, 4, graph.Classes)
	assert.True(t, hasEdge(graph, "com/example/Main", "java/lang/Object", refgraph.KindExtends))
	assert.True(t, hasEdge(graph, "com/example/Main", "java/lang/Object", refgraph.KindMethod))

	// Step 4: Verify every artifact landed on disk
	assert.Contains(t, report.Artifacts, "classes/com/example/Main.txt")
	assert.Contains(t, report.Artifacts, "classes/com/example/Main.json")
	assert.Contains(t, report.Artifacts, "classes/org/dep/Dep.txt")
	assert.Contains(t, report.Artifacts, "refgraph.json.gz")
	for _, rel := range report.Artifacts {
		_, err := os.Stat(filepath.Join(out, filepath.FromSlash(rel)))
		assert.NoError(t, err, rel)
	}

	t.Logf("Report: %d found, %d parsed, %d findings", report.ClassesFound, report.ClassesParsed, report.FindingCount)
	t.Logf("Stats: %d methods, %d distinct opcodes", stats.Methods, len(stats.OpcodeCounts))
	t.Logf("Graph: %d nodes, %d edges", len(graph.Nodes), len(graph.Edges))
}

func TestFullInspectionPipeline_ArchiveRoot(t *testing.T) {
	dir := t.TempDir()
	jar := filepath.Join(dir, "app.jar")
	writeArchive(t, jar, map[string][]byte{
		"com/app/Entry.class":         testutil.MinimalClassBytes("com/app/Entry"),
		"com/app/internal/Util.class": testutil.MinimalClassBytes("com/app/internal/Util"),
		"META-INF/MANIFEST.MF":        []byte("Manifest-Version: 1.0\n"),
	})

	// Scanning a single archive walks its members like a directory.
	res, _ := runScan(t, jar, nil)

	report := res.Report
	assert.Equal(t, 2, report.ClassesFound)
	assert.Equal(t, 2, report.ClassesParsed)
	assert.Len(t, res.Summaries, 2)

	graph := res.Graph
	require.NotNil(t, graph)
	assert.True(t, hasEdge(graph, "com/app/Entry", "java/lang/Object", refgraph.KindExtends))
}

func TestRefGraphArtifact_GzipJSON(t *testing.T) {
	corpus := buildCorpus(t)
	res, out := runScan(t, corpus, nil)

	f, err := os.Open(filepath.Join(out, "refgraph.json.gz"))
	require.NoError(t, err)
	defer f.Close()

	gzReader, err := gzip.NewReader(f)
	require.NoError(t, err)
	defer gzReader.Close()

	decompressed, err := io.ReadAll(gzReader)
	require.NoError(t, err)

	var graph refgraph.RefGraph
	require.NoError(t, json.Unmarshal(decompressed, &graph))

	assert.Equal(t, res.Graph.Classes, graph.Classes)
	assert.Len(t, graph.Nodes, len(res.Graph.Nodes))
	assert.Len(t, graph.Edges, len(res.Graph.Edges))
	assert.True(t, hasEdge(&graph, "legacy/Old", "java/lang/Object", refgraph.KindExtends))
}

func TestDisassemblyArtifact_Zstd(t *testing.T) {
	corpus := buildCorpus(t)
	_, out := runScan(t, corpus, func(config *scanner.Config) {
		config.Compress = true
		config.CompressionType = compression.TypeZstd
	})

	data, err := os.ReadFile(filepath.Join(out, "classes", "com", "example", "Main.txt.zst"))
	require.NoError(t, err)

	text, err := compression.AutoDecompress(data)
	require.NoError(t, err)

	output := string(text)
	assert.Contains(t, output, "public class com/example/Main")
	assert.Contains(t, output, "  major version: 52\n")
	assert.Contains(t, output, "public static run;")
	assert.Contains(t, output, "iinc")
	assert.Contains(t, output, "if_icmpge")
	assert.Contains(t, output, "SourceFile: \"Main.java\"")
}

func TestDisassemblyArtifact_Gzip(t *testing.T) {
	corpus := buildCorpus(t)
	_, out := runScan(t, corpus, func(config *scanner.Config) {
		config.Compress = true
		config.CompressionType = compression.TypeGzip
	})

	data, err := os.ReadFile(filepath.Join(out, "classes", "com", "example", "Helper.txt.gz"))
	require.NoError(t, err)

	// AutoDecompress sniffs the magic bytes, so the same read-back
	// path serves both compression types.
	text, err := compression.AutoDecompress(data)
	require.NoError(t, err)
	assert.Contains(t, string(text), "public class com/example/Helper")
}

func TestSummaryArtifact_JSON(t *testing.T) {
	corpus := buildCorpus(t)
	_, out := runScan(t, corpus, nil)

	data, err := os.ReadFile(filepath.Join(out, "classes", "com", "example", "Main.json"))
	require.NoError(t, err)

	var summary model.ClassSummary
	require.NoError(t, json.Unmarshal(data, &summary))

	assert.Equal(t, "com/example/Main", summary.ClassName)
	assert.Equal(t, "java/lang/Object", summary.SuperClass)
	assert.Equal(t, uint16(52), summary.MajorVersion)
	assert.Equal(t, "Main.java", summary.SourceFile)
	assert.Len(t, summary.Methods, 2)

	// The persisted report is the same document the scan returned.
	data, err = os.ReadFile(filepath.Join(out, "report.json"))
	require.NoError(t, err)
	var report model.ScanReport
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, 4, report.ClassesParsed)
	assert.Equal(t, corpus, report.Root)
}

func TestInspectAndFormat_SingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Main.class")
	require.NoError(t, os.WriteFile(path, mainClassBytes(), 0o644))

	result, err := inspector.New(nil).InspectFile(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, result.Summary)

	registry := formatter.NewRegistry()

	var text bytes.Buffer
	require.NoError(t, registry.Format(&text, formatter.FormatText, result))
	assert.Contains(t, text.String(), "public class com/example/Main")
	assert.Contains(t, text.String(), "run")

	var jsonOut bytes.Buffer
	require.NoError(t, registry.Format(&jsonOut, formatter.FormatJSON, result))
	var summary model.ClassSummary
	require.NoError(t, json.Unmarshal(jsonOut.Bytes(), &summary))
	assert.Equal(t, "com/example/Main", summary.ClassName)

	var brief bytes.Buffer
	require.NoError(t, registry.Format(&brief, formatter.FormatSummary, result))
	assert.Contains(t, brief.String(), "com/example/Main")
}

func hasEdge(g *refgraph.RefGraph, source, target, kind string) bool {
	for _, e := range g.Edges {
		if e.Source == source && e.Target == target && e.Kind == kind {
			return true
		}
	}
	return false
}
