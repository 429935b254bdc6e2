package webui

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/class-inspect/internal/refgraph"
	"github.com/class-inspect/pkg/compression"
	"github.com/class-inspect/pkg/model"
	"github.com/class-inspect/pkg/utils"
)

const (
	mainDisassembly    = "public class com/example/Main\n  minor version: 0\n  major version: 52\n"
	stringsDisassembly = "public class com/example/util/Strings\n  minor version: 0\n  major version: 61\n"
	oldDisassembly     = "class legacy/Old\n  minor version: 0\n  major version: 48\n"
)

func writeFixtureFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func writeJSONFixture(t *testing.T, path string, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	writeFixtureFile(t, path, data)
}

// writeScanFixture lays out one scan directory the way the scanner
// writes it: report, per-class summaries, disassembly in all three
// compression states, and the gzipped reference graph.
func writeScanFixture(t *testing.T, dir string, root string) {
	t.Helper()

	report := &model.ScanReport{
		Root:          root,
		StartedAt:     time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		ClassesFound:  3,
		ClassesParsed: 3,
		Artifacts: []string{
			"classes/com/example/Main.txt",
			"classes/com/example/Main.json",
			refGraphName,
		},
	}
	report.Complete(report.StartedAt.Add(2 * time.Second))
	writeJSONFixture(t, filepath.Join(dir, reportName), report)

	classes := filepath.Join(dir, classesDirName)
	writeJSONFixture(t, filepath.Join(classes, "com", "example", "Main.json"), &model.ClassSummary{
		ClassName:    "com/example/Main",
		SuperClass:   "java/lang/Object",
		MajorVersion: 52,
		JavaRelease:  "Java 8",
	})
	writeJSONFixture(t, filepath.Join(classes, "com", "example", "util", "Strings.json"), &model.ClassSummary{
		ClassName:    "com/example/util/Strings",
		SuperClass:   "java/lang/Object",
		MajorVersion: 61,
		JavaRelease:  "Java 17",
	})
	writeJSONFixture(t, filepath.Join(classes, "legacy", "Old.json"), &model.ClassSummary{
		ClassName:    "legacy/Old",
		SuperClass:   "java/lang/Object",
		MajorVersion: 48,
		JavaRelease:  "Java 1.4",
	})

	writeFixtureFile(t, filepath.Join(classes, "com", "example", "Main.txt"), []byte(mainDisassembly))

	zc, err := compression.New(compression.TypeZstd, compression.LevelDefault)
	require.NoError(t, err)
	defer compression.Close(zc)
	compressed, err := zc.Compress([]byte(stringsDisassembly))
	require.NoError(t, err)
	writeFixtureFile(t, filepath.Join(classes, "com", "example", "util", "Strings.txt.zst"), compressed)

	gzipped, err := compression.NewGzipCompressor(compression.LevelDefault).Compress([]byte(oldDisassembly))
	require.NoError(t, err)
	writeFixtureFile(t, filepath.Join(classes, "legacy", "Old.txt.gz"), gzipped)

	// legacy/Old is deliberately left out of the graph.
	graph := refgraph.NewRefGraph()
	graph.AddNode("com/example/Main", true)
	graph.AddNode("com/example/util/Strings", true)
	graph.AddEdge("com/example/Main", "com/example/util/Strings", refgraph.KindUses)
	graph.AddEdge("com/example/Main", "java/lang/Object", refgraph.KindExtends)
	graph.Classes = 2
	_, err = refgraph.WriteGzipFile(graph, filepath.Join(dir, refGraphName))
	require.NoError(t, err)
}

func newTestServer(t *testing.T, dataDir string) *Server {
	t.Helper()
	return NewServer(dataDir, 8080, &utils.NullLogger{})
}

func get(t *testing.T, handler http.HandlerFunc, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestServer_HandleIndex(t *testing.T) {
	server := newTestServer(t, t.TempDir())

	rec := get(t, server.handleIndex, "/")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "class-inspect")
	assert.Contains(t, rec.Body.String(), server.dataDir)
}

func TestServer_HandleListScans(t *testing.T) {
	t.Run("SingleScanLayout", func(t *testing.T) {
		dataDir := t.TempDir()
		writeScanFixture(t, dataDir, "/srv/corpus")
		server := newTestServer(t, dataDir)

		rec := get(t, server.handleListScans, "/api/scans")

		require.Equal(t, http.StatusOK, rec.Code)
		var scans []ScanInfo
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &scans))
		require.Len(t, scans, 1)
		assert.Equal(t, "", scans[0].ID)
		assert.True(t, scans[0].HasReport)
	})

	t.Run("MultiScanNewestFirst", func(t *testing.T) {
		dataDir := t.TempDir()
		writeScanFixture(t, filepath.Join(dataDir, "nightly"), "/srv/old")
		writeScanFixture(t, filepath.Join(dataDir, "weekly"), "/srv/new")
		require.NoError(t, os.MkdirAll(filepath.Join(dataDir, "empty"), 0o755))
		writeFixtureFile(t, filepath.Join(dataDir, "notes.txt"), []byte("not a scan"))

		old := time.Now().Add(-3 * time.Hour)
		require.NoError(t, os.Chtimes(filepath.Join(dataDir, "empty"), old, old))
		require.NoError(t, os.Chtimes(filepath.Join(dataDir, "nightly"), old.Add(time.Hour), old.Add(time.Hour)))
		require.NoError(t, os.Chtimes(filepath.Join(dataDir, "weekly"), old.Add(2*time.Hour), old.Add(2*time.Hour)))

		server := newTestServer(t, dataDir)
		rec := get(t, server.handleListScans, "/api/scans")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		var scans []ScanInfo
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &scans))
		require.Len(t, scans, 3)
		assert.Equal(t, "weekly", scans[0].ID)
		assert.Equal(t, "nightly", scans[1].ID)
		assert.Equal(t, "empty", scans[2].ID)
		assert.True(t, scans[0].HasReport)
		assert.False(t, scans[2].HasReport)
	})

	t.Run("Empty", func(t *testing.T) {
		server := newTestServer(t, t.TempDir())

		rec := get(t, server.handleListScans, "/api/scans")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})
}

func TestServer_HandleReport(t *testing.T) {
	t.Run("SingleScanLayout", func(t *testing.T) {
		dataDir := t.TempDir()
		writeScanFixture(t, dataDir, "/srv/corpus")
		server := newTestServer(t, dataDir)

		rec := get(t, server.handleReport, "/api/report")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		var report model.ScanReport
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		assert.Equal(t, "/srv/corpus", report.Root)
		assert.Equal(t, 3, report.ClassesParsed)
	})

	t.Run("ExplicitScan", func(t *testing.T) {
		dataDir := t.TempDir()
		writeScanFixture(t, filepath.Join(dataDir, "nightly"), "/srv/nightly")
		server := newTestServer(t, dataDir)

		rec := get(t, server.handleReport, "/api/report?scan=nightly")

		require.Equal(t, http.StatusOK, rec.Code)
		var report model.ScanReport
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		assert.Equal(t, "/srv/nightly", report.Root)
	})

	t.Run("DefaultPicksNewest", func(t *testing.T) {
		dataDir := t.TempDir()
		writeScanFixture(t, filepath.Join(dataDir, "nightly"), "/srv/old")
		writeScanFixture(t, filepath.Join(dataDir, "weekly"), "/srv/new")

		old := time.Now().Add(-2 * time.Hour)
		require.NoError(t, os.Chtimes(filepath.Join(dataDir, "nightly"), old, old))

		server := newTestServer(t, dataDir)
		rec := get(t, server.handleReport, "/api/report")

		require.Equal(t, http.StatusOK, rec.Code)
		var report model.ScanReport
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		assert.Equal(t, "/srv/new", report.Root)
	})

	t.Run("NotFound", func(t *testing.T) {
		server := newTestServer(t, t.TempDir())
		rec := get(t, server.handleReport, "/api/report")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("InvalidScanID", func(t *testing.T) {
		server := newTestServer(t, t.TempDir())
		assert.Equal(t, http.StatusBadRequest, get(t, server.handleReport, "/api/report?scan=../evil").Code)
		assert.Equal(t, http.StatusBadRequest, get(t, server.handleReport, "/api/report?scan=..").Code)
	})
}

func TestServer_HandleListClasses(t *testing.T) {
	t.Run("SortedByName", func(t *testing.T) {
		dataDir := t.TempDir()
		writeScanFixture(t, dataDir, "/srv/corpus")
		server := newTestServer(t, dataDir)

		rec := get(t, server.handleListClasses, "/api/classes")

		require.Equal(t, http.StatusOK, rec.Code)
		var classes []string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &classes))
		assert.Equal(t, []string{
			"com/example/Main",
			"com/example/util/Strings",
			"legacy/Old",
		}, classes)
	})

	t.Run("NoClassesDir", func(t *testing.T) {
		server := newTestServer(t, t.TempDir())
		rec := get(t, server.handleListClasses, "/api/classes")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestServer_HandleClass(t *testing.T) {
	dataDir := t.TempDir()
	writeScanFixture(t, dataDir, "/srv/corpus")
	server := newTestServer(t, dataDir)

	t.Run("Success", func(t *testing.T) {
		rec := get(t, server.handleClass, "/api/class?name=com/example/Main")

		require.Equal(t, http.StatusOK, rec.Code)
		var summary model.ClassSummary
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
		assert.Equal(t, "com/example/Main", summary.ClassName)
		assert.Equal(t, "Java 8", summary.JavaRelease)
	})

	t.Run("MissingName", func(t *testing.T) {
		rec := get(t, server.handleClass, "/api/class")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("UnknownClass", func(t *testing.T) {
		rec := get(t, server.handleClass, "/api/class?name=com/example/Nope")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("TraversalContained", func(t *testing.T) {
		// The report sits one level above the classes directory. A
		// traversal in the name must not reach it.
		rec := get(t, server.handleClass, "/api/class?name=../report")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestServer_HandleDisassembly(t *testing.T) {
	dataDir := t.TempDir()
	writeScanFixture(t, dataDir, "/srv/corpus")
	server := newTestServer(t, dataDir)

	t.Run("Plain", func(t *testing.T) {
		rec := get(t, server.handleDisassembly, "/api/disassembly?name=com/example/Main")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Equal(t, mainDisassembly, rec.Body.String())
	})

	t.Run("Zstd", func(t *testing.T) {
		rec := get(t, server.handleDisassembly, "/api/disassembly?name=com/example/util/Strings")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, stringsDisassembly, rec.Body.String())
	})

	t.Run("Gzip", func(t *testing.T) {
		rec := get(t, server.handleDisassembly, "/api/disassembly?name=legacy/Old")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, oldDisassembly, rec.Body.String())
	})

	t.Run("MissingName", func(t *testing.T) {
		rec := get(t, server.handleDisassembly, "/api/disassembly")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("UnknownClass", func(t *testing.T) {
		rec := get(t, server.handleDisassembly, "/api/disassembly?name=com/example/Nope")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestServer_HandleRefGraph(t *testing.T) {
	dataDir := t.TempDir()
	writeScanFixture(t, dataDir, "/srv/corpus")
	server := newTestServer(t, dataDir)

	rec := get(t, server.handleRefGraph, "/api/refgraph")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var graph refgraph.RefGraph
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &graph))
	assert.Equal(t, 2, graph.Classes)
	assert.Len(t, graph.Nodes, 3)
	assert.Len(t, graph.Edges, 2)
}

func TestServer_HandleRefGraphStats(t *testing.T) {
	dataDir := t.TempDir()
	writeScanFixture(t, dataDir, "/srv/corpus")
	server := newTestServer(t, dataDir)

	rec := get(t, server.handleRefGraphStats, "/api/refgraph/stats")

	require.Equal(t, http.StatusOK, rec.Code)
	var stats refgraph.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 3, stats.NodeCount)
	assert.Equal(t, 2, stats.EdgeCount)
	assert.Equal(t, 2, stats.Scanned)
	assert.Equal(t, 1, stats.External)
}

func TestServer_HandleClassReferences(t *testing.T) {
	dataDir := t.TempDir()
	writeScanFixture(t, dataDir, "/srv/corpus")
	server := newTestServer(t, dataDir)

	t.Run("Outgoing", func(t *testing.T) {
		rec := get(t, server.handleClassReferences, "/api/refgraph/class?name=com/example/Main")

		require.Equal(t, http.StatusOK, rec.Code)
		var refs ClassReferences
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &refs))
		require.NotNil(t, refs.Node)
		assert.Equal(t, "Main", refs.Node.Label)
		assert.Len(t, refs.Outgoing, 2)
		assert.Empty(t, refs.Incoming)
	})

	t.Run("Incoming", func(t *testing.T) {
		rec := get(t, server.handleClassReferences, "/api/refgraph/class?name=com/example/util/Strings")

		require.Equal(t, http.StatusOK, rec.Code)
		var refs ClassReferences
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &refs))
		require.Len(t, refs.Incoming, 1)
		assert.Equal(t, "com/example/Main", refs.Incoming[0].Source)
		assert.Equal(t, refgraph.KindUses, refs.Incoming[0].Kind)
	})

	t.Run("NotInGraph", func(t *testing.T) {
		rec := get(t, server.handleClassReferences, "/api/refgraph/class?name=legacy/Old")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("MissingName", func(t *testing.T) {
		rec := get(t, server.handleClassReferences, "/api/refgraph/class")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServer_GetDefaultScan(t *testing.T) {
	t.Run("TopLevelReport", func(t *testing.T) {
		dataDir := t.TempDir()
		writeScanFixture(t, dataDir, "/srv/corpus")
		server := newTestServer(t, dataDir)

		assert.Equal(t, "", server.getDefaultScan())
	})

	t.Run("NewestWithReport", func(t *testing.T) {
		dataDir := t.TempDir()
		writeScanFixture(t, filepath.Join(dataDir, "nightly"), "/srv/old")
		writeScanFixture(t, filepath.Join(dataDir, "weekly"), "/srv/new")
		require.NoError(t, os.MkdirAll(filepath.Join(dataDir, "scratch"), 0o755))

		old := time.Now().Add(-2 * time.Hour)
		require.NoError(t, os.Chtimes(filepath.Join(dataDir, "nightly"), old, old))
		// The newest directory has no report, so it is skipped.
		recent := time.Now().Add(time.Hour)
		require.NoError(t, os.Chtimes(filepath.Join(dataDir, "scratch"), recent, recent))

		server := newTestServer(t, dataDir)
		assert.Equal(t, "weekly", server.getDefaultScan())
	})

	t.Run("NoScans", func(t *testing.T) {
		server := newTestServer(t, t.TempDir())
		assert.Equal(t, "", server.getDefaultScan())
	})
}

func TestClassArtifactPath(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   string
		wantOK bool
	}{
		{"plain", "com/example/Foo", filepath.Join("scan", "classes", "com", "example", "Foo.txt"), true},
		{"traversal", "../../etc/passwd", filepath.Join("scan", "classes", "etc", "passwd.txt"), true},
		{"dot", ".", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := classArtifactPath("scan", tt.in, ".txt")
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
