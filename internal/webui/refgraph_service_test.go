package webui

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/class-inspect/internal/refgraph"
	apperrors "github.com/class-inspect/pkg/errors"
)

// writeGraphFixture writes a minimal gzipped reference graph into dir.
func writeGraphFixture(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))

	graph := refgraph.NewRefGraph()
	graph.AddNode("com/example/Main", true)
	graph.AddEdge("com/example/Main", "java/lang/Object", refgraph.KindExtends)
	graph.Classes = 1

	_, err := refgraph.WriteGzipFile(graph, filepath.Join(dir, refGraphName))
	require.NoError(t, err)
}

func TestRefGraphService_ClassReferences(t *testing.T) {
	dataDir := t.TempDir()
	writeGraphFixture(t, filepath.Join(dataDir, "nightly"))
	service := NewRefGraphService(dataDir)

	t.Run("Success", func(t *testing.T) {
		refs, err := service.ClassReferences("nightly", "com/example/Main")
		require.NoError(t, err)
		require.NotNil(t, refs.Node)
		assert.Equal(t, "com/example/Main", refs.Node.ID)
		assert.True(t, refs.Node.Scanned)
		require.Len(t, refs.Outgoing, 1)
		assert.Equal(t, "java/lang/Object", refs.Outgoing[0].Target)
		assert.Empty(t, refs.Incoming)
	})

	t.Run("ExternalNode", func(t *testing.T) {
		refs, err := service.ClassReferences("nightly", "java/lang/Object")
		require.NoError(t, err)
		assert.False(t, refs.Node.Scanned)
		assert.Len(t, refs.Incoming, 1)
	})

	t.Run("UnknownClass", func(t *testing.T) {
		_, err := service.ClassReferences("nightly", "com/example/Nope")
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
		assert.Contains(t, err.Error(), "not in reference graph")
	})

	t.Run("MissingGraph", func(t *testing.T) {
		_, err := service.ClassReferences("absent", "com/example/Main")
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
		assert.Contains(t, err.Error(), "reference graph not found")
	})
}

func TestRefGraphService_GraphStats(t *testing.T) {
	dataDir := t.TempDir()
	writeGraphFixture(t, dataDir)
	service := NewRefGraphService(dataDir)

	// An empty scan ID reads the data directory itself.
	stats, err := service.GraphStats("")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.NodeCount)
	assert.Equal(t, 1, stats.EdgeCount)
	assert.Equal(t, 1, stats.Scanned)
	assert.Equal(t, 1, stats.External)
}

func TestRefGraphService_CacheReuse(t *testing.T) {
	dataDir := t.TempDir()
	writeGraphFixture(t, filepath.Join(dataDir, "nightly"))
	service := NewRefGraphService(dataDir)

	_, err := service.GraphStats("nightly")
	require.NoError(t, err)

	// Once loaded, the graph is served from memory even if the file
	// disappears.
	require.NoError(t, os.Remove(filepath.Join(dataDir, "nightly", refGraphName)))
	_, err = service.GraphStats("nightly")
	assert.NoError(t, err)

	service.ClearCache()
	_, err = service.GraphStats("nightly")
	assert.Error(t, err)
}

func TestRefGraphService_CacheEviction(t *testing.T) {
	dataDir := t.TempDir()
	service := NewRefGraphService(dataDir)

	for i := 0; i < service.maxCacheSize+2; i++ {
		scanID := fmt.Sprintf("scan-%d", i)
		writeGraphFixture(t, filepath.Join(dataDir, scanID))
		_, err := service.GraphStats(scanID)
		require.NoError(t, err)
	}

	service.mu.RLock()
	defer service.mu.RUnlock()
	assert.LessOrEqual(t, len(service.cache), service.maxCacheSize)
}

func TestRefGraphService_HasRefGraph(t *testing.T) {
	dataDir := t.TempDir()
	writeGraphFixture(t, filepath.Join(dataDir, "nightly"))
	service := NewRefGraphService(dataDir)

	assert.True(t, service.HasRefGraph("nightly"))
	assert.False(t, service.HasRefGraph("absent"))
	assert.False(t, service.HasRefGraph(""))
}
