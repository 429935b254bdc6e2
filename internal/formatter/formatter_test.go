package formatter

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/class-inspect/internal/inspector"
	"github.com/class-inspect/internal/testutil"
	"github.com/class-inspect/pkg/model"
)

func inspectFixture(t *testing.T, data []byte) *inspector.Result {
	t.Helper()
	result, err := inspector.New(nil).InspectBytes(context.Background(), data)
	require.NoError(t, err)
	return result
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()

	assert.Equal(t, []string{FormatJSON, FormatSummary, FormatText}, r.Names())
	assert.Equal(t, FormatJSON, r.Get(FormatJSON).Name())
	assert.Equal(t, FormatText, r.Get("bogus").Name(), "unknown names fall back to text")

	_, ok := r.Lookup("bogus")
	assert.False(t, ok)
	_, ok = r.Lookup(FormatSummary)
	assert.True(t, ok)
}

func TestTextFormatter(t *testing.T) {
	result := inspectFixture(t, testutil.MinimalClassBytes("demo/Hello"))

	var buf bytes.Buffer
	require.NoError(t, NewRegistry().Format(&buf, FormatText, result))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "public class demo/Hello\n"))
	assert.Contains(t, out, "Constant pool:")
	assert.Contains(t, out, "    Code:")
}

func TestJSONFormatter(t *testing.T) {
	result := inspectFixture(t, testutil.MinimalClassBytes("demo/Hello"))

	var buf bytes.Buffer
	require.NoError(t, NewRegistry().Format(&buf, FormatJSON, result))

	assert.True(t, strings.HasSuffix(buf.String(), "}\n"))

	var summary model.ClassSummary
	require.NoError(t, json.Unmarshal(buf.Bytes(), &summary))
	assert.Equal(t, "demo/Hello", summary.ClassName)
	assert.Equal(t, uint16(52), summary.MajorVersion)
	require.Len(t, summary.Methods, 1)
	assert.Equal(t, "<init>", summary.Methods[0].Name)
}

func TestSummaryFormatter(t *testing.T) {
	result := inspectFixture(t, testutil.MinimalClassBytes("demo/Hello"))

	var buf bytes.Buffer
	require.NoError(t, NewRegistry().Format(&buf, FormatSummary, result))

	out := buf.String()
	assert.Contains(t, out, "Class:          demo/Hello\n")
	assert.Contains(t, out, "Super class:    java/lang/Object\n")
	assert.Contains(t, out, "Version:        52.0 (Java 8)\n")
	assert.Contains(t, out, "Methods:        1 (5 bytes of bytecode)\n")
	assert.NotContains(t, out, "Findings:", "clean class renders no findings block")
}

func TestSummaryFormatterFindings(t *testing.T) {
	data := testutil.NewClassBuilder("Old").
		Version(48, 0).
		AddDefaultConstructor().
		SourceFile("Old.java").
		Build()
	result := inspectFixture(t, data)
	require.NotEmpty(t, result.Findings)

	var buf bytes.Buffer
	require.NoError(t, NewRegistry().Format(&buf, FormatSummary, result))

	out := buf.String()
	assert.Contains(t, out, "\nFindings:\n")
	assert.Contains(t, out, "  [warning] legacy_version: compiled for Java 1.4")
}

func TestRegistryFormatNilResult(t *testing.T) {
	var buf bytes.Buffer
	err := NewRegistry().Format(&buf, FormatText, nil)

	require.Error(t, err)
	assert.Zero(t, buf.Len())
}

func TestFormatterDegradedResults(t *testing.T) {
	r := NewRegistry()

	t.Run("text without class", func(t *testing.T) {
		err := r.Format(&bytes.Buffer{}, FormatText, &inspector.Result{})
		assert.Error(t, err)
	})

	t.Run("json without summary", func(t *testing.T) {
		err := r.Format(&bytes.Buffer{}, FormatJSON, &inspector.Result{})
		assert.Error(t, err)
	})

	t.Run("summary without summary", func(t *testing.T) {
		err := r.Format(&bytes.Buffer{}, FormatSummary, &inspector.Result{})
		assert.Error(t, err)
	})
}
