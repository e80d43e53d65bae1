package serializer

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Component string   `json:"component" yaml:"component"`
	Changed   int      `json:"changed" yaml:"changed"`
	Units     []string `json:"units" yaml:"units"`
}

func TestSerializeJSON(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatJSON, &buf)
	defer w.Close()

	in := sample{Component: "nginx", Changed: 3, Units: []string{"nginx.service"}}
	require.NoError(t, w.Serialize(t.Context(), in))

	var out sample
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, in, out)
}

func TestSerializeYAML(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatYAML, &buf)
	defer w.Close()

	require.NoError(t, w.Serialize(t.Context(), sample{Component: "mysql"}))
	assert.Contains(t, buf.String(), "component: mysql")
}

func TestSerializeTable(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatTable, &buf)
	defer w.Close()

	require.NoError(t, w.Serialize(t.Context(), sample{Component: "tomcat", Changed: 2, Units: []string{"a", "b"}}))

	out := buf.String()
	assert.Contains(t, out, "FIELD")
	assert.Contains(t, out, "Component")
	assert.Contains(t, out, "tomcat")
	assert.Contains(t, out, "Units.[1]")
}

func TestSerializeTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatTable, &buf)
	defer w.Close()

	require.NoError(t, w.Serialize(t.Context(), struct{}{}))
	assert.Contains(t, buf.String(), "<empty>")
}

func TestUnknownFormatDefaultsToJSON(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(Format("xml"), &buf)
	defer w.Close()

	require.NoError(t, w.Serialize(t.Context(), sample{Component: "node"}))
	assert.True(t, strings.HasPrefix(strings.TrimSpace(buf.String()), "{"))
}

func TestNewFileWriterOrStdout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	w := NewFileWriterOrStdout(FormatJSON, path)
	require.NoError(t, w.Serialize(t.Context(), sample{Component: "harden"}))
	require.NoError(t, w.Close())

	assert.FileExists(t, path)
}

func TestFormatIsUnknown(t *testing.T) {
	assert.False(t, FormatJSON.IsUnknown())
	assert.False(t, FormatYAML.IsUnknown())
	assert.False(t, FormatTable.IsUnknown())
	assert.True(t, Format("csv").IsUnknown())
}

func TestSupportedFormats(t *testing.T) {
	assert.Equal(t, []string{"json", "yaml", "table"}, SupportedFormats())
}
