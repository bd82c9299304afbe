package serializer

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testArtifact struct {
	Path      string `json:"path" yaml:"path"`
	SizeBytes int64  `json:"sizeBytes" yaml:"sizeBytes"`
}

func testData() []testArtifact {
	return []testArtifact{
		{Path: "junit-rbac.xml", SizeBytes: 2048},
		{Path: "logs/iqe.log", SizeBytes: 512},
	}
}

func TestSerialize_JSON(t *testing.T) {
	var buf bytes.Buffer
	err := NewWriter(FormatJSON, &buf).Serialize(context.Background(), testData())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"path": "junit-rbac.xml"`)
	assert.Contains(t, out, `"sizeBytes": 2048`)
}

func TestSerialize_YAML(t *testing.T) {
	var buf bytes.Buffer
	err := NewWriter(FormatYAML, &buf).Serialize(context.Background(), testData())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "- path: junit-rbac.xml")
	assert.Contains(t, out, "sizeBytes: 512")
}

func TestSerialize_Table(t *testing.T) {
	var buf bytes.Buffer
	err := NewWriter(FormatTable, &buf).Serialize(context.Background(), testData())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "FIELD")
	assert.Contains(t, out, "VALUE")
	assert.Contains(t, out, "[0].path")
	assert.Contains(t, out, "junit-rbac.xml")
	assert.Contains(t, out, "[1].sizeBytes")
}

func TestSerialize_TableNested(t *testing.T) {
	type inner struct {
		Count int `json:"count"`
	}
	type outer struct {
		Name  string `json:"name"`
		Inner inner  `json:"inner"`
	}

	var buf bytes.Buffer
	err := NewWriter(FormatTable, &buf).Serialize(context.Background(), outer{Name: "run", Inner: inner{Count: 3}})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "inner.count")
	assert.Contains(t, out, "name")
}

func TestSerialize_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := NewWriter(Format("xml"), &buf).Serialize(context.Background(), testData())
	assert.Error(t, err)
}

func TestSerialize_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := NewWriter(FormatJSON, &buf).Serialize(ctx, testData())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, buf.String())
}

func TestFormat_IsUnknown(t *testing.T) {
	assert.False(t, FormatYAML.IsUnknown())
	assert.False(t, FormatJSON.IsUnknown())
	assert.False(t, FormatTable.IsUnknown())
	assert.True(t, Format("xml").IsUnknown())
	assert.True(t, Format("").IsUnknown())
}
