package config

import (
	"os"
	"path/filepath"
	"testing"

	stderrors "errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/e-plus-healthcare-alliance/schemas/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.False(t, cfg.Graph.Partial)
	assert.False(t, cfg.Graph.Exhaustive)
	assert.Equal(t, UnknownPreserve, cfg.Codec.UnknownFields)
	assert.Equal(t, "annotation_sets", cfg.Store.Bucket)
	assert.NoError(t, cfg.Validate())
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
graph:
  partial: true
  exhaustive: true
codec:
  unknown_fields: drop
  validate_schema: true
store:
  url: nats://localhost:4222
  bucket: test_sets
`))
	require.NoError(t, err)

	assert.True(t, cfg.Graph.Partial)
	assert.True(t, cfg.Graph.Exhaustive)
	assert.Equal(t, UnknownDrop, cfg.Codec.UnknownFields)
	assert.True(t, cfg.Codec.ValidateSchema)
	assert.Equal(t, "test_sets", cfg.Store.Bucket)
}

func TestParse_AbsentFieldsKeepDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`graph: {partial: true}`))
	require.NoError(t, err)

	assert.True(t, cfg.Graph.Partial)
	assert.Equal(t, UnknownPreserve, cfg.Codec.UnknownFields)
	assert.Equal(t, "annotation_sets", cfg.Store.Bucket)
}

func TestParse_RejectsBadPolicy(t *testing.T) {
	_, err := Parse([]byte(`codec: {unknown_fields: explode}`))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrInvalidConfig))
}

func TestParse_RejectsMalformedYAML(t *testing.T) {
	_, err := Parse([]byte(`graph: [not a map`))
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`codec: {unknown_fields: drop}`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, UnknownDrop, cfg.Codec.UnknownFields)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
