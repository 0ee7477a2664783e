package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testArtifactJSON = `{
  "symbol": "AAPL",
  "feature_names": ["lag_1_close", "RSI"],
  "base_score": 0.1,
  "trees": [
    {
      "nodes": [
        {"feature": 1, "threshold": 50, "left": 1, "right": 2},
        {"value": -1.5},
        {"value": 2.0}
      ]
    }
  ],
  "feature_importances": [
    {"feature": "RSI", "importance": 120},
    {"feature": "lag_1_close", "importance": 40}
  ]
}`

func writeArtifact(t *testing.T, dir, symbol, content string) {
	t.Helper()
	path := filepath.Join(dir, symbol+"_gbdt.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestModelRepositoryGet(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "AAPL", testArtifactJSON)
	repo := NewModelRepository(dir, time.Minute, testLogger(t))

	artifact, err := repo.Get(context.Background(), "aapl")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", artifact.Symbol)
	assert.Equal(t, []string{"lag_1_close", "RSI"}, artifact.FeatureNames)
	require.Len(t, artifact.Trees, 1)

	// RSI 30 routes left, RSI 70 routes right
	assert.Equal(t, 0, artifact.Predict([]float64{100, 30}))
	assert.Equal(t, 1, artifact.Predict([]float64{100, 70}))
}

func TestModelRepositoryCaches(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "AAPL", testArtifactJSON)
	repo := NewModelRepository(dir, time.Minute, testLogger(t))

	first, err := repo.Get(context.Background(), "AAPL")
	require.NoError(t, err)

	// removing the file must not evict the cached artifact
	require.NoError(t, os.Remove(filepath.Join(dir, "AAPL_gbdt.json")))

	second, err := repo.Get(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestModelRepositoryErrors(t *testing.T) {
	dir := t.TempDir()
	repo := NewModelRepository(dir, time.Minute, testLogger(t))

	t.Run("missing artifact", func(t *testing.T) {
		_, err := repo.Get(context.Background(), "MSFT")
		assert.ErrorIs(t, err, ErrModelNotFound)
	})

	t.Run("malformed artifact", func(t *testing.T) {
		writeArtifact(t, dir, "BAD", `{"symbol": "BAD"`)
		_, err := repo.Get(context.Background(), "BAD")
		assert.Error(t, err)
	})

	t.Run("structurally invalid artifact", func(t *testing.T) {
		writeArtifact(t, dir, "EMPTY", `{"symbol": "EMPTY", "feature_names": ["RSI"], "trees": []}`)
		_, err := repo.Get(context.Background(), "EMPTY")
		assert.Error(t, err)
	})
}
