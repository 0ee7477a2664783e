package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"stock-movement-predictor/internal/entity"
	"stock-movement-predictor/pkg/logger"

	"github.com/patrickmn/go-cache"
)

// modelRepository loads per-symbol classifier artifacts from
// {MODEL_DIR}/{SYMBOL}_gbdt.json and keeps parsed artifacts in an
// in-memory TTL cache; artifacts only change when retrained out of band.
type modelRepository struct {
	dir   string
	log   *logger.Logger
	cache *cache.Cache
}

// NewModelRepository creates a file-backed ModelRepository with the given
// cache TTL.
func NewModelRepository(dir string, cacheTTL time.Duration, log *logger.Logger) ModelRepository {
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &modelRepository{
		dir:   dir,
		log:   log,
		cache: cache.New(cacheTTL, 2*cacheTTL),
	}
}

func (r *modelRepository) Get(ctx context.Context, symbol string) (*entity.ModelArtifact, error) {
	key := strings.ToUpper(symbol)
	if cached, ok := r.cache.Get(key); ok {
		return cached.(*entity.ModelArtifact), nil
	}

	path := filepath.Join(r.dir, fmt.Sprintf("%s_gbdt.json", key))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrModelNotFound
		}
		return nil, fmt.Errorf("failed to read model artifact for %s: %w", symbol, err)
	}

	var artifact entity.ModelArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("failed to parse model artifact for %s: %w", symbol, err)
	}
	if err := artifact.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model artifact for %s: %w", symbol, err)
	}

	r.cache.SetDefault(key, &artifact)
	r.log.Info("Loaded model artifact",
		logger.StringField("symbol", symbol),
		logger.IntField("trees", len(artifact.Trees)),
		logger.IntField("features", len(artifact.FeatureNames)),
	)
	return &artifact, nil
}
