package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"stock-movement-predictor/internal/entity"
	"stock-movement-predictor/internal/predictor/dto"
	"stock-movement-predictor/internal/predictor/repository"
	"stock-movement-predictor/pkg/common"
	"stock-movement-predictor/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// ErrEmptyRange is returned when the requested range yields no
// feature-engineered rows.
var ErrEmptyRange = errors.New("no feature-engineered data in range")

// PredictionService serves next-day direction predictions for a symbol
// over an inclusive date range.
type PredictionService interface {
	Predict(ctx context.Context, symbol string, start, end entity.Date) (*dto.PredictResponse, error)
}

type predictionService struct {
	reconciler  GapReconcilerService
	features    FeatureEngineeringService
	modelRepo   repository.ModelRepository
	redisClient *redis.Client
	cacheTTL    time.Duration
	log         *logger.Logger
}

// NewPredictionService creates the prediction orchestrator. redisClient
// may be nil to disable response caching.
func NewPredictionService(
	reconciler GapReconcilerService,
	features FeatureEngineeringService,
	modelRepo repository.ModelRepository,
	redisClient *redis.Client,
	cacheTTL time.Duration,
	log *logger.Logger,
) PredictionService {
	return &predictionService{
		reconciler:  reconciler,
		features:    features,
		modelRepo:   modelRepo,
		redisClient: redisClient,
		cacheTTL:    cacheTTL,
		log:         log,
	}
}

func (s *predictionService) Predict(ctx context.Context, symbol string, start, end entity.Date) (*dto.PredictResponse, error) {
	cacheKey := fmt.Sprintf("%s:%s:%s:%s", common.RedisKeyPrediction, symbol, start, end)
	if cached := s.cachedResponse(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	records, err := s.reconciler.Reconcile(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}

	// The engine consumes the whole series so rolling windows can reach
	// back before the requested range; filtering happens afterwards.
	engineered, err := s.features.Engineer(ctx, symbol, records)
	if err != nil {
		return nil, err
	}

	var inRange []entity.FeatureRow
	for _, row := range engineered {
		if row.Date.Before(start) || row.Date.After(end) {
			continue
		}
		inRange = append(inRange, row)
	}
	if len(inRange) == 0 {
		return nil, ErrEmptyRange
	}

	model, err := s.modelRepo.Get(ctx, symbol)
	if err != nil {
		return nil, err
	}

	predictions := make([]dto.PredictionItem, 0, len(inRange))
	for i := range inRange {
		predictions = append(predictions, s.predictRow(&inRange[i], model))
	}

	resp := &dto.PredictResponse{
		Symbol:        symbol,
		StartDate:     start.String(),
		EndDate:       end.String(),
		Predictions:   predictions,
		Top15Features: model.TopImportances(15),
	}

	s.cacheResponse(ctx, cacheKey, resp)
	return resp, nil
}

// predictRow resolves one date. Rows whose next-day outcome is already
// determinable report it directly; rows with incomplete features are
// reported as unavailable rather than fed to the model.
func (s *predictionService) predictRow(row *entity.FeatureRow, model *entity.ModelArtifact) dto.PredictionItem {
	item := dto.PredictionItem{Date: row.Date.String()}

	if row.Target != nil {
		item.Prediction = directionLabel(*row.Target)
		item.Source = dto.SourcePredicted
		return item
	}

	vec, ok := row.Vector(model.FeatureNames)
	if !ok {
		item.Prediction = dto.DirectionUnavailable
		item.Source = dto.SourceInsufficientData
		return item
	}

	item.Prediction = directionLabel(model.Predict(vec))
	item.Source = dto.SourcePredicted
	return item
}

func directionLabel(label int) string {
	if label == 1 {
		return dto.DirectionUp
	}
	return dto.DirectionDown
}

func (s *predictionService) cachedResponse(ctx context.Context, key string) *dto.PredictResponse {
	if s.redisClient == nil {
		return nil
	}
	raw, err := s.redisClient.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			s.log.Debug("Prediction cache read failed", logger.ErrorField(err))
		}
		return nil
	}
	var resp dto.PredictResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		s.log.Debug("Prediction cache entry invalid", logger.ErrorField(err))
		return nil
	}
	return &resp
}

func (s *predictionService) cacheResponse(ctx context.Context, key string, resp *dto.PredictResponse) {
	if s.redisClient == nil || s.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.redisClient.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
		s.log.Debug("Prediction cache write failed", logger.ErrorField(err))
	}
}
