package dto

import (
	"stock-movement-predictor/internal/entity"
)

// Prediction direction values.
const (
	DirectionUp          = "UP"
	DirectionDown        = "DOWN"
	DirectionUnavailable = "N/A"
)

// Prediction source tags.
const (
	SourcePredicted        = "predicted"
	SourceInsufficientData = "insufficient_data"
)

// PredictionItem is one per-date prediction in the response.
type PredictionItem struct {
	Date       string `json:"date"`
	Prediction string `json:"prediction"`
	Source     string `json:"source"`
}

// PredictResponse is the body of a successful prediction request.
type PredictResponse struct {
	Symbol        string                     `json:"symbol"`
	StartDate     string                     `json:"start_date"`
	EndDate       string                     `json:"end_date"`
	Predictions   []PredictionItem           `json:"predictions"`
	Top15Features []entity.FeatureImportance `json:"top_15_features"`
}
