package http

import (
	"errors"
	"net/http"
	"strings"

	"stock-movement-predictor/internal/entity"
	"stock-movement-predictor/internal/predictor/dto"
	"stock-movement-predictor/internal/predictor/repository"
	"stock-movement-predictor/internal/predictor/service"
	"stock-movement-predictor/pkg/logger"

	"github.com/labstack/echo/v4"
)

// PredictHandler handles HTTP requests for predictions.
type PredictHandler struct {
	predictionService service.PredictionService
	logger            *logger.Logger
}

// NewPredictHandler creates a new PredictHandler.
func NewPredictHandler(predictionService service.PredictionService, logger *logger.Logger) *PredictHandler {
	return &PredictHandler{predictionService: predictionService, logger: logger}
}

// RegisterRoutes registers the prediction routes to the Echo group.
func (h *PredictHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/predict", h.Predict)
}

// Predict serves next-day direction predictions for every date in the
// requested inclusive range.
func (h *PredictHandler) Predict(c echo.Context) error {
	symbol := strings.ToUpper(strings.TrimSpace(c.QueryParam("symbol")))
	if symbol == "" {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "symbol is required"})
	}

	start, err := entity.ParseDate(c.QueryParam("start_date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "start_date must be YYYY-MM-DD"})
	}
	end, err := entity.ParseDate(c.QueryParam("end_date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "end_date must be YYYY-MM-DD"})
	}
	if start.After(end) {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "start_date must not be after end_date"})
	}

	resp, err := h.predictionService.Predict(c.Request().Context(), symbol, start, end)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDatasetNotFound):
			return c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "Full dataset not found."})
		case errors.Is(err, repository.ErrModelNotFound):
			return c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "Model not found."})
		case errors.Is(err, service.ErrEmptyRange):
			return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "No feature-engineered data in range"})
		}
		h.logger.Error("Prediction failed",
			logger.StringField("symbol", symbol),
			logger.StringField("start", start.String()),
			logger.StringField("end", end.String()),
			logger.ErrorField(err),
		)
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal server error"})
	}

	return c.JSON(http.StatusOK, resp)
}

// Health reports service liveness.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
