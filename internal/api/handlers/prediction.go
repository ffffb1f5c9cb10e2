package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/hdb-resale-go/internal/collector"
	"github.com/irfndi/hdb-resale-go/internal/features"
	"github.com/irfndi/hdb-resale-go/internal/logging"
	"github.com/irfndi/hdb-resale-go/internal/middleware"
	"github.com/irfndi/hdb-resale-go/internal/models"
	"github.com/irfndi/hdb-resale-go/internal/pipeline"
	"github.com/irfndi/hdb-resale-go/internal/utils"
)

// PredictionRunner is the pipeline as seen by the HTTP layer.
type PredictionRunner interface {
	Run(ctx context.Context, requestID string, req models.PredictionRequest) (*pipeline.Result, error)
	Strategy() features.Strategy
	ModelVersion() string
}

type PredictionHandler struct {
	runner PredictionRunner
	logger logging.Logger
}

type PredictionResponse struct {
	Price          string                 `json:"price"`
	PriceFormatted string                 `json:"price_formatted"`
	Strategy       string                 `json:"strategy"`
	ModelVersion   string                 `json:"model_version"`
	RequestID      string                 `json:"request_id"`
	PredictionID   string                 `json:"prediction_id"`
	Cached         bool                   `json:"cached"`
	Specifications []models.Specification `json:"specifications"`
	DroppedColumns []string               `json:"dropped_columns,omitempty"`
}

type ErrorResponse struct {
	Error     string   `json:"error"`
	Details   []string `json:"details,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}

type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type NumericRange struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Default float64 `json:"default,omitempty"`
	Step    float64 `json:"step"`
	Unit    string  `json:"unit"`
	// Optional inputs may be omitted from a prediction request.
	Optional bool `json:"optional,omitempty"`
}

type OptionsResponse struct {
	Categorical  map[string][]Choice     `json:"categorical"`
	Numeric      map[string]NumericRange `json:"numeric"`
	Defaults     models.PredictionRequest `json:"defaults"`
	Strategy     string                  `json:"strategy"`
	ModelVersion string                  `json:"model_version"`
}

func NewPredictionHandler(runner PredictionRunner, logger logging.Logger) *PredictionHandler {
	if logger == nil {
		logger = logging.NewStandardLoggerWithWriter(io.Discard, "error", "")
	}
	return &PredictionHandler{runner: runner, logger: logger}
}

// Predict handles POST /api/v1/predict.
func (h *PredictionHandler) Predict(c *gin.Context) {
	requestID := middleware.GetRequestID(c)

	var req models.PredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:     "Invalid request body",
			Details:   []string{err.Error()},
			RequestID: requestID,
		})
		return
	}

	res, err := h.runner.Run(c.Request.Context(), requestID, req)
	if err != nil {
		status := statusFor(err)
		resp := ErrorResponse{Error: pipeline.UserMessage(err), RequestID: requestID}
		if status == http.StatusBadRequest {
			resp.Error = "Invalid input"
			resp.Details = pipeline.ValidationMessages(err)
		}
		if status == http.StatusInternalServerError {
			middleware.RecordError(c, err, "prediction failed")
			h.logger.WithRequestID(requestID).Error("Prediction request failed",
				"path", c.FullPath(), "status", status, "error", err.Error())
		}
		c.JSON(status, resp)
		return
	}

	middleware.AddSpanAttribute(c, "prediction.cached", res.Cached)
	c.JSON(http.StatusOK, PredictionResponse{
		Price:          res.Price.StringFixed(2),
		PriceFormatted: FormatCurrency(res.Price),
		Strategy:       res.Strategy,
		ModelVersion:   res.ModelVersion,
		RequestID:      res.RequestID,
		PredictionID:   res.ID,
		Cached:         res.Cached,
		Specifications: res.Record.Specifications(),
		DroppedColumns: res.Dropped,
	})
}

// Options handles GET /api/v1/options.
func (h *PredictionHandler) Options(c *gin.Context) {
	c.JSON(http.StatusOK, OptionsResponse{
		Categorical: map[string][]Choice{
			models.FieldTown:        choices(models.DomainStrings(models.Towns())),
			models.FieldFlatType:    choices(models.DomainStrings(models.FlatTypes())),
			models.FieldStoreyRange: choices(models.DomainStrings(models.StoreyRanges())),
			models.FieldFlatModel:   choices(models.DomainStrings(models.FlatModels())),
		},
		Numeric: map[string]NumericRange{
			models.ColumnFloorArea: {
				Min: models.MinFloorAreaSqm, Max: models.MaxFloorAreaSqm,
				Default: models.DefaultFloorAreaSqm, Step: 1, Unit: "sqm",
			},
			models.ColumnRemainingLease: {
				Min: models.MinRemainingLease, Max: models.MaxRemainingLease,
				Default: models.DefaultRemainingLease, Step: 1, Unit: "years",
			},
			models.ColumnAgeOfFlat: {
				Min: 0, Max: models.MaxAgeOfFlat, Step: 1, Unit: "years", Optional: true,
			},
			models.ColumnDistanceToMRT: {
				Min: 0, Max: models.MaxDistanceToMRTMetres, Step: 10, Unit: "m", Optional: true,
			},
		},
		Defaults:     collector.Defaults(),
		Strategy:     string(h.runner.Strategy()),
		ModelVersion: h.runner.ModelVersion(),
	})
}

func choices(values []string) []Choice {
	out := make([]Choice, len(values))
	for i, v := range values {
		out[i] = Choice{Value: v, Label: DisplayLabel(v)}
	}
	return out
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	var (
		validation *utils.ValidationError
		unknown    *utils.UnknownCategoryError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &unknown):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
