package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rentpro/portal/internal/backend"
	"github.com/rentpro/portal/internal/payment"
	"go.uber.org/zap"
)

// Backend is the part of the backend client analytics uses
type Backend interface {
	OwnerPredictions(ctx context.Context) ([]backend.Prediction, error)
	HighRiskPredictions(ctx context.Context) ([]backend.Prediction, error)
	PredictionsByLease(ctx context.Context, leaseID string) ([]backend.Prediction, error)
	GeneratePrediction(ctx context.Context, leaseID, predictionType string) (*backend.Prediction, error)
}

// FilterAll disables risk filtering
const FilterAll = "ALL"

// Prediction is a backend prediction with its display fields resolved
type Prediction struct {
	backend.Prediction
	Level        payment.RiskLevel `json:"level"`
	DisplayScore string            `json:"displayScore"`
}

// Service serves AI risk predictions to the analytics screen
type Service struct {
	logger *zap.Logger
}

// NewService creates an analytics service
func NewService(logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{logger: logger}
}

// ParseFilter returns the risk level to filter by. Only the exact labels
// LOW, MEDIUM and HIGH filter; anything else means all.
func ParseFilter(risk string) (payment.RiskLevel, bool) {
	switch level := payment.RiskLevel(risk); level {
	case payment.RiskLow, payment.RiskMedium, payment.RiskHigh:
		return level, true
	default:
		return "", false
	}
}

// Predictions returns the owner's predictions, newest first, keeping only
// those whose normalized level matches risk
func (s *Service) Predictions(ctx context.Context, client Backend, risk string) ([]Prediction, error) {
	raw, err := client.OwnerPredictions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch predictions: %w", err)
	}

	predictions := Enrich(raw)
	SortNewestFirst(predictions)

	level, ok := ParseFilter(risk)
	if !ok {
		return predictions, nil
	}

	filtered := make([]Prediction, 0, len(predictions))
	for _, p := range predictions {
		if p.Level == level {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// HighRisk returns the predictions the backend flags as high risk, newest first
func (s *Service) HighRisk(ctx context.Context, client Backend) ([]Prediction, error) {
	raw, err := client.HighRiskPredictions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch high risk predictions: %w", err)
	}

	predictions := Enrich(raw)
	SortNewestFirst(predictions)
	return predictions, nil
}

// ForLease returns the predictions for one lease, newest first
func (s *Service) ForLease(ctx context.Context, client Backend, leaseID string) ([]Prediction, error) {
	raw, err := client.PredictionsByLease(ctx, leaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch predictions for lease %s: %w", leaseID, err)
	}

	predictions := Enrich(raw)
	SortNewestFirst(predictions)
	return predictions, nil
}

// Generate asks the backend for a fresh prediction. An empty type means a
// late payment prediction.
func (s *Service) Generate(ctx context.Context, client Backend, leaseID, predictionType string) (*Prediction, error) {
	if predictionType == "" {
		predictionType = backend.PredictionLatePayment
	}

	raw, err := client.GeneratePrediction(ctx, leaseID, predictionType)
	if err != nil {
		return nil, fmt.Errorf("failed to generate prediction: %w", err)
	}

	p := enrich(*raw)
	s.logger.Info("prediction generated",
		zap.String("lease_id", leaseID),
		zap.String("type", predictionType),
		zap.String("level", string(p.Level)),
	)
	return &p, nil
}

// Enrich resolves the level and display score of each prediction
func Enrich(raw []backend.Prediction) []Prediction {
	out := make([]Prediction, len(raw))
	for i, p := range raw {
		out[i] = enrich(p)
	}
	return out
}

func enrich(p backend.Prediction) Prediction {
	return Prediction{
		Prediction:   p,
		Level:        payment.NormalizeRiskLevel(p.RiskLevel, p.RiskScore),
		DisplayScore: payment.DisplayRiskScore(p.RiskScore),
	}
}

// SortNewestFirst orders predictions by predictedAt, newest first.
// Predictions without a readable timestamp go last.
func SortNewestFirst(predictions []Prediction) {
	times := make(map[string]time.Time, len(predictions))
	for _, p := range predictions {
		if _, seen := times[p.PredictedAt]; !seen {
			times[p.PredictedAt] = parseTimestamp(p.PredictedAt)
		}
	}

	sort.SliceStable(predictions, func(i, j int) bool {
		left, right := times[predictions[i].PredictedAt], times[predictions[j].PredictedAt]
		if left.IsZero() || right.IsZero() {
			return !left.IsZero() && right.IsZero()
		}
		return left.After(right)
	})
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

func parseTimestamp(value string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
