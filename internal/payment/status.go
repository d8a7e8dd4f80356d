package payment

import (
	"fmt"
	"math"
	"strings"
)

// RawStatus is the payment status vocabulary used by the backend
type RawStatus string

// Backend payment statuses
const (
	RawPaid    RawStatus = "PAID"
	RawPartial RawStatus = "PARTIAL"
	RawPending RawStatus = "PENDING"
	RawOverdue RawStatus = "OVERDUE"
	RawUnpaid  RawStatus = "UNPAID"
)

// Status is the payment status shown to users
type Status string

// UI payment statuses
const (
	StatusPaid    Status = "Paid"
	StatusPartial Status = "Partial"
	StatusPending Status = "Pending"
	StatusOverdue Status = "Overdue"
)

// Statuses lists every UI status in display order
var Statuses = []Status{StatusPaid, StatusPartial, StatusPending, StatusOverdue}

// MapPaymentStatus converts a backend status into a UI status.
// Matching is case-sensitive; anything unrecognized is Pending.
func MapPaymentStatus(raw string) Status {
	switch RawStatus(raw) {
	case RawPaid:
		return StatusPaid
	case RawPartial:
		return StatusPartial
	case RawUnpaid, RawOverdue:
		return StatusOverdue
	case RawPending:
		return StatusPending
	default:
		return StatusPending
	}
}

// RiskLevel is the tier of an AI risk prediction
type RiskLevel string

// Risk tiers
const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Score thresholds on the 0-1 scale, inclusive lower bounds
const (
	highRiskThreshold   = 0.65
	mediumRiskThreshold = 0.35
)

// ParseRiskLevel matches a label case-insensitively
func ParseRiskLevel(raw string) (RiskLevel, bool) {
	switch level := RiskLevel(strings.ToUpper(raw)); level {
	case RiskLow, RiskMedium, RiskHigh:
		return level, true
	default:
		return "", false
	}
}

// NormalizeRiskLevel returns the explicit label when it is recognized and
// otherwise derives the tier from the score. Scores above 1 are read as
// percentages.
func NormalizeRiskLevel(raw string, score float64) RiskLevel {
	if level, ok := ParseRiskLevel(raw); ok {
		return level
	}

	normalized := normalizeScore(score)
	switch {
	case normalized >= highRiskThreshold:
		return RiskHigh
	case normalized >= mediumRiskThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}

func normalizeScore(score float64) float64 {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0
	}
	if score > 1 {
		return score / 100
	}
	return score
}

// DisplayRiskScore formats a score as a whole percentage between 0% and 100%
func DisplayRiskScore(score float64) string {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		score = 0
	}
	percent := score
	if score <= 1 {
		percent = score * 100
	}
	percent = math.Max(0, math.Min(100, percent))
	return fmt.Sprintf("%d%%", int(math.Round(percent)))
}
