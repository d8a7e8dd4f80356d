package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rentpro/portal/internal/payment"
	"go.uber.org/zap"
)

// ErrNoToken is returned when a login response carries no token
var ErrNoToken = errors.New("no token returned from backend")

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"accessToken"`
}

// Login exchanges credentials for a session token
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var res loginResponse
	err := c.do(ctx, http.MethodPost, c.authBaseURL+"/auth/login", loginRequest{Email: email, Password: password}, &res)
	if err != nil {
		return "", err
	}

	// Either field name is accepted
	if res.Token != "" {
		return res.Token, nil
	}
	if res.AccessToken != "" {
		return res.AccessToken, nil
	}
	return "", ErrNoToken
}

// UserProfile returns the signed-in user's profile
func (c *Client) UserProfile(ctx context.Context) (*UserProfile, error) {
	var profile UserProfile
	if err := c.get(ctx, "/api/users/me", &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// MyLeases returns the signed-in owner's leases
func (c *Client) MyLeases(ctx context.Context) ([]Lease, error) {
	var leases []Lease
	if err := c.get(ctx, "/api/leases/my-leases", &leases); err != nil {
		return nil, err
	}
	return leases, nil
}

// LeasePaymentsAll returns every payment row of a lease
func (c *Client) LeasePaymentsAll(ctx context.Context, leaseID string) ([]Payment, error) {
	var payments []Payment
	if err := c.get(ctx, "/payments/leases/"+url.PathEscape(leaseID)+"/all", &payments); err != nil {
		return nil, err
	}
	return payments, nil
}

// LeasePaymentStatus returns the raw per-month payment status of a lease.
// Depending on the backend version this is either a LeasePaymentStatus
// object or a plain payment array.
func (c *Client) LeasePaymentStatus(ctx context.Context, leaseID string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.get(ctx, "/payments/leases/"+url.PathEscape(leaseID), &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// FetchLeasePayments returns flat payment rows for a lease, falling back to
// the per-month status endpoint when the flat endpoint fails or answers null
func (c *Client) FetchLeasePayments(ctx context.Context, leaseID string) ([]Payment, error) {
	payments, err := c.LeasePaymentsAll(ctx, leaseID)
	if err == nil && payments != nil {
		return payments, nil
	}
	c.logger.Warn("falling back to lease payment status endpoint",
		zap.String("lease_id", leaseID),
		zap.Bool("null_body", err == nil),
		zap.Error(err),
	)

	raw, err := c.LeasePaymentStatus(ctx, leaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payments for lease %s: %w", leaseID, err)
	}

	return decodePaymentStatus(leaseID, raw)
}

func decodePaymentStatus(leaseID string, raw json.RawMessage) ([]Payment, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var payments []Payment
		if err := json.Unmarshal(trimmed, &payments); err != nil {
			return nil, fmt.Errorf("failed to decode payments: %w", err)
		}
		return payments, nil
	}

	var status LeasePaymentStatus
	if err := json.Unmarshal(trimmed, &status); err != nil {
		// Anything that is neither an array nor a status object has no rows
		return []Payment{}, nil
	}
	return FlattenMonths(leaseID, status.Months), nil
}

// FlattenMonths converts per-month statuses into payment rows. Nested
// payments inherit missing fields from their month; a month without
// payments becomes one row.
func FlattenMonths(leaseID string, months []MonthStatus) []Payment {
	flat := make([]Payment, 0, len(months))

	for _, m := range months {
		if len(m.Payments) == 0 {
			flat = append(flat, Payment{
				PaymentID:      leaseID + "-" + m.Month,
				MonthYear:      m.Month,
				DueDate:        m.DueDate,
				AmountExpected: firstOf(m.Amount),
				AmountPaid:     firstOf(m.PaidAmount),
				PaymentStatus:  orDefault(m.Status, string(payment.RawPending)),
			})
			continue
		}

		for _, p := range m.Payments {
			flat = append(flat, Payment{
				PaymentID:      orDefault(p.PaymentID, leaseID+"-"+m.Month),
				MonthYear:      orDefault(p.MonthYear, m.Month),
				DueDate:        orDefault(p.DueDate, m.DueDate),
				AmountExpected: firstOf(p.AmountExpected, m.Amount),
				AmountPaid:     firstOf(p.AmountPaid, m.PaidAmount),
				PaymentStatus:  orDefault(p.PaymentStatus, orDefault(m.Status, string(payment.RawPending))),
				PaidDate:       p.PaidDate,
				PaymentMethod:  p.PaymentMethod,
			})
		}
	}

	return flat
}

// CreatePayment records a rent payment. The request must already be normalized.
func (c *Client) CreatePayment(ctx context.Context, req payment.CreatePaymentRequest) (*Payment, error) {
	var created Payment
	if err := c.post(ctx, "/payments", req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// OwnerPredictions returns predictions for all of the owner's leases
func (c *Client) OwnerPredictions(ctx context.Context) ([]Prediction, error) {
	var predictions []Prediction
	if err := c.get(ctx, "/api/ai/predictions", &predictions); err != nil {
		return nil, err
	}
	return predictions, nil
}

// HighRiskPredictions returns predictions the backend flags as high risk
func (c *Client) HighRiskPredictions(ctx context.Context) ([]Prediction, error) {
	var predictions []Prediction
	if err := c.get(ctx, "/api/ai/predictions/high-risk", &predictions); err != nil {
		return nil, err
	}
	return predictions, nil
}

// PredictionsByLease returns predictions for one lease
func (c *Client) PredictionsByLease(ctx context.Context, leaseID string) ([]Prediction, error) {
	var predictions []Prediction
	if err := c.get(ctx, "/api/ai/predictions/lease/"+url.PathEscape(leaseID), &predictions); err != nil {
		return nil, err
	}
	return predictions, nil
}

// GeneratePrediction asks the backend to compute a new prediction
func (c *Client) GeneratePrediction(ctx context.Context, leaseID, predictionType string) (*Prediction, error) {
	body := map[string]string{"leaseId": leaseID, "predictionType": predictionType}

	var prediction Prediction
	if err := c.post(ctx, "/api/ai/predictions/generate", body, &prediction); err != nil {
		return nil, err
	}
	return &prediction, nil
}

func firstOf(values ...*float64) float64 {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return 0
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
