package payment

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ErrInvalidRequest wraps every payment request validation failure
var ErrInvalidRequest = errors.New("invalid payment request")

// Method is how a payment was made
type Method string

// Payment methods accepted by the backend
const (
	MethodCash         Method = "CASH"
	MethodBankTransfer Method = "BANK_TRANSFER"
	MethodCheck        Method = "CHECK"
)

// Record is one month of rent for one lease, as shown on the rent tracking screen
type Record struct {
	ID         string  `json:"id"`
	LeaseID    string  `json:"leaseId"`
	Tenant     string  `json:"tenant"`
	Property   string  `json:"property"`
	Unit       string  `json:"unit"`
	Month      string  `json:"month"`
	DueDate    string  `json:"dueDate"`
	Amount     float64 `json:"amount"`
	AmountPaid float64 `json:"amountPaid"`
	Status     Status  `json:"status"`
	PaidDate   string  `json:"paidDate,omitempty"`
	Method     string  `json:"method,omitempty"`
	IsAdvance  bool    `json:"isAdvance"`
}

// Summary aggregates a set of rent records
type Summary struct {
	TotalExpected float64        `json:"totalExpected"`
	TotalPaid     float64        `json:"totalPaid"`
	Outstanding   float64        `json:"outstanding"`
	Advance       int            `json:"advance"`
	Counts        map[Status]int `json:"counts"`
}

// Summarize totals expected and paid amounts and counts records per status
func Summarize(records []Record) Summary {
	s := Summary{Counts: make(map[Status]int, len(Statuses))}
	for _, st := range Statuses {
		s.Counts[st] = 0
	}

	for _, r := range records {
		s.TotalExpected += r.Amount
		s.TotalPaid += r.AmountPaid
		s.Counts[r.Status]++
		if r.IsAdvance {
			s.Advance++
		}
	}

	if s.TotalExpected > s.TotalPaid {
		s.Outstanding = s.TotalExpected - s.TotalPaid
	}
	return s
}

// CreatePaymentRequest is the body for recording a rent payment
type CreatePaymentRequest struct {
	LeaseID        string  `json:"leaseId" validate:"required"`
	MonthYear      string  `json:"monthYear" validate:"required,datetime=2006-01"`
	AmountExpected float64 `json:"amountExpected" validate:"gte=0"`
	AmountPaid     float64 `json:"amountPaid" validate:"gte=0"`
	DueDate        string  `json:"dueDate,omitempty"`
	PaidDate       string  `json:"paidDate,omitempty"`
	PaymentMethod  Method  `json:"paymentMethod,omitempty" validate:"omitempty,oneof=CASH BANK_TRANSFER CHECK"`
}

// Normalize validates the request and fills in derived fields: the due
// date is always the 7th of the month, the paid date is reduced to
// YYYY-MM-DD and the method defaults to cash.
func (r CreatePaymentRequest) Normalize() (CreatePaymentRequest, error) {
	if err := validate.Struct(r); err != nil {
		return r, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	out := r
	out.DueDate = DueDate(r.MonthYear)

	if r.PaidDate != "" {
		paid, ok := FormatDate(r.PaidDate)
		if !ok {
			return r, fmt.Errorf("%w: paidDate %q is not a date", ErrInvalidRequest, r.PaidDate)
		}
		out.PaidDate = paid
	}

	if out.PaymentMethod == "" {
		out.PaymentMethod = MethodCash
	}

	return out, nil
}
