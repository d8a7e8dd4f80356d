package rent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rentpro/portal/internal/backend"
	"github.com/rentpro/portal/internal/payment"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentLeases bounds parallel payment fetches per request
const maxConcurrentLeases = 4

// Backend is the part of the backend client rent tracking uses
type Backend interface {
	MyLeases(ctx context.Context) ([]backend.Lease, error)
	FetchLeasePayments(ctx context.Context, leaseID string) ([]backend.Payment, error)
	CreatePayment(ctx context.Context, req payment.CreatePaymentRequest) (*backend.Payment, error)
}

// Service builds rent records from leases and their payments
type Service struct {
	now    func() time.Time
	logger *zap.Logger
}

// NewService creates a rent service. A nil clock means time.Now.
func NewService(now func() time.Time, logger *zap.Logger) *Service {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{now: now, logger: logger}
}

// Records returns one record per payment of every lease the caller owns.
// A lease without payments, or whose payments cannot be fetched, yields a
// single pending record for the current month.
func (s *Service) Records(ctx context.Context, client Backend) ([]payment.Record, error) {
	leases, err := client.MyLeases(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list leases: %w", err)
	}

	perLease := make([][]payment.Record, len(leases))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLeases)
	for i, lease := range leases {
		if lease.LeaseID == "" {
			continue
		}
		i, lease := i, lease
		g.Go(func() error {
			payments, err := client.FetchLeasePayments(gctx, lease.LeaseID)
			if err != nil {
				s.logger.Warn("failed to fetch lease payments",
					zap.String("lease_id", lease.LeaseID),
					zap.Error(err),
				)
				payments = nil
			}
			perLease[i] = s.leaseRecords(lease, payments)
			return nil
		})
	}
	_ = g.Wait()

	// Cancellation is the only way a fetch can fail the whole listing
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := make([]payment.Record, 0, len(leases))
	for _, recs := range perLease {
		records = append(records, recs...)
	}
	return records, nil
}

func (s *Service) leaseRecords(lease backend.Lease, payments []backend.Payment) []payment.Record {
	names := namesOf(lease)

	if len(payments) == 0 {
		month := payment.CurrentMonth(s.now())
		return []payment.Record{{
			ID:       recordID(lease.LeaseID, month),
			LeaseID:  lease.LeaseID,
			Tenant:   names.tenant,
			Property: names.property,
			Unit:     names.unit,
			Month:    month,
			DueDate:  payment.DueDate(month),
			Amount:   lease.MonthlyRent,
			Status:   payment.StatusPending,
		}}
	}

	records := make([]payment.Record, 0, len(payments))
	for _, p := range payments {
		id := p.PaymentID
		if id == "" {
			id = recordID(lease.LeaseID, p.MonthYear)
		}

		dueDate := p.DueDate
		if dueDate == "" {
			dueDate = p.MonthYear + "-01"
		}

		amount := p.AmountExpected
		if amount == 0 {
			amount = lease.MonthlyRent
		}

		paidDate, ok := payment.FormatDate(p.PaidDate)
		if !ok {
			paidDate = datePrefix(p.PaidDate)
		}

		records = append(records, payment.Record{
			ID:         id,
			LeaseID:    lease.LeaseID,
			Tenant:     names.tenant,
			Property:   names.property,
			Unit:       names.unit,
			Month:      p.MonthYear,
			DueDate:    dueDate,
			Amount:     amount,
			AmountPaid: p.AmountPaid,
			Status:     payment.MapPaymentStatus(p.PaymentStatus),
			PaidDate:   paidDate,
			Method:     p.PaymentMethod,
			IsAdvance:  payment.IsAdvancePayment(p.MonthYear, p.PaidDate),
		})
	}
	return records
}

// RecordPayment validates a payment and sends it to the backend
func (s *Service) RecordPayment(ctx context.Context, client Backend, req payment.CreatePaymentRequest) (*backend.Payment, error) {
	normalized, err := req.Normalize()
	if err != nil {
		return nil, err
	}

	created, err := client.CreatePayment(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	s.logger.Info("payment recorded",
		zap.String("lease_id", normalized.LeaseID),
		zap.String("month", normalized.MonthYear),
		zap.Float64("amount_paid", normalized.AmountPaid),
	)
	return created, nil
}

type leaseNames struct {
	tenant   string
	property string
	unit     string
}

func namesOf(lease backend.Lease) leaseNames {
	names := leaseNames{tenant: "Unassigned", property: "Unknown", unit: "N/A"}

	switch {
	case lease.Tenant != nil && lease.Tenant.FullName != "":
		names.tenant = lease.Tenant.FullName
	case lease.LeaseName != "":
		names.tenant = lease.LeaseName
	}

	switch {
	case lease.Property != nil && lease.Property.PropertyName != "":
		names.property = lease.Property.PropertyName
	case lease.PropertyName != "":
		names.property = lease.PropertyName
	}

	switch {
	case lease.Unit != nil && lease.Unit.UnitNumber != "":
		names.unit = lease.Unit.UnitNumber
	case lease.UnitName != "":
		names.unit = lease.UnitName
	}

	return names
}

// datePrefix keeps the calendar date of a timestamp without a zone
func datePrefix(s string) string {
	if len(s) > 10 {
		return s[:10]
	}
	return s
}

// recordID is "<leaseId>-<YYYYMM>"
func recordID(leaseID, monthYear string) string {
	return leaseID + "-" + strings.Replace(monthYear, "-", "", 1)
}
