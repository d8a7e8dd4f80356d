package payment

import (
	"strings"
	"testing"
)

func TestIsAdvancePayment(t *testing.T) {
	tests := []struct {
		name     string
		month    string
		paidDate string
		want     bool
	}{
		{"day before period", "2024-05", "2024-04-30", true},
		{"first day of period", "2024-05", "2024-05-01", false},
		{"during period", "2024-05", "2024-05-20", false},
		{"timestamp before period", "2024-05", "2024-04-15T10:00:00Z", true},
		{"timestamp without zone", "2024-05", "2024-04-30T10:00:00", true},
		{"offset timestamp compared by its own date", "2024-05", "2024-05-01T01:00:00+03:00", false},
		{"month given as full date", "2024-05-07", "2024-04-30", true},
		{"empty month", "", "2024-04-30", false},
		{"empty paid date", "2024-05", "", false},
		{"both empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAdvancePayment(tt.month, tt.paidDate); got != tt.want {
				t.Errorf("IsAdvancePayment(%q, %q) = %v, want %v", tt.month, tt.paidDate, got, tt.want)
			}
		})
	}
}

func TestDueDate(t *testing.T) {
	if got := DueDate("2024-05"); got != "2024-05-07" {
		t.Errorf("DueDate() = %q, want %q", got, "2024-05-07")
	}
}

func TestFormatDate(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"2024-05-03", "2024-05-03", true},
		{"2024-05-03T23:30:00Z", "2024-05-03", true},
		{"2024-05-03T01:30:00+02:00", "2024-05-02", true},
		{"", "", false},
		{"yesterday", "", false},
	}

	for _, tt := range tests {
		got, ok := FormatDate(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("FormatDate(%q) = %q, %v, want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestCreatePaymentRequest_Normalize(t *testing.T) {
	req := CreatePaymentRequest{
		LeaseID:        "lease-1",
		MonthYear:      "2024-05",
		AmountExpected: 1200,
		AmountPaid:     1200,
		PaidDate:       "2024-05-03T09:00:00Z",
	}

	got, err := req.Normalize()
	if err != nil {
		t.Fatalf("Normalize() failed: %v", err)
	}

	if got.DueDate != "2024-05-07" {
		t.Errorf("DueDate = %q, want %q", got.DueDate, "2024-05-07")
	}
	if got.PaidDate != "2024-05-03" {
		t.Errorf("PaidDate = %q, want %q", got.PaidDate, "2024-05-03")
	}
	if got.PaymentMethod != MethodCash {
		t.Errorf("PaymentMethod = %q, want %q", got.PaymentMethod, MethodCash)
	}
}

func TestCreatePaymentRequest_NormalizeInvalid(t *testing.T) {
	tests := []struct {
		name string
		req  CreatePaymentRequest
	}{
		{"missing lease", CreatePaymentRequest{MonthYear: "2024-05"}},
		{"bad month", CreatePaymentRequest{LeaseID: "l", MonthYear: "May 2024"}},
		{"negative amount", CreatePaymentRequest{LeaseID: "l", MonthYear: "2024-05", AmountPaid: -1}},
		{"unknown method", CreatePaymentRequest{LeaseID: "l", MonthYear: "2024-05", PaymentMethod: "CRYPTO"}},
		{"bad paid date", CreatePaymentRequest{LeaseID: "l", MonthYear: "2024-05", PaidDate: "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.req.Normalize()
			if err == nil {
				t.Fatal("Normalize() should fail")
			}
			if !strings.Contains(err.Error(), "invalid payment request") {
				t.Errorf("Normalize() error = %v", err)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	records := []Record{
		{Amount: 1000, AmountPaid: 1000, Status: StatusPaid, IsAdvance: true},
		{Amount: 1000, AmountPaid: 400, Status: StatusPartial},
		{Amount: 800, Status: StatusOverdue},
	}

	s := Summarize(records)

	if s.TotalExpected != 2800 {
		t.Errorf("TotalExpected = %v, want 2800", s.TotalExpected)
	}
	if s.TotalPaid != 1400 {
		t.Errorf("TotalPaid = %v, want 1400", s.TotalPaid)
	}
	if s.Outstanding != 1400 {
		t.Errorf("Outstanding = %v, want 1400", s.Outstanding)
	}
	if s.Advance != 1 {
		t.Errorf("Advance = %d, want 1", s.Advance)
	}
	if s.Counts[StatusPending] != 0 || s.Counts[StatusOverdue] != 1 {
		t.Errorf("Counts = %v", s.Counts)
	}
}
