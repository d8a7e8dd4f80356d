package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rentpro/portal/internal/config"
	"github.com/rentpro/portal/internal/payment"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(config.BackendConfig{
		BaseURL:     srv.URL,
		AuthBaseURL: srv.URL,
		Timeout:     5 * time.Second,
	}, nil, nil)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_WithTokenAttachesBearer(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]string{}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/leases/my-leases", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen[r.URL.Path] = r.Header.Get("Authorization")
		mu.Unlock()
		writeJSON(w, http.StatusOK, []Lease{{LeaseID: "l1", MonthlyRent: 900}})
	})
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen[r.URL.Path] = r.Header.Get("Authorization")
		mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]string{"token": "abc"})
	})

	client := newTestClient(t, mux).WithToken("session-token")
	ctx := context.Background()

	leases, err := client.MyLeases(ctx)
	if err != nil {
		t.Fatalf("MyLeases() failed: %v", err)
	}
	if len(leases) != 1 || leases[0].LeaseID != "l1" {
		t.Errorf("MyLeases() = %+v", leases)
	}

	if _, err := client.Login(ctx, "owner@example.com", "secret"); err != nil {
		t.Fatalf("Login() failed: %v", err)
	}

	if got := seen["/api/leases/my-leases"]; got != "Bearer session-token" {
		t.Errorf("Authorization on leases = %q, want %q", got, "Bearer session-token")
	}
	if got := seen["/auth/login"]; got != "" {
		t.Errorf("Authorization on login = %q, want none", got)
	}
}

func TestClient_StatusErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		sentinel error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized},
		{"forbidden", http.StatusForbidden, ErrForbidden},
		{"not found", http.StatusNotFound, ErrNotFound},
		{"server error", http.StatusInternalServerError, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}))

			_, err := client.OwnerPredictions(context.Background())
			if err == nil {
				t.Fatal("OwnerPredictions() should fail")
			}

			var statusErr *StatusError
			if !errors.As(err, &statusErr) || statusErr.StatusCode != tt.status {
				t.Fatalf("error = %v, want StatusError with %d", err, tt.status)
			}

			if tt.sentinel != nil && !errors.Is(err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", err, tt.sentinel)
			}
			if tt.sentinel == nil && errors.Is(err, ErrUnauthorized) {
				t.Errorf("%v should not match ErrUnauthorized", err)
			}
		})
	}
}

func TestClient_Login(t *testing.T) {
	tests := []struct {
		name    string
		body    map[string]string
		want    string
		wantErr error
	}{
		{"token field", map[string]string{"token": "t1"}, "t1", nil},
		{"accessToken field", map[string]string{"accessToken": "t2"}, "t2", nil},
		{"token preferred", map[string]string{"token": "t1", "accessToken": "t2"}, "t1", nil},
		{"no token", map[string]string{"message": "ok"}, "", ErrNoToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var req loginRequest
				_ = json.NewDecoder(r.Body).Decode(&req)
				if req.Email != "owner@example.com" {
					t.Errorf("login email = %q", req.Email)
				}
				writeJSON(w, http.StatusOK, tt.body)
			}))

			got, err := client.Login(context.Background(), "owner@example.com", "pw")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Login() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Login() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFetchLeasePayments_Primary(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/payments/leases/l1/all", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []Payment{{PaymentID: "p1", MonthYear: "2024-05", PaymentStatus: "PAID"}})
	})

	payments, err := newTestClient(t, mux).FetchLeasePayments(context.Background(), "l1")
	if err != nil {
		t.Fatalf("FetchLeasePayments() failed: %v", err)
	}
	if len(payments) != 1 || payments[0].PaymentID != "p1" {
		t.Errorf("FetchLeasePayments() = %+v", payments)
	}
}

func TestFetchLeasePayments_FallbackToMonths(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/payments/leases/l1/all", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/payments/leases/l1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"leaseId": "l1",
			"months": [
				{"month": "2024-04", "dueDate": "2024-04-07", "amount": 1000, "paidAmount": 1000, "status": "PAID",
				 "payments": [{"paymentId": "p-apr", "paidDate": "2024-03-28", "paymentMethod": "CASH"}]},
				{"month": "2024-05", "dueDate": "2024-05-07", "amount": 1000}
			]
		}`))
	})

	payments, err := newTestClient(t, mux).FetchLeasePayments(context.Background(), "l1")
	if err != nil {
		t.Fatalf("FetchLeasePayments() failed: %v", err)
	}
	if len(payments) != 2 {
		t.Fatalf("FetchLeasePayments() returned %d rows, want 2", len(payments))
	}

	apr := payments[0]
	if apr.PaymentID != "p-apr" || apr.MonthYear != "2024-04" || apr.AmountExpected != 1000 || apr.PaymentStatus != "PAID" || apr.PaidDate != "2024-03-28" {
		t.Errorf("April row = %+v", apr)
	}

	may := payments[1]
	if may.PaymentID != "l1-2024-05" || may.PaymentStatus != string(payment.RawPending) || may.AmountPaid != 0 {
		t.Errorf("May row = %+v", may)
	}
}

func TestFetchLeasePayments_FallbackToArray(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/payments/leases/l1/all", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/payments/leases/l1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []Payment{{PaymentID: "p1"}, {PaymentID: "p2"}})
	})

	payments, err := newTestClient(t, mux).FetchLeasePayments(context.Background(), "l1")
	if err != nil {
		t.Fatalf("FetchLeasePayments() failed: %v", err)
	}
	if len(payments) != 2 {
		t.Errorf("FetchLeasePayments() returned %d rows, want 2", len(payments))
	}
}

func TestFetchLeasePayments_NullFallsBack(t *testing.T) {
	tests := []struct {
		name         string
		allBody      string
		wantRows     int
		wantFallback int
	}{
		{"null body", `null`, 1, 1},
		{"empty array is a real answer", `[]`, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fallbackHits int
			mux := http.NewServeMux()
			mux.HandleFunc("/payments/leases/l1/all", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.allBody))
			})
			mux.HandleFunc("/payments/leases/l1", func(w http.ResponseWriter, r *http.Request) {
				fallbackHits++
				writeJSON(w, http.StatusOK, []Payment{{PaymentID: "p-fallback"}})
			})

			payments, err := newTestClient(t, mux).FetchLeasePayments(context.Background(), "l1")
			if err != nil {
				t.Fatalf("FetchLeasePayments() failed: %v", err)
			}
			if len(payments) != tt.wantRows {
				t.Fatalf("FetchLeasePayments() returned %d rows, want %d", len(payments), tt.wantRows)
			}
			if tt.wantRows > 0 && payments[0].PaymentID != "p-fallback" {
				t.Errorf("PaymentID = %q, want %q", payments[0].PaymentID, "p-fallback")
			}
			if fallbackHits != tt.wantFallback {
				t.Errorf("fallback hits = %d, want %d", fallbackHits, tt.wantFallback)
			}
		})
	}
}

func TestFetchLeasePayments_BothFail(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))

	if _, err := client.FetchLeasePayments(context.Background(), "l1"); err == nil {
		t.Error("FetchLeasePayments() should fail when both endpoints fail")
	}
}

func TestFlattenMonths_NestedOverridesMonth(t *testing.T) {
	amount := 1200.0
	paid := 600.0
	nestedPaid := 300.0

	months := []MonthStatus{{
		Month:      "2024-06",
		DueDate:    "2024-06-07",
		Amount:     &amount,
		PaidAmount: &paid,
		Status:     "PARTIAL",
		Payments: []NestedPayment{
			{AmountPaid: &nestedPaid, PaymentStatus: "PAID"},
			{},
		},
	}}

	rows := FlattenMonths("l9", months)
	if len(rows) != 2 {
		t.Fatalf("FlattenMonths() returned %d rows, want 2", len(rows))
	}
	if rows[0].AmountPaid != 300 || rows[0].AmountExpected != 1200 || rows[0].PaymentStatus != "PAID" {
		t.Errorf("rows[0] = %+v", rows[0])
	}
	if rows[1].AmountPaid != 600 || rows[1].PaymentStatus != "PARTIAL" || rows[1].PaymentID != "l9-2024-06" {
		t.Errorf("rows[1] = %+v", rows[1])
	}
}
