package backend

// Lease is a lease as returned by /api/leases/my-leases
type Lease struct {
	LeaseID     string         `json:"leaseId"`
	LeaseName   string         `json:"leaseName,omitempty"`
	MonthlyRent float64        `json:"monthlyRent"`
	Status      string         `json:"status,omitempty"`
	StartDate   string         `json:"startDate,omitempty"`
	EndDate     string         `json:"endDate,omitempty"`
	Tenant      *LeaseTenant   `json:"tenant,omitempty"`
	Property    *LeaseProperty `json:"property,omitempty"`
	Unit        *LeaseUnit     `json:"unit,omitempty"`

	// Flat names sent by older backend versions
	PropertyName string `json:"propertyName,omitempty"`
	UnitName     string `json:"unitName,omitempty"`
}

// LeaseTenant is the tenant embedded in a lease
type LeaseTenant struct {
	TenantID string `json:"tenantId"`
	FullName string `json:"fullName,omitempty"`
}

// LeaseProperty is the property embedded in a lease
type LeaseProperty struct {
	PropertyID   string `json:"propertyId"`
	PropertyName string `json:"propertyName,omitempty"`
	Address      string `json:"address,omitempty"`
}

// LeaseUnit is the unit embedded in a lease
type LeaseUnit struct {
	UnitID     string `json:"unitId"`
	UnitNumber string `json:"unitNumber,omitempty"`
}

// Payment is a flat rent payment row
type Payment struct {
	PaymentID      string  `json:"paymentId"`
	LeaseID        string  `json:"leaseId,omitempty"`
	MonthYear      string  `json:"monthYear"`
	DueDate        string  `json:"dueDate,omitempty"`
	AmountExpected float64 `json:"amountExpected"`
	AmountPaid     float64 `json:"amountPaid"`
	PaymentStatus  string  `json:"paymentStatus"`
	PaidDate       string  `json:"paidDate,omitempty"`
	PaymentMethod  string  `json:"paymentMethod,omitempty"`
}

// LeasePaymentStatus is the per-month payment summary of a lease
type LeasePaymentStatus struct {
	LeaseID       string        `json:"leaseId"`
	ExpectedRent  float64       `json:"expectedRent"`
	Months        []MonthStatus `json:"months"`
	TotalExpected float64       `json:"totalExpected"`
	TotalPaid     float64       `json:"totalPaid"`
	Outstanding   float64       `json:"outstanding"`
}

// MonthStatus is one month of a LeasePaymentStatus. Amounts are optional so
// nested payments can tell a missing value from zero.
type MonthStatus struct {
	Month      string          `json:"month"`
	DueDate    string          `json:"dueDate"`
	Amount     *float64        `json:"amount"`
	PaidAmount *float64        `json:"paidAmount"`
	Status     string          `json:"status"`
	Payments   []NestedPayment `json:"payments"`
}

// NestedPayment is a payment inside a MonthStatus
type NestedPayment struct {
	PaymentID      string   `json:"paymentId"`
	MonthYear      string   `json:"monthYear"`
	DueDate        string   `json:"dueDate"`
	AmountExpected *float64 `json:"amountExpected"`
	AmountPaid     *float64 `json:"amountPaid"`
	PaymentStatus  string   `json:"paymentStatus"`
	PaidDate       string   `json:"paidDate"`
	PaymentMethod  string   `json:"paymentMethod"`
}

// Prediction is an AI risk prediction for a lease
type Prediction struct {
	PredictionID   string  `json:"predictionId"`
	LeaseID        string  `json:"leaseId"`
	PredictionType string  `json:"predictionType"`
	RiskScore      float64 `json:"riskScore"`
	RiskLevel      string  `json:"riskLevel"`
	PredictedAt    string  `json:"predictedAt"`
}

// Prediction types
const (
	PredictionLatePayment     = "LATE_PAYMENT"
	PredictionMaintenanceRisk = "MAINTENANCE_RISK"
)

// UserProfile is the signed-in user's profile
type UserProfile struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	FullName string `json:"fullName,omitempty"`
	Phone    string `json:"phone,omitempty"`
}
