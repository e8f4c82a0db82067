package api

import (
	"encoding/json"
	"net/url"
	"strconv"
)

// envelope is the fixed wrapper the backend uses for every response.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    *Meta           `json:"meta"`
	Error   *errorBody      `json:"error"`
}

type errorBody struct {
	Code      string              `json:"code"`
	Message   string              `json:"message"`
	Details   map[string][]string `json:"details,omitempty"`
	RequestID string              `json:"requestId,omitempty"`
}

// Meta carries pagination information for list responses.
type Meta struct {
	Page    int  `json:"page,omitempty"`
	Limit   int  `json:"limit,omitempty"`
	Total   int  `json:"total,omitempty"`
	HasMore bool `json:"hasMore,omitempty"`
}

// PaginationParams are the standard list-request parameters.
type PaginationParams struct {
	Page    int
	Limit   int
	SortBy  string
	SortDir string
}

// Query converts the parameters to query values, omitting zero values.
func (p PaginationParams) Query() url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.SortBy != "" {
		q.Set("sortBy", p.SortBy)
	}
	if p.SortDir != "" {
		q.Set("sortDir", p.SortDir)
	}
	return q
}

// LoginRequest is the credential payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the session tokens and user issued on login.
type LoginResponse struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	ExpiresIn    int      `json:"expiresIn"`
	User         AuthUser `json:"user"`
}

// AuthUser is the authenticated user's profile.
type AuthUser struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	MerchantID string `json:"merchantId,omitempty"`
	CustomerID string `json:"customerId,omitempty"`
	FirstName  string `json:"firstName,omitempty"`
	LastName   string `json:"lastName,omitempty"`
}

// RegisterRequest is the payload for POST /auth/register.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone,omitempty"`
	Role      string `json:"role"`
}

// ForgotPasswordRequest asks the backend to send a password reset email.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest completes a password reset with the emailed token.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// RefreshResponse is the payload returned by POST /auth/refresh. The refresh
// token is present only when the server rotated it.
type RefreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	ExpiresIn    int    `json:"expiresIn"`
}

// KycStatus is the closed set of verification states the backend reports.
// Values must match the backend enum exactly.
type KycStatus string

const (
	KycNotStarted     KycStatus = "NOT_STARTED"
	KycPending        KycStatus = "PENDING"
	KycVerified       KycStatus = "VERIFIED"
	KycFailed         KycStatus = "FAILED"
	KycReviewRequired KycStatus = "REVIEW_REQUIRED"
)

// IsTerminal reports whether polling should stop at this status. Manual
// review resolves out-of-band, so REVIEW_REQUIRED is still "waiting".
func (s KycStatus) IsTerminal() bool {
	return s == KycVerified || s == KycFailed
}

// KycStatusResponse is the payload of GET /kyc/status.
type KycStatusResponse struct {
	Status            KycStatus `json:"status"`
	VerifiedAt        string    `json:"verifiedAt,omitempty"`
	FailureReason     string    `json:"failureReason,omitempty"`
	CanRetry          bool      `json:"canRetry,omitempty"`
	AttemptsRemaining int       `json:"attemptsRemaining,omitempty"`
}

// KycSessionResponse is returned when a hosted verification session is
// created. The user is redirected to SessionURL.
type KycSessionResponse struct {
	SessionID  string `json:"sessionId"`
	SessionURL string `json:"sessionUrl"`
	ExpiresAt  string `json:"expiresAt"`
}

// OrderSummary is the list-view shape of an order.
type OrderSummary struct {
	ID          string  `json:"id"`
	OrderNumber string  `json:"orderNumber"`
	Status      string  `json:"status"`
	Total       float64 `json:"total"`
	Currency    string  `json:"currency"`
	CreatedAt   string  `json:"createdAt"`
}

// OrderDetails is the full order shape.
type OrderDetails struct {
	OrderSummary
	Items        []OrderItem      `json:"items"`
	Shipping     ShippingAddress  `json:"shipping"`
	Billing      *ShippingAddress `json:"billing,omitempty"`
	BnplContract *ContractSummary `json:"bnplContract,omitempty"`
}

// OrderItem is a single order line.
type OrderItem struct {
	ID         string  `json:"id"`
	ProductID  string  `json:"productId"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unitPrice"`
	TotalPrice float64 `json:"totalPrice"`
	ImageURL   string  `json:"imageUrl,omitempty"`
}

// ShippingAddress is used for both shipping and billing addresses.
type ShippingAddress struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Address1  string `json:"address1"`
	Address2  string `json:"address2,omitempty"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
	Phone     string `json:"phone,omitempty"`
}

// ContractSummary is the list-view shape of a BNPL contract.
type ContractSummary struct {
	ID               string  `json:"id"`
	Status           string  `json:"status"`
	PlanType         string  `json:"planType"`
	OrderTotal       float64 `json:"orderTotal"`
	DownPayment      float64 `json:"downPayment"`
	RemainingBalance float64 `json:"remainingBalance"`
	NextPaymentDate  string  `json:"nextPaymentDate,omitempty"`
	NextPaymentAmount float64 `json:"nextPaymentAmount,omitempty"`
}

// ContractDetails is a contract with its installment schedule.
type ContractDetails struct {
	ContractSummary
	CreatedAt    string        `json:"createdAt"`
	ActivatedAt  string        `json:"activatedAt,omitempty"`
	Installments []Installment `json:"installments"`
}

// Installment is a single scheduled payment.
type Installment struct {
	ID                string  `json:"id"`
	InstallmentNumber int     `json:"installmentNumber"`
	Amount            float64 `json:"amount"`
	DueDate           string  `json:"dueDate"`
	Status            string  `json:"status"`
	PaidAt            string  `json:"paidAt,omitempty"`
}

// BnplDecisionRequest asks for a financing decision on an order.
type BnplDecisionRequest struct {
	OrderID    string `json:"orderId"`
	CustomerID string `json:"customerId"`
	PlanType   string `json:"planType"`
}

// BnplDecisionResponse carries the financing decision.
type BnplDecisionResponse struct {
	Approved      bool                  `json:"approved"`
	ContractID    string                `json:"contractId,omitempty"`
	DeclineReason string                `json:"declineReason,omitempty"`
	Schedule      []InstallmentSchedule `json:"schedule,omitempty"`
}

// InstallmentSchedule is a preview line of a payment plan.
type InstallmentSchedule struct {
	InstallmentNumber int     `json:"installmentNumber"`
	Amount            float64 `json:"amount"`
	DueDate           string  `json:"dueDate"`
}

// MerchantStats are the dashboard headline numbers.
type MerchantStats struct {
	TotalOrders      int     `json:"totalOrders"`
	TotalRevenue     float64 `json:"totalRevenue"`
	ActiveContracts  int     `json:"activeContracts"`
	PendingPayouts   int     `json:"pendingPayouts"`
	OverdueContracts int     `json:"overdueContracts"`
}

// PayoutInfo describes one merchant payout.
type PayoutInfo struct {
	ID            string  `json:"id"`
	Amount        float64 `json:"amount"`
	Status        string  `json:"status"`
	ScheduledDate string  `json:"scheduledDate"`
	CompletedAt   string  `json:"completedAt,omitempty"`
}

// MerchantProfile is the merchant account record.
type MerchantProfile struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	StoreURL    string `json:"storeUrl,omitempty"`
	FFLNumber   string `json:"fflNumber,omitempty"`
	PayoutBank  string `json:"payoutBank,omitempty"`
	OnboardedAt string `json:"onboardedAt,omitempty"`
}
