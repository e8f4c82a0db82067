package api

import "os"

// DefaultBaseURL is the local-development backend address used when
// SHOTPAY_API_URL is not set.
const DefaultBaseURL = "http://localhost:3001/api/v1"

// BaseURLFromEnv returns the configured backend base URL.
func BaseURLFromEnv() string {
	if v := os.Getenv("SHOTPAY_API_URL"); v != "" {
		return v
	}
	return DefaultBaseURL
}

// Fixed endpoint paths, relative to the base URL.
const (
	EndpointHealthLive  = "/health/live"
	EndpointHealthReady = "/health/ready"

	EndpointLogin          = "/auth/login"
	EndpointLogout         = "/auth/logout"
	EndpointRefresh        = "/auth/refresh"
	EndpointMe             = "/auth/me"
	EndpointRegister       = "/auth/register"
	EndpointForgotPassword = "/auth/forgot-password"
	EndpointResetPassword  = "/auth/reset-password"

	EndpointKycStatus  = "/kyc/status"
	EndpointKycSession = "/kyc/session"

	EndpointOrders    = "/orders"
	EndpointContracts = "/contracts"

	EndpointBnplDecision = "/bnpl/decision"
	EndpointBnplPreview  = "/bnpl/preview"

	EndpointMerchantProfile  = "/merchant/profile"
	EndpointMerchantStats    = "/merchant/stats"
	EndpointMerchantPayouts  = "/merchant/payouts"
	EndpointMerchantSettings = "/merchant/settings"
)

// OrderEndpoint builds the path for a single order.
func OrderEndpoint(id string) string { return EndpointOrders + "/" + id }

// OrderStatusEndpoint builds the path for an order's status.
func OrderStatusEndpoint(id string) string { return OrderEndpoint(id) + "/status" }

// ContractEndpoint builds the path for a single contract.
func ContractEndpoint(id string) string { return EndpointContracts + "/" + id }

// ContractScheduleEndpoint builds the path for a contract's schedule.
func ContractScheduleEndpoint(id string) string { return ContractEndpoint(id) + "/schedule" }

// ContractCaptureEndpoint builds the path for a contract's down-payment capture.
func ContractCaptureEndpoint(id string) string { return ContractEndpoint(id) + "/capture" }
