package api

import (
	"context"
	"net/url"
	"time"
)

const (
	// DefaultPollInterval is the wait between KYC status checks.
	DefaultPollInterval = 3 * time.Second
	// DefaultMaxPollDuration is the soft deadline for a polling run.
	DefaultMaxPollDuration = 5 * time.Minute
)

// KycAPI groups the identity-verification operations.
type KycAPI struct {
	client *Client
}

// NewKycAPI creates the KYC API group for the given client.
func NewKycAPI(client *Client) *KycAPI {
	return &KycAPI{client: client}
}

// Status returns the current verification status. An empty customerID means
// the current user.
func (k *KycAPI) Status(ctx context.Context, customerID string) (*KycStatusResponse, error) {
	opts := &RequestOptions{}
	if customerID != "" {
		opts.Query = url.Values{"customerId": {customerID}}
	}
	var status KycStatusResponse
	if err := k.client.Get(ctx, EndpointKycStatus, &status, opts); err != nil {
		return nil, err
	}
	return &status, nil
}

// CreateSession starts a hosted verification session. The user should be
// redirected to the returned session URL.
func (k *KycAPI) CreateSession(ctx context.Context, customerID, callbackURL string) (*KycSessionResponse, error) {
	req := map[string]string{
		"customerId":  customerID,
		"callbackUrl": callbackURL,
	}
	var session KycSessionResponse
	if err := k.client.Post(ctx, EndpointKycSession, req, &session, nil); err != nil {
		return nil, err
	}
	return &session, nil
}

// VerificationURL creates a session and returns its hosted URL.
func (k *KycAPI) VerificationURL(ctx context.Context, customerID, callbackURL string) (string, error) {
	session, err := k.CreateSession(ctx, customerID, callbackURL)
	if err != nil {
		return "", err
	}
	return session.SessionURL, nil
}

// IsVerified reports whether verification has completed successfully.
// A status fetch failure counts as not verified.
func (k *KycAPI) IsVerified(ctx context.Context, customerID string) bool {
	status, err := k.Status(ctx, customerID)
	if err != nil {
		return false
	}
	return status.Status == KycVerified
}

// NeedsVerification reports whether the user should be prompted to start or
// redo verification. A status fetch failure counts as needing verification.
func (k *KycAPI) NeedsVerification(ctx context.Context, customerID string) bool {
	status, err := k.Status(ctx, customerID)
	if err != nil {
		return true
	}
	return status.Status == KycNotStarted || status.Status == KycFailed
}

// IsPending reports whether verification is in progress or under review.
func (k *KycAPI) IsPending(ctx context.Context, customerID string) bool {
	status, err := k.Status(ctx, customerID)
	if err != nil {
		return false
	}
	return status.Status == KycPending || status.Status == KycReviewRequired
}

// PollOptions configures a PollStatus run. Zero values take the defaults.
type PollOptions struct {
	Interval    time.Duration
	MaxDuration time.Duration
	// OnStatus is invoked with every fetched status, including the first and
	// including repeats, so callers see a value even when polling ends on the
	// first iteration.
	OnStatus func(KycStatusResponse)
}

// PollStatus polls the verification status until it reaches VERIFIED or
// FAILED, the soft deadline passes, or ctx is cancelled.
//
// The deadline is checked after each fetch returns, so it resolves with the
// current (possibly non-terminal) status instead of failing; callers
// distinguish the two outcomes by inspecting Status. A fetch error fails the
// whole poll immediately — transient-failure retry belongs to the Client.
// Iterations never overlap.
func (k *KycAPI) PollStatus(ctx context.Context, customerID string, opts PollOptions) (*KycStatusResponse, error) {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	maxDuration := opts.MaxDuration
	if maxDuration <= 0 {
		maxDuration = DefaultMaxPollDuration
	}

	start := time.Now()
	for {
		status, err := k.Status(ctx, customerID)
		if err != nil {
			return nil, err
		}
		if opts.OnStatus != nil {
			opts.OnStatus(*status)
		}
		if status.Status.IsTerminal() {
			return status, nil
		}
		if time.Since(start) > maxDuration {
			return status, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
}

// StatusLabel returns a human-readable label for a verification status.
func StatusLabel(status KycStatus) string {
	switch status {
	case KycNotStarted:
		return "Not Started"
	case KycPending:
		return "Pending Verification"
	case KycVerified:
		return "Verified"
	case KycFailed:
		return "Verification Failed"
	case KycReviewRequired:
		return "Under Review"
	default:
		return string(status)
	}
}
