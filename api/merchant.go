package api

import "context"

// MerchantAPI groups the merchant dashboard operations.
type MerchantAPI struct {
	client *Client
}

// NewMerchantAPI creates the merchant API group for the given client.
func NewMerchantAPI(client *Client) *MerchantAPI {
	return &MerchantAPI{client: client}
}

// Profile returns the merchant account record.
func (m *MerchantAPI) Profile(ctx context.Context) (*MerchantProfile, error) {
	var profile MerchantProfile
	if err := m.client.Get(ctx, EndpointMerchantProfile, &profile, nil); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Stats returns the dashboard headline numbers.
func (m *MerchantAPI) Stats(ctx context.Context) (*MerchantStats, error) {
	var stats MerchantStats
	if err := m.client.Get(ctx, EndpointMerchantStats, &stats, nil); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Payouts returns a page of the merchant's payouts.
func (m *MerchantAPI) Payouts(ctx context.Context, page PaginationParams) ([]PayoutInfo, *Meta, error) {
	var payouts []PayoutInfo
	meta, err := m.client.GetWithMeta(ctx, EndpointMerchantPayouts, &payouts, &RequestOptions{Query: page.Query()})
	if err != nil {
		return nil, nil, err
	}
	return payouts, meta, nil
}

// MerchantSettings is the mutable part of the merchant record.
type MerchantSettings struct {
	StoreURL   string `json:"storeUrl,omitempty"`
	PayoutBank string `json:"payoutBank,omitempty"`
	FFLNumber  string `json:"fflNumber,omitempty"`
}

// UpdateSettings updates the merchant settings and returns the new profile.
func (m *MerchantAPI) UpdateSettings(ctx context.Context, settings MerchantSettings) (*MerchantProfile, error) {
	var profile MerchantProfile
	if err := m.client.Put(ctx, EndpointMerchantSettings, settings, &profile, nil); err != nil {
		return nil, err
	}
	return &profile, nil
}
