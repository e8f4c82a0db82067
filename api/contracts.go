package api

import "context"

// ContractsAPI groups the BNPL contract operations.
type ContractsAPI struct {
	client *Client
}

// NewContractsAPI creates the contracts API group for the given client.
func NewContractsAPI(client *Client) *ContractsAPI {
	return &ContractsAPI{client: client}
}

// List returns a page of the caller's contracts.
func (c *ContractsAPI) List(ctx context.Context, page PaginationParams) ([]ContractSummary, *Meta, error) {
	var contracts []ContractSummary
	meta, err := c.client.GetWithMeta(ctx, EndpointContracts, &contracts, &RequestOptions{Query: page.Query()})
	if err != nil {
		return nil, nil, err
	}
	return contracts, meta, nil
}

// Get returns one contract with its installment schedule.
func (c *ContractsAPI) Get(ctx context.Context, id string) (*ContractDetails, error) {
	var contract ContractDetails
	if err := c.client.Get(ctx, ContractEndpoint(id), &contract, nil); err != nil {
		return nil, err
	}
	return &contract, nil
}

// Schedule returns the installment schedule for a contract.
func (c *ContractsAPI) Schedule(ctx context.Context, id string) ([]Installment, error) {
	var schedule []Installment
	if err := c.client.Get(ctx, ContractScheduleEndpoint(id), &schedule, nil); err != nil {
		return nil, err
	}
	return schedule, nil
}

// Capture charges the contract's down payment.
func (c *ContractsAPI) Capture(ctx context.Context, id string) (*ContractDetails, error) {
	var contract ContractDetails
	if err := c.client.Post(ctx, ContractCaptureEndpoint(id), nil, &contract, nil); err != nil {
		return nil, err
	}
	return &contract, nil
}

// BnplAPI groups the financing-decision operations.
type BnplAPI struct {
	client *Client
}

// NewBnplAPI creates the BNPL API group for the given client.
func NewBnplAPI(client *Client) *BnplAPI {
	return &BnplAPI{client: client}
}

// Decision requests a financing decision for an order.
func (b *BnplAPI) Decision(ctx context.Context, req BnplDecisionRequest) (*BnplDecisionResponse, error) {
	var decision BnplDecisionResponse
	if err := b.client.Post(ctx, EndpointBnplDecision, req, &decision, nil); err != nil {
		return nil, err
	}
	return &decision, nil
}

// Preview returns the installment schedule a plan would produce, without
// creating a contract.
func (b *BnplAPI) Preview(ctx context.Context, req BnplDecisionRequest) ([]InstallmentSchedule, error) {
	var schedule []InstallmentSchedule
	if err := b.client.Post(ctx, EndpointBnplPreview, req, &schedule, nil); err != nil {
		return nil, err
	}
	return schedule, nil
}
