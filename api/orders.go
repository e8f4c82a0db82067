package api

import "context"

// OrdersAPI groups the order operations.
type OrdersAPI struct {
	client *Client
}

// NewOrdersAPI creates the orders API group for the given client.
func NewOrdersAPI(client *Client) *OrdersAPI {
	return &OrdersAPI{client: client}
}

// List returns a page of the caller's orders.
func (o *OrdersAPI) List(ctx context.Context, page PaginationParams) ([]OrderSummary, *Meta, error) {
	var orders []OrderSummary
	meta, err := o.client.GetWithMeta(ctx, EndpointOrders, &orders, &RequestOptions{Query: page.Query()})
	if err != nil {
		return nil, nil, err
	}
	return orders, meta, nil
}

// Get returns one order with its items and addresses.
func (o *OrdersAPI) Get(ctx context.Context, id string) (*OrderDetails, error) {
	var order OrderDetails
	if err := o.client.Get(ctx, OrderEndpoint(id), &order, nil); err != nil {
		return nil, err
	}
	return &order, nil
}

// CreateOrderRequest is the payload for creating an order.
type CreateOrderRequest struct {
	Items    []OrderItem      `json:"items"`
	Shipping ShippingAddress  `json:"shipping"`
	Billing  *ShippingAddress `json:"billing,omitempty"`
}

// Create places a new order.
func (o *OrdersAPI) Create(ctx context.Context, req CreateOrderRequest) (*OrderDetails, error) {
	var order OrderDetails
	if err := o.client.Post(ctx, EndpointOrders, req, &order, nil); err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateStatus transitions an order to a new status.
func (o *OrdersAPI) UpdateStatus(ctx context.Context, id, status string) (*OrderSummary, error) {
	req := map[string]string{"status": status}
	var order OrderSummary
	if err := o.client.Patch(ctx, OrderStatusEndpoint(id), req, &order, nil); err != nil {
		return nil, err
	}
	return &order, nil
}
