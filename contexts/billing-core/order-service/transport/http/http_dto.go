package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type BillingAddressDTO struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	Address1   string `json:"address1"`
	Address2   string `json:"address2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type OrderItemInputDTO struct {
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	ReferenceID string `json:"reference_id,omitempty"`
}

type CreateOrderRequest struct {
	OrderType string              `json:"order_type"`
	Currency  string              `json:"currency"`
	Items     []OrderItemInputDTO `json:"items"`
	Tax       string              `json:"tax,omitempty"`
	Discount  string              `json:"discount,omitempty"`
	UserID    string              `json:"user_id"`
	Billing   BillingAddressDTO   `json:"billing_address"`
	Notes     string              `json:"notes,omitempty"`
}

type CompleteOrderRequest struct {
	PaymentRef string `json:"payment_ref"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

type RefundOrderRequest struct {
	Reason string `json:"reason"`
}

type OrderItemDTO struct {
	ItemID      string `json:"item_id"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Total       string `json:"total"`
	ReferenceID string `json:"reference_id,omitempty"`
}

type OrderDTO struct {
	OrderID     string            `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	OrderType   string            `json:"order_type"`
	UserID      string            `json:"user_id"`
	Items       []OrderItemDTO    `json:"items"`
	Subtotal    string            `json:"subtotal"`
	Tax         string            `json:"tax"`
	Discount    string            `json:"discount"`
	Total       string            `json:"total"`
	Currency    string            `json:"currency"`
	Status      string            `json:"status"`
	PaymentRef  string            `json:"payment_ref,omitempty"`
	InvoiceID   string            `json:"invoice_id,omitempty"`
	Notes       string            `json:"notes,omitempty"`
	Billing     BillingAddressDTO `json:"billing_address"`
	CreatedAt   string            `json:"created_at"`
	UpdatedAt   string            `json:"updated_at"`
}

type CreateOrderResponse struct {
	Order OrderDTO `json:"order"`
}

type GetOrderResponse struct {
	Order OrderDTO `json:"order"`
}

type CompleteOrderResponse struct {
	Order    OrderDTO `json:"order"`
	Replayed bool     `json:"replayed"`
}

type ListOrdersResponse struct {
	Items []OrderDTO `json:"items"`
}

type OrderStatsResponse struct {
	Counts map[string]int `json:"counts"`
}

type CreateInvoiceRequest struct {
	Currency string              `json:"currency"`
	Items    []OrderItemInputDTO `json:"items"`
	Tax      string              `json:"tax,omitempty"`
	Discount string              `json:"discount,omitempty"`
	UserID   string              `json:"user_id"`
	DueDate  string              `json:"due_date"`
	Billing  BillingAddressDTO   `json:"billing_address"`
	Notes    string              `json:"notes,omitempty"`
}

type MarkInvoicePaidRequest struct {
	PaidAt     string `json:"paid_at,omitempty"`
	PaymentRef string `json:"payment_ref"`
}

type CancelInvoiceRequest struct {
	Reason string `json:"reason"`
}

type RefundInvoiceRequest struct {
	Reason string `json:"reason"`
}

type InvoiceDTO struct {
	InvoiceID     string            `json:"invoice_id"`
	InvoiceNumber string            `json:"invoice_number"`
	OrderID       string            `json:"order_id,omitempty"`
	UserID        string            `json:"user_id"`
	Items         []OrderItemDTO    `json:"items"`
	Subtotal      string            `json:"subtotal"`
	Tax           string            `json:"tax"`
	Discount      string            `json:"discount"`
	Total         string            `json:"total"`
	Currency      string            `json:"currency"`
	Status        string            `json:"status"`
	DueDate       string            `json:"due_date"`
	SentAt        string            `json:"sent_at,omitempty"`
	PaidAt        string            `json:"paid_at,omitempty"`
	PaymentRef    string            `json:"payment_ref,omitempty"`
	Notes         string            `json:"notes,omitempty"`
	Billing       BillingAddressDTO `json:"billing_address"`
	CreatedAt     string            `json:"created_at"`
	UpdatedAt     string            `json:"updated_at"`
}

type CreateInvoiceResponse struct {
	Invoice InvoiceDTO `json:"invoice"`
}

type IssueInvoiceResponse struct {
	Invoice InvoiceDTO `json:"invoice"`
	Created bool       `json:"created"`
}

type GetInvoiceResponse struct {
	Invoice InvoiceDTO `json:"invoice"`
}

type SendInvoiceResponse struct {
	Invoice InvoiceDTO `json:"invoice"`
	Sent    bool       `json:"sent"`
}

type ListInvoicesResponse struct {
	Items []InvoiceDTO `json:"items"`
}

type InvoiceStatsResponse struct {
	Counts map[string]int `json:"counts"`
}
