package models

// CustomerInfo carries the buyer details collected at checkout. Free-text
// fields are sanitized before the order leaves this service.
type CustomerInfo struct {
	Name    string `json:"name"    validate:"required,min=2,max=100"`
	Email   string `json:"email"   validate:"required,email"`
	Phone   string `json:"phone"   validate:"required,min=8,max=20"`
	Address string `json:"address" validate:"required,min=5,max=255"`
	Note    string `json:"note,omitempty" validate:"max=500"`
}

// CheckoutRequest is what the storefront client submits. Items is the
// client's own view of the cart, carried as a backup so the order can still
// be honored when the server-side store turns out to be empty.
type CheckoutRequest struct {
	Customer      CustomerInfo `json:"customer"`
	PaymentMethod string       `json:"paymentMethod,omitempty" validate:"omitempty,oneof=cod bank_transfer card"`
	Items         []CartItem   `json:"items,omitempty"`
}

// OrderSubmission is the payload forwarded to the upstream order API.
type OrderSubmission struct {
	SessionID     string       `json:"sessionId"`
	Customer      CustomerInfo `json:"customer"`
	Items         []CartItem   `json:"items"`
	Total         float64      `json:"total"`
	ItemCount     int          `json:"itemCount"`
	PaymentMethod string       `json:"paymentMethod,omitempty"`
}

type CheckoutResponse struct {
	OrderID   string  `json:"orderId"`
	Status    string  `json:"status,omitempty"`
	Total     float64 `json:"total"`
	ItemCount int     `json:"itemCount"`
}
