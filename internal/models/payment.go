package models

import "encoding/json"

type PaymentStatus string

const (
	PaymentSuccess   PaymentStatus = "success"
	PaymentFailed    PaymentStatus = "failed"
	PaymentAbandoned PaymentStatus = "abandoned"
	PaymentUnknown   PaymentStatus = "unknown"
)

// PaymentVerification is the outcome of asking the gateway about a reference.
type PaymentVerification struct {
	Reference string
	Status    PaymentStatus
	Amount    int64
	Currency  string
	Message   string
	Raw       json.RawMessage
}

func (v *PaymentVerification) Verified() bool {
	return v != nil && v.Status == PaymentSuccess
}

// PaystackVerifyResponse is the body of GET /transaction/verify/{reference}.
type PaystackVerifyResponse struct {
	Status  bool                 `json:"status"`
	Message string               `json:"message"`
	Data    *PaystackTransaction `json:"data"`
}

type PaystackTransaction struct {
	ID        int64            `json:"id"`
	Status    string           `json:"status"`
	Reference string           `json:"reference"`
	Amount    int64            `json:"amount"`
	Currency  string           `json:"currency"`
	PaidAt    string           `json:"paid_at"`
	Customer  PaystackCustomer `json:"customer"`
}

type PaystackCustomer struct {
	Email string `json:"email"`
}
