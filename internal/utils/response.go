package utils

import (
	"encoding/json"
	"net/http"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusError   = "error"
)

// WebhookResponse is the body of every /verify reply. The HTTP status is 200
// for all outcomes; Status carries the business result.
type WebhookResponse struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Email   string   `json:"email,omitempty"`
	Tickets []string `json:"tickets,omitempty"`
}

func SuccessResponse(message, email string, tickets []string) WebhookResponse {
	return WebhookResponse{
		Status:  StatusSuccess,
		Message: message,
		Email:   email,
		Tickets: tickets,
	}
}

func FailedResponse(message string) WebhookResponse {
	return WebhookResponse{Status: StatusFailed, Message: message}
}

func ErrorResponse(message string) WebhookResponse {
	return WebhookResponse{Status: StatusError, Message: message}
}

// WriteJSON encodes v with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}
