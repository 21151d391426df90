package issuance

import (
	"errors"
	"fmt"

	"ticket-backend/internal/notification"
	"ticket-backend/internal/payment"
	"ticket-backend/internal/sales"
	qr "ticket-backend/internal/tickets/qr_genrator"
)

var (
	ErrValidation           = errors.New("invalid request")
	ErrVerificationRejected = errors.New("payment not verified")
	ErrDuplicateReference   = errors.New("payment reference already used")
	ErrSaleInProgress       = errors.New("a request for this payment reference is already being processed")

	ErrRender              = qr.ErrRender
	ErrLedgerWrite         = sales.ErrLedgerWrite
	ErrDelivery            = notification.ErrDelivery
	ErrUpstreamUnavailable = payment.ErrUpstreamUnavailable
)

// IsRejection reports whether err is a business refusal rather than a fault.
// Rejections map to status "failed", faults to "error".
func IsRejection(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrVerificationRejected) ||
		errors.Is(err, ErrDuplicateReference) ||
		errors.Is(err, ErrSaleInProgress)
}

// mark makes sure err matches sentinel without losing its own chain.
func mark(sentinel, err error) error {
	if errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
