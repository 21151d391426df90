package utils

import (
	"math/rand/v2"

	"github.com/google/uuid"
)

const (
	TicketIDPrefix   = "TKT-"
	TicketIDLength   = 8
	ticketIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// GenerateTicketID returns "TKT-" followed by 8 characters from [A-Z0-9].
// Uniqueness is probabilistic (36^8 values); nothing checks the ledger.
func GenerateTicketID() string {
	b := make([]byte, len(TicketIDPrefix)+TicketIDLength)
	copy(b, TicketIDPrefix)
	for i := len(TicketIDPrefix); i < len(b); i++ {
		b[i] = ticketIDAlphabet[rand.IntN(len(ticketIDAlphabet))]
	}
	return string(b)
}

// GenerateSaleID creates a random UUID v4 for a ledger entry.
func GenerateSaleID() string {
	return uuid.NewString()
}
