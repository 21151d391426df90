package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SaleRecord is one immutable ledger entry. JSON keys match the sales.json
// layout written by earlier versions of the service.
type SaleRecord struct {
	bun.BaseModel `bun:"table:sales"`

	ID               int64     `json:"-" bun:"id,pk,autoincrement"`
	SaleID           string    `json:"sale_id,omitempty" bun:"sale_id,unique,notnull"`
	BuyerName        string    `json:"name" bun:"buyer_name,notnull"`
	BuyerEmail       string    `json:"email" bun:"buyer_email,notnull"`
	Quantity         int       `json:"quantity" bun:"quantity,notnull"`
	PaymentReference string    `json:"payment_reference" bun:"payment_reference,notnull"`
	TicketIDs        []string  `json:"tickets,omitempty" bun:"ticket_ids"`
	Timestamp        time.Time `json:"time" bun:"recorded_at,notnull"`
}

// SaleRecordedEvent is published after a sale lands in the ledger.
type SaleRecordedEvent struct {
	EventID          uuid.UUID `json:"event_id"`
	SaleID           string    `json:"sale_id"`
	PaymentReference string    `json:"payment_reference"`
	BuyerEmail       string    `json:"buyer_email"`
	Quantity         int       `json:"quantity"`
	TicketIDs        []string  `json:"ticket_ids"`
	RecordedAt       time.Time `json:"recorded_at"`
}

func NewSaleRecordedEvent(sale SaleRecord) SaleRecordedEvent {
	return SaleRecordedEvent{
		EventID:          uuid.New(),
		SaleID:           sale.SaleID,
		PaymentReference: sale.PaymentReference,
		BuyerEmail:       sale.BuyerEmail,
		Quantity:         sale.Quantity,
		TicketIDs:        sale.TicketIDs,
		RecordedAt:       sale.Timestamp,
	}
}
