package models

// Ticket is one admission unit. The rendered QR image is either held in
// memory (Image) or persisted on disk (ImagePath), never both.
type Ticket struct {
	ID        string `json:"ticket_id"`
	Image     []byte `json:"-"`
	ImagePath string `json:"-"`
}

// AttachmentName is the file name used when the ticket image is mailed.
func (t Ticket) AttachmentName() string {
	return t.ID + ".png"
}

// TicketIDs returns the ids of tickets in order.
func TicketIDs(tickets []Ticket) []string {
	ids := make([]string, 0, len(tickets))
	for _, t := range tickets {
		ids = append(ids, t.ID)
	}
	return ids
}
