package tickets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"ticket-backend/internal/logger"
	"ticket-backend/internal/models"
	"ticket-backend/internal/utils"
)

type Renderer interface {
	Render(payload string) ([]byte, error)
	RenderToFile(payload, path string) error
}

// TicketService issues tickets for a verified sale. With a non-empty Dir the
// images are written as <Dir>/<ticket_id>.png, otherwise kept in memory.
type TicketService struct {
	Renderer Renderer
	Dir      string
	NewID    func() string
	Logger   *logger.Logger
}

func NewTicketService(renderer Renderer, dir string, log *logger.Logger) *TicketService {
	return &TicketService{
		Renderer: renderer,
		Dir:      dir,
		NewID:    utils.GenerateTicketID,
		Logger:   log,
	}
}

// IssueTickets generates quantity distinct tickets. It is all-or-nothing:
// on any failure the images already written are removed and no tickets are returned.
func (s *TicketService) IssueTickets(quantity int) ([]models.Ticket, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be positive, got %d", quantity)
	}

	issued := make([]models.Ticket, 0, quantity)
	seen := make(map[string]struct{}, quantity)

	for len(issued) < quantity {
		id := s.NewID()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		ticket, err := s.render(id)
		if err != nil {
			s.discard(issued)
			return nil, err
		}
		issued = append(issued, ticket)
	}

	s.Logger.Info("TICKETS", fmt.Sprintf("Issued %d ticket(s)", len(issued)))
	return issued, nil
}

func (s *TicketService) render(id string) (models.Ticket, error) {
	ticket := models.Ticket{ID: id}

	if s.Dir == "" {
		img, err := s.Renderer.Render(id)
		if err != nil {
			s.Logger.Error("TICKETS", fmt.Sprintf("Failed to render QR for %s: %v", id, err))
			return ticket, fmt.Errorf("render ticket %s: %w", id, err)
		}
		ticket.Image = img
		return ticket, nil
	}

	path := filepath.Join(s.Dir, ticket.AttachmentName())
	if err := s.Renderer.RenderToFile(id, path); err != nil {
		s.Logger.Error("TICKETS", fmt.Sprintf("Failed to write QR for %s: %v", id, err))
		return ticket, fmt.Errorf("render ticket %s: %w", id, err)
	}
	ticket.ImagePath = path
	return ticket, nil
}

// Discard removes the images of tickets that will not be delivered.
func (s *TicketService) Discard(tickets []models.Ticket) {
	s.discard(tickets)
}

func (s *TicketService) discard(tickets []models.Ticket) {
	for _, t := range tickets {
		if t.ImagePath == "" {
			continue
		}
		if err := os.Remove(t.ImagePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.Logger.Warn("TICKETS", fmt.Sprintf("Failed to remove %s: %v", t.ImagePath, err))
		}
	}
}
