package issuance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ticket-backend/internal/lock"
	"ticket-backend/internal/logger"
	"ticket-backend/internal/metrics"
	"ticket-backend/internal/models"
	"ticket-backend/internal/utils"

	"github.com/google/uuid"
)

type Verifier interface {
	Verify(ctx context.Context, reference string) (*models.PaymentVerification, error)
}

type TicketIssuer interface {
	IssueTickets(quantity int) ([]models.Ticket, error)
	Discard(tickets []models.Ticket)
}

type Ledger interface {
	Append(ctx context.Context, sale *models.SaleRecord) error
	HasReference(ctx context.Context, reference string) (bool, error)
}

type Notifier interface {
	Notify(to, buyerName string, tickets []models.Ticket) error
}

type EventPublisher interface {
	PublishSaleRecorded(ctx context.Context, sale models.SaleRecord) error
}

type State string

const (
	StateReceived  State = "RECEIVED"
	StateVerifying State = "VERIFYING"
	StateVerified  State = "VERIFIED"
	StateRejected  State = "REJECTED"
	StateIssuing   State = "ISSUING"
	StateRecording State = "RECORDING"
	StateNotifying State = "NOTIFYING"
	StateCompleted State = "COMPLETED"
	StateFailed    State = "FAILED"
)

type Service struct {
	Verifier Verifier
	Tickets  TicketIssuer
	Ledger   Ledger
	Notifier Notifier
	Events   EventPublisher
	Locker   lock.Locker
	Logger   *logger.Logger

	MaxPerSale       int
	RejectDuplicates bool
	LockTTL          time.Duration
	NewSaleID        func() string
	// CommitTimeout bounds recording and publishing once a payment is verified.
	// That work is detached from the caller's context.
	CommitTimeout    time.Duration
}

func NewService(verifier Verifier, tickets TicketIssuer, ledger Ledger, notifier Notifier, locker lock.Locker, log *logger.Logger) *Service {
	return &Service{
		Verifier:         verifier,
		Tickets:          tickets,
		Ledger:           ledger,
		Notifier:         notifier,
		Locker:           locker,
		Logger:           log,
		MaxPerSale:       10,
		RejectDuplicates: true,
		LockTTL:          2 * time.Minute,
		NewSaleID:        utils.GenerateSaleID,
		CommitTimeout:    30 * time.Second,
	}
}

// Result is the outcome of one issuance request.
type Result struct {
	State     State
	Reference string
	Email     string
	Message   string
	Tickets   []string
	Sale      *models.SaleRecord
	Err       error
}

func (r *Result) Status() string {
	switch {
	case r.Err == nil:
		return utils.StatusSuccess
	case IsRejection(r.Err):
		return utils.StatusFailed
	default:
		return utils.StatusError
	}
}

// Response renders the result as the /verify body. A sale that was recorded
// but not delivered still carries its ticket ids.
func (r *Result) Response() utils.WebhookResponse {
	switch r.Status() {
	case utils.StatusSuccess:
		return utils.SuccessResponse(r.Message, r.Email, r.Tickets)
	case utils.StatusFailed:
		return utils.FailedResponse(r.Message)
	default:
		resp := utils.ErrorResponse(r.Message)
		if r.Sale != nil {
			resp.Email = r.Email
			resp.Tickets = r.Tickets
		}
		return resp
	}
}

func (s *Service) commitContext(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if s.CommitTimeout <= 0 {
		return context.WithCancel(detached)
	}
	return context.WithTimeout(detached, s.CommitTimeout)
}

func (s *Service) transition(res *Result, next State) {
	s.Logger.Debug("ISSUANCE", fmt.Sprintf("%s: %s -> %s", res.Reference, res.State, next))
	res.State = next
}

func (s *Service) fail(res *Result, state State, err error, message string) *Result {
	s.transition(res, state)
	res.Err = err
	res.Message = message
	return res
}

// Process runs the verify, issue, record, notify sequence for one request.
// It never panics on business failures; every outcome is reported in the Result.
func (s *Service) Process(ctx context.Context, req models.VerifyRequest) *Result {
	res := &Result{State: StateReceived, Reference: req.Reference, Email: req.Email}
	defer func() {
		metrics.IssuanceTotal.WithLabelValues(res.Status()).Inc()
	}()

	req, quantity, err := s.normalize(req)
	res.Reference, res.Email = req.Reference, req.Email
	if err != nil {
		s.Logger.Warn("ISSUANCE", fmt.Sprintf("Rejected request for %q: %v", req.Reference, err))
		return s.fail(res, StateRejected, err, err.Error())
	}

	owner := uuid.NewString()
	key := lock.ReferenceKey(req.Reference)
	ok, err := s.Locker.Acquire(ctx, key, owner, s.LockTTL)
	if err != nil {
		s.Logger.Error("ISSUANCE", fmt.Sprintf("Lock for %s unavailable: %v", req.Reference, err))
		return s.fail(res, StateFailed, fmt.Errorf("acquire reference lock: %w", err), "Could not process payment right now, please retry")
	}
	if !ok {
		s.Logger.Warn("ISSUANCE", fmt.Sprintf("Reference %s already in progress", req.Reference))
		return s.fail(res, StateRejected, ErrSaleInProgress, "A request for this payment reference is already being processed")
	}
	defer func() {
		if err := s.Locker.Release(context.WithoutCancel(ctx), key, owner); err != nil {
			s.Logger.Warn("ISSUANCE", fmt.Sprintf("Failed to release lock for %s: %v", req.Reference, err))
		}
	}()

	if s.RejectDuplicates {
		used, err := s.Ledger.HasReference(ctx, req.Reference)
		if err != nil {
			s.Logger.Error("ISSUANCE", fmt.Sprintf("Ledger lookup for %s failed: %v", req.Reference, err))
			return s.fail(res, StateFailed, fmt.Errorf("check reference: %w", err), "Could not check payment reference, please retry")
		}
		if used {
			s.Logger.Warn("ISSUANCE", fmt.Sprintf("Reference %s already recorded", req.Reference))
			return s.fail(res, StateRejected, ErrDuplicateReference, "Payment reference already used")
		}
	}

	s.transition(res, StateVerifying)
	verification, err := s.Verifier.Verify(ctx, req.Reference)
	if err != nil {
		s.Logger.Error("ISSUANCE", fmt.Sprintf("Verification of %s failed: %v", req.Reference, err))
		return s.fail(res, StateFailed, err, "Could not verify payment: "+err.Error())
	}
	if !verification.Verified() {
		s.Logger.Info("ISSUANCE", fmt.Sprintf("Payment %s not verified (status %s)", req.Reference, verification.Status))
		return s.fail(res, StateRejected,
			fmt.Errorf("%w: status %s", ErrVerificationRejected, verification.Status),
			"Payment not verified")
	}
	s.transition(res, StateVerified)

	// money is taken from here on: a client hang-up must not drop the sale
	commitCtx, cancel := s.commitContext(ctx)
	defer cancel()

	s.transition(res, StateIssuing)
	tickets, err := s.Tickets.IssueTickets(quantity)
	if err != nil {
		err = mark(ErrRender, err)
		s.Logger.Error("ISSUANCE", fmt.Sprintf("Issuing tickets for %s failed: %v", req.Reference, err))
		return s.fail(res, StateFailed, err, "Could not generate tickets: "+err.Error())
	}
	ids := models.TicketIDs(tickets)

	s.transition(res, StateRecording)
	sale := &models.SaleRecord{
		SaleID:           s.NewSaleID(),
		BuyerName:        req.Name,
		BuyerEmail:       req.Email,
		Quantity:         quantity,
		PaymentReference: req.Reference,
		TicketIDs:        ids,
	}
	if err := s.Ledger.Append(commitCtx, sale); err != nil {
		s.Tickets.Discard(tickets)
		err = mark(ErrLedgerWrite, err)
		s.Logger.Error("ISSUANCE", fmt.Sprintf("Recording sale for %s failed, tickets discarded: %v", req.Reference, err))
		return s.fail(res, StateFailed, err, "Could not record sale: "+err.Error())
	}
	res.Sale = sale
	res.Tickets = ids

	if s.Events != nil {
		if err := s.Events.PublishSaleRecorded(commitCtx, *sale); err != nil {
			s.Logger.Warn("KAFKA", fmt.Sprintf("Sale event for %s not published: %v", req.Reference, err))
		}
	}

	s.transition(res, StateNotifying)
	if err := s.Notifier.Notify(req.Email, req.Name, tickets); err != nil {
		err = mark(ErrDelivery, err)
		s.Logger.Error("ISSUANCE", fmt.Sprintf("Sale %s for %s recorded but tickets NOT delivered to %s: %v", sale.SaleID, req.Reference, req.Email, err))
		return s.fail(res, StateFailed, err,
			fmt.Sprintf("Sale recorded but tickets could not be emailed to %s; contact support with reference %s", req.Email, req.Reference))
	}

	s.transition(res, StateCompleted)
	metrics.TicketsIssued.Add(float64(len(ids)))
	res.Message = fmt.Sprintf("Payment verified. %d ticket(s) sent to %s", len(ids), req.Email)
	s.Logger.LogSale("COMPLETED", req.Reference, res.Message)
	return res
}

// IsRecordedButUndelivered reports the one state where money was taken and
// recorded but the buyer has not received the tickets.
func (r *Result) IsRecordedButUndelivered() bool {
	return r.Sale != nil && errors.Is(r.Err, ErrDelivery)
}
