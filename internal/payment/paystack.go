package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"ticket-backend/internal/logger"
	"ticket-backend/internal/metrics"
	"ticket-backend/internal/models"

	"github.com/cenkalti/backoff/v4"
)

var (
	// ErrUpstreamUnavailable covers network failures, timeouts and 5xx/429 replies.
	ErrUpstreamUnavailable = errors.New("payment gateway unavailable")
	// ErrMalformedResponse is returned when the gateway body cannot be decoded.
	ErrMalformedResponse = errors.New("malformed payment gateway response")
)

const maxBodyBytes = 1 << 20

type PaystackVerifier struct {
	baseURL   string
	secretKey string
	hc        *http.Client
	logger    *logger.Logger

	MaxRetries      int
	InitialInterval time.Duration
}

func NewPaystackVerifier(baseURL, secretKey string, timeout time.Duration, maxRetries int, log *logger.Logger) *PaystackVerifier {
	return &PaystackVerifier{
		baseURL:         baseURL,
		secretKey:       secretKey,
		hc:              &http.Client{Timeout: timeout},
		logger:          log,
		MaxRetries:      maxRetries,
		InitialInterval: 500 * time.Millisecond,
	}
}

// Verify asks Paystack whether reference is a completed payment. A returned
// verification with a non-success status is a business rejection; an error
// means the payment could not be confirmed either way and must not be trusted.
func (p *PaystackVerifier) Verify(ctx context.Context, reference string) (*models.PaymentVerification, error) {
	var result *models.PaymentVerification

	op := func() error {
		v, err := p.verifyOnce(ctx, reference)
		if err != nil {
			if errors.Is(err, ErrUpstreamUnavailable) {
				metrics.VerificationAttempts.WithLabelValues("unavailable").Inc()
				return err
			}
			metrics.VerificationAttempts.WithLabelValues("malformed").Inc()
			return backoff.Permanent(err)
		}
		metrics.VerificationAttempts.WithLabelValues(string(v.Status)).Inc()
		result = v
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = p.InitialInterval
	retries := p.MaxRetries
	if retries < 0 {
		retries = 0
	}

	notify := func(err error, wait time.Duration) {
		p.logger.Warn("PAYMENT", fmt.Sprintf("Verification of %s failed, retrying in %s: %v", reference, wait, err))
	}

	err := backoff.RetryNotify(op, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(retries)), ctx), notify)
	if err != nil {
		p.logger.Error("PAYMENT", fmt.Sprintf("Verification of %s failed: %v", reference, err))
		if ctx.Err() != nil && !errors.Is(err, ErrUpstreamUnavailable) {
			err = fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
		}
		return nil, err
	}

	p.logger.Info("PAYMENT", fmt.Sprintf("Reference %s verified with status %q", reference, result.Status))
	return result, nil
}

func (p *PaystackVerifier) verifyOnce(ctx context.Context, reference string) (*models.PaymentVerification, error) {
	endpoint := fmt.Sprintf("%s/transaction/verify/%s", p.baseURL, url.PathEscape(reference))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := p.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUpstreamUnavailable, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	var envelope models.PaystackVerifyResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: status %d: %v", ErrMalformedResponse, resp.StatusCode, err)
	}

	result := &models.PaymentVerification{
		Reference: reference,
		Status:    models.PaymentUnknown,
		Message:   envelope.Message,
		Raw:       json.RawMessage(body),
	}

	if envelope.Data != nil {
		if envelope.Data.Status != "" {
			result.Status = models.PaymentStatus(envelope.Data.Status)
		}
		result.Amount = envelope.Data.Amount
		result.Currency = envelope.Data.Currency
	}

	// a 2xx with data.status=success is the only verified outcome
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := fmt.Sprintf("Gateway refused verification of %s with HTTP %d: %s", reference, resp.StatusCode, envelope.Message)
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			p.logger.Error("PAYMENT", msg+" (check PAYSTACK_SECRET_KEY)")
		} else {
			p.logger.Warn("PAYMENT", msg)
		}
		metrics.VerificationAttempts.WithLabelValues("refused").Inc()
		if result.Status == models.PaymentSuccess {
			result.Status = models.PaymentUnknown
		}
	}

	return result, nil
}
