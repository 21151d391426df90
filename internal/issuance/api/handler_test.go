package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ticket-backend/internal/issuance"
	"ticket-backend/internal/logger"
	"ticket-backend/internal/models"
	"ticket-backend/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProcessor struct {
	mock.Mock
}

func (m *MockProcessor) Process(ctx context.Context, req models.VerifyRequest) *issuance.Result {
	args := m.Called(ctx, req)
	return args.Get(0).(*issuance.Result)
}

func newServer(p Processor) *httptest.Server {
	return httptest.NewServer(NewHandler(p, logger.NewNopLogger()).Routes())
}

func decode(t *testing.T, resp *http.Response) utils.WebhookResponse {
	t.Helper()
	defer resp.Body.Close()
	var body utils.WebhookResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHealth(t *testing.T) {
	srv := newServer(new(MockProcessor))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Ticket backend running!", body["message"])
}

func TestVerify_Success(t *testing.T) {
	p := new(MockProcessor)
	p.On("Process", mock.Anything, mock.MatchedBy(func(req models.VerifyRequest) bool {
		return req.Reference == "ref123" && req.Name == "Ada" && req.Quantity.Int() == 2
	})).Return(&issuance.Result{
		State:   issuance.StateCompleted,
		Email:   "ada@example.com",
		Message: "Payment verified. 2 ticket(s) sent to ada@example.com",
		Tickets: []string{"TKT-AAAAAAAA", "TKT-BBBBBBBB"},
	})
	srv := newServer(p)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/verify", "application/json",
		strings.NewReader(`{"reference":"ref123","name":"Ada","email":"ada@example.com","quantity":"2"}`))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	body := decode(t, resp)
	assert.Equal(t, utils.StatusSuccess, body.Status)
	assert.Equal(t, []string{"TKT-AAAAAAAA", "TKT-BBBBBBBB"}, body.Tickets)
	p.AssertExpectations(t)
}

func TestVerify_OutcomesAreAlways200(t *testing.T) {
	cases := []struct {
		name   string
		result *issuance.Result
		status string
	}{
		{"rejected", &issuance.Result{Err: issuance.ErrVerificationRejected, Message: "Payment not verified"}, utils.StatusFailed},
		{"upstream", &issuance.Result{Err: issuance.ErrUpstreamUnavailable, Message: "Could not verify payment"}, utils.StatusError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := new(MockProcessor)
			p.On("Process", mock.Anything, mock.Anything).Return(tc.result)
			srv := newServer(p)
			defer srv.Close()

			resp, err := http.Post(srv.URL+"/verify", "application/json",
				strings.NewReader(`{"reference":"r","name":"n","email":"a@b.co"}`))
			require.NoError(t, err)

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			body := decode(t, resp)
			assert.Equal(t, tc.status, body.Status)
			assert.Equal(t, tc.result.Message, body.Message)
		})
	}
}

func TestVerify_MalformedBody(t *testing.T) {
	p := new(MockProcessor)
	srv := newServer(p)
	defer srv.Close()

	for _, payload := range []string{`{not json`, `{"quantity":"lots"}`, ``} {
		resp, err := http.Post(srv.URL+"/verify", "application/json", strings.NewReader(payload))
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body := decode(t, resp)
		assert.Equal(t, utils.StatusFailed, body.Status)
		assert.Contains(t, body.Message, "Invalid request body")
	}
	p.AssertNotCalled(t, "Process", mock.Anything, mock.Anything)
}

func TestVerify_WrongMethod(t *testing.T) {
	srv := newServer(new(MockProcessor))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/verify")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newServer(new(MockProcessor))
	defer srv.Close()

	warm, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	warm.Body.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	buf := new(strings.Builder)
	_, err = io.Copy(buf, resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "ticket_backend_http_request_seconds")
}
