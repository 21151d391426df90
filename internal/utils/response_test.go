package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON_SuccessResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	resp := SuccessResponse("Payment verified and tickets sent to ada@example.com.", "ada@example.com", []string{"TKT-AAAAAAAA"})

	require.NoError(t, WriteJSON(rec, http.StatusOK, resp))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, []interface{}{"TKT-AAAAAAAA"}, body["tickets"])
}

func TestFailedAndErrorResponsesOmitTickets(t *testing.T) {
	for _, resp := range []WebhookResponse{FailedResponse("Payment verification failed."), ErrorResponse("boom")} {
		data, err := json.Marshal(resp)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "tickets")
		assert.NotContains(t, string(data), "email")
	}
}
