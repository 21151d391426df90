package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyRequest_QuantityCoercion(t *testing.T) {
	cases := []struct {
		name string
		body string
		want int
	}{
		{"absent", `{"reference":"r"}`, 1},
		{"null", `{"quantity":null}`, 1},
		{"number", `{"quantity":3}`, 3},
		{"string", `{"quantity":"4"}`, 4},
		{"padded string", `{"quantity":" 2 "}`, 2},
		{"integral float", `{"quantity":2.0}`, 2},
		{"zero", `{"quantity":0}`, 0},
		{"negative", `{"quantity":-5}`, -5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var req VerifyRequest
			require.NoError(t, json.Unmarshal([]byte(tc.body), &req))
			assert.Equal(t, tc.want, req.Quantity.Int())
		})
	}
}

func TestVerifyRequest_QuantityRejectsNonIntegers(t *testing.T) {
	for _, body := range []string{`{"quantity":"two"}`, `{"quantity":1.5}`, `{"quantity":true}`} {
		var req VerifyRequest
		assert.Error(t, json.Unmarshal([]byte(body), &req), body)
	}
}

func TestTicketIDs(t *testing.T) {
	tickets := []Ticket{{ID: "TKT-AAAAAAAA"}, {ID: "TKT-BBBBBBBB"}}
	assert.Equal(t, []string{"TKT-AAAAAAAA", "TKT-BBBBBBBB"}, TicketIDs(tickets))
	assert.Equal(t, "TKT-AAAAAAAA.png", tickets[0].AttachmentName())
}

func TestPaymentVerification_Verified(t *testing.T) {
	var nilResult *PaymentVerification
	assert.False(t, nilResult.Verified())
	assert.False(t, (&PaymentVerification{Status: PaymentAbandoned}).Verified())
	assert.True(t, (&PaymentVerification{Status: PaymentSuccess}).Verified())
}
