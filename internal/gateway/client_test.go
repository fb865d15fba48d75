package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balbiss/pix-automatico/internal/domain"
)

func newTestGateway(t *testing.T, cashIn http.HandlerFunc, cashOut http.HandlerFunc) *Client {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/partner/v1/auth-token", func(w http.ResponseWriter, r *http.Request) {
		var creds map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		if creds["client_secret"] != "good-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-1"})
	})
	if cashIn != nil {
		mux.HandleFunc("POST /api/partner/v1/cash-in", cashIn)
	}
	if cashOut != nil {
		mux.HandleFunc("POST /api/partner/v1/cash-out", cashOut)
	}

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "client-1", "good-secret", "http://bot/webhook/gateway")
}

func TestCreateCharge_ResponseShapeProbing(t *testing.T) {
	price := decimal.RequireFromString("19.90")

	tests := []struct {
		name string
		body string
	}{
		{name: "flat idtransaction and pix_code", body: `{"idtransaction":"tx-1","pix_code":"0002pix"}`},
		{name: "flat id and pix_copy_and_paste", body: `{"id":"tx-1","pix_copy_and_paste":"0002pix"}`},
		{name: "flat transaction_id and qrcode", body: `{"transaction_id":"tx-1","qrcode":"0002pix"}`},
		{name: "data envelope", body: `{"data":{"id":"tx-1","pix_emv":"0002pix"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusCreated)
				w.Write([]byte(tt.body))
			}, nil)

			charge, err := client.CreateCharge(context.Background(), "TX_555123_1699999999000", price, "Compra E-book")
			require.NoError(t, err)
			assert.Equal(t, "tx-1", charge.TransactionID)
			assert.Equal(t, "0002pix", charge.PixCode)
		})
	}
}

func TestCreateCharge_MalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing transaction id", body: `{"pix_code":"0002pix"}`},
		{name: "missing pix code", body: `{"idtransaction":"tx-1"}`},
		{name: "empty object", body: `{}`},
		{name: "empty envelope", body: `{"data":{}}`},
		{name: "not json", body: `PAID`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusCreated)
				w.Write([]byte(tt.body))
			}, nil)

			_, err := client.CreateCharge(context.Background(), "TX_1_1", decimal.New(1990, -2), "d")
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrMalformedGatewayResponse))
		})
	}
}

func TestCreateCharge_AuthFailure(t *testing.T) {
	client := newTestGateway(t, nil, nil)
	client.clientSecret = "bad-secret"

	_, err := client.CreateCharge(context.Background(), "TX_1_1", decimal.New(1990, -2), "d")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAuthFailure))
}

func TestCreateCharge_GatewayErrorStatus(t *testing.T) {
	client := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, nil)

	_, err := client.CreateCharge(context.Background(), "TX_1_1", decimal.New(1990, -2), "d")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrChargeCreationFailed))
}

func TestCreateCharge_RequestBody(t *testing.T) {
	var got chargeRequest
	client := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"idtransaction": "tx-1", "pix_code": "0002pix"})
	}, nil)

	_, err := client.CreateCharge(context.Background(), "TX_555123_1699999999000", decimal.RequireFromString("19.90"), "Compra E-book - User 555123")
	require.NoError(t, err)

	assert.Equal(t, "TX_555123_1699999999000", got.ExternalID)
	assert.InDelta(t, 19.90, got.Amount, 0.001)
	assert.Equal(t, "Compra E-book - User 555123", got.Description)
	assert.Equal(t, "http://bot/webhook/gateway", got.WebhookURL)
	assert.Equal(t, "00000000000", got.Client.CPF)
}

func TestCreatePayout_ReferenceID(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "reference_id field", body: `{"reference_id":"ref-42"}`},
		{name: "id fallback", body: `{"id":"ref-42"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestGateway(t, nil, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tt.body))
			})

			ref, err := client.CreatePayout(context.Background(), "12345678901", decimal.RequireFromString("45.10"), "Saque")
			require.NoError(t, err)
			assert.Equal(t, "ref-42", ref)
		})
	}
}

func TestCreatePayout_MissingReference(t *testing.T) {
	client := newTestGateway(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"processing"}`))
	})

	_, err := client.CreatePayout(context.Background(), "12345678901", decimal.RequireFromString("45.10"), "Saque")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMalformedGatewayResponse))
}
