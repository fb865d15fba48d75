package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balbiss/pix-automatico/internal/domain"
	"github.com/balbiss/pix-automatico/internal/service"
)

type fakeReconciler struct {
	events  []domain.PaymentEvent
	outcome service.Outcome
	err     error
}

func (f *fakeReconciler) Process(_ context.Context, event domain.PaymentEvent) (service.Outcome, error) {
	f.events = append(f.events, event)
	if f.err != nil {
		return "", f.err
	}
	return f.outcome, nil
}

func postWebhook(t *testing.T, h *WebhookHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook/gateway", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ReceiveGatewayWebhook(rec, req)
	return rec
}

func TestWebhook_PayloadShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want domain.PaymentEvent
	}{
		{
			name: "flat idtransaction with external_id",
			body: `{"idtransaction":"tx-1","status":"PAID","external_id":"TX_555123_1699999999000"}`,
			want: domain.PaymentEvent{TransactionID: "tx-1", Status: "PAID", Correlation: "TX_555123_1699999999000"},
		},
		{
			name: "flat id with externalreference",
			body: `{"id":"tx-1","status":"completed","externalreference":"555123"}`,
			want: domain.PaymentEvent{TransactionID: "tx-1", Status: "completed", Correlation: "555123"},
		},
		{
			name: "data envelope with outer status",
			body: `{"status":"PAID","data":{"id":"tx-1","external_id":"555123"}}`,
			want: domain.PaymentEvent{TransactionID: "tx-1", Status: "PAID", Correlation: "555123"},
		},
		{
			name: "data envelope with inner status",
			body: `{"data":{"idtransaction":"tx-1","status":"PAID_OUT"}}`,
			want: domain.PaymentEvent{TransactionID: "tx-1", Status: "PAID_OUT"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reconciler := &fakeReconciler{outcome: service.OutcomeActivated}
			h := NewWebhookHandler(reconciler)

			rec := postWebhook(t, h, tt.body)
			assert.Equal(t, http.StatusOK, rec.Code)

			require.Len(t, reconciler.events, 1)
			assert.Equal(t, tt.want, reconciler.events[0])
		})
	}
}

func TestWebhook_AlwaysAcknowledges(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus string
	}{
		{
			name:       "unresolved payment still acked",
			body:       `{"idtransaction":"tx-x","status":"PAID"}`,
			err:        fmt.Errorf("Process: %w", domain.ErrUnresolvedPayment),
			wantStatus: "unresolved",
		},
		{
			name:       "unknown account still acked",
			body:       `{"idtransaction":"tx-x","status":"PAID"}`,
			err:        fmt.Errorf("Process: %w", domain.ErrUnknownAccount),
			wantStatus: "unknown_account",
		},
		{
			name:       "internal error still acked",
			body:       `{"idtransaction":"tx-x","status":"PAID"}`,
			err:        fmt.Errorf("store down"),
			wantStatus: "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewWebhookHandler(&fakeReconciler{err: tt.err})

			rec := postWebhook(t, h, tt.body)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantStatus)
		})
	}
}

func TestWebhook_UnparseableBodyAcked(t *testing.T) {
	reconciler := &fakeReconciler{outcome: service.OutcomeIgnored}
	h := NewWebhookHandler(reconciler)

	rec := postWebhook(t, h, `not json at all`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, reconciler.events, "unparseable body never reaches the reconciler")
}

func TestWebhook_OutcomeEchoed(t *testing.T) {
	h := NewWebhookHandler(&fakeReconciler{outcome: service.OutcomeAlreadyProcessed})

	rec := postWebhook(t, h, `{"idtransaction":"tx-1","status":"PAID"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "already_processed")
}
