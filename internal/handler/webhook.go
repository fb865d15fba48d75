package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/balbiss/pix-automatico/internal/domain"
	"github.com/balbiss/pix-automatico/internal/logging"
	"github.com/balbiss/pix-automatico/internal/service"
)

type paymentReconciler interface {
	Process(ctx context.Context, event domain.PaymentEvent) (service.Outcome, error)
}

// WebhookHandler accepts the gateway's payment-status push. The gateway
// retries on anything but a prompt 2xx, so every attempted event is
// acknowledged no matter how reconciliation went; failures are logged and
// counted instead of propagated.
type WebhookHandler struct {
	reconciler paymentReconciler
}

func NewWebhookHandler(reconciler paymentReconciler) *WebhookHandler {
	return &WebhookHandler{reconciler: reconciler}
}

// webhookPayload tolerates every push shape the gateway has emitted across
// versions: the transaction id flat under two names or nested in a data
// envelope, and the correlation token under two names.
type webhookPayload struct {
	IDTransaction     string `json:"idtransaction"`
	ID                string `json:"id"`
	Status            string `json:"status"`
	ExternalID        string `json:"external_id"`
	ExternalReference string `json:"externalreference"`

	Data *webhookPayload `json:"data"`
}

func (p *webhookPayload) toEvent() domain.PaymentEvent {
	if p.Data != nil {
		inner := p.Data.toEvent()
		if inner.TransactionID != "" || inner.Correlation != "" {
			if inner.Status == "" {
				inner.Status = p.Status
			}
			return inner
		}
	}

	event := domain.PaymentEvent{
		TransactionID: p.IDTransaction,
		Status:        p.Status,
	}
	if event.TransactionID == "" {
		event.TransactionID = p.ID
	}
	event.Correlation = p.ExternalID
	if event.Correlation == "" {
		event.Correlation = p.ExternalReference
	}
	return event
}

func (h *WebhookHandler) ReceiveGatewayWebhook(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		log.Error("failed to read webhook body", "error", err)
		RespondJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Warn("unparseable webhook body", "error", err)
		RespondJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	event := payload.toEvent()
	log.Info("webhook received",
		"transaction_id", event.TransactionID,
		"status", event.Status,
	)

	outcome, err := h.reconciler.Process(r.Context(), event)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnresolvedPayment):
			log.Error("payment event resolved to no account, operator attention required",
				"transaction_id", event.TransactionID,
				"correlation", event.Correlation,
			)
			RespondJSON(w, http.StatusOK, map[string]string{"status": "unresolved"})
		case errors.Is(err, domain.ErrUnknownAccount):
			log.Error("payment event resolved to a missing account, operator attention required",
				"transaction_id", event.TransactionID,
			)
			RespondJSON(w, http.StatusOK, map[string]string{"status": "unknown_account"})
		default:
			log.Error("reconciliation failed", "transaction_id", event.TransactionID, "error", err)
			RespondJSON(w, http.StatusOK, map[string]string{"status": "error"})
		}
		return
	}

	RespondJSON(w, http.StatusOK, map[string]string{"status": string(outcome)})
}
