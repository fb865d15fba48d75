// mock-gateway fakes the payment gateway for local development: it issues
// tokens, creates charges while rotating through the known response shapes,
// and pushes a PAID webhook a few seconds after each charge.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/balbiss/pix-automatico/internal/logging"
)

var shapeCounter atomic.Uint64

func main() {
	logging.Init("mock-gateway", "info", os.Getenv("APP_ENV"))

	webhookURL := os.Getenv("WEBHOOK_URL")
	if webhookURL == "" {
		webhookURL = "http://localhost:8080/webhook/gateway"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("POST /api/partner/v1/auth-token", handleToken)
	mux.HandleFunc("POST /api/partner/v1/cash-in", handleCashIn(webhookURL))
	mux.HandleFunc("POST /api/partner/v1/cash-out", handleCashOut)

	slog.Info("mock gateway started", "addr", ":8081", "webhook_url", webhookURL)
	if err := http.ListenAndServe(":8081", mux); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleToken(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		ClientID     string `json:"client_id"`
		ClientSecret string `json:"client_secret"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || creds.ClientID == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": uuid.NewString()})
}

func handleCashIn(webhookURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ExternalID string  `json:"external_id"`
			Amount     float64 `json:"amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad request"})
			return
		}

		transactionID := uuid.NewString()
		pixCode := fmt.Sprintf("00020126mock%s5204", transactionID)

		// Rotate through the response shapes real gateway versions emit so
		// the client's normalizer gets exercised end to end.
		var body any
		switch shapeCounter.Add(1) % 3 {
		case 0:
			body = map[string]any{"idtransaction": transactionID, "pix_code": pixCode}
		case 1:
			body = map[string]any{"id": transactionID, "pix_copy_and_paste": pixCode}
		default:
			body = map[string]any{"data": map[string]any{"id": transactionID, "qrcode": pixCode}}
		}

		go pushWebhook(webhookURL, transactionID, req.ExternalID)

		writeJSON(w, http.StatusCreated, body)
	}
}

func pushWebhook(webhookURL, transactionID, externalID string) {
	time.Sleep(3 * time.Second)

	payload, _ := json.Marshal(map[string]string{
		"idtransaction": transactionID,
		"status":        "PAID",
		"external_id":   externalID,
	})
	resp, err := http.Post(webhookURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		slog.Error("webhook push failed", "transaction_id", transactionID, "error", err)
		return
	}
	resp.Body.Close()
	slog.Info("webhook pushed", "transaction_id", transactionID, "status", resp.StatusCode)
}

func handleCashOut(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount float64 `json:"amount"`
		PixKey string  `json:"pix_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Amount <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad request"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reference_id": uuid.NewString()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}
