package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/balbiss/pix-automatico/internal/domain"
	"github.com/balbiss/pix-automatico/internal/logging"
)

// Client talks to the instant-payment gateway. Every call obtains a fresh
// bearer token via the client-credentials exchange; the gateway does not
// document token lifetimes and expires them aggressively.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	callbackURL  string
	httpClient   *http.Client
}

func NewClient(baseURL, clientID, clientSecret, callbackURL string) *Client {
	return &Client{
		baseURL:      baseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		callbackURL:  callbackURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

func (c *Client) token(ctx context.Context) (string, error) {
	body, err := json.Marshal(map[string]string{
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
	})
	if err != nil {
		return "", fmt.Errorf("token: marshal: %w", err)
	}

	resp, err := c.post(ctx, "/api/partner/v1/auth-token", body, "")
	if err != nil {
		return "", fmt.Errorf("token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token: status %d: %w", resp.StatusCode, domain.ErrAuthFailure)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil || tr.AccessToken == "" {
		return "", fmt.Errorf("token: %w", domain.ErrAuthFailure)
	}
	return tr.AccessToken, nil
}

// Charge is the normalized shape of a successful cash-in response.
type Charge struct {
	TransactionID string
	PixCode       string
}

// chargeResponse covers every response shape this gateway has been observed
// to emit across versions: flat fields under several names, or the same
// fields nested one level down in a data envelope.
type chargeResponse struct {
	IDTransaction   string `json:"idtransaction"`
	ID              string `json:"id"`
	TransactionID   string `json:"transaction_id"`
	PixCode         string `json:"pix_code"`
	PixCopyAndPaste string `json:"pix_copy_and_paste"`
	QRCode          string `json:"qrcode"`
	PixEMV          string `json:"pix_emv"`

	Data *chargeResponse `json:"data"`
}

func (r *chargeResponse) normalize() (*Charge, error) {
	if r.Data != nil {
		if c, err := r.Data.normalize(); err == nil {
			return c, nil
		}
	}

	c := &Charge{
		TransactionID: firstNonEmpty(r.IDTransaction, r.ID, r.TransactionID),
		PixCode:       firstNonEmpty(r.PixCode, r.PixCopyAndPaste, r.QRCode, r.PixEMV),
	}
	if c.TransactionID == "" || c.PixCode == "" {
		return nil, domain.ErrMalformedGatewayResponse
	}
	return c, nil
}

type chargeRequest struct {
	ExternalID  string       `json:"external_id"`
	Amount      float64      `json:"amount"`
	Description string       `json:"description"`
	WebhookURL  string       `json:"webhook_url"`
	Client      clientFields `json:"client"`
}

type clientFields struct {
	Name  string `json:"name"`
	CPF   string `json:"cpf"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// CreateCharge requests a new cash-in tagged with the caller-supplied
// correlation token and returns the normalized transaction id and payable
// pix code.
func (c *Client) CreateCharge(ctx context.Context, correlationID string, amount decimal.Decimal, description string) (*Charge, error) {
	log := logging.FromContext(ctx)

	token, err := c.token(ctx)
	if err != nil {
		return nil, fmt.Errorf("CreateCharge: %w", err)
	}

	body, err := json.Marshal(chargeRequest{
		ExternalID:  correlationID,
		Amount:      amount.InexactFloat64(),
		Description: description,
		WebhookURL:  c.callbackURL,
		Client: clientFields{
			Name:  "Usuario " + correlationID,
			CPF:   "00000000000",
			Email: "bot@indicacao.com",
			Phone: correlationID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("CreateCharge: marshal: %w", err)
	}

	start := time.Now()
	resp, err := c.post(ctx, "/api/partner/v1/cash-in", body, token)
	if err != nil {
		return nil, fmt.Errorf("CreateCharge: %v: %w", err, domain.ErrChargeCreationFailed)
	}
	defer resp.Body.Close()

	log.Info("cash-in response received",
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("CreateCharge: status %d: %s: %w",
			resp.StatusCode, string(respBody), domain.ErrChargeCreationFailed)
	}

	var raw chargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("CreateCharge: decode: %w", domain.ErrMalformedGatewayResponse)
	}
	charge, err := raw.normalize()
	if err != nil {
		return nil, fmt.Errorf("CreateCharge: %w", err)
	}
	return charge, nil
}

type payoutRequest struct {
	Amount      float64        `json:"amount"`
	Description string         `json:"description"`
	PixKeyType  string         `json:"pix_key_type"`
	PixKey      string         `json:"pix_key"`
	Document    payoutDocument `json:"document"`
}

type payoutDocument struct {
	Type   string `json:"type"`
	Number string `json:"number"`
}

type payoutResponse struct {
	ReferenceID string `json:"reference_id"`
	ID          string `json:"id"`
}

// CreatePayout requests a cash-out to the given pix key and returns the
// gateway's reference id. The caller must only settle local balances after
// the reference id is in hand.
func (c *Client) CreatePayout(ctx context.Context, pixKey string, amount decimal.Decimal, description string) (string, error) {
	token, err := c.token(ctx)
	if err != nil {
		return "", fmt.Errorf("CreatePayout: %w", err)
	}

	body, err := json.Marshal(payoutRequest{
		Amount:      amount.InexactFloat64(),
		Description: description,
		PixKeyType:  "CPF",
		PixKey:      pixKey,
		Document:    payoutDocument{Type: "cpf", Number: pixKey},
	})
	if err != nil {
		return "", fmt.Errorf("CreatePayout: marshal: %w", err)
	}

	resp, err := c.post(ctx, "/api/partner/v1/cash-out", body, token)
	if err != nil {
		return "", fmt.Errorf("CreatePayout: %v: %w", err, domain.ErrPayoutFailed)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("CreatePayout: status %d: %s: %w",
			resp.StatusCode, string(respBody), domain.ErrPayoutFailed)
	}

	var pr payoutResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return "", fmt.Errorf("CreatePayout: decode: %w", domain.ErrMalformedGatewayResponse)
	}
	ref := firstNonEmpty(pr.ReferenceID, pr.ID)
	if ref == "" {
		return "", fmt.Errorf("CreatePayout: no reference id: %w", domain.ErrMalformedGatewayResponse)
	}
	return ref, nil
}

func (c *Client) post(ctx context.Context, path string, body []byte, bearer string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return c.httpClient.Do(req)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
