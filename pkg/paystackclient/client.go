/**
 * @description
 * This package provides a client for interacting with the Paystack REST API.
 * It encapsulates the logic for making authenticated HTTP requests to Paystack's
 * endpoints, handling request body construction, and parsing responses.
 *
 * The three operations exposed here (listing mobile-money channels, creating a
 * transfer recipient, and initiating a transfer) are the full surface the
 * withdrawal flow needs. Provider-level rejections (a 4xx/5xx body with
 * status=false) are returned as *APIError so callers can distinguish them from
 * transport failures.
 *
 * @dependencies
 * - bytes, context, encoding/json, fmt, net/http, net/url, time: Standard Go libraries.
 */
package paystackclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"
)

// Client is a client for the Paystack API.
type Client struct {
	BaseURL    string
	SecretKey  string
	HTTPClient *http.Client
}

// NewClient creates a new Paystack API client.
func NewClient(baseURL, secretKey string) *Client {
	return &Client{
		BaseURL:   baseURL,
		SecretKey: secretKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError represents a rejection from the Paystack API: the request reached
// the provider but was declined. The Message is Paystack's own description.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("paystack api error: %s", e.Message)
	}
	return fmt.Sprintf("paystack api error (status %d)", e.StatusCode)
}

// Bank represents one entry from Paystack's bank/channel listing. For
// mobile-money listings the Code carries the channel identifier (e.g. MPESA).
type Bank struct {
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Code     string `json:"code"`
	Currency string `json:"currency"`
	Type     string `json:"type"`
}

// RecipientRequest is the payload for POST /transferrecipient.
type RecipientRequest struct {
	Type          string `json:"type"` // "nuban" or "mobile_money"
	Name          string `json:"name"`
	AccountNumber string `json:"account_number"`
	BankCode      string `json:"bank_code"`
	Currency      string `json:"currency"`
}

// Recipient is the provider-side object representing a withdrawal destination.
type Recipient struct {
	RecipientCode string `json:"recipient_code"`
	Type          string `json:"type"`
	Name          string `json:"name"`
}

// TransferRequest is the payload for POST /transfer. Amount is in minor units.
type TransferRequest struct {
	Source    string `json:"source"`
	Amount    int64  `json:"amount"`
	Recipient string `json:"recipient"`
	Reason    string `json:"reason"`
	Reference string `json:"reference"`
	Currency  string `json:"currency"`
}

// Transfer is the provider-side funds movement created by InitiateTransfer.
type Transfer struct {
	Reference    string `json:"reference"`
	TransferCode string `json:"transfer_code"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
}

// envelope is Paystack's standard response wrapper.
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// ListBanks fetches the channel list for a currency, optionally filtered by
// type (e.g. "mobile_money"). An empty channelType returns all channels.
func (c *Client) ListBanks(ctx context.Context, currency, channelType string) ([]Bank, error) {
	q := url.Values{}
	q.Set("currency", currency)
	if channelType != "" {
		q.Set("type", channelType)
	}

	data, err := c.do(ctx, "GET", "/bank?"+q.Encode(), nil, "list_banks")
	if err != nil {
		return nil, err
	}

	var banks []Bank
	if err := json.Unmarshal(data, &banks); err != nil {
		return nil, fmt.Errorf("failed to decode bank list: %w", err)
	}
	return banks, nil
}

// CreateRecipient registers a transfer destination with Paystack and returns
// the opaque recipient code used to address subsequent transfers.
func (c *Client) CreateRecipient(ctx context.Context, req RecipientRequest) (*Recipient, error) {
	data, err := c.do(ctx, "POST", "/transferrecipient", req, "create_recipient")
	if err != nil {
		return nil, err
	}

	var recipient Recipient
	if err := json.Unmarshal(data, &recipient); err != nil {
		return nil, fmt.Errorf("failed to decode recipient response: %w", err)
	}
	return &recipient, nil
}

// InitiateTransfer moves funds from the platform balance to a recipient.
// The caller-supplied Reference doubles as the idempotency key on Paystack's side.
func (c *Client) InitiateTransfer(ctx context.Context, req TransferRequest) (*Transfer, error) {
	if req.Source == "" {
		req.Source = "balance"
	}

	data, err := c.do(ctx, "POST", "/transfer", req, "initiate_transfer")
	if err != nil {
		return nil, err
	}

	var transfer Transfer
	if err := json.Unmarshal(data, &transfer); err != nil {
		return nil, fmt.Errorf("failed to decode transfer response: %w", err)
	}
	return &transfer, nil
}

// do executes one request against the Paystack API and unwraps the response
// envelope. A parseable body with status=false becomes an *APIError.
func (c *Client) do(ctx context.Context, method, path string, payload interface{}, op string) (json.RawMessage, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s request: %w", op, err)
		}
		body = bytes.NewBuffer(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", op, err)
	}

	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute %s request: %w", op, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", op, err)
	}

	var env envelope
	if err := json.Unmarshal(bodyBytes, &env); err != nil {
		log.Printf("level=warn component=paystack_client op=%s status=%d msg=\"unparsable response body\"", op, resp.StatusCode)
		return nil, fmt.Errorf("failed to decode %s response (status %d)", op, resp.StatusCode)
	}

	if !env.Status || resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("level=warn component=paystack_client op=%s status=%d message=%q", op, resp.StatusCode, env.Message)
		return nil, &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}

	return env.Data, nil
}
