package paystackclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestListBanks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bank" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("currency"); got != "KES" {
			t.Fatalf("expected currency=KES, got %q", got)
		}
		if got := r.URL.Query().Get("type"); got != "mobile_money" {
			t.Fatalf("expected type=mobile_money, got %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test_123" {
			t.Fatalf("unexpected authorization header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":true,"message":"Banks retrieved","data":[{"name":"M-PESA","slug":"mpesa-ke","code":"MPESA","currency":"KES","type":"mobile_money"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_123")
	banks, err := client.ListBanks(context.Background(), "KES", "mobile_money")
	if err != nil {
		t.Fatalf("ListBanks returned error: %v", err)
	}
	if len(banks) != 1 {
		t.Fatalf("expected 1 bank, got %d", len(banks))
	}
	if banks[0].Code != "MPESA" {
		t.Fatalf("expected code MPESA, got %q", banks[0].Code)
	}
}

func TestCreateRecipientRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transferrecipient" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":false,"message":"Account number is invalid"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_123")
	_, err := client.CreateRecipient(context.Background(), RecipientRequest{
		Type:          "mobile_money",
		Name:          "Jane",
		AccountNumber: "254712345678",
		BankCode:      "MPESA",
		Currency:      "KES",
	})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.Message != "Account number is invalid" {
		t.Fatalf("expected provider message, got %q", apiErr.Message)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", apiErr.StatusCode)
	}
}

func TestInitiateTransfer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transfer" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		var req TransferRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode transfer request: %v", err)
		}
		if req.Source != "balance" {
			t.Fatalf("expected default source balance, got %q", req.Source)
		}
		if req.Amount != 5000 {
			t.Fatalf("expected amount 5000, got %d", req.Amount)
		}
		if req.Reference == "" {
			t.Fatal("expected a caller-supplied reference")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":true,"message":"Transfer has been queued","data":{"reference":"` + req.Reference + `","transfer_code":"TRF_abc","status":"pending","amount":5000}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_123")
	transfer, err := client.InitiateTransfer(context.Background(), TransferRequest{
		Amount:    5000,
		Recipient: "RCP_xyz",
		Reason:    "Chama wallet withdrawal (mpesa)",
		Reference: "WD1700000000000user-123",
		Currency:  "KES",
	})
	if err != nil {
		t.Fatalf("InitiateTransfer returned error: %v", err)
	}
	if transfer.TransferCode != "TRF_abc" {
		t.Fatalf("expected transfer code TRF_abc, got %q", transfer.TransferCode)
	}
	if transfer.Reference != "WD1700000000000user-123" {
		t.Fatalf("unexpected reference %q", transfer.Reference)
	}
}

func TestUnparsableResponseIsNotAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>Bad Gateway</html>"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_123")
	_, err := client.ListBanks(context.Background(), "KES", "mobile_money")
	if err == nil {
		t.Fatal("expected an error for an unparsable body")
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Fatalf("expected a transport error, got *APIError: %v", apiErr)
	}
}
