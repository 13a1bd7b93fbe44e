/**
 * @description
 * This file defines the core domain models for the wallet-service.
 * These structs represent the main entities and data transfer objects (DTOs)
 * used throughout the service's business logic, database interactions, and API layers.
 *
 * @notes
 * - Monetary values are expressed in major currency units (KES) as float64,
 *   mirroring the wallet schema; only the payment provider's transfer amount
 *   is converted to minor units (int64) at the edge.
 * - Using distinct types for API requests, database models, and external service
 *   payloads ensures clear separation of concerns and type safety.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Payment methods accepted by the withdrawal endpoint.
const (
	MethodBank   = "bank"
	MethodMpesa  = "mpesa"
	MethodAirtel = "airtel"
)

// Wallet represents a member's internal balance record. It maps directly to
// the `user_central_wallets` table.
type Wallet struct {
	UserID    string    `json:"user_id"`
	Balance   float64   `json:"balance"` // KES, major units
	Currency  string    `json:"currency"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DestinationDetails carries the method-dependent withdrawal destination.
// Bank withdrawals require the account fields; mobile money requires the phone.
type DestinationDetails struct {
	AccountNumber string `json:"account_number,omitempty"`
	BankName      string `json:"bank_name,omitempty"` // used as the provider bank code
	AccountName   string `json:"account_name,omitempty"`
	PhoneNumber   string `json:"phone_number,omitempty"`
}

// WithdrawalRequest is the DTO for incoming withdrawal API requests.
type WithdrawalRequest struct {
	Amount             float64             `json:"amount"`
	PaymentMethod      string              `json:"paymentMethod"`
	DestinationDetails *DestinationDetails `json:"destinationDetails"`
}

// WithdrawalResult is the success payload returned once a withdrawal has been
// transferred and reconciled against the wallet.
type WithdrawalResult struct {
	Success       bool    `json:"success"`
	Message       string  `json:"message"`
	Amount        float64 `json:"amount"`
	Fee           float64 `json:"fee"`
	NetAmount     float64 `json:"netAmount"`
	Destination   string  `json:"destination"`
	PaymentMethod string  `json:"paymentMethod"`
	Reference     string  `json:"reference"`
	NewBalance    float64 `json:"newBalance"`
}

// WalletTransaction is the append-only ledger record written after a
// successful withdrawal. Withdrawals carry a negative signed amount.
type WalletTransaction struct {
	ID          uuid.UUID      `json:"id"`
	UserID      string         `json:"user_id"`
	Type        string         `json:"type"`   // e.g. 'withdrawal'
	Amount      float64        `json:"amount"` // signed, KES
	Description string         `json:"description"`
	Status      string         `json:"status"`
	Reference   string         `json:"reference"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// ReconciliationTask records a withdrawal whose provider transfer succeeded
// but whose wallet debit failed, so a background process can retry the debit
// until the ledger is consistent again.
type ReconciliationTask struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	Amount    float64   `json:"amount"`
	Reference string    `json:"reference"`
	Reason    string    `json:"reason"`
	Status    string    `json:"status"` // 'pending' until reprocessed
	CreatedAt time.Time `json:"created_at"`
}
