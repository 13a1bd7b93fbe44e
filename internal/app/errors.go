/**
 * @description
 * Typed failure for the withdrawal pipeline. Every step of the flow returns
 * either a value or a *WithdrawalError carrying the HTTP status, an optional
 * machine-readable code, and a user-facing message, so the handler can map
 * failures to responses without string inspection. Anything else that escapes
 * the service is treated as an internal error.
 */

package app

import "fmt"

// Withdrawal failure codes surfaced to clients.
const (
	CodeInvalidAmount = "invalid_amount"
	CodeAmountTooLow  = "amount_too_low"
	CodeRateLimited   = "rate_limited"
)

// WithdrawalError is a tagged failure from the withdrawal pipeline.
type WithdrawalError struct {
	Status  int     // HTTP status code
	Code    string  // optional machine-readable tag
	Message string  // user-facing message
	Fee     float64 // populated for fee-related rejections
	HasFee  bool
}

func (e *WithdrawalError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("withdrawal rejected (%s): %s", e.Code, e.Message)
	}
	return fmt.Sprintf("withdrawal rejected: %s", e.Message)
}

func failWithdrawal(status int, code, message string) *WithdrawalError {
	return &WithdrawalError{Status: status, Code: code, Message: message}
}
