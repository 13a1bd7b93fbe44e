/**
 * @description
 * This file contains the core business logic for the wallet-service. The `Service`
 * struct orchestrates the withdrawal flow, coordinating between the database
 * repository, the Paystack API client, and the message broker.
 *
 * Key features:
 * - Implements the withdrawal pipeline: validate, compute fee, resolve recipient,
 *   initiate transfer, reconcile the wallet, append the ledger entry.
 * - Each step returns either a value or a typed *WithdrawalError, so the flow
 *   short-circuits on the first failure without nested branching.
 * - Publishes events to RabbitMQ for asynchronous processing by other services.
 *
 * @dependencies
 * - context, errors, fmt, log, math, time: Standard Go libraries.
 * - internal/domain, internal/store: For domain models and data access.
 * - pkg/paystackclient, pkg/rabbitmq: For external service communication.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/chamapesa/wallet-service/internal/domain"
	"github.com/chamapesa/wallet-service/internal/store"
	"github.com/chamapesa/wallet-service/pkg/paystackclient"
	"github.com/chamapesa/wallet-service/pkg/rabbitmq"
)

// PaymentProvider is the narrow surface of the payment gateway the withdrawal
// flow depends on. *paystackclient.Client satisfies it; tests substitute fakes.
type PaymentProvider interface {
	ListBanks(ctx context.Context, currency, channelType string) ([]paystackclient.Bank, error)
	CreateRecipient(ctx context.Context, req paystackclient.RecipientRequest) (*paystackclient.Recipient, error)
	InitiateTransfer(ctx context.Context, req paystackclient.TransferRequest) (*paystackclient.Transfer, error)
}

// Service provides the core business logic for wallet withdrawals.
type Service struct {
	repo     store.Repository
	provider PaymentProvider
	producer rabbitmq.Publisher
	currency string

	rateLimiter        WithdrawalRateLimiter
	rateLimitPerMinute int

	now func() time.Time
}

// NewService creates a new wallet service instance. A nil provider marks the
// payment gateway as unconfigured; withdrawals then fail with a server error.
func NewService(repo store.Repository, provider PaymentProvider, producer rabbitmq.Publisher, currency string) *Service {
	return &Service{
		repo:     repo,
		provider: provider,
		producer: producer,
		currency: currency,
		now:      time.Now,
	}
}

// SetWithdrawalRateLimiter enables per-user withdrawal attempt limiting.
func (s *Service) SetWithdrawalRateLimiter(limiter WithdrawalRateLimiter, perMinute int) {
	s.rateLimiter = limiter
	s.rateLimitPerMinute = perMinute
}

// GetWallet returns the member's wallet record.
func (s *Service) GetWallet(ctx context.Context, userID string) (*domain.Wallet, error) {
	return s.repo.FindWalletByUserID(ctx, userID)
}

// ListTransactions returns the member's ledger entries, newest first.
func (s *Service) ListTransactions(ctx context.Context, userID string, limit, offset int) ([]domain.WalletTransaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListWalletTransactions(ctx, userID, limit, offset)
}

// ProcessWithdrawal runs the full withdrawal pipeline for an authenticated
// member. The email is used as the recipient display name when the
// destination has no account name of its own (mobile money).
func (s *Service) ProcessWithdrawal(ctx context.Context, userID, email string, req domain.WithdrawalRequest) (*domain.WithdrawalResult, error) {
	if err := s.checkRateLimit(ctx, userID); err != nil {
		return nil, err
	}

	if err := validateWithdrawalRequest(req); err != nil {
		return nil, err
	}

	if s.provider == nil {
		log.Printf("level=error component=app op=withdrawal msg=\"payment provider not configured\" user_id=%s", userID)
		return nil, failWithdrawal(http.StatusInternalServerError, "", "Withdrawal service is not configured")
	}

	wallet, err := s.repo.FindWalletByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrWalletNotFound) {
			return nil, failWithdrawal(http.StatusNotFound, "", "Wallet not found")
		}
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}
	if wallet.Balance < req.Amount {
		return nil, failWithdrawal(http.StatusBadRequest, "", "Insufficient wallet balance")
	}

	fee := WithdrawalFee(req.Amount, req.PaymentMethod)
	netAmount := req.Amount - fee
	if netAmount <= 0 {
		minimum := fee + 1
		werr := failWithdrawal(http.StatusBadRequest, CodeAmountTooLow,
			fmt.Sprintf("Amount is too low to cover the %s fee of KES %.0f. Minimum withdrawal is KES %.0f.", req.PaymentMethod, fee, minimum))
		werr.Fee = fee
		werr.HasFee = true
		return nil, werr
	}

	recipient, werr := s.resolveRecipient(ctx, email, req)
	if werr != nil {
		return nil, werr
	}

	reference := s.buildReference(userID)
	transfer, werr := s.initiateTransfer(ctx, recipient.RecipientCode, req.PaymentMethod, netAmount, reference)
	if werr != nil {
		return nil, werr
	}

	destination := describeDestination(req)

	// The provider transfer has succeeded; from here on, failures leave funds
	// already moved externally and must not be silently dropped.
	newBalance, err := s.repo.DebitWallet(ctx, userID, req.Amount)
	if err != nil {
		log.Printf("level=error component=app op=withdrawal msg=\"wallet debit failed after successful transfer\" user_id=%s reference=%s err=%v", userID, reference, err)
		s.recordReconciliation(ctx, userID, req.Amount, reference, fmt.Sprintf("wallet debit failed: %v", err))
		return nil, failWithdrawal(http.StatusInternalServerError, "", "Withdrawal was processed but the balance update failed. Support has been notified.")
	}

	providerRef := transfer.Reference
	if providerRef == "" {
		providerRef = reference
	}

	ledgerEntry := &domain.WalletTransaction{
		UserID:      userID,
		Type:        "withdrawal",
		Amount:      -req.Amount,
		Description: fmt.Sprintf("Withdrawal to %s", destination),
		Status:      "completed",
		Reference:   providerRef,
		Metadata: map[string]any{
			"fee":            fee,
			"net_amount":     netAmount,
			"destination":    destination,
			"payment_method": req.PaymentMethod,
			"recipient_code": recipient.RecipientCode,
		},
	}
	if err := s.repo.CreateWalletTransaction(ctx, ledgerEntry); err != nil {
		log.Printf("level=error component=app op=withdrawal msg=\"ledger write failed after successful transfer\" user_id=%s reference=%s err=%v", userID, providerRef, err)
		return nil, failWithdrawal(http.StatusInternalServerError, "", "Withdrawal was processed but could not be recorded. Support has been notified.")
	}

	if s.producer != nil {
		event := rabbitmq.WithdrawalCompletedEvent{
			UserID:        userID,
			Amount:        req.Amount,
			Fee:           fee,
			NetAmount:     netAmount,
			PaymentMethod: req.PaymentMethod,
			Destination:   destination,
			Reference:     providerRef,
			Timestamp:     s.now().UTC(),
		}
		if err := s.producer.PublishWithdrawalCompleted(ctx, event); err != nil {
			log.Printf("level=warn component=app op=withdrawal msg=\"withdrawal event publish failed\" user_id=%s reference=%s err=%v", userID, providerRef, err)
		}
	}

	log.Printf("level=info component=app op=withdrawal outcome=completed user_id=%s method=%s amount=%.2f fee=%.2f reference=%s", userID, req.PaymentMethod, req.Amount, fee, providerRef)

	return &domain.WithdrawalResult{
		Success:       true,
		Message:       "Withdrawal initiated successfully",
		Amount:        req.Amount,
		Fee:           fee,
		NetAmount:     netAmount,
		Destination:   destination,
		PaymentMethod: req.PaymentMethod,
		Reference:     providerRef,
		NewBalance:    newBalance,
	}, nil
}

// checkRateLimit consumes one withdrawal attempt for the user. Limiter errors
// fail open; an unavailable Redis must not block withdrawals.
func (s *Service) checkRateLimit(ctx context.Context, userID string) *WithdrawalError {
	if s.rateLimiter == nil || s.rateLimitPerMinute <= 0 {
		return nil
	}
	count, retryAfter, err := s.rateLimiter.ConsumeRateLimit(ctx, userID, s.rateLimitPerMinute, time.Minute)
	if err != nil {
		log.Printf("level=warn component=app op=withdrawal msg=\"rate limiter unavailable; allowing request\" user_id=%s err=%v", userID, err)
		return nil
	}
	if count > s.rateLimitPerMinute {
		log.Printf("level=warn component=app op=withdrawal outcome=rate_limited user_id=%s count=%d retry_after=%d", userID, count, retryAfter)
		return failWithdrawal(http.StatusTooManyRequests, CodeRateLimited, "Too many withdrawal attempts. Please wait a minute and try again.")
	}
	return nil
}

// validateWithdrawalRequest applies the fail-fast input checks that precede
// any wallet or provider interaction.
func validateWithdrawalRequest(req domain.WithdrawalRequest) *WithdrawalError {
	if math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) || req.Amount <= 0 {
		return failWithdrawal(http.StatusBadRequest, CodeInvalidAmount, "Please enter a valid withdrawal amount")
	}
	if req.DestinationDetails == nil {
		return failWithdrawal(http.StatusBadRequest, "", "Destination details are required")
	}

	details := req.DestinationDetails
	if req.PaymentMethod == domain.MethodBank {
		if strings.TrimSpace(details.AccountNumber) == "" ||
			strings.TrimSpace(details.BankName) == "" ||
			strings.TrimSpace(details.AccountName) == "" {
			return failWithdrawal(http.StatusBadRequest, "", "Please provide complete bank details: account number, bank, and account name")
		}
		return nil
	}
	if strings.TrimSpace(details.PhoneNumber) == "" {
		return failWithdrawal(http.StatusBadRequest, "", "Phone number is required for mobile money withdrawals")
	}
	return nil
}

// resolveRecipient creates the provider-side destination object for this
// withdrawal and returns its recipient code.
func (s *Service) resolveRecipient(ctx context.Context, email string, req domain.WithdrawalRequest) (*paystackclient.Recipient, *WithdrawalError) {
	if req.PaymentMethod == domain.MethodBank {
		return s.resolveBankRecipient(ctx, req.DestinationDetails)
	}
	return s.resolveMobileRecipient(ctx, email, req.PaymentMethod, req.DestinationDetails)
}

func (s *Service) resolveBankRecipient(ctx context.Context, details *domain.DestinationDetails) (*paystackclient.Recipient, *WithdrawalError) {
	recipient, err := s.provider.CreateRecipient(ctx, paystackclient.RecipientRequest{
		Type:          "nuban",
		Name:          details.AccountName,
		AccountNumber: details.AccountNumber,
		BankCode:      details.BankName,
		Currency:      s.currency,
	})
	if err != nil {
		var apiErr *paystackclient.APIError
		if errors.As(err, &apiErr) {
			message := apiErr.Message
			if message == "" {
				message = "Could not verify your bank account details"
			}
			return nil, failWithdrawal(http.StatusBadRequest, "", message)
		}
		log.Printf("level=error component=app op=withdrawal msg=\"bank recipient creation failed\" err=%v", err)
		return nil, failWithdrawal(http.StatusInternalServerError, "", "Withdrawal failed. Please try again.")
	}
	return recipient, nil
}

func (s *Service) resolveMobileRecipient(ctx context.Context, email, method string, details *domain.DestinationDetails) (*paystackclient.Recipient, *WithdrawalError) {
	channels, err := s.provider.ListBanks(ctx, s.currency, "mobile_money")
	if err != nil {
		var apiErr *paystackclient.APIError
		if errors.As(err, &apiErr) {
			message := apiErr.Message
			if message == "" {
				message = "Could not load mobile money providers"
			}
			return nil, failWithdrawal(http.StatusBadRequest, "", message)
		}
		log.Printf("level=error component=app op=withdrawal msg=\"mobile money channel listing failed\" err=%v", err)
		return nil, failWithdrawal(http.StatusInternalServerError, "", "Withdrawal failed. Please try again.")
	}

	channel, ok := MatchMobileMoneyChannel(channels, method)
	if !ok {
		return nil, failWithdrawal(http.StatusBadRequest, "", fmt.Sprintf("%s withdrawals are not available at the moment", method))
	}

	phone := NormalizePhone(details.PhoneNumber)
	name := strings.TrimSpace(email)
	if name == "" {
		name = phone.International
	}

	recipient, err := s.provider.CreateRecipient(ctx, paystackclient.RecipientRequest{
		Type:          "mobile_money",
		Name:          name,
		AccountNumber: phone.International,
		BankCode:      channel.Code,
		Currency:      s.currency,
	})
	if err == nil {
		return recipient, nil
	}

	// Some channels only accept the local number form; retry once when the
	// provider flagged the account number itself as invalid.
	var apiErr *paystackclient.APIError
	if errors.As(err, &apiErr) && isInvalidAccountMessage(apiErr.Message) {
		recipient, retryErr := s.provider.CreateRecipient(ctx, paystackclient.RecipientRequest{
			Type:          "mobile_money",
			Name:          name,
			AccountNumber: phone.Local,
			BankCode:      channel.Code,
			Currency:      s.currency,
		})
		if retryErr == nil {
			return recipient, nil
		}
		err = retryErr
	}

	if errors.As(err, &apiErr) {
		message := apiErr.Message
		if message == "" {
			message = "Could not register your mobile money number for withdrawal"
		}
		return nil, failWithdrawal(http.StatusBadRequest, "", message)
	}
	log.Printf("level=error component=app op=withdrawal msg=\"mobile recipient creation failed\" err=%v", err)
	return nil, failWithdrawal(http.StatusInternalServerError, "", "Withdrawal failed. Please try again.")
}

// initiateTransfer moves the net amount (in minor units) to the recipient.
func (s *Service) initiateTransfer(ctx context.Context, recipientCode, method string, netAmount float64, reference string) (*paystackclient.Transfer, *WithdrawalError) {
	transfer, err := s.provider.InitiateTransfer(ctx, paystackclient.TransferRequest{
		Source:    "balance",
		Amount:    int64(math.Round(netAmount * 100)),
		Recipient: recipientCode,
		Reason:    fmt.Sprintf("Chama wallet withdrawal (%s)", method),
		Reference: reference,
		Currency:  s.currency,
	})
	if err != nil {
		var apiErr *paystackclient.APIError
		if errors.As(err, &apiErr) {
			message := apiErr.Message
			if isProviderBalanceMessage(message) {
				// The platform's processor balance ran dry; that detail stays internal.
				message = "Withdrawal service is temporarily unavailable. Please try again later."
			} else if message == "" {
				message = "Withdrawal was declined by the payment provider"
			}
			return nil, failWithdrawal(http.StatusBadRequest, "", message)
		}
		log.Printf("level=error component=app op=withdrawal msg=\"transfer initiation failed\" reference=%s err=%v", reference, err)
		return nil, failWithdrawal(http.StatusInternalServerError, "", "Withdrawal failed. Please try again.")
	}
	return transfer, nil
}

// recordReconciliation persists and announces a transfer/debit mismatch.
// Both writes are best effort; the caller still returns a server error.
func (s *Service) recordReconciliation(ctx context.Context, userID string, amount float64, reference, reason string) {
	task := &domain.ReconciliationTask{
		UserID:    userID,
		Amount:    amount,
		Reference: reference,
		Reason:    reason,
	}
	if err := s.repo.CreateReconciliationTask(ctx, task); err != nil {
		log.Printf("level=error component=app op=withdrawal msg=\"reconciliation task write failed\" user_id=%s reference=%s err=%v", userID, reference, err)
	}
	if s.producer != nil {
		event := rabbitmq.ReconciliationPendingEvent{
			UserID:    userID,
			Amount:    amount,
			Reference: reference,
			Reason:    reason,
			Timestamp: s.now().UTC(),
		}
		if err := s.producer.PublishReconciliationPending(ctx, event); err != nil {
			log.Printf("level=warn component=app op=withdrawal msg=\"reconciliation event publish failed\" user_id=%s reference=%s err=%v", userID, reference, err)
		}
	}
}

// buildReference generates the caller-supplied transfer reference, which
// Paystack treats as an idempotency key.
func (s *Service) buildReference(userID string) string {
	fragment := userID
	if len(fragment) > 8 {
		fragment = fragment[:8]
	}
	return fmt.Sprintf("WD%d%s", s.now().UnixMilli(), fragment)
}

// describeDestination renders the human-readable destination string stored in
// the ledger and echoed in the response.
func describeDestination(req domain.WithdrawalRequest) string {
	details := req.DestinationDetails
	if req.PaymentMethod == domain.MethodBank {
		return fmt.Sprintf("%s account %s", details.BankName, details.AccountNumber)
	}
	return details.PhoneNumber
}

func isInvalidAccountMessage(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "invalid") && strings.Contains(lower, "account")
}

func isProviderBalanceMessage(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "balance is not enough") ||
		strings.Contains(lower, "insufficient balance") ||
		strings.Contains(lower, "insufficient funds")
}
