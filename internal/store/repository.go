/**
 * @description
 * This file defines the `Repository` interface, which specifies the contract for all
 * data access operations required by the wallet-service. By defining an interface,
 * we decouple the application's business logic from the specific database implementation
 * (e.g., PostgreSQL), making the code more modular and easier to test.
 *
 * @dependencies
 * - context: Standard Go library.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"

	"github.com/chamapesa/wallet-service/internal/domain"
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// Wallet methods
	FindWalletByUserID(ctx context.Context, userID string) (*domain.Wallet, error)
	// DebitWallet decrements the wallet balance by amount, touches updated_at,
	// and returns the resulting balance.
	DebitWallet(ctx context.Context, userID string, amount float64) (float64, error)

	// Ledger methods
	CreateWalletTransaction(ctx context.Context, tx *domain.WalletTransaction) error
	ListWalletTransactions(ctx context.Context, userID string, limit, offset int) ([]domain.WalletTransaction, error)

	// Reconciliation methods
	CreateReconciliationTask(ctx context.Context, task *domain.ReconciliationTask) error
}
