/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository` interface.
 * It contains all the necessary SQL queries to interact with the database tables
 * related to wallets, the transaction ledger, and reconciliation tasks.
 *
 * @dependencies
 * - context, errors: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chamapesa/wallet-service/internal/domain"
)

var (
	ErrWalletNotFound = errors.New("wallet not found")
)

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// FindWalletByUserID retrieves a member's central wallet row.
func (r *PostgresRepository) FindWalletByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	var wallet domain.Wallet
	query := `SELECT user_id, balance, COALESCE(currency, 'KES'), updated_at FROM user_central_wallets WHERE user_id = $1`
	err := r.db.QueryRow(ctx, query, userID).Scan(&wallet.UserID, &wallet.Balance, &wallet.Currency, &wallet.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return &wallet, nil
}

// DebitWallet decrements the balance by the full requested amount and returns
// the resulting balance. The caller has already validated sufficiency; there
// is no row lock spanning the earlier balance check and this write.
func (r *PostgresRepository) DebitWallet(ctx context.Context, userID string, amount float64) (float64, error) {
	var newBalance float64
	query := `
		UPDATE user_central_wallets
		SET balance = balance - $2, updated_at = now()
		WHERE user_id = $1
		RETURNING balance
	`
	err := r.db.QueryRow(ctx, query, userID, amount).Scan(&newBalance)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, ErrWalletNotFound
		}
		return 0, err
	}
	return newBalance, nil
}

// CreateWalletTransaction appends one row to the wallet_transactions ledger.
func (r *PostgresRepository) CreateWalletTransaction(ctx context.Context, tx *domain.WalletTransaction) error {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}

	metadata, err := json.Marshal(tx.Metadata)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO wallet_transactions (id, user_id, type, amount, description, status, reference, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = r.db.Exec(ctx, query,
		tx.ID, tx.UserID, tx.Type, tx.Amount, tx.Description, tx.Status, tx.Reference, metadata, tx.CreatedAt,
	)
	return err
}

// ListWalletTransactions returns a member's ledger entries, newest first.
func (r *PostgresRepository) ListWalletTransactions(ctx context.Context, userID string, limit, offset int) ([]domain.WalletTransaction, error) {
	query := `
		SELECT id, user_id, type, amount, description, status, reference, metadata, created_at
		FROM wallet_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := make([]domain.WalletTransaction, 0)
	for rows.Next() {
		var tx domain.WalletTransaction
		var metadata []byte
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Type, &tx.Amount, &tx.Description, &tx.Status, &tx.Reference, &metadata, &tx.CreatedAt); err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &tx.Metadata); err != nil {
				return nil, err
			}
		}
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

// CreateReconciliationTask records a withdrawal whose provider transfer
// succeeded but whose wallet debit failed, for later retry.
func (r *PostgresRepository) CreateReconciliationTask(ctx context.Context, task *domain.ReconciliationTask) error {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	if task.Status == "" {
		task.Status = "pending"
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO withdrawal_reconciliation_tasks (id, user_id, amount, reference, reason, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		task.ID, task.UserID, task.Amount, task.Reference, task.Reason, task.Status, task.CreatedAt,
	)
	return err
}
