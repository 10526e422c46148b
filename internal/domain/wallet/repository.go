package wallet

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Entry describes a ledger append. Amount must be positive; Type carries the
// direction.
type Entry struct {
	Type        TransactionType
	Amount      int64
	Status      TransactionStatus
	Description string
	RefID       *string
}

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// EnsureAccount creates the account row if it does not exist. Safe under
// concurrent first use.
func (r *Repository) EnsureAccount(ctx context.Context, ownerID uuid.UUID, ownerType OwnerType) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO wallet_accounts (owner_id, owner_type, balance)
		VALUES ($1, $2, 0)
		ON CONFLICT (owner_id, owner_type) DO NOTHING
	`, ownerID, string(ownerType))
	return err
}

// GetAccount returns the account or ErrAccountNotFound.
func (r *Repository) GetAccount(ctx context.Context, ownerID uuid.UUID, ownerType OwnerType) (*Account, error) {
	var acct Account
	err := r.db.GetContext(ctx, &acct, `
		SELECT * FROM wallet_accounts WHERE owner_id = $1 AND owner_type = $2
	`, ownerID, string(ownerType))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

// GetOrCreateAccount returns the account, creating it lazily on first use.
func (r *Repository) GetOrCreateAccount(ctx context.Context, ownerID uuid.UUID, ownerType OwnerType) (*Account, error) {
	if err := r.EnsureAccount(ctx, ownerID, ownerType); err != nil {
		return nil, err
	}
	return r.GetAccount(ctx, ownerID, ownerType)
}

func (r *Repository) beginTx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

// lockAccount takes the account row lock for the rest of the transaction.
// When createIfAbsent is false a missing account is ErrAccountNotFound.
func (r *Repository) lockAccount(ctx context.Context, tx *sqlx.Tx, ownerID uuid.UUID, ownerType OwnerType, createIfAbsent bool) (*Account, error) {
	if createIfAbsent {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO wallet_accounts (owner_id, owner_type, balance)
			VALUES ($1, $2, 0)
			ON CONFLICT (owner_id, owner_type) DO NOTHING
		`, ownerID, string(ownerType)); err != nil {
			return nil, err
		}
	}

	var acct Account
	err := tx.GetContext(ctx, &acct, `
		SELECT * FROM wallet_accounts WHERE owner_id = $1 AND owner_type = $2 FOR UPDATE
	`, ownerID, string(ownerType))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

func (r *Repository) findByRefTx(ctx context.Context, tx *sqlx.Tx, ownerID uuid.UUID, ownerType OwnerType, refID string) (*Transaction, error) {
	var txn Transaction
	err := tx.GetContext(ctx, &txn, `
		SELECT * FROM wallet_transactions
		WHERE owner_id = $1 AND owner_type = $2 AND ref_id = $3
	`, ownerID, string(ownerType), refID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// Append atomically inserts a ledger entry and adjusts the balance in the
// same transaction, so the two never observably diverge. A refId already
// present on the account makes the call a no-op when it describes the same
// operation (retry), and ErrDuplicateReference otherwise. Debits that would
// take the balance below zero fail with ErrInsufficientFunds and leave state
// unchanged.
func (r *Repository) Append(ctx context.Context, ownerID uuid.UUID, ownerType OwnerType, e Entry) (*Account, error) {
	tx, err := r.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Only credits create the account lazily; a debit against a missing
	// account is a caller error.
	acct, err := r.lockAccount(ctx, tx, ownerID, ownerType, e.Type == TransactionTypeCredit)
	if err != nil {
		return nil, err
	}

	if e.RefID != nil {
		existing, err := r.findByRefTx(ctx, tx, ownerID, ownerType, *e.RefID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			if existing.Type == e.Type && existing.Amount == e.Amount {
				return acct, nil
			}
			return nil, ErrDuplicateReference
		}
	}

	delta := e.Amount
	if e.Type == TransactionTypeDebit {
		delta = -e.Amount
	}
	nextBalance := acct.Balance + delta
	if nextBalance < 0 {
		return nil, ErrInsufficientFunds
	}

	now := time.Now()
	if _, err := tx.ExecContext(ctx, `
		UPDATE wallet_accounts SET balance = $1, updated_at = $2
		WHERE owner_id = $3 AND owner_type = $4
	`, nextBalance, now, ownerID, string(ownerType)); err != nil {
		return nil, err
	}

	status := e.Status
	if status == "" {
		status = TransactionStatusCompleted
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO wallet_transactions (id, owner_id, owner_type, type, amount, status, description, ref_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, uuid.New(), ownerID, string(ownerType), string(e.Type), e.Amount, string(status), e.Description, e.RefID, now)
	if err != nil {
		// A concurrent insert with the same refId loses the unique index
		// race; treat an identical retry as done.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" && e.RefID != nil {
			existing, checkErr := r.findByRefTx(ctx, tx, ownerID, ownerType, *e.RefID)
			if checkErr != nil {
				return nil, checkErr
			}
			if existing != nil && existing.Type == e.Type && existing.Amount == e.Amount {
				return acct, nil
			}
			return nil, ErrDuplicateReference
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	acct.Balance = nextBalance
	acct.UpdatedAt = now
	return acct, nil
}

// GetTransactionByRef looks up a single transaction by its reference.
func (r *Repository) GetTransactionByRef(ctx context.Context, ownerID uuid.UUID, ownerType OwnerType, refID string) (*Transaction, error) {
	var txn Transaction
	err := r.db.GetContext(ctx, &txn, `
		SELECT * FROM wallet_transactions
		WHERE owner_id = $1 AND owner_type = $2 AND ref_id = $3
	`, ownerID, string(ownerType), refID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// ListTransactions returns the account's ledger in insertion order.
func (r *Repository) ListTransactions(ctx context.Context, ownerID uuid.UUID, ownerType OwnerType, limit, offset int) ([]Transaction, error) {
	var txns []Transaction
	err := r.db.SelectContext(ctx, &txns, `
		SELECT * FROM wallet_transactions
		WHERE owner_id = $1 AND owner_type = $2
		ORDER BY seq ASC
		LIMIT $3 OFFSET $4
	`, ownerID, string(ownerType), limit, offset)
	return txns, err
}

// CountTransactions returns the size of the account's ledger.
func (r *Repository) CountTransactions(ctx context.Context, ownerID uuid.UUID, ownerType OwnerType) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM wallet_transactions WHERE owner_id = $1 AND owner_type = $2
	`, ownerID, string(ownerType))
	return count, err
}

// SetTransactionStatus transitions the transaction identified by refId. The
// update only claims rows still pending, so exactly one of any number of
// concurrent callers wins; the rest see ErrInvalidTransition. A missing
// reference is ErrTransactionNotFound.
func (r *Repository) SetTransactionStatus(ctx context.Context, ownerID uuid.UUID, ownerType OwnerType, refID string, status TransactionStatus) (*Account, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE wallet_transactions SET status = $1
		WHERE owner_id = $2 AND owner_type = $3 AND ref_id = $4 AND status = 'pending'
	`, string(status), ownerID, string(ownerType), refID)
	if err != nil {
		return nil, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		if _, err := r.GetTransactionByRef(ctx, ownerID, ownerType, refID); err != nil {
			return nil, err
		}
		return nil, ErrInvalidTransition
	}

	return r.GetAccount(ctx, ownerID, ownerType)
}
