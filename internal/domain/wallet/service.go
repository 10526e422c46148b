package wallet

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Service exposes the balance-mutating wallet operations. All atomicity is
// storage-level (see Repository); the service adds input validation, status
// semantics and logging.
type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// GetOrCreateAccount returns the owner's account, creating it on first use.
func (s *Service) GetOrCreateAccount(ctx context.Context, ownerID uuid.UUID, ownerType OwnerType) (*Account, error) {
	return s.repo.GetOrCreateAccount(ctx, ownerID, ownerType)
}

// GetBalance returns the current balance, creating the account if absent.
func (s *Service) GetBalance(ctx context.Context, ownerID uuid.UUID, ownerType OwnerType) (int64, error) {
	acct, err := s.repo.GetOrCreateAccount(ctx, ownerID, ownerType)
	if err != nil {
		return 0, err
	}
	return acct.Balance, nil
}

// Credit appends a completed credit. A non-nil refId makes retries no-ops:
// the same operation applied twice credits once.
func (s *Service) Credit(ctx context.Context, ownerID uuid.UUID, ownerType OwnerType, amount int64, description string, refID *string) (*Account, error) {
	return s.credit(ctx, ownerID, ownerType, amount, description, refID, TransactionStatusCompleted)
}

// CreditHold appends a pending credit - funds counted into the balance but
// awaiting settlement, to be completed later via MarkCompleted. refId is
// mandatory because settlement addresses the hold by it.
func (s *Service) CreditHold(ctx context.Context, ownerID uuid.UUID, ownerType OwnerType, amount int64, description string, refID string) (*Account, error) {
	if refID == "" {
		return nil, ErrInvalidAmount
	}
	return s.credit(ctx, ownerID, ownerType, amount, description, &refID, TransactionStatusPending)
}

func (s *Service) credit(ctx context.Context, ownerID uuid.UUID, ownerType OwnerType, amount int64, description string, refID *string, status TransactionStatus) (*Account, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	acct, err := s.repo.Append(ctx, ownerID, ownerType, Entry{
		Type:        TransactionTypeCredit,
		Amount:      amount,
		Status:      status,
		Description: description,
		RefID:       refID,
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("owner_id", ownerID.String()).
		Str("owner_type", string(ownerType)).
		Int64("amount", amount).
		Str("status", string(status)).
		Msg("wallet credit applied")
	return acct, nil
}

// Debit appends a debit, failing with ErrInsufficientFunds when the balance
// cannot cover it and ErrAccountNotFound when no account exists.
func (s *Service) Debit(ctx context.Context, ownerID uuid.UUID, ownerType OwnerType, amount int64, description string, refID *string) (*Account, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	acct, err := s.repo.Append(ctx, ownerID, ownerType, Entry{
		Type:        TransactionTypeDebit,
		Amount:      amount,
		Status:      TransactionStatusCompleted,
		Description: description,
		RefID:       refID,
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("owner_id", ownerID.String()).
		Str("owner_type", string(ownerType)).
		Int64("amount", amount).
		Msg("wallet debit applied")
	return acct, nil
}

// MarkCompleted finishes the pending transaction carrying refId. Completed is
// terminal: a second call fails with ErrAlreadySettled, which is the
// idempotency contract settlement relies on.
func (s *Service) MarkCompleted(ctx context.Context, ownerID uuid.UUID, ownerType OwnerType, refID string) (*Account, error) {
	acct, err := s.repo.SetTransactionStatus(ctx, ownerID, ownerType, refID, TransactionStatusCompleted)
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			return nil, ErrAlreadySettled
		}
		return nil, err
	}

	log.Info().
		Str("owner_id", ownerID.String()).
		Str("owner_type", string(ownerType)).
		Str("ref_id", refID).
		Msg("wallet transaction completed")
	return acct, nil
}

// MarkFailed voids the pending transaction carrying refId.
func (s *Service) MarkFailed(ctx context.Context, ownerID uuid.UUID, ownerType OwnerType, refID string) (*Account, error) {
	return s.repo.SetTransactionStatus(ctx, ownerID, ownerType, refID, TransactionStatusFailed)
}

// GetTransactionByRef returns the transaction carrying refId, or
// ErrTransactionNotFound.
func (s *Service) GetTransactionByRef(ctx context.Context, ownerID uuid.UUID, ownerType OwnerType, refID string) (*Transaction, error) {
	return s.repo.GetTransactionByRef(ctx, ownerID, ownerType, refID)
}

// ListTransactions returns the ledger slice plus total count for pagination.
func (s *Service) ListTransactions(ctx context.Context, ownerID uuid.UUID, ownerType OwnerType, limit, offset int) ([]Transaction, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	txns, err := s.repo.ListTransactions(ctx, ownerID, ownerType, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.CountTransactions(ctx, ownerID, ownerType)
	if err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}
