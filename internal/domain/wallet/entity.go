package wallet

import (
	"time"

	"github.com/google/uuid"
)

// OwnerType identifies which side of the marketplace an account belongs to
type OwnerType string

const (
	OwnerTypeUser   OwnerType = "user"
	OwnerTypeVendor OwnerType = "vendor"
	OwnerTypeAdmin  OwnerType = "admin"
)

// TransactionType is the direction of a ledger entry
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "credit"
	TransactionTypeDebit  TransactionType = "debit"
)

// TransactionStatus tracks settlement state. Completed is terminal.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// Account is a wallet, one per (owner_id, owner_type) pair.
// Balance always equals sum(credits) - sum(debits) over its transactions.
type Account struct {
	OwnerID   uuid.UUID `db:"owner_id" json:"owner_id"`
	OwnerType OwnerType `db:"owner_type" json:"owner_type"`
	Balance   int64     `db:"balance" json:"balance"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Transaction is a ledger entry. Amount is always positive; Type carries the
// sign. RefID, when set, is unique within the owning account and is the key
// settlement uses to find and complete a specific entry later.
type Transaction struct {
	ID          uuid.UUID         `db:"id" json:"id"`
	Seq         int64             `db:"seq" json:"-"`
	OwnerID     uuid.UUID         `db:"owner_id" json:"owner_id"`
	OwnerType   OwnerType         `db:"owner_type" json:"owner_type"`
	Type        TransactionType   `db:"type" json:"type"`
	Amount      int64             `db:"amount" json:"amount"`
	Status      TransactionStatus `db:"status" json:"status"`
	Description string            `db:"description" json:"description"`
	RefID       *string           `db:"ref_id" json:"ref_id,omitempty"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
}
