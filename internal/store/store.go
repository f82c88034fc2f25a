// Package store is the owner-partitioned record store the ledger runs on.
// It knows nothing about balances or joins; every relation is resolved by
// the callers.
package store

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"finance-tracker-go/internal/models"
)

// Table names, used for logging and as snapshot keys.
const (
	TableUsers           = "users"
	TableAccounts        = "accounts"
	TableCards           = "cards"
	TableClassifications = "classifications"
	TableCategories      = "categories"
	TableTransactions    = "transactions"
)

var (
	// ErrNoUser is returned by Users.FindByEmail when nothing matches.
	ErrNoUser = errors.New("store: user not found")
	// ErrDuplicate wraps inserts that collide with an existing id or a
	// unique column.
	ErrDuplicate = errors.New("store: duplicate record")
)

// Record is implemented by every persisted entity.
type Record interface {
	RecordID() string
	Owner() string
}

// Table is CRUD over one named table. All returns records in insertion
// order. Update merges fields (keyed by column name) over the stored record
// and is a no-op when id does not exist. Increment adds delta to a decimal
// column as one read-modify-write that concurrent callers cannot split.
type Table[T Record] interface {
	All(ctx context.Context, ownerID string) ([]T, error)
	Get(ctx context.Context, id string) (Lookup[T], error)
	Insert(ctx context.Context, rec *T) error
	Update(ctx context.Context, id string, fields map[string]any) error
	Increment(ctx context.Context, id, column string, delta decimal.Decimal) error
	Delete(ctx context.Context, id string) error
}

type Users interface {
	Table[models.User]
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type Store interface {
	Users() Users
	Accounts() Table[models.BankAccount]
	Cards() Table[models.CreditCard]
	Classifications() Table[models.Classification]
	Categories() Table[models.Category]
	Transactions() Table[models.Transaction]

	// Atomic runs fn against a store whose writes are committed together,
	// or not at all when fn returns an error.
	Atomic(ctx context.Context, fn func(Store) error) error
}

// Owned resolves id in t and treats records of another owner as dangling.
func Owned[T Record](ctx context.Context, t Table[T], ownerID, id string) (Lookup[T], error) {
	if id == "" {
		return Dangling[T](), nil
	}
	l, err := t.Get(ctx, id)
	if err != nil {
		return l, err
	}
	if rec, ok := l.Get(); ok && rec.Owner() != ownerID {
		return Dangling[T](), nil
	}
	return l, nil
}
