package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"finance-tracker-go/internal/models"
)

// Gorm is a Store over a relational database. Open the *gorm.DB with
// TranslateError so unique violations surface as ErrDuplicate, and with
// NowFunc set to MonotonicClock so created_at keeps insertion order.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func (g *Gorm) Users() Users { return gormUsers{gormTable[models.User]{db: g.db, name: TableUsers}} }

func (g *Gorm) Accounts() Table[models.BankAccount] {
	return gormTable[models.BankAccount]{db: g.db, name: TableAccounts}
}

func (g *Gorm) Cards() Table[models.CreditCard] {
	return gormTable[models.CreditCard]{db: g.db, name: TableCards}
}

func (g *Gorm) Classifications() Table[models.Classification] {
	return gormTable[models.Classification]{db: g.db, name: TableClassifications}
}

func (g *Gorm) Categories() Table[models.Category] {
	return gormTable[models.Category]{db: g.db, name: TableCategories}
}

func (g *Gorm) Transactions() Table[models.Transaction] {
	return gormTable[models.Transaction]{db: g.db, name: TableTransactions}
}

// Atomic wraps fn in a database transaction.
func (g *Gorm) Atomic(ctx context.Context, fn func(Store) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Gorm{db: tx})
	})
}

type gormTable[T Record] struct {
	db   *gorm.DB
	name string
}

func (t gormTable[T]) All(ctx context.Context, ownerID string) ([]T, error) {
	var out []T
	err := t.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at asc, id asc").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("store.All(%s): %w", t.name, err)
	}
	return out, nil
}

func (t gormTable[T]) Get(ctx context.Context, id string) (Lookup[T], error) {
	var rec T
	err := t.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Dangling[T](), nil
	}
	if err != nil {
		return Dangling[T](), fmt.Errorf("store.Get(%s): %w", t.name, err)
	}
	return Found(rec), nil
}

func (t gormTable[T]) Insert(ctx context.Context, rec *T) error {
	err := t.db.WithContext(ctx).Create(rec).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("store.Insert(%s): %w", t.name, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("store.Insert(%s): %w", t.name, err)
	}
	return nil
}

func (t gormTable[T]) Update(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	err := t.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(fields).Error
	if err != nil {
		return fmt.Errorf("store.Update(%s): %w", t.name, err)
	}
	return nil
}

// Increment locks the row (SELECT ... FOR UPDATE on postgres; sqlite
// serialises writers itself) and writes back the exact decimal sum.
func (t gormTable[T]) Increment(ctx context.Context, id, column string, delta decimal.Decimal) error {
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(new(T)).Where("id = ?", id)
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var current []decimal.Decimal
		if err := q.Pluck(column, &current).Error; err != nil {
			return err
		}
		if len(current) == 0 {
			return nil
		}
		return tx.Model(new(T)).Where("id = ?", id).Update(column, current[0].Add(delta)).Error
	})
	if err != nil {
		return fmt.Errorf("store.Increment(%s): %w", t.name, err)
	}
	return nil
}

func (t gormTable[T]) Delete(ctx context.Context, id string) error {
	if err := t.db.WithContext(ctx).Where("id = ?", id).Delete(new(T)).Error; err != nil {
		return fmt.Errorf("store.Delete(%s): %w", t.name, err)
	}
	return nil
}

type gormUsers struct {
	gormTable[models.User]
}

// All on users filters by the user's own id.
func (u gormUsers) All(ctx context.Context, ownerID string) ([]models.User, error) {
	var out []models.User
	if err := u.db.WithContext(ctx).Where("id = ?", ownerID).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("store.All(%s): %w", u.name, err)
	}
	return out, nil
}

func (u gormUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := u.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoUser
	}
	if err != nil {
		return nil, fmt.Errorf("store.FindByEmail: %w", err)
	}
	return &user, nil
}

// MonotonicClock wraps now so that successive readings strictly increase at
// microsecond resolution, the finest precision postgres keeps.
func MonotonicClock(now func() time.Time) func() time.Time {
	var (
		mu   sync.Mutex
		last time.Time
	)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := now().Truncate(time.Microsecond)
		if !t.After(last) {
			t = last.Add(time.Microsecond)
		}
		last = t
		return t
	}
}
