package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finance-tracker-go/internal/identity"
	"finance-tracker-go/internal/models"
	"finance-tracker-go/internal/store"
)

type TransactionInput struct {
	TransactionType models.TransactionType `json:"transaction_type"`
	Amount          decimal.Decimal        `json:"amount"`
	Date            string                 `json:"date"`
	CategoryID      string                 `json:"category_id"`
	PaymentMethod   models.PaymentMethod   `json:"payment_method"`
	PaymentMethodID string                 `json:"payment_method_id"`
	Description     string                 `json:"description"`
}

func (in TransactionInput) validate() error {
	if !in.TransactionType.Valid() {
		return models.Invalid("transaction_type", "must be INCOME or EXPENSE")
	}
	if !in.Amount.IsPositive() {
		return models.Invalid("amount", "must be greater than zero")
	}
	if _, err := time.Parse(models.DateLayout, in.Date); err != nil {
		return models.Invalid("date", "must be a YYYY-MM-DD calendar date")
	}
	if strings.TrimSpace(in.CategoryID) == "" {
		return models.Invalid("category_id", "required")
	}
	if !in.PaymentMethod.Valid() {
		return models.Invalid("payment_method", "must be BANK_ACCOUNT or CREDIT_CARD")
	}
	if strings.TrimSpace(in.PaymentMethodID) == "" {
		return models.Invalid("payment_method_id", "required")
	}
	return nil
}

// AddTransaction records a transaction and moves the balance of its
// payment source in the same step:
//
//   - BANK_ACCOUNT: current balance += amount for income, -= amount for expense
//   - CREDIT_CARD, EXPENSE: available limit -= amount
//   - CREDIT_CARD, INCOME: no balance effect
//
// A payment source that does not resolve is skipped silently; the
// transaction is stored regardless. Both writes share one store.Atomic call.
func (e *Engine) AddTransaction(ctx context.Context, in TransactionInput) (*models.Transaction, error) {
	owner, ok := identity.OwnerFrom(ctx)
	if !ok {
		return nil, nil
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	tx := models.Transaction{
		ID:              e.newID(),
		OwnerID:         owner,
		Date:            in.Date,
		Description:     strings.TrimSpace(in.Description),
		TransactionType: in.TransactionType,
		CategoryID:      in.CategoryID,
		Amount:          in.Amount,
		PaymentMethod:   in.PaymentMethod,
		PaymentMethodID: in.PaymentMethodID,
	}

	var applied bool
	err := e.store.Atomic(ctx, func(s store.Store) error {
		var err error
		applied, err = applyToSource(ctx, s, owner, tx)
		if err != nil {
			return err
		}
		return s.Transactions().Insert(ctx, &tx)
	})
	if err != nil {
		return nil, fmt.Errorf("AddTransaction: %w", err)
	}

	e.log.Info().
		Str("owner_id", owner).
		Str("transaction_id", tx.ID).
		Str("type", string(tx.TransactionType)).
		Str("payment_method", string(tx.PaymentMethod)).
		Bool("source_adjusted", applied).
		Msg("transaction recorded")
	return &tx, nil
}

func applyToSource(ctx context.Context, s store.Store, owner string, tx models.Transaction) (bool, error) {
	switch tx.PaymentMethod {
	case models.BankAccountMethod:
		return adjustBalance(ctx, s, owner, tx.PaymentMethodID, tx.SignedAmount())
	case models.CreditCardMethod:
		if tx.TransactionType != models.Expense {
			return false, nil
		}
		return adjustLimit(ctx, s, owner, tx.PaymentMethodID, tx.Amount.Neg())
	}
	return false, nil
}

// DeleteTransaction removes the record only. The balance adjustment made
// when it was added stays in place.
func (e *Engine) DeleteTransaction(ctx context.Context, id string) error {
	owner, ok := identity.OwnerFrom(ctx)
	if !ok {
		return nil
	}
	l, err := store.Owned(ctx, e.store.Transactions(), owner, id)
	if err != nil {
		return fmt.Errorf("DeleteTransaction: %w", err)
	}
	if !l.IsFound() {
		return nil
	}
	if err := e.store.Transactions().Delete(ctx, id); err != nil {
		return fmt.Errorf("DeleteTransaction: %w", err)
	}
	e.log.Info().Str("owner_id", owner).Str("transaction_id", id).Msg("transaction deleted")
	return nil
}
