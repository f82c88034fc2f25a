// Package ledger keeps account balances, card limits and transaction history
// consistent with each other.
//
// Every operation resolves its owner from the context first. Without an
// owner, reads return nothing and writes do nothing. References to accounts
// or cards that no longer exist are never an error: the balance side of the
// operation is skipped and the rest proceeds.
package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"finance-tracker-go/internal/identity"
	"finance-tracker-go/internal/models"
	"finance-tracker-go/internal/store"
)

type Engine struct {
	store store.Store
	log   zerolog.Logger
	newID func() string
}

func New(s store.Store, log zerolog.Logger) *Engine {
	return &Engine{store: s, log: log, newID: uuid.NewString}
}

type AccountInput struct {
	BankName       string          `json:"bank_name"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	IsActive       *bool           `json:"is_active"` // defaults to true
}

type CardInput struct {
	Title       string          `json:"title"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
	Brand       string          `json:"brand"`
	DueDay      int             `json:"due_day"`
	ClosingDay  int             `json:"closing_day"`
	IsActive    *bool           `json:"is_active"` // defaults to true
}

// PaymentSources are the accounts and cards a new transaction may use.
type PaymentSources struct {
	Accounts []models.BankAccount `json:"accounts"`
	Cards    []models.CreditCard  `json:"cards"`
}

func (in AccountInput) validate() error {
	if in.BankName == "" {
		return models.Invalid("bank_name", "required")
	}
	return nil
}

func (in CardInput) validate() error {
	if in.Title == "" {
		return models.Invalid("title", "required")
	}
	if in.CreditLimit.IsNegative() {
		return models.Invalid("credit_limit", "must not be negative")
	}
	if in.DueDay < 1 || in.DueDay > 31 {
		return models.Invalid("due_day", "must be between 1 and 31")
	}
	if in.ClosingDay < 1 || in.ClosingDay > 31 {
		return models.Invalid("closing_day", "must be between 1 and 31")
	}
	return nil
}

func activeOrDefault(b *bool) bool {
	if b == nil {
		return true
	}
	return *b
}

// AddAccount creates an account whose current balance starts at the
// initial balance.
func (e *Engine) AddAccount(ctx context.Context, in AccountInput) (*models.BankAccount, error) {
	owner, ok := identity.OwnerFrom(ctx)
	if !ok {
		return nil, nil
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	acct := models.BankAccount{
		ID:             e.newID(),
		OwnerID:        owner,
		BankName:       in.BankName,
		InitialBalance: in.InitialBalance,
		CurrentBalance: in.InitialBalance,
		IsActive:       activeOrDefault(in.IsActive),
	}
	if err := e.store.Accounts().Insert(ctx, &acct); err != nil {
		return nil, fmt.Errorf("AddAccount: %w", err)
	}
	e.log.Info().Str("owner_id", owner).Str("account_id", acct.ID).Msg("account created")
	return &acct, nil
}

// AddCard creates a card whose available limit starts at the credit limit.
func (e *Engine) AddCard(ctx context.Context, in CardInput) (*models.CreditCard, error) {
	owner, ok := identity.OwnerFrom(ctx)
	if !ok {
		return nil, nil
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	card := models.CreditCard{
		ID:             e.newID(),
		OwnerID:        owner,
		Title:          in.Title,
		CreditLimit:    in.CreditLimit,
		AvailableLimit: in.CreditLimit,
		Brand:          in.Brand,
		DueDay:         in.DueDay,
		ClosingDay:     in.ClosingDay,
		IsActive:       activeOrDefault(in.IsActive),
	}
	if err := e.store.Cards().Insert(ctx, &card); err != nil {
		return nil, fmt.Errorf("AddCard: %w", err)
	}
	e.log.Info().Str("owner_id", owner).Str("card_id", card.ID).Msg("card created")
	return &card, nil
}

func (e *Engine) ListAccounts(ctx context.Context) ([]models.BankAccount, error) {
	owner, ok := identity.OwnerFrom(ctx)
	if !ok {
		return []models.BankAccount{}, nil
	}
	accts, err := e.store.Accounts().All(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: %w", err)
	}
	return nonNil(accts), nil
}

func (e *Engine) ListCards(ctx context.Context) ([]models.CreditCard, error) {
	owner, ok := identity.OwnerFrom(ctx)
	if !ok {
		return []models.CreditCard{}, nil
	}
	cards, err := e.store.Cards().All(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("ListCards: %w", err)
	}
	return nonNil(cards), nil
}

// PaymentSources lists only active accounts and cards. Inactive ones stay
// in ListAccounts/ListCards and in every aggregate.
func (e *Engine) PaymentSources(ctx context.Context) (PaymentSources, error) {
	out := PaymentSources{Accounts: []models.BankAccount{}, Cards: []models.CreditCard{}}
	accts, err := e.ListAccounts(ctx)
	if err != nil {
		return out, err
	}
	cards, err := e.ListCards(ctx)
	if err != nil {
		return out, err
	}
	for _, a := range accts {
		if a.IsActive {
			out.Accounts = append(out.Accounts, a)
		}
	}
	for _, c := range cards {
		if c.IsActive {
			out.Cards = append(out.Cards, c)
		}
	}
	return out, nil
}

// ToggleAccount flips is_active. The balance is not touched.
func (e *Engine) ToggleAccount(ctx context.Context, id string) error {
	owner, ok := identity.OwnerFrom(ctx)
	if !ok {
		return nil
	}
	l, err := store.Owned(ctx, e.store.Accounts(), owner, id)
	if err != nil {
		return fmt.Errorf("ToggleAccount: %w", err)
	}
	acct, found := l.Get()
	if !found {
		return nil
	}
	if err := e.store.Accounts().Update(ctx, id, map[string]any{"is_active": !acct.IsActive}); err != nil {
		return fmt.Errorf("ToggleAccount: %w", err)
	}
	return nil
}

// ToggleCard flips is_active. The available limit is not touched.
func (e *Engine) ToggleCard(ctx context.Context, id string) error {
	owner, ok := identity.OwnerFrom(ctx)
	if !ok {
		return nil
	}
	l, err := store.Owned(ctx, e.store.Cards(), owner, id)
	if err != nil {
		return fmt.Errorf("ToggleCard: %w", err)
	}
	card, found := l.Get()
	if !found {
		return nil
	}
	if err := e.store.Cards().Update(ctx, id, map[string]any{"is_active": !card.IsActive}); err != nil {
		return fmt.Errorf("ToggleCard: %w", err)
	}
	return nil
}

// DeleteAccount removes the account. Transactions that reference it are
// kept and resolve to "Unknown Bank" from then on.
func (e *Engine) DeleteAccount(ctx context.Context, id string) error {
	owner, ok := identity.OwnerFrom(ctx)
	if !ok {
		return nil
	}
	l, err := store.Owned(ctx, e.store.Accounts(), owner, id)
	if err != nil {
		return fmt.Errorf("DeleteAccount: %w", err)
	}
	if !l.IsFound() {
		return nil
	}
	if err := e.store.Accounts().Delete(ctx, id); err != nil {
		return fmt.Errorf("DeleteAccount: %w", err)
	}
	return nil
}

func (e *Engine) DeleteCard(ctx context.Context, id string) error {
	owner, ok := identity.OwnerFrom(ctx)
	if !ok {
		return nil
	}
	l, err := store.Owned(ctx, e.store.Cards(), owner, id)
	if err != nil {
		return fmt.Errorf("DeleteCard: %w", err)
	}
	if !l.IsFound() {
		return nil
	}
	if err := e.store.Cards().Delete(ctx, id); err != nil {
		return fmt.Errorf("DeleteCard: %w", err)
	}
	return nil
}

// UpdateBalance adds delta to the account's current balance. There is no
// floor: overdrafts are allowed.
func (e *Engine) UpdateBalance(ctx context.Context, accountID string, delta decimal.Decimal) error {
	owner, ok := identity.OwnerFrom(ctx)
	if !ok {
		return nil
	}
	if _, err := adjustBalance(ctx, e.store, owner, accountID, delta); err != nil {
		return fmt.Errorf("UpdateBalance: %w", err)
	}
	return nil
}

// UpdateLimit adds delta to the card's available limit. There is no clamp
// in either direction, so the limit may exceed the credit limit.
func (e *Engine) UpdateLimit(ctx context.Context, cardID string, delta decimal.Decimal) error {
	owner, ok := identity.OwnerFrom(ctx)
	if !ok {
		return nil
	}
	if _, err := adjustLimit(ctx, e.store, owner, cardID, delta); err != nil {
		return fmt.Errorf("UpdateLimit: %w", err)
	}
	return nil
}

// adjustBalance reports whether the account existed.
func adjustBalance(ctx context.Context, s store.Store, owner, id string, delta decimal.Decimal) (bool, error) {
	l, err := store.Owned(ctx, s.Accounts(), owner, id)
	if err != nil {
		return false, err
	}
	if !l.IsFound() {
		return false, nil
	}
	return true, s.Accounts().Increment(ctx, id, "current_balance", delta)
}

// adjustLimit reports whether the card existed.
func adjustLimit(ctx context.Context, s store.Store, owner, id string, delta decimal.Decimal) (bool, error) {
	l, err := store.Owned(ctx, s.Cards(), owner, id)
	if err != nil {
		return false, err
	}
	if !l.IsFound() {
		return false, nil
	}
	return true, s.Cards().Increment(ctx, id, "available_limit", delta)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
