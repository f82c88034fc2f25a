package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

func (t TransactionType) Valid() bool { return t == Income || t == Expense }

type PaymentMethod string

const (
	BankAccountMethod PaymentMethod = "BANK_ACCOUNT"
	CreditCardMethod  PaymentMethod = "CREDIT_CARD"
)

func (m PaymentMethod) Valid() bool { return m == BankAccountMethod || m == CreditCardMethod }

// DateLayout is the calendar-date format of Transaction.Date.
const DateLayout = "2006-01-02"

// Transaction amounts are always positive; the sign comes from TransactionType.
type Transaction struct {
	ID              string          `gorm:"primaryKey;size:36" json:"id"`
	OwnerID         string          `gorm:"index;size:36;not null" json:"owner_id"`
	Date            string          `gorm:"size:10;index;not null" json:"date"`
	Description     string          `gorm:"size:255" json:"description"`
	TransactionType TransactionType `gorm:"size:16;not null" json:"transaction_type"`
	CategoryID      string          `gorm:"size:36" json:"category_id"`
	Amount          decimal.Decimal `gorm:"type:numeric" json:"amount"`
	PaymentMethod   PaymentMethod   `gorm:"size:16;not null" json:"payment_method"`
	PaymentMethodID string          `gorm:"size:36" json:"payment_method_id"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// SignedAmount is +Amount for income and -Amount for expenses.
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.TransactionType == Expense {
		return t.Amount.Neg()
	}
	return t.Amount
}

func (t Transaction) RecordID() string { return t.ID }
func (t Transaction) Owner() string    { return t.OwnerID }
