package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type BankAccount struct {
	ID             string          `gorm:"primaryKey;size:36" json:"id"`
	OwnerID        string          `gorm:"index;size:36;not null" json:"owner_id"`
	BankName       string          `gorm:"size:128;not null" json:"bank_name"`
	InitialBalance decimal.Decimal `gorm:"type:numeric" json:"initial_balance"`
	CurrentBalance decimal.Decimal `gorm:"type:numeric" json:"current_balance"`
	IsActive       bool            `json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type CreditCard struct {
	ID             string          `gorm:"primaryKey;size:36" json:"id"`
	OwnerID        string          `gorm:"index;size:36;not null" json:"owner_id"`
	Title          string          `gorm:"size:128;not null" json:"title"`
	CreditLimit    decimal.Decimal `gorm:"type:numeric" json:"credit_limit"`
	AvailableLimit decimal.Decimal `gorm:"type:numeric" json:"available_limit"`
	Brand          string          `gorm:"size:32" json:"brand"`
	DueDay         int             `json:"due_day"`     // 1..31
	ClosingDay     int             `json:"closing_day"` // 1..31
	IsActive       bool            `json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (a BankAccount) RecordID() string { return a.ID }
func (a BankAccount) Owner() string    { return a.OwnerID }
func (c CreditCard) RecordID() string  { return c.ID }
func (c CreditCard) Owner() string     { return c.OwnerID }
