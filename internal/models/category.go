package models

import "time"

// Classification groups categories for display. Deleting one leaves the
// categories that point at it untouched.
type Classification struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	OwnerID   string    `gorm:"index;size:36;not null" json:"owner_id"`
	Name      string    `gorm:"size:64;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Category struct {
	ID               string          `gorm:"primaryKey;size:36" json:"id"`
	OwnerID          string          `gorm:"index;size:36;not null" json:"owner_id"`
	ClassificationID *string         `gorm:"size:36" json:"classification_id"` // may dangle
	Name             string          `gorm:"size:64;not null" json:"name"`
	Type             TransactionType `gorm:"size:16;index;not null" json:"type"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (c Classification) RecordID() string { return c.ID }
func (c Classification) Owner() string    { return c.OwnerID }
func (c Category) RecordID() string       { return c.ID }
func (c Category) Owner() string          { return c.OwnerID }
