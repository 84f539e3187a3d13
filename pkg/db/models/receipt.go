package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Receipt is a standalone proof of payment numbered per issuing user.
type Receipt struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Number      string          `gorm:"column:number;not null;uniqueIndex:idx_receipts_owner_number"`
	Amount      decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	PayerName   string          `gorm:"column:payer_name;not null"`
	PayerTaxID  *string         `gorm:"column:payer_tax_id"`
	PayeeName   string          `gorm:"column:payee_name;not null"`
	PayeeTaxID  *string         `gorm:"column:payee_tax_id"`
	Description string          `gorm:"column:description;not null"`
	Date        time.Time       `gorm:"column:receipt_date;not null"`
	Notes       *string         `gorm:"column:notes"`
	OwnerID     uuid.UUID       `gorm:"column:owner_id;type:uuid;not null;uniqueIndex:idx_receipts_owner_number"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *Receipt) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
