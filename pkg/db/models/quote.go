package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/backoffice-backend/pkg/enums"
)

// Quote is a priced proposal to a customer.
type Quote struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Number     string            `gorm:"column:number;not null;uniqueIndex"`
	Customer   string            `gorm:"column:customer;not null"`
	Address    *string           `gorm:"column:address"`
	TotalValue decimal.Decimal   `gorm:"column:total_value;type:numeric(12,2);not null"`
	Status     enums.QuoteStatus `gorm:"column:status;type:varchar(20);not null;default:pending;index"`
	DueDate    *time.Time        `gorm:"column:due_date"`
	Notes      *string           `gorm:"column:notes"`
	OwnerID    uuid.UUID         `gorm:"column:owner_id;type:uuid;not null;index"`
	Owner      *User             `gorm:"foreignKey:OwnerID"`
	Items      []QuoteLineItem   `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (q *Quote) BeforeCreate(*gorm.DB) error {
	ensureID(&q.ID)
	return nil
}

// QuoteLineItem is owned by its quote and replaced wholesale on edit.
type QuoteLineItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	QuoteID     uuid.UUID       `gorm:"column:quote_id;type:uuid;not null;index"`
	ProductID   *uuid.UUID      `gorm:"column:product_id;type:uuid;index"`
	ProductName string          `gorm:"column:product_name;not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	LineTotal   decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (i *QuoteLineItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
