package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/backoffice-backend/pkg/enums"
)

// Order is a confirmed sale, optionally originated from a quote.
type Order struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Number        string            `gorm:"column:number;not null;uniqueIndex"`
	Customer      string            `gorm:"column:customer;not null"`
	Address       *string           `gorm:"column:address"`
	TotalValue    decimal.Decimal   `gorm:"column:total_value;type:numeric(12,2);not null"`
	Status        enums.OrderStatus `gorm:"column:status;type:varchar(20);not null;default:new;index"`
	DeliveryDate  *time.Time        `gorm:"column:delivery_date"`
	Notes         *string           `gorm:"column:notes"`
	OwnerID       uuid.UUID         `gorm:"column:owner_id;type:uuid;not null;index"`
	Owner         *User             `gorm:"foreignKey:OwnerID"`
	SourceQuoteID *uuid.UUID        `gorm:"column:source_quote_id;type:uuid;index"`
	Items         []OrderLineItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}
