package receipts

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
)

// ReceiptDTO is the receipt payload returned to clients.
type ReceiptDTO struct {
	ID          uuid.UUID       `json:"id"`
	Number      string          `json:"number"`
	Amount      decimal.Decimal `json:"amount"`
	PayerName   string          `json:"payer_name"`
	PayerTaxID  *string         `json:"payer_tax_id,omitempty"`
	PayeeName   string          `json:"payee_name"`
	PayeeTaxID  *string         `json:"payee_tax_id,omitempty"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
	Notes       *string         `json:"notes,omitempty"`
	OwnerID     uuid.UUID       `json:"owner_id"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// PrintDTO carries everything the printable receipt renders.
type PrintDTO struct {
	Receipt         ReceiptDTO `json:"receipt"`
	AmountFormatted string     `json:"amount_formatted"`
	AmountInWords   string     `json:"amount_in_words"`
	CompanyName     string     `json:"company_name"`
	CompanyLogo     string     `json:"company_logo,omitempty"`
}

// NumberDTO is a freshly reserved receipt number.
type NumberDTO struct {
	Number string `json:"number"`
}

func NewReceiptDTO(r *models.Receipt) ReceiptDTO {
	return ReceiptDTO{
		ID:          r.ID,
		Number:      r.Number,
		Amount:      r.Amount,
		PayerName:   r.PayerName,
		PayerTaxID:  r.PayerTaxID,
		PayeeName:   r.PayeeName,
		PayeeTaxID:  r.PayeeTaxID,
		Description: r.Description,
		Date:        r.Date,
		Notes:       r.Notes,
		OwnerID:     r.OwnerID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
