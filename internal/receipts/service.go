package receipts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/backoffice-backend/internal/policy"
	"github.com/angelmondragon/backoffice-backend/pkg/brdoc"
	"github.com/angelmondragon/backoffice-backend/pkg/db"
	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/backoffice-backend/pkg/errors"
	"github.com/angelmondragon/backoffice-backend/pkg/pagination"
)

var minAmount = decimal.RequireFromString("0.01")

// CompanyInfo supplies the letterhead printed on receipts.
type CompanyInfo interface {
	CompanyName(ctx context.Context) (string, error)
	CompanyLogo(ctx context.Context) (string, error)
}

// DocumentRecorder counts issued receipts.
type DocumentRecorder interface {
	IncCreated(kind string)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type numberer interface {
	Next(ctx context.Context, tx *gorm.DB, kind enums.DocumentKind, ownerID uuid.UUID) (string, error)
}

// Input is the receipt payload. A blank Number asks for a generated one.
type Input struct {
	Number      string
	Amount      decimal.Decimal
	PayerName   string
	PayerTaxID  *string
	PayeeName   string
	PayeeTaxID  *string
	Description string
	Date        time.Time
	Notes       *string
}

// Service manages receipts. Every operation is scoped to the caller's own receipts.
type Service interface {
	List(ctx context.Context, actor policy.Actor, search string, params pagination.Params) (pagination.Page[ReceiptDTO], error)
	Get(ctx context.Context, actor policy.Actor, id uuid.UUID) (*ReceiptDTO, error)
	Create(ctx context.Context, actor policy.Actor, input Input) (*ReceiptDTO, error)
	Update(ctx context.Context, actor policy.Actor, id uuid.UUID, input Input) (*ReceiptDTO, error)
	Delete(ctx context.Context, actor policy.Actor, id uuid.UUID) error
	ReserveNumber(ctx context.Context, actor policy.Actor) (*NumberDTO, error)
	Print(ctx context.Context, actor policy.Actor, id uuid.UUID) (*PrintDTO, error)
}

type service struct {
	repo    *Repository
	tx      txRunner
	numbers numberer
	company CompanyInfo
	metrics DocumentRecorder
}

func NewService(repo *Repository, tx txRunner, numbers numberer, company CompanyInfo, metrics DocumentRecorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("receipt repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if numbers == nil {
		return nil, fmt.Errorf("number generator required")
	}
	if company == nil {
		return nil, fmt.Errorf("company info required")
	}
	if metrics == nil {
		metrics = noopRecorder{}
	}
	return &service{repo: repo, tx: tx, numbers: numbers, company: company, metrics: metrics}, nil
}

func (s *service) List(ctx context.Context, actor policy.Actor, search string, params pagination.Params) (pagination.Page[ReceiptDTO], error) {
	if err := policy.Authorize(actor, policy.ActionList, policy.Collection(policy.KindReceipt)); err != nil {
		return pagination.Page[ReceiptDTO]{}, err
	}
	filters := ListFilters{OwnerID: policy.OwnerScope(actor, policy.KindReceipt), Search: search}
	rows, total, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return pagination.Page[ReceiptDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list receipts")
	}
	items := make([]ReceiptDTO, 0, len(rows))
	for i := range rows {
		items = append(items, NewReceiptDTO(&rows[i]))
	}
	return pagination.NewPage(items, params, total), nil
}

func (s *service) Get(ctx context.Context, actor policy.Actor, id uuid.UUID) (*ReceiptDTO, error) {
	receipt, err := s.loadAuthorized(ctx, s.repo, actor, policy.ActionRead, id)
	if err != nil {
		return nil, err
	}
	dto := NewReceiptDTO(receipt)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, actor policy.Actor, input Input) (*ReceiptDTO, error) {
	if err := policy.Authorize(actor, policy.ActionCreate, policy.Collection(policy.KindReceipt)); err != nil {
		return nil, err
	}
	receipt, err := validate(input)
	if err != nil {
		return nil, err
	}
	receipt.OwnerID = actor.UserID

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if receipt.Number == "" {
			number, err := s.numbers.Next(ctx, tx, enums.DocumentKindReceipt, actor.UserID)
			if err != nil {
				return err
			}
			receipt.Number = number
		} else if err := ensureNumberFree(ctx, txRepo, actor.UserID, receipt.Number, nil); err != nil {
			return err
		}
		return mapWriteError(txRepo.Create(ctx, receipt), "insert receipt")
	})
	if err != nil {
		return nil, asTyped(err, "create receipt")
	}
	s.metrics.IncCreated(string(enums.DocumentKindReceipt))

	dto := NewReceiptDTO(receipt)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, actor policy.Actor, id uuid.UUID, input Input) (*ReceiptDTO, error) {
	changes, err := validate(input)
	if err != nil {
		return nil, err
	}

	var updated *models.Receipt
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		receipt, err := s.loadAuthorized(ctx, txRepo, actor, policy.ActionUpdate, id)
		if err != nil {
			return err
		}
		if changes.Number != "" && changes.Number != receipt.Number {
			if err := ensureNumberFree(ctx, txRepo, receipt.OwnerID, changes.Number, &receipt.ID); err != nil {
				return err
			}
			receipt.Number = changes.Number
		}
		receipt.Amount = changes.Amount
		receipt.PayerName = changes.PayerName
		receipt.PayerTaxID = changes.PayerTaxID
		receipt.PayeeName = changes.PayeeName
		receipt.PayeeTaxID = changes.PayeeTaxID
		receipt.Description = changes.Description
		receipt.Date = changes.Date
		receipt.Notes = changes.Notes
		if err := mapWriteError(txRepo.Update(ctx, receipt), "update receipt"); err != nil {
			return err
		}
		updated = receipt
		return nil
	})
	if err != nil {
		return nil, asTyped(err, "update receipt")
	}
	dto := NewReceiptDTO(updated)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	if _, err := s.loadAuthorized(ctx, s.repo, actor, policy.ActionDelete, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete receipt")
	}
	return nil
}

// ReserveNumber consumes and returns the caller's next receipt number.
func (s *service) ReserveNumber(ctx context.Context, actor policy.Actor) (*NumberDTO, error) {
	if err := policy.Authorize(actor, policy.ActionCreate, policy.Collection(policy.KindReceipt)); err != nil {
		return nil, err
	}
	var number string
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		next, err := s.numbers.Next(ctx, tx, enums.DocumentKindReceipt, actor.UserID)
		number = next
		return err
	})
	if err != nil {
		return nil, asTyped(err, "reserve receipt number")
	}
	return &NumberDTO{Number: number}, nil
}

func (s *service) Print(ctx context.Context, actor policy.Actor, id uuid.UUID) (*PrintDTO, error) {
	receipt, err := s.loadAuthorized(ctx, s.repo, actor, policy.ActionRead, id)
	if err != nil {
		return nil, err
	}
	name, err := s.company.CompanyName(ctx)
	if err != nil {
		return nil, err
	}
	logo, err := s.company.CompanyLogo(ctx)
	if err != nil {
		return nil, err
	}
	return &PrintDTO{
		Receipt:         NewReceiptDTO(receipt),
		AmountFormatted: brdoc.FormatBRL(receipt.Amount),
		AmountInWords:   brdoc.AmountInWords(receipt.Amount),
		CompanyName:     name,
		CompanyLogo:     logo,
	}, nil
}

func (s *service) loadAuthorized(ctx context.Context, repo *Repository, actor policy.Actor, action policy.Action, id uuid.UUID) (*models.Receipt, error) {
	receipt, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "receipt not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load receipt")
	}
	if err := policy.Authorize(actor, action, policy.Owned(policy.KindReceipt, receipt.OwnerID)); err != nil {
		return nil, err
	}
	return receipt, nil
}

func ensureNumberFree(ctx context.Context, repo *Repository, ownerID uuid.UUID, number string, excludeID *uuid.UUID) error {
	taken, err := repo.NumberTaken(ctx, ownerID, number, excludeID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check receipt number")
	}
	if taken {
		return pkgerrors.New(pkgerrors.CodeConflict, "receipt number already exists")
	}
	return nil
}

func validate(input Input) (*models.Receipt, error) {
	details := map[string]string{}

	payer := strings.TrimSpace(input.PayerName)
	if payer == "" {
		details["payer_name"] = "is required"
	}
	payee := strings.TrimSpace(input.PayeeName)
	if payee == "" {
		details["payee_name"] = "is required"
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		details["description"] = "is required"
	}
	if input.Amount.LessThan(minAmount) {
		details["amount"] = "must be at least 0.01"
	}
	if input.Date.IsZero() {
		details["date"] = "is required"
	}
	payerTaxID := trimOptional(input.PayerTaxID)
	if payerTaxID != nil && !brdoc.ValidCPF(*payerTaxID) {
		details["payer_tax_id"] = "invalid CPF"
	}
	payeeTaxID := trimOptional(input.PayeeTaxID)
	if payeeTaxID != nil && !brdoc.ValidCPF(*payeeTaxID) {
		details["payee_tax_id"] = "invalid CPF"
	}

	if len(details) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid receipt").WithDetails(details)
	}
	return &models.Receipt{
		Number:      strings.TrimSpace(input.Number),
		Amount:      input.Amount.Round(2),
		PayerName:   payer,
		PayerTaxID:  payerTaxID,
		PayeeName:   payee,
		PayeeTaxID:  payeeTaxID,
		Description: description,
		Date:        input.Date,
		Notes:       trimOptional(input.Notes),
	}, nil
}

func mapWriteError(err error, action string) error {
	if err == nil {
		return nil
	}
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "receipt number already exists")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, action)
}

type noopRecorder struct{}

func (noopRecorder) IncCreated(string) {}

func asTyped(err error, action string) error {
	if err == nil || pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, action)
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
