package invoice

import (
	"context"
	"errors"
	"fmt"
	"pharmaSupply/domain"
	"pharmaSupply/pkg/logger"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type InvoiceRepository interface {
	Create(ctx context.Context, inv *domain.Invoice) error
	Count(ctx context.Context) (int64, error)
	FindByID(ctx context.Context, id string) (domain.Invoice, error)
	FindByOrderID(ctx context.Context, orderID string) (domain.Invoice, error)
	FindAll(ctx context.Context, filter domain.InvoiceFilter) ([]domain.Invoice, int64, error)
	UpdateStatus(ctx context.Context, id string, status domain.InvoiceStatus, paidAt *time.Time) error
}

type OrderReader interface {
	GetOrder(ctx context.Context, id string) (domain.Order, error)
}

type invoiceService struct {
	invoiceRepo InvoiceRepository
	orderRepo   OrderReader
	validate    *validator.Validate
	now         func() time.Time
}

func NewInvoiceService(invoiceRepo InvoiceRepository, orderRepo OrderReader, validate *validator.Validate) *invoiceService {
	return &invoiceService{
		invoiceRepo: invoiceRepo,
		orderRepo:   orderRepo,
		validate:    validate,
		now:         time.Now,
	}
}

const (
	defaultInvoiceLimit = 10
	maxInvoiceLimit     = 100

	// numberAttempts bounds renumbering when a concurrent create took the number.
	numberAttempts = 3
)

// CreateInvoice numbers the invoice INV-NNN after the current count and
// computes totalAmount = amount + tax - discount. invoice_id is unique, so a
// number taken by a concurrent create is recounted and retried.
func (s *invoiceService) CreateInvoice(ctx context.Context, in domain.InvoiceInput) (domain.Invoice, error) {
	if strings.TrimSpace(in.CustomerName) == "" {
		return domain.Invoice{}, domain.NewValidation("customer name is required")
	}
	if err := s.validate.Var(in.CustomerEmail, "required,email"); err != nil {
		return domain.Invoice{}, domain.NewValidation("invalid email format")
	}
	if in.Amount.IsNegative() || in.Tax.IsNegative() || in.Discount.IsNegative() {
		return domain.Invoice{}, domain.NewValidation("amounts must not be negative")
	}
	if in.DueDate.IsZero() {
		return domain.Invoice{}, domain.NewValidation("due date is required")
	}

	if _, err := s.orderRepo.GetOrder(ctx, in.OrderID); err != nil {
		return domain.Invoice{}, err
	}

	for attempt := 1; ; attempt++ {
		count, err := s.invoiceRepo.Count(ctx)
		if err != nil {
			logger.Error("Failed to count invoices", "error", err)
			return domain.Invoice{}, err
		}

		inv := domain.Invoice{
			InvoiceID:      fmt.Sprintf("INV-%03d", count+1),
			OrderID:        in.OrderID,
			CustomerName:   in.CustomerName,
			CustomerEmail:  in.CustomerEmail,
			BillingAddress: in.BillingAddress,
			Amount:         in.Amount,
			Tax:            in.Tax,
			Discount:       in.Discount,
			TotalAmount:    in.Amount.Add(in.Tax).Sub(in.Discount),
			Status:         domain.InvoicePending,
			DueDate:        in.DueDate,
		}
		err = s.invoiceRepo.Create(ctx, &inv)
		if err == nil {
			return inv, nil
		}
		if !errors.Is(err, domain.ErrConflict) || attempt == numberAttempts {
			logger.Error("Failed to create invoice", "order_id", in.OrderID, "error", err)
			return domain.Invoice{}, err
		}
		logger.Warn("Invoice number taken, renumbering", "invoice_id", inv.InvoiceID, "attempt", attempt)
	}
}

func (s *invoiceService) ListInvoices(ctx context.Context, filter domain.InvoiceFilter) ([]domain.Invoice, domain.Pagination, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.Pagination{}, domain.NewValidation("invalid invoice status: %s", filter.Status)
	}
	filter.Page = domain.NormalizePage(filter.Page.Page, filter.Page.Limit, defaultInvoiceLimit, maxInvoiceLimit)

	items, total, err := s.invoiceRepo.FindAll(ctx, filter)
	if err != nil {
		logger.Error("Failed to list invoices", "error", err)
		return nil, domain.Pagination{}, err
	}
	return items, domain.NewPagination(filter.Page.Page, filter.Page.Limit, total), nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, id, userID string, role domain.Role) (domain.Invoice, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return domain.Invoice{}, err
	}
	if err := authorize(inv, userID, role); err != nil {
		return domain.Invoice{}, err
	}
	return inv, nil
}

func (s *invoiceService) GetInvoiceByOrder(ctx context.Context, orderID, userID string, role domain.Role) (domain.Invoice, error) {
	inv, err := s.invoiceRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		return domain.Invoice{}, err
	}
	if err := authorize(inv, userID, role); err != nil {
		return domain.Invoice{}, err
	}
	return inv, nil
}

// UpdateStatus stamps paidAt when the invoice becomes PAID.
func (s *invoiceService) UpdateStatus(ctx context.Context, id string, status domain.InvoiceStatus) (domain.Invoice, error) {
	if !status.Valid() {
		return domain.Invoice{}, domain.NewValidation("invalid invoice status: %s", status)
	}

	var paidAt *time.Time
	if status == domain.InvoicePaid {
		t := s.now().UTC()
		paidAt = &t
	}

	if err := s.invoiceRepo.UpdateStatus(ctx, id, status, paidAt); err != nil {
		logger.Error("Failed to update invoice status", "invoice_id", id, "error", err)
		return domain.Invoice{}, err
	}
	return s.invoiceRepo.FindByID(ctx, id)
}

func authorize(inv domain.Invoice, userID string, role domain.Role) error {
	if role == domain.RoleAdmin {
		return nil
	}
	if inv.Order == nil || inv.Order.UserID != userID {
		return domain.NewForbidden("You can only view invoices for your own orders")
	}
	return nil
}
