package rest

import (
	"context"
	"net/http"
	"pharmaSupply/domain"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type InvoiceService interface {
	CreateInvoice(ctx context.Context, in domain.InvoiceInput) (domain.Invoice, error)
	ListInvoices(ctx context.Context, filter domain.InvoiceFilter) ([]domain.Invoice, domain.Pagination, error)
	GetInvoice(ctx context.Context, id, userID string, role domain.Role) (domain.Invoice, error)
	GetInvoiceByOrder(ctx context.Context, orderID, userID string, role domain.Role) (domain.Invoice, error)
	UpdateStatus(ctx context.Context, id string, status domain.InvoiceStatus) (domain.Invoice, error)
}

type InvoiceHandler struct {
	invoiceService InvoiceService
	validator      *validator.Validate
	timeout        time.Duration
}

func NewInvoiceHandler(invoiceService InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		validator:      validator.New(),
		timeout:        defaultTimeout,
	}
}

type CreateInvoiceRequest struct {
	OrderID        string          `json:"order_id" validate:"required,uuid"`
	CustomerName   string          `json:"customer_name" validate:"required"`
	CustomerEmail  string          `json:"customer_email" validate:"required,email"`
	BillingAddress string          `json:"billing_address"`
	Amount         decimal.Decimal `json:"amount"`
	Tax            decimal.Decimal `json:"tax"`
	Discount       decimal.Decimal `json:"discount"`
	DueDate        time.Time       `json:"due_date" validate:"required"`
}

type UpdateInvoiceStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING PAID OVERDUE CANCELLED"`
}

func (h *InvoiceHandler) GetAllInvoices(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	invoices, page, err := h.invoiceService.ListInvoices(ctx, domain.InvoiceFilter{
		Status: domain.InvoiceStatus(c.QueryParam("status")),
		Page:   pageRequest(c),
	})
	if err != nil {
		return writeError(c, err, "Failed to list invoices")
	}

	return c.JSON(http.StatusOK, paginated("invoices", invoices, page))
}

func (h *InvoiceHandler) GetInvoiceByID(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	userID, role := caller(c)
	inv, err := h.invoiceService.GetInvoice(ctx, c.Param("id"), userID, role)
	if err != nil {
		return writeError(c, err, "Failed to get invoice")
	}

	return c.JSON(http.StatusOK, inv)
}

func (h *InvoiceHandler) GetInvoiceByOrder(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	userID, role := caller(c)
	inv, err := h.invoiceService.GetInvoiceByOrder(ctx, c.Param("orderId"), userID, role)
	if err != nil {
		return writeError(c, err, "Failed to get invoice by order")
	}

	return c.JSON(http.StatusOK, inv)
}

func (h *InvoiceHandler) CreateInvoice(c echo.Context) error {
	var req CreateInvoiceRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err, "Invalid request body")
	}
	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, err, "Failed to validate invoice")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	inv, err := h.invoiceService.CreateInvoice(ctx, domain.InvoiceInput{
		OrderID:        req.OrderID,
		CustomerName:   req.CustomerName,
		CustomerEmail:  req.CustomerEmail,
		BillingAddress: req.BillingAddress,
		Amount:         req.Amount,
		Tax:            req.Tax,
		Discount:       req.Discount,
		DueDate:        req.DueDate,
	})
	if err != nil {
		return writeError(c, err, "Failed to create invoice")
	}

	return c.JSON(http.StatusCreated, inv)
}

func (h *InvoiceHandler) UpdateStatus(c echo.Context) error {
	var req UpdateInvoiceStatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err, "Invalid request body")
	}
	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, err, "Failed to validate invoice status")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	inv, err := h.invoiceService.UpdateStatus(ctx, c.Param("id"), domain.InvoiceStatus(req.Status))
	if err != nil {
		return writeError(c, err, "Failed to update invoice status")
	}

	return c.JSON(http.StatusOK, inv)
}
