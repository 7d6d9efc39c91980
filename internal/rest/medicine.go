package rest

import (
	"context"
	"net/http"
	"pharmaSupply/domain"
	"time"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type MedicineService interface {
	ListMedicines(ctx context.Context, filter domain.MedicineFilter) ([]domain.Medicine, domain.Pagination, error)
	GetMedicine(ctx context.Context, id string) (domain.Medicine, error)
	Categories(ctx context.Context) ([]string, error)
	CreateMedicine(ctx context.Context, in domain.MedicineInput) (domain.Medicine, error)
	UpdateMedicine(ctx context.Context, id string, in domain.MedicineInput) (domain.Medicine, error)
	DeleteMedicine(ctx context.Context, id string) error
}

type MedicineHandler struct {
	medicineService MedicineService
	validator       *validator.Validate
	timeout         time.Duration
}

func NewMedicineHandler(medicineService MedicineService) *MedicineHandler {
	return &MedicineHandler{
		medicineService: medicineService,
		validator:       validator.New(),
		timeout:         defaultTimeout,
	}
}

type CreateMedicineRequest struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    *int            `json:"quantity" validate:"required,gte=0"`
	Category    string          `json:"category"`
}

// UpdateMedicineRequest leaves absent fields unchanged.
type UpdateMedicineRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=1"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Quantity    *int             `json:"quantity" validate:"omitempty,gte=0"`
	Category    *string          `json:"category"`
}

func (h *MedicineHandler) GetAllMedicines(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	medicines, page, err := h.medicineService.ListMedicines(ctx, domain.MedicineFilter{
		Search:    c.QueryParam("search"),
		Category:  c.QueryParam("category"),
		Page:      pageRequest(c),
		SortBy:    c.QueryParam("sortBy"),
		SortOrder: domain.ParseSortOrder(c.QueryParam("sortOrder"), ""),
	})
	if err != nil {
		return writeError(c, err, "Failed to find all medicines")
	}

	return c.JSON(http.StatusOK, paginated("medicines", medicines, page))
}

func (h *MedicineHandler) GetCategories(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	categories, err := h.medicineService.Categories(ctx)
	if err != nil {
		return writeError(c, err, "Failed to find medicine categories")
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(categories))
}

func (h *MedicineHandler) GetMedicineByID(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	medicine, err := h.medicineService.GetMedicine(ctx, c.Param("id"))
	if err != nil {
		return writeError(c, err, "Failed to get medicine by id")
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(medicine))
}

func (h *MedicineHandler) CreateMedicine(c echo.Context) error {
	var req CreateMedicineRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err, "Invalid request body")
	}
	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, err, "Failed to validate create medicine request")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	medicine, err := h.medicineService.CreateMedicine(ctx, domain.MedicineInput{
		Name:        &req.Name,
		Description: &req.Description,
		Price:       &req.Price,
		Quantity:    req.Quantity,
		Category:    &req.Category,
	})
	if err != nil {
		return writeError(c, err, "Failed to create medicine")
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(medicine))
}

func (h *MedicineHandler) UpdateMedicine(c echo.Context) error {
	var req UpdateMedicineRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err, "Invalid request body")
	}
	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, err, "Failed to validate update medicine request")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	medicine, err := h.medicineService.UpdateMedicine(ctx, c.Param("id"), domain.MedicineInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Quantity:    req.Quantity,
		Category:    req.Category,
	})
	if err != nil {
		return writeError(c, err, "Failed to update medicine")
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(medicine))
}

func (h *MedicineHandler) DeleteMedicine(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.medicineService.DeleteMedicine(ctx, c.Param("id")); err != nil {
		return writeError(c, err, "Failed to delete medicine")
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK("Medicine deleted successfully"))
}
