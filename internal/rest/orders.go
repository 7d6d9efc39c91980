package rest

import (
	"context"
	"net/http"
	"pharmaSupply/domain"
	"time"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	OrdersHandler struct {
		validate      *validator.Validate
		ordersService OrdersService
		timeout       time.Duration
	}

	OrdersService interface {
		PlaceOrder(ctx context.Context, userID string, lines []domain.OrderLine) (domain.Order, error)
		GetOrder(ctx context.Context, id, userID string, role domain.Role) (domain.Order, error)
		ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, domain.Pagination, error)
		ListUserOrders(ctx context.Context, userID string, status domain.OrderStatus, page domain.PageRequest) ([]domain.Order, domain.Pagination, error)
		ListPastOrders(ctx context.Context, page domain.PageRequest) ([]domain.Order, domain.Pagination, error)
		UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (domain.Order, error)
		Stats(ctx context.Context, userID string, role domain.Role) (domain.OrderStats, error)
	}

	PlaceOrderInput struct {
		Items []domain.OrderLine `json:"items" validate:"required,min=1,dive"`
	}

	UpdateStatusInput struct {
		Status string `json:"status" validate:"required"`
	}
)

func NewOrdersHandler(ordersService OrdersService) *OrdersHandler {
	return &OrdersHandler{
		validate:      validator.New(),
		ordersService: ordersService,
		timeout:       defaultTimeout,
	}
}

func (h *OrdersHandler) PlaceOrder(c echo.Context) error {
	var request PlaceOrderInput
	if err := c.Bind(&request); err != nil {
		return badRequest(c, err, "Invalid request body")
	}
	if err := h.validate.Struct(&request); err != nil {
		return badRequest(c, err, "Failed to validate order items")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	userID, _ := caller(c)
	order, err := h.ordersService.PlaceOrder(ctx, userID, request.Items)
	if err != nil {
		return writeError(c, err, "Failed to place order")
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(order))
}

// GetMyOrders lists the caller's orders, optionally by status.
func (h *OrdersHandler) GetMyOrders(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	userID, _ := caller(c)
	orders, page, err := h.ordersService.ListUserOrders(ctx, userID, domain.OrderStatus(c.QueryParam("status")), pageRequest(c))
	if err != nil {
		return writeError(c, err, "Failed to get user orders")
	}

	return c.JSON(http.StatusOK, paginated("orders", orders, page))
}

func (h *OrdersHandler) GetAllOrders(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	var statuses []domain.OrderStatus
	for _, s := range splitQuery(c, "status") {
		statuses = append(statuses, domain.OrderStatus(s))
	}

	userID, err := queryID(c, "userId")
	if err != nil {
		return writeError(c, err, "Invalid order filter")
	}

	orders, page, err := h.ordersService.ListOrders(ctx, domain.OrderFilter{
		UserID:   userID,
		Statuses: statuses,
		Page:     pageRequest(c),
	})
	if err != nil {
		return writeError(c, err, "Failed to get all orders")
	}

	return c.JSON(http.StatusOK, paginated("orders", orders, page))
}

func (h *OrdersHandler) GetPastOrders(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	orders, page, err := h.ordersService.ListPastOrders(ctx, pageRequest(c))
	if err != nil {
		return writeError(c, err, "Failed to get past orders")
	}

	return c.JSON(http.StatusOK, paginated("orders", orders, page))
}

func (h *OrdersHandler) GetOrderByID(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	userID, role := caller(c)
	order, err := h.ordersService.GetOrder(ctx, c.Param("id"), userID, role)
	if err != nil {
		return writeError(c, err, "Failed to get order by id")
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(order))
}

func (h *OrdersHandler) UpdateStatus(c echo.Context) error {
	var request UpdateStatusInput
	if err := c.Bind(&request); err != nil {
		return badRequest(c, err, "Invalid request body")
	}
	if err := h.validate.Struct(&request); err != nil {
		return badRequest(c, err, "Failed to validate order status")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	order, err := h.ordersService.UpdateStatus(ctx, c.Param("id"), domain.OrderStatus(request.Status))
	if err != nil {
		return writeError(c, err, "Failed to update order status")
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(order))
}

func (h *OrdersHandler) GetStats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	userID, role := caller(c)
	stats, err := h.ordersService.Stats(ctx, userID, role)
	if err != nil {
		return writeError(c, err, "Failed to get order stats")
	}

	return c.JSON(http.StatusOK, stats)
}
