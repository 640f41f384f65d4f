package handler

import (
	"time"

	"github.com/labstack/echo/v4"

	"foodshare/internal/adapter/api/middleware"
	"foodshare/internal/usecase"
	"foodshare/pkg/response"
)

type OrderHandler struct {
	orderUseCase *usecase.OrderUseCase
}

func NewOrderHandler(orderUseCase *usecase.OrderUseCase) *OrderHandler {
	return &OrderHandler{
		orderUseCase: orderUseCase,
	}
}

type createOrderRequest struct {
	ListingID  string     `json:"listingId" validate:"required"`
	Quantity   int        `json:"quantity" validate:"required,min=1"`
	PickupTime *time.Time `json:"pickupTime"`
	Notes      string     `json:"notes" validate:"max=500"`
}

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending accepted picked_up completed cancelled"`
}

func (h *OrderHandler) CreateOrder(c echo.Context) error {
	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	order, err := h.orderUseCase.Create(c.Request().Context(), middleware.CurrentUser(c), usecase.CreateOrderInput{
		ListingID:  req.ListingID,
		Quantity:   req.Quantity,
		PickupTime: req.PickupTime,
		Notes:      req.Notes,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, order)
}

// GetMyOrders lists orders where the caller is the donor (?role=donor) or the buyer.
func (h *OrderHandler) GetMyOrders(c echo.Context) error {
	userID := c.Get(middleware.ContextUserID).(string)

	orders, err := h.orderUseCase.ListMine(c.Request().Context(), userID, c.QueryParam("role"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, orders)
}

func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	var req updateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	order, err := h.orderUseCase.UpdateStatus(c.Request().Context(), middleware.CurrentUser(c), c.Param("id"), req.Status)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, order)
}
