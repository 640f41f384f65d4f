package usecase

import (
	"context"
	"fmt"
	"time"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	ws "foodshare/internal/infrastructure/websocket"
	"foodshare/pkg/errors"
	"foodshare/pkg/logger"
)

type OrderUseCase struct {
	orderRepo   repository.OrderRepository
	listingRepo repository.ListingRepository
	userRepo    repository.UserRepository
	notifier    Notifier
	publisher   Publisher
}

func NewOrderUseCase(
	orderRepo repository.OrderRepository,
	listingRepo repository.ListingRepository,
	userRepo repository.UserRepository,
	notifier Notifier,
	publisher Publisher,
) *OrderUseCase {
	return &OrderUseCase{
		orderRepo:   orderRepo,
		listingRepo: listingRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		publisher:   publisher,
	}
}

type CreateOrderInput struct {
	ListingID  string
	Quantity   int
	PickupTime *time.Time
	Notes      string
}

type OrderUpdateEvent struct {
	OrderID   string `json:"orderId"`
	ListingID string `json:"listingId"`
	Status    string `json:"status"`
}

func validOrderStatus(status string) bool {
	switch status {
	case entity.OrderPending, entity.OrderAccepted, entity.OrderPickedUp,
		entity.OrderCompleted, entity.OrderCancelled:
		return true
	}
	return false
}

// Create reserves the listing for buyer and notifies the donor.
func (uc *OrderUseCase) Create(ctx context.Context, buyer *entity.User, input CreateOrderInput) (*entity.Order, error) {
	if input.Quantity < 1 {
		return nil, errors.Validation("Quantity must be at least 1")
	}

	listing, err := uc.listingRepo.GetByID(ctx, input.ListingID)
	if err != nil {
		return nil, err
	}
	if listing.DonorID == buyer.ID {
		return nil, errors.BadRequest("You cannot order your own listing", nil)
	}
	if listing.Status != entity.ListingAvailable {
		return nil, errors.BadRequest("Listing is not available", nil)
	}
	if input.Quantity > listing.Quantity {
		return nil, errors.BadRequest("Requested quantity exceeds what is available", nil)
	}

	if err := uc.listingRepo.Reserve(ctx, listing.ID); err != nil {
		return nil, err
	}

	order := &entity.Order{
		ListingID:  listing.ID,
		BuyerID:    buyer.ID,
		DonorID:    listing.DonorID,
		Status:     entity.OrderPending,
		Quantity:   input.Quantity,
		PickupTime: input.PickupTime,
		Notes:      input.Notes,
	}
	if listing.Type == entity.ListingSale {
		order.TotalPrice = listing.Price * float64(input.Quantity)
	}
	if err := uc.orderRepo.Create(ctx, order); err != nil {
		if rerr := uc.listingRepo.UpdateStatus(ctx, listing.ID, entity.ListingAvailable); rerr != nil {
			logger.Error().Err(rerr).Str("listing", listing.ID).Msg("failed to release listing after order error")
		}
		return nil, err
	}

	_, err = uc.notifier.Notify(ctx, NotifyInput{
		RecipientID: listing.DonorID,
		Kind:        entity.NotificationNewOrder,
		Title:       "New Pickup Request!",
		Message:     fmt.Sprintf("%s wants to pick up \"%s\"", buyer.Name, listing.Title),
		Link:        "/orders",
		RelatedID:   order.ID,
	})
	if err != nil {
		logger.Error().Err(err).Str("order", order.ID).Msg("failed to notify donor")
	}

	uc.publisher.BroadcastAll(ws.EventListingUpdate, ListingUpdateEvent{ListingID: listing.ID, Status: entity.ListingReserved})

	return order, nil
}

// ListMine returns the caller's orders as donor when role is "donor", otherwise as buyer.
func (uc *OrderUseCase) ListMine(ctx context.Context, userID, role string) ([]*entity.Order, error) {
	var (
		orders []*entity.Order
		err    error
	)
	if role == entity.RoleDonor {
		orders, err = uc.orderRepo.ListByDonor(ctx, userID)
	} else {
		orders, err = uc.orderRepo.ListByBuyer(ctx, userID)
	}
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []*entity.Order{}
	}
	return orders, nil
}

// UpdateStatus moves the order to status and applies the listing side effects.
// The other party is notified and receives order-update on their inbox room.
func (uc *OrderUseCase) UpdateStatus(ctx context.Context, actor *entity.User, orderID, status string) (*entity.Order, error) {
	if !validOrderStatus(status) {
		return nil, errors.Validation("Invalid order status: " + status)
	}

	// the checks run inside the write so only one of two racing final
	// transitions commits and applies its side effects
	order, err := uc.orderRepo.Mutate(ctx, orderID, func(o *entity.Order) error {
		if !o.HasParticipant(actor.ID) && !actor.IsAdmin() {
			return errors.Forbidden("You are not part of this order", nil)
		}
		if o.IsFinal() {
			return errors.BadRequest("Order is already "+o.Status, nil)
		}

		o.Status = status
		if status == entity.OrderCompleted {
			now := time.Now()
			o.CompletedAt = &now
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	switch status {
	case entity.OrderCompleted:
		uc.setListingStatus(ctx, order.ListingID, entity.ListingCompleted)
		if err := uc.userRepo.IncrementStats(ctx, order.DonorID, 0, order.Quantity); err != nil {
			logger.Error().Err(err).Str("user", order.DonorID).Msg("failed to update meals saved")
		}
	case entity.OrderCancelled:
		uc.setListingStatus(ctx, order.ListingID, entity.ListingAvailable)
	}

	for _, recipient := range []string{order.BuyerID, order.DonorID} {
		if recipient == actor.ID {
			continue
		}

		_, err := uc.notifier.Notify(ctx, NotifyInput{
			RecipientID: recipient,
			Kind:        entity.NotificationOrderUpdate,
			Title:       "Order Updated",
			Message:     "Order status changed to " + status,
			Link:        "/orders",
			RelatedID:   order.ID,
		})
		if err != nil {
			logger.Error().Err(err).Str("order", order.ID).Msg("failed to notify order party")
		}

		uc.publisher.BroadcastToRoom(ws.InboxRoom(recipient), ws.EventOrderUpdate, OrderUpdateEvent{
			OrderID:   order.ID,
			ListingID: order.ListingID,
			Status:    status,
		})
	}

	return order, nil
}

func (uc *OrderUseCase) setListingStatus(ctx context.Context, listingID, status string) {
	if err := uc.listingRepo.UpdateStatus(ctx, listingID, status); err != nil {
		logger.Error().Err(err).Str("listing", listingID).Str("status", status).Msg("failed to update listing status")
		return
	}
	uc.publisher.BroadcastAll(ws.EventListingUpdate, ListingUpdateEvent{ListingID: listingID, Status: status})
}
