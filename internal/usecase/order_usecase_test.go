package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	ws "foodshare/internal/infrastructure/websocket"
	"foodshare/pkg/errors"
)

type orderFixture struct {
	s       stores
	pub     *recordingPublisher
	notes   *NotificationUseCase
	uc      *OrderUseCase
	donor   *entity.User
	buyer   *entity.User
	listing *entity.FoodListing
}

func newOrderFixture(t *testing.T) *orderFixture {
	s := newStores()
	pub := &recordingPublisher{}
	notes := NewNotificationUseCase(s.notifications, pub, nil, 50)
	f := &orderFixture{
		s:     s,
		pub:   pub,
		notes: notes,
		uc:    NewOrderUseCase(s.orders, s.listings, s.users, notes, pub),
		donor: seedUser(t, s.users, "donor", "Dana"),
		buyer: seedUser(t, s.users, "buyer", "Ben"),
	}
	f.listing = &entity.FoodListing{
		Title:     "Soup",
		Type:      entity.ListingSale,
		Price:     2.5,
		Quantity:  4,
		DonorID:   "donor",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, s.listings.Create(context.Background(), f.listing))
	return f
}

func TestCreateOrderReservesAndNotifiesDonor(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order, err := f.uc.Create(ctx, f.buyer, CreateOrderInput{ListingID: f.listing.ID, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, entity.OrderPending, order.Status)
	assert.Equal(t, "donor", order.DonorID)
	assert.InDelta(t, 5.0, order.TotalPrice, 0.001)

	listing, err := f.s.listings.GetByID(ctx, f.listing.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ListingReserved, listing.Status)
	assert.Equal(t, 1, listing.OrderCount)

	list, err := f.notes.List(ctx, "donor")
	require.NoError(t, err)
	require.Len(t, list.Notifications, 1)
	assert.Equal(t, entity.NotificationNewOrder, list.Notifications[0].Type)
	assert.Equal(t, "New Pickup Request!", list.Notifications[0].Title)

	assert.Len(t, f.pub.byEvent(ws.EventListingUpdate), 1)

	// a reserved listing cannot be ordered again
	_, err = f.uc.Create(ctx, f.buyer, CreateOrderInput{ListingID: f.listing.ID, Quantity: 1})
	assert.True(t, errors.Is(err, errors.CodeBadRequest))
}

func TestCreateOrderErrors(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	_, err := f.uc.Create(ctx, f.donor, CreateOrderInput{ListingID: f.listing.ID, Quantity: 1})
	assert.True(t, errors.Is(err, errors.CodeBadRequest))

	_, err = f.uc.Create(ctx, f.buyer, CreateOrderInput{ListingID: "missing", Quantity: 1})
	assert.True(t, errors.Is(err, errors.CodeNotFound))

	_, err = f.uc.Create(ctx, f.buyer, CreateOrderInput{ListingID: f.listing.ID, Quantity: 0})
	assert.True(t, errors.Is(err, errors.CodeValidation))

	_, err = f.uc.Create(ctx, f.buyer, CreateOrderInput{ListingID: f.listing.ID, Quantity: 10})
	assert.True(t, errors.Is(err, errors.CodeBadRequest))
}

func TestCompleteOrder(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order, err := f.uc.Create(ctx, f.buyer, CreateOrderInput{ListingID: f.listing.ID, Quantity: 3})
	require.NoError(t, err)

	updated, err := f.uc.UpdateStatus(ctx, f.donor, order.ID, entity.OrderCompleted)
	require.NoError(t, err)
	assert.NotNil(t, updated.CompletedAt)

	listing, err := f.s.listings.GetByID(ctx, f.listing.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ListingCompleted, listing.Status)

	donor, err := f.s.users.GetByID(ctx, "donor")
	require.NoError(t, err)
	assert.Equal(t, 3, donor.TotalMealsSaved)

	pushed := f.pub.byEvent(ws.EventOrderUpdate)
	require.Len(t, pushed, 1)
	assert.Equal(t, ws.InboxRoom("buyer"), pushed[0].Room)
	assert.Equal(t, OrderUpdateEvent{OrderID: order.ID, ListingID: f.listing.ID, Status: entity.OrderCompleted}, pushed[0].Payload)

	list, err := f.notes.List(ctx, "buyer")
	require.NoError(t, err)
	require.Len(t, list.Notifications, 1)
	assert.Equal(t, entity.NotificationOrderUpdate, list.Notifications[0].Type)

	_, err = f.uc.UpdateStatus(ctx, f.donor, order.ID, entity.OrderCancelled)
	assert.True(t, errors.Is(err, errors.CodeBadRequest))
}

func TestCancelOrderReleasesListing(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order, err := f.uc.Create(ctx, f.buyer, CreateOrderInput{ListingID: f.listing.ID, Quantity: 1})
	require.NoError(t, err)

	_, err = f.uc.UpdateStatus(ctx, f.buyer, order.ID, entity.OrderCancelled)
	require.NoError(t, err)

	listing, err := f.s.listings.GetByID(ctx, f.listing.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ListingAvailable, listing.Status)

	// the donor is the other party this time
	assert.Equal(t, ws.InboxRoom("donor"), f.pub.byEvent(ws.EventOrderUpdate)[0].Room)
}

// slowOrderReads delays plain reads so racing status updates overlap.
type slowOrderReads struct {
	repository.OrderRepository
}

func (r slowOrderReads) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	time.Sleep(5 * time.Millisecond)
	return r.OrderRepository.GetByID(ctx, id)
}

func TestRacingFinalStatusesApplyOnce(t *testing.T) {
	f := newOrderFixture(t)
	f.uc.orderRepo = slowOrderReads{f.s.orders}
	ctx := context.Background()

	order, err := f.uc.Create(ctx, f.buyer, CreateOrderInput{ListingID: f.listing.ID, Quantity: 2})
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		errs [2]error
	)
	updates := []struct {
		actor  *entity.User
		status string
	}{
		{f.donor, entity.OrderCompleted},
		{f.buyer, entity.OrderCancelled},
	}
	for i, u := range updates {
		wg.Add(1)
		go func(i int, actor *entity.User, status string) {
			defer wg.Done()
			_, errs[i] = f.uc.UpdateStatus(ctx, actor, order.ID, status)
		}(i, u.actor, u.status)
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			assert.True(t, errors.Is(err, errors.CodeBadRequest))
			failed++
		}
	}
	require.Equal(t, 1, failed)

	stored, err := f.s.orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	listing, err := f.s.listings.GetByID(ctx, f.listing.ID)
	require.NoError(t, err)
	donor, err := f.s.users.GetByID(ctx, "donor")
	require.NoError(t, err)

	switch stored.Status {
	case entity.OrderCompleted:
		assert.Equal(t, entity.ListingCompleted, listing.Status)
		assert.Equal(t, 2, donor.TotalMealsSaved)
	case entity.OrderCancelled:
		assert.Equal(t, entity.ListingAvailable, listing.Status)
		assert.Zero(t, donor.TotalMealsSaved)
	default:
		t.Fatalf("unexpected order status %q", stored.Status)
	}
	assert.Len(t, f.pub.byEvent(ws.EventOrderUpdate), 1)
}

func TestUpdateStatusAuthorization(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	stranger := seedUser(t, f.s.users, "stranger", "Sam")
	admin := &entity.User{ID: "admin", Role: entity.RoleAdmin}

	order, err := f.uc.Create(ctx, f.buyer, CreateOrderInput{ListingID: f.listing.ID, Quantity: 1})
	require.NoError(t, err)

	_, err = f.uc.UpdateStatus(ctx, stranger, order.ID, entity.OrderAccepted)
	assert.True(t, errors.Is(err, errors.CodeForbidden))

	_, err = f.uc.UpdateStatus(ctx, f.donor, order.ID, "shipped")
	assert.True(t, errors.Is(err, errors.CodeValidation))

	_, err = f.uc.UpdateStatus(ctx, f.donor, "missing", entity.OrderAccepted)
	assert.True(t, errors.Is(err, errors.CodeNotFound))

	_, err = f.uc.UpdateStatus(ctx, admin, order.ID, entity.OrderAccepted)
	require.NoError(t, err)
	assert.Len(t, f.pub.byEvent(ws.EventOrderUpdate), 2)
}

func TestListMine(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	_, err := f.uc.Create(ctx, f.buyer, CreateOrderInput{ListingID: f.listing.ID, Quantity: 1})
	require.NoError(t, err)

	asDonor, err := f.uc.ListMine(ctx, "donor", entity.RoleDonor)
	require.NoError(t, err)
	assert.Len(t, asDonor, 1)

	asBuyer, err := f.uc.ListMine(ctx, "donor", entity.RoleBuyer)
	require.NoError(t, err)
	assert.Empty(t, asBuyer)
}
