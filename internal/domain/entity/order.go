package entity

import "time"

const (
	OrderPending   = "pending"
	OrderAccepted  = "accepted"
	OrderPickedUp  = "picked_up"
	OrderCompleted = "completed"
	OrderCancelled = "cancelled"
)

type Order struct {
	ID          string     `json:"id" firestore:"id"`
	ListingID   string     `json:"listingId" firestore:"listingId"`
	BuyerID     string     `json:"buyerId" firestore:"buyerId"`
	DonorID     string     `json:"donorId" firestore:"donorId"`
	Status      string     `json:"status" firestore:"status"`
	Quantity    int        `json:"quantity" firestore:"quantity"`
	PickupTime  *time.Time `json:"pickupTime,omitempty" firestore:"pickupTime,omitempty"`
	Notes       string     `json:"notes" firestore:"notes"`
	TotalPrice  float64    `json:"totalPrice" firestore:"totalPrice"`
	CompletedAt *time.Time `json:"completedAt,omitempty" firestore:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt" firestore:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt" firestore:"updatedAt"`
}

// IsFinal reports whether the order can no longer change status.
func (o *Order) IsFinal() bool {
	return o.Status == OrderCompleted || o.Status == OrderCancelled
}

func (o *Order) HasParticipant(userID string) bool {
	return o.BuyerID == userID || o.DonorID == userID
}

// Counterpart returns the other side of the order relative to userID.
func (o *Order) Counterpart(userID string) string {
	if o.DonorID == userID {
		return o.BuyerID
	}
	return o.DonorID
}
