package entity

import (
	"time"
)

// Review is left by one user about another, usually after an order.
type Review struct {
	ID         string    `json:"id" firestore:"id"`
	ReviewerID string    `json:"reviewerId" firestore:"reviewerId"`
	RevieweeID string    `json:"revieweeId" firestore:"revieweeId"`
	ListingID  string    `json:"listingId,omitempty" firestore:"listingId,omitempty"`
	OrderID    string    `json:"orderId,omitempty" firestore:"orderId,omitempty"`
	Rating     int       `json:"rating" firestore:"rating"` // 1-5
	Comment    string    `json:"comment" firestore:"comment"`
	CreatedAt  time.Time `json:"createdAt" firestore:"createdAt"`
}
