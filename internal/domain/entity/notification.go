package entity

import "time"

const (
	NotificationNewOrder      = "new_order"
	NotificationOrderUpdate   = "order_update"
	NotificationChat          = "chat"
	NotificationListingNearby = "listing_nearby"
	NotificationReview        = "review"
	NotificationSystem        = "system"
)

type Notification struct {
	ID        string    `json:"id" firestore:"id"`
	UserID    string    `json:"userId" firestore:"userId"`
	Type      string    `json:"type" firestore:"type"`
	Title     string    `json:"title" firestore:"title"`
	Message   string    `json:"message" firestore:"message"`
	Read      bool      `json:"read" firestore:"read"`
	Link      string    `json:"link" firestore:"link"`
	RelatedID string    `json:"relatedId,omitempty" firestore:"relatedId,omitempty"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
}

func ValidNotificationType(kind string) bool {
	switch kind {
	case NotificationNewOrder, NotificationOrderUpdate, NotificationChat,
		NotificationListingNearby, NotificationReview, NotificationSystem:
		return true
	}
	return false
}
