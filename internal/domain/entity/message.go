package entity

import "time"

// Message is immutable once appended, except for Read which only moves false -> true.
type Message struct {
	ID        string    `json:"id" firestore:"id"`
	SenderID  string    `json:"senderId" firestore:"senderId"`
	Text      string    `json:"text" firestore:"text"`
	Read      bool      `json:"read" firestore:"read"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
}
