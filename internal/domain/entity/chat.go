package entity

import "time"

// Chat is a conversation between exactly two participants, optionally about a listing.
// Version increases by one on every persisted mutation.
type Chat struct {
	ID            string    `json:"id" firestore:"id"`
	Participants  []string  `json:"participants" firestore:"participants"`
	ListingID     string    `json:"listingId,omitempty" firestore:"listingId,omitempty"`
	Messages      []Message `json:"messages" firestore:"messages"`
	LastMessage   string    `json:"lastMessage" firestore:"lastMessage"`
	LastMessageAt time.Time `json:"lastMessageAt" firestore:"lastMessageAt"`
	Version       int64     `json:"version" firestore:"version"`
	CreatedAt     time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// ChatKey is the id of the conversation between a and b about listingID.
// Participant order does not matter, so both sides derive the same key.
func ChatKey(a, b, listingID string) string {
	if b < a {
		a, b = b, a
	}
	key := a + "_" + b
	if listingID != "" {
		key += "_" + listingID
	}
	return key
}

func (c *Chat) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the participant that is not userID, or "".
func (c *Chat) OtherParticipant(userID string) string {
	for _, p := range c.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}

// Append adds msg to the end of the sequence and refreshes the preview.
func (c *Chat) Append(msg Message) {
	c.Messages = append(c.Messages, msg)
	c.LastMessage = msg.Text
	c.LastMessageAt = msg.CreatedAt
}

func (c *Chat) UnreadFor(userID string) int {
	n := 0
	for _, m := range c.Messages {
		if m.SenderID != userID && !m.Read {
			n++
		}
	}
	return n
}

// MarkReadFor flips the read flag of every message userID did not send.
func (c *Chat) MarkReadFor(userID string) int {
	n := 0
	for i := range c.Messages {
		if c.Messages[i].SenderID != userID && !c.Messages[i].Read {
			c.Messages[i].Read = true
			n++
		}
	}
	return n
}

// Clone returns a copy that shares no slices with c.
func (c *Chat) Clone() *Chat {
	cp := *c
	cp.Participants = append([]string(nil), c.Participants...)
	cp.Messages = append([]Message(nil), c.Messages...)
	return &cp
}
