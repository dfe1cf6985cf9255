package message

import "time"

// Message is immutable once stored. FromUserID is empty for anonymous
// messages and then never persisted.
type Message struct {
	ID          string    `bson:"_id,omitempty" json:"id"`
	FromUserID  string    `bson:"fromUserId,omitempty" json:"fromUserId,omitempty"`
	ToUserID    string    `bson:"toUserId" json:"toUserId"`
	IsAnonymous bool      `bson:"isAnonymous" json:"isAnonymous"`
	MessageBody string    `bson:"messageBody" json:"messageBody"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}
