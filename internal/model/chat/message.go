package chat

import (
	"time"

	"github.com/campuscare/support-chat/backend/internal/analysis/emotion"
)

// Message is one completed exchange: the user's text and the generated reply.
type Message struct {
	ID        string        `json:"id" dynamodbav:"id"`
	UserID    string        `json:"userId" dynamodbav:"userId"`
	Message   string        `json:"message" dynamodbav:"message"`
	Reply     string        `json:"reply" dynamodbav:"reply"`
	Emotion   emotion.Label `json:"emotion" dynamodbav:"emotion"`
	Timestamp time.Time     `json:"timestamp" dynamodbav:"timestamp"`
}

// FlaggedMessage is a message that tripped the safety filter, kept for manual review.
type FlaggedMessage struct {
	ID        string    `json:"id" dynamodbav:"id"`
	UserID    string    `json:"userId" dynamodbav:"userId"`
	Message   string    `json:"message" dynamodbav:"message"`
	Timestamp time.Time `json:"timestamp" dynamodbav:"timestamp"`
	Reason    string    `json:"reason" dynamodbav:"reason"`
}
