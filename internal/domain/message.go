package domain

import "errors"

const MaxMessageLen = 500

var (
	ErrMessageEmpty   = errors.New("message empty")
	ErrMessageTooLong = errors.New("message too long")
)

// Message is one chat entry. Seq is the session order position assigned on
// arrival at the coordinator; Time is the client clock, kept for display only
// and never used for ordering.
type Message struct {
	User string `json:"user"`
	Text string `json:"text"`
	Time string `json:"time"`
	Seq  int    `json:"seq"`
}

func NewMessage(user, text, sentAt string) (*Message, error) {
	if text == "" {
		return nil, ErrMessageEmpty
	}
	if len(text) > MaxMessageLen {
		return nil, ErrMessageTooLong
	}
	return &Message{User: user, Text: text, Time: sentAt}, nil
}
