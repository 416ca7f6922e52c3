package domain

import "time"

// Command is a single /play request from a conversation.
// It is created by the gateway and consumed once by the pipeline.
type Command struct {
	Channel   string
	ChatID    string
	SenderID  string
	Query     string
	Timestamp time.Time
}
