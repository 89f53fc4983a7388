// Package delivery moves password reset codes out of the process to whatever
// notifies the account owner (mailer, chat bot, development log).
package delivery

import (
	"context"
	"encoding/json"
	"time"
)

// ResetCodeMessage is the payload handed to a Sender.
type ResetCodeMessage struct {
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
	IssuedAt  time.Time `json:"issuedAt"`
}

// Sender delivers one reset code.
type Sender interface {
	Send(ctx context.Context, msg ResetCodeMessage) error
	Name() string
}

func encode(msg ResetCodeMessage) ([]byte, error) {
	return json.Marshal(msg)
}
