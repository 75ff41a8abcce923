package model

import (
	"time"
)

// User is keyed by the account id assigned by the Telegram transport.
// Users are created on first contact and never deleted; only the username
// is refreshed on subsequent contacts.
type User struct {
	TelegramID int64     `db:"telegram_id"`
	Username   string    `db:"username"`
	CreatedAt  time.Time `db:"created_at"`
}
