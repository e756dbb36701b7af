package model

import "time"

// User is a notification subscriber registered through the bot.
type User struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	TelegramID     int64      `gorm:"not null;uniqueIndex" json:"telegram_id"`
	Username       string     `json:"username"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	IsActive       bool       `gorm:"not null;default:true;index" json:"is_active"`
	StartedAt      time.Time  `gorm:"not null" json:"started_at"`
	LastNotifiedAt *time.Time `json:"last_notified_at"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "bot_users"
}
