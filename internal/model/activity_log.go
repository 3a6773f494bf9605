package model

import (
	"time"

	"github.com/google/uuid"
)

type ActivityAction string

const (
	ActivityLogin  ActivityAction = "login"
	ActivityLogout ActivityAction = "logout"
)

// UserActivityLog records login/logout events with the client address, for
// the admin audit screen.
type UserActivityLog struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action    ActivityAction `gorm:"type:varchar(10);not null" json:"action"`
	IPAddress string         `gorm:"type:varchar(45)" json:"ip_address"`
	UserAgent string         `gorm:"type:text" json:"user_agent"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}

func (UserActivityLog) TableName() string {
	return "user_activity_logs"
}
