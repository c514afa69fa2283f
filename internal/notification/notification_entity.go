package notification

import (
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`

	Type    string `gorm:"type:varchar(40);not null"`
	Message string `gorm:"type:text;not null"`

	// Nil means broadcast to everyone.
	EmployeeID *string `gorm:"type:varchar(50);index:idx_notifications_employee"`

	Read bool `gorm:"not null;default:false"`

	CreatedAt time.Time
}
