package leave

import (
	"time"

	"github.com/google/uuid"
)

type Leave struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID string    `gorm:"type:varchar(50);not null;index:idx_leaves_employee_dates"`

	LeaveType string    `gorm:"type:varchar(5);not null"`
	StartDate time.Time `gorm:"type:date;not null;index:idx_leaves_employee_dates"`
	EndDate   time.Time `gorm:"type:date;not null;index:idx_leaves_employee_dates"`
	TotalDays int       `gorm:"type:int;not null;default:1"`
	Reason    string    `gorm:"type:text"`

	Status      string     `gorm:"type:varchar(20);not null;default:'PENDING';index:idx_leaves_status"`
	ApprovedBy  *string    `gorm:"type:varchar(50)"`
	ApprovedAt  *time.Time
	DocumentRef *string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
