package employee

import (
	"time"

	"go-leave/internal/domain"
)

type Employee struct {
	EmployeeID string `gorm:"type:varchar(50);primaryKey"`

	FullName   string    `gorm:"type:varchar(150);not null"`
	Email      string    `gorm:"type:varchar(150);not null;uniqueIndex:uq_employees_email"`
	Department string    `gorm:"type:varchar(100)"`
	Position   string    `gorm:"type:varchar(100)"`
	HireDate   time.Time `gorm:"type:date"`

	// Remaining days per leave type. Invariant after normalization:
	// each value is within [0, domain.BalanceCaps[type]].
	CasualBalance     int `gorm:"type:int;not null;default:30"`
	RestrictedBalance int `gorm:"type:int;not null;default:15"`
	EarnedBalance     int `gorm:"type:int;not null;default:18"`

	IsAdmin bool `gorm:"not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// BalanceFor returns the remaining days for a leave type.
func (e *Employee) BalanceFor(leaveType string) int {
	switch leaveType {
	case domain.LeaveTypeCasual:
		return e.CasualBalance
	case domain.LeaveTypeRestricted:
		return e.RestrictedBalance
	case domain.LeaveTypeEarned:
		return e.EarnedBalance
	default:
		return 0
	}
}

// SetBalanceFor overwrites the remaining days for a leave type.
func (e *Employee) SetBalanceFor(leaveType string, days int) {
	switch leaveType {
	case domain.LeaveTypeCasual:
		e.CasualBalance = days
	case domain.LeaveTypeRestricted:
		e.RestrictedBalance = days
	case domain.LeaveTypeEarned:
		e.EarnedBalance = days
	}
}
