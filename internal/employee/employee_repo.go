package employee

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, empl *Employee) error
	FindAll(ctx context.Context) ([]Employee, error)
	FindByCode(ctx context.Context, code string) (*Employee, error)
	// FindByCodeForUpdate locks the employee row until the surrounding
	// transaction ends. Serializes per-employee balance mutation.
	FindByCodeForUpdate(ctx context.Context, code string) (*Employee, error)
	UpdateFields(ctx context.Context, code string, fields map[string]any) error
	UpdateBalances(ctx context.Context, code string, cl, rh, el int) error
	Delete(ctx context.Context, code string) error
	DeleteLeavesByEmployee(ctx context.Context, code string) error
	DeleteNotificationsByEmployee(ctx context.Context, code string) error
	FindOutOfRange(ctx context.Context, clCap, rhCap, elCap int) ([]Employee, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, empl *Employee) error {
	return r.db.WithContext(ctx).Create(empl).Error
}

func (r *repository) FindAll(ctx context.Context) ([]Employee, error) {
	var empls []Employee
	err := r.db.WithContext(ctx).
		Order("employee_id ASC").
		Find(&empls).Error
	return empls, err
}

func (r *repository) FindByCode(ctx context.Context, code string) (*Employee, error) {
	var empl Employee
	err := r.db.WithContext(ctx).
		First(&empl, "UPPER(employee_id) = UPPER(?)", code).Error
	return &empl, err
}

func (r *repository) FindByCodeForUpdate(ctx context.Context, code string) (*Employee, error) {
	var empl Employee
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&empl, "UPPER(employee_id) = UPPER(?)", code).Error
	return &empl, err
}

func (r *repository) UpdateFields(ctx context.Context, code string, fields map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&Employee{}).
		Where("UPPER(employee_id) = UPPER(?)", code).
		Updates(fields).Error
}

func (r *repository) UpdateBalances(ctx context.Context, code string, cl, rh, el int) error {
	return r.db.WithContext(ctx).
		Model(&Employee{}).
		Where("UPPER(employee_id) = UPPER(?)", code).
		Updates(map[string]any{
			"casual_balance":     cl,
			"restricted_balance": rh,
			"earned_balance":     el,
		}).Error
}

func (r *repository) Delete(ctx context.Context, code string) error {
	return r.db.WithContext(ctx).
		Delete(&Employee{}, "UPPER(employee_id) = UPPER(?)", code).Error
}

func (r *repository) DeleteLeavesByEmployee(ctx context.Context, code string) error {
	return r.db.WithContext(ctx).
		Exec("DELETE FROM leaves WHERE UPPER(employee_id) = UPPER(?)", code).Error
}

func (r *repository) DeleteNotificationsByEmployee(ctx context.Context, code string) error {
	return r.db.WithContext(ctx).
		Exec("DELETE FROM notifications WHERE UPPER(employee_id) = UPPER(?)", code).Error
}

func (r *repository) FindOutOfRange(ctx context.Context, clCap, rhCap, elCap int) ([]Employee, error) {
	var empls []Employee
	err := r.db.WithContext(ctx).
		Where(
			"casual_balance < 0 OR casual_balance > ? OR restricted_balance < 0 OR restricted_balance > ? OR earned_balance < 0 OR earned_balance > ?",
			clCap, rhCap, elCap,
		).
		Order("employee_id ASC").
		Find(&empls).Error
	return empls, err
}
