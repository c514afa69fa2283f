package balance

import (
	"context"
	"errors"

	"go-leave/internal/domain"
	"go-leave/internal/employee"
	employeeerrors "go-leave/internal/employee/errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Balances is the normalized per-type remaining days for one employee.
type Balances struct {
	EmployeeID string `json:"employee_id"`
	Casual     int    `json:"casual"`
	Restricted int    `json:"restricted"`
	Earned     int    `json:"earned"`
}

// SweepReport summarizes one integrity sweep run.
type SweepReport struct {
	Scanned  int `json:"scanned"`
	Negative int `json:"negative"`
	OverCap  int `json:"over_cap"`
	Repaired int `json:"repaired"`
}

type Service interface {
	// NormalizeBalances clamps the employee's stored balances into range and
	// persists the result. Returns the balances after clamping.
	NormalizeBalances(ctx context.Context, employeeID string) (*Balances, error)
	// Sweep repairs every employee whose balances drifted out of range.
	// Running it twice in a row repairs nothing on the second pass.
	Sweep(ctx context.Context) (*SweepReport, error)
}

type service struct {
	db      *gorm.DB
	empRepo employee.Repository
	logger  *zap.Logger
}

func NewService(db *gorm.DB, empRepo employee.Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("balance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("balance.service")
	}
	return &service{db: db, empRepo: empRepo, logger: l}
}

// clamp coerces v into [0, cap].
func clamp(v, cap int) int {
	if v < 0 {
		return 0
	}
	if v > cap {
		return cap
	}
	return v
}

// clampEmployee rewrites the employee's balances in place and reports whether
// any value changed, whether any was negative, and whether any exceeded a cap.
func clampEmployee(empl *employee.Employee) (changed, negative, overCap bool) {
	for _, leaveType := range domain.LeaveTypes() {
		current := empl.BalanceFor(leaveType)
		if current < 0 {
			negative = true
		}
		if current > domain.BalanceCaps[leaveType] {
			overCap = true
		}

		clamped := clamp(current, domain.BalanceCaps[leaveType])
		if clamped != current {
			empl.SetBalanceFor(leaveType, clamped)
			changed = true
		}
	}
	return changed, negative, overCap
}

func (s *service) NormalizeBalances(ctx context.Context, employeeID string) (*Balances, error) {
	code := employee.NormalizeCode(employeeID)
	if !employee.ValidateCode(code) {
		return nil, employeeerrors.ErrInvalidEmployeeCode
	}

	var result Balances
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		qtx := s.empRepo.WithTx(tx)

		empl, err := qtx.FindByCodeForUpdate(ctx, code)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return employeeerrors.ErrEmployeeNotFound
			}
			return err
		}

		changed, _, _ := clampEmployee(empl)
		if changed {
			if err := qtx.UpdateBalances(ctx, empl.EmployeeID, empl.CasualBalance, empl.RestrictedBalance, empl.EarnedBalance); err != nil {
				return err
			}
			s.logger.Info("normalized employee balances",
				zap.String("employee_id", empl.EmployeeID),
				zap.Int("casual", empl.CasualBalance),
				zap.Int("restricted", empl.RestrictedBalance),
				zap.Int("earned", empl.EarnedBalance),
			)
		}

		result = Balances{
			EmployeeID: empl.EmployeeID,
			Casual:     empl.CasualBalance,
			Restricted: empl.RestrictedBalance,
			Earned:     empl.EarnedBalance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *service) Sweep(ctx context.Context) (*SweepReport, error) {
	report := &SweepReport{}

	// Candidates are read outside any transaction. Each repair then re-reads
	// its row under FOR UPDATE, so a row fixed concurrently is simply skipped.
	candidates, err := s.empRepo.FindOutOfRange(ctx,
		domain.BalanceCaps[domain.LeaveTypeCasual],
		domain.BalanceCaps[domain.LeaveTypeRestricted],
		domain.BalanceCaps[domain.LeaveTypeEarned],
	)
	if err != nil {
		return nil, err
	}
	report.Scanned = len(candidates)

	for _, candidate := range candidates {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			qtx := s.empRepo.WithTx(tx)

			empl, err := qtx.FindByCodeForUpdate(ctx, candidate.EmployeeID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil
				}
				return err
			}

			changed, negative, overCap := clampEmployee(empl)
			if !changed {
				return nil
			}

			if err := qtx.UpdateBalances(ctx, empl.EmployeeID, empl.CasualBalance, empl.RestrictedBalance, empl.EarnedBalance); err != nil {
				return err
			}

			// Counters move only on a committed repair.
			if negative {
				report.Negative++
			}
			if overCap {
				report.OverCap++
			}
			report.Repaired++

			s.logger.Info("sweep repaired employee balances",
				zap.String("employee_id", empl.EmployeeID),
				zap.Bool("was_negative", negative),
				zap.Bool("was_over_cap", overCap),
			)
			return nil
		})
		if err != nil {
			// A failed row stays out of range for the next sweep; the rest
			// of the scan proceeds.
			s.logger.Error("sweep repair failed",
				zap.String("employee_id", candidate.EmployeeID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("integrity sweep finished",
		zap.Int("scanned", report.Scanned),
		zap.Int("negative", report.Negative),
		zap.Int("over_cap", report.OverCap),
		zap.Int("repaired", report.Repaired),
	)
	return report, nil
}
