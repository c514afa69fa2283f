package employee

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go-leave/internal/domain"
	employeeerrors "go-leave/internal/employee/errors"
	"go-leave/internal/shared/contextutil"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// codePattern matches valid employee codes. Codes are case-insensitive;
// NormalizeCode folds them before any comparison.
var codePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{2,50}$`)

// NormalizeCode folds an employee code to its canonical form.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateCode reports whether a raw employee code is well-formed.
func ValidateCode(code string) bool {
	return codePattern.MatchString(strings.TrimSpace(code))
}

type Service interface {
	Create(ctx context.Context, req CreateEmployeeRequest) (EmployeeResponse, error)
	GetAll(ctx context.Context) ([]EmployeeResponse, error)
	GetByCode(ctx context.Context, code string) (EmployeeResponse, error)
	Update(ctx context.Context, code string, req UpdateEmployeeRequest) (EmployeeResponse, error)
	Delete(ctx context.Context, code string) error
}

type service struct {
	db     *gorm.DB
	repo   Repository
	logger *zap.Logger
}

func NewService(db *gorm.DB, repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("employee.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.service")
	}
	return &service{db: db, repo: repo, logger: l}
}

func (s *service) Create(ctx context.Context, req CreateEmployeeRequest) (EmployeeResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("create employee requested",
		zap.String("request_id", rid),
		zap.String("employee_id", req.EmployeeID),
		zap.String("email", req.Email),
	)

	if !ValidateCode(req.EmployeeID) {
		s.logger.Warn("create employee invalid code", zap.String("employee_id", req.EmployeeID))
		return EmployeeResponse{}, employeeerrors.ErrInvalidEmployeeCode
	}

	hireDate, err := time.Parse("2006-01-02", req.HireDate)
	if err != nil {
		s.logger.Warn("create employee invalid hire_date",
			zap.String("hire_date", req.HireDate),
			zap.Error(err),
		)
		return EmployeeResponse{}, employeeerrors.ErrInvalidHireDate
	}

	empl := &Employee{
		EmployeeID:        NormalizeCode(req.EmployeeID),
		FullName:          strings.TrimSpace(req.FullName),
		Email:             strings.ToLower(strings.TrimSpace(req.Email)),
		Department:        strings.TrimSpace(req.Department),
		Position:          strings.TrimSpace(req.Position),
		HireDate:          hireDate,
		CasualBalance:     balanceOrCap(req.CasualBalance, domain.LeaveTypeCasual),
		RestrictedBalance: balanceOrCap(req.RestrictedBalance, domain.LeaveTypeRestricted),
		EarnedBalance:     balanceOrCap(req.EarnedBalance, domain.LeaveTypeEarned),
		IsAdmin:           req.IsAdmin,
	}

	if err := s.repo.Create(ctx, empl); err != nil {
		s.logger.Error("create employee persist failed", zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	s.logger.Info("create employee success",
		zap.String("request_id", rid),
		zap.String("employee_id", empl.EmployeeID),
	)
	return mapToResponse(*empl), nil
}

func (s *service) GetAll(ctx context.Context) ([]EmployeeResponse, error) {
	empls, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.Error("get all employees failed", zap.Error(err))
		return nil, mapRepositoryError(err)
	}
	return mapToListResponse(empls), nil
}

func (s *service) GetByCode(ctx context.Context, code string) (EmployeeResponse, error) {
	empl, err := s.repo.FindByCode(ctx, NormalizeCode(code))
	if err != nil {
		return EmployeeResponse{}, mapRepositoryError(err)
	}
	return mapToResponse(*empl), nil
}

func (s *service) Update(ctx context.Context, code string, req UpdateEmployeeRequest) (EmployeeResponse, error) {
	s.logger.Debug("update employee requested", zap.String("employee_id", code))

	// Translate the patch into explicit columns; absent fields stay put.
	fields := map[string]any{}
	if req.FullName != nil {
		fields["full_name"] = strings.TrimSpace(*req.FullName)
	}
	if req.Email != nil {
		fields["email"] = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Department != nil {
		fields["department"] = strings.TrimSpace(*req.Department)
	}
	if req.Position != nil {
		fields["position"] = strings.TrimSpace(*req.Position)
	}
	if req.HireDate != nil {
		hireDate, err := time.Parse("2006-01-02", *req.HireDate)
		if err != nil {
			return EmployeeResponse{}, employeeerrors.ErrInvalidHireDate
		}
		fields["hire_date"] = hireDate
	}
	if req.CasualBalance != nil {
		fields["casual_balance"] = *req.CasualBalance
	}
	if req.RestrictedBalance != nil {
		fields["restricted_balance"] = *req.RestrictedBalance
	}
	if req.EarnedBalance != nil {
		fields["earned_balance"] = *req.EarnedBalance
	}
	if req.IsAdmin != nil {
		fields["is_admin"] = *req.IsAdmin
	}

	normalized := NormalizeCode(code)

	var updated Employee
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		qtx := s.repo.WithTx(tx)

		if _, err := qtx.FindByCodeForUpdate(ctx, normalized); err != nil {
			return mapRepositoryError(err)
		}

		if len(fields) > 0 {
			if err := qtx.UpdateFields(ctx, normalized, fields); err != nil {
				return mapRepositoryError(err)
			}
		}

		fresh, err := qtx.FindByCode(ctx, normalized)
		if err != nil {
			return mapRepositoryError(err)
		}
		updated = *fresh
		return nil
	})
	if err != nil {
		s.logger.Error("update employee failed", zap.String("employee_id", normalized), zap.Error(err))
		return EmployeeResponse{}, err
	}

	s.logger.Info("update employee success", zap.String("employee_id", normalized))
	return mapToResponse(updated), nil
}

func (s *service) Delete(ctx context.Context, code string) error {
	normalized := NormalizeCode(code)
	s.logger.Debug("delete employee requested", zap.String("employee_id", normalized))

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		qtx := s.repo.WithTx(tx)

		if _, err := qtx.FindByCodeForUpdate(ctx, normalized); err != nil {
			return mapRepositoryError(err)
		}

		// Cascade: leaves and notifications go with the employee.
		if err := qtx.DeleteLeavesByEmployee(ctx, normalized); err != nil {
			return err
		}
		if err := qtx.DeleteNotificationsByEmployee(ctx, normalized); err != nil {
			return err
		}
		return qtx.Delete(ctx, normalized)
	})
	if err != nil {
		s.logger.Error("delete employee failed", zap.String("employee_id", normalized), zap.Error(err))
		return err
	}

	s.logger.Info("delete employee success", zap.String("employee_id", normalized))
	return nil
}

func balanceOrCap(v *int, leaveType string) int {
	if v == nil {
		return domain.BalanceCaps[leaveType]
	}
	if *v < 0 {
		return 0
	}
	return *v
}

func mapToResponse(empl Employee) EmployeeResponse {
	return EmployeeResponse{
		EmployeeID:        empl.EmployeeID,
		FullName:          empl.FullName,
		Email:             empl.Email,
		Department:        empl.Department,
		Position:          empl.Position,
		HireDate:          empl.HireDate.Format("2006-01-02"),
		CasualBalance:     empl.CasualBalance,
		RestrictedBalance: empl.RestrictedBalance,
		EarnedBalance:     empl.EarnedBalance,
		IsAdmin:           empl.IsAdmin,
	}
}

func mapToListResponse(empls []Employee) []EmployeeResponse {
	resp := make([]EmployeeResponse, len(empls))
	for i, e := range empls {
		resp[i] = mapToResponse(e)
	}
	return resp
}
