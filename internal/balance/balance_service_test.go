package balance_test

import (
	"context"
	"errors"
	"testing"

	"go-leave/internal/balance"
	"go-leave/internal/employee"
	employeeerrors "go-leave/internal/employee/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type fakeEmployeeRepository struct {
	findByCodeForUpdateFn func(ctx context.Context, code string) (*employee.Employee, error)
	updateBalancesFn      func(ctx context.Context, code string, cl, rh, el int) error
	findOutOfRangeFn      func(ctx context.Context, clCap, rhCap, elCap int) ([]employee.Employee, error)
}

func (f *fakeEmployeeRepository) WithTx(tx *gorm.DB) employee.Repository { return f }

func (f *fakeEmployeeRepository) Create(ctx context.Context, empl *employee.Employee) error {
	return nil
}

func (f *fakeEmployeeRepository) FindAll(ctx context.Context) ([]employee.Employee, error) {
	return nil, nil
}

func (f *fakeEmployeeRepository) FindByCode(ctx context.Context, code string) (*employee.Employee, error) {
	return f.FindByCodeForUpdate(ctx, code)
}

func (f *fakeEmployeeRepository) FindByCodeForUpdate(ctx context.Context, code string) (*employee.Employee, error) {
	if f.findByCodeForUpdateFn != nil {
		return f.findByCodeForUpdateFn(ctx, code)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeEmployeeRepository) UpdateFields(ctx context.Context, code string, fields map[string]any) error {
	return nil
}

func (f *fakeEmployeeRepository) UpdateBalances(ctx context.Context, code string, cl, rh, el int) error {
	if f.updateBalancesFn != nil {
		return f.updateBalancesFn(ctx, code, cl, rh, el)
	}
	return nil
}

func (f *fakeEmployeeRepository) Delete(ctx context.Context, code string) error { return nil }

func (f *fakeEmployeeRepository) DeleteLeavesByEmployee(ctx context.Context, code string) error {
	return nil
}

func (f *fakeEmployeeRepository) DeleteNotificationsByEmployee(ctx context.Context, code string) error {
	return nil
}

func (f *fakeEmployeeRepository) FindOutOfRange(ctx context.Context, clCap, rhCap, elCap int) ([]employee.Employee, error) {
	if f.findOutOfRangeFn != nil {
		return f.findOutOfRangeFn(ctx, clCap, rhCap, elCap)
	}
	return nil, nil
}

type balanceServiceDeps struct {
	sqlMock sqlmock.Sqlmock
	service balance.Service
	repo    *fakeEmployeeRepository
	closeFn func()
}

func setupBalanceServiceTest(t *testing.T) *balanceServiceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db}), &gorm.Config{})
	assert.NoError(t, err)

	repo := &fakeEmployeeRepository{}
	svc := balance.NewService(gormDB, repo)

	return &balanceServiceDeps{
		sqlMock: sqlMock,
		service: svc,
		repo:    repo,
		closeFn: func() { db.Close() },
	}
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func TestBalanceService_NormalizeBalances(t *testing.T) {
	ctx := context.Background()

	t.Run("clamps negative and over-cap values", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.closeFn()

		expectTx(t, deps.sqlMock, true)

		deps.repo.findByCodeForUpdateFn = func(ctx context.Context, code string) (*employee.Employee, error) {
			return &employee.Employee{
				EmployeeID:        "EMP-1",
				CasualBalance:     -5,
				RestrictedBalance: 8,
				EarnedBalance:     50,
			}, nil
		}

		var gotCL, gotRH, gotEL int
		deps.repo.updateBalancesFn = func(ctx context.Context, code string, cl, rh, el int) error {
			gotCL, gotRH, gotEL = cl, rh, el
			return nil
		}

		balances, err := deps.service.NormalizeBalances(ctx, "emp-1")

		assert.NoError(t, err)
		assert.Equal(t, &balance.Balances{
			EmployeeID: "EMP-1",
			Casual:     0,
			Restricted: 8,
			Earned:     18,
		}, balances)
		assert.Equal(t, 0, gotCL)
		assert.Equal(t, 8, gotRH)
		assert.Equal(t, 18, gotEL)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("in-range balances left untouched", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.closeFn()

		expectTx(t, deps.sqlMock, true)

		deps.repo.findByCodeForUpdateFn = func(ctx context.Context, code string) (*employee.Employee, error) {
			return &employee.Employee{
				EmployeeID:        "EMP-1",
				CasualBalance:     30,
				RestrictedBalance: 0,
				EarnedBalance:     18,
			}, nil
		}

		updated := false
		deps.repo.updateBalancesFn = func(ctx context.Context, code string, cl, rh, el int) error {
			updated = true
			return nil
		}

		balances, err := deps.service.NormalizeBalances(ctx, "EMP-1")

		assert.NoError(t, err)
		assert.False(t, updated)
		assert.Equal(t, 30, balances.Casual)
		assert.Equal(t, 0, balances.Restricted)
		assert.Equal(t, 18, balances.Earned)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("invalid employee id", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.closeFn()

		_, err := deps.service.NormalizeBalances(ctx, "!")

		assert.ErrorIs(t, err, employeeerrors.ErrInvalidEmployeeCode)
	})

	t.Run("employee not found", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.closeFn()

		expectTx(t, deps.sqlMock, false)

		_, err := deps.service.NormalizeBalances(ctx, "EMP-404")

		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeNotFound)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestBalanceService_Sweep(t *testing.T) {
	ctx := context.Background()

	t.Run("repairs drifted rows", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.closeFn()

		// One transaction per repaired row.
		expectTx(t, deps.sqlMock, true)
		expectTx(t, deps.sqlMock, true)

		drifted := map[string]*employee.Employee{
			"EMP-NEG": {EmployeeID: "EMP-NEG", CasualBalance: -3, RestrictedBalance: 5, EarnedBalance: 10},
			"EMP-BIG": {EmployeeID: "EMP-BIG", CasualBalance: 12, RestrictedBalance: 5, EarnedBalance: 40},
		}

		deps.repo.findOutOfRangeFn = func(ctx context.Context, clCap, rhCap, elCap int) ([]employee.Employee, error) {
			assert.Equal(t, 30, clCap)
			assert.Equal(t, 15, rhCap)
			assert.Equal(t, 18, elCap)
			return []employee.Employee{*drifted["EMP-NEG"], *drifted["EMP-BIG"]}, nil
		}
		deps.repo.findByCodeForUpdateFn = func(ctx context.Context, code string) (*employee.Employee, error) {
			empl := *drifted[code]
			return &empl, nil
		}

		repaired := map[string][3]int{}
		deps.repo.updateBalancesFn = func(ctx context.Context, code string, cl, rh, el int) error {
			repaired[code] = [3]int{cl, rh, el}
			return nil
		}

		report, err := deps.service.Sweep(ctx)

		assert.NoError(t, err)
		assert.Equal(t, 2, report.Scanned)
		assert.Equal(t, 1, report.Negative)
		assert.Equal(t, 1, report.OverCap)
		assert.Equal(t, 2, report.Repaired)
		assert.Equal(t, [3]int{0, 5, 10}, repaired["EMP-NEG"])
		assert.Equal(t, [3]int{12, 5, 18}, repaired["EMP-BIG"])
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("nothing to repair", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.closeFn()

		report, err := deps.service.Sweep(ctx)

		assert.NoError(t, err)
		assert.Equal(t, &balance.SweepReport{}, report)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("continues past a failed repair", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.closeFn()

		// First row's transaction rolls back, second commits.
		expectTx(t, deps.sqlMock, false)
		expectTx(t, deps.sqlMock, true)

		drifted := map[string]*employee.Employee{
			"EMP-BAD": {EmployeeID: "EMP-BAD", CasualBalance: -3, RestrictedBalance: 5, EarnedBalance: 10},
			"EMP-OK":  {EmployeeID: "EMP-OK", CasualBalance: 12, RestrictedBalance: 5, EarnedBalance: 40},
		}

		deps.repo.findOutOfRangeFn = func(ctx context.Context, clCap, rhCap, elCap int) ([]employee.Employee, error) {
			return []employee.Employee{*drifted["EMP-BAD"], *drifted["EMP-OK"]}, nil
		}
		deps.repo.findByCodeForUpdateFn = func(ctx context.Context, code string) (*employee.Employee, error) {
			empl := *drifted[code]
			return &empl, nil
		}
		deps.repo.updateBalancesFn = func(ctx context.Context, code string, cl, rh, el int) error {
			if code == "EMP-BAD" {
				return errors.New("write failed")
			}
			return nil
		}

		report, err := deps.service.Sweep(ctx)

		assert.NoError(t, err)
		assert.Equal(t, 2, report.Scanned)
		assert.Equal(t, 1, report.Repaired)
		assert.Equal(t, 0, report.Negative)
		assert.Equal(t, 1, report.OverCap)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("skips rows fixed concurrently", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.closeFn()

		expectTx(t, deps.sqlMock, true)

		deps.repo.findOutOfRangeFn = func(ctx context.Context, clCap, rhCap, elCap int) ([]employee.Employee, error) {
			return []employee.Employee{{EmployeeID: "EMP-1", CasualBalance: -1}}, nil
		}
		// Re-read under lock sees an already repaired row.
		deps.repo.findByCodeForUpdateFn = func(ctx context.Context, code string) (*employee.Employee, error) {
			return &employee.Employee{EmployeeID: "EMP-1", CasualBalance: 0, RestrictedBalance: 15, EarnedBalance: 18}, nil
		}

		report, err := deps.service.Sweep(ctx)

		assert.NoError(t, err)
		assert.Equal(t, 1, report.Scanned)
		assert.Equal(t, 0, report.Repaired)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}
