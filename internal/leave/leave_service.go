package leave

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go-leave/internal/document"
	"go-leave/internal/employee"
	employeeerrors "go-leave/internal/employee/errors"
	"go-leave/internal/events"
	leaveerrors "go-leave/internal/leave/errors"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/notification"
	"go-leave/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

const (
	StatsCacheKey = "leaves:stats"
	statsCacheTTL = 60 * time.Second
)

type Service interface {
	Create(ctx context.Context, req CreateLeaveRequest) (LeaveResponse, error)
	GetAll(ctx context.Context, employeeID string) ([]LeaveResponse, error)
	GetByID(ctx context.Context, id string) (LeaveResponse, error)
	Approve(ctx context.Context, id, approverID string) (LeaveResponse, error)
	Reject(ctx context.Context, id, approverID string) (LeaveResponse, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (LeaveStats, error)
	AttachDocument(ctx context.Context, id, filename string, data []byte) (LeaveResponse, error)
}

type service struct {
	db        *gorm.DB
	repo      Repository
	empRepo   employee.Repository
	notifRepo notification.Repository
	outbox    kafka.OutboxRepository
	docs      document.Store
	rdb       *redis.Client
	sf        *singleflight.Group
	logger    *zap.Logger
}

type ServiceDeps struct {
	DB        *gorm.DB
	Repo      Repository
	Employees employee.Repository
	Notifs    notification.Repository
	Outbox    kafka.OutboxRepository
	Documents document.Store
	Redis     *redis.Client
}

func NewService(deps ServiceDeps, logger ...*zap.Logger) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	return &service{
		db:        deps.DB,
		repo:      deps.Repo,
		empRepo:   deps.Employees,
		notifRepo: deps.Notifs,
		outbox:    deps.Outbox,
		docs:      deps.Documents,
		rdb:       deps.Redis,
		sf:        &singleflight.Group{},
		logger:    l,
	}
}

func (s *service) Create(ctx context.Context, req CreateLeaveRequest) (LeaveResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("create leave requested",
		zap.String("request_id", rid),
		zap.String("employee_id", req.EmployeeID),
		zap.String("leave_type", req.LeaveType),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	if !employee.ValidateCode(req.EmployeeID) {
		return LeaveResponse{}, leaveerrors.ErrInvalidEmployeeID
	}
	employeeID := employee.NormalizeCode(req.EmployeeID)

	leaveType, ok := NormalizeLeaveType(req.LeaveType)
	if !ok {
		s.logger.Warn("create leave invalid type", zap.String("leave_type", req.LeaveType))
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveType
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return LeaveResponse{}, err
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return LeaveResponse{}, err
	}
	if err := ValidateDateRange(startDate, endDate); err != nil {
		s.logger.Warn("create leave invalid date range", zap.Error(err))
		return LeaveResponse{}, err
	}

	reason := SanitizeInput(req.Reason)
	if reason == "" {
		return LeaveResponse{}, leaveerrors.ErrReasonRequired
	}

	totalDays := CalculateLeaveDays(startDate, endDate)
	if err := ValidateLeaveDays(totalDays, leaveType); err != nil {
		return LeaveResponse{}, err
	}

	l := &Leave{
		ID:         uuid.New(),
		EmployeeID: employeeID,
		LeaveType:  leaveType,
		StartDate:  startDate,
		EndDate:    endDate,
		TotalDays:  totalDays,
		Reason:     reason,
		Status:     StatusPending,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		qtx := s.repo.WithTx(tx)

		// Row lock serializes balance and overlap checks per employee.
		empl, err := s.empRepo.WithTx(tx).FindByCodeForUpdate(ctx, employeeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return employeeerrors.ErrEmployeeNotFound
			}
			return err
		}

		available := empl.BalanceFor(leaveType)
		if available < totalDays {
			s.logger.Warn("create leave insufficient balance",
				zap.String("employee_id", employeeID),
				zap.String("leave_type", leaveType),
				zap.Int("available", available),
				zap.Int("requested", totalDays),
			)
			return leaveerrors.InsufficientBalance(leaveType, available, totalDays)
		}

		overlap, err := qtx.HasOverlappingPeriod(ctx, employeeID, startDate, endDate, nil)
		if err != nil {
			s.logger.Error("create leave overlap check failed", zap.Error(err))
			return err
		}
		if overlap {
			s.logger.Warn("create leave overlap detected",
				zap.String("employee_id", employeeID),
				zap.String("start_date", req.StartDate),
				zap.String("end_date", req.EndDate),
			)
			return leaveerrors.ErrLeaveOverlap
		}

		if err := qtx.Create(ctx, l); err != nil {
			s.logger.Error("create leave persist failed", zap.Error(err))
			return err
		}

		message := fmt.Sprintf("%s requested %d day(s) of %s from %s to %s",
			employeeID, totalDays, leaveType, req.StartDate, req.EndDate)
		return s.recordStatusEvent(ctx, tx, l, events.EventLeaveRequested, notification.TypeLeaveRequested, message, nil)
	})
	if err != nil {
		return LeaveResponse{}, err
	}

	s.invalidateStatsCache(ctx)
	s.logger.Info("create leave success",
		zap.String("request_id", rid),
		zap.String("leave_id", l.ID.String()),
		zap.String("employee_id", employeeID),
	)
	return mapToResponse(*l), nil
}

func (s *service) GetAll(ctx context.Context, employeeID string) ([]LeaveResponse, error) {
	var (
		leaves []Leave
		err    error
	)
	if employeeID != "" {
		leaves, err = s.repo.FindByEmployee(ctx, employee.NormalizeCode(employeeID))
	} else {
		leaves, err = s.repo.FindAll(ctx)
	}
	if err != nil {
		return nil, err
	}
	return mapToListResponse(leaves), nil
}

func (s *service) GetByID(ctx context.Context, id string) (LeaveResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveID
	}
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveResponse{}, err
	}
	return mapToResponse(*l), nil
}

func (s *service) Approve(ctx context.Context, id, approverID string) (LeaveResponse, error) {
	return s.transitionLeaveStatus(ctx, id, approverID, StatusApproved)
}

func (s *service) Reject(ctx context.Context, id, approverID string) (LeaveResponse, error) {
	return s.transitionLeaveStatus(ctx, id, approverID, StatusRejected)
}

func (s *service) transitionLeaveStatus(ctx context.Context, id, approverID, targetStatus string) (LeaveResponse, error) {
	s.logger.Debug("transition leave status requested",
		zap.String("leave_id", id),
		zap.String("approver_id", approverID),
		zap.String("target_status", targetStatus),
	)

	if _, err := uuid.Parse(id); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveID
	}
	if !employee.ValidateCode(approverID) {
		return LeaveResponse{}, leaveerrors.ErrApproverRequired
	}
	approver := employee.NormalizeCode(approverID)

	var updated Leave
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		qtx := s.repo.WithTx(tx)

		// Lock the leave row before reading its status. A concurrent
		// transition blocks here and sees the terminal status on resume,
		// so a leave can never be finalized twice.
		l, err := qtx.FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return leaveerrors.ErrLeaveNotFound
			}
			return err
		}
		if l.Status != StatusPending {
			s.logger.Warn("transition leave status invalid",
				zap.String("leave_id", id),
				zap.String("from_status", l.Status),
				zap.String("to_status", targetStatus),
			)
			return leaveerrors.ErrInvalidStatusTransition
		}

		// Lock order is leave row, then employee row, in every transition.
		empl, err := s.empRepo.WithTx(tx).FindByCodeForUpdate(ctx, l.EmployeeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return employeeerrors.ErrEmployeeNotFound
			}
			return err
		}

		now := time.Now().UTC()
		l.Status = targetStatus
		l.ApprovedBy = &approver
		l.ApprovedAt = &now

		if err := qtx.Update(ctx, l); err != nil {
			s.logger.Error("transition leave status persist failed",
				zap.String("leave_id", id),
				zap.Error(err),
			)
			return err
		}

		eventType := events.EventLeaveRejected
		notifType := notification.TypeLeaveRejected
		verb := "rejected"
		if targetStatus == StatusApproved {
			eventType = events.EventLeaveApproved
			notifType = notification.TypeLeaveApproved
			verb = "approved"

			// Deduct in the same transaction as the status write. There is
			// no floor-at-zero recheck here: concurrent approvals can push
			// a balance negative, and the integrity sweep brings it back
			// into range.
			empl.SetBalanceFor(l.LeaveType, empl.BalanceFor(l.LeaveType)-l.TotalDays)
			if err := s.empRepo.WithTx(tx).UpdateBalances(ctx, empl.EmployeeID,
				empl.CasualBalance, empl.RestrictedBalance, empl.EarnedBalance); err != nil {
				s.logger.Error("transition leave balance deduct failed",
					zap.String("leave_id", id),
					zap.Error(err),
				)
				return err
			}
		}

		recipient := l.EmployeeID
		message := fmt.Sprintf("Your %s leave from %s to %s was %s by %s",
			l.LeaveType, l.StartDate.Format("2006-01-02"), l.EndDate.Format("2006-01-02"), verb, approver)
		if err := s.recordStatusEvent(ctx, tx, l, eventType, notifType, message, &recipient); err != nil {
			return err
		}

		updated = *l
		return nil
	})
	if err != nil {
		return LeaveResponse{}, err
	}

	s.invalidateStatsCache(ctx)
	s.logger.Info("transition leave status success",
		zap.String("leave_id", id),
		zap.String("status", targetStatus),
	)
	return mapToResponse(updated), nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return leaveerrors.ErrInvalidLeaveID
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		qtx := s.repo.WithTx(tx)

		// Same locked read as the status transitions: the PENDING check must
		// hold until commit, or a racing approve could finalize a leave this
		// transaction is about to remove.
		l, err := qtx.FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return leaveerrors.ErrLeaveNotFound
			}
			return err
		}
		if l.Status != StatusPending {
			return leaveerrors.ErrLeaveNotPending
		}

		if l.DocumentRef != nil && s.docs != nil {
			if err := s.docs.Delete(ctx, *l.DocumentRef); err != nil {
				// An orphan file is acceptable; the record still goes.
				s.logger.Warn("delete leave document artifact failed",
					zap.String("leave_id", id),
					zap.String("document_ref", *l.DocumentRef),
					zap.Error(err),
				)
			}
		}

		return qtx.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.invalidateStatsCache(ctx)
	s.logger.Info("delete leave success", zap.String("leave_id", id))
	return nil
}

func (s *service) Stats(ctx context.Context) (LeaveStats, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, StatsCacheKey).Result(); err == nil {
			var stats LeaveStats
			if json.Unmarshal([]byte(cached), &stats) == nil {
				return stats, nil
			}
		}
	}

	v, err, _ := s.sf.Do(StatsCacheKey, func() (interface{}, error) {
		byStatus, err := s.repo.CountByStatus(ctx)
		if err != nil {
			return nil, err
		}
		byType, err := s.repo.CountByType(ctx)
		if err != nil {
			return nil, err
		}

		var total int64
		for _, n := range byStatus {
			total += n
		}
		stats := LeaveStats{Total: total, ByStatus: byStatus, ByType: byType}

		if s.rdb != nil {
			if jsonData, err := json.Marshal(stats); err == nil {
				s.rdb.Set(ctx, StatsCacheKey, jsonData, statsCacheTTL)
			}
		}
		return stats, nil
	})
	if err != nil {
		return LeaveStats{}, err
	}

	return v.(LeaveStats), nil
}

func (s *service) AttachDocument(ctx context.Context, id, filename string, data []byte) (LeaveResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveID
	}
	if s.docs == nil {
		return LeaveResponse{}, leaveerrors.ErrDocumentStoreUnavailable
	}

	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveResponse{}, err
	}
	if l.Status != StatusPending {
		return LeaveResponse{}, leaveerrors.ErrLeaveNotPending
	}

	// The file write and the ref update are not one atomic unit; a crash in
	// between leaves an orphan file, never a dangling ref.
	ref, err := s.docs.Save(ctx, id, filename, data)
	if err != nil {
		s.logger.Error("attach document save failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}

	if err := s.repo.UpdateDocumentRef(ctx, id, &ref); err != nil {
		return LeaveResponse{}, err
	}

	// The previous artifact goes only once the new ref is persisted, so the
	// stored ref always points at an existing file.
	if old := l.DocumentRef; old != nil {
		if err := s.docs.Delete(ctx, *old); err != nil {
			s.logger.Warn("attach document old artifact delete failed",
				zap.String("leave_id", id),
				zap.Error(err),
			)
		}
	}

	l.DocumentRef = &ref
	s.logger.Info("attach document success", zap.String("leave_id", id), zap.String("document_ref", ref))
	return mapToResponse(*l), nil
}

func (s *service) recordStatusEvent(
	ctx context.Context,
	tx *gorm.DB,
	l *Leave,
	eventType, notifType, message string,
	recipient *string,
) error {
	if s.notifRepo != nil {
		n := &notification.Notification{
			ID:         uuid.New(),
			Type:       notifType,
			Message:    message,
			EmployeeID: recipient,
		}
		if err := s.notifRepo.WithTx(tx).Create(ctx, n); err != nil {
			return err
		}
	}

	if s.outbox == nil {
		return nil
	}

	event := events.LeaveStatusChangedEvent{
		EventType:  eventType,
		RequestID:  contextutil.GetRequestID(ctx),
		LeaveID:    l.ID.String(),
		EmployeeID: l.EmployeeID,
		LeaveType:  l.LeaveType,
		Status:     l.Status,
		TotalDays:  l.TotalDays,
		OccurredAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     event.RequestID,
		AggregateType: "leave",
		AggregateID:   l.ID.String(),
		EventType:     eventType,
		Topic:         events.LeaveStatusChangedTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

func (s *service) invalidateStatsCache(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, StatsCacheKey).Err(); err != nil {
		s.logger.Error("failed to invalidate stats cache",
			zap.String("key", StatsCacheKey),
			zap.Error(err),
		)
	}
}

func parseDate(v string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, leaveerrors.ErrInvalidDateFormat
	}
	return t, nil
}

func mapToResponse(l Leave) LeaveResponse {
	resp := LeaveResponse{
		ID:         l.ID.String(),
		EmployeeID: l.EmployeeID,
		LeaveType:  l.LeaveType,
		StartDate:  l.StartDate.Format("2006-01-02"),
		EndDate:    l.EndDate.Format("2006-01-02"),
		TotalDays:  l.TotalDays,
		Reason:     l.Reason,
		Status:     l.Status,
	}
	resp.ApprovedBy = l.ApprovedBy
	if l.ApprovedAt != nil {
		v := l.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &v
	}
	resp.DocumentRef = l.DocumentRef
	return resp
}

func mapToListResponse(leaves []Leave) []LeaveResponse {
	resp := make([]LeaveResponse, len(leaves))
	for i, l := range leaves {
		resp[i] = mapToResponse(l)
	}
	return resp
}
