package notification

import (
	"context"
	"errors"
	"time"

	"go-leave/internal/employee"
	notificationerrors "go-leave/internal/notification/errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Notification type tags produced by the leave lifecycle.
const (
	TypeLeaveRequested = "LEAVE_REQUESTED"
	TypeLeaveApproved  = "LEAVE_APPROVED"
	TypeLeaveRejected  = "LEAVE_REJECTED"
)

type Service interface {
	GetForEmployee(ctx context.Context, employeeID string) ([]NotificationResponse, error)
	MarkRead(ctx context.Context, id string) (NotificationResponse, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("notification.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notification.service")
	}
	return &service{repo: repo, logger: l}
}

func (s *service) GetForEmployee(ctx context.Context, employeeID string) ([]NotificationResponse, error) {
	if employeeID == "" {
		return nil, notificationerrors.ErrEmployeeIDRequired
	}

	ns, err := s.repo.FindForEmployee(ctx, employee.NormalizeCode(employeeID))
	if err != nil {
		s.logger.Error("list notifications failed", zap.Error(err))
		return nil, err
	}
	return mapToListResponse(ns), nil
}

func (s *service) MarkRead(ctx context.Context, id string) (NotificationResponse, error) {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NotificationResponse{}, notificationerrors.ErrNotificationNotFound
		}
		return NotificationResponse{}, err
	}

	if !n.Read {
		if err := s.repo.MarkRead(ctx, id); err != nil {
			s.logger.Error("mark notification read failed", zap.String("notification_id", id), zap.Error(err))
			return NotificationResponse{}, err
		}
		n.Read = true
	}

	return mapToResponse(*n), nil
}

func mapToResponse(n Notification) NotificationResponse {
	return NotificationResponse{
		ID:         n.ID.String(),
		Type:       n.Type,
		Message:    n.Message,
		EmployeeID: n.EmployeeID,
		Read:       n.Read,
		CreatedAt:  n.CreatedAt.Format(time.RFC3339),
	}
}

func mapToListResponse(ns []Notification) []NotificationResponse {
	resp := make([]NotificationResponse, len(ns))
	for i, n := range ns {
		resp[i] = mapToResponse(n)
	}
	return resp
}
