package events

import "time"

const LeaveStatusChangedTopic = "leave.request.status.v1"

const (
	EventLeaveRequested = "leave_requested"
	EventLeaveApproved  = "leave_approved"
	EventLeaveRejected  = "leave_rejected"
)

type LeaveStatusChangedEvent struct {
	EventType  string    `json:"event_type"`
	RequestID  string    `json:"request_id,omitempty"`
	LeaveID    string    `json:"leave_id"`
	EmployeeID string    `json:"employee_id"`
	LeaveType  string    `json:"leave_type"`
	Status     string    `json:"status"`
	TotalDays  int       `json:"total_days"`
	OccurredAt time.Time `json:"occurred_at"`
}
