package notification

type NotificationResponse struct {
	ID         string  `json:"id"`
	Type       string  `json:"type"`
	Message    string  `json:"message"`
	EmployeeID *string `json:"employee_id,omitempty"`
	Read       bool    `json:"read"`
	CreatedAt  string  `json:"created_at"`
}
