package employee

type CreateEmployeeRequest struct {
	EmployeeID string `json:"employee_id" binding:"required,min=2,max=50"`
	FullName   string `json:"full_name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Department string `json:"department"`
	Position   string `json:"position"`
	HireDate   string `json:"hire_date" binding:"required"`

	CasualBalance     *int `json:"cl_balance"`
	RestrictedBalance *int `json:"rh_balance"`
	EarnedBalance     *int `json:"el_balance"`

	IsAdmin bool `json:"is_admin"`
}

// UpdateEmployeeRequest is a patch: absent fields are left untouched.
type UpdateEmployeeRequest struct {
	FullName   *string `json:"full_name"`
	Email      *string `json:"email" binding:"omitempty,email"`
	Department *string `json:"department"`
	Position   *string `json:"position"`
	HireDate   *string `json:"hire_date"`

	CasualBalance     *int `json:"cl_balance"`
	RestrictedBalance *int `json:"rh_balance"`
	EarnedBalance     *int `json:"el_balance"`

	IsAdmin *bool `json:"is_admin"`
}

type EmployeeResponse struct {
	EmployeeID string `json:"employee_id"`
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Department string `json:"department,omitempty"`
	Position   string `json:"position,omitempty"`
	HireDate   string `json:"hire_date"`

	CasualBalance     int `json:"cl_balance"`
	RestrictedBalance int `json:"rh_balance"`
	EarnedBalance     int `json:"el_balance"`

	IsAdmin bool `json:"is_admin"`
}
