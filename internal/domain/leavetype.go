package domain

// Leave type categories. Each carries its own balance and caps.
const (
	LeaveTypeCasual     = "CL"
	LeaveTypeRestricted = "RH"
	LeaveTypeEarned     = "EL"
)

// RequestDayCaps bounds how many days a single request may span.
// EL intentionally differs from its balance cap: the request-time rule
// allows up to 60 days while stored balances never exceed 18, so the
// balance check is the effective limit for EL.
var RequestDayCaps = map[string]int{
	LeaveTypeCasual:     30,
	LeaveTypeRestricted: 15,
	LeaveTypeEarned:     60,
}

// BalanceCaps is the source of truth for stored balances. Normalization
// and the integrity sweep clamp into [0, cap].
var BalanceCaps = map[string]int{
	LeaveTypeCasual:     30,
	LeaveTypeRestricted: 15,
	LeaveTypeEarned:     18,
}

func LeaveTypes() []string {
	return []string{LeaveTypeCasual, LeaveTypeRestricted, LeaveTypeEarned}
}

func IsLeaveType(t string) bool {
	_, ok := BalanceCaps[t]
	return ok
}
