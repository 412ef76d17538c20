package enums

import "fmt"

// CashierRole represents the permissions a terminal user holds.
type CashierRole string

const (
	CashierRoleCashier    CashierRole = "cashier"
	CashierRoleSupervisor CashierRole = "supervisor"
	CashierRoleAdmin      CashierRole = "admin"
)

var validCashierRoles = []CashierRole{
	CashierRoleCashier,
	CashierRoleSupervisor,
	CashierRoleAdmin,
}

// String implements fmt.Stringer.
func (c CashierRole) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CashierRole.
func (c CashierRole) IsValid() bool {
	for _, candidate := range validCashierRoles {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCashierRole converts raw input into a CashierRole.
func ParseCashierRole(value string) (CashierRole, error) {
	for _, candidate := range validCashierRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cashier role %q", value)
}
