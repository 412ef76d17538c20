package enums

import "fmt"

// ShiftStatus reports whether a cashier shift is accepting transactions.
type ShiftStatus string

const (
	ShiftStatusOpen   ShiftStatus = "open"
	ShiftStatusClosed ShiftStatus = "closed"
)

var validShiftStatuss = []ShiftStatus{
	ShiftStatusOpen,
	ShiftStatusClosed,
}

// String implements fmt.Stringer.
func (s ShiftStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShiftStatus.
func (s ShiftStatus) IsValid() bool {
	for _, candidate := range validShiftStatuss {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseShiftStatus converts raw input into a ShiftStatus.
func ParseShiftStatus(value string) (ShiftStatus, error) {
	for _, candidate := range validShiftStatuss {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shift status %q", value)
}
