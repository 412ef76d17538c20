package enums

import "fmt"

// CheckoutSessionStatus tracks whether a checkout session is still being edited.
type CheckoutSessionStatus string

const (
	CheckoutSessionStatusActive     CheckoutSessionStatus = "active"
	CheckoutSessionStatusSubmitting CheckoutSessionStatus = "submitting"
	CheckoutSessionStatusSubmitted  CheckoutSessionStatus = "submitted"
	CheckoutSessionStatusCleared    CheckoutSessionStatus = "cleared"
)

var validCheckoutSessionStatuss = []CheckoutSessionStatus{
	CheckoutSessionStatusActive,
	CheckoutSessionStatusSubmitting,
	CheckoutSessionStatusSubmitted,
	CheckoutSessionStatusCleared,
}

// String implements fmt.Stringer.
func (c CheckoutSessionStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CheckoutSessionStatus.
func (c CheckoutSessionStatus) IsValid() bool {
	for _, candidate := range validCheckoutSessionStatuss {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCheckoutSessionStatus converts raw input into a CheckoutSessionStatus.
func ParseCheckoutSessionStatus(value string) (CheckoutSessionStatus, error) {
	for _, candidate := range validCheckoutSessionStatuss {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout session status %q", value)
}
