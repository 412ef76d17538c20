package enums

import "fmt"

// CheckoutWarningType enumerates the warnings attached to a checkout computation.
type CheckoutWarningType string

const (
	CheckoutWarningTypeNegativeTotal         CheckoutWarningType = "negative_total"
	CheckoutWarningTypeInsufficientPayment   CheckoutWarningType = "insufficient_payment"
	CheckoutWarningTypePointsClamped         CheckoutWarningType = "points_clamped"
	CheckoutWarningTypePointsWithoutCustomer CheckoutWarningType = "points_without_customer"
	CheckoutWarningTypeEmptyCart             CheckoutWarningType = "empty_cart"
	CheckoutWarningTypeInvalidLineExcluded   CheckoutWarningType = "invalid_line_excluded"
	CheckoutWarningTypeDiscountDropped       CheckoutWarningType = "discount_dropped"
)

var validCheckoutWarningTypes = []CheckoutWarningType{
	CheckoutWarningTypeNegativeTotal,
	CheckoutWarningTypeInsufficientPayment,
	CheckoutWarningTypePointsClamped,
	CheckoutWarningTypePointsWithoutCustomer,
	CheckoutWarningTypeEmptyCart,
	CheckoutWarningTypeInvalidLineExcluded,
	CheckoutWarningTypeDiscountDropped,
}

// String implements fmt.Stringer.
func (c CheckoutWarningType) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CheckoutWarningType.
func (c CheckoutWarningType) IsValid() bool {
	for _, candidate := range validCheckoutWarningTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCheckoutWarningType converts raw input into a CheckoutWarningType.
func ParseCheckoutWarningType(value string) (CheckoutWarningType, error) {
	for _, candidate := range validCheckoutWarningTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout warning type %q", value)
}
