package enums

import "fmt"

// AdjustmentReason explains why stock was corrected outside of a sale.
type AdjustmentReason string

const (
	AdjustmentReasonRestock    AdjustmentReason = "restock"
	AdjustmentReasonDamage     AdjustmentReason = "damage"
	AdjustmentReasonCorrection AdjustmentReason = "correction"
	AdjustmentReasonReturn     AdjustmentReason = "return"
)

var validAdjustmentReasons = []AdjustmentReason{
	AdjustmentReasonRestock,
	AdjustmentReasonDamage,
	AdjustmentReasonCorrection,
	AdjustmentReasonReturn,
}

// String implements fmt.Stringer.
func (a AdjustmentReason) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AdjustmentReason.
func (a AdjustmentReason) IsValid() bool {
	for _, candidate := range validAdjustmentReasons {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAdjustmentReason converts raw input into a AdjustmentReason.
func ParseAdjustmentReason(value string) (AdjustmentReason, error) {
	for _, candidate := range validAdjustmentReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid adjustment reason %q", value)
}
