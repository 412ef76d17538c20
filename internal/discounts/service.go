package discounts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pos-terminal/pkg/backend"
	"github.com/angelmondragon/pos-terminal/pkg/enums"
	"github.com/angelmondragon/pos-terminal/pkg/errors"
	"github.com/angelmondragon/pos-terminal/pkg/types"
)

var hundred = decimal.NewFromInt(100)

// Service resolves discount codes into snapshots the cart can apply.
type Service interface {
	Resolve(ctx context.Context, code string, customer *types.CustomerSnapshot, now time.Time) (*types.DiscountSnapshot, error)
}

type discountSource interface {
	GetDiscountByCode(ctx context.Context, code string) (*backend.Discount, error)
}

type service struct {
	source discountSource
}

func NewService(source discountSource) (Service, error) {
	if source == nil {
		return nil, fmt.Errorf("discount source required")
	}
	return &service{source: source}, nil
}

func (s *service) Resolve(ctx context.Context, code string, customer *types.CustomerSnapshot, now time.Time) (*types.DiscountSnapshot, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(code))
	if trimmed == "" {
		return nil, errors.New(errors.CodeValidation, "discount code is required")
	}

	def, err := s.source.GetDiscountByCode(ctx, trimmed)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return nil, errors.Wrap(errors.CodeNotFound, err, "discount code not found").
				WithDetails(map[string]any{"code": trimmed})
		}
		return nil, err
	}

	if err := Validate(def, now); err != nil {
		return nil, err
	}

	snapshot := &types.DiscountSnapshot{
		Code:         firstNonEmpty(strings.TrimSpace(def.Code), trimmed),
		Kind:         def.Type,
		Value:        def.Value,
		CustomerType: normalizeCustomerType(def.CustomerType),
	}
	if err := CheckEligibility(snapshot, customer); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Validate checks the discount's activity flag, window and value at now.
func Validate(def *backend.Discount, now time.Time) error {
	if def == nil {
		return errors.New(errors.CodeNotFound, "discount code not found")
	}
	if def.IsActive != nil && !*def.IsActive {
		return errors.New(errors.CodeValidation, "discount is not active")
	}
	if !def.Type.IsValid() {
		return errors.New(errors.CodeValidation, "discount type is not supported").
			WithDetails(map[string]any{"type": def.Type})
	}
	if def.StartDate != nil && !def.StartDate.IsZero() && now.Before(def.StartDate.Time) {
		return errors.New(errors.CodeValidation, "discount is not active yet").
			WithDetails(map[string]any{"start_date": def.StartDate.Time})
	}
	if def.EndDate != nil && !def.EndDate.IsZero() && now.After(endOfWindow(def.EndDate.Time)) {
		return errors.New(errors.CodeValidation, "discount has expired").
			WithDetails(map[string]any{"end_date": def.EndDate.Time})
	}

	switch def.Type {
	case enums.DiscountKindPercentage:
		if !def.Value.IsPositive() || def.Value.GreaterThan(hundred) {
			return errors.New(errors.CodeValidation, "percentage discount must be between 0 and 100")
		}
	case enums.DiscountKindFixed:
		if !def.Value.IsPositive() {
			return errors.New(errors.CodeValidation, "fixed discount must be positive")
		}
	}
	return nil
}

// CheckEligibility reports whether the customer may use a customer-type restricted discount.
func CheckEligibility(discount *types.DiscountSnapshot, customer *types.CustomerSnapshot) error {
	if discount == nil || discount.CustomerType == nil {
		return nil
	}
	required := *discount.CustomerType
	if customer == nil {
		return errors.New(errors.CodeValidation, "discount requires a customer").
			WithDetails(map[string]any{"customer_type": required})
	}
	if !strings.EqualFold(strings.TrimSpace(customer.CustomerType), required) {
		return errors.New(errors.CodeValidation, "discount is not available for this customer type").
			WithDetails(map[string]any{"customer_type": required, "actual": customer.CustomerType})
	}
	return nil
}

// endOfWindow treats a date-only end bound as inclusive of that whole day.
func endOfWindow(t time.Time) time.Time {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Add(24*time.Hour - time.Nanosecond)
	}
	return t
}

func normalizeCustomerType(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" || strings.EqualFold(trimmed, "all") {
		return nil
	}
	return &trimmed
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
