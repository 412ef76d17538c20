package discounts

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/pos-terminal/pkg/backend"
	"github.com/angelmondragon/pos-terminal/pkg/enums"
	pkgerrors "github.com/angelmondragon/pos-terminal/pkg/errors"
	"github.com/angelmondragon/pos-terminal/pkg/types"
)

type stubSource struct {
	discounts map[string]backend.Discount
	lastCode  string
}

func (s *stubSource) GetDiscountByCode(ctx context.Context, code string) (*backend.Discount, error) {
	s.lastCode = code
	d, ok := s.discounts[code]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Diskon tidak ditemukan")
	}
	return &d, nil
}

func strPtr(v string) *string { return &v }

func date(y int, m time.Month, d int) *backend.Date {
	return &backend.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func newService(t *testing.T, discounts map[string]backend.Discount) (*service, *stubSource) {
	t.Helper()
	source := &stubSource{discounts: discounts}
	svc, err := NewService(source)
	require.NoError(t, err)
	return svc.(*service), source
}

var now = time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)

func TestResolveNormalizesCode(t *testing.T) {
	svc, source := newService(t, map[string]backend.Discount{
		"PROMO10": {Code: "PROMO10", Type: enums.DiscountKindPercentage, Value: decimal.NewFromInt(10)},
	})

	snapshot, err := svc.Resolve(context.Background(), " promo10 ", nil, now)
	require.NoError(t, err)
	assert.Equal(t, "PROMO10", source.lastCode)
	assert.Equal(t, enums.DiscountKindPercentage, snapshot.Kind)
	assert.True(t, snapshot.Value.Equal(decimal.NewFromInt(10)))
	assert.Nil(t, snapshot.CustomerType)
}

func TestResolveUnknownCode(t *testing.T) {
	svc, _ := newService(t, nil)
	_, err := svc.Resolve(context.Background(), "NOPE", nil, now)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	_, err = svc.Resolve(context.Background(), "  ", nil, now)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestResolveWindow(t *testing.T) {
	svc, _ := newService(t, map[string]backend.Discount{
		"EARLY":   {Code: "EARLY", Type: enums.DiscountKindFixed, Value: decimal.NewFromInt(5000), StartDate: date(2026, 7, 1)},
		"EXPIRED": {Code: "EXPIRED", Type: enums.DiscountKindFixed, Value: decimal.NewFromInt(5000), EndDate: date(2026, 6, 14)},
		"TODAY":   {Code: "TODAY", Type: enums.DiscountKindFixed, Value: decimal.NewFromInt(5000), StartDate: date(2026, 6, 1), EndDate: date(2026, 6, 15)},
	})

	_, err := svc.Resolve(context.Background(), "EARLY", nil, now)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	_, err = svc.Resolve(context.Background(), "EXPIRED", nil, now)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	_, err = svc.Resolve(context.Background(), "TODAY", nil, now)
	assert.NoError(t, err)
}

func TestValidateValues(t *testing.T) {
	inactive := false
	cases := []struct {
		name    string
		def     backend.Discount
		wantErr bool
	}{
		{name: "percent 100", def: backend.Discount{Type: enums.DiscountKindPercentage, Value: decimal.NewFromInt(100)}},
		{name: "percent above 100", def: backend.Discount{Type: enums.DiscountKindPercentage, Value: decimal.NewFromInt(101)}, wantErr: true},
		{name: "percent zero", def: backend.Discount{Type: enums.DiscountKindPercentage, Value: decimal.Zero}, wantErr: true},
		{name: "fixed negative", def: backend.Discount{Type: enums.DiscountKindFixed, Value: decimal.NewFromInt(-1)}, wantErr: true},
		{name: "unknown type", def: backend.Discount{Type: "bogo", Value: decimal.NewFromInt(1)}, wantErr: true},
		{name: "inactive", def: backend.Discount{Type: enums.DiscountKindFixed, Value: decimal.NewFromInt(1), IsActive: &inactive}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			def := tc.def
			err := Validate(&def, now)
			if tc.wantErr {
				assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestResolveCustomerTypeRestriction(t *testing.T) {
	svc, _ := newService(t, map[string]backend.Discount{
		"MEMBER": {Code: "MEMBER", Type: enums.DiscountKindPercentage, Value: decimal.NewFromInt(5), CustomerType: strPtr("member")},
		"ALL":    {Code: "ALL", Type: enums.DiscountKindPercentage, Value: decimal.NewFromInt(5), CustomerType: strPtr("all")},
	})

	_, err := svc.Resolve(context.Background(), "MEMBER", nil, now)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = svc.Resolve(context.Background(), "MEMBER", &types.CustomerSnapshot{ID: 1, CustomerType: "regular"}, now)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	snapshot, err := svc.Resolve(context.Background(), "MEMBER", &types.CustomerSnapshot{ID: 1, CustomerType: "Member"}, now)
	require.NoError(t, err)
	require.NotNil(t, snapshot.CustomerType)
	assert.Equal(t, "member", *snapshot.CustomerType)

	open, err := svc.Resolve(context.Background(), "ALL", nil, now)
	require.NoError(t, err)
	assert.Nil(t, open.CustomerType)
}

func TestCheckEligibilityWithoutRestriction(t *testing.T) {
	assert.NoError(t, CheckEligibility(nil, nil))
	assert.NoError(t, CheckEligibility(&types.DiscountSnapshot{Code: "X"}, nil))
}
