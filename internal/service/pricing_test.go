package service

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceWithoutCoupon(t *testing.T) {
	p := DefaultPricing()

	quote, err := p.Price([]QuoteLine{
		{Price: 499, Quantity: 1},
		{Price: 199.5, Quantity: 2},
	}, "", "302001")
	require.NoError(t, err)

	assert.Equal(t, 898.0, quote.Subtotal)
	assert.Equal(t, 0.0, quote.Discount)
	assert.Equal(t, 79.0, quote.ShippingCost)
	assert.Equal(t, 977.0, quote.TotalAmount)
	assert.Equal(t, "north-west", quote.Zone)
	assert.Equal(t, 5, quote.DeliveryDays)
	assert.False(t, quote.FreeShipping)
}

func TestPriceFreeShippingThreshold(t *testing.T) {
	p := DefaultPricing()

	quote, err := p.Price([]QuoteLine{{Price: 999, Quantity: 1}}, "", "110001")
	require.NoError(t, err)

	assert.Equal(t, 0.0, quote.ShippingCost)
	assert.Equal(t, 999.0, quote.TotalAmount)
	assert.True(t, quote.FreeShipping)
	assert.Equal(t, "metro", quote.Zone)
}

func TestPriceDefaultCoupon(t *testing.T) {
	p := DefaultPricing()

	quote, err := p.Price([]QuoteLine{{Price: 599, Quantity: 3}}, " asurfree ", "845401")
	require.NoError(t, err)

	assert.Equal(t, "ASURFREE", quote.CouponCode)
	assert.Equal(t, 1797.0, quote.Subtotal)
	assert.Equal(t, 1797.0, quote.Discount)
	assert.Equal(t, 0.0, quote.ShippingCost)
	assert.Equal(t, 0.0, quote.TotalAmount)
}

func TestPricePartialCouponRounds(t *testing.T) {
	p := &Pricing{
		Coupons:  []Coupon{{Code: "TEN", Percent: 10}},
		Shipping: []ShippingRate{{From: 100000, To: 999999, Cost: 40, Days: 4, Zone: "all"}},
	}

	quote, err := p.Price([]QuoteLine{{Price: 333.33, Quantity: 1}}, "ten", "560034")
	require.NoError(t, err)

	assert.Equal(t, 33.33, quote.Discount)
	assert.Equal(t, 40.0, quote.ShippingCost)
	assert.Equal(t, 340.0, quote.TotalAmount)
}

func TestPriceUnknownCoupon(t *testing.T) {
	_, err := DefaultPricing().Price([]QuoteLine{{Price: 100, Quantity: 1}}, "NOPE", "")
	assert.True(t, errors.Is(err, ErrInvalidCoupon))
}

func TestPriceWithoutPincodeChargesNoShipping(t *testing.T) {
	quote, err := DefaultPricing().Price([]QuoteLine{{Price: 100, Quantity: 2}}, "", "")
	require.NoError(t, err)

	assert.Equal(t, 0.0, quote.ShippingCost)
	assert.Equal(t, 200.0, quote.TotalAmount)
	assert.Empty(t, quote.Zone)
}

func TestShippingFor(t *testing.T) {
	p := DefaultPricing()

	tests := []struct {
		pincode string
		zone    string
		err     error
	}{
		{"400050", "metro", nil},
		{"411001", "south-west", nil},
		{"781001", "east-northeast", nil},
		{"012345", "", ErrInvalidInput},
		{"12345", "", ErrInvalidInput},
		{"56000a", "", ErrInvalidInput},
		{"930001", "", ErrNotServiceable},
	}

	for _, tt := range tests {
		t.Run(tt.pincode, func(t *testing.T) {
			rate, err := p.ShippingFor(tt.pincode)
			if tt.err != nil {
				assert.True(t, errors.Is(err, tt.err), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.zone, rate.Zone)
		})
	}
}

func TestLoadPricingOverridesSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.yaml")
	content := `
freeShippingThreshold: 1499
coupons:
  - code: WELCOME15
    percent: 15
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	p, err := LoadPricing(path)
	require.NoError(t, err)

	assert.Equal(t, 1499.0, p.FreeShippingThreshold)
	require.Len(t, p.Coupons, 1)
	assert.Equal(t, "WELCOME15", p.Coupons[0].Code)
	assert.Equal(t, DefaultPricing().Shipping, p.Shipping)

	_, err = p.Coupon("ASURFREE")
	assert.True(t, errors.Is(err, ErrInvalidCoupon))
}

func TestLoadPricingRejectsBadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.yaml")
	content := `
shipping:
  - {from: 500000, to: 400000, cost: 10, days: 2, zone: broken}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	_, err := LoadPricing(path)
	assert.Error(t, err)
}

func TestLoadPricingEmptyPath(t *testing.T) {
	p, err := LoadPricing("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPricing(), p)
}
