package service

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

var pincodePattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)

// Coupon is a discount code
type Coupon struct {
	Code         string  `yaml:"code" json:"code"`
	Percent      float64 `yaml:"percent" json:"percent"`
	FreeShipping bool    `yaml:"freeShipping" json:"freeShipping"`
}

// ShippingRate prices delivery to an inclusive range of pincodes
type ShippingRate struct {
	From int     `yaml:"from" json:"-"`
	To   int     `yaml:"to" json:"-"`
	Cost float64 `yaml:"cost" json:"cost"`
	Days int     `yaml:"days" json:"days"`
	Zone string  `yaml:"zone" json:"zone"`
}

// Pricing holds the coupon and shipping tables used to quote a cart.
// Shipping rates are matched in order; the first covering range wins.
type Pricing struct {
	FreeShippingThreshold float64        `yaml:"freeShippingThreshold"`
	Coupons               []Coupon       `yaml:"coupons"`
	Shipping              []ShippingRate `yaml:"shipping"`
}

// DefaultPricing returns the built-in tables
func DefaultPricing() *Pricing {
	return &Pricing{
		FreeShippingThreshold: 999,
		Coupons: []Coupon{
			{Code: "ASURFREE", Percent: 100, FreeShipping: true},
		},
		Shipping: []ShippingRate{
			{From: 110001, To: 110099, Cost: 49, Days: 3, Zone: "metro"},
			{From: 400001, To: 400104, Cost: 49, Days: 3, Zone: "metro"},
			{From: 500001, To: 500100, Cost: 49, Days: 3, Zone: "metro"},
			{From: 560001, To: 560300, Cost: 49, Days: 3, Zone: "metro"},
			{From: 600001, To: 600130, Cost: 49, Days: 3, Zone: "metro"},
			{From: 700001, To: 700160, Cost: 49, Days: 3, Zone: "metro"},
			{From: 100000, To: 399999, Cost: 79, Days: 5, Zone: "north-west"},
			{From: 400000, To: 699999, Cost: 79, Days: 5, Zone: "south-west"},
			{From: 700000, To: 799999, Cost: 99, Days: 7, Zone: "east-northeast"},
			{From: 800000, To: 899999, Cost: 99, Days: 6, Zone: "east"},
		},
	}
}

// LoadPricing reads a YAML pricing file. An empty path yields the defaults.
// Sections missing from the file keep their default values.
func LoadPricing(path string) (*Pricing, error) {
	pricing := DefaultPricing()
	if path == "" {
		return pricing, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pricing file: %w", err)
	}

	var file Pricing
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse pricing file: %w", err)
	}
	if file.FreeShippingThreshold > 0 {
		pricing.FreeShippingThreshold = file.FreeShippingThreshold
	}
	if file.Coupons != nil {
		pricing.Coupons = file.Coupons
	}
	if file.Shipping != nil {
		pricing.Shipping = file.Shipping
	}

	if err := pricing.validate(); err != nil {
		return nil, fmt.Errorf("invalid pricing file %s: %w", path, err)
	}
	return pricing, nil
}

func (p *Pricing) validate() error {
	for _, c := range p.Coupons {
		if strings.TrimSpace(c.Code) == "" {
			return fmt.Errorf("coupon without code")
		}
		if c.Percent < 0 || c.Percent > 100 {
			return fmt.Errorf("coupon %s: percent %v out of range", c.Code, c.Percent)
		}
	}
	for _, r := range p.Shipping {
		if r.From > r.To {
			return fmt.Errorf("shipping zone %s: range %d-%d is reversed", r.Zone, r.From, r.To)
		}
		if r.Cost < 0 || r.Days <= 0 {
			return fmt.Errorf("shipping zone %s: cost and days must be positive", r.Zone)
		}
	}
	return nil
}

// Coupon looks up a code, ignoring case and surrounding space
func (p *Pricing) Coupon(code string) (*Coupon, error) {
	code = strings.TrimSpace(code)
	for i := range p.Coupons {
		if strings.EqualFold(p.Coupons[i].Code, code) {
			c := p.Coupons[i]
			c.Code = strings.ToUpper(c.Code)
			return &c, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidCoupon, code)
}

// ShippingFor returns the rate covering pincode
func (p *Pricing) ShippingFor(pincode string) (*ShippingRate, error) {
	if !pincodePattern.MatchString(pincode) {
		return nil, invalid("pincode must be 6 digits and not start with 0")
	}
	pin, _ := strconv.Atoi(pincode)
	for i := range p.Shipping {
		if pin >= p.Shipping[i].From && pin <= p.Shipping[i].To {
			rate := p.Shipping[i]
			return &rate, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotServiceable, pincode)
}

// QuoteLine is one priced cart line
type QuoteLine struct {
	Price    float64
	Quantity int
}

// Quote is the priced breakdown of a cart
type Quote struct {
	Subtotal     float64 `json:"subtotal"`
	Discount     float64 `json:"discount"`
	ShippingCost float64 `json:"shippingCost"`
	TotalAmount  float64 `json:"totalAmount"`
	CouponCode   string  `json:"couponCode,omitempty"`
	FreeShipping bool    `json:"freeShipping"`
	Zone         string  `json:"zone,omitempty"`
	DeliveryDays int     `json:"deliveryDays,omitempty"`
}

// Price quotes lines with an optional coupon. When pincode is empty no
// shipping is charged and no zone is reported.
func (p *Pricing) Price(lines []QuoteLine, couponCode, pincode string) (*Quote, error) {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(decimal.NewFromFloat(line.Price).Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	subtotal = subtotal.Round(2)

	quote := &Quote{}
	discount := decimal.Zero
	freeShipping := false
	if strings.TrimSpace(couponCode) != "" {
		coupon, err := p.Coupon(couponCode)
		if err != nil {
			return nil, err
		}
		quote.CouponCode = coupon.Code
		discount = subtotal.Mul(decimal.NewFromFloat(coupon.Percent)).Div(decimal.NewFromInt(100)).Round(2)
		freeShipping = coupon.FreeShipping
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	discounted := subtotal.Sub(discount)

	shipping := decimal.Zero
	if pincode != "" {
		rate, err := p.ShippingFor(pincode)
		if err != nil {
			return nil, err
		}
		quote.Zone = rate.Zone
		quote.DeliveryDays = rate.Days

		threshold := decimal.NewFromFloat(p.FreeShippingThreshold)
		if p.FreeShippingThreshold > 0 && discounted.GreaterThanOrEqual(threshold) {
			freeShipping = true
		}
		if !freeShipping {
			shipping = decimal.NewFromFloat(rate.Cost)
		}
	}

	total := discounted.Add(shipping)
	if total.IsNegative() {
		total = decimal.Zero
	}

	quote.Subtotal = subtotal.InexactFloat64()
	quote.Discount = discount.InexactFloat64()
	quote.ShippingCost = shipping.Round(2).InexactFloat64()
	quote.TotalAmount = total.Round(2).InexactFloat64()
	quote.FreeShipping = freeShipping
	return quote, nil
}
