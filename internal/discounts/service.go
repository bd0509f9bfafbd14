package discounts

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/humidityzone-backend/pkg/errors"
)

var (
	minimumCharge = decimal.New(1, -2)
	hundred       = decimal.NewFromInt(100)
)

// ApplyInput is the body of a coupon check.
type ApplyInput struct {
	CouponCode string          `json:"couponCode" validate:"required"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

// Result is the discounted checkout total for a coupon.
type Result struct {
	Valid           bool            `json:"success"`
	DiscountedPrice string          `json:"discountedPrice"`
	DiscountRate    decimal.Decimal `json:"discountRate"`
	Message         string          `json:"message"`
}

// Service resolves coupon codes against a fixed table of rates.
type Service struct {
	rates map[string]decimal.Decimal
}

// NewService parses the configured code→rate table. Codes are matched case-insensitively.
func NewService(codes map[string]string) (*Service, error) {
	rates := make(map[string]decimal.Decimal, len(codes))
	for code, raw := range codes {
		key := normalizeCode(code)
		if key == "" {
			continue
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("discount code %s: invalid rate %q: %w", key, raw, err)
		}
		if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
			return nil, fmt.Errorf("discount code %s: rate %s outside [0,1]", key, rate)
		}
		rates[key] = rate
	}
	return &Service{rates: rates}, nil
}

// Rate returns the discount rate for code, or zero when the code is unknown.
func (s *Service) Rate(code string) (decimal.Decimal, bool) {
	rate, ok := s.rates[normalizeCode(code)]
	return rate, ok
}

// Apply computes max(total × (1 − rate), 0.01) rounded to cents.
func (s *Service) Apply(input ApplyInput) (*Result, error) {
	if strings.TrimSpace(input.CouponCode) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	if input.TotalPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total price must not be negative")
	}

	rate, ok := s.Rate(input.CouponCode)
	discounted := input.TotalPrice.Mul(decimal.NewFromInt(1).Sub(rate))
	if discounted.LessThan(minimumCharge) {
		discounted = minimumCharge
	}

	result := &Result{
		Valid:           ok,
		DiscountedPrice: discounted.StringFixed(2),
		DiscountRate:    rate,
	}
	switch {
	case !ok:
		result.Message = "Coupon not recognized."
	case rate.Equal(decimal.NewFromInt(1)):
		result.Message = "Coupon applied! A $0.01 fee applies."
	default:
		result.Message = fmt.Sprintf("Coupon applied! You saved %s%%", rate.Mul(hundred).String())
	}
	return result, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
