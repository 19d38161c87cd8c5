package payout

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Breakdown is the three-way split of a gross order amount. Every field is
// independently rounded half-up to 2 decimal places, so the sum of rounded
// parts may differ from the rounded total by a few satang.
type Breakdown struct {
	TotalRevenue            decimal.Decimal `json:"totalRevenue"`
	RestaurantEarning       decimal.Decimal `json:"restaurantEarning"`
	PlatformFee             decimal.Decimal `json:"platformFee"`
	GrossPlatformCommission decimal.Decimal `json:"grossPlatformCommission"`
	TransactionFee          decimal.Decimal `json:"transactionFee"`
}

// Calculator converts a gross transaction amount into the revenue split
// between restaurant, platform and the payment processor. All intermediate
// math stays in decimal; float64 never touches a money value.
type Calculator struct {
	baseTransactionRate    decimal.Decimal
	vatRate                decimal.Decimal
	platformCommissionRate decimal.Decimal
}

// NewCalculator builds a calculator from the configured fraction rates.
// Rates must be positive; callers treat a failure here as fatal at startup.
func NewCalculator(baseTransactionRate, vatRate, platformCommissionRate float64) (*Calculator, error) {
	if baseTransactionRate <= 0 || vatRate <= 0 || platformCommissionRate <= 0 {
		return nil, fmt.Errorf("payout: all rates must be positive fractions, got base=%v vat=%v commission=%v",
			baseTransactionRate, vatRate, platformCommissionRate)
	}
	return &Calculator{
		baseTransactionRate:    decimal.NewFromFloat(baseTransactionRate),
		vatRate:                decimal.NewFromFloat(vatRate),
		platformCommissionRate: decimal.NewFromFloat(platformCommissionRate),
	}, nil
}

// Split computes the payout breakdown for a gross order amount:
//
//	grossPlatformCommission = totalPrice * platformCommissionRate
//	transactionFee          = totalPrice * baseTransactionRate * (1 + vatRate)
//	restaurantEarning       = totalPrice - grossPlatformCommission
//	platformFee (net)       = grossPlatformCommission - transactionFee
func (c *Calculator) Split(totalPrice decimal.Decimal) (Breakdown, error) {
	if totalPrice.LessThanOrEqual(decimal.Zero) {
		return Breakdown{}, fmt.Errorf("payout: total price must be positive, got %s", totalPrice)
	}

	gross := totalPrice.Mul(c.platformCommissionRate)
	transactionFee := totalPrice.Mul(c.baseTransactionRate).Mul(decimal.NewFromInt(1).Add(c.vatRate))
	earning := totalPrice.Sub(gross)
	netFee := gross.Sub(transactionFee)

	return Breakdown{
		TotalRevenue:            totalPrice.Round(2),
		RestaurantEarning:       earning.Round(2),
		PlatformFee:             netFee.Round(2),
		GrossPlatformCommission: gross.Round(2),
		TransactionFee:          transactionFee.Round(2),
	}, nil
}

// breakpoint above which a fractional amount rounds up to the next integer
var roundUpThreshold = decimal.NewFromFloat(0.4)

// NumberRound applies the display rounding policy for customer-facing
// amounts: when the fractional part exceeds 0.4 the value is bumped to the
// next whole number, otherwise it is truncated to 2 decimal places and then
// rounded half-up to 2 decimals. The asymmetry around 0.4 is an intentional
// business rule, not standard rounding.
func NumberRound(x decimal.Decimal) decimal.Decimal {
	frac := x.Sub(x.Floor())
	if frac.GreaterThan(roundUpThreshold) {
		return x.Ceil()
	}
	return x.Truncate(2).Round(2)
}
