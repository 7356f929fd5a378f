// Package pricing computes order amounts. All amounts are decimal strings
// in INR; nothing here is ever taken from a client request.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Calculator struct {
	surcharge decimal.Decimal
}

func NewCalculator(deliverySurcharge string) (*Calculator, error) {
	s, err := decimal.NewFromString(deliverySurcharge)
	if err != nil {
		return nil, fmt.Errorf("invalid delivery surcharge %q: %w", deliverySurcharge, err)
	}
	if s.IsNegative() {
		return nil, fmt.Errorf("delivery surcharge must not be negative: %s", deliverySurcharge)
	}
	return &Calculator{surcharge: s}, nil
}

// DeliveryCharge is the flat surcharge when the delivery pincode differs
// from the fulfilling franchise's pincode, zero otherwise.
func (c *Calculator) DeliveryCharge(franchisePincode, deliveryPincode string) decimal.Decimal {
	if franchisePincode == deliveryPincode {
		return decimal.Zero
	}
	return c.surcharge
}

// Subtotal applies the discount percentage to the unit price and scales by
// quantity, rounded to 2 places.
func Subtotal(unitPrice string, discountPercent int32, quantity int32) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(unitPrice)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid unit price %q: %w", unitPrice, err)
	}
	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("unit price must not be negative: %s", unitPrice)
	}
	if discountPercent < 0 || discountPercent > 100 {
		return decimal.Zero, fmt.Errorf("discount must be between 0 and 100: %d", discountPercent)
	}
	if quantity < 1 {
		return decimal.Zero, fmt.Errorf("quantity must be at least 1: %d", quantity)
	}

	discount := decimal.NewFromInt32(100 - discountPercent).Div(decimal.NewFromInt(100))
	return price.Mul(discount).Mul(decimal.NewFromInt32(quantity)).Round(2), nil
}

type Amounts struct {
	Subtotal       decimal.Decimal
	DeliveryCharge decimal.Decimal
	Total          decimal.Decimal
}

func (c *Calculator) OrderAmounts(unitPrice string, discountPercent, quantity int32, franchisePincode, deliveryPincode string) (Amounts, error) {
	subtotal, err := Subtotal(unitPrice, discountPercent, quantity)
	if err != nil {
		return Amounts{}, err
	}
	charge := c.DeliveryCharge(franchisePincode, deliveryPincode)
	return Amounts{
		Subtotal:       subtotal,
		DeliveryCharge: charge,
		Total:          subtotal.Add(charge),
	}, nil
}
