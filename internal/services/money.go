package services

import "github.com/shopspring/decimal"

// roundMoney converts an amount to a float rounded to 2 decimal places.
func roundMoney(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// lineTotal multiplies a unit price by a quantity without float drift.
func lineTotal(price float64, quantity int) decimal.Decimal {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(quantity)))
}
