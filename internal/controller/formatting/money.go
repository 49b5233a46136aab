package formatting

import "github.com/shopspring/decimal"

// FormatMoney renders an amount in pesos with two decimals
func FormatMoney(amount decimal.Decimal) string {
	return "₱" + amount.StringFixed(2)
}

// FormatMoneyShort drops the centavos when they are zero
func FormatMoneyShort(amount decimal.Decimal) string {
	if amount.Equal(amount.Truncate(0)) {
		return "₱" + amount.Truncate(0).String()
	}
	return FormatMoney(amount)
}
