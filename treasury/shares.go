package treasury

import "github.com/shopspring/decimal"

// sanitizeShare clamps a share to the range the allocation rules expect.
// Negative fixed values and percentages outside [0,100] contribute nothing.
func sanitizeShare(s StakeholderShare) StakeholderShare {
	if s.FixedValue.IsNegative() {
		s.FixedValue = decimal.Zero
	}
	if s.Percentage.IsNegative() || s.Percentage.GreaterThan(hundred) {
		s.Percentage = decimal.Zero
	}
	return s
}

// StakeValue is the amount a share holds in an item with the given total cost:
// the fixed value when one is set, otherwise the percentage of the total cost.
func StakeValue(share StakeholderShare, totalCost decimal.Decimal) decimal.Decimal {
	share = sanitizeShare(share)
	if share.FixedValue.IsPositive() {
		return share.FixedValue
	}
	return nonNegative(totalCost).Mul(share.Percentage).Div(hundred)
}

// ProfitShare is a stakeholder's part of a sale's profit. It is always driven by the
// percentage, including for stakeholders whose stake was recorded as a fixed value.
func ProfitShare(share StakeholderShare, saleProfit decimal.Decimal) decimal.Decimal {
	share = sanitizeShare(share)
	return saleProfit.Mul(share.Percentage).Div(hundred)
}
