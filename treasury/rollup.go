package treasury

import "github.com/shopspring/decimal"

const exposurePlaces = 4

type Rollup struct {
	Cash           decimal.Decimal
	InventoryValue decimal.Decimal
	Receivables    decimal.Decimal
	Payables       decimal.Decimal
}

// NetWorth is cash + inventory + receivables - payables.
func (r Rollup) NetWorth() decimal.Decimal {
	return r.Cash.Add(r.InventoryValue).Add(r.Receivables).Sub(r.Payables)
}

// ExposurePct is the share of inventory value a stakeholder holds, in percent.
// It is zero when there is no inventory.
func ExposurePct(invested, inventoryValue decimal.Decimal) decimal.Decimal {
	if !inventoryValue.IsPositive() {
		return decimal.Zero
	}
	return invested.Mul(hundred).DivRound(inventoryValue, exposurePlaces)
}

func ApplyExposure(positions []StakeholderPosition, inventoryValue decimal.Decimal) {
	for i := range positions {
		positions[i].ExposurePct = ExposurePct(positions[i].InvestedAmount, inventoryValue)
	}
}

func SumBalances(accounts []BankAccount) decimal.Decimal {
	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.Balance)
	}
	return total
}

// SumOutstanding returns the outstanding receivable and payable balances of open obligations.
func SumOutstanding(obligations []FinancialObligation) (receivables, payables decimal.Decimal) {
	receivables, payables = decimal.Zero, decimal.Zero
	for _, o := range obligations {
		if o.Status != ObligationStatusOpen {
			continue
		}
		switch o.Type {
		case ObligationReceivable:
			receivables = receivables.Add(o.Outstanding())
		case ObligationPayable:
			payables = payables.Add(o.Outstanding())
		}
	}
	return receivables, payables
}

// SumPurchases is the base cost of the given items, whatever their status.
func SumPurchases(items []InventoryItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(nonNegative(item.BaseCost))
	}
	return total
}
