package treasury

import (
	"sort"

	"github.com/shopspring/decimal"
)

// SalesTotals are the period aggregates over completed sales.
type SalesTotals struct {
	SalesTotal decimal.Decimal
	SoldCost   decimal.Decimal
	Profit     decimal.Decimal
}

// DistributeProfit adds each completed sale's profit to the positions of the stakeholders
// recorded on the sold item, creating positions as needed. Non-completed sales are ignored.
func DistributeProfit(positions Positions, sales []SaleRecord) SalesTotals {
	totals := SalesTotals{
		SalesTotal: decimal.Zero,
		SoldCost:   decimal.Zero,
		Profit:     decimal.Zero,
	}

	ordered := make([]SaleRecord, len(sales))
	copy(ordered, sales)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Id < ordered[j].Id })

	for _, sale := range ordered {
		if sale.Status != SaleStatusCompleted {
			continue
		}
		profit := sale.Profit()
		totals.SalesTotal = totals.SalesTotal.Add(sale.SaleValue)
		totals.SoldCost = totals.SoldCost.Add(sale.CostAtSale())

		for _, share := range sale.Shares {
			pos := positions.upsert(share)
			pos.PeriodProfit = pos.PeriodProfit.Add(ProfitShare(share, profit))
		}
	}
	totals.Profit = totals.SalesTotal.Sub(totals.SoldCost)
	return totals
}
