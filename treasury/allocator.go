package treasury

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Positions accumulates stakeholder positions keyed by stakeholder id.
type Positions map[string]*StakeholderPosition

func (p Positions) upsert(share StakeholderShare) *StakeholderPosition {
	pos, ok := p[share.StakeholderId]
	if !ok {
		pos = &StakeholderPosition{
			StakeholderId:  share.StakeholderId,
			Name:           share.Name,
			InvestedAmount: decimal.Zero,
			PeriodProfit:   decimal.Zero,
			ExposurePct:    decimal.Zero,
			Vehicles:       []VehicleExposure{},
		}
		p[share.StakeholderId] = pos
	}
	if pos.Name == "" {
		pos.Name = share.Name
	}
	return pos
}

// Sorted returns the positions by invested amount descending, ties by stakeholder id.
func (p Positions) Sorted() []StakeholderPosition {
	out := make([]StakeholderPosition, 0, len(p))
	for _, pos := range p {
		out = append(out, *pos)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].InvestedAmount.Cmp(out[j].InvestedAmount); c != 0 {
			return c > 0
		}
		return out[i].StakeholderId < out[j].StakeholderId
	})
	return out
}

// AllocateEquity spreads the cost of on-hand items over their stakeholders and returns the
// positions together with the total on-hand inventory value. Sold items are skipped.
// Vehicle images carry the raw object key; callers resolve them to URLs.
func AllocateEquity(items []InventoryItem) (Positions, decimal.Decimal) {
	positions := Positions{}
	inventoryValue := decimal.Zero

	ordered := make([]InventoryItem, len(items))
	copy(ordered, items)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Id < ordered[j].Id })

	for _, item := range ordered {
		if !item.Status.OnHand() {
			continue
		}
		totalCost := item.TotalCost()
		inventoryValue = inventoryValue.Add(totalCost)

		for _, share := range item.Shares {
			stake := StakeValue(share, totalCost)
			pos := positions.upsert(share)
			pos.InvestedAmount = pos.InvestedAmount.Add(stake)
			pos.VehicleCount++
			pos.Vehicles = append(pos.Vehicles, VehicleExposure{
				ItemId: item.Id,
				Name:   item.Name,
				Plate:  item.Plate,
				Value:  stake,
				Image:  item.ImageKey,
			})
		}
	}
	return positions, inventoryValue
}
