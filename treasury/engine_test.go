package treasury

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dealershipStore() *fakeStore {
	octAcq := time.Date(2026, time.October, 2, 9, 0, 0, 0, time.UTC)
	sepAcq := time.Date(2026, time.September, 5, 9, 0, 0, 0, time.UTC)
	return &fakeStore{
		accounts: []BankAccount{
			{Id: 1, HolderName: "Main", Balance: d("25000")},
			{Id: 2, HolderName: "Reserve", Balance: d("5000.25")},
		},
		items: []InventoryItem{
			{
				Id: 10, Name: "Corolla", Plate: "ABC-1234", BaseCost: d("100000"), ServiceCost: d("10000"),
				Status: InventoryStatusAvailable, AcquiredAt: &octAcq, ImageKey: "cars/10.jpg",
				Shares: []StakeholderShare{pct("p1", "Ana", "60"), pct("p2", "Bruno", "40")},
			},
			{
				Id: 11, Name: "Civic", Plate: "XYZ-9876", BaseCost: d("80000"),
				Status: InventoryStatusReserved, AcquiredAt: &sepAcq,
				Shares: []StakeholderShare{fixed("p2", "Bruno", "30000")},
			},
			{
				Id: 12, Name: "Gol", Plate: "GOL-0001", BaseCost: d("40000"), ServiceCost: d("2000"),
				Status: InventoryStatusSold, AcquiredAt: &sepAcq,
				Shares: []StakeholderShare{pct("p3", "Carla", "100")},
			},
		},
		sales: []SaleRecord{
			{
				Id: 1, ItemId: 12, ItemName: "Gol", SaleValue: d("50000"), SaleDate: time.Date(2026, time.October, 8, 0, 0, 0, 0, time.UTC),
				Status: SaleStatusCompleted, BaseCostAtSale: d("40000"), ServiceCostAtSale: d("2000"),
				Shares: []StakeholderShare{pct("p3", "Carla", "100")},
			},
			{
				Id: 2, ItemId: 13, SaleValue: d("70000"), SaleDate: time.Date(2026, time.August, 20, 0, 0, 0, 0, time.UTC),
				Status: SaleStatusCompleted, BaseCostAtSale: d("60000"),
				Shares: []StakeholderShare{pct("p1", "Ana", "50"), pct("p2", "Bruno", "50")},
			},
			{
				Id: 3, ItemId: 14, SaleValue: d("99999"), SaleDate: time.Date(2026, time.October, 9, 0, 0, 0, 0, time.UTC),
				Status: SaleStatusPending, Shares: []StakeholderShare{pct("p1", "Ana", "100")},
			},
		},
		obligations: []FinancialObligation{
			{Id: 1, Type: ObligationReceivable, TotalValue: d("8000"), PaidValue: d("1000"), DueDate: time.Date(2026, time.November, 3, 0, 0, 0, 0, time.UTC), Status: ObligationStatusOpen},
			{Id: 2, Type: ObligationPayable, TotalValue: d("5000"), DueDate: time.Date(2026, time.November, 20, 0, 0, 0, 0, time.UTC), Status: ObligationStatusOpen},
			{Id: 3, Type: ObligationPayable, TotalValue: d("2500"), DueDate: time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC), Status: ObligationStatusOpen},
			{Id: 4, Type: ObligationPayable, TotalValue: d("99999"), DueDate: time.Date(2026, time.November, 1, 0, 0, 0, 0, time.UTC), Status: ObligationStatusPaid},
		},
		transactions: []CashTransaction{
			{Id: 3, AccountId: 1, Date: time.Date(2026, time.October, 8, 0, 0, 0, 0, time.UTC), Description: "Gol sale", Direction: TransactionIn, Amount: d("50000")},
			{Id: 2, AccountId: 1, Date: time.Date(2026, time.October, 2, 0, 0, 0, 0, time.UTC), Description: "Corolla purchase", Direction: TransactionOut, Amount: d("100000")},
		},
	}
}

func TestGetSnapshot_CurrentMonth(t *testing.T) {
	store := dealershipStore()
	engine := newTestEngine(store)
	engine.ResolveImage = func(_ context.Context, key string) string { return "https://cdn.example/" + key }

	snap, err := engine.GetSnapshot(testContext(), PeriodCurrentMonth)
	require.NoError(t, err)

	requireDecimal(t, "30000.25", snap.Cash)
	requireDecimal(t, "190000", snap.InventoryValue)
	requireDecimal(t, "7000", snap.Receivables)
	requireDecimal(t, "7500", snap.Payables)
	requireDecimal(t, "219500.25", snap.NetWorth)
	assert.True(t, snap.NetWorth.Equal(snap.Cash.Add(snap.InventoryValue).Add(snap.Receivables).Sub(snap.Payables)))

	requireDecimal(t, "50000", snap.PeriodSalesTotal)
	requireDecimal(t, "8000", snap.PeriodProfit)
	requireDecimal(t, "100000", snap.PeriodPurchasesTotal)
	assert.Len(t, snap.Accounts, 2)
	assert.Len(t, snap.RecentTransactions, 2)

	require.NotNil(t, snap.PeriodStart)
	assert.Equal(t, time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC), *snap.PeriodStart)
	assert.Equal(t, time.Date(2026, time.November, 1, 0, 0, 0, 0, time.UTC), snap.PeriodEnd)

	require.Len(t, snap.StakeholderPositions, 3)
	bruno, ana, carla := snap.StakeholderPositions[0], snap.StakeholderPositions[1], snap.StakeholderPositions[2]
	assert.Equal(t, "p2", bruno.StakeholderId)
	requireDecimal(t, "74000", bruno.InvestedAmount)
	assert.Equal(t, 2, bruno.VehicleCount)
	requireDecimal(t, "38.9474", bruno.ExposurePct)

	assert.Equal(t, "p1", ana.StakeholderId)
	requireDecimal(t, "66000", ana.InvestedAmount)
	requireDecimal(t, "34.7368", ana.ExposurePct)
	assert.Equal(t, "https://cdn.example/cars/10.jpg", ana.Vehicles[0].Image)

	assert.Equal(t, "p3", carla.StakeholderId)
	requireDecimal(t, "0", carla.InvestedAmount)
	requireDecimal(t, "8000", carla.PeriodProfit)
	assert.Equal(t, 0, carla.VehicleCount)
}

func TestGetSnapshot_PriorPeriod(t *testing.T) {
	engine := newTestEngine(dealershipStore())

	snap, err := engine.GetSnapshot(testContext(), PeriodPrior)
	require.NoError(t, err)

	assert.Nil(t, snap.PeriodStart)
	requireDecimal(t, "70000", snap.PeriodSalesTotal)
	requireDecimal(t, "10000", snap.PeriodProfit)
	requireDecimal(t, "120000", snap.PeriodPurchasesTotal)
	assert.Empty(t, snap.RecentTransactions)

	byId := map[string]StakeholderPosition{}
	for _, p := range snap.StakeholderPositions {
		byId[p.StakeholderId] = p
	}
	requireDecimal(t, "5000", byId["p1"].PeriodProfit)
	requireDecimal(t, "5000", byId["p2"].PeriodProfit)
	requireDecimal(t, "66000", byId["p1"].InvestedAmount)
}

func TestGetSnapshot_Idempotent(t *testing.T) {
	engine := newTestEngine(dealershipStore())

	first, err := engine.GetSnapshot(testContext(), PeriodCurrentMonth)
	require.NoError(t, err)
	second, err := engine.GetSnapshot(testContext(), PeriodCurrentMonth)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestGetSnapshot_NoInventory(t *testing.T) {
	store := dealershipStore()
	store.items = nil
	engine := newTestEngine(store)

	snap, err := engine.GetSnapshot(testContext(), PeriodCurrentMonth)
	require.NoError(t, err)

	requireDecimal(t, "0", snap.InventoryValue)
	require.NotEmpty(t, snap.StakeholderPositions)
	for _, p := range snap.StakeholderPositions {
		assert.True(t, p.ExposurePct.IsZero(), p.StakeholderId)
	}
}

func TestGetSnapshot_ReaderFailureFailsWholeCall(t *testing.T) {
	boom := errors.New("connection reset")
	for _, reader := range []string{"accounts", "inventory", "sales", "obligations", "transactions"} {
		t.Run(reader, func(t *testing.T) {
			store := dealershipStore()
			store.failWith = map[string]error{reader: boom}
			engine := newTestEngine(store)

			snap, err := engine.GetSnapshot(testContext(), PeriodCurrentMonth)
			assert.Nil(t, snap)
			require.Error(t, err)
			assert.ErrorIs(t, err, boom)
		})
	}
}

func TestGetSnapshot_CancelledContext(t *testing.T) {
	store := dealershipStore()
	store.block = map[string]bool{"sales": true}
	engine := newTestEngine(store)

	ctx, cancel := context.WithTimeout(testContext(), 50*time.Millisecond)
	defer cancel()

	snap, err := engine.GetSnapshot(ctx, PeriodCurrentMonth)
	assert.Nil(t, snap)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGetSnapshot_RequiresBusiness(t *testing.T) {
	engine := newTestEngine(dealershipStore())

	_, err := engine.GetSnapshot(context.Background(), PeriodCurrentMonth)
	assert.ErrorIs(t, err, ErrBusinessRequired)

	_, err = engine.GetSnapshot(testContext(), SnapshotPeriod("WEEK"))
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestGetSnapshot_WithoutTransactionReader(t *testing.T) {
	store := dealershipStore()
	readers := store.readers()
	readers.Transactions = nil
	engine := NewEngine(readers, quietLogger())
	engine.Now = func() time.Time { return testNow }

	snap, err := engine.GetSnapshot(testContext(), PeriodCurrentMonth)
	require.NoError(t, err)
	assert.NotNil(t, snap.RecentTransactions)
	assert.Empty(t, snap.RecentTransactions)
}

func TestGetForecast(t *testing.T) {
	store := dealershipStore()
	engine := newTestEngine(store)

	buckets, err := engine.GetForecast(testContext(), 0)
	require.NoError(t, err)
	require.Len(t, buckets, DefaultForecastHorizon)

	assert.Equal(t, "2026-Nov", buckets[0].Label)
	requireDecimal(t, "5000", buckets[0].Payable)
	requireDecimal(t, "7000", buckets[0].Receivable)
	requireDecimal(t, "2000", buckets[0].ProjectedResult)
	assert.Equal(t, "2027-Feb", buckets[3].Label)

	buckets, err = engine.GetForecast(testContext(), 12)
	require.NoError(t, err)
	assert.Len(t, buckets, 12)

	_, err = engine.GetForecast(testContext(), MaxForecastHorizon+1)
	assert.ErrorIs(t, err, ErrInvalidHorizon)
}

func TestGetForecast_ReaderFailure(t *testing.T) {
	store := dealershipStore()
	store.failWith = map[string]error{"obligations": errors.New("timeout")}
	engine := newTestEngine(store)

	buckets, err := engine.GetForecast(testContext(), 4)
	assert.Nil(t, buckets)
	assert.Error(t, err)
}
