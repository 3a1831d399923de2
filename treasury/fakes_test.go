package treasury

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mmdatafocus/dealer_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

const testBusiness = "biz-1"

var testNow = time.Date(2026, time.October, 14, 10, 30, 0, 0, time.UTC)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	require.Truef(t, d(want).Equal(got), "want %s, got %s %v", want, got.String(), msgAndArgs)
}

func testContext() context.Context {
	return utils.SetBusinessIdInContext(context.Background(), testBusiness)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func inWindow(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && !t.Before(*to) {
		return false
	}
	return true
}

// fakeStore implements every reader over in-memory slices, honoring the filters.
type fakeStore struct {
	mu           sync.Mutex
	accounts     []BankAccount
	items        []InventoryItem
	sales        []SaleRecord
	obligations  []FinancialObligation
	transactions []CashTransaction

	failWith map[string]error
	block    map[string]bool
	calls    map[string]int
}

func (f *fakeStore) enter(ctx context.Context, name string) error {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[name]++
	err := f.failWith[name]
	block := f.block[name]
	f.mu.Unlock()
	if err != nil {
		return err
	}
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (f *fakeStore) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeStore) ListAccounts(ctx context.Context, businessId string, _ AccountFilter) ([]BankAccount, error) {
	if err := f.enter(ctx, "accounts"); err != nil {
		return nil, err
	}
	return append([]BankAccount(nil), f.accounts...), nil
}

func (f *fakeStore) ListItems(ctx context.Context, businessId string, filter InventoryFilter) ([]InventoryItem, error) {
	if err := f.enter(ctx, "inventory"); err != nil {
		return nil, err
	}
	var out []InventoryItem
	for _, item := range f.items {
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, item.Status) {
			continue
		}
		if filter.AcquiredFrom != nil || filter.AcquiredTo != nil {
			if item.AcquiredAt == nil || !inWindow(*item.AcquiredAt, filter.AcquiredFrom, filter.AcquiredTo) {
				continue
			}
		}
		out = append(out, item)
	}
	return out, nil
}

func (f *fakeStore) ListSales(ctx context.Context, businessId string, filter SaleFilter) ([]SaleRecord, error) {
	if err := f.enter(ctx, "sales"); err != nil {
		return nil, err
	}
	var out []SaleRecord
	for _, s := range f.sales {
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, s.Status) {
			continue
		}
		if !inWindow(s.SaleDate, filter.From, filter.To) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeStore) ListObligations(ctx context.Context, businessId string, filter ObligationFilter) ([]FinancialObligation, error) {
	if err := f.enter(ctx, "obligations"); err != nil {
		return nil, err
	}
	var out []FinancialObligation
	for _, o := range f.obligations {
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, o.Status) {
			continue
		}
		if !inWindow(o.DueDate, filter.DueFrom, filter.DueTo) {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeStore) ListTransactions(ctx context.Context, businessId string, filter TransactionFilter) ([]CashTransaction, error) {
	if err := f.enter(ctx, "transactions"); err != nil {
		return nil, err
	}
	var out []CashTransaction
	for _, tx := range f.transactions {
		if !inWindow(tx.Date, filter.From, filter.To) {
			continue
		}
		out = append(out, tx)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func containsStatus[T comparable](list []T, v T) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func (f *fakeStore) readers() Readers {
	return Readers{
		Obligations:  f,
		Inventory:    f,
		Sales:        f,
		Accounts:     f,
		Transactions: f,
	}
}

func newTestEngine(f *fakeStore) *Engine {
	e := NewEngine(f.readers(), quietLogger())
	e.Now = func() time.Time { return testNow }
	return e
}

func pct(stakeholder, name, percentage string) StakeholderShare {
	return StakeholderShare{StakeholderId: stakeholder, Name: name, Percentage: d(percentage), FixedValue: decimal.Zero}
}

func fixed(stakeholder, name, value string) StakeholderShare {
	return StakeholderShare{StakeholderId: stakeholder, Name: name, Percentage: decimal.Zero, FixedValue: d(value)}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
