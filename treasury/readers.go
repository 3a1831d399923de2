package treasury

import (
	"context"
	"time"
)

// ObligationFilter selects obligations by status and a half-open due date window [DueFrom, DueTo).
// A nil bound is unbounded.
type ObligationFilter struct {
	Statuses []ObligationStatus
	DueFrom  *time.Time
	DueTo    *time.Time
}

type InventoryFilter struct {
	Statuses     []InventoryStatus
	AcquiredFrom *time.Time
	AcquiredTo   *time.Time
}

type SaleFilter struct {
	Statuses []SaleStatus
	From     *time.Time
	To       *time.Time
}

type AccountFilter struct{}

// TransactionFilter returns the newest transactions first. Limit <= 0 means no limit.
type TransactionFilter struct {
	From  *time.Time
	To    *time.Time
	Limit int
}

type ObligationReader interface {
	ListObligations(ctx context.Context, businessId string, filter ObligationFilter) ([]FinancialObligation, error)
}

type InventoryReader interface {
	ListItems(ctx context.Context, businessId string, filter InventoryFilter) ([]InventoryItem, error)
}

type SaleReader interface {
	ListSales(ctx context.Context, businessId string, filter SaleFilter) ([]SaleRecord, error)
}

type AccountReader interface {
	ListAccounts(ctx context.Context, businessId string, filter AccountFilter) ([]BankAccount, error)
}

type TransactionReader interface {
	ListTransactions(ctx context.Context, businessId string, filter TransactionFilter) ([]CashTransaction, error)
}

// Readers groups the storage collaborators the engine fetches from.
// Transactions may be nil, in which case snapshots carry no recent transactions.
type Readers struct {
	Obligations  ObligationReader
	Inventory    InventoryReader
	Sales        SaleReader
	Accounts     AccountReader
	Transactions TransactionReader
}
