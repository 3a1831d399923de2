package treasury

import (
	"context"
	"fmt"
	"time"

	"github.com/mmdatafocus/dealer_backend/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const defaultRecentLimit = 10

// ImageResolver turns a stored object key into a URL the dashboard can load.
type ImageResolver func(ctx context.Context, key string) string

// Engine computes treasury snapshots and forecasts from its readers.
// It holds no state between calls.
type Engine struct {
	Readers        Readers
	Logger         *logrus.Logger
	Now            func() time.Time
	ResolveImage   ImageResolver
	RecentLimit    int
	DefaultHorizon int

	tracer trace.Tracer
}

func NewEngine(readers Readers, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Engine{
		Readers:        readers,
		Logger:         logger,
		Now:            time.Now,
		RecentLimit:    defaultRecentLimit,
		DefaultHorizon: DefaultForecastHorizon,
		tracer:         otel.Tracer("dealer-treasury"),
	}
}

func (e *Engine) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

func (e *Engine) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	t := e.tracer
	if t == nil {
		t = otel.Tracer("dealer-treasury")
	}
	return t.Start(ctx, name, trace.WithAttributes(attrs...))
}

func businessFromContext(ctx context.Context) (string, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return "", ErrBusinessRequired
	}
	return businessId, nil
}

// periodBounds returns the sale/purchase window for a period. PRIOR has no lower bound
// and ends where the current month starts.
func periodBounds(period SnapshotPeriod, now time.Time) (*time.Time, time.Time, error) {
	start, end := utils.GetMonthRange(now)
	switch period {
	case PeriodCurrentMonth:
		return &start, end, nil
	case PeriodPrior:
		return nil, start, nil
	default:
		return nil, time.Time{}, ErrInvalidPeriod
	}
}

// GetSnapshot merges the readers' output for the business in ctx into one snapshot.
// Any reader failure fails the whole call and no snapshot is returned.
func (e *Engine) GetSnapshot(ctx context.Context, period SnapshotPeriod) (*TreasurySnapshot, error) {
	businessId, err := businessFromContext(ctx)
	if err != nil {
		return nil, err
	}
	from, to, err := periodBounds(period, e.now())
	if err != nil {
		return nil, err
	}

	ctx, span := e.startSpan(ctx, "treasury.GetSnapshot",
		attribute.String("business_id", businessId),
		attribute.String("period", string(period)),
	)
	defer span.End()

	var (
		accounts     []BankAccount
		onHand       []InventoryItem
		acquired     []InventoryItem
		sales        []SaleRecord
		obligations  []FinancialObligation
		transactions []CashTransaction
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		accounts, err = e.Readers.Accounts.ListAccounts(gctx, businessId, AccountFilter{})
		if err != nil {
			return fmt.Errorf("account reader: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		onHand, err = e.Readers.Inventory.ListItems(gctx, businessId, InventoryFilter{Statuses: OnHandStatuses})
		if err != nil {
			return fmt.Errorf("inventory reader: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		acquired, err = e.Readers.Inventory.ListItems(gctx, businessId, InventoryFilter{AcquiredFrom: from, AcquiredTo: &to})
		if err != nil {
			return fmt.Errorf("inventory reader (purchases): %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		sales, err = e.Readers.Sales.ListSales(gctx, businessId, SaleFilter{
			Statuses: []SaleStatus{SaleStatusCompleted},
			From:     from,
			To:       &to,
		})
		if err != nil {
			return fmt.Errorf("sales reader: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		obligations, err = e.Readers.Obligations.ListObligations(gctx, businessId, ObligationFilter{
			Statuses: []ObligationStatus{ObligationStatusOpen},
		})
		if err != nil {
			return fmt.Errorf("obligation reader: %w", err)
		}
		return nil
	})
	if e.Readers.Transactions != nil {
		g.Go(func() (err error) {
			transactions, err = e.Readers.Transactions.ListTransactions(gctx, businessId, TransactionFilter{
				From:  from,
				To:    &to,
				Limit: e.recentLimit(),
			})
			if err != nil {
				return fmt.Errorf("transaction reader: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		e.Logger.WithFields(logrus.Fields{
			"business_id": businessId,
			"period":      period,
		}).WithError(err).Error("treasury snapshot failed")
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	positions, inventoryValue := AllocateEquity(onHand)
	totals := DistributeProfit(positions, sales)
	receivables, payables := SumOutstanding(obligations)

	rollup := Rollup{
		Cash:           SumBalances(accounts),
		InventoryValue: inventoryValue,
		Receivables:    receivables,
		Payables:       payables,
	}
	sorted := positions.Sorted()
	ApplyExposure(sorted, inventoryValue)
	e.resolveImages(ctx, sorted)

	if accounts == nil {
		accounts = []BankAccount{}
	}
	if transactions == nil {
		transactions = []CashTransaction{}
	}

	return &TreasurySnapshot{
		Period:               period,
		PeriodStart:          from,
		PeriodEnd:            to,
		NetWorth:             rollup.NetWorth(),
		Cash:                 rollup.Cash,
		InventoryValue:       rollup.InventoryValue,
		Receivables:          rollup.Receivables,
		Payables:             rollup.Payables,
		Accounts:             accounts,
		StakeholderPositions: sorted,
		PeriodSalesTotal:     totals.SalesTotal,
		PeriodPurchasesTotal: SumPurchases(acquired),
		PeriodProfit:         totals.Profit,
		RecentTransactions:   transactions,
	}, nil
}

// GetForecast projects open obligations over the next horizon months.
// A horizon <= 0 selects the engine default.
func (e *Engine) GetForecast(ctx context.Context, horizon int) ([]ForecastBucket, error) {
	businessId, err := businessFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if horizon <= 0 {
		horizon = e.defaultHorizon()
	}
	if horizon > MaxForecastHorizon {
		return nil, ErrInvalidHorizon
	}

	ctx, span := e.startSpan(ctx, "treasury.GetForecast",
		attribute.String("business_id", businessId),
		attribute.Int("horizon", horizon),
	)
	defer span.End()

	now := e.now()
	start, end := utils.GetNextMonthsRange(now, horizon)
	obligations, err := e.Readers.Obligations.ListObligations(ctx, businessId, ObligationFilter{
		Statuses: []ObligationStatus{ObligationStatusOpen},
		DueFrom:  &start,
		DueTo:    &end,
	})
	if err != nil {
		err = fmt.Errorf("obligation reader: %w", err)
		span.RecordError(err)
		e.Logger.WithFields(logrus.Fields{
			"business_id": businessId,
			"horizon":     horizon,
		}).WithError(err).Error("treasury forecast failed")
		return nil, err
	}
	return ProjectForecast(obligations, now, horizon), nil
}

func (e *Engine) recentLimit() int {
	if e.RecentLimit <= 0 {
		return defaultRecentLimit
	}
	return e.RecentLimit
}

func (e *Engine) defaultHorizon() int {
	if e.DefaultHorizon <= 0 || e.DefaultHorizon > MaxForecastHorizon {
		return DefaultForecastHorizon
	}
	return e.DefaultHorizon
}

func (e *Engine) resolveImages(ctx context.Context, positions []StakeholderPosition) {
	if e.ResolveImage == nil {
		return
	}
	seen := map[string]string{}
	for i := range positions {
		for j := range positions[i].Vehicles {
			key := positions[i].Vehicles[j].Image
			if key == "" {
				continue
			}
			url, ok := seen[key]
			if !ok {
				url = e.ResolveImage(ctx, key)
				seen[key] = url
			}
			positions[i].Vehicles[j].Image = url
		}
	}
}
