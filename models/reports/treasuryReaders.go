package reports

import (
	"context"
	"time"

	"github.com/mmdatafocus/dealer_backend/config"
	"github.com/mmdatafocus/dealer_backend/models"
	"github.com/mmdatafocus/dealer_backend/treasury"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TreasuryReaders reads the treasury tables through gorm. A nil DB falls back to the
// global connection at call time.
type TreasuryReaders struct {
	DB *gorm.DB
}

func NewTreasuryReaders(db *gorm.DB) treasury.Readers {
	r := &TreasuryReaders{DB: db}
	return treasury.Readers{
		Obligations:  r,
		Inventory:    r,
		Sales:        r,
		Accounts:     r,
		Transactions: r,
	}
}

func (r *TreasuryReaders) conn(ctx context.Context) *gorm.DB {
	db := r.DB
	if db == nil {
		db = config.GetDB()
	}
	return db.WithContext(ctx)
}

func orderShares(db *gorm.DB) *gorm.DB {
	return db.Order("position, id")
}

func (r *TreasuryReaders) ListItems(ctx context.Context, businessId string, filter treasury.InventoryFilter) ([]treasury.InventoryItem, error) {
	defer logSlowReport(ctx, "treasury.ListItems", time.Now(), nil)

	q := r.conn(ctx).Model(&models.InventoryItem{}).Where("business_id = ?", businessId)
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", filter.Statuses)
	}
	if filter.AcquiredFrom != nil {
		q = q.Where("acquired_at >= ?", *filter.AcquiredFrom)
	}
	if filter.AcquiredTo != nil {
		q = q.Where("acquired_at < ?", *filter.AcquiredTo)
	}

	var rows []models.InventoryItem
	if err := q.Preload("Shares", orderShares).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]treasury.InventoryItem, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToRecord())
	}
	return out, nil
}

func (r *TreasuryReaders) ListSales(ctx context.Context, businessId string, filter treasury.SaleFilter) ([]treasury.SaleRecord, error) {
	defer logSlowReport(ctx, "treasury.ListSales", time.Now(), nil)

	q := r.conn(ctx).Model(&models.SaleRecord{}).Where("business_id = ?", businessId)
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", filter.Statuses)
	}
	if filter.From != nil {
		q = q.Where("sale_date >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("sale_date < ?", *filter.To)
	}

	var rows []models.SaleRecord
	if err := q.Preload("Shares", orderShares).Order("sale_date, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]treasury.SaleRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToRecord())
	}
	return out, nil
}

func (r *TreasuryReaders) ListObligations(ctx context.Context, businessId string, filter treasury.ObligationFilter) ([]treasury.FinancialObligation, error) {
	defer logSlowReport(ctx, "treasury.ListObligations", time.Now(), nil)

	q := r.conn(ctx).Model(&models.FinancialObligation{}).Where("business_id = ?", businessId)
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", filter.Statuses)
	}
	if filter.DueFrom != nil {
		q = q.Where("due_date >= ?", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		q = q.Where("due_date < ?", *filter.DueTo)
	}

	var rows []models.FinancialObligation
	if err := q.Order("due_date, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]treasury.FinancialObligation, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToRecord())
	}
	return out, nil
}

func (r *TreasuryReaders) ListAccounts(ctx context.Context, businessId string, _ treasury.AccountFilter) ([]treasury.BankAccount, error) {
	defer logSlowReport(ctx, "treasury.ListAccounts", time.Now(), nil)

	var rows []models.BankAccount
	err := r.conn(ctx).
		Where("business_id = ? AND is_active = ?", businessId, true).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]treasury.BankAccount, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToRecord())
	}
	return out, nil
}

type cashTransactionRow struct {
	Id              int
	AccountId       int
	TransactionDate time.Time
	Description     string
	Direction       treasury.TransactionDirection
	Amount          decimal.Decimal
}

// ListTransactions is raw SQL, so it filters business_id itself.
func (r *TreasuryReaders) ListTransactions(ctx context.Context, businessId string, filter treasury.TransactionFilter) ([]treasury.CashTransaction, error) {
	defer logSlowReport(ctx, "treasury.ListTransactions", time.Now(), nil)

	sql := `
		SELECT id, account_id, transaction_date, COALESCE(description, '') AS description, direction, COALESCE(amount, 0) AS amount
		FROM cash_transactions
		WHERE business_id = ?
	`
	args := []interface{}{businessId}
	if filter.From != nil {
		sql += " AND transaction_date >= ?"
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		sql += " AND transaction_date < ?"
		args = append(args, *filter.To)
	}
	sql += " ORDER BY transaction_date DESC, id DESC"
	if filter.Limit > 0 {
		sql += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	var rows []cashTransactionRow
	if err := r.conn(ctx).Raw(sql, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]treasury.CashTransaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, treasury.CashTransaction{
			Id:          row.Id,
			AccountId:   row.AccountId,
			Date:        row.TransactionDate,
			Description: row.Description,
			Direction:   row.Direction,
			Amount:      row.Amount,
		})
	}
	return out, nil
}

// ListTreasuryBusinessIds returns every business with rows in a treasury table.
func ListTreasuryBusinessIds(ctx context.Context, db *gorm.DB) ([]string, error) {
	if db == nil {
		db = config.GetDB()
	}
	var ids []string
	err := db.WithContext(ctx).Raw(`
		SELECT business_id FROM bank_accounts
		UNION SELECT business_id FROM inventory_items
		UNION SELECT business_id FROM sale_records
		UNION SELECT business_id FROM financial_obligations
		ORDER BY business_id
	`).Scan(&ids).Error
	return ids, err
}
