package treasury

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidPeriod    = errors.New("invalid snapshot period")
	ErrInvalidHorizon   = errors.New("invalid forecast horizon")
	ErrBusinessRequired = errors.New("business id is required")
)

var hundred = decimal.NewFromInt(100)

type SnapshotPeriod string

const (
	PeriodCurrentMonth SnapshotPeriod = "CURRENT_MONTH"
	PeriodPrior        SnapshotPeriod = "PRIOR"
)

// ParsePeriod accepts the enum names and the short forms used by the dashboard
// ("current", "prior"). An empty string means the current month.
func ParsePeriod(s string) (SnapshotPeriod, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "CURRENT", string(PeriodCurrentMonth):
		return PeriodCurrentMonth, nil
	case "PRIOR", "HISTORICAL":
		return PeriodPrior, nil
	default:
		return "", ErrInvalidPeriod
	}
}

type InventoryStatus string

const (
	InventoryStatusAvailable InventoryStatus = "AVAILABLE"
	InventoryStatusInPrep    InventoryStatus = "IN_PREP"
	InventoryStatusReserved  InventoryStatus = "RESERVED"
	InventoryStatusSold      InventoryStatus = "SOLD"
)

// OnHandStatuses are the statuses that count as current inventory exposure.
var OnHandStatuses = []InventoryStatus{
	InventoryStatusAvailable,
	InventoryStatusInPrep,
	InventoryStatusReserved,
}

func (s InventoryStatus) OnHand() bool {
	return s == InventoryStatusAvailable || s == InventoryStatusInPrep || s == InventoryStatusReserved
}

type ObligationType string

const (
	ObligationPayable    ObligationType = "PAYABLE"
	ObligationReceivable ObligationType = "RECEIVABLE"
)

type ObligationStatus string

const (
	ObligationStatusOpen      ObligationStatus = "OPEN"
	ObligationStatusPaid      ObligationStatus = "PAID"
	ObligationStatusCancelled ObligationStatus = "CANCELLED"
)

type SaleStatus string

const (
	SaleStatusPending   SaleStatus = "PENDING"
	SaleStatusCompleted SaleStatus = "COMPLETED"
	SaleStatusCancelled SaleStatus = "CANCELLED"
)

type TransactionDirection string

const (
	TransactionIn  TransactionDirection = "IN"
	TransactionOut TransactionDirection = "OUT"
)

type BankAccount struct {
	Id         int             `json:"id"`
	HolderName string          `json:"holder_name"`
	Balance    decimal.Decimal `json:"balance"`
}

type StakeholderShare struct {
	StakeholderId string          `json:"stakeholder_id"`
	Name          string          `json:"name"`
	Percentage    decimal.Decimal `json:"percentage"`
	FixedValue    decimal.Decimal `json:"fixed_value"`
}

type InventoryItem struct {
	Id          int                `json:"id"`
	Name        string             `json:"name"`
	Plate       string             `json:"plate"`
	BaseCost    decimal.Decimal    `json:"base_cost"`
	ServiceCost decimal.Decimal    `json:"service_cost"`
	Status      InventoryStatus    `json:"status"`
	AcquiredAt  *time.Time         `json:"acquired_at,omitempty"`
	ImageKey    string             `json:"image_key,omitempty"`
	Shares      []StakeholderShare `json:"shares"`
}

// TotalCost is base plus service cost, with negative components read as zero.
func (i InventoryItem) TotalCost() decimal.Decimal {
	return nonNegative(i.BaseCost).Add(nonNegative(i.ServiceCost))
}

type FinancialObligation struct {
	Id          int              `json:"id"`
	Type        ObligationType   `json:"type"`
	Description string           `json:"description"`
	TotalValue  decimal.Decimal  `json:"total_value"`
	PaidValue   decimal.Decimal  `json:"paid_value"`
	DueDate     time.Time        `json:"due_date"`
	Status      ObligationStatus `json:"status"`
}

// Outstanding is total minus paid. Overpaid obligations have nothing outstanding.
func (o FinancialObligation) Outstanding() decimal.Decimal {
	return nonNegative(o.TotalValue.Sub(o.PaidValue))
}

type SaleRecord struct {
	Id                int                `json:"id"`
	ItemId            int                `json:"item_id"`
	ItemName          string             `json:"item_name"`
	SaleValue         decimal.Decimal    `json:"sale_value"`
	SaleDate          time.Time          `json:"sale_date"`
	Status            SaleStatus         `json:"status"`
	BaseCostAtSale    decimal.Decimal    `json:"base_cost_at_sale"`
	ServiceCostAtSale decimal.Decimal    `json:"service_cost_at_sale"`
	Shares            []StakeholderShare `json:"shares"`
}

func (s SaleRecord) CostAtSale() decimal.Decimal {
	return nonNegative(s.BaseCostAtSale).Add(nonNegative(s.ServiceCostAtSale))
}

// Profit may be negative when the item sold below cost.
func (s SaleRecord) Profit() decimal.Decimal {
	return s.SaleValue.Sub(s.CostAtSale())
}

type CashTransaction struct {
	Id          int                  `json:"id"`
	AccountId   int                  `json:"account_id"`
	Date        time.Time            `json:"date"`
	Description string               `json:"description"`
	Direction   TransactionDirection `json:"direction"`
	Amount      decimal.Decimal      `json:"amount"`
}

type VehicleExposure struct {
	ItemId int             `json:"item_id"`
	Name   string          `json:"name"`
	Plate  string          `json:"plate"`
	Value  decimal.Decimal `json:"value"`
	Image  string          `json:"image,omitempty"`
}

type StakeholderPosition struct {
	StakeholderId  string            `json:"stakeholder_id"`
	Name           string            `json:"name"`
	InvestedAmount decimal.Decimal   `json:"invested_amount"`
	VehicleCount   int               `json:"vehicle_count"`
	Vehicles       []VehicleExposure `json:"vehicles"`
	PeriodProfit   decimal.Decimal   `json:"period_profit"`
	ExposurePct    decimal.Decimal   `json:"exposure_pct"`
}

type ForecastBucket struct {
	Year            int             `json:"year"`
	Month           time.Month      `json:"month"`
	Label           string          `json:"label"`
	Payable         decimal.Decimal `json:"payable"`
	Receivable      decimal.Decimal `json:"receivable"`
	ProjectedResult decimal.Decimal `json:"projected_result"`
}

type TreasurySnapshot struct {
	Period               SnapshotPeriod        `json:"period"`
	PeriodStart          *time.Time            `json:"period_start,omitempty"`
	PeriodEnd            time.Time             `json:"period_end"`
	NetWorth             decimal.Decimal       `json:"net_worth"`
	Cash                 decimal.Decimal       `json:"cash"`
	InventoryValue       decimal.Decimal       `json:"inventory_value"`
	Receivables          decimal.Decimal       `json:"receivables"`
	Payables             decimal.Decimal       `json:"payables"`
	Accounts             []BankAccount         `json:"accounts"`
	StakeholderPositions []StakeholderPosition `json:"stakeholder_positions"`
	PeriodSalesTotal     decimal.Decimal       `json:"period_sales_total"`
	PeriodPurchasesTotal decimal.Decimal       `json:"period_purchases_total"`
	PeriodProfit         decimal.Decimal       `json:"period_profit"`
	RecentTransactions   []CashTransaction     `json:"recent_transactions"`
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
