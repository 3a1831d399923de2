package models

import (
	"time"

	"github.com/mmdatafocus/dealer_backend/treasury"
	"github.com/mmdatafocus/dealer_backend/utils"
	"github.com/shopspring/decimal"
)

type FinancialObligation struct {
	ID          int                       `gorm:"primary_key" json:"id"`
	BusinessId  string                    `gorm:"index:idx_obligation_business_due,priority:1;not null" json:"business_id"`
	Type        treasury.ObligationType   `gorm:"type:enum('PAYABLE','RECEIVABLE');not null" json:"type"`
	Description string                    `gorm:"size:255;default:null" json:"description"`
	TotalValue  decimal.NullDecimal       `gorm:"type:decimal(20,4);default:null" json:"total_value"`
	PaidValue   decimal.NullDecimal       `gorm:"type:decimal(20,4);default:null" json:"paid_value"`
	DueDate     time.Time                 `gorm:"index:idx_obligation_business_due,priority:2;not null" json:"due_date"`
	Status      treasury.ObligationStatus `gorm:"type:enum('OPEN','PAID','CANCELLED');not null;default:'OPEN'" json:"status"`
	CreatedAt   time.Time                 `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time                 `gorm:"autoUpdateTime" json:"updated_at"`
}

func (FinancialObligation) TableName() string { return "financial_obligations" }

func (o FinancialObligation) ToRecord() treasury.FinancialObligation {
	return treasury.FinancialObligation{
		Id:          o.ID,
		Type:        o.Type,
		Description: o.Description,
		TotalValue:  utils.DecimalOrZero(o.TotalValue),
		PaidValue:   utils.DecimalOrZero(o.PaidValue),
		DueDate:     o.DueDate,
		Status:      o.Status,
	}
}
