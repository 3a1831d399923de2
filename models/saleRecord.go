package models

import (
	"time"

	"github.com/mmdatafocus/dealer_backend/treasury"
	"github.com/mmdatafocus/dealer_backend/utils"
	"github.com/shopspring/decimal"
)

// SaleRecord keeps the item's costs and shares as they were when it was sold.
type SaleRecord struct {
	ID                int                    `gorm:"primary_key" json:"id"`
	BusinessId        string                 `gorm:"index:idx_sale_business_date,priority:1;not null" json:"business_id"`
	ItemId            int                    `gorm:"index;not null" json:"item_id"`
	ItemName          string                 `gorm:"size:255;default:null" json:"item_name"`
	SaleValue         decimal.NullDecimal    `gorm:"type:decimal(20,4);default:null" json:"sale_value"`
	SaleDate          time.Time              `gorm:"index:idx_sale_business_date,priority:2;not null" json:"sale_date"`
	Status            treasury.SaleStatus    `gorm:"type:enum('PENDING','COMPLETED','CANCELLED');not null;default:'PENDING'" json:"status"`
	BaseCostAtSale    decimal.NullDecimal    `gorm:"type:decimal(20,4);default:null" json:"base_cost_at_sale"`
	ServiceCostAtSale decimal.NullDecimal    `gorm:"type:decimal(20,4);default:null" json:"service_cost_at_sale"`
	Shares            []SaleStakeholderShare `gorm:"foreignKey:SaleId" json:"shares"`
	CreatedAt         time.Time              `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time              `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SaleRecord) TableName() string { return "sale_records" }

type SaleStakeholderShare struct {
	ID              int                 `gorm:"primary_key" json:"id"`
	BusinessId      string              `gorm:"index;not null" json:"business_id"`
	SaleId          int                 `gorm:"index;not null" json:"sale_id"`
	Position        int                 `gorm:"not null;default:0" json:"position"`
	StakeholderId   string              `gorm:"size:64;index;not null" json:"stakeholder_id"`
	StakeholderName string              `gorm:"size:255;default:null" json:"stakeholder_name"`
	Percentage      decimal.NullDecimal `gorm:"type:decimal(7,4);default:null" json:"percentage"`
	FixedValue      decimal.NullDecimal `gorm:"type:decimal(20,4);default:null" json:"fixed_value"`
}

func (SaleStakeholderShare) TableName() string { return "sale_stakeholder_shares" }

func (s SaleStakeholderShare) ToRecord() treasury.StakeholderShare {
	return treasury.StakeholderShare{
		StakeholderId: s.StakeholderId,
		Name:          s.StakeholderName,
		Percentage:    utils.DecimalOrZero(s.Percentage),
		FixedValue:    utils.DecimalOrZero(s.FixedValue),
	}
}

func (s SaleRecord) ToRecord() treasury.SaleRecord {
	shares := make([]treasury.StakeholderShare, 0, len(s.Shares))
	for _, sh := range s.Shares {
		shares = append(shares, sh.ToRecord())
	}
	return treasury.SaleRecord{
		Id:                s.ID,
		ItemId:            s.ItemId,
		ItemName:          s.ItemName,
		SaleValue:         utils.DecimalOrZero(s.SaleValue),
		SaleDate:          s.SaleDate,
		Status:            s.Status,
		BaseCostAtSale:    utils.DecimalOrZero(s.BaseCostAtSale),
		ServiceCostAtSale: utils.DecimalOrZero(s.ServiceCostAtSale),
		Shares:            shares,
	}
}
