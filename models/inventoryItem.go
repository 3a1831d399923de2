package models

import (
	"time"

	"github.com/mmdatafocus/dealer_backend/treasury"
	"github.com/mmdatafocus/dealer_backend/utils"
	"github.com/shopspring/decimal"
)

type InventoryItem struct {
	ID          int                         `gorm:"primary_key" json:"id"`
	BusinessId  string                      `gorm:"index:idx_inventory_business_status,priority:1;not null" json:"business_id"`
	Name        string                      `gorm:"size:255;not null" json:"name"`
	Plate       string                      `gorm:"size:32;default:null" json:"plate"`
	BaseCost    decimal.NullDecimal         `gorm:"type:decimal(20,4);default:null" json:"base_cost"`
	ServiceCost decimal.NullDecimal         `gorm:"type:decimal(20,4);default:null" json:"service_cost"`
	Status      treasury.InventoryStatus    `gorm:"index:idx_inventory_business_status,priority:2;type:enum('AVAILABLE','IN_PREP','RESERVED','SOLD');not null;default:'IN_PREP'" json:"status"`
	AcquiredAt  *time.Time                  `gorm:"index;default:null" json:"acquired_at"`
	ImageKey    string                      `gorm:"size:512;default:null" json:"image_key"`
	Shares      []InventoryStakeholderShare `gorm:"foreignKey:ItemId" json:"shares"`
	CreatedAt   time.Time                   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (InventoryItem) TableName() string { return "inventory_items" }

// InventoryStakeholderShare is one partner's claim on an item, kept in entry order by Position.
type InventoryStakeholderShare struct {
	ID              int                 `gorm:"primary_key" json:"id"`
	BusinessId      string              `gorm:"index;not null" json:"business_id"`
	ItemId          int                 `gorm:"index;not null" json:"item_id"`
	Position        int                 `gorm:"not null;default:0" json:"position"`
	StakeholderId   string              `gorm:"size:64;index;not null" json:"stakeholder_id"`
	StakeholderName string              `gorm:"size:255;default:null" json:"stakeholder_name"`
	Percentage      decimal.NullDecimal `gorm:"type:decimal(7,4);default:null" json:"percentage"`
	FixedValue      decimal.NullDecimal `gorm:"type:decimal(20,4);default:null" json:"fixed_value"`
}

func (InventoryStakeholderShare) TableName() string { return "inventory_stakeholder_shares" }

func (s InventoryStakeholderShare) ToRecord() treasury.StakeholderShare {
	return treasury.StakeholderShare{
		StakeholderId: s.StakeholderId,
		Name:          s.StakeholderName,
		Percentage:    utils.DecimalOrZero(s.Percentage),
		FixedValue:    utils.DecimalOrZero(s.FixedValue),
	}
}

func (i InventoryItem) ToRecord() treasury.InventoryItem {
	shares := make([]treasury.StakeholderShare, 0, len(i.Shares))
	for _, s := range i.Shares {
		shares = append(shares, s.ToRecord())
	}
	return treasury.InventoryItem{
		Id:          i.ID,
		Name:        i.Name,
		Plate:       i.Plate,
		BaseCost:    utils.DecimalOrZero(i.BaseCost),
		ServiceCost: utils.DecimalOrZero(i.ServiceCost),
		Status:      i.Status,
		AcquiredAt:  i.AcquiredAt,
		ImageKey:    i.ImageKey,
		Shares:      shares,
	}
}
