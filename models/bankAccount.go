package models

import (
	"time"

	"github.com/mmdatafocus/dealer_backend/treasury"
	"github.com/mmdatafocus/dealer_backend/utils"
	"github.com/shopspring/decimal"
)

type BankAccount struct {
	ID         int                 `gorm:"primary_key" json:"id"`
	BusinessId string              `gorm:"index;not null" json:"business_id"`
	HolderName string              `gorm:"size:255;not null" json:"holder_name"`
	Balance    decimal.NullDecimal `gorm:"type:decimal(20,4);default:null" json:"balance"`
	IsActive   bool                `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

func (BankAccount) TableName() string { return "bank_accounts" }

func (a BankAccount) ToRecord() treasury.BankAccount {
	return treasury.BankAccount{
		Id:         a.ID,
		HolderName: a.HolderName,
		Balance:    utils.DecimalOrZero(a.Balance),
	}
}

type CashTransaction struct {
	ID              int                           `gorm:"primary_key" json:"id"`
	BusinessId      string                        `gorm:"index:idx_cash_tx_business_date,priority:1;not null" json:"business_id"`
	AccountId       int                           `gorm:"index;not null" json:"account_id"`
	TransactionDate time.Time                     `gorm:"index:idx_cash_tx_business_date,priority:2;not null" json:"transaction_date"`
	Description     string                        `gorm:"size:255;default:null" json:"description"`
	Direction       treasury.TransactionDirection `gorm:"type:enum('IN','OUT');not null" json:"direction"`
	Amount          decimal.NullDecimal           `gorm:"type:decimal(20,4);default:null" json:"amount"`
	CreatedAt       time.Time                     `gorm:"autoCreateTime" json:"created_at"`
}

func (CashTransaction) TableName() string { return "cash_transactions" }

func (t CashTransaction) ToRecord() treasury.CashTransaction {
	return treasury.CashTransaction{
		Id:          t.ID,
		AccountId:   t.AccountId,
		Date:        t.TransactionDate,
		Description: t.Description,
		Direction:   t.Direction,
		Amount:      utils.DecimalOrZero(t.Amount),
	}
}
