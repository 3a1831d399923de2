package models

import (
	"log"

	"github.com/mmdatafocus/dealer_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&BankAccount{}, &CashTransaction{},
		&InventoryItem{}, &InventoryStakeholderShare{},
		&SaleRecord{}, &SaleStakeholderShare{},
		&FinancialObligation{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
