package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/dealer_backend/config"
	"github.com/mmdatafocus/dealer_backend/utils"
	"gorm.io/gorm"
)

const (
	changeActionInsert = "INSERT"
	changeActionUpdate = "UPDATE"
	changeActionDelete = "DELETE"
)

// publishChange is best-effort and never fails the write. The message is sent off the
// caller's goroutine so a slow broker does not hold the transaction open.
var publishChange = func(ctx context.Context, msg config.ChangeMessage) {
	go func() {
		if err := config.PublishChangeMessage(ctx, msg); err != nil {
			config.LogError(config.GetLogger(), "modelHooks.go", "publishChange", "PublishChangeMessage", msg, err)
		}
	}()
}

func notifyChange(tx *gorm.DB, table string, action string, businessId string, recordId int) {
	if !config.TreasuryPublishChanges() || businessId == "" {
		return
	}
	ctx := tx.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
	publishChange(context.WithoutCancel(ctx), config.ChangeMessage{
		BusinessId:    businessId,
		Table:         table,
		Action:        action,
		RecordId:      recordId,
		OccurredAt:    time.Now().UTC(),
		CorrelationId: correlationId,
	})
}

func (a *BankAccount) AfterCreate(tx *gorm.DB) error {
	notifyChange(tx, a.TableName(), changeActionInsert, a.BusinessId, a.ID)
	return nil
}

func (a *BankAccount) AfterUpdate(tx *gorm.DB) error {
	notifyChange(tx, a.TableName(), changeActionUpdate, a.BusinessId, a.ID)
	return nil
}

func (a *BankAccount) AfterDelete(tx *gorm.DB) error {
	notifyChange(tx, a.TableName(), changeActionDelete, a.BusinessId, a.ID)
	return nil
}

func (t *CashTransaction) AfterCreate(tx *gorm.DB) error {
	notifyChange(tx, t.TableName(), changeActionInsert, t.BusinessId, t.ID)
	return nil
}

func (t *CashTransaction) AfterDelete(tx *gorm.DB) error {
	notifyChange(tx, t.TableName(), changeActionDelete, t.BusinessId, t.ID)
	return nil
}

func (i *InventoryItem) AfterCreate(tx *gorm.DB) error {
	notifyChange(tx, i.TableName(), changeActionInsert, i.BusinessId, i.ID)
	return nil
}

func (i *InventoryItem) AfterUpdate(tx *gorm.DB) error {
	notifyChange(tx, i.TableName(), changeActionUpdate, i.BusinessId, i.ID)
	return nil
}

func (i *InventoryItem) AfterDelete(tx *gorm.DB) error {
	notifyChange(tx, i.TableName(), changeActionDelete, i.BusinessId, i.ID)
	return nil
}

func (s *InventoryStakeholderShare) AfterSave(tx *gorm.DB) error {
	notifyChange(tx, s.TableName(), changeActionUpdate, s.BusinessId, s.ItemId)
	return nil
}

func (s *InventoryStakeholderShare) AfterDelete(tx *gorm.DB) error {
	notifyChange(tx, s.TableName(), changeActionDelete, s.BusinessId, s.ItemId)
	return nil
}

func (s *SaleRecord) AfterCreate(tx *gorm.DB) error {
	notifyChange(tx, s.TableName(), changeActionInsert, s.BusinessId, s.ID)
	return nil
}

func (s *SaleRecord) AfterUpdate(tx *gorm.DB) error {
	notifyChange(tx, s.TableName(), changeActionUpdate, s.BusinessId, s.ID)
	return nil
}

func (s *SaleRecord) AfterDelete(tx *gorm.DB) error {
	notifyChange(tx, s.TableName(), changeActionDelete, s.BusinessId, s.ID)
	return nil
}

func (o *FinancialObligation) AfterCreate(tx *gorm.DB) error {
	notifyChange(tx, o.TableName(), changeActionInsert, o.BusinessId, o.ID)
	return nil
}

func (o *FinancialObligation) AfterUpdate(tx *gorm.DB) error {
	notifyChange(tx, o.TableName(), changeActionUpdate, o.BusinessId, o.ID)
	return nil
}

func (o *FinancialObligation) AfterDelete(tx *gorm.DB) error {
	notifyChange(tx, o.TableName(), changeActionDelete, o.BusinessId, o.ID)
	return nil
}
