package models

import (
	"context"
	"errors"
	"strings"

	"github.com/mmdatafocus/dealer_backend/config"
	"github.com/mmdatafocus/dealer_backend/utils"
)

// SetInventoryItemImage points an item's cover image at objectKey. Going through the model
// keeps the change notification hook in the loop.
func SetInventoryItemImage(ctx context.Context, businessId string, itemId int, objectKey string) error {
	if strings.TrimSpace(businessId) == "" {
		return utils.ErrorBusinessRequired
	}
	if itemId <= 0 || strings.TrimSpace(objectKey) == "" {
		return errors.New("item id and object key are required")
	}
	db := config.GetDB()
	if db == nil {
		return errors.New("db is nil")
	}
	item := InventoryItem{ID: itemId, BusinessId: businessId}
	result := db.WithContext(ctx).Model(&item).
		Where("business_id = ?", businessId).
		Update("image_key", objectKey)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return utils.ErrorRecordNotFound
	}
	return nil
}
