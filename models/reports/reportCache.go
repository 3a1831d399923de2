package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/mmdatafocus/dealer_backend/config"
	"github.com/mmdatafocus/dealer_backend/treasury"
	"github.com/mmdatafocus/dealer_backend/utils"
	"github.com/sirupsen/logrus"
)

const reportSlowMs = 500

func logSlowReport(ctx context.Context, name string, started time.Time, extra map[string]any) {
	d := time.Since(started)
	if d.Milliseconds() < reportSlowMs {
		return
	}
	biz, _ := utils.GetBusinessIdFromContext(ctx)
	cid, _ := utils.GetCorrelationIdFromContext(ctx)
	config.GetLogger().WithFields(logrus.Fields{
		"name":           name,
		"ms":             d.Milliseconds(),
		"business_id":    biz,
		"correlation_id": cid,
		"extra":          extra,
	}).Warn("slow_report")
}

// TreasuryCache keeps computed snapshots and forecasts in Redis. Keys carry the month
// they were computed in so a new month never serves last month's figures.
type TreasuryCache struct {
	TTL time.Duration
	Now func() time.Time
}

func NewTreasuryCache() *TreasuryCache {
	return &TreasuryCache{TTL: config.TreasuryCacheTTL(), Now: time.Now}
}

func (c *TreasuryCache) month() string {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return now().Format("2006-01")
}

func (c *TreasuryCache) snapshotKey(businessId string, period treasury.SnapshotPeriod) string {
	return fmt.Sprintf("treasury:snapshot:%s:%s:%s", businessId, period, c.month())
}

func (c *TreasuryCache) forecastKey(businessId string, horizon int) string {
	return fmt.Sprintf("treasury:forecast:%s:%d:%s", businessId, horizon, c.month())
}

func (c *TreasuryCache) LoadSnapshot(ctx context.Context, businessId string, period treasury.SnapshotPeriod) (*treasury.TreasurySnapshot, bool, error) {
	var snap treasury.TreasurySnapshot
	ok, err := config.GetRedisObject(ctx, c.snapshotKey(businessId, period), &snap)
	if err != nil || !ok {
		return nil, false, err
	}
	return &snap, true, nil
}

func (c *TreasuryCache) StoreSnapshot(ctx context.Context, businessId string, snapshot *treasury.TreasurySnapshot) error {
	return config.SetRedisObject(ctx, c.snapshotKey(businessId, snapshot.Period), snapshot, c.TTL)
}

func (c *TreasuryCache) LoadForecast(ctx context.Context, businessId string, horizon int) ([]treasury.ForecastBucket, bool, error) {
	var buckets []treasury.ForecastBucket
	ok, err := config.GetRedisObject(ctx, c.forecastKey(businessId, horizon), &buckets)
	if err != nil || !ok {
		return nil, false, err
	}
	return buckets, true, nil
}

func (c *TreasuryCache) StoreForecast(ctx context.Context, businessId string, horizon int, buckets []treasury.ForecastBucket) error {
	return config.SetRedisObject(ctx, c.forecastKey(businessId, horizon), buckets, c.TTL)
}

func (c *TreasuryCache) Evict(ctx context.Context, businessId string) error {
	if err := config.RemoveRedisPattern(ctx, fmt.Sprintf("treasury:snapshot:%s:*", businessId)); err != nil {
		return err
	}
	return config.RemoveRedisPattern(ctx, fmt.Sprintf("treasury:forecast:%s:*", businessId))
}
