package treasury

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmdatafocus/dealer_backend/utils"
	"github.com/sirupsen/logrus"
)

// Cache stores computed results per business. Implementations must treat a miss as
// (nil, false, nil) and must never hold partial results.
type Cache interface {
	LoadSnapshot(ctx context.Context, businessId string, period SnapshotPeriod) (*TreasurySnapshot, bool, error)
	StoreSnapshot(ctx context.Context, businessId string, snapshot *TreasurySnapshot) error
	LoadForecast(ctx context.Context, businessId string, horizon int) ([]ForecastBucket, bool, error)
	StoreForecast(ctx context.Context, businessId string, horizon int, buckets []ForecastBucket) error
	Evict(ctx context.Context, businessId string) error
}

// Service fronts the engine with an optional cache. A nil Cache computes every call.
type Service struct {
	Engine *Engine
	Cache  Cache
	Logger *logrus.Logger
}

func NewService(engine *Engine, cache Cache, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = engine.Logger
	}
	return &Service{Engine: engine, Cache: cache, Logger: logger}
}

func (s *Service) Snapshot(ctx context.Context, period SnapshotPeriod) (*TreasurySnapshot, error) {
	businessId, err := businessFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if s.Cache != nil {
		cached, ok, err := s.Cache.LoadSnapshot(ctx, businessId, period)
		if err != nil {
			s.Logger.WithField("business_id", businessId).WithError(err).Warn("treasury cache read failed")
		} else if ok {
			return cached, nil
		}
	}

	snapshot, err := s.Engine.GetSnapshot(ctx, period)
	if err != nil {
		return nil, err
	}
	if s.Cache != nil {
		if err := s.Cache.StoreSnapshot(ctx, businessId, snapshot); err != nil {
			s.Logger.WithField("business_id", businessId).WithError(err).Warn("treasury cache write failed")
		}
	}
	return snapshot, nil
}

func (s *Service) Forecast(ctx context.Context, horizon int) ([]ForecastBucket, error) {
	businessId, err := businessFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if horizon <= 0 {
		horizon = s.Engine.defaultHorizon()
	}
	if horizon > MaxForecastHorizon {
		return nil, ErrInvalidHorizon
	}
	if s.Cache != nil {
		cached, ok, err := s.Cache.LoadForecast(ctx, businessId, horizon)
		if err != nil {
			s.Logger.WithField("business_id", businessId).WithError(err).Warn("treasury cache read failed")
		} else if ok {
			return cached, nil
		}
	}

	buckets, err := s.Engine.GetForecast(ctx, horizon)
	if err != nil {
		return nil, err
	}
	if s.Cache != nil {
		if err := s.Cache.StoreForecast(ctx, businessId, horizon, buckets); err != nil {
			s.Logger.WithField("business_id", businessId).WithError(err).Warn("treasury cache write failed")
		}
	}
	return buckets, nil
}

// Refresh recomputes both snapshot periods and the default forecast for a business and
// replaces the cached copies. On failure the cached entries are evicted.
func (s *Service) Refresh(ctx context.Context, businessId string) error {
	if businessId == "" {
		return ErrBusinessRequired
	}
	ctx = utils.SetBusinessIdInContext(ctx, businessId)

	err := s.refresh(ctx, businessId)
	if err != nil && s.Cache != nil {
		if evictErr := s.Cache.Evict(ctx, businessId); evictErr != nil {
			err = errors.Join(err, fmt.Errorf("evict: %w", evictErr))
		}
	}
	return err
}

func (s *Service) refresh(ctx context.Context, businessId string) error {
	snapshots := make([]*TreasurySnapshot, 0, 2)
	for _, period := range []SnapshotPeriod{PeriodCurrentMonth, PeriodPrior} {
		snapshot, err := s.Engine.GetSnapshot(ctx, period)
		if err != nil {
			return err
		}
		snapshots = append(snapshots, snapshot)
	}
	horizon := s.Engine.defaultHorizon()
	buckets, err := s.Engine.GetForecast(ctx, horizon)
	if err != nil {
		return err
	}
	if s.Cache == nil {
		return nil
	}

	// Everything is computed before anything is stored.
	for _, snapshot := range snapshots {
		if err := s.Cache.StoreSnapshot(ctx, businessId, snapshot); err != nil {
			return err
		}
	}
	return s.Cache.StoreForecast(ctx, businessId, horizon, buckets)
}
