package treasury

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"
)

// ChangeEvent is one row change on a table the engine reads.
type ChangeEvent struct {
	BusinessId string
	Table      string
	Action     string
	RecordId   int
	OccurredAt time.Time
}

// RefreshFunc recomputes everything cached for a business.
type RefreshFunc func(ctx context.Context, businessId string) error

// TrackedTables are the tables whose changes invalidate a snapshot.
var TrackedTables = map[string]struct{}{
	"bank_accounts":                {},
	"cash_transactions":            {},
	"financial_obligations":        {},
	"inventory_items":              {},
	"inventory_stakeholder_shares": {},
	"sale_records":                 {},
	"sale_stakeholder_shares":      {},
}

const (
	refresherQueueSize = 256
	refreshLockTTL     = 30 * time.Second
)

var ErrRefresherStopped = errors.New("refresher stopped")

// Refresher debounces change events per business and runs one refresh once a business
// has been quiet for Debounce. All state is owned by the Run goroutine.
type Refresher struct {
	Debounce time.Duration
	Locker   *redislock.Client
	Logger   *logrus.Logger

	refresh RefreshFunc
	events  chan ChangeEvent
	fire    chan firing
	done    chan struct{}
}

type firing struct {
	businessId string
	generation uint64
}

type pendingRefresh struct {
	timer      *time.Timer
	generation uint64
}

func NewRefresher(refresh RefreshFunc, debounce time.Duration, logger *logrus.Logger) *Refresher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Refresher{
		Debounce: debounce,
		Logger:   logger,
		refresh:  refresh,
		events:   make(chan ChangeEvent, refresherQueueSize),
		fire:     make(chan firing),
		done:     make(chan struct{}),
	}
}

// Notify queues an event. It blocks while the queue is full, until ctx is done.
func (r *Refresher) Notify(ctx context.Context, ev ChangeEvent) error {
	select {
	case r.events <- ev:
		return nil
	case <-r.done:
		return ErrRefresherStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes events until ctx is cancelled. Pending refreshes are dropped on exit.
func (r *Refresher) Run(ctx context.Context) error {
	defer close(r.done)

	pending := map[string]*pendingRefresh{}
	defer func() {
		for _, p := range pending {
			p.timer.Stop()
		}
	}()

	arm := func(businessId string) {
		p, ok := pending[businessId]
		if !ok {
			p = &pendingRefresh{}
			pending[businessId] = p
		} else {
			p.timer.Stop()
		}
		p.generation++
		f := firing{businessId: businessId, generation: p.generation}
		p.timer = time.AfterFunc(r.Debounce, func() {
			select {
			case r.fire <- f:
			case <-ctx.Done():
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev := <-r.events:
			if ev.BusinessId == "" {
				continue
			}
			if _, ok := TrackedTables[ev.Table]; !ok {
				r.Logger.WithFields(logrus.Fields{
					"business_id": ev.BusinessId,
					"table":       ev.Table,
				}).Debug("ignoring change on untracked table")
				continue
			}
			arm(ev.BusinessId)

		case f := <-r.fire:
			p, ok := pending[f.businessId]
			if !ok || p.generation != f.generation {
				// superseded by a later event
				continue
			}
			delete(pending, f.businessId)
			if err := r.runRefresh(ctx, f.businessId); err != nil {
				if errors.Is(err, redislock.ErrNotObtained) {
					arm(f.businessId)
					continue
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				r.Logger.WithFields(logrus.Fields{
					"module":      "treasury",
					"funcName":    "Refresher.Run",
					"business_id": f.businessId,
				}).Error(err.Error())
			}
		}
	}
}

// runRefresh serializes refreshes of one business across replicas when a locker is set.
// Redis trouble other than a held lock does not block the refresh.
func (r *Refresher) runRefresh(ctx context.Context, businessId string) error {
	if r.Locker != nil {
		lock, err := r.Locker.Obtain(ctx, fmt.Sprintf("lock:treasury:%s", businessId), refreshLockTTL, nil)
		switch {
		case errors.Is(err, redislock.ErrNotObtained):
			return err
		case err != nil:
			r.Logger.WithField("business_id", businessId).Warn("error obtaining redis lock; proceeding without redis lock: " + err.Error())
		default:
			defer func() {
				if releaseErr := lock.Release(context.WithoutCancel(ctx)); releaseErr != nil {
					r.Logger.WithField("business_id", businessId).Warn("failed to release redis lock: " + releaseErr.Error())
				}
			}()
		}
	}
	return r.refresh(ctx, businessId)
}
