package treasury

import (
	"time"

	"github.com/mmdatafocus/dealer_backend/utils"
	"github.com/shopspring/decimal"
)

const (
	DefaultForecastHorizon = 4
	MaxForecastHorizon     = 24

	forecastLabelLayout = "2006-Jan"
)

// NewForecastBuckets returns one empty bucket per calendar month, starting the month after now.
func NewForecastBuckets(now time.Time, horizon int) []ForecastBucket {
	start, _ := utils.GetNextMonthsRange(now, horizon)
	buckets := make([]ForecastBucket, 0, horizon)
	for i := 0; i < horizon; i++ {
		m := start.AddDate(0, i, 0)
		buckets = append(buckets, ForecastBucket{
			Year:            m.Year(),
			Month:           m.Month(),
			Label:           m.Format(forecastLabelLayout),
			Payable:         decimal.Zero,
			Receivable:      decimal.Zero,
			ProjectedResult: decimal.Zero,
		})
	}
	return buckets
}

// ProjectForecast buckets the outstanding balance of open obligations by due month.
// Obligations outside the horizon, or not open, are ignored.
func ProjectForecast(obligations []FinancialObligation, now time.Time, horizon int) []ForecastBucket {
	buckets := NewForecastBuckets(now, horizon)
	index := make(map[int]int, len(buckets))
	for i, b := range buckets {
		index[monthKey(b.Year, b.Month)] = i
	}

	for _, o := range obligations {
		if o.Status != ObligationStatusOpen {
			continue
		}
		due := o.DueDate.In(now.Location())
		i, ok := index[monthKey(due.Year(), due.Month())]
		if !ok {
			continue
		}
		switch o.Type {
		case ObligationPayable:
			buckets[i].Payable = buckets[i].Payable.Add(o.Outstanding())
		case ObligationReceivable:
			buckets[i].Receivable = buckets[i].Receivable.Add(o.Outstanding())
		}
	}

	for i := range buckets {
		buckets[i].ProjectedResult = buckets[i].Receivable.Sub(buckets[i].Payable)
	}
	return buckets
}

func monthKey(year int, month time.Month) int {
	return year*100 + int(month)
}
