package main

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/dealer_backend/models/reports"
	"github.com/mmdatafocus/dealer_backend/treasury"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type treasuryAPI interface {
	Snapshot(ctx context.Context, period treasury.SnapshotPeriod) (*treasury.TreasurySnapshot, error)
	Forecast(ctx context.Context, horizon int) ([]treasury.ForecastBucket, error)
}

type snapshotQuery struct {
	Period string `form:"period"`
}

type forecastQuery struct {
	Horizon int `form:"horizon" binding:"omitempty,min=1,max=24"`
}

type exportQuery struct {
	Period  string `form:"period"`
	Horizon int    `form:"horizon" binding:"omitempty,min=1,max=24"`
}

func treasuryErrorStatus(err error) int {
	switch {
	case errors.Is(err, treasury.ErrBusinessRequired):
		return http.StatusUnauthorized
	case errors.Is(err, treasury.ErrInvalidPeriod), errors.Is(err, treasury.ErrInvalidHorizon):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		// client went away
		return 499
	default:
		return http.StatusInternalServerError
	}
}

func snapshotHandler(api treasuryAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q snapshotQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		period, err := treasury.ParsePeriod(q.Period)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		snapshot, err := api.Snapshot(c.Request.Context(), period)
		if err != nil {
			_ = c.Error(err)
			c.JSON(treasuryErrorStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, snapshot)
	}
}

func forecastHandler(api treasuryAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q forecastQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": treasury.ErrInvalidHorizon.Error()})
			return
		}
		buckets, err := api.Forecast(c.Request.Context(), q.Horizon)
		if err != nil {
			_ = c.Error(err)
			c.JSON(treasuryErrorStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"buckets": buckets})
	}
}

// exportHandler streams the snapshot plus forecast as a workbook.
func exportHandler(api treasuryAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q exportQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		period, err := treasury.ParsePeriod(q.Period)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ctx := c.Request.Context()
		snapshot, err := api.Snapshot(ctx, period)
		if err != nil {
			_ = c.Error(err)
			c.JSON(treasuryErrorStatus(err), gin.H{"error": err.Error()})
			return
		}
		buckets, err := api.Forecast(ctx, q.Horizon)
		if err != nil {
			_ = c.Error(err)
			c.JSON(treasuryErrorStatus(err), gin.H{"error": err.Error()})
			return
		}

		filename := "treasury-" + strings.ToLower(string(period)) + "-" + snapshot.PeriodEnd.Format("2006-01") + ".xlsx"
		c.Header("Content-Type", xlsxContentType)
		c.Header("Content-Disposition", "attachment; filename="+filename)
		c.Status(http.StatusOK)
		if err := reports.WriteSnapshotWorkbook(c.Writer, snapshot, buckets); err != nil {
			_ = c.Error(err)
		}
	}
}
