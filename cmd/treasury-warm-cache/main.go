package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mmdatafocus/dealer_backend/config"
	"github.com/mmdatafocus/dealer_backend/models/reports"
	"github.com/mmdatafocus/dealer_backend/treasury"
	"github.com/mmdatafocus/dealer_backend/utils"
)

func main() {
	businessID := flag.String("business-id", "", "Optional: warm only one business. If empty, warms every business with treasury rows.")
	evict := flag.Bool("evict", false, "Only drop cached entries, do not recompute.")
	timeout := flag.Duration("timeout", 10*time.Minute, "Overall timeout.")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ctx = utils.SetUserNameInContext(ctx, "TreasuryWarmCache")

	// Explicit connects (config does not connect in init()).
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}

	var businessIDs []string
	if id := strings.TrimSpace(*businessID); id != "" {
		businessIDs = []string{id}
	} else {
		ids, err := reports.ListTreasuryBusinessIds(ctx, db)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to list businesses: %v\n", err)
			os.Exit(1)
		}
		businessIDs = utils.UniqueSlice(ids)
	}
	if len(businessIDs) == 0 {
		fmt.Fprintln(os.Stderr, "no businesses found to warm")
		return
	}

	logger := config.GetLogger()
	engine := treasury.NewEngine(reports.NewTreasuryReaders(db), logger)
	engine.DefaultHorizon = config.TreasuryForecastHorizon()
	engine.RecentLimit = config.TreasuryRecentTransactionLimit()
	engine.ResolveImage = utils.ResolveImageURL
	cache := reports.NewTreasuryCache()
	service := treasury.NewService(engine, cache, logger)

	failed := 0
	for _, bid := range businessIDs {
		if *evict {
			fmt.Printf("Evicting treasury cache business=%s\n", bid)
			if err := cache.Evict(ctx, bid); err != nil {
				fmt.Fprintf(os.Stderr, "business %s evict failed: %v\n", bid, err)
				failed++
			}
			continue
		}

		fmt.Printf("Warming treasury cache business=%s\n", bid)
		started := time.Now()
		if err := service.Refresh(ctx, bid); err != nil {
			fmt.Fprintf(os.Stderr, "business %s refresh failed: %v\n", bid, err)
			failed++
			continue
		}
		fmt.Printf("  done in %s\n", time.Since(started).Round(time.Millisecond))
	}

	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d businesses failed\n", failed, len(businessIDs))
		os.Exit(1)
	}
	fmt.Println("Warm-up complete")
}
