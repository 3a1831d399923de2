package reports_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/mmdatafocus/dealer_backend/config"
	"github.com/mmdatafocus/dealer_backend/models"
	"github.com/mmdatafocus/dealer_backend/models/reports"
	"github.com/mmdatafocus/dealer_backend/treasury"
	"github.com/mmdatafocus/dealer_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func nd(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func TestTreasuryReadersAgainstMySQL(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	// Wire env for config.Connect* helpers.
	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "dealer_test")
	t.Setenv("TREASURY_PUBLISH_CHANGES", "")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	db := config.GetDB()
	if db == nil {
		t.Fatalf("db is nil after ConnectDatabaseWithRetry")
	}

	now := time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC)
	acquired := time.Date(2026, time.October, 3, 0, 0, 0, 0, time.UTC)
	const biz = "biz-int-1"

	seed := []interface{}{
		&models.BankAccount{BusinessId: biz, HolderName: "Main", Balance: nd("25000"), IsActive: true},
		&models.BankAccount{BusinessId: biz, HolderName: "Petty", IsActive: true},
		&models.BankAccount{BusinessId: "other-biz", HolderName: "Leak", Balance: nd("999999"), IsActive: true},
		&models.InventoryItem{
			BusinessId: biz, Name: "Corolla", Plate: "ABC-1234",
			BaseCost: nd("100000"), ServiceCost: nd("10000"),
			Status: treasury.InventoryStatusAvailable, AcquiredAt: &acquired,
			Shares: []models.InventoryStakeholderShare{
				{BusinessId: biz, Position: 1, StakeholderId: "p2", StakeholderName: "Bruno", Percentage: nd("40")},
				{BusinessId: biz, Position: 0, StakeholderId: "p1", StakeholderName: "Ana", Percentage: nd("60")},
			},
		},
		&models.SaleRecord{
			BusinessId: biz, ItemId: 99, ItemName: "Gol", SaleValue: nd("150000"),
			SaleDate: time.Date(2026, time.October, 9, 0, 0, 0, 0, time.UTC), Status: treasury.SaleStatusCompleted,
			BaseCostAtSale: nd("100000"), ServiceCostAtSale: nd("10000"),
			Shares: []models.SaleStakeholderShare{
				{BusinessId: biz, StakeholderId: "p1", StakeholderName: "Ana", Percentage: nd("60")},
				{BusinessId: biz, Position: 1, StakeholderId: "p2", StakeholderName: "Bruno", Percentage: nd("40")},
			},
		},
		&models.FinancialObligation{BusinessId: biz, Type: treasury.ObligationPayable, TotalValue: nd("5000"), DueDate: time.Date(2026, time.December, 5, 0, 0, 0, 0, time.UTC), Status: treasury.ObligationStatusOpen},
		&models.FinancialObligation{BusinessId: biz, Type: treasury.ObligationReceivable, TotalValue: nd("8000"), DueDate: time.Date(2026, time.December, 20, 0, 0, 0, 0, time.UTC), Status: treasury.ObligationStatusOpen},
		&models.CashTransaction{BusinessId: biz, AccountId: 1, TransactionDate: time.Date(2026, time.October, 9, 0, 0, 0, 0, time.UTC), Direction: treasury.TransactionIn, Amount: nd("150000")},
	}
	for _, row := range seed {
		if err := db.Create(row).Error; err != nil {
			t.Fatalf("seed %T: %v", row, err)
		}
	}

	engine := treasury.NewEngine(reports.NewTreasuryReaders(db), logrus.New())
	engine.Now = func() time.Time { return now }
	ctx := utils.SetBusinessIdInContext(context.Background(), biz)

	snap, err := engine.GetSnapshot(ctx, treasury.PeriodCurrentMonth)
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if !snap.Cash.Equal(decimal.NewFromInt(25000)) {
		t.Fatalf("cash = %s (other business leaked?)", snap.Cash)
	}
	if !snap.InventoryValue.Equal(decimal.NewFromInt(110000)) {
		t.Fatalf("inventory value = %s", snap.InventoryValue)
	}
	if !snap.PeriodProfit.Equal(decimal.NewFromInt(40000)) {
		t.Fatalf("period profit = %s", snap.PeriodProfit)
	}
	if len(snap.StakeholderPositions) != 2 || snap.StakeholderPositions[0].StakeholderId != "p1" {
		t.Fatalf("positions = %+v", snap.StakeholderPositions)
	}
	if !snap.StakeholderPositions[0].InvestedAmount.Equal(decimal.NewFromInt(66000)) ||
		!snap.StakeholderPositions[0].PeriodProfit.Equal(decimal.NewFromInt(24000)) {
		t.Fatalf("p1 = %+v", snap.StakeholderPositions[0])
	}
	if len(snap.RecentTransactions) != 1 {
		t.Fatalf("recent transactions = %d", len(snap.RecentTransactions))
	}

	buckets, err := engine.GetForecast(ctx, 4)
	if err != nil {
		t.Fatalf("GetForecast: %v", err)
	}
	if len(buckets) != 4 || buckets[1].Label != "2026-Dec" || !buckets[1].ProjectedResult.Equal(decimal.NewFromInt(3000)) {
		t.Fatalf("forecast = %+v", buckets)
	}

	cache := reports.NewTreasuryCache()
	cache.Now = func() time.Time { return now }
	svc := treasury.NewService(engine, cache, logrus.New())
	if err := svc.Refresh(context.Background(), biz); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	cached, ok, err := cache.LoadSnapshot(ctx, biz, treasury.PeriodCurrentMonth)
	if err != nil || !ok {
		t.Fatalf("cached snapshot missing: ok=%v err=%v", ok, err)
	}
	if !cached.NetWorth.Equal(snap.NetWorth) {
		t.Fatalf("cached net worth %s != %s", cached.NetWorth, snap.NetWorth)
	}
	if err := cache.Evict(ctx, biz); err != nil {
		t.Fatalf("Evict: %v", err)
	}
	if _, ok, _ := cache.LoadForecast(ctx, biz, treasury.DefaultForecastHorizon); ok {
		t.Fatalf("forecast still cached after evict")
	}

	ids, err := reports.ListTreasuryBusinessIds(context.Background(), db)
	if err != nil {
		t.Fatalf("ListTreasuryBusinessIds: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("business ids = %v", ids)
	}
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("dealer-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := dockerRun("exec", name, "redis-cli", "ping"); err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("dealer-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=dealer_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent"); err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// "127.0.0.1:49154\n"
	m := regexp.MustCompile(`:(\d+)`).FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	b, err := exec.Command("docker", args...).CombinedOutput()
	return string(b), err
}
