package reports

import (
	"errors"
	"io"

	"github.com/mmdatafocus/dealer_backend/treasury"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet    = "Summary"
	partnersSheet   = "Partners"
	accountsSheet   = "Accounts"
	forecastSheet   = "Forecast"
	excelMoneyStyle = 4 // #,##0.00
	excelPctStyle   = 2 // 0.00
)

// WriteSnapshotWorkbook renders a snapshot and its forecast as an xlsx workbook.
func WriteSnapshotWorkbook(w io.Writer, snap *treasury.TreasurySnapshot, buckets []treasury.ForecastBucket) error {
	if snap == nil {
		return errors.New("snapshot is nil")
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}
	for _, name := range []string{partnersSheet, accountsSheet, forecastSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: excelMoneyStyle})
	if err != nil {
		return err
	}
	pct, err := f.NewStyle(&excelize.Style{NumFmt: excelPctStyle})
	if err != nil {
		return err
	}

	summary := [][]interface{}{
		{"Period", string(snap.Period)},
		{"Period End", snap.PeriodEnd.Format("2006-01-02")},
		{"Net Worth", num(snap.NetWorth)},
		{"Cash", num(snap.Cash)},
		{"Inventory", num(snap.InventoryValue)},
		{"Receivables", num(snap.Receivables)},
		{"Payables", num(snap.Payables)},
		{"Sales", num(snap.PeriodSalesTotal)},
		{"Purchases", num(snap.PeriodPurchasesTotal)},
		{"Profit", num(snap.PeriodProfit)},
	}
	if snap.PeriodStart != nil {
		summary = append(summary[:1], append([][]interface{}{{"Period Start", snap.PeriodStart.Format("2006-01-02")}}, summary[1:]...)...)
	}
	if err := writeRows(f, summarySheet, summary); err != nil {
		return err
	}
	if err := f.SetColStyle(summarySheet, "B", money); err != nil {
		return err
	}

	partners := [][]interface{}{{"Stakeholder", "Name", "Invested", "Vehicles", "Profit", "Exposure %"}}
	for _, p := range snap.StakeholderPositions {
		partners = append(partners, []interface{}{
			p.StakeholderId, p.Name, num(p.InvestedAmount), p.VehicleCount, num(p.PeriodProfit), num(p.ExposurePct),
		})
	}
	if err := writeRows(f, partnersSheet, partners); err != nil {
		return err
	}
	if err := f.SetColStyle(partnersSheet, "C", money); err != nil {
		return err
	}
	if err := f.SetColStyle(partnersSheet, "E", money); err != nil {
		return err
	}
	if err := f.SetColStyle(partnersSheet, "F", pct); err != nil {
		return err
	}

	accounts := [][]interface{}{{"Account", "Holder", "Balance"}}
	for _, a := range snap.Accounts {
		accounts = append(accounts, []interface{}{a.Id, a.HolderName, num(a.Balance)})
	}
	if err := writeRows(f, accountsSheet, accounts); err != nil {
		return err
	}
	if err := f.SetColStyle(accountsSheet, "C", money); err != nil {
		return err
	}

	forecast := [][]interface{}{{"Month", "Receivable", "Payable", "Projected"}}
	for _, b := range buckets {
		forecast = append(forecast, []interface{}{b.Label, num(b.Receivable), num(b.Payable), num(b.ProjectedResult)})
	}
	if err := writeRows(f, forecastSheet, forecast); err != nil {
		return err
	}
	if err := f.SetColStyle(forecastSheet, "B:D", money); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func num(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
