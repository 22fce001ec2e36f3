// Package export writes the dashboard tables as downloadable files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"cstore-dashboard/internal/models"
	"github.com/xuri/excelize/v2"
)

// WriteTopProductsCSV streams the top-products table as CSV.
func WriteTopProductsCSV(w io.Writer, products []models.ProductSales) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"product", "total_sales", "total_units"}); err != nil {
		return err
	}
	for _, p := range products {
		record := []string{
			p.Product,
			strconv.FormatFloat(p.TotalSales, 'f', 2, 64),
			strconv.FormatFloat(p.TotalUnits, 'f', 2, 64),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WritePaymentComparisonCSV streams the payment summary table as CSV.
func WritePaymentComparisonCSV(w io.Writer, summaries []models.PaymentSummary) error {
	cw := csv.NewWriter(w)
	header := []string{
		"payment_group", "transaction_count", "total_sales",
		"avg_transaction", "total_items", "avg_items_per_transaction",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, s := range summaries {
		record := []string{
			s.PaymentGroup,
			strconv.Itoa(s.TransactionCount),
			strconv.FormatFloat(s.TotalSales, 'f', 2, 64),
			strconv.FormatFloat(s.AvgTransaction, 'f', 2, 64),
			strconv.FormatFloat(s.TotalItems, 'f', 2, 64),
			strconv.FormatFloat(s.AvgItemsPerTransaction, 'f', 2, 64),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteBrandAnalysisXLSX writes the full brand analysis workbook: one sheet
// for the ranking, one for the drop impact summary.
func WriteBrandAnalysisXLSX(w io.Writer, brands []models.BrandPerformance, impact models.DropImpact) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Brand Ranking"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	headers := []string{
		"Brand", "Total Sales", "Total Units", "Transactions", "Avg Price",
		"Sales/Transaction", "Current Period", "Prior Period", "Growth", "Drop Candidate",
	}
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	for row, b := range brands {
		growth := any("n/a")
		if b.GrowthAvailable {
			growth = b.Growth
		}
		values := []any{
			b.Brand, b.TotalSales, b.TotalUnits, b.TransactionCount, b.AvgPrice,
			b.SalesPerTransaction, b.CurrentSales, b.PriorSales, growth, b.DropCandidate,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	const impactSheet = "Drop Impact"
	if _, err := f.NewSheet(impactSheet); err != nil {
		return fmt.Errorf("create impact sheet: %w", err)
	}
	impactRows := [][]any{
		{"Drop candidates", impact.Candidates},
		{"Lost sales", impact.LostSales},
		{"Lost transactions", impact.LostTransactions},
		{"Share of beverage sales", impact.SalesShare},
	}
	for row, pair := range impactRows {
		for col, v := range pair {
			cell, err := excelize.CoordinatesToCellName(col+1, row+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(impactSheet, cell, v); err != nil {
				return err
			}
		}
	}

	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	return f.Write(w)
}
