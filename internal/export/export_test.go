package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"cstore-dashboard/internal/models"
	"github.com/xuri/excelize/v2"
)

func TestWriteTopProductsCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteTopProductsCSV(&buf, []models.ProductSales{
		{Product: "Coca Cola 20oz", TotalSales: 100.5, TotalUnits: 40},
		{Product: "Lays Chips", TotalSales: 60, TotalUnits: 20},
	})
	if err != nil {
		t.Fatalf("WriteTopProductsCSV() error: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	if rows[0][0] != "product" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != "Coca Cola 20oz" || rows[1][1] != "100.50" {
		t.Errorf("first row = %v", rows[1])
	}
}

func TestWriteTopProductsCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTopProductsCSV(&buf, nil); err != nil {
		t.Fatalf("WriteTopProductsCSV() error: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Errorf("empty export should still carry the header, got %d rows", len(rows))
	}
}

func TestWritePaymentComparisonCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WritePaymentComparisonCSV(&buf, []models.PaymentSummary{
		{PaymentGroup: "CASH", TransactionCount: 2, TotalSales: 16, AvgTransaction: 8, TotalItems: 8, AvgItemsPerTransaction: 4},
		{PaymentGroup: "CREDIT/DEBIT", TransactionCount: 2, TotalSales: 18, AvgTransaction: 9, TotalItems: 6, AvgItemsPerTransaction: 3},
	})
	if err != nil {
		t.Fatalf("WritePaymentComparisonCSV() error: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[1][0] != "CASH" || rows[1][3] != "8.00" {
		t.Errorf("cash row = %v", rows[1])
	}
	if rows[2][0] != "CREDIT/DEBIT" {
		t.Errorf("credit row = %v", rows[2])
	}
}

func TestWriteBrandAnalysisXLSX(t *testing.T) {
	var buf bytes.Buffer
	brands := []models.BrandPerformance{
		{Brand: "Coca Cola", TotalSales: 160, TransactionCount: 2, Growth: -0.4, GrowthAvailable: true, DropCandidate: true},
		{Brand: "Fanta", TotalSales: 50, TransactionCount: 1},
	}
	impact := models.DropImpact{Candidates: 1, LostSales: 160, LostTransactions: 2, SalesShare: 0.35}

	if err := WriteBrandAnalysisXLSX(&buf, brands, impact); err != nil {
		t.Fatalf("WriteBrandAnalysisXLSX() error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("opening workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 {
		t.Fatalf("sheets = %v, want Brand Ranking and Drop Impact", sheets)
	}

	brand, err := f.GetCellValue("Brand Ranking", "A2")
	if err != nil {
		t.Fatal(err)
	}
	if brand != "Coca Cola" {
		t.Errorf("A2 = %q, want Coca Cola", brand)
	}

	// Brands without a growth figure render n/a, not zero.
	growth, err := f.GetCellValue("Brand Ranking", "I3")
	if err != nil {
		t.Fatal(err)
	}
	if growth != "n/a" {
		t.Errorf("I3 = %q, want n/a", growth)
	}

	candidates, err := f.GetCellValue("Drop Impact", "B1")
	if err != nil {
		t.Fatal(err)
	}
	if candidates != "1" {
		t.Errorf("Drop Impact B1 = %q, want 1", candidates)
	}
}
