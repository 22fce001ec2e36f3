package models

import (
	"fmt"
	"strings"
	"time"
)

// Normalized payment groups. Raw payment types CASH and CHANGE collapse to
// cash; CREDIT and DEBIT collapse to credit. Everything else is excluded
// from the payment comparison.
const (
	PaymentCash   = "CASH"
	PaymentCredit = "CREDIT/DEBIT"
	PaymentOther  = "OTHER"
)

// SalesRecord is one enriched transaction line: a transaction item joined
// with the product catalog, the payment record and the store record. The
// full set is loaded once and held read-only.
type SalesRecord struct {
	TransactionItemID string
	TransactionSetID  string
	DateTime          time.Time
	Date              time.Time
	Year              int
	Week              int
	StoreID           string
	StoreName         string
	City              string
	State             string
	GTIN              string
	Product           string
	Category          string
	NonscanCategory   string
	Brand             string
	UnitPrice         float64
	Quantity          float64
	TotalSales        float64
	PaymentType       string
}

// PaymentGroup returns the normalized payment group for the record.
func (r SalesRecord) PaymentGroup() string {
	return NormalizePayment(r.PaymentType)
}

func NormalizePayment(paymentType string) string {
	switch strings.ToUpper(strings.TrimSpace(paymentType)) {
	case "CASH", "CHANGE":
		return PaymentCash
	case "CREDIT", "DEBIT":
		return PaymentCredit
	default:
		return PaymentOther
	}
}

// Filter holds the user-chosen view parameters. Zero dates mean an open
// bound; the store and category lists are exclusions, matching the
// dashboard's sidebar semantics. PaymentGroups restricts records to the
// named normalized groups when non-empty.
type Filter struct {
	StartDate          time.Time
	EndDate            time.Time
	ExcludedStoreIDs   []string
	ExcludedCategories []string
	PaymentGroups      []string
}

// Matches reports whether the record passes the filter's date range and
// exclusion lists. Records with no category are kept when categories are
// excluded, mirroring the null-category handling of the source data.
func (f Filter) Matches(r SalesRecord) bool {
	if !f.StartDate.IsZero() && r.Date.Before(f.StartDate) {
		return false
	}
	if !f.EndDate.IsZero() && r.Date.After(f.EndDate) {
		return false
	}
	for _, id := range f.ExcludedStoreIDs {
		if r.StoreID == id {
			return false
		}
	}
	if r.Category != "" {
		for _, c := range f.ExcludedCategories {
			if r.Category == c {
				return false
			}
		}
	}
	if len(f.PaymentGroups) > 0 {
		group := r.PaymentGroup()
		found := false
		for _, g := range f.PaymentGroups {
			if g == group {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

type Store struct {
	StoreID   string `json:"store_id"`
	StoreName string `json:"store_name"`
	City      string `json:"city"`
	State     string `json:"state"`
}

type ProductSales struct {
	Product    string  `json:"product"`
	TotalSales float64 `json:"total_sales"`
	TotalUnits float64 `json:"total_units"`
}

type WeeklyProductSales struct {
	Year        int     `json:"year"`
	Week        int     `json:"week"`
	WeekLabel   string  `json:"week_label"`
	Product     string  `json:"product"`
	WeeklySales float64 `json:"weekly_sales"`
	UnitsSold   float64 `json:"units_sold"`
}

type BrandPerformance struct {
	Brand               string  `json:"brand"`
	TotalSales          float64 `json:"total_sales"`
	TotalUnits          float64 `json:"total_units"`
	TransactionCount    int     `json:"transaction_count"`
	AvgPrice            float64 `json:"avg_price"`
	SalesPerTransaction float64 `json:"sales_per_transaction"`
	CurrentSales        float64 `json:"current_sales"`
	PriorSales          float64 `json:"prior_sales"`
	Growth              float64 `json:"growth"`
	GrowthAvailable     bool    `json:"growth_available"`
	DropCandidate       bool    `json:"drop_candidate"`
}

// DropImpact summarizes what removing the drop candidates would cost.
type DropImpact struct {
	Candidates       int     `json:"candidates"`
	LostSales        float64 `json:"lost_sales"`
	LostTransactions int     `json:"lost_transactions"`
	SalesShare       float64 `json:"sales_share"`
}

type PaymentSummary struct {
	PaymentGroup           string  `json:"payment_group"`
	TransactionCount       int     `json:"transaction_count"`
	TotalSales             float64 `json:"total_sales"`
	AvgTransaction         float64 `json:"avg_transaction"`
	TotalItems             float64 `json:"total_items"`
	AvgItemsPerTransaction float64 `json:"avg_items_per_transaction"`
}

type PaymentProductSales struct {
	PaymentGroup  string  `json:"payment_group"`
	Product       string  `json:"product"`
	PurchaseCount int     `json:"purchase_count"`
	TotalSales    float64 `json:"total_sales"`
	UnitsSold     float64 `json:"units_sold"`
}

type CategorySales struct {
	PaymentGroup string  `json:"payment_group"`
	Category     string  `json:"category"`
	TotalSales   float64 `json:"total_sales"`
	Transactions int     `json:"transactions"`
}

type WeeklyPaymentSales struct {
	Year             int     `json:"year"`
	Week             int     `json:"week"`
	WeekLabel        string  `json:"week_label"`
	PaymentGroup     string  `json:"payment_group"`
	WeeklySales      float64 `json:"weekly_sales"`
	TransactionCount int     `json:"transaction_count"`
}

// PaymentComparison is the full cash-vs-credit page payload.
type PaymentComparison struct {
	Summaries   []PaymentSummary      `json:"summaries"`
	TopProducts []PaymentProductSales `json:"top_products"`
	Categories  []CategorySales       `json:"categories"`
	Trends      []WeeklyPaymentSales  `json:"trends"`
}

// WeekLabel renders an ISO week as e.g. "2023-W05".
func WeekLabel(year, week int) string {
	return fmt.Sprintf("%d-W%02d", year, week)
}
