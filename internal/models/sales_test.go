package models

import (
	"testing"
	"time"
)

func TestNormalizePayment(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"CASH", PaymentCash},
		{"cash", PaymentCash},
		{"CHANGE", PaymentCash},
		{" change ", PaymentCash},
		{"CREDIT", PaymentCredit},
		{"DEBIT", PaymentCredit},
		{"debit", PaymentCredit},
		{"CHECK", PaymentOther},
		{"GIFT CARD", PaymentOther},
		{"", PaymentOther},
	}

	for _, tt := range tests {
		if got := NormalizePayment(tt.input); got != tt.want {
			t.Errorf("NormalizePayment(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFilter_Matches_DateRange(t *testing.T) {
	rec := SalesRecord{Date: time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC)}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"no bounds", Filter{}, true},
		{"inside range", Filter{
			StartDate: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2023, 6, 30, 0, 0, 0, 0, time.UTC),
		}, true},
		{"on start bound", Filter{
			StartDate: time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC),
		}, true},
		{"on end bound", Filter{
			EndDate: time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC),
		}, true},
		{"before start", Filter{
			StartDate: time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC),
		}, false},
		{"after end", Filter{
			EndDate: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(rec); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilter_Matches_Exclusions(t *testing.T) {
	rec := SalesRecord{StoreID: "100", Category: "Candy"}

	f := Filter{ExcludedStoreIDs: []string{"100"}}
	if f.Matches(rec) {
		t.Error("record from excluded store should not match")
	}

	f = Filter{ExcludedCategories: []string{"Candy"}}
	if f.Matches(rec) {
		t.Error("record from excluded category should not match")
	}

	f = Filter{ExcludedStoreIDs: []string{"200"}, ExcludedCategories: []string{"Tobacco"}}
	if !f.Matches(rec) {
		t.Error("record should match when exclusions name other stores/categories")
	}
}

func TestFilter_Matches_NullCategoryKept(t *testing.T) {
	rec := SalesRecord{Category: ""}
	f := Filter{ExcludedCategories: []string{"Candy"}}
	if !f.Matches(rec) {
		t.Error("records without a category should survive category exclusion")
	}
}

func TestFilter_Matches_PaymentGroups(t *testing.T) {
	rec := SalesRecord{PaymentType: "CHANGE"}

	f := Filter{PaymentGroups: []string{PaymentCash}}
	if !f.Matches(rec) {
		t.Error("CHANGE normalizes to cash and should match the cash group")
	}

	f = Filter{PaymentGroups: []string{PaymentCredit}}
	if f.Matches(rec) {
		t.Error("cash record should not match a credit-only filter")
	}

	if !(Filter{}).Matches(rec) {
		t.Error("empty group list should match everything")
	}
}

func TestWeekLabel(t *testing.T) {
	tests := []struct {
		year, week int
		want       string
	}{
		{2023, 5, "2023-W05"},
		{2023, 52, "2023-W52"},
		{2024, 1, "2024-W01"},
	}
	for _, tt := range tests {
		if got := WeekLabel(tt.year, tt.week); got != tt.want {
			t.Errorf("WeekLabel(%d, %d) = %q, want %q", tt.year, tt.week, got, tt.want)
		}
	}
}

func TestSalesRecord_PaymentGroup(t *testing.T) {
	rec := SalesRecord{PaymentType: "DEBIT"}
	if got := rec.PaymentGroup(); got != PaymentCredit {
		t.Errorf("PaymentGroup() = %q, want %q", got, PaymentCredit)
	}
}
