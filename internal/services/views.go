package services

import (
	"log/slog"
	"slices"
	"strings"
	"time"

	"cstore-dashboard/internal/dataset"
	"cstore-dashboard/internal/models"
)

const (
	// DefaultTopN is the page default for the top-products ranking.
	DefaultTopN = 5

	// Drop-candidate thresholds. A beverage brand is flagged when its
	// period-over-period growth is at or below dropGrowthFloor, or when it
	// falls under the configurable sales/transaction minimums.
	dropGrowthFloor = -0.20

	DefaultMinBrandSales        = 500.0
	DefaultMinBrandTransactions = 50

	beverageCategory = "Packaged Beverages"

	topProductsPerPayment = 10
)

// BrandThresholds are the user-adjustable floors below which a brand is
// recommended for removal.
type BrandThresholds struct {
	MinSales        float64
	MinTransactions int
}

func DefaultBrandThresholds() BrandThresholds {
	return BrandThresholds{
		MinSales:        DefaultMinBrandSales,
		MinTransactions: DefaultMinBrandTransactions,
	}
}

// Analytics computes the dashboard views. Every view is a pure function of
// the loader's current snapshot and the filter parameters: no view mutates
// the snapshot, and identical inputs yield identical output.
type Analytics struct {
	loader *dataset.Loader
	logger *slog.Logger
}

func NewAnalytics(loader *dataset.Loader, logger *slog.Logger) *Analytics {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analytics{loader: loader, logger: logger}
}

// isFuel reports whether a record is a fuel sale. The source data marks
// fuel in the non-scan category; category names containing FUEL or GAS are
// treated the same way.
func isFuel(r models.SalesRecord) bool {
	if strings.EqualFold(r.NonscanCategory, "FUEL") {
		return true
	}
	upper := strings.ToUpper(r.Category)
	return strings.Contains(upper, "FUEL") || strings.Contains(upper, "GAS")
}

// TopProducts answers the first dashboard question: excluding fuels, the n
// products with the highest sales under the given filter. Results are
// sorted by summed sales descending with ties broken by product name; fewer
// than n products returns what exists.
func (a *Analytics) TopProducts(f models.Filter, n int) []models.ProductSales {
	if n <= 0 {
		n = DefaultTopN
	}

	groups := make(map[string]*models.ProductSales)
	for _, r := range a.loader.Snapshot().Records {
		if isFuel(r) || !f.Matches(r) {
			continue
		}
		g := groups[r.Product]
		if g == nil {
			g = &models.ProductSales{Product: r.Product}
			groups[r.Product] = g
		}
		g.TotalSales += r.TotalSales
		g.TotalUnits += r.Quantity
	}

	result := make([]models.ProductSales, 0, len(groups))
	for _, g := range groups {
		result = append(result, *g)
	}
	slices.SortFunc(result, func(a, b models.ProductSales) int {
		if a.TotalSales != b.TotalSales {
			if a.TotalSales > b.TotalSales {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Product, b.Product)
	})

	if len(result) > n {
		result = result[:n]
	}
	return result
}

// WeeklyTrends rolls non-fuel sales up to ISO (year, week) per product for
// the trend chart. An empty products list means all products.
func (a *Analytics) WeeklyTrends(f models.Filter, products []string) []models.WeeklyProductSales {
	wanted := make(map[string]bool, len(products))
	for _, p := range products {
		wanted[p] = true
	}

	type weekKey struct {
		year, week int
		product    string
	}
	groups := make(map[weekKey]*models.WeeklyProductSales)
	for _, r := range a.loader.Snapshot().Records {
		if isFuel(r) || !f.Matches(r) {
			continue
		}
		if len(wanted) > 0 && !wanted[r.Product] {
			continue
		}
		k := weekKey{r.Year, r.Week, r.Product}
		g := groups[k]
		if g == nil {
			g = &models.WeeklyProductSales{
				Year:      r.Year,
				Week:      r.Week,
				WeekLabel: models.WeekLabel(r.Year, r.Week),
				Product:   r.Product,
			}
			groups[k] = g
		}
		g.WeeklySales += r.TotalSales
		g.UnitsSold += r.Quantity
	}

	result := make([]models.WeeklyProductSales, 0, len(groups))
	for _, g := range groups {
		result = append(result, *g)
	}
	slices.SortFunc(result, func(a, b models.WeeklyProductSales) int {
		if a.Year != b.Year {
			return a.Year - b.Year
		}
		if a.Week != b.Week {
			return a.Week - b.Week
		}
		return strings.Compare(a.Product, b.Product)
	})
	return result
}

// BrandPerformance answers the second question: which packaged-beverage
// brands are candidates to drop. Growth compares the second half of the
// filter window against the first (equal length); a brand with no prior
// sales has no growth figure rather than zero. The result is ranked
// ascending by growth so the drop candidates surface first, with
// no-growth-figure brands last.
func (a *Analytics) BrandPerformance(f models.Filter, th BrandThresholds) ([]models.BrandPerformance, models.DropImpact) {
	snap := a.loader.Snapshot()

	start, end := f.StartDate, f.EndDate
	if start.IsZero() {
		start = snap.MinDate
	}
	if end.IsZero() {
		end = snap.MaxDate
	}
	var mid time.Time
	if !start.IsZero() && end.After(start) {
		mid = start.Add(end.Sub(start) / 2)
	}

	type brandAgg struct {
		perf     models.BrandPerformance
		rows     int
		priceSum float64
	}
	groups := make(map[string]*brandAgg)
	for _, r := range snap.Records {
		if r.Category != beverageCategory || r.Brand == "" || !f.Matches(r) {
			continue
		}
		g := groups[r.Brand]
		if g == nil {
			g = &brandAgg{perf: models.BrandPerformance{Brand: r.Brand}}
			groups[r.Brand] = g
		}
		g.perf.TotalSales += r.TotalSales
		g.perf.TotalUnits += r.Quantity
		g.perf.TransactionCount++ // one row per transaction item
		g.rows++
		g.priceSum += r.UnitPrice
		if !mid.IsZero() {
			if r.Date.Before(mid) {
				g.perf.PriorSales += r.TotalSales
			} else {
				g.perf.CurrentSales += r.TotalSales
			}
		}
	}

	result := make([]models.BrandPerformance, 0, len(groups))
	var totalSales float64
	for _, g := range groups {
		p := g.perf
		if g.rows > 0 {
			p.AvgPrice = g.priceSum / float64(g.rows)
		}
		if p.TransactionCount > 0 {
			p.SalesPerTransaction = p.TotalSales / float64(p.TransactionCount)
		}
		if p.PriorSales > 0 {
			p.Growth = (p.CurrentSales - p.PriorSales) / p.PriorSales
			p.GrowthAvailable = true
		}
		p.DropCandidate = (p.GrowthAvailable && p.Growth <= dropGrowthFloor) ||
			p.TotalSales < th.MinSales ||
			p.TransactionCount < th.MinTransactions
		totalSales += p.TotalSales
		result = append(result, p)
	}

	slices.SortFunc(result, func(a, b models.BrandPerformance) int {
		switch {
		case a.GrowthAvailable && !b.GrowthAvailable:
			return -1
		case !a.GrowthAvailable && b.GrowthAvailable:
			return 1
		case a.GrowthAvailable && b.GrowthAvailable && a.Growth != b.Growth:
			if a.Growth < b.Growth {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Brand, b.Brand)
	})

	var impact models.DropImpact
	for _, p := range result {
		if !p.DropCandidate {
			continue
		}
		impact.Candidates++
		impact.LostSales += p.TotalSales
		impact.LostTransactions += p.TransactionCount
	}
	if totalSales > 0 {
		impact.SalesShare = impact.LostSales / totalSales
	}
	return result, impact
}

// PaymentComparison answers the third question: how cash and credit
// customers compare. Records are partitioned by normalized payment group;
// the two partitions are disjoint and rows outside both are excluded.
func (a *Analytics) PaymentComparison(f models.Filter) models.PaymentComparison {
	type partition struct {
		summary models.PaymentSummary
	}
	partitions := map[string]*partition{
		models.PaymentCash:   {summary: models.PaymentSummary{PaymentGroup: models.PaymentCash}},
		models.PaymentCredit: {summary: models.PaymentSummary{PaymentGroup: models.PaymentCredit}},
	}

	type productKey struct{ group, product string }
	productGroups := make(map[productKey]*models.PaymentProductSales)

	type categoryKey struct{ group, category string }
	categoryGroups := make(map[categoryKey]*models.CategorySales)

	type trendKey struct {
		year, week int
		group      string
	}
	trendGroups := make(map[trendKey]*models.WeeklyPaymentSales)

	for _, r := range a.loader.Snapshot().Records {
		group := r.PaymentGroup()
		p, ok := partitions[group]
		if !ok || !f.Matches(r) {
			continue
		}

		p.summary.TransactionCount++
		p.summary.TotalSales += r.TotalSales
		p.summary.TotalItems += r.Quantity

		pk := productKey{group, r.Product}
		pg := productGroups[pk]
		if pg == nil {
			pg = &models.PaymentProductSales{PaymentGroup: group, Product: r.Product}
			productGroups[pk] = pg
		}
		pg.PurchaseCount++
		pg.TotalSales += r.TotalSales
		pg.UnitsSold += r.Quantity

		ck := categoryKey{group, r.Category}
		cg := categoryGroups[ck]
		if cg == nil {
			cg = &models.CategorySales{PaymentGroup: group, Category: r.Category}
			categoryGroups[ck] = cg
		}
		cg.TotalSales += r.TotalSales
		cg.Transactions++

		tk := trendKey{r.Year, r.Week, group}
		tg := trendGroups[tk]
		if tg == nil {
			tg = &models.WeeklyPaymentSales{
				Year:         r.Year,
				Week:         r.Week,
				WeekLabel:    models.WeekLabel(r.Year, r.Week),
				PaymentGroup: group,
			}
			trendGroups[tk] = tg
		}
		tg.WeeklySales += r.TotalSales
		tg.TransactionCount++
	}

	var result models.PaymentComparison
	for _, group := range []string{models.PaymentCash, models.PaymentCredit} {
		s := partitions[group].summary
		if s.TransactionCount > 0 {
			s.AvgTransaction = s.TotalSales / float64(s.TransactionCount)
			s.AvgItemsPerTransaction = s.TotalItems / float64(s.TransactionCount)
		}
		result.Summaries = append(result.Summaries, s)
	}

	products := make([]models.PaymentProductSales, 0, len(productGroups))
	for _, pg := range productGroups {
		products = append(products, *pg)
	}
	slices.SortFunc(products, func(a, b models.PaymentProductSales) int {
		if a.PaymentGroup != b.PaymentGroup {
			return strings.Compare(a.PaymentGroup, b.PaymentGroup)
		}
		if a.UnitsSold != b.UnitsSold {
			if a.UnitsSold > b.UnitsSold {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Product, b.Product)
	})
	counts := make(map[string]int)
	for _, p := range products {
		if counts[p.PaymentGroup] >= topProductsPerPayment {
			continue
		}
		counts[p.PaymentGroup]++
		result.TopProducts = append(result.TopProducts, p)
	}

	for _, cg := range categoryGroups {
		result.Categories = append(result.Categories, *cg)
	}
	slices.SortFunc(result.Categories, func(a, b models.CategorySales) int {
		if a.PaymentGroup != b.PaymentGroup {
			return strings.Compare(a.PaymentGroup, b.PaymentGroup)
		}
		if a.TotalSales != b.TotalSales {
			if a.TotalSales > b.TotalSales {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Category, b.Category)
	})

	for _, tg := range trendGroups {
		result.Trends = append(result.Trends, *tg)
	}
	slices.SortFunc(result.Trends, func(a, b models.WeeklyPaymentSales) int {
		if a.Year != b.Year {
			return a.Year - b.Year
		}
		if a.Week != b.Week {
			return a.Week - b.Week
		}
		return strings.Compare(a.PaymentGroup, b.PaymentGroup)
	})

	return result
}

// Stores lists the stores present in the dataset, sorted by name.
func (a *Analytics) Stores() []models.Store {
	return a.loader.Snapshot().Stores
}

// Stats summarizes the loaded dataset for the admin endpoint.
func (a *Analytics) Stats() map[string]any {
	snap := a.loader.Snapshot()
	return map[string]any{
		"record_count": len(snap.Records),
		"store_count":  len(snap.Stores),
		"source":       snap.SourcePath,
		"loaded_at":    snap.LoadedAt,
		"skipped_rows": snap.Skipped,
		"min_date":     snap.MinDate,
		"max_date":     snap.MaxDate,
	}
}
