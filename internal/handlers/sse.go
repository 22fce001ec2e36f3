package handlers

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"cstore-dashboard/internal/models"
	"cstore-dashboard/internal/services"
	"github.com/starfederation/datastar-go/datastar"
)

var tmplFuncs = template.FuncMap{
	"rank": func(i int) int { return i + 1 },
	"pct":  func(g float64) float64 { return g * 100 },
}

var topProductsTemplate = template.Must(template.New("topProducts").Funcs(tmplFuncs).Parse(`
<div id="top-products-content">
<table class="modern-table">
<thead><tr><th>#</th><th>Product</th><th>Total Sales</th><th>Units Sold</th></tr></thead>
<tbody>
{{range $i, $p := .}}<tr>
<td>{{rank $i}}</td>
<td>{{$p.Product}}</td>
<td><strong>${{printf "%.2f" $p.TotalSales}}</strong></td>
<td>{{printf "%.0f" $p.TotalUnits}}</td>
</tr>{{end}}
</tbody>
</table>
</div>`))

var brandTableTemplate = template.Must(template.New("brandTable").Funcs(tmplFuncs).Parse(`
<div id="brands-content">
<table class="modern-table">
<thead><tr><th>Brand</th><th>Total Sales</th><th>Transactions</th><th>Growth</th><th>Drop?</th></tr></thead>
<tbody>
{{range .}}<tr{{if .DropCandidate}} class="drop-candidate"{{end}}>
<td>{{.Brand}}</td>
<td>${{printf "%.2f" .TotalSales}}</td>
<td>{{.TransactionCount}}</td>
<td>{{if .GrowthAvailable}}{{printf "%+.1f%%" (pct .Growth)}}{{else}}n/a{{end}}</td>
<td>{{if .DropCandidate}}yes{{else}}no{{end}}</td>
</tr>{{end}}
</tbody>
</table>
</div>`))

type SSEHandlers struct {
	analytics    *services.Analytics
	demographics *services.Demographics
	logger       *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, demographics *services.Demographics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics:    analytics,
		demographics: demographics,
		logger:       logger,
	}
}

func renderTopProducts(products []models.ProductSales) (string, error) {
	if len(products) == 0 {
		return `<div id="top-products-content"><p class="empty-state">No products match the selected filters.</p></div>`, nil
	}
	var buf strings.Builder
	err := topProductsTemplate.Execute(&buf, products)
	return buf.String(), err
}

func renderBrandTable(brands []models.BrandPerformance) (string, error) {
	if len(brands) == 0 {
		return `<div id="brands-content"><p class="empty-state">No packaged beverage brands match the selected filters.</p></div>`, nil
	}
	var buf strings.Builder
	err := brandTableTemplate.Execute(&buf, brands)
	return buf.String(), err
}

func (h *SSEHandlers) HandleTopProducts(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	f, err := parseFilter(r)
	if err != nil {
		h.logger.Warn("bad top products filter", "error", err)
		return
	}
	products := h.analytics.TopProducts(f, intParam(r, "n", services.DefaultTopN))

	html, err := renderTopProducts(products)
	if err != nil {
		h.logger.Error("render top products", "error", err)
		return
	}
	sse.PatchElements(html)

	names := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, p.Product)
	}
	trends := h.analytics.WeeklyTrends(f, names)
	signals, err := json.Marshal(map[string]any{
		"topProductsData": products,
		"weeklyTrends":    trends,
	})
	if err != nil {
		h.logger.Error("marshal top products signals", "error", err)
		return
	}
	sse.PatchSignals(signals)

	if fl, ok := w.(http.Flusher); ok {
		fl.Flush()
	}
}

func (h *SSEHandlers) HandleBrandPerformance(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	f, err := parseFilter(r)
	if err != nil {
		h.logger.Warn("bad brand filter", "error", err)
		return
	}
	th := services.BrandThresholds{
		MinSales:        floatParam(r, "min_sales", services.DefaultMinBrandSales),
		MinTransactions: intParam(r, "min_transactions", services.DefaultMinBrandTransactions),
	}
	brands, impact := h.analytics.BrandPerformance(f, th)

	html, err := renderBrandTable(brands)
	if err != nil {
		h.logger.Error("render brand table", "error", err)
		return
	}
	sse.PatchElements(html)

	signals, err := json.Marshal(map[string]any{
		"brandsData": brands,
		"dropImpact": impact,
	})
	if err != nil {
		h.logger.Error("marshal brand signals", "error", err)
		return
	}
	sse.PatchSignals(signals)

	if fl, ok := w.(http.Flusher); ok {
		fl.Flush()
	}
}

func (h *SSEHandlers) HandlePaymentComparison(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	f, err := parseFilter(r)
	if err != nil {
		h.logger.Warn("bad payment filter", "error", err)
		return
	}
	comparison := h.analytics.PaymentComparison(f)

	signals, err := json.Marshal(map[string]any{
		"paymentData": comparison,
	})
	if err != nil {
		h.logger.Error("marshal payment signals", "error", err)
		return
	}
	sse.PatchSignals(signals)
	sse.PatchElements(`<div id="payments-content">Payment comparison data loaded</div>`)

	if fl, ok := w.(http.Flusher); ok {
		fl.Flush()
	}
}

// HandleDemographics patches the demographics panel. A census failure
// degrades only this fragment; the rest of the dashboard stays live.
func (h *SSEHandlers) HandleDemographics(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	storeID := r.URL.Query().Get("store")
	if storeID == "" {
		sse.PatchElements(`<div id="demographics-content"><p class="empty-state">Select a store to view demographics.</p></div>`)
		return
	}
	storeIDs := []string{storeID}
	if compare := r.URL.Query().Get("compare"); compare != "" && compare != storeID {
		storeIDs = append(storeIDs, compare)
	}

	profiles, err := h.demographics.Compare(r.Context(), storeIDs...)
	if err != nil {
		h.logger.Warn("demographics unavailable", "store", storeID, "error", err)
		sse.PatchElements(`<div id="demographics-content"><p class="empty-state">Census data is currently unavailable. Other pages are unaffected.</p></div>`)
		return
	}

	signals, err := json.Marshal(map[string]any{
		"demographicsData": profiles,
	})
	if err != nil {
		h.logger.Error("marshal demographics signals", "error", err)
		return
	}
	sse.PatchSignals(signals)
	sse.PatchElements(fmt.Sprintf(`<div id="demographics-content">Demographics loaded for %d store(s)</div>`, len(profiles)))

	if fl, ok := w.(http.Flusher); ok {
		fl.Flush()
	}
}

// HandleRefreshAll recomputes every view with default parameters and
// pushes the results in one stream.
func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	var f models.Filter
	products := h.analytics.TopProducts(f, services.DefaultTopN)
	brands, impact := h.analytics.BrandPerformance(f, services.DefaultBrandThresholds())
	comparison := h.analytics.PaymentComparison(f)

	if html, err := renderTopProducts(products); err == nil {
		sse.PatchElements(html)
	}
	if html, err := renderBrandTable(brands); err == nil {
		sse.PatchElements(html)
	}

	signals, err := json.Marshal(map[string]any{
		"topProductsData": products,
		"brandsData":      brands,
		"dropImpact":      impact,
		"paymentData":     comparison,
	})
	if err != nil {
		h.logger.Error("marshal refresh signals", "error", err)
		return
	}
	sse.PatchSignals(signals)

	if fl, ok := w.(http.Flusher); ok {
		fl.Flush()
	}
}
