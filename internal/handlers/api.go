package handlers

import (
	stderrors "errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cstore-dashboard/internal/errors"
	"cstore-dashboard/internal/models"
	"cstore-dashboard/internal/observability"
	"cstore-dashboard/internal/services"
)

const cacheHeader = "public, max-age=300"

var cacheHeaders = map[string]string{
	"Cache-Control": cacheHeader,
}

type APIHandlers struct {
	analytics    *services.Analytics
	demographics *services.Demographics
	logger       *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, demographics *services.Demographics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics:    analytics,
		demographics: demographics,
		logger:       logger,
	}
}

// parseFilter reads the shared view parameters from the query string:
// start/end dates (YYYY-MM-DD) and comma-separated exclusion lists.
func parseFilter(r *http.Request) (models.Filter, error) {
	q := r.URL.Query()
	var f models.Filter

	if v := q.Get("start"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, errors.BadRequest("invalid start date, want YYYY-MM-DD")
		}
		f.StartDate = t
	}
	if v := q.Get("end"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, errors.BadRequest("invalid end date, want YYYY-MM-DD")
		}
		f.EndDate = t
	}
	if !f.StartDate.IsZero() && !f.EndDate.IsZero() && f.EndDate.Before(f.StartDate) {
		return f, errors.BadRequest("end date is before start date")
	}

	f.ExcludedStoreIDs = splitParam(q.Get("exclude_stores"))
	f.ExcludedCategories = splitParam(q.Get("exclude_categories"))
	for _, g := range splitParam(q.Get("payment_groups")) {
		f.PaymentGroups = append(f.PaymentGroups, models.NormalizePayment(g))
	}
	return f, nil
}

func splitParam(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func intParam(r *http.Request, name string, def int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func floatParam(r *http.Request, name string, def float64) float64 {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return def
}

func (h *APIHandlers) HandleTopProducts(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	n := intParam(r, "n", services.DefaultTopN)
	data := h.analytics.TopProducts(f, n)

	errors.WriteSuccessWithHeaders(w, data, cacheHeaders)
}

func (h *APIHandlers) HandleWeeklyTrends(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	products := splitParam(r.URL.Query().Get("products"))
	if len(products) == 0 {
		// Default the trend chart to the current top products.
		for _, p := range h.analytics.TopProducts(f, services.DefaultTopN) {
			products = append(products, p.Product)
		}
	}
	data := h.analytics.WeeklyTrends(f, products)

	errors.WriteSuccessWithHeaders(w, data, cacheHeaders)
}

func (h *APIHandlers) HandleBrandPerformance(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	th := services.BrandThresholds{
		MinSales:        floatParam(r, "min_sales", services.DefaultMinBrandSales),
		MinTransactions: intParam(r, "min_transactions", services.DefaultMinBrandTransactions),
	}
	brands, impact := h.analytics.BrandPerformance(f, th)

	errors.WriteSuccessWithHeaders(w, map[string]any{
		"brands": brands,
		"impact": impact,
	}, cacheHeaders)
}

func (h *APIHandlers) HandlePaymentComparison(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	data := h.analytics.PaymentComparison(f)

	errors.WriteSuccessWithHeaders(w, data, cacheHeaders)
}

func (h *APIHandlers) HandleDemographics(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	storeID := r.URL.Query().Get("store")
	if storeID == "" {
		errors.WriteError(w, h.logger, errors.BadRequest("store parameter is required"), requestID)
		return
	}
	storeIDs := []string{storeID}
	if compare := r.URL.Query().Get("compare"); compare != "" && compare != storeID {
		storeIDs = append(storeIDs, compare)
	}

	profiles, err := h.demographics.Compare(r.Context(), storeIDs...)
	if err != nil {
		if stderrors.Is(err, services.ErrUnknownStore) {
			errors.WriteError(w, h.logger, errors.NotFound(err.Error()), requestID)
			return
		}
		errors.WriteError(w, h.logger, errors.UpstreamWrap(err, "census data unavailable"), requestID)
		return
	}

	errors.WriteSuccessWithHeaders(w, profiles, cacheHeaders)
}

func (h *APIHandlers) HandleStores(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.analytics.Stores(), cacheHeaders)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.analytics.Stats())
}
