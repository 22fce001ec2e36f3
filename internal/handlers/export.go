package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"cstore-dashboard/internal/errors"
	"cstore-dashboard/internal/export"
	"cstore-dashboard/internal/observability"
	"cstore-dashboard/internal/services"
)

type ExportHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewExportHandlers(analytics *services.Analytics, logger *slog.Logger) *ExportHandlers {
	return &ExportHandlers{analytics: analytics, logger: logger}
}

func attachmentName(prefix, ext string) string {
	return fmt.Sprintf("%s_%s.%s", prefix, time.Now().Format("2006-01-02"), ext)
}

func (h *ExportHandlers) HandleTopProductsCSV(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}
	products := h.analytics.TopProducts(f, intParam(r, "n", services.DefaultTopN))

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+attachmentName("top_products", "csv"))
	if err := export.WriteTopProductsCSV(w, products); err != nil {
		h.logger.Error("write top products csv", "error", err)
	}
}

func (h *ExportHandlers) HandlePaymentComparisonCSV(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}
	comparison := h.analytics.PaymentComparison(f)

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+attachmentName("payment_comparison", "csv"))
	if err := export.WritePaymentComparisonCSV(w, comparison.Summaries); err != nil {
		h.logger.Error("write payment comparison csv", "error", err)
	}
}

func (h *ExportHandlers) HandleBrandAnalysisXLSX(w http.ResponseWriter, r *http.Request) {
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

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename="+attachmentName("beverage_brand_analysis", "xlsx"))
	if err := export.WriteBrandAnalysisXLSX(w, brands, impact); err != nil {
		h.logger.Error("write brand analysis xlsx", "error", err)
	}
}
