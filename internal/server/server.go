package server

import (
	"log/slog"
	"net/http"

	"cstore-dashboard/internal/handlers"
	"cstore-dashboard/internal/services"
)

type Server struct {
	mux            *http.ServeMux
	logger         *slog.Logger
	apiHandlers    *handlers.APIHandlers
	sseHandlers    *handlers.SSEHandlers
	exportHandlers *handlers.ExportHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

func NewServer(analytics *services.Analytics, demographics *services.Demographics, logger *slog.Logger, templateHandlers *TemplateHandlers) *Server {
	s := &Server{
		mux:            http.NewServeMux(),
		logger:         logger,
		apiHandlers:    handlers.NewAPIHandlers(analytics, demographics, logger),
		sseHandlers:    handlers.NewSSEHandlers(analytics, demographics, logger),
		exportHandlers: handlers.NewExportHandlers(analytics, logger),
	}
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	// Dashboard page
	s.mux.HandleFunc("GET /", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	// REST API endpoints, one per report view
	s.mux.HandleFunc("GET /api/top-products", s.apiHandlers.HandleTopProducts)
	s.mux.HandleFunc("GET /api/weekly-trends", s.apiHandlers.HandleWeeklyTrends)
	s.mux.HandleFunc("GET /api/brand-performance", s.apiHandlers.HandleBrandPerformance)
	s.mux.HandleFunc("GET /api/payment-comparison", s.apiHandlers.HandlePaymentComparison)
	s.mux.HandleFunc("GET /api/demographics", s.apiHandlers.HandleDemographics)
	s.mux.HandleFunc("GET /api/stores", s.apiHandlers.HandleStores)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/top-products", s.sseHandlers.HandleTopProducts)
	s.mux.HandleFunc("GET /sse/brand-performance", s.sseHandlers.HandleBrandPerformance)
	s.mux.HandleFunc("GET /sse/payment-comparison", s.sseHandlers.HandlePaymentComparison)
	s.mux.HandleFunc("GET /sse/demographics", s.sseHandlers.HandleDemographics)
	s.mux.HandleFunc("GET /sse/refresh-all", s.sseHandlers.HandleRefreshAll)

	// Downloads
	s.mux.HandleFunc("GET /export/top-products.csv", s.exportHandlers.HandleTopProductsCSV)
	s.mux.HandleFunc("GET /export/payment-comparison.csv", s.exportHandlers.HandlePaymentComparisonCSV)
	s.mux.HandleFunc("GET /export/brand-analysis.xlsx", s.exportHandlers.HandleBrandAnalysisXLSX)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
