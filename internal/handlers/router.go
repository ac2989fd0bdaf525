package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RouterConfig параметры, не относящиеся к обработчикам
type RouterConfig struct {
	CORSOrigins []string
	Gatherer    prometheus.Gatherer
}

// NewRouter собирает middleware и маршруты API
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.Log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", h.HealthHandler)
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", h.PingHandler)

		r.Post("/organizations", h.CreateOrganizationHandler)
		r.Get("/organizations/{orgId}/assessments", h.GetAssessmentsHandler)
		r.Get("/organizations/{orgId}/assessments/summary", h.GetAssessmentSummaryHandler)

		// заявки и строки субподрядчиков
		r.Post("/bids", h.CreateBidHandler)
		r.Get("/bids/{bidId}", h.GetBidHandler)
		r.Patch("/bids/{bidId}", h.EditBidHandler)
		r.Post("/bids/{bidId}/subcontractors", h.AddLineItemHandler)
		r.Delete("/bids/{bidId}/subcontractors/{lineItemId}", h.DeleteLineItemHandler)
		r.Post("/bids/{bidId}/validate", h.ValidateBidHandler)
		r.Get("/bids/{bidId}/validate", h.ValidateBidHandler)
		r.Get("/bids/{bidId}/validations", h.GetValidationsHandler)

		r.Post("/subcontractors", h.CreateSubcontractorHandler)
		r.Get("/subcontractors/{subcontractorId}", h.GetSubcontractorHandler)

		// справочник
		r.Post("/directory", h.CreateDirectoryEntryHandler)
		r.Get("/directory/match", h.MatchDirectoryHandler)
		r.Get("/directory/{entryId}", h.GetDirectoryEntryHandler)
		r.Put("/directory/{entryId}", h.UpdateDirectoryEntryHandler)

		// юрисдикции и правила
		r.Post("/jurisdictions", h.CreateJurisdictionHandler)
		r.Get("/jurisdictions/{code}", h.GetJurisdictionHandler)
		r.Post("/jurisdictions/{code}/rules", h.CreateRuleHandler)
		r.Get("/jurisdictions/{code}/rules", h.GetRulesHandler)
		r.Put("/rules/{ruleId}", h.UpdateRuleHandler)
		r.Delete("/rules/{ruleId}", h.DeleteRuleHandler)

		r.Post("/opportunities", h.CreateOpportunityHandler)
		r.Get("/opportunities", h.GetOpportunitiesHandler)
		r.Get("/opportunities/{opportunityId}", h.GetOpportunityHandler)

		r.Post("/assessments", h.CreateAssessmentHandler)
	})
	return r
}

func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration_ms", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("HTTP request")
		})
	}
}
