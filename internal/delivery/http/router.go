package http

import (
	"net/http"

	"careplan-service/internal/delivery/http/handler"
	"careplan-service/internal/delivery/http/middleware"
	"careplan-service/pkg/response"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type Router struct {
	router          *mux.Router
	log             *logrus.Logger
	carePlanHandler *handler.CarePlanHandler
	intakeHandler   *handler.IntakeHandler
	auditLogHandler *handler.AuditLogHandler
	authMiddleware  *middleware.AuthMiddleware
	corsMiddleware  *middleware.CORSMiddleware
}

func NewRouter(
	log *logrus.Logger,
	carePlanHandler *handler.CarePlanHandler,
	intakeHandler *handler.IntakeHandler,
	auditLogHandler *handler.AuditLogHandler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
) *Router {
	return &Router{
		router:          mux.NewRouter(),
		log:             log,
		carePlanHandler: carePlanHandler,
		intakeHandler:   intakeHandler,
		auditLogHandler: auditLogHandler,
		authMiddleware:  authMiddleware,
		corsMiddleware:  corsMiddleware,
	}
}

// Setup registers every route. CORS wraps the whole router so preflight
// requests are answered before route matching.
func (r *Router) Setup() http.Handler {
	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Care plan reads (public)
	careplans := api.PathPrefix("/careplans").Subrouter()
	careplans.HandleFunc("/search", r.carePlanHandler.Search).Methods(http.MethodGet)
	careplans.HandleFunc("/{id}", r.carePlanHandler.GetDetail).Methods(http.MethodGet)
	careplans.HandleFunc("/{id}/status", r.carePlanHandler.GetStatus).Methods(http.MethodGet)
	careplans.HandleFunc("/{id}/download", r.carePlanHandler.Download).Methods(http.MethodGet)

	// Partner routes (token required when configured)
	partner := api.NewRoute().Subrouter()
	partner.Use(r.authMiddleware.Authenticate)
	partner.HandleFunc("/careplans", r.carePlanHandler.Submit).Methods(http.MethodPost)
	partner.HandleFunc("/intake/{source}", r.intakeHandler.Receive).Methods(http.MethodPost)
	partner.HandleFunc("/audit-logs", r.auditLogHandler.ListAuditLogs).Methods(http.MethodGet)
	partner.HandleFunc("/audit-logs/{id}", r.auditLogHandler.GetAuditLog).Methods(http.MethodGet)

	r.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		response.MethodNotAllowed(w)
	})
	r.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "")
	})

	r.router.Use(middleware.RequestLogger(r.log))

	return r.corsMiddleware.Handle(r.router)
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
