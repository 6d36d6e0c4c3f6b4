package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"consulting-payments/internal/infra/logging"
	"consulting-payments/internal/usecase"
)

type Server struct {
	orderUC     usecase.OrderUseCase
	couponUC    usecase.CouponUseCase
	auth        *AuthManager
	operatorKey string
	storeCode   string
	log         *zerolog.Logger
}

func NewServer(
	orderUC usecase.OrderUseCase,
	couponUC usecase.CouponUseCase,
	auth *AuthManager,
	operatorKey string,
	storeCode string,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		orderUC:     orderUC,
		couponUC:    couponUC,
		auth:        auth,
		operatorKey: operatorKey,
		storeCode:   storeCode,
		log:         logger,
	}
}

// Router builds the chi routing tree. The webhook route is deliberately
// outside the member-auth group: the gateway does not hold a session.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if id := middleware.GetReqID(req.Context()); id != "" {
				req = req.WithContext(logging.WithTraceID(req.Context(), id))
			}
			next.ServeHTTP(w, req)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/payments", func(r chi.Router) {
		r.Post("/webhook", s.handleWebhook)

		r.Post("/pre-register", s.requireMember(s.handlePreRegister))
		r.Post("/verify", s.requireMember(s.handleVerify))
		r.Post("/coupon/valid", s.requireMember(s.handleValidCoupon))
		r.Post("/free", s.requireMember(s.handleFreeContract))
		r.Get("/history", s.requireMember(s.handleHistoryList))
		r.Get("/history/{orderID}", s.requireMember(s.handleHistoryDetail))
		r.Get("/store-code", s.requireMember(s.handleStoreCode))

		r.Get("/inquire/{merchantUID}", s.requireOperator(s.handleInquire))
	})

	return r
}
