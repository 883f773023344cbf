// Package api exposes the inventory service over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"shopkeep/m/domain"
	"shopkeep/m/internal/inventory"
	"shopkeep/m/internal/store"
)

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	svc         *inventory.Service
	store       *store.Store
	secret      string
	tokenTTL    time.Duration
	corsOrigins []string
	log         *zap.Logger
}

type Options struct {
	Secret      string
	TokenTTL    time.Duration
	CORSOrigins []string
	Logger      *zap.Logger
}

// New constructs a Handler.
func New(svc *inventory.Service, st *store.Store, opts Options) *Handler {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	return &Handler{
		svc:         svc,
		store:       st,
		secret:      opts.Secret,
		tokenTTL:    opts.TokenTTL,
		corsOrigins: opts.CORSOrigins,
		log:         log.Named("http"),
	}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	r.Use(middleware.RequestID)
	r.Use(h.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.login)
		r.Group(func(protected chi.Router) {
			protected.Use(h.authMiddleware, h.requirePermission(domain.PermUsersManage))
			protected.Post("/register", h.register)
		})
		r.With(h.authMiddleware).Post("/reset-password", h.resetPassword)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(h.authMiddleware)

		pr.Route("/roles", func(r chi.Router) {
			r.Use(h.requirePermission(domain.PermUsersManage))
			r.Get("/", h.listRoles)
			r.Post("/", h.createRole)
		})

		pr.Route("/products", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(h.requirePermission(domain.PermInventoryRead))
				r.Get("/", h.listProducts)
				r.Get("/{id}", h.getProduct)
				r.Get("/{id}/serials", h.listSerials)
				r.Get("/{id}/movements", h.listMovements)
			})
			r.Group(func(r chi.Router) {
				r.Use(h.requirePermission(domain.PermProductsWrite))
				r.Post("/", h.createProduct)
				r.Put("/{id}", h.updateProduct)
				r.Delete("/{id}", h.deleteProduct)
			})
		})

		pr.Route("/customers", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(h.requirePermission(domain.PermInventoryRead))
				r.Get("/", h.listCustomers)
				r.Get("/{id}", h.getCustomer)
			})
			r.Group(func(r chi.Router) {
				r.Use(h.requirePermission(domain.PermPartiesWrite))
				r.Post("/", h.createCustomer)
				r.Put("/{id}", h.updateCustomer)
				r.Delete("/{id}", h.deleteCustomer)
			})
		})

		pr.Route("/suppliers", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(h.requirePermission(domain.PermInventoryRead))
				r.Get("/", h.listSuppliers)
				r.Get("/{id}", h.getSupplier)
			})
			r.Group(func(r chi.Router) {
				r.Use(h.requirePermission(domain.PermPartiesWrite))
				r.Post("/", h.createSupplier)
				r.Put("/{id}", h.updateSupplier)
				r.Delete("/{id}", h.deleteSupplier)
			})
		})

		pr.Route("/sales", func(r chi.Router) {
			r.Use(h.requirePermission(domain.PermSalesWrite))
			r.Get("/", h.listSales)
			r.Post("/", h.createSale)
			r.Get("/{id}", h.getSale)
			r.Put("/{id}", h.updateSale)
			r.Delete("/{id}", h.deleteSale)
		})

		pr.Route("/purchases", func(r chi.Router) {
			r.Use(h.requirePermission(domain.PermPurchasesWrite))
			r.Get("/", h.listPurchases)
			r.Post("/", h.createPurchase)
			r.Get("/{id}", h.getPurchase)
			r.Put("/{id}", h.updatePurchase)
			r.Delete("/{id}", h.deletePurchase)
		})

		pr.Route("/sales-returns", func(r chi.Router) {
			r.Use(h.requirePermission(domain.PermReturnsWrite))
			r.Get("/", h.listSalesReturns)
			r.Post("/", h.createSalesReturn)
			r.Get("/{id}", h.getSalesReturn)
			r.Delete("/{id}", h.deleteSalesReturn)
		})

		pr.Route("/purchase-returns", func(r chi.Router) {
			r.Use(h.requirePermission(domain.PermReturnsWrite))
			r.Get("/", h.listPurchaseReturns)
			r.Post("/", h.createPurchaseReturn)
			r.Get("/{id}", h.getPurchaseReturn)
			r.Delete("/{id}", h.deletePurchaseReturn)
		})

		pr.Route("/exchanges", func(r chi.Router) {
			r.Use(h.requirePermission(domain.PermExchangesWrite))
			r.Get("/", h.listExchanges)
			r.Post("/", h.createExchange)
			r.Get("/{id}", h.getExchange)
			r.Delete("/{id}", h.deleteExchange)
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.log.Warn("health check failed", zap.Error(err))
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// accessLog writes one line per request.
func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			h.log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		}()
		next.ServeHTTP(ww, r)
	})
}
