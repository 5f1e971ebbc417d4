package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	auditdomain "github.com/smallbiznis/maidbook/internal/audit/domain"
	authdomain "github.com/smallbiznis/maidbook/internal/auth/domain"
	"github.com/smallbiznis/maidbook/internal/authorization"
	bookingdomain "github.com/smallbiznis/maidbook/internal/booking/domain"
	catalogdomain "github.com/smallbiznis/maidbook/internal/catalog/domain"
	cleanerdomain "github.com/smallbiznis/maidbook/internal/cleaner/domain"
	"github.com/smallbiznis/maidbook/internal/clock"
	"github.com/smallbiznis/maidbook/internal/config"
	customerdomain "github.com/smallbiznis/maidbook/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/maidbook/internal/invoice/domain"
	"github.com/smallbiznis/maidbook/internal/observability"
	obsmiddleware "github.com/smallbiznis/maidbook/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/maidbook/internal/observability/metrics"
	obstracing "github.com/smallbiznis/maidbook/internal/observability/tracing"
	pricingdomain "github.com/smallbiznis/maidbook/internal/pricing/domain"
	promodomain "github.com/smallbiznis/maidbook/internal/promo/domain"
	"github.com/smallbiznis/maidbook/internal/ratelimit"
	reportdomain "github.com/smallbiznis/maidbook/internal/report/domain"
	timeslotdomain "github.com/smallbiznis/maidbook/internal/timeslot/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware(obstracing.WithSkipPaths("/health", "/metrics")))
	if httpMetrics != nil {
		r.Use(httpMetrics.GinMiddleware())
	}
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	addr := cfg.HTTPAddr
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	clock  clock.Clock

	authSvc     authdomain.Service
	authzSvc    authorization.Service
	pricingSvc  pricingdomain.Service
	catalogSvc  catalogdomain.Service
	promoSvc    promodomain.Service
	slotSvc     timeslotdomain.Service
	bookingSvc  bookingdomain.Service
	invoiceSvc  invoicedomain.Service
	cleanerSvc  cleanerdomain.Service
	customerSvc customerdomain.Service
	reportSvc   reportdomain.Service
	auditSvc    auditdomain.Service

	limiter    *ratelimit.PublicLimiter
	obsMetrics *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	Clock       clock.Clock
	AuthSvc     authdomain.Service
	AuthzSvc    authorization.Service
	PricingSvc  pricingdomain.Service
	CatalogSvc  catalogdomain.Service
	PromoSvc    promodomain.Service
	SlotSvc     timeslotdomain.Service
	BookingSvc  bookingdomain.Service
	InvoiceSvc  invoicedomain.Service
	CleanerSvc  cleanerdomain.Service
	CustomerSvc customerdomain.Service
	ReportSvc   reportdomain.Service
	AuditSvc    auditdomain.Service
	Limiter     *ratelimit.PublicLimiter `optional:"true"`
	ObsMetrics  *obsmetrics.Metrics      `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		clock:       p.Clock,
		authSvc:     p.AuthSvc,
		authzSvc:    p.AuthzSvc,
		pricingSvc:  p.PricingSvc,
		catalogSvc:  p.CatalogSvc,
		promoSvc:    p.PromoSvc,
		slotSvc:     p.SlotSvc,
		bookingSvc:  p.BookingSvc,
		invoiceSvc:  p.InvoiceSvc,
		cleanerSvc:  p.CleanerSvc,
		customerSvc: p.CustomerSvc,
		reportSvc:   p.ReportSvc,
		auditSvc:    p.AuditSvc,
		limiter:     p.Limiter,
		obsMetrics:  p.ObsMetrics,
	}

	svc.registerPublicRoutes()
	svc.registerCustomerRoutes()
	svc.registerAdminRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerPublicRoutes() {
	api := s.engine.Group("/api")

	// -------- Pricing --------
	api.GET("/pricing", s.GetPricingMatrix)
	api.GET("/pricing/:house_size/:frequency", s.GetBasePrice)

	// -------- Catalog --------
	api.GET("/services", s.ListServices)

	// -------- Time Slots --------
	api.GET("/time-slots", s.ListTimeSlots)
	api.GET("/available-dates", s.ListAvailableDates)

	// -------- Promo --------
	api.POST("/validate-promo-code", s.PublicRateLimit(ratelimit.ScopePromo), s.OptionalAuth(), s.ValidatePromoCode)

	// -------- Guest checkout --------
	api.POST("/bookings/guest", s.PublicRateLimit(ratelimit.ScopeGuestBooking), s.CreateGuestBooking)
	api.GET("/bookings/ref/:reference", s.GetBookingByReference)

	// -------- Auth --------
	api.POST("/auth/register", s.PublicRateLimit(ratelimit.ScopeLogin), s.Register)
	api.POST("/auth/login", s.PublicRateLimit(ratelimit.ScopeLogin), s.Login)
}

func (s *Server) registerCustomerRoutes() {
	api := s.engine.Group("/api", s.AuthRequired())

	api.GET("/auth/me", s.Me)

	api.POST("/bookings", s.authorize(authorization.ObjectBooking, authorization.ActionBookingCreate), s.CreateBooking)
	api.GET("/bookings", s.authorize(authorization.ObjectBooking, authorization.ActionBookingViewOwn), s.ListMyBookings)
	api.GET("/bookings/:id", s.authorize(authorization.ObjectBooking, authorization.ActionBookingViewOwn), s.GetMyBooking)
	api.POST("/bookings/:id/pay", s.authorize(authorization.ObjectBooking, authorization.ActionBookingPayOwn), s.PayMyBooking)

	api.GET("/invoices", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceViewOwn), s.ListMyInvoices)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin")

	// --- global middlewares ---
	admin.Use(s.AuthRequired())
	admin.Use(s.RequireRole(authdomain.RoleAdmin))

	// -------- Catalog --------
	admin.GET("/services", s.authorize(authorization.ObjectCatalog, authorization.ActionCatalogManage), s.ListServicesAdmin)
	admin.POST("/services", s.authorize(authorization.ObjectCatalog, authorization.ActionCatalogManage), s.CreateService)
	admin.GET("/services/:id", s.authorize(authorization.ObjectCatalog, authorization.ActionCatalogManage), s.GetService)
	admin.PATCH("/services/:id", s.authorize(authorization.ObjectCatalog, authorization.ActionCatalogManage), s.UpdateService)
	admin.DELETE("/services/:id", s.authorize(authorization.ObjectCatalog, authorization.ActionCatalogManage), s.ArchiveService)

	// -------- Promo Codes --------
	admin.GET("/promo-codes", s.authorize(authorization.ObjectPromo, authorization.ActionPromoManage), s.ListPromoCodes)
	admin.POST("/promo-codes", s.authorize(authorization.ObjectPromo, authorization.ActionPromoManage), s.CreatePromoCode)
	admin.GET("/promo-codes/:id", s.authorize(authorization.ObjectPromo, authorization.ActionPromoManage), s.GetPromoCode)
	admin.PATCH("/promo-codes/:id", s.authorize(authorization.ObjectPromo, authorization.ActionPromoManage), s.UpdatePromoCode)
	admin.DELETE("/promo-codes/:id", s.authorize(authorization.ObjectPromo, authorization.ActionPromoManage), s.DeletePromoCode)
	admin.GET("/promo-codes/:id/usages", s.authorize(authorization.ObjectPromo, authorization.ActionPromoManage), s.ListPromoCodeUsages)

	// -------- Cleaners --------
	admin.GET("/cleaners", s.authorize(authorization.ObjectCleaner, authorization.ActionCleanerManage), s.ListCleaners)
	admin.POST("/cleaners", s.authorize(authorization.ObjectCleaner, authorization.ActionCleanerManage), s.CreateCleaner)
	admin.GET("/cleaners/:id", s.authorize(authorization.ObjectCleaner, authorization.ActionCleanerManage), s.GetCleaner)
	admin.PATCH("/cleaners/:id", s.authorize(authorization.ObjectCleaner, authorization.ActionCleanerManage), s.UpdateCleaner)
	admin.DELETE("/cleaners/:id", s.authorize(authorization.ObjectCleaner, authorization.ActionCleanerManage), s.DeactivateCleaner)

	// -------- Bookings --------
	admin.GET("/bookings", s.authorize(authorization.ObjectBooking, authorization.ActionBookingView), s.ListBookings)
	admin.GET("/bookings/:id", s.authorize(authorization.ObjectBooking, authorization.ActionBookingView), s.GetBooking)
	admin.PATCH("/bookings/:id/status", s.authorize(authorization.ObjectBooking, authorization.ActionBookingUpdate), s.UpdateBookingStatus)
	admin.PATCH("/bookings/:id/payment-status", s.authorize(authorization.ObjectBooking, authorization.ActionBookingUpdate), s.UpdateBookingPaymentStatus)
	admin.POST("/bookings/:id/assign", s.authorize(authorization.ObjectBooking, authorization.ActionBookingAssign), s.AssignCleaner)
	admin.POST("/bookings/:id/calendar-sync", s.authorize(authorization.ObjectBooking, authorization.ActionBookingAssign), s.SyncBookingCalendar)

	// -------- Invoices --------
	admin.POST("/bookings/:id/invoice", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceGenerate), s.GenerateInvoice)
	admin.GET("/invoices", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceView), s.ListInvoices)
	admin.GET("/invoices/:id", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceView), s.GetInvoiceByID)
	admin.PATCH("/invoices/:id/status", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceUpdate), s.UpdateInvoiceStatus)
	admin.GET("/invoices/:id/pdf", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceView), s.DownloadInvoicePDF)

	// -------- Reports --------
	admin.GET("/stats", s.authorize(authorization.ObjectReport, authorization.ActionReportView), s.GetStats)
	admin.GET("/reports/weekly", s.authorize(authorization.ObjectReport, authorization.ActionReportView), s.GetWeeklyReport)
	admin.GET("/reports/monthly", s.authorize(authorization.ObjectReport, authorization.ActionReportView), s.GetMonthlyReport)
	admin.GET("/orders/pending", s.authorize(authorization.ObjectReport, authorization.ActionReportView), s.ListPendingOrders)
	admin.GET("/orders/history", s.authorize(authorization.ObjectReport, authorization.ActionReportView), s.ListOrderHistory)
	admin.GET("/export/bookings", s.authorize(authorization.ObjectReport, authorization.ActionReportView), s.ExportBookings)

	// -------- Time Slots --------
	admin.PUT("/time-slots/availability", s.authorize(authorization.ObjectTimeSlot, authorization.ActionTimeSlotManage), s.SetSlotAvailability)

	// -------- Customers --------
	admin.GET("/customers", s.authorize(authorization.ObjectCustomer, authorization.ActionCustomerView), s.ListCustomers)
	admin.GET("/customers/:id", s.authorize(authorization.ObjectCustomer, authorization.ActionCustomerView), s.GetCustomerByID)

	// -------- Audit --------
	admin.GET("/audit-logs", s.authorize(authorization.ObjectAudit, authorization.ActionAuditView), s.ListAuditLogs)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
