package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/pharmapos/internal/auth"
	authdomain "github.com/smallbiznis/pharmapos/internal/auth/domain"
	"github.com/smallbiznis/pharmapos/internal/auth/session"
	"github.com/smallbiznis/pharmapos/internal/authorization"
	"github.com/smallbiznis/pharmapos/internal/checkout"
	"github.com/smallbiznis/pharmapos/internal/config"
	"github.com/smallbiznis/pharmapos/internal/dashboard"
	"github.com/smallbiznis/pharmapos/internal/feedback"
	feedbackdomain "github.com/smallbiznis/pharmapos/internal/feedback/domain"
	"github.com/smallbiznis/pharmapos/internal/notification"
	"github.com/smallbiznis/pharmapos/internal/observability"
	obsmiddleware "github.com/smallbiznis/pharmapos/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/pharmapos/internal/observability/metrics"
	obstracing "github.com/smallbiznis/pharmapos/internal/observability/tracing"
	"github.com/smallbiznis/pharmapos/internal/pricing"
	"github.com/smallbiznis/pharmapos/internal/product"
	productdomain "github.com/smallbiznis/pharmapos/internal/product/domain"
	"github.com/smallbiznis/pharmapos/internal/ratelimit"
	"github.com/smallbiznis/pharmapos/internal/transaction"
	txdomain "github.com/smallbiznis/pharmapos/internal/transaction/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	auth.Module,
	product.Module,
	transaction.Module,
	feedback.Module,
	dashboard.Module,
	notification.Module,
	ratelimit.Module,
	checkout.Module,
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
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
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
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

// CheckoutService is the part of the checkout coordinator the handlers use.
type CheckoutService interface {
	Preview(items []pricing.LineItem, discountPercent decimal.Decimal) (pricing.Result, error)
	Checkout(ctx context.Context, req checkout.Request) (*checkout.Result, error)
	Renotify(ctx context.Context, id string) error
}

type Server struct {
	engine         *gin.Engine
	cfg            config.Config
	log            *zap.Logger
	authsvc        authdomain.Service
	sessions       *session.Manager
	authzSvc       authorization.Service
	productSvc     productdomain.Service
	transactionSvc txdomain.Service
	feedbackSvc    feedbackdomain.Service
	dashboardSvc   *dashboard.Service
	checkout       CheckoutService
	limiter        *ratelimit.Limiter
}

type ServerParams struct {
	fx.In

	Gin            *gin.Engine
	Cfg            config.Config
	Log            *zap.Logger
	Authsvc        authdomain.Service
	Sessions       *session.Manager
	AuthzSvc       authorization.Service
	ProductSvc     productdomain.Service
	TransactionSvc txdomain.Service
	FeedbackSvc    feedbackdomain.Service
	DashboardSvc   *dashboard.Service
	Checkout       *checkout.Coordinator
	Limiter        *ratelimit.Limiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		log:            p.Log.Named("http.server"),
		authsvc:        p.Authsvc,
		sessions:       p.Sessions,
		authzSvc:       p.AuthzSvc,
		productSvc:     p.ProductSvc,
		transactionSvc: p.TransactionSvc,
		feedbackSvc:    p.FeedbackSvc,
		dashboardSvc:   p.DashboardSvc,
		checkout:       p.Checkout,
		limiter:        p.Limiter,
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	api := s.engine.Group("/api")

	api.POST("/login", s.Login)
	api.POST("/logout", s.AuthRequired(), s.Logout)
	api.GET("/me", s.AuthRequired(), s.Me)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.AuthRequired())

	// -------- Users --------
	api.GET("/users", s.RequireCapability(authorization.ObjectUser, authorization.ActionUserView), s.ListUsers)
	api.POST("/users", s.RequireCapability(authorization.ObjectUser, authorization.ActionUserCreate), s.CreateUser)

	// -------- Products --------
	api.GET("/products", s.RequireCapability(authorization.ObjectProduct, authorization.ActionProductView), s.ListProducts)
	api.GET("/products/:id", s.RequireCapability(authorization.ObjectProduct, authorization.ActionProductView), s.GetProductByID)
	api.POST("/products", s.RequireCapability(authorization.ObjectProduct, authorization.ActionProductCreate), s.CreateProduct)
	api.PUT("/products/:id", s.RequireCapability(authorization.ObjectProduct, authorization.ActionProductUpdate), s.UpdateProduct)
	api.DELETE("/products/:id", s.RequireCapability(authorization.ObjectProduct, authorization.ActionProductDelete), s.DeleteProduct)

	// -------- Checkout --------
	api.POST("/checkout/preview", s.RequireCapability(authorization.ObjectTransaction, authorization.ActionTransactionCreate), s.PreviewCheckout)
	api.POST("/checkout", s.RequireCapability(authorization.ObjectTransaction, authorization.ActionTransactionCreate), s.Checkout)

	// -------- Transactions --------
	api.POST("/transactions", s.RequireCapability(authorization.ObjectTransaction, authorization.ActionTransactionCreate), s.Checkout)
	api.GET("/transactions", s.RequireCapability(authorization.ObjectTransaction, authorization.ActionTransactionView), s.ListTransactions)
	api.GET("/transactions/:id", s.RequireCapability(authorization.ObjectTransaction, authorization.ActionTransactionView), s.GetTransactionByID)
	api.POST("/transactions/:id/notify", s.RequireCapability(authorization.ObjectTransaction, authorization.ActionTransactionNotify), s.NotifyTransaction)

	// -------- Feedback --------
	api.POST("/feedback", s.RequireCapability(authorization.ObjectFeedback, authorization.ActionFeedbackCreate), s.CreateFeedback)
	api.GET("/feedback", s.RequireCapability(authorization.ObjectFeedback, authorization.ActionFeedbackView), s.ListFeedback)

	// -------- Dashboard --------
	api.GET("/dashboard-summary", s.RequireCapability(authorization.ObjectDashboard, authorization.ActionDashboardView), s.GetDashboardSummary)
}
