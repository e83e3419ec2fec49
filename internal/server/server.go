package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/Emmyblinks655/taskpay-rewards/internal/auth"
	"github.com/Emmyblinks655/taskpay-rewards/internal/catalog"
	"github.com/Emmyblinks655/taskpay-rewards/internal/config"
	"github.com/Emmyblinks655/taskpay-rewards/internal/events"
	"github.com/Emmyblinks655/taskpay-rewards/internal/fulfillment"
	"github.com/Emmyblinks655/taskpay-rewards/internal/idempotency"
	"github.com/Emmyblinks655/taskpay-rewards/internal/order"
	"github.com/Emmyblinks655/taskpay-rewards/internal/provider"
	"github.com/Emmyblinks655/taskpay-rewards/internal/wallet"
)

// Deps are the collaborators the HTTP layer routes to. Redis and Feed are
// optional.
type Deps struct {
	DB           *sqlx.DB
	Redis        *redis.Client
	Config       *config.Config
	Wallet       wallet.Service
	Catalog      catalog.Repository
	Orders       order.Repository
	Logs         provider.LogRepository
	Orchestrator *fulfillment.Orchestrator
	Feed         *events.RedisFeed
}

type Server struct {
	router *gin.Engine
	http   *http.Server
}

func New(d Deps) *Server {
	cfg := d.Config

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestid.New(),
		RequestLoggingMiddleware(),
		MetricsMiddleware(),
		cors.New(corsConfig(cfg.CORSOrigins)),
	)

	walletHandler := wallet.NewHandler(d.Wallet)
	catalogHandler := catalog.NewHandler(d.Catalog)
	orderHandler := fulfillment.NewHandler(d.Orchestrator, d.Orders, d.Logs)
	system := NewSystemHandler(d.DB, d.Redis, d.Feed)

	router.GET("/health", system.Health)
	router.GET("/metrics", Metrics())
	SetupSwagger(router)

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	adminMiddleware := auth.RequireRole(auth.RoleAdmin)

	v1 := router.Group("/api/v1")
	v1.Use(authMiddleware, RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	{
		purchase := []gin.HandlerFunc{orderHandler.Purchase}
		if d.Redis != nil {
			store := idempotency.NewStore(d.Redis, cfg.IdempotencyTTL)
			purchase = append([]gin.HandlerFunc{idempotency.Middleware(store)}, purchase...)
		}
		v1.POST("/orders", purchase...)
		v1.GET("/orders", orderHandler.ListOrders)
		v1.GET("/orders/:id", orderHandler.GetOrder)
		v1.GET("/orders/:id/logs", adminMiddleware, orderHandler.OrderLogs)

		v1.GET("/wallet", walletHandler.GetBalance)
		v1.GET("/wallet/transactions", walletHandler.ListTransactions)

		v1.GET("/services", catalogHandler.ListServices)
	}

	admin := v1.Group("/admin")
	admin.Use(adminMiddleware)
	{
		admin.POST("/orders/:id/retry", orderHandler.Retry)
		admin.POST("/orders/:id/refund", orderHandler.Refund)
		admin.POST("/wallets/:userID/topup", walletHandler.TopUp)
		admin.GET("/wallets/:userID/audit", walletHandler.Audit)
		admin.GET("/events", system.RecentEvents)
	}

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
		c.AllowCredentials = true
	}
	c.AllowHeaders = append(c.AllowHeaders, "Authorization", idempotency.HeaderKey, "X-Request-ID")
	c.ExposeHeaders = []string{"X-Request-ID", idempotency.HeaderReplayed}
	return c
}
