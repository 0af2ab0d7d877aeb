package app

import (
	"context"
	"net/http"

	"checkout-arbiter/internal/auth/operator"
	"checkout-arbiter/internal/checkout/gate"
	"checkout-arbiter/internal/checkout/guard"
	"checkout-arbiter/internal/checkout/handler"
	"checkout-arbiter/internal/checkout/orders"
	"checkout-arbiter/internal/checkout/resolver"
	"checkout-arbiter/internal/config"
	"checkout-arbiter/internal/metrics"
	"checkout-arbiter/internal/middleware"
	"checkout-arbiter/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "checkout-arbiter"

func setupHTTP(ctx context.Context, cfg config.Config) (*gin.Engine, func() error, error) {

	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	repo := orders.NewRepository(infra.DB)
	sessionStore := session.NewRedisStore(infra.Redis.Client, cfg.SessionTTL)

	identityResolver := resolver.NewRepoResolver(
		orders.NewCoalescing(repo),
		resolver.WithRecorder(repo),
		resolver.WithMetrics(m),
	)

	freshness := gate.Freshness{TTL: cfg.Checkout.FreshTTL}
	guards := guard.New(
		identityResolver,
		freshness,
		gate.RedirectLock{TTL: cfg.Checkout.LockTTL},
		gate.Lifecycle{
			Freshness:   freshness,
			LoopOrigins: cfg.Checkout.LoopOrigins,
		},
		guard.Config{
			GatewayMethodPrefix: cfg.Checkout.GatewayMethodPrefix,
			SuccessURL:          cfg.Checkout.SuccessURL,
			CartURL:             cfg.Checkout.CartURL,
		},
		guard.WithMetrics(m),
	)

	checkoutHandler := handler.NewHandler(guards, repo, sessionStore, handler.Config{
		SuccessURL:  cfg.Checkout.SuccessURL,
		CheckoutURL: cfg.Checkout.CheckoutURL,
	})

	sessionMiddleware := middleware.NewSessionMiddleware(sessionStore, cfg.SessionTTL, session.CookieOptions{
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID())
	router.Use(otelgin.Middleware(serviceName))
	// preflight requests match no route, so CORS has to sit on the engine
	if len(cfg.CORSAllowedOrigins) > 0 {
		router.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// ----------------------------
	// Shopper Routes
	// ----------------------------

	shop := router.Group("/")
	shop.Use(middleware.GinSession(sessionMiddleware))
	checkoutHandler.RegisterRoutes(shop)

	// ----------------------------
	// Operator Routes
	// ----------------------------

	if cfg.OperatorIssuer != "" {
		verifier, err := operator.NewOIDCVerifier(ctx, cfg.OperatorIssuer, cfg.OperatorClientID)
		if err != nil {
			_ = infra.Close()
			return nil, nil, err
		}
		ops := router.Group("/")
		ops.Use(middleware.GinRequireOperator(middleware.NewOperatorMiddleware(verifier)))
		checkoutHandler.RegisterOperatorRoutes(ops)
	}

	// ----------------------------
	// Cleanup
	// ----------------------------

	return router, infra.Close, nil
}
