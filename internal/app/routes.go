package app

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/logoforge/server/internal/middleware"
	"github.com/logoforge/server/internal/modules/auth/user"
	"github.com/logoforge/server/internal/modules/chat"
	"github.com/logoforge/server/internal/modules/draft"
	"github.com/logoforge/server/internal/modules/generation"
	"github.com/logoforge/server/internal/modules/logo"
	"github.com/logoforge/server/internal/modules/payment"
	"github.com/logoforge/server/internal/modules/storage/blob"
	"github.com/logoforge/server/internal/modules/storage/file"
	"github.com/logoforge/server/internal/modules/system/health"
	"github.com/logoforge/server/internal/pkg/response"
	"github.com/logoforge/server/internal/pkg/taskqueue"
	"go.uber.org/zap"
)

const (
	apiPrefix      = "/api/v1"
	staticCacheTTL = 10 * time.Minute
)

func (a *App) registerRoutes() error {
	r := a.router
	rdb := a.rc.Raw()
	validate := middleware.SessionValidator(a.db)
	authMW := middleware.Auth(validate)

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	appInfo := gin.H{
		"name":    "logoforge",
		"version": "1.0.0",
	}

	r.GET("/metrics", gin.WrapH(a.metrics.Handler()))

	store, err := blob.New(a.cfg)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if local, ok := store.(*blob.LocalStore); ok {
		r.Static(blob.LocalRoute, local.Dir())
	}

	provider, err := generation.NewProvider(a.cfg.Image)
	if err != nil {
		return fmt.Errorf("image provider: %w", err)
	}
	generationLimit, err := middleware.GenerationLimit(rdb, a.cfg.RateLimit.Generate, a.logger)
	if err != nil {
		return err
	}
	cacheMW := middleware.HTTPCache(rdb, staticCacheTTL)
	idemMW := middleware.Idempotence(rdb)

	api := r.Group(apiPrefix)
	api.Use(middleware.OptionalAuth(validate))
	api.Use(middleware.RateLimit(rdb, a.logger))
	api.GET("", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })

	health.RegisterRoutes(api, map[string]health.Check{
		"database": health.DatabaseCheck(a.db),
		"redis":    a.rc.Ping,
	}, a.started)

	user.NewHandler(user.NewService(a.db)).RegisterRoutes(api, authMW)

	draftSvc := draft.NewService(a.db)
	draft.NewHandler(draftSvc).RegisterRoutes(api, authMW, cacheMW)

	logoSvc := logo.NewService(a.db)
	jobs := taskqueue.NewService(a.rc, a.cfg.Image.Timeout())
	genSvc := generation.NewService(jobs, provider, store, logoSvc,
		generation.WithMetrics(a.metrics),
		generation.WithLogger(a.logger),
		generation.WithTimeout(a.cfg.Image.Timeout()),
		generation.WithDrafts(draftSvc),
	)
	generation.NewHandler(genSvc).RegisterRoutes(api, authMW, generationLimit)
	logo.NewHandler(logoSvc, store, a.metrics, a.logger).RegisterRoutes(api, authMW, idemMW)
	file.NewHandler(store, a.metrics, a.logger).RegisterRoutes(api, authMW)

	llm, err := chat.NewCompleter(a.cfg.Chat)
	if err != nil && !errors.Is(err, chat.ErrNotConfigured) {
		return fmt.Errorf("chat provider: %w", err)
	}
	if llm == nil {
		a.logger.Warn("chat refinement disabled: chat.api_key is empty")
	}
	chatSvc := chat.NewService(llm, genSvc, logoSvc, a.cfg.Chat.Timeout(), a.logger)
	chat.NewHandler(chatSvc).RegisterRoutes(api, authMW, generationLimit, cacheMW)

	checkout := payment.NewCheckoutClient(a.cfg.Stripe)
	if checkout == nil {
		a.logger.Warn("stripe checkout disabled: stripe.secret_key is empty")
	}
	payment.NewHandler(payment.NewService(a.db), checkout, a.cfg.Stripe, a.metrics, a.logger).
		RegisterRoutes(api, authMW, idemMW)

	a.logger.Info("routes registered",
		zap.String("storage", store.Driver()),
		zap.String("image_provider", provider.Name()),
	)
	return nil
}
