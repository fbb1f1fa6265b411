package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"asterias/config"
	"asterias/database"
	"asterias/database/repository"
	"asterias/handlers"
	"asterias/middleware"
	"asterias/routes"
	"asterias/services/backend"
	"asterias/services/contact"
	"asterias/services/i18n"
	"asterias/services/proxy"
	"asterias/services/redirect"
	"asterias/services/sitemap"
	"asterias/services/storage"
	"asterias/services/tasks"
	"asterias/utils"
	"asterias/views"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var withWorker bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&withWorker, "worker", false, "also process background tasks in this process")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.AppConfig
	logger := utils.GetLogger()
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	secret := cfg.SessionSecret
	if secret == "" {
		if config.IsProduction() {
			return errors.New("SESSION_SECRET is required in production")
		}
		secret = uuid.NewString() + uuid.NewString()
		logger.Warn("SESSION_SECRET not set; admin sessions will not survive a restart")
	}
	sealer, err := utils.NewSessionSealer(secret)
	if err != nil {
		return err
	}

	database.InitDB()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := database.Close(ctx); err != nil {
			logger.Warn("closing MongoDB", zap.Error(err))
		}
	}()
	inquiries := repository.NewMongoInquiryRepo(database.DB())
	ledger := repository.NewMongoPaymentEventRepo(database.DB())
	{
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := inquiries.EnsureIndexes(ctx); err != nil {
			logger.Warn("inquiry indexes", zap.Error(err))
		}
		if err := ledger.EnsureIndexes(ctx); err != nil {
			logger.Warn("payment event indexes", zap.Error(err))
		}
		cancel()
	}

	bundle, renderer, err := newViews()
	if err != nil {
		return err
	}
	locales := cfg.SupportedLocales()
	loc, err := time.LoadLocation(cfg.PropertyTimezone)
	if err != nil {
		return fmt.Errorf("property timezone %q: %w", cfg.PropertyTimezone, err)
	}

	cache := newAPICache(logger)
	defer cache.Close()
	client := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout, cache, logger)

	asynqClient := asynq.NewClient(redisOpt())
	defer asynqClient.Close()
	queue := tasks.NewQueue(asynqClient)

	bookingSvc, gateway, err := newBookingService(client, queue, logger)
	if err != nil {
		return err
	}
	contactSvc := contact.NewService(inquiries, queue, locales, logger)
	if withWorker {
		w := newWorker(bookingSvc, bundle, renderer, logger)
		if err := w.Start(); err != nil {
			return fmt.Errorf("starting worker: %w", err)
		}
		defer w.Shutdown()
	}

	var store storage.StorageService
	if cfg.CloudinaryCloudName != "" {
		cs, err := storage.NewCloudinaryStorage(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, "asterias", logger)
		if err != nil {
			return fmt.Errorf("cloudinary: %w", err)
		}
		store = cs
	} else {
		logger.Warn("Cloudinary not configured; image uploads are disabled")
	}

	apiProxy, err := proxy.New(proxy.Options{
		Target:      cfg.BackendURL,
		MountPrefix: "/api/backend",
		Tokens:      middleware.SessionToken(sealer),
		Invalidator: client,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("backend proxy: %w", err)
	}

	monitor := utils.NewHealthMonitor(map[string]utils.Pinger{
		"backend": client,
		"mongodb": utils.PingFunc(database.Ping),
		"redis": utils.PingFunc(func(ctx context.Context) error {
			return utils.GetCacheClient().Ping(ctx).Err()
		}),
	}, 30*time.Second)
	monitor.Start()
	defer monitor.Stop()

	secure := config.IsProduction()
	meta := views.SiteMeta{BaseURL: cfg.SiteURL, Locales: locales, Bundle: bundle}
	perMin := cfg.MaxRequestsPerMin
	if perMin <= 0 {
		perMin = 120
	}
	hb := &handlers.HandlerBundle{
		Site: handlers.NewSiteHandler(client, renderer, meta, handlers.SiteConfig{
			PublishableKey: cfg.StripePublishableKey,
			MinNights:      cfg.MinNights,
			SecureCookies:  secure,
			Location:       loc,
		}),
		Booking: handlers.NewBookingHandler(bookingSvc),
		Webhook: handlers.NewWebhookHandler(gateway, bookingSvc, ledger),
		Contact: handlers.NewContactHandler(contactSvc),
		Admin:   handlers.NewAdminHandler(client, inquiries, ledger, renderer, sealer, secure),
		Storage: handlers.NewStorageHandler(store),
		SEO:     handlers.NewSEOHandler(sitemap.NewGenerator(cfg.SiteURL, locales, client), cfg.SiteURL),
		Health:  handlers.NewHealthHandler(monitor),
		Proxy:   apiProxy,
		Redirects: redirect.New(redirect.Options{
			CanonicalHost: cfg.CanonicalHost,
			AliasHosts:    cfg.AliasHostList(),
			ForceHTTPS:    cfg.ForceHTTPS,
			Matcher:       i18n.NewMatcher(locales, i18n.DefaultAliases),
		}),
		Sealer:         sealer,
		APILimiter:     middleware.NewRateLimiter(perMin, time.Minute, perMin/4+1),
		FormLimiter:    middleware.NewRateLimiter(10, time.Hour, 3),
		AllowedOrigins: cfg.OriginList(),
		BrotliLevel:    brotli.DefaultCompression,
	}

	router, err := newRouter()
	if err != nil {
		return err
	}
	routes.RegisterRoutes(router, hb)

	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              "0.0.0.0:" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}
	logger.Info("Server is shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	logger.Info("Server stopped gracefully")
	return nil
}
