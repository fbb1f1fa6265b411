package cmd

import (
	"fmt"
	"time"

	"asterias/config"
	"asterias/cron"
	"asterias/services/apicache"
	"asterias/services/backend"
	"asterias/services/booking"
	"asterias/services/i18n"
	"asterias/services/mail"
	"asterias/services/payment"
	"asterias/services/tasks"
	"asterias/utils"
	"asterias/views"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"
)

// newRouter builds the engine. Client IP headers are only believed from the
// configured proxies, so rate limits key on the real caller.
func newRouter() (*gin.Engine, error) {
	router := gin.New()
	if err := router.SetTrustedProxies(config.AppConfig.TrustedProxyList()); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	return router, nil
}

// redisOpt points asynq at the task-queue database.
func redisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisTaskQueueDB,
	}
}

func newAPICache(logger *zap.Logger) *apicache.Cache {
	opts := apicache.Options{
		DefaultTTL: config.AppConfig.APICacheTTL,
		MaxEntries: config.AppConfig.APICacheMaxEntries,
		Logger:     logger,
	}
	if config.AppConfig.APICacheShared {
		opts.L2 = apicache.NewRedisL2(utils.GetCacheClient(), utils.APICachePrefix)
	}
	return apicache.New(opts)
}

func newViews() (*i18n.Bundle, *views.Renderer, error) {
	locales := config.AppConfig.SupportedLocales()
	bundle, err := i18n.LoadBundle(locales[0])
	if err != nil {
		return nil, nil, fmt.Errorf("loading translations: %w", err)
	}
	renderer, err := views.New(locales[0], !config.IsProduction())
	if err != nil {
		return nil, nil, fmt.Errorf("parsing templates: %w", err)
	}
	return bundle, renderer, nil
}

// newBookingService wires the wizard to the backend, Stripe, the Redis
// session store and the task queue.
func newBookingService(client *backend.Client, queue *tasks.Queue, logger *zap.Logger) (*booking.Service, payment.Gateway, error) {
	cfg := config.AppConfig
	loc, err := time.LoadLocation(cfg.PropertyTimezone)
	if err != nil {
		return nil, nil, fmt.Errorf("property timezone %q: %w", cfg.PropertyTimezone, err)
	}
	stripe.Key = cfg.StripeKey
	gateway := payment.NewStripeGateway(cfg.StripeWebhookSecret)
	svc := booking.NewService(booking.Config{
		MinNights:      cfg.MinNights,
		MaxNights:      cfg.MaxNights,
		CheckoutTTL:    cfg.CheckoutTTL,
		Currency:       cfg.Currency,
		Location:       loc,
		PublishableKey: cfg.StripePublishableKey,
	}, client, gateway, booking.NewRedisSessionStore(utils.GetSessionClient()), queue, logger)
	return svc, gateway, nil
}

// newWorker builds the task server that sends mail and expires checkouts.
func newWorker(bookings cron.Expirer, bundle *i18n.Bundle, renderer *views.Renderer, logger *zap.Logger) *cron.Worker {
	cfg := config.AppConfig
	mailer := mail.NewSMTPMailer(mail.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
		Owner:    cfg.OwnerEmail,
	}, renderer, bundle, logger)
	return cron.NewWorker(cron.WorkerConfig{
		Redis:       redisOpt(),
		Concurrency: cfg.WorkerConcurrency,
	}, mailer, bookings, logger)
}
