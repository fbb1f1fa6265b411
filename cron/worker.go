package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"asterias/models"
	"asterias/services/mail"
	"asterias/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Expirer settles checkout sessions whose window has closed.
type Expirer interface {
	Expire(ctx context.Context, sessionID string) error
}

type WorkerConfig struct {
	Redis       asynq.RedisClientOpt
	Concurrency int
}

// Worker runs the background task server.
type Worker struct {
	srv    *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

func NewWorker(cfg WorkerConfig, mailer mail.Mailer, bookings Expirer, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.L()
	}
	logger = logger.Named("worker")
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	srv := asynq.NewServer(cfg.Redis, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues: map[string]int{
			tasks.QueueCheckout: 6,
			tasks.QueueMail:     3,
			"default":           1,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			logger.Error("task failed",
				zap.String("type", task.Type()),
				zap.Int("retry", retried),
				zap.Int("maxRetry", maxRetry),
				zap.Error(err),
			)
		}),
	})
	return &Worker{srv: srv, mux: NewMux(mailer, bookings, logger), logger: logger}
}

// NewMux routes every task type to its handler.
func NewMux(mailer mail.Mailer, bookings Expirer, logger *zap.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeBookingConfirmation, handleBookingConfirmation(mailer, logger))
	mux.HandleFunc(tasks.TypeContactInquiry, handleContactInquiry(mailer, logger))
	mux.HandleFunc(tasks.TypeCheckoutExpire, handleCheckoutExpire(bookings, logger))
	return mux
}

// Run starts the server, retrying with backoff, and blocks until it stops.
func (w *Worker) Run() error {
	const maxAttempts = 5
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		w.logger.Info("starting worker", zap.Int("attempt", attempt))
		if err = w.srv.Run(w.mux); err == nil {
			return nil
		}
		w.logger.Warn("worker failed to start", zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(time.Duration(attempt*2) * time.Second)
	}
	return fmt.Errorf("worker: giving up after %d attempts: %w", maxAttempts, err)
}

// Start runs the server in the background alongside the web process.
func (w *Worker) Start() error {
	return w.srv.Start(w.mux)
}

func (w *Worker) Shutdown() {
	w.srv.Shutdown()
}

func decode(task *asynq.Task, v any) error {
	if err := json.Unmarshal(task.Payload(), v); err != nil {
		// A malformed payload never succeeds; do not retry it.
		return fmt.Errorf("invalid %s payload: %v: %w", task.Type(), err, asynq.SkipRetry)
	}
	return nil
}

func handleBookingConfirmation(mailer mail.Mailer, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.BookingConfirmationPayload
		if err := decode(task, &p); err != nil {
			return err
		}
		logger.Debug("sending booking confirmation", zap.String("booking", p.BookingID))
		return mailer.SendBookingConfirmation(ctx, p)
	}
}

func handleContactInquiry(mailer mail.Mailer, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.ContactInquiryPayload
		if err := decode(task, &p); err != nil {
			return err
		}
		logger.Debug("forwarding inquiry", zap.String("inquiry", p.InquiryID))
		return mailer.SendContactInquiry(ctx, p)
	}
}

func handleCheckoutExpire(bookings Expirer, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p tasks.CheckoutExpiryPayload
		if err := decode(task, &p); err != nil {
			return err
		}
		if p.SessionID == "" {
			return fmt.Errorf("checkout expiry without session: %w", asynq.SkipRetry)
		}
		logger.Debug("expiring checkout", zap.String("session", p.SessionID))
		return bookings.Expire(ctx, p.SessionID)
	}
}
