package booking

import (
	"time"

	"asterias/services/payment"

	"go.uber.org/zap"
)

// MetadataSessionKey links a PaymentIntent back to its checkout session.
const MetadataSessionKey = "checkout_session"

// Config holds the wizard's business rules.
type Config struct {
	MinNights      int
	MaxNights      int
	CheckoutTTL    time.Duration
	Currency       string
	Location       *time.Location
	PublishableKey string
	Now            func() time.Time
}

// sessionGrace keeps a session readable after its checkout window so a late
// webhook or the expiry task can still settle it.
const sessionGrace = 15 * time.Minute

// confirmedTTL is how long a confirmed session stays resumable.
const confirmedTTL = 24 * time.Hour

const lockTTL = 30 * time.Second

type Service struct {
	cfg      Config
	backend  Backend
	gateway  payment.Gateway
	sessions SessionStore
	tasks    TaskQueue
	logger   *zap.Logger
}

var _ BookingService = (*Service)(nil)

func NewService(cfg Config, backend Backend, gateway payment.Gateway, sessions SessionStore, tasks TaskQueue, logger *zap.Logger) *Service {
	if cfg.MinNights <= 0 {
		cfg.MinNights = 2
	}
	if cfg.MaxNights <= 0 {
		cfg.MaxNights = 30
	}
	if cfg.CheckoutTTL <= 0 {
		cfg.CheckoutTTL = 30 * time.Minute
	}
	if cfg.Currency == "" {
		cfg.Currency = "eur"
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = zap.L()
	}
	return &Service{
		cfg:      cfg,
		backend:  backend,
		gateway:  gateway,
		sessions: sessions,
		tasks:    tasks,
		logger:   logger.Named("booking"),
	}
}

// MinNights is exposed for the wizard page.
func (s *Service) MinNights() int { return s.cfg.MinNights }
