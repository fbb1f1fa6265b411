package utils

import "time"

// RequestIDKey is the gin context key (and header) carrying the request ID.
const RequestIDKey = "X-Request-ID"

// LoggerKey is the gin context key holding the per-request zap logger.
const LoggerKey = "logger"

// SessionCookieName holds the sealed admin token.
const SessionCookieName = "asterias_session"

// LocaleCookieName remembers the visitor's language choice.
const LocaleCookieName = "locale"

// LocaleCookieTTL is how long a language choice is remembered.
const LocaleCookieTTL = 365 * 24 * time.Hour

// CheckoutSessionPrefix is the Redis key prefix for booking checkout sessions.
const CheckoutSessionPrefix = "checkout:"

// APICachePrefix is the Redis key prefix for the shared API cache layer.
const APICachePrefix = "apicache:"
