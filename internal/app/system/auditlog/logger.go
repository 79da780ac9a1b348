// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/inkwellhq/inkwell/internal/app/store/audit"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for authentication events (session exchange,
	// OAuth login, logout, legacy migration).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Auth string
	// Room controls logging for room events (create/delete, membership
	// changes, publish, owner heal, denied joins).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Room string
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header first (for reverse proxies)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	// Fall back to RemoteAddr
	return r.RemoteAddr
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}

	if event.Subject != "" {
		fields = append(fields, zap.String("subject", event.Subject))
	}
	if event.ActorSubject != "" {
		fields = append(fields, zap.String("actor_subject", event.ActorSubject))
	}
	if event.RoomID != "" {
		fields = append(fields, zap.String("room_id", event.RoomID))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
// Logging destination is controlled by config: "all", "db", "log", or "off".
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryRoom:
		setting = l.config.Room
	default:
		setting = "all"
	}

	if setting == "off" {
		return
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}

	if setting == "all" || setting == "db" {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Authentication Events ---

// SessionExchangeSuccess logs a successful identity-token exchange.
func (l *Logger) SessionExchangeSuccess(ctx context.Context, r *http.Request, subject string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventSessionExchangeSuccess,
		Subject:   subject,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	})
}

// SessionExchangeFailed logs a rejected identity-token exchange.
func (l *Logger) SessionExchangeFailed(ctx context.Context, r *http.Request, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventSessionExchangeFailed,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: reason,
	})
}

// OAuthLogin logs a completed browser OAuth sign-in.
func (l *Logger) OAuthLogin(ctx context.Context, r *http.Request, subject, provider string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventOAuthLogin,
		Subject:   subject,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details:   map[string]string{"provider": provider},
	})
}

// Logout logs a session teardown.
func (l *Logger) Logout(ctx context.Context, r *http.Request, subject string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		Subject:   subject,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	})
}

// LegacyMigrated logs a completed legacy-membership migration run.
func (l *Logger) LegacyMigrated(ctx context.Context, r *http.Request, subject string, migrated int) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLegacyMigrated,
		Subject:   subject,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details:   map[string]string{"migrated": strconv.Itoa(migrated)},
	})
}

// --- Room Events ---

// RoomEvent logs a room-scoped event performed by actor.
func (l *Logger) RoomEvent(ctx context.Context, r *http.Request, eventType, actor, roomID string, details map[string]string) {
	l.Log(ctx, audit.Event{
		Category:     audit.CategoryRoom,
		EventType:    eventType,
		ActorSubject: actor,
		RoomID:       roomID,
		IP:           getClientIP(r),
		UserAgent:    r.UserAgent(),
		Success:      true,
		Details:      details,
	})
}

// RoomJoinDenied logs a rejected room join.
func (l *Logger) RoomJoinDenied(ctx context.Context, r *http.Request, subject, roomID string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryRoom,
		EventType:     audit.EventRoomJoinDenied,
		Subject:       subject,
		RoomID:        roomID,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: "not a room member",
	})
}
