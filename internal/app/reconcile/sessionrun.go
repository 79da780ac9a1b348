// internal/app/reconcile/sessionrun.go
package reconcile

import (
	"net/http"

	"github.com/inkwellhq/inkwell/internal/app/system/auth"
	"github.com/inkwellhq/inkwell/internal/app/system/auditlog"
	"go.uber.org/zap"
)

// SessionMigrator runs the legacy migration at most once per app session.
// The latch lives in the session cookie, so it scopes to one client session
// and resets on the next sign-in rather than latching process-wide.
type SessionMigrator struct {
	sessions *auth.SessionManager
	migrator *Migrator
	audit    *auditlog.Logger
	log      *zap.Logger
}

// NewSessionMigrator wires the migrator to the session latch.
func NewSessionMigrator(sessions *auth.SessionManager, migrator *Migrator, audit *auditlog.Logger, logger *zap.Logger) *SessionMigrator {
	return &SessionMigrator{
		sessions: sessions,
		migrator: migrator,
		audit:    audit,
		log:      logger,
	}
}

// MaybeRun migrates the user's legacy records unless this session already
// tried. Failures are logged, latched, and swallowed: migration is repair
// work and must never block the request that triggered it. The next session
// retries whatever is left.
func (sm *SessionMigrator) MaybeRun(w http.ResponseWriter, r *http.Request, subject, email string) {
	if email == "" || sm.sessions.MigrationAttempted(r) {
		return
	}
	sm.sessions.MarkMigrationAttempted(w, r)

	n, err := sm.migrator.Run(r.Context(), subject, email)
	if err != nil {
		sm.log.Warn("legacy membership migration failed",
			zap.String("subject", subject),
			zap.Int("migrated", n),
			zap.Error(err))
		return
	}
	if n > 0 {
		sm.audit.LegacyMigrated(r.Context(), r, subject, n)
	}
}
