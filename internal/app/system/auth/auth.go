// internal/app/system/auth/auth.go
package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session constants                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	// SessionMaxAge is the app session cookie lifetime.
	SessionMaxAge = 5 * 24 * 60 * 60 // 5 days, in seconds

	isAuthKey         = "is_authenticated"
	subjectKey        = "subject"
	userNameKey       = "user_name"
	userEmailKey      = "user_email"
	userAvatarKey     = "user_avatar"
	migrationTriedKey = "migration_attempted"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is what we cache in the session & inject into r.Context().
// ID is the stable subject identifier from the identity provider; it is the
// only field that may drive authorization. The rest is display data.
type SessionUser struct {
	ID        string
	Name      string
	Email     string
	AvatarURL string
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// UserFetcher loads fresh user data for a subject on each request, so
// disabled accounts and profile updates take effect immediately.
// Returning nil means "treat as signed out".
type UserFetcher interface {
	FetchUser(ctx context.Context, subject string) *SessionUser
}

/*─────────────────────────────────────────────────────────────────────────────*
| SessionManager                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionManager owns the cookie session store and the auth middleware.
type SessionManager struct {
	store       *sessions.CookieStore
	sessionName string
	log         *zap.Logger
	fetcher     UserFetcher
}

// NewSessionManager builds a cookie-backed session manager.
//
// Cookies are HttpOnly and SameSite=Lax; Secure is enabled in production.
func NewSessionManager(sessionKey, sessionName, domain string, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   SessionMaxAge,
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{
		store:       store,
		sessionName: sessionName,
		log:         logger,
	}, nil
}

// SetUserFetcher installs the per-request user refresher.
func (sm *SessionManager) SetUserFetcher(f UserFetcher) {
	sm.fetcher = f
}

// Establish writes an authenticated session for u.
func (sm *SessionManager) Establish(w http.ResponseWriter, r *http.Request, u *SessionUser) error {
	sess, _ := sm.store.Get(r, sm.sessionName)
	sess.Values[isAuthKey] = true
	sess.Values[subjectKey] = u.ID
	sess.Values[userNameKey] = u.Name
	sess.Values[userEmailKey] = u.Email
	sess.Values[userAvatarKey] = u.AvatarURL
	// A fresh session gets a fresh migration latch.
	delete(sess.Values, migrationTriedKey)
	return sess.Save(r, w)
}

// Clear tears the session down. Sign-out must never leave a session dangling,
// so this is called in the same transition as the app-level sign-out.
func (sm *SessionManager) Clear(w http.ResponseWriter, r *http.Request) error {
	sess, _ := sm.store.Get(r, sm.sessionName)
	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// MigrationAttempted reports whether the legacy-membership migration has
// already been tried during this session. The flag lives in the session, not
// in process memory, so it naturally scopes to one client session and resets
// on the next sign-in.
func (sm *SessionManager) MigrationAttempted(r *http.Request) bool {
	sess, _ := sm.store.Get(r, sm.sessionName)
	tried, _ := sess.Values[migrationTriedKey].(bool)
	return tried
}

// MarkMigrationAttempted records the per-session migration latch.
func (sm *SessionManager) MarkMigrationAttempted(w http.ResponseWriter, r *http.Request) {
	sess, _ := sm.store.Get(r, sm.sessionName)
	sess.Values[migrationTriedKey] = true
	if err := sess.Save(r, w); err != nil {
		sm.log.Warn("failed to persist migration latch", zap.Error(err))
	}
}

// LoadSessionUser injects the user into context if they are signed in.
// When a UserFetcher is configured, fresh data is loaded per request; a nil
// fetch result (user deleted or disabled) downgrades the request to signed
// out without touching the cookie.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := sm.store.Get(r, sm.sessionName)
		if err != nil {
			// A cookie signed with a rotated key decodes as garbage; treat
			// the request as signed out rather than failing it.
			if scErr, ok := err.(securecookie.Error); ok && scErr.IsDecode() {
				sm.log.Debug("session cookie failed to decode; treating as signed out")
			} else {
				sm.log.Warn("session store error", zap.Error(err))
			}
			next.ServeHTTP(w, r)
			return
		}

		if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
			u := &SessionUser{
				ID:        getString(sess, subjectKey),
				Name:      getString(sess, userNameKey),
				Email:     getString(sess, userEmailKey),
				AvatarURL: getString(sess, userAvatarKey),
			}
			if sm.fetcher != nil && u.ID != "" {
				if fresh := sm.fetcher.FetchUser(r.Context(), u.ID); fresh != nil {
					u = fresh
				} else {
					next.ServeHTTP(w, r)
					return
				}
			}
			r = withUser(r, u)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn ensures there is a user in context (set by LoadSessionUser).
// API callers get a plain 401; there is no HTML login page to redirect to.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"UNAUTHORIZED","message":"sign in required"}`))
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| helpers                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// WithTestUser injects a user directly into the request context, bypassing
// the session middleware. Test helper only.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

// getString safely extracts a string from a session value.
func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}
