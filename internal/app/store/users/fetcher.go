// internal/app/store/users/fetcher.go
package userstore

import (
	"context"

	"github.com/inkwellhq/inkwell/internal/app/system/auth"
	"github.com/inkwellhq/inkwell/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Fetcher implements auth.UserFetcher. It reloads the user per request so
// disabled accounts and profile updates take effect without re-login.
type Fetcher struct {
	store *Store
	log   *zap.Logger
}

// NewFetcher creates a session user fetcher backed by the users collection.
func NewFetcher(store *Store, logger *zap.Logger) *Fetcher {
	return &Fetcher{store: store, log: logger}
}

// FetchUser loads the current user data for a subject. Returns nil when the
// user is gone or disabled, which the session middleware treats as signed out.
func (f *Fetcher) FetchUser(ctx context.Context, subject string) *auth.SessionUser {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	u, err := f.store.GetBySubject(ctx, subject)
	if err != nil {
		if err != mongo.ErrNoDocuments {
			f.log.Warn("failed to fetch session user", zap.Error(err))
		}
		return nil
	}
	if u.Status != "active" {
		return nil
	}
	return &auth.SessionUser{
		ID:        u.Subject,
		Name:      u.FullName,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
	}
}
