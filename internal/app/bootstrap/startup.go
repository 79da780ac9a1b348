// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"github.com/inkwellhq/inkwell/internal/app/store/oauthstate"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
//
// Expired OAuth states are swept here as a backstop: the TTL index handles
// them eventually, but a restart should not serve stale state.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	n, err := oauthstate.New(deps.MongoDatabase).CleanupExpired(ctx)
	if err != nil {
		logger.Warn("failed to sweep expired OAuth states", zap.Error(err))
		return nil
	}
	if n > 0 {
		logger.Info("swept expired OAuth states", zap.Int64("removed", n))
	}
	return nil
}
