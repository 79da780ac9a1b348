// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	aifeature "github.com/inkwellhq/inkwell/internal/app/features/ai"
	authgooglefeature "github.com/inkwellhq/inkwell/internal/app/features/authgoogle"
	datatokenfeature "github.com/inkwellhq/inkwell/internal/app/features/datatoken"
	documentsfeature "github.com/inkwellhq/inkwell/internal/app/features/documents"
	healthfeature "github.com/inkwellhq/inkwell/internal/app/features/health"
	roomauthfeature "github.com/inkwellhq/inkwell/internal/app/features/roomauth"
	sessionapifeature "github.com/inkwellhq/inkwell/internal/app/features/sessionapi"
	"github.com/inkwellhq/inkwell/internal/app/llm"
	"github.com/inkwellhq/inkwell/internal/app/reconcile"
	chatstore "github.com/inkwellhq/inkwell/internal/app/store/aichats"
	"github.com/inkwellhq/inkwell/internal/app/store/audit"
	docstore "github.com/inkwellhq/inkwell/internal/app/store/documents"
	grantstore "github.com/inkwellhq/inkwell/internal/app/store/grants"
	membershipstore "github.com/inkwellhq/inkwell/internal/app/store/memberships"
	"github.com/inkwellhq/inkwell/internal/app/store/oauthstate"
	userstore "github.com/inkwellhq/inkwell/internal/app/store/users"
	"github.com/inkwellhq/inkwell/internal/app/system/auditlog"
	"github.com/inkwellhq/inkwell/internal/app/system/auth"
	"github.com/inkwellhq/inkwell/internal/app/system/identity"
	"github.com/inkwellhq/inkwell/internal/app/system/realtime"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// Inkwell wires the session manager, the identity-provider verifier, the
// local token minters, and the reconciliation jobs, then mounts the JSON API
// feature routers plus the browser OAuth entry point.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	// Session manager; secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Stores.
	users := userstore.New(db)
	docs := docstore.New(db)
	members := membershipstore.New(db)
	chats := chatstore.New(db)
	grants := grantstore.New(db)
	states := oauthstate.New(db)

	// Fresh user data is loaded per request so disabled accounts and profile
	// updates take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(users, logger))

	// Audit logging to Mongo and zap, per category config.
	auditLogger := auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth: appCfg.AuditLogAuth,
		Room: appCfg.AuditLogRoom,
	})

	// Identity-provider verification and locally minted tokens.
	verifier, err := identity.NewVerifier(identity.Config{
		Issuer:   appCfg.IdentityIssuer,
		Audience: appCfg.IdentityAudience,
	})
	if err != nil {
		logger.Error("identity verifier init failed", zap.Error(err))
		return nil, err
	}
	minter, err := identity.NewMinter(appCfg.DataTokenKey, appCfg.BaseURL)
	if err != nil {
		logger.Error("data-token minter init failed", zap.Error(err))
		return nil, err
	}
	issuer, err := realtime.NewIssuer(appCfg.RealtimeTokenKey, appCfg.BaseURL)
	if err != nil {
		logger.Error("realtime token issuer init failed", zap.Error(err))
		return nil, err
	}

	// Legacy membership migration, latched per app session.
	migrator := reconcile.NewSessionMigrator(
		sessionMgr,
		reconcile.NewMigrator(members, logger),
		auditLogger,
		logger,
	)

	// AI providers, registered per configured key.
	providers := llm.NewRegistry()
	if appCfg.OpenAIAPIKey != "" {
		providers.Register(llm.NewOpenAI(appCfg.OpenAIAPIKey, appCfg.OpenAIModel))
	}
	if appCfg.AnthropicAPIKey != "" {
		providers.Register(llm.NewAnthropic(appCfg.AnthropicAPIKey, appCfg.AnthropicModel, ""))
	}
	if len(providers.Names()) == 0 {
		logger.Warn("no AI providers configured; assistant endpoints will reject requests")
	} else {
		logger.Info("AI providers registered",
			zap.Strings("providers", providers.Names()),
			zap.String("default", appCfg.AIDefaultProvider))
	}

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if signed in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Browser sign-in via Google OAuth
	googleHandler := authgooglefeature.NewHandler(
		sessionMgr, users, states, migrator, auditLogger,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL,
		logger,
	)
	r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

	// Identity-token exchange and sign-out
	sessionHandler := sessionapifeature.NewHandler(sessionMgr, verifier, users, migrator, auditLogger, logger)
	r.Mount("/api/session", sessionapifeature.Routes(sessionHandler))

	// Data-store credential minting
	tokenHandler := datatokenfeature.NewHandler(minter, logger)
	r.Mount("/api/datastore-token", datatokenfeature.Routes(tokenHandler, sessionMgr))

	// Realtime room authorization
	roomHandler := roomauthfeature.NewHandler(members, issuer, grants, migrator, auditLogger, logger)
	r.Mount("/api/rooms", roomauthfeature.Routes(roomHandler, sessionMgr))

	// Document and membership mutations
	docHandler := documentsfeature.NewHandler(deps.MongoClient, docs, members, users, chats, auditLogger, logger)
	r.Mount("/api/documents", documentsfeature.Routes(docHandler, sessionMgr))

	// Document assistant
	aiHandler := aifeature.NewHandler(docs, members, chats, providers, appCfg.AIDefaultProvider, logger)
	r.Mount("/api/ai", aifeature.Routes(aiHandler, sessionMgr))

	return r, nil
}
