// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/inkwellhq/inkwell/internal/app/llm"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for Inkwell.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: INKWELL_MONGO_URI, INKWELL_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "inkwell", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "inkwell-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	// Base URL of this deployment
	{Name: "base_url", Default: "http://localhost:3000", Desc: "Base URL for OAuth callbacks and minted token issuer"},

	// Identity provider (the /api/session token exchange)
	{Name: "identity_issuer", Default: "", Desc: "Issuer URL of the upstream identity provider"},
	{Name: "identity_audience", Default: "", Desc: "Audience required on identity-provider ID tokens"},

	// Locally minted token keys
	{Name: "data_token_key", Default: "", Desc: "HMAC key for data-store access tokens"},
	{Name: "realtime_token_key", Default: "", Desc: "HMAC key for realtime room tokens"},

	// Google OAuth configuration
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_room", Default: "all", Desc: "Room event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// AI assistant providers
	{Name: "openai_api_key", Default: "", Desc: "OpenAI API key (blank disables the provider)"},
	{Name: "openai_model", Default: "", Desc: "OpenAI model override"},
	{Name: "anthropic_api_key", Default: "", Desc: "Anthropic API key (blank disables the provider)"},
	{Name: "anthropic_model", Default: "", Desc: "Anthropic model override"},
	{Name: "ai_default_provider", Default: llm.OpenAIName, Desc: "Default AI provider: 'openai' or 'anthropic'"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
// CoreConfig comes from the shared WAFFLE layer; AppConfig is specific
// to this app and can be extended as the app grows.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, INKWELL_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "INKWELL", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),

		BaseURL: appValues.String("base_url"),

		// Identity provider
		IdentityIssuer:   appValues.String("identity_issuer"),
		IdentityAudience: appValues.String("identity_audience"),

		// Minted token keys
		DataTokenKey:     appValues.String("data_token_key"),
		RealtimeTokenKey: appValues.String("realtime_token_key"),

		// Google OAuth
		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),

		// Audit logging
		AuditLogAuth: appValues.String("audit_log_auth"),
		AuditLogRoom: appValues.String("audit_log_room"),

		// AI providers
		OpenAIAPIKey:      appValues.String("openai_api_key"),
		OpenAIModel:       appValues.String("openai_model"),
		AnthropicAPIKey:   appValues.String("anthropic_api_key"),
		AnthropicModel:    appValues.String("anthropic_model"),
		AIDefaultProvider: appValues.String("ai_default_provider"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// This is the right place to enforce required fields or invariants that
// involve both the core and app configs.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	// The token exchange cannot work without an upstream provider.
	if appCfg.IdentityIssuer == "" || appCfg.IdentityAudience == "" {
		return fmt.Errorf("identity_issuer and identity_audience must be set")
	}
	if appCfg.DataTokenKey == "" {
		return fmt.Errorf("data_token_key must be set")
	}
	if appCfg.RealtimeTokenKey == "" {
		return fmt.Errorf("realtime_token_key must be set")
	}

	switch appCfg.AIDefaultProvider {
	case llm.OpenAIName, llm.AnthropicName:
	default:
		return fmt.Errorf("ai_default_provider must be %q or %q", llm.OpenAIName, llm.AnthropicName)
	}

	return nil
}
