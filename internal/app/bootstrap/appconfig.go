// internal/app/bootstrap/appconfig.go
package bootstrap

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//   - Database connection timeouts
//
// AppConfig is where everything specific to Inkwell lives: datastore
// connection details, token signing keys, identity-provider settings, and
// AI provider credentials.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: inkwell-session)
	SessionDomain string // Cookie domain (blank means current host)

	// Base URL of this deployment, used for OAuth callbacks and as the
	// issuer of locally minted tokens.
	BaseURL string

	// Identity provider verification (the /api/session exchange)
	IdentityIssuer   string // Issuer URL of the upstream identity provider
	IdentityAudience string // Audience the provider's ID tokens must carry

	// Locally minted token keys
	DataTokenKey     string // HMAC key for data-store access tokens
	RealtimeTokenKey string // HMAC key for realtime room tokens

	// Google OAuth (browser sign-in)
	GoogleClientID     string
	GoogleClientSecret string

	// Audit logging ("all", "db", "log", "off")
	AuditLogAuth string
	AuditLogRoom string

	// AI assistant providers
	OpenAIAPIKey      string
	OpenAIModel       string // blank means the provider default
	AnthropicAPIKey   string
	AnthropicModel    string // blank means the provider default
	AIDefaultProvider string // "openai" or "anthropic"
}
