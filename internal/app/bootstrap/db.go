// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/waffle/config"
	chatstore "github.com/inkwellhq/inkwell/internal/app/store/aichats"
	"github.com/inkwellhq/inkwell/internal/app/store/audit"
	docstore "github.com/inkwellhq/inkwell/internal/app/store/documents"
	grantstore "github.com/inkwellhq/inkwell/internal/app/store/grants"
	membershipstore "github.com/inkwellhq/inkwell/internal/app/store/memberships"
	"github.com/inkwellhq/inkwell/internal/app/store/oauthstate"
	userstore "github.com/inkwellhq/inkwell/internal/app/store/users"
	"github.com/inkwellhq/inkwell/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB establishes the MongoDB connection and verifies it with a ping.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase))

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
	}, nil
}

// EnsureSchema creates the indexes every store relies on. Index creation is
// idempotent, so this runs on every startup.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	stores := []struct {
		name    string
		indexes func(context.Context) error
	}{
		{"users", userstore.New(db).EnsureIndexes},
		{"documents", docstore.New(db).EnsureIndexes},
		{"memberships", membershipstore.New(db).EnsureIndexes},
		{"audit", audit.New(db).EnsureIndexes},
		{"grants", grantstore.New(db).EnsureIndexes},
		{"ai_chats", chatstore.New(db).EnsureIndexes},
		{"oauth_states", oauthstate.New(db).EnsureIndexes},
	}

	for _, s := range stores {
		if err := s.indexes(ctx); err != nil {
			return fmt.Errorf("ensure %s indexes: %w", s.name, err)
		}
	}

	logger.Info("database indexes ensured")
	return nil
}
