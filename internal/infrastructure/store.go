// Package infrastructure selects and opens the survey store named by the configuration.
package infrastructure

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sngm3741/survey-manager-api/internal/config"
	"github.com/sngm3741/survey-manager-api/internal/infrastructure/memory"
	mongostore "github.com/sngm3741/survey-manager-api/internal/infrastructure/mongo"
	mysqlstore "github.com/sngm3741/survey-manager-api/internal/infrastructure/mysql"
	"github.com/sngm3741/survey-manager-api/internal/survey/application"
)

// Store is a survey store that can also report its own reachability.
type Store interface {
	application.SurveyStore
	Ping(ctx context.Context) error
}

// CloseFunc releases the connection pool behind a Store.
type CloseFunc func(ctx context.Context) error

// Open connects to the store selected by cfg.StoreDriver and prepares its indexes or schema.
// The returned CloseFunc is nil for the memory driver.
func Open(ctx context.Context, cfg config.Config) (Store, CloseFunc, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		clientOptions := options.Client().ApplyURI(cfg.MongoURI).SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))
		client, err := mongo.Connect(ctx, clientOptions)
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		repo := mongostore.NewSurveyRepository(client.Database(cfg.MongoDatabase), cfg.SurveyCollection)
		if err := repo.EnsureIndexes(ctx); err != nil && cfg.ServerLog != nil {
			cfg.ServerLog.WithError(err).Warn("failed to create survey indexes")
		}
		return repo, client.Disconnect, nil

	case config.DriverMySQL:
		db, err := mysqlstore.Open(ctx, cfg.DatabaseURL, cfg.MySQLMaxOpenConns)
		if err != nil {
			return nil, nil, err
		}
		repo := mysqlstore.NewSurveyRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return repo, func(context.Context) error { return db.Close() }, nil

	case config.DriverMemory:
		return memory.NewSurveyRepository(), nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
