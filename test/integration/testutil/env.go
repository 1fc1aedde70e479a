package testutil

import (
	"os"
	"testing"

	"staybook/pkg/client"
	"staybook/pkg/config"
	"staybook/pkg/logger"
)

const (
	EnvMongoURI   = "TEST_MONGO_URI"
	DefaultDBName = "staybook_test"
)

// RequireMongo skips the test unless TEST_MONGO_URI points at a reachable
// MongoDB, and returns a config wired to it.
func RequireMongo(t *testing.T) *config.Config {
	t.Helper()

	uri := os.Getenv(EnvMongoURI)
	if uri == "" {
		t.Skipf("set %s to run integration tests", EnvMongoURI)
	}

	dbName := os.Getenv("TEST_DB_NAME")
	if dbName == "" {
		dbName = DefaultDBName
	}

	cfg := &config.Config{
		MongoURI:          uri,
		MongoDatabaseName: dbName,
		MongoConnTimeout:  config.DefaultMongoConnTimeout,
		ReadTimeout:       config.DefaultReadTimeout,
		WriteTimeout:      config.DefaultWriteTimeout,
		SearchResultLimit: config.DefaultSearchResultLimit,
		Log: logger.New(logger.Config{
			Level:     "error",
			Format:    logger.JSON,
			AddSource: false,
			Service:   "integration-test",
		}),
		Client: client.NewClient(),
	}
	cfg.SetMongo()
	return cfg
}
