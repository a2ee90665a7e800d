package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kdpb/inject"
	"github.com/kdpb/inject/internal/common/logging"
	"github.com/kdpb/inject/internal/docproc/database"
	"github.com/kdpb/inject/internal/docproc/model"
	"github.com/kdpb/inject/internal/docproc/settings"
)

// unreachable points at a closed local port with short timeouts.
func unreachable() settings.MongoDatabaseSettings {
	return settings.MongoDatabaseSettings{
		Name:                "test",
		ConnectionURL:       "mongodb://127.0.0.1:1/?connectTimeoutMS=50&serverSelectionTimeoutMS=50",
		ReconnectMaxRetries: 2,
		ReconnectRetryDelay: time.Millisecond,
	}
}

func TestMongoDatabase_Registration(t *testing.T) {
	t.Parallel()

	d, ok := inject.Lookup[*database.MongoDatabase]()
	require.True(t, ok)

	assert.Equal(t, inject.Key("mongo_database"), d.Key())
	assert.ElementsMatch(t, []inject.Key{"settings", "logger"}, d.Dependencies())
}

func TestMongoDatabase_NotConnected(t *testing.T) {
	t.Parallel()

	db := database.NewMongoDatabase(unreachable(), logging.Wrap(zaptest.NewLogger(t)))
	ctx := context.Background()

	assert.False(t, db.Connected())

	_, err := db.Collection(model.ProviderSettingsCollection)
	assert.ErrorIs(t, err, database.ErrNotConnected)

	_, err = db.EnabledProviders(ctx)
	assert.ErrorIs(t, err, database.ErrNotConnected)

	_, err = db.VersionProcessed(ctx, model.ProviderConfig{Namespace: "hashicorp", Name: "aws"}, "1.0.0")
	assert.ErrorIs(t, err, database.ErrNotConnected)

	assert.ErrorIs(t, db.InsertProviderVersion(ctx, model.ProviderVersionDocument{}), database.ErrNotConnected)
	assert.NoError(t, db.Close(ctx))
}

func TestMongoDatabase_RunStopsWithContext(t *testing.T) {
	t.Parallel()

	db := database.NewMongoDatabase(unreachable(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	err := db.Run(ctx)
	require.Error(t, err)
	assert.False(t, db.Connected())
}

func TestMongoDatabase_ReconnectGivesUp(t *testing.T) {
	t.Parallel()

	db := database.NewMongoDatabase(unreachable(), nil)

	err := db.Reconnect(context.Background())
	assert.ErrorIs(t, err, database.ErrReconnectFailed)
}

func TestMongoDatabase_InvalidURL(t *testing.T) {
	t.Parallel()

	cfg := unreachable()
	cfg.ConnectionURL = "postgres://nope"
	db := database.NewMongoDatabase(cfg, nil)

	err := db.Run(context.Background())
	assert.Error(t, err)
}
