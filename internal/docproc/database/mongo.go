// Package database is the Mongo document store of the documentation
// processing backend.
package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/kdpb/inject"
	"github.com/kdpb/inject/internal/common/logging"
	"github.com/kdpb/inject/internal/docproc"
	"github.com/kdpb/inject/internal/docproc/components"
	"github.com/kdpb/inject/internal/docproc/model"
	"github.com/kdpb/inject/internal/docproc/settings"
)

// ConnectRetryDelay is the pause between initial connection attempts.
const ConnectRetryDelay = 5 * time.Second

var (
	// ErrNotConnected is returned before Run has connected.
	ErrNotConnected = errors.New("database: not connected")
	// ErrReconnectFailed is returned when Reconnect runs out of attempts.
	ErrReconnectFailed = errors.New("database: connection could not be restored")
)

func init() {
	inject.Register(NewMongoDatabase,
		inject.Tags(docproc.Tag),
		inject.Param(0, inject.Ref("settings").Field("DBMongo")),
		inject.Param(1, inject.Ref(components.LoggerKey)),
	)
}

// MongoDatabase owns the Mongo client. Run connects it; Close disconnects.
type MongoDatabase struct {
	cfg          settings.MongoDatabaseSettings
	connectDelay time.Duration
	logger       *logging.Logger

	mu     sync.RWMutex
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoDatabase creates a disconnected database.
func NewMongoDatabase(cfg settings.MongoDatabaseSettings, logger *logging.Logger) *MongoDatabase {
	if logger == nil {
		logger = logging.Nop()
	}
	return &MongoDatabase{
		cfg:          cfg,
		connectDelay: ConnectRetryDelay,
		logger:       logger.Named("MongoDatabase"),
	}
}

// Run connects, retrying until it succeeds or ctx is done.
func (d *MongoDatabase) Run(ctx context.Context) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := d.connect(ctx)
		if err != nil {
			d.logger.Error("connection error, retrying", zap.Duration("delay", d.connectDelay), zap.Error(err))
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(d.connectDelay)),
		backoff.WithMaxElapsedTime(0),
	)
	if err != nil {
		return fmt.Errorf("database: connect: %w", err)
	}

	d.logger.Info("initialization complete", zap.String("database", d.cfg.Name))
	return nil
}

// Reconnect replaces the client, making up to ReconnectMaxRetries attempts
// separated by ReconnectRetryDelay.
func (d *MongoDatabase) Reconnect(ctx context.Context) error {
	tries := d.cfg.ReconnectMaxRetries
	if tries == 0 {
		tries = 1
	}

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		d.logger.Debug("reconnecting to the document database", zap.Int("attempt", attempt), zap.Uint("of", tries))
		return struct{}{}, d.connect(ctx)
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(d.cfg.ReconnectRetryDelay)),
		backoff.WithMaxTries(tries),
		backoff.WithNotify(func(err error, next time.Duration) {
			d.logger.Warn("document database connection error", zap.Duration("next", next), zap.Error(err))
		}),
	)
	if err != nil {
		d.logger.Error("the connection to the document database could not be restored", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrReconnectFailed, err)
	}

	d.logger.Info("the connection to the document database has been restored")
	return nil
}

func (d *MongoDatabase) connect(ctx context.Context) error {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(d.cfg.URL()))
	if err != nil {
		return backoff.Permanent(err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return err
	}

	db := client.Database(d.cfg.Name)
	if err := ensureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return err
	}

	d.mu.Lock()
	old := d.client
	d.client, d.db = client, db
	d.mu.Unlock()

	if old != nil {
		_ = old.Disconnect(ctx)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(model.ProviderVersionsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "namespace", Value: 1},
			{Key: "name", Value: 1},
			{Key: "version", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// Close disconnects the client. It is safe to call on a database that never
// connected.
func (d *MongoDatabase) Close(ctx context.Context) error {
	d.mu.Lock()
	client := d.client
	d.client, d.db = nil, nil
	d.mu.Unlock()

	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}

// Connected reports whether Run has connected.
func (d *MongoDatabase) Connected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.db != nil
}

// Collection returns a collection of the connected database.
func (d *MongoDatabase) Collection(name string) (*mongo.Collection, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.db == nil {
		return nil, ErrNotConnected
	}
	return d.db.Collection(name), nil
}
