package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kdpb/inject/internal/docproc/model"
)

// EnabledProviders returns the providers whose settings enable processing.
func (d *MongoDatabase) EnabledProviders(ctx context.Context) ([]model.ProviderSettings, error) {
	coll, err := d.Collection(model.ProviderSettingsCollection)
	if err != nil {
		return nil, err
	}

	cur, err := coll.Find(ctx, bson.M{"enabled": true})
	if err != nil {
		return nil, fmt.Errorf("database: find provider settings: %w", err)
	}

	var out []model.ProviderSettings
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("database: decode provider settings: %w", err)
	}
	return out, nil
}

// VersionProcessed reports whether a provider version was already recorded.
func (d *MongoDatabase) VersionProcessed(ctx context.Context, provider model.ProviderConfig, version string) (bool, error) {
	coll, err := d.Collection(model.ProviderVersionsCollection)
	if err != nil {
		return false, err
	}

	err = coll.FindOne(ctx, bson.M{
		"namespace": provider.Namespace,
		"name":      provider.Name,
		"version":   version,
	}).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return false, nil
	default:
		return false, fmt.Errorf("database: find provider version: %w", err)
	}
}

// InsertProviderVersion records a processed provider version.
func (d *MongoDatabase) InsertProviderVersion(ctx context.Context, doc model.ProviderVersionDocument) error {
	coll, err := d.Collection(model.ProviderVersionsCollection)
	if err != nil {
		return err
	}

	if doc.ProcessedAt.IsZero() {
		doc.ProcessedAt = time.Now().UTC()
	}

	if _, err := coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("database: insert provider version: %w", err)
	}
	return nil
}
