package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/proveloce/connect/internal/core/domain"
)

const collectionConfig = "configuration"

// ConfigRepository persists the global key-value configuration. The key is
// the document _id, so writes are natural upserts and never duplicate.
type ConfigRepository struct {
	col *mongo.Collection
}

func NewConfigRepository(db *mongo.Database) *ConfigRepository {
	return &ConfigRepository{col: db.Collection(collectionConfig)}
}

func (r *ConfigRepository) Upsert(ctx context.Context, entry domain.ConfigEntry) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Replace().SetUpsert(true)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": entry.Key}, entry, opts)
	return err
}

func (r *ConfigRepository) Get(ctx context.Context, key string) (*domain.ConfigEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var entry domain.ConfigEntry
	if err := r.col.FindOne(ctx, bson.M{"_id": key}).Decode(&entry); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrConfigNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func (r *ConfigRepository) All(ctx context.Context) ([]domain.ConfigEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cursor, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []domain.ConfigEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
