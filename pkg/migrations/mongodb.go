package migrations

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"docucheck/internal/constants"
)

// EnsureSessionCollection creates the indexes the session archive queries
// need: history lookups by document in chronological order, and session
// fetches by id.
func EnsureSessionCollection(ctx context.Context, db *mongo.Database) error {
	collection := db.Collection(constants.SessionCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "document_id", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("idx_sessions_document_created"),
		},
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}},
			Options: options.Index().SetName("idx_sessions_session_id").SetUnique(true),
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		if !strings.Contains(err.Error(), "already exists") {
			return fmt.Errorf("failed to create session indexes: %w", err)
		}
	}

	return nil
}
