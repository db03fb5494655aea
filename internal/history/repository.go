package history

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"docucheck/internal/constants"
	"docucheck/internal/validation"
)

// Repository is the append-only session archive. Sessions are inserted and
// read back, never updated or deleted: a re-validation adds a new session
// rather than rewriting an old verdict.
type Repository struct {
	collection *mongo.Collection
}

func NewRepository(db *mongo.Database) *Repository {
	return &Repository{
		collection: db.Collection(constants.SessionCollection),
	}
}

func (r *Repository) AppendSession(ctx context.Context, session *validation.Session) error {
	if _, err := r.collection.InsertOne(ctx, session); err != nil {
		return fmt.Errorf("failed to append session: %w", err)
	}
	return nil
}

// ListSessions returns every session recorded for a document, oldest first.
// A document with no sessions yields an empty slice, not an error.
func (r *Repository) ListSessions(ctx context.Context, documentID string) ([]validation.Session, error) {
	filter := bson.M{"document_id": documentID}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find sessions: %w", err)
	}
	defer cursor.Close(ctx)

	sessions := []validation.Session{}
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("failed to decode sessions: %w", err)
	}

	return sessions, nil
}
