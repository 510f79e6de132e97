// Package repositories provides data access over the MongoDB collections.
package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/campuskit/attendance-engine/pkg/database"
	"github.com/campuskit/attendance-engine/pkg/models"
)

// FindOptions carries the optional modifiers a find supports.
type FindOptions struct {
	Sort  bson.D
	Limit int64
}

// DocumentStore is the read surface the chat pipeline and dashboard use.
// Implemented by mongoStore; use MockDocumentStore in tests.
type DocumentStore interface {
	// Find returns matching documents honoring projection and options.
	Find(ctx context.Context, collection string, filter bson.M, projection bson.M, opts *FindOptions) ([]bson.M, error)

	// Count returns the number of documents matching filter.
	Count(ctx context.Context, collection string, filter bson.M) (int64, error)

	// Aggregate runs the pipeline verbatim against the named collection.
	Aggregate(ctx context.Context, collection string, pipeline []bson.M) ([]bson.M, error)

	// Distinct returns the unique values of field under an optional filter.
	Distinct(ctx context.Context, collection string, field string, filter bson.M) ([]any, error)

	// FindOneStudent returns the first student matching filter, or nil when
	// none match.
	FindOneStudent(ctx context.Context, filter bson.M) (*models.Student, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error
}

// mongoStore implements DocumentStore over a live database handle.
type mongoStore struct {
	db           *database.DB
	queryTimeout time.Duration
}

// NewMongoStore creates a DocumentStore backed by MongoDB. queryTimeout
// bounds every individual operation; 0 means no bound beyond the caller's
// context.
func NewMongoStore(db *database.DB, queryTimeout time.Duration) DocumentStore {
	return &mongoStore{db: db, queryTimeout: queryTimeout}
}

func (s *mongoStore) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.queryTimeout)
}

func (s *mongoStore) Find(ctx context.Context, collection string, filter bson.M, projection bson.M, opts *FindOptions) ([]bson.M, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	if filter == nil {
		filter = bson.M{}
	}

	findOpts := options.Find()
	if len(projection) > 0 {
		findOpts.SetProjection(projection)
	}
	if opts != nil {
		if len(opts.Sort) > 0 {
			findOpts.SetSort(opts.Sort)
		}
		if opts.Limit > 0 {
			findOpts.SetLimit(opts.Limit)
		}
	}

	cursor, err := s.db.Database().Collection(collection).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("find on %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode find results from %s: %w", collection, err)
	}
	return docs, nil
}

func (s *mongoStore) Count(ctx context.Context, collection string, filter bson.M) (int64, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	if filter == nil {
		filter = bson.M{}
	}

	count, err := s.db.Database().Collection(collection).CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count on %s: %w", collection, err)
	}
	return count, nil
}

func (s *mongoStore) Aggregate(ctx context.Context, collection string, pipeline []bson.M) ([]bson.M, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	cursor, err := s.db.Database().Collection(collection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate on %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode aggregate results from %s: %w", collection, err)
	}
	return docs, nil
}

func (s *mongoStore) Distinct(ctx context.Context, collection string, field string, filter bson.M) ([]any, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	if filter == nil {
		filter = bson.M{}
	}

	values, err := s.db.Database().Collection(collection).Distinct(ctx, field, filter)
	if err != nil {
		return nil, fmt.Errorf("distinct %s on %s: %w", field, collection, err)
	}
	return values, nil
}

func (s *mongoStore) FindOneStudent(ctx context.Context, filter bson.M) (*models.Student, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	var student models.Student
	err := s.db.Database().Collection("students").FindOne(ctx, filter).Decode(&student)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}

func (s *mongoStore) Ping(ctx context.Context) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	return s.db.Ping(ctx)
}
