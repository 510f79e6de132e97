package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/campuskit/attendance-engine/pkg/models"
)

// MockDocumentStore is a configurable mock for testing store-backed code.
// Set the function fields to control behavior in tests; nil fields return
// empty results and nil errors.
type MockDocumentStore struct {
	FindFunc           func(ctx context.Context, collection string, filter bson.M, projection bson.M, opts *FindOptions) ([]bson.M, error)
	CountFunc          func(ctx context.Context, collection string, filter bson.M) (int64, error)
	AggregateFunc      func(ctx context.Context, collection string, pipeline []bson.M) ([]bson.M, error)
	DistinctFunc       func(ctx context.Context, collection string, field string, filter bson.M) ([]any, error)
	FindOneStudentFunc func(ctx context.Context, filter bson.M) (*models.Student, error)
	PingFunc           func(ctx context.Context) error

	// Call tracking for verification
	FindCalls           int
	CountCalls          int
	AggregateCalls      int
	DistinctCalls       int
	FindOneStudentCalls int
}

// NewMockDocumentStore creates a mock whose every call succeeds with empty
// results.
func NewMockDocumentStore() *MockDocumentStore {
	return &MockDocumentStore{}
}

func (m *MockDocumentStore) Find(ctx context.Context, collection string, filter bson.M, projection bson.M, opts *FindOptions) ([]bson.M, error) {
	m.FindCalls++
	if m.FindFunc != nil {
		return m.FindFunc(ctx, collection, filter, projection, opts)
	}
	return nil, nil
}

func (m *MockDocumentStore) Count(ctx context.Context, collection string, filter bson.M) (int64, error) {
	m.CountCalls++
	if m.CountFunc != nil {
		return m.CountFunc(ctx, collection, filter)
	}
	return 0, nil
}

func (m *MockDocumentStore) Aggregate(ctx context.Context, collection string, pipeline []bson.M) ([]bson.M, error) {
	m.AggregateCalls++
	if m.AggregateFunc != nil {
		return m.AggregateFunc(ctx, collection, pipeline)
	}
	return nil, nil
}

func (m *MockDocumentStore) Distinct(ctx context.Context, collection string, field string, filter bson.M) ([]any, error) {
	m.DistinctCalls++
	if m.DistinctFunc != nil {
		return m.DistinctFunc(ctx, collection, field, filter)
	}
	return nil, nil
}

func (m *MockDocumentStore) FindOneStudent(ctx context.Context, filter bson.M) (*models.Student, error) {
	m.FindOneStudentCalls++
	if m.FindOneStudentFunc != nil {
		return m.FindOneStudentFunc(ctx, filter)
	}
	return nil, nil
}

func (m *MockDocumentStore) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

// Ensure MockDocumentStore implements DocumentStore at compile time.
var _ DocumentStore = (*MockDocumentStore)(nil)
