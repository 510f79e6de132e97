package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/campuskit/attendance-engine/pkg/apperrors"
	"github.com/campuskit/attendance-engine/pkg/jsonutil"
	"github.com/campuskit/attendance-engine/pkg/llm"
	"github.com/campuskit/attendance-engine/pkg/logging"
	"github.com/campuskit/attendance-engine/pkg/models"
	"github.com/campuskit/attendance-engine/pkg/prompts"
	"github.com/campuskit/attendance-engine/pkg/repositories"
)

const (
	// narrateTemperature allows some freedom when rendering prose.
	narrateTemperature = 0.7

	narrationSystem = "You are a helpful assistant for a college attendance management system. Answer precisely from the provided data."
)

// QueryGenerator turns user text into validated query intents, executes them,
// and provides the deterministic and AI-backed result formatters.
type QueryGenerator interface {
	// GenerateIntent classifies user text into a QueryIntent via the LLM.
	GenerateIntent(ctx context.Context, userText string) (*models.QueryIntent, error)

	// Execute runs a validated intent against the store.
	Execute(ctx context.Context, intent *models.QueryIntent) (*models.QueryResult, error)

	// FormatAsTable renders documents as a markdown table, or "" when the
	// collection has no known tabular layout.
	FormatAsTable(docs []bson.M, collection string) string

	// FriendlyFormatResults is the deterministic non-AI fallback rendering.
	FriendlyFormatResults(docs []bson.M, userText string, collection string) string

	// GenerateNaturalResponse narrates a small result set via the LLM.
	GenerateNaturalResponse(ctx context.Context, userText string, docs []bson.M, intent *models.QueryIntent) (string, error)
}

type queryGenerator struct {
	llmClient   llm.LLMClient
	store       repositories.DocumentStore
	temperature float64
	now         func() time.Time
	logger      *zap.Logger
}

// NewQueryGenerator creates a QueryGenerator. The temperature applies to
// query classification only; narration uses its own fixed setting.
func NewQueryGenerator(llmClient llm.LLMClient, store repositories.DocumentStore, temperature float64, logger *zap.Logger) QueryGenerator {
	return &queryGenerator{
		llmClient:   llmClient,
		store:       store,
		temperature: temperature,
		now:         time.Now,
		logger:      logger.Named("query_generator"),
	}
}

// intentEnvelope is the wire shape the model replies with. Fields are raw so
// loosely-typed values (numbers where strings belong) can be normalized.
type intentEnvelope struct {
	Collection  json.RawMessage `json:"collection"`
	Operation   json.RawMessage `json:"operation"`
	Query       json.RawMessage `json:"query"`
	Projection  json.RawMessage `json:"projection"`
	Explanation json.RawMessage `json:"explanation"`
	ReportType  json.RawMessage `json:"reportType"`
}

func (g *queryGenerator) GenerateIntent(ctx context.Context, userText string) (*models.QueryIntent, error) {
	raw, err := g.llmClient.GenerateResponse(ctx, userText, prompts.SchemaContext(g.now()), g.temperature)
	if err != nil {
		return nil, fmt.Errorf("classify query: %w", err)
	}

	envelope, err := llm.ParseJSONResponse[intentEnvelope](raw, nil)
	if err != nil {
		return nil, &apperrors.MalformedIntentError{
			Raw:   logging.TruncateString(raw, 500),
			Cause: err,
		}
	}

	intent := &models.QueryIntent{
		Collection:  jsonutil.FlexibleString(envelope.Collection),
		Operation:   jsonutil.FlexibleString(envelope.Operation),
		Query:       envelope.Query,
		Projection:  envelope.Projection,
		Explanation: jsonutil.FlexibleString(envelope.Explanation),
		Report:      models.ReportType(jsonutil.FlexibleString(envelope.ReportType)),
	}

	if err := validateIntent(intent); err != nil {
		return nil, &apperrors.MalformedIntentError{
			Raw:   logging.TruncateString(raw, 500),
			Cause: err,
		}
	}

	g.logger.Debug("intent generated",
		zap.String("collection", intent.Collection),
		zap.String("operation", intent.Operation),
		zap.String("explanation", intent.Explanation))

	return intent, nil
}

// validateIntent enforces the collection and operation allow-lists.
// Conversational intents (either field missing) pass untouched.
func validateIntent(intent *models.QueryIntent) error {
	if intent.IsConversational() {
		return nil
	}
	if !models.Collections[intent.Collection] {
		return fmt.Errorf("unknown collection %q", intent.Collection)
	}
	if !models.Operations[intent.Operation] {
		return fmt.Errorf("unknown operation %q", intent.Operation)
	}
	return nil
}

func (g *queryGenerator) Execute(ctx context.Context, intent *models.QueryIntent) (*models.QueryResult, error) {
	switch intent.Operation {
	case "find":
		return g.executeFind(ctx, intent)
	case "countDocuments":
		return g.executeCount(ctx, intent)
	case "aggregate":
		return g.executeAggregate(ctx, intent)
	case "distinct":
		return g.executeDistinct(ctx, intent)
	default:
		return nil, &apperrors.ExecutionError{
			Collection: intent.Collection,
			Operation:  intent.Operation,
			Cause:      fmt.Errorf("unsupported operation"),
		}
	}
}

func (g *queryGenerator) executeFind(ctx context.Context, intent *models.QueryIntent) (*models.QueryResult, error) {
	filter, err := decodeFilter(intent.Query)
	if err != nil {
		return nil, execErr(intent, err)
	}
	projection, err := decodeFilter(intent.Projection)
	if err != nil {
		return nil, execErr(intent, err)
	}

	docs, err := g.store.Find(ctx, intent.Collection, filter, projection, nil)
	if err != nil {
		return nil, execErr(intent, err)
	}
	return &models.QueryResult{Kind: models.ResultKindDocuments, Documents: docs}, nil
}

func (g *queryGenerator) executeCount(ctx context.Context, intent *models.QueryIntent) (*models.QueryResult, error) {
	filter, err := decodeFilter(intent.Query)
	if err != nil {
		return nil, execErr(intent, err)
	}

	count, err := g.store.Count(ctx, intent.Collection, filter)
	if err != nil {
		return nil, execErr(intent, err)
	}
	return &models.QueryResult{Kind: models.ResultKindCount, Count: count}, nil
}

func (g *queryGenerator) executeAggregate(ctx context.Context, intent *models.QueryIntent) (*models.QueryResult, error) {
	var pipeline []bson.M
	if len(intent.Query) > 0 {
		if err := json.Unmarshal(intent.Query, &pipeline); err != nil {
			return nil, execErr(intent, fmt.Errorf("pipeline must be an array of stages: %w", err))
		}
	}
	if len(pipeline) == 0 {
		return nil, execErr(intent, fmt.Errorf("empty aggregation pipeline"))
	}

	if err := screenPipeline(pipeline); err != nil {
		return nil, execErr(intent, err)
	}

	docs, err := g.store.Aggregate(ctx, intent.Collection, pipeline)
	if err != nil {
		return nil, execErr(intent, err)
	}

	// A single-student lookup that matched nothing deserves a diagnosis, not
	// a bare empty result: the three "no data" states drive different
	// user-facing suggestions.
	if len(docs) == 0 && intent.Collection == "students" {
		if nameFilter, name := studentNameFilter(pipeline); nameFilter != nil {
			if err := g.diagnoseStudentLookup(ctx, nameFilter, name); err != nil {
				return nil, err
			}
		}
	}

	return &models.QueryResult{Kind: models.ResultKindDocuments, Documents: docs}, nil
}

// distinctArgs is the wire shape for distinct operations:
// {"field":"stream","filter":{...}}.
type distinctArgs struct {
	Field  string          `json:"field"`
	Filter json.RawMessage `json:"filter"`
}

func (g *queryGenerator) executeDistinct(ctx context.Context, intent *models.QueryIntent) (*models.QueryResult, error) {
	var args distinctArgs
	if len(intent.Query) > 0 {
		if err := json.Unmarshal(intent.Query, &args); err != nil {
			return nil, execErr(intent, fmt.Errorf("distinct arguments: %w", err))
		}
	}
	if args.Field == "" {
		return nil, execErr(intent, fmt.Errorf("distinct requires a field name"))
	}

	filter, err := decodeFilter(args.Filter)
	if err != nil {
		return nil, execErr(intent, err)
	}

	values, err := g.store.Distinct(ctx, intent.Collection, args.Field, filter)
	if err != nil {
		return nil, execErr(intent, err)
	}
	return &models.QueryResult{Kind: models.ResultKindValues, Values: values}, nil
}

// diagnoseStudentLookup resolves an empty single-student aggregate into one
// of the three distinguishable "no data" states.
func (g *queryGenerator) diagnoseStudentLookup(ctx context.Context, nameFilter bson.M, name string) error {
	student, err := g.store.FindOneStudent(ctx, nameFilter)
	if err != nil {
		return &apperrors.ExecutionError{Collection: "students", Operation: "aggregate", Cause: err}
	}
	if student == nil {
		return &apperrors.StudentNotFoundError{Name: name}
	}

	cohortCount, err := g.store.Count(ctx, "attendance", bson.M{
		"stream":   student.Stream,
		"semester": student.Semester,
	})
	if err != nil {
		return &apperrors.ExecutionError{Collection: "attendance", Operation: "countDocuments", Cause: err}
	}

	if cohortCount == 0 {
		return &apperrors.NoCohortAttendanceError{
			StudentName: student.Name,
			Stream:      student.Stream,
			Semester:    student.Semester,
		}
	}

	return &apperrors.StudentNoAttendanceError{
		StudentName: student.Name,
		StudentID:   student.StudentID,
		Stream:      student.Stream,
		Semester:    student.Semester,
	}
}

// studentNameFilter extracts the leading $match stage of a pipeline when it
// filters on student name, returning the filter and the human-readable name
// text (regex pattern or literal).
func studentNameFilter(pipeline []bson.M) (bson.M, string) {
	if len(pipeline) == 0 {
		return nil, ""
	}
	match, ok := pipeline[0]["$match"].(map[string]any)
	if !ok {
		return nil, ""
	}

	nameCond, ok := match["name"]
	if !ok {
		return nil, ""
	}

	switch cond := nameCond.(type) {
	case string:
		return bson.M(match), cond
	case map[string]any:
		if pattern, ok := cond["$regex"].(string); ok {
			return bson.M(match), pattern
		}
	}
	return nil, ""
}

// forbiddenOperators are aggregation operators that execute server-side
// JavaScript; intents carrying them are rejected before execution.
var forbiddenOperators = map[string]bool{
	"$where":       true,
	"$function":    true,
	"$accumulator": true,
}

// screenPipeline walks the decoded pipeline and rejects server-side JS.
func screenPipeline(pipeline []bson.M) error {
	for _, stage := range pipeline {
		if err := screenValue(map[string]any(stage)); err != nil {
			return err
		}
	}
	return nil
}

func screenValue(v any) error {
	switch val := v.(type) {
	case map[string]any:
		for key, nested := range val {
			if forbiddenOperators[key] {
				return fmt.Errorf("%w: %s", apperrors.ErrUnsafePipeline, key)
			}
			if err := screenValue(nested); err != nil {
				return err
			}
		}
	case bson.M:
		return screenValue(map[string]any(val))
	case []any:
		for _, item := range val {
			if err := screenValue(item); err != nil {
				return err
			}
		}
	}
	return nil
}

// decodeFilter turns a raw JSON object into a bson filter. Nil and null
// decode to an empty filter.
func decodeFilter(raw json.RawMessage) (bson.M, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return bson.M{}, nil
	}
	var filter bson.M
	if err := json.Unmarshal(raw, &filter); err != nil {
		return nil, fmt.Errorf("filter must be an object: %w", err)
	}
	return filter, nil
}

func execErr(intent *models.QueryIntent, cause error) error {
	return &apperrors.ExecutionError{
		Collection: intent.Collection,
		Operation:  intent.Operation,
		Cause:      cause,
	}
}

func (g *queryGenerator) GenerateNaturalResponse(ctx context.Context, userText string, docs []bson.M, intent *models.QueryIntent) (string, error) {
	results := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		results = append(results, withoutID(doc))
	}

	answer, err := g.llmClient.GenerateResponse(ctx, prompts.Narration(userText, results, intent.Explanation), narrationSystem, narrateTemperature)
	if err != nil {
		return "", fmt.Errorf("narrate results: %w", err)
	}
	return answer, nil
}

// withoutID copies a document minus its _id so ObjectID noise stays out of
// prompts and rendered output.
func withoutID(doc bson.M) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		if k == "_id" {
			continue
		}
		out[k] = v
	}
	return out
}
