package models

import (
	"encoding/json"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// Collections is the fixed set of collections the chat pipeline may query.
var Collections = map[string]bool{
	"students":   true,
	"subjects":   true,
	"teachers":   true,
	"attendance": true,
	"streams":    true,
}

// Operations is the fixed set of read operations the chat pipeline may run.
var Operations = map[string]bool{
	"find":           true,
	"countDocuments": true,
	"aggregate":      true,
	"distinct":       true,
}

// ReportType tags what kind of rendering an intent's results call for.
// Emitted explicitly by the classification step so formatting doesn't have to
// be inferred from prose.
type ReportType string

const (
	ReportTypeAttendance ReportType = "attendanceReport"
	ReportTypeListing    ReportType = "listing"
	ReportTypeScalar     ReportType = "scalar"
	ReportTypeNone       ReportType = "none"
)

// reportPhrases is the legacy fallback for models that omit the reportType
// tag: explanation substrings that historically marked a per-student report.
var reportPhrases = []string{
	"attendance report",
	"subject-wise attendance",
	"detailed attendance",
	"attendance summary",
	"attendance performance",
}

// QueryIntent is the structured interpretation of a user's free-text question.
// A missing Collection or Operation means the question is conversational and
// no database query should run. Constructed fresh per request and never
// persisted.
type QueryIntent struct {
	Collection  string
	Operation   string
	Query       json.RawMessage // object for find/count/distinct, array for aggregate
	Projection  json.RawMessage
	Explanation string
	Report      ReportType
}

// IsConversational reports whether the intent lacks a collection or an
// operation. Models sometimes null out only one of the two; either way there
// is nothing to execute.
func (i *QueryIntent) IsConversational() bool {
	return i.Collection == "" || i.Operation == ""
}

// WantsAttendanceReport reports whether results should be rendered as a
// per-student attendance report. Prefers the explicit tag, falling back to
// the legacy explanation scan.
func (i *QueryIntent) WantsAttendanceReport() bool {
	if i.Report != "" {
		return i.Report == ReportTypeAttendance
	}
	lower := strings.ToLower(i.Explanation)
	for _, phrase := range reportPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// ResultKind discriminates the shapes a query execution can produce.
type ResultKind string

const (
	ResultKindDocuments ResultKind = "documents"
	ResultKindCount     ResultKind = "count"
	ResultKindValues    ResultKind = "values"
)

// QueryResult is the raw outcome of executing a QueryIntent. Owned by a
// single request.
type QueryResult struct {
	Kind      ResultKind
	Documents []bson.M // find, aggregate
	Count     int64    // countDocuments
	Values    []any    // distinct
}

// IsEmpty reports whether execution succeeded but matched nothing.
func (r *QueryResult) IsEmpty() bool {
	switch r.Kind {
	case ResultKindDocuments:
		return len(r.Documents) == 0
	case ResultKindValues:
		return len(r.Values) == 0
	default:
		return false
	}
}

// ResultCount is the count reported to the caller: list length for document
// results, the scalar for counts, number of values for distinct.
func (r *QueryResult) ResultCount() int {
	switch r.Kind {
	case ResultKindDocuments:
		return len(r.Documents)
	case ResultKindCount:
		return int(r.Count)
	case ResultKindValues:
		return len(r.Values)
	default:
		return 0
	}
}

// QueryInfo echoes the executed intent back to the caller. Collection and
// Operation serialize as null for conversational turns.
type QueryInfo struct {
	Collection  *string `json:"collection"`
	Operation   *string `json:"operation"`
	Explanation string  `json:"explanation"`
}

// NewQueryInfo builds a QueryInfo from an intent, mapping empty
// collection/operation to null.
func NewQueryInfo(intent *QueryIntent, explanation string) QueryInfo {
	info := QueryInfo{Explanation: explanation}
	if intent != nil && intent.Collection != "" {
		info.Collection = &intent.Collection
	}
	if intent != nil && intent.Operation != "" {
		info.Operation = &intent.Operation
	}
	return info
}

// ChatResponse is the uniform envelope returned by the chat endpoint.
// Immutable once written to the wire.
type ChatResponse struct {
	Success     bool      `json:"success"`
	Answer      string    `json:"answer"`
	QueryInfo   QueryInfo `json:"queryInfo"`
	ResultCount int       `json:"resultCount"`
	RawData     []bson.M  `json:"rawData,omitempty"`
}
