package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/campuskit/attendance-engine/pkg/apperrors"
	"github.com/campuskit/attendance-engine/pkg/llm"
	"github.com/campuskit/attendance-engine/pkg/models"
	"github.com/campuskit/attendance-engine/pkg/repositories"
)

// scriptedLLM returns canned replies in order: the first call gets replies[0],
// the second replies[1], and so on. Extra calls repeat the last reply.
func scriptedLLM(replies ...string) *llm.MockLLMClient {
	mock := llm.NewMockLLMClient()
	call := 0
	mock.GenerateResponseFunc = func(ctx context.Context, prompt, system string, temp float64) (string, error) {
		reply := replies[len(replies)-1]
		if call < len(replies) {
			reply = replies[call]
		}
		call++
		return reply, nil
	}
	return mock
}

func newChatUnderTest(llmClient llm.LLMClient, store repositories.DocumentStore) ChatService {
	gen := NewQueryGenerator(llmClient, store, 0.1, zap.NewNop())
	return NewChatService(gen, llmClient, zap.NewNop())
}

func TestAnswer_EmptyMessage(t *testing.T) {
	svc := newChatUnderTest(llm.NewMockLLMClient(), repositories.NewMockDocumentStore())

	_, err := svc.Answer(context.Background(), "   ")
	assert.ErrorIs(t, err, apperrors.ErrEmptyMessage)
}

func TestAnswer_Conversational(t *testing.T) {
	mockLLM := scriptedLLM(
		`{"collection":null,"operation":null,"query":null,"explanation":"Hello! I can help with attendance.","reportType":"none"}`,
		"Hi there! Ask me about students, subjects, or attendance.",
	)
	store := repositories.NewMockDocumentStore()
	svc := newChatUnderTest(mockLLM, store)

	resp, err := svc.Answer(context.Background(), "hello")
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, "Hi there! Ask me about students, subjects, or attendance.", resp.Answer)
	assert.Nil(t, resp.QueryInfo.Collection)
	assert.Nil(t, resp.QueryInfo.Operation)
	assert.Equal(t, "Hello! I can help with attendance.", resp.QueryInfo.Explanation)
	assert.Equal(t, 0, resp.ResultCount)
	assert.Equal(t, 0, store.FindCalls+store.AggregateCalls+store.CountCalls)
}

func TestAnswer_PartiallyNullIntentIsConversational(t *testing.T) {
	// Models sometimes null the collection but still emit an operation; that
	// mix must get the capability reply, not an error.
	mockLLM := scriptedLLM(
		`{"collection":null,"operation":"find","query":null,"explanation":"I can help with attendance questions.","reportType":"none"}`,
		"I can look up students, subjects, and attendance records for you.",
	)
	store := repositories.NewMockDocumentStore()
	svc := newChatUnderTest(mockLLM, store)

	resp, err := svc.Answer(context.Background(), "what can you do")
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, "I can look up students, subjects, and attendance records for you.", resp.Answer)
	assert.Equal(t, 0, resp.ResultCount)
	assert.Equal(t, 0, store.FindCalls+store.AggregateCalls+store.CountCalls)
}

func TestAnswer_StudentNotFound(t *testing.T) {
	mockLLM := scriptedLLM(
		`{"collection":"students","operation":"aggregate","query":[{"$match":{"name":{"$regex":"skanda","$options":"i"},"isActive":true}}],"explanation":"Attendance report for skanda","reportType":"attendanceReport"}`,
	)
	store := repositories.NewMockDocumentStore()

	svc := newChatUnderTest(mockLLM, store)
	resp, err := svc.Answer(context.Background(), "skanda's attendance")
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Contains(t, resp.Answer, `## Student Not Found: "skanda"`)
	assert.Contains(t, resp.Answer, "Check the spelling of the name")
	assert.Equal(t, 0, resp.ResultCount)
	assert.Equal(t, "Student not found in database", resp.QueryInfo.Explanation)
}

func TestAnswer_NoCohortAttendance(t *testing.T) {
	mockLLM := scriptedLLM(
		`{"collection":"students","operation":"aggregate","query":[{"$match":{"name":{"$regex":"anita","$options":"i"}}}],"explanation":"Attendance report","reportType":"attendanceReport"}`,
	)
	store := repositories.NewMockDocumentStore()
	store.FindOneStudentFunc = func(ctx context.Context, filter bson.M) (*models.Student, error) {
		return &models.Student{Name: "Anita Rao", StudentID: "U18ER24C0012", Stream: "BCA", Semester: 5}, nil
	}

	svc := newChatUnderTest(mockLLM, store)
	resp, err := svc.Answer(context.Background(), "anita's attendance")
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Contains(t, resp.Answer, "## Student Found: Anita Rao")
	assert.Contains(t, resp.Answer, "## No Classes Conducted Yet")
	assert.Contains(t, resp.Answer, "no attendance records for BCA semester 5")
}

func TestAnswer_StudentNoAttendance(t *testing.T) {
	mockLLM := scriptedLLM(
		`{"collection":"students","operation":"aggregate","query":[{"$match":{"name":{"$regex":"anita","$options":"i"}}}],"explanation":"Attendance report","reportType":"attendanceReport"}`,
	)
	store := repositories.NewMockDocumentStore()
	store.FindOneStudentFunc = func(ctx context.Context, filter bson.M) (*models.Student, error) {
		return &models.Student{Name: "Anita Rao", StudentID: "U18ER24C0012", Stream: "BCA", Semester: 5}, nil
	}
	store.CountFunc = func(ctx context.Context, collection string, filter bson.M) (int64, error) {
		return 12, nil
	}

	svc := newChatUnderTest(mockLLM, store)
	resp, err := svc.Answer(context.Background(), "anita's attendance")
	require.NoError(t, err)

	assert.Contains(t, resp.Answer, "## No Attendance Records")
	assert.Contains(t, resp.Answer, "Student ID: U18ER24C0012")
}

func TestAnswer_ExecutionErrorBecomesGuidedAnswer(t *testing.T) {
	mockLLM := scriptedLLM(
		`{"collection":"students","operation":"find","query":{"stream":"BCA"},"explanation":"BCA students","reportType":"listing"}`,
	)
	store := repositories.NewMockDocumentStore()
	store.FindFunc = func(ctx context.Context, collection string, filter, projection bson.M, opts *repositories.FindOptions) ([]bson.M, error) {
		return nil, errors.New("cursor timeout")
	}

	svc := newChatUnderTest(mockLLM, store)
	resp, err := svc.Answer(context.Background(), "show BCA students")
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Contains(t, resp.Answer, "## Database Query Error")
	assert.Contains(t, resp.Answer, "cursor timeout")
}

func TestAnswer_EmptyResultsSuggestions(t *testing.T) {
	tests := []struct {
		collection string
		want       string
	}{
		{"students", "## Suggestions for Student Search:"},
		{"subjects", "## Suggestions for Subject Search:"},
		{"attendance", "## Suggestions for Attendance Search:"},
		{"teachers", "## General Suggestions:"},
	}

	for _, tt := range tests {
		t.Run(tt.collection, func(t *testing.T) {
			mockLLM := scriptedLLM(
				`{"collection":"` + tt.collection + `","operation":"find","query":{"name":"zzz"},"explanation":"lookup","reportType":"listing"}`,
			)
			svc := newChatUnderTest(mockLLM, repositories.NewMockDocumentStore())

			resp, err := svc.Answer(context.Background(), "find zzz")
			require.NoError(t, err)

			assert.True(t, resp.Success)
			assert.Contains(t, resp.Answer, "## No Results Found")
			assert.Contains(t, resp.Answer, tt.want)
			assert.Equal(t, 0, resp.ResultCount)
		})
	}
}

func TestAnswer_TableForLongListings(t *testing.T) {
	mockLLM := scriptedLLM(
		`{"collection":"students","operation":"find","query":{"stream":"BCA"},"explanation":"BCA students","reportType":"listing"}`,
	)
	store := repositories.NewMockDocumentStore()
	store.FindFunc = func(ctx context.Context, collection string, filter, projection bson.M, opts *repositories.FindOptions) ([]bson.M, error) {
		return []bson.M{
			{"studentID": "S1", "name": "A", "stream": "BCA", "semester": int32(5)},
			{"studentID": "S2", "name": "B", "stream": "BCA", "semester": int32(5)},
			{"studentID": "S3", "name": "C", "stream": "BCA", "semester": int32(5)},
			{"studentID": "S4", "name": "D", "stream": "BCA", "semester": int32(5)},
		}, nil
	}

	svc := newChatUnderTest(mockLLM, store)
	resp, err := svc.Answer(context.Background(), "list BCA students")
	require.NoError(t, err)

	assert.Contains(t, resp.Answer, "## Results (4 found)")
	assert.Contains(t, resp.Answer, "**Total Records:** 4")
	assert.Equal(t, 4, resp.ResultCount)
	assert.Len(t, resp.RawData, 4)
	// Narration is skipped when a table renders: only the classify call ran.
	assert.Equal(t, 1, mockLLM.GenerateResponseCalls)
}

func TestAnswer_NarrationForShortListings(t *testing.T) {
	mockLLM := scriptedLLM(
		`{"collection":"students","operation":"find","query":{"name":"anita"},"explanation":"lookup","reportType":"listing"}`,
		"Anita Rao is a BCA semester 5 student, and Anil Shetty studies BBA.",
	)
	store := repositories.NewMockDocumentStore()
	store.FindFunc = func(ctx context.Context, collection string, filter, projection bson.M, opts *repositories.FindOptions) ([]bson.M, error) {
		return []bson.M{
			{"name": "Anita Rao", "stream": "BCA"},
			{"name": "Anil Shetty", "stream": "BBA"},
		}, nil
	}

	svc := newChatUnderTest(mockLLM, store)
	resp, err := svc.Answer(context.Background(), "find ani")
	require.NoError(t, err)

	assert.Equal(t, "Anita Rao is a BCA semester 5 student, and Anil Shetty studies BBA.", resp.Answer)
	assert.Equal(t, 2, resp.ResultCount)
	assert.Len(t, resp.RawData, 2)
}

func TestAnswer_SingleResultHasNoRawData(t *testing.T) {
	mockLLM := scriptedLLM(
		`{"collection":"students","operation":"find","query":{"name":"anita"},"explanation":"lookup","reportType":"listing"}`,
		"Anita Rao is a BCA semester 5 student.",
	)
	store := repositories.NewMockDocumentStore()
	store.FindFunc = func(ctx context.Context, collection string, filter, projection bson.M, opts *repositories.FindOptions) ([]bson.M, error) {
		return []bson.M{{"name": "Anita Rao", "stream": "BCA"}}, nil
	}

	svc := newChatUnderTest(mockLLM, store)
	resp, err := svc.Answer(context.Background(), "find anita")
	require.NoError(t, err)

	assert.Equal(t, 1, resp.ResultCount)
	assert.Nil(t, resp.RawData)
}

func TestAnswer_NarrationFailureFallsBack(t *testing.T) {
	mockLLM := llm.NewMockLLMClient()
	call := 0
	mockLLM.GenerateResponseFunc = func(ctx context.Context, prompt, system string, temp float64) (string, error) {
		call++
		if call == 1 {
			return `{"collection":"students","operation":"find","query":{"name":"anita"},"explanation":"lookup","reportType":"listing"}`, nil
		}
		return "", llm.NewError(llm.ErrorTypeTimeout, "deadline exceeded", true, nil)
	}
	store := repositories.NewMockDocumentStore()
	store.FindFunc = func(ctx context.Context, collection string, filter, projection bson.M, opts *repositories.FindOptions) ([]bson.M, error) {
		return []bson.M{{"name": "Anita Rao", "studentID": "U18ER24C0012", "stream": "BCA"}}, nil
	}

	svc := newChatUnderTest(mockLLM, store)
	resp, err := svc.Answer(context.Background(), "find anita")
	require.NoError(t, err)

	assert.Contains(t, resp.Answer, "Anita Rao - U18ER24C0012 - BCA")
}

func TestAnswer_AttendanceReportByTag(t *testing.T) {
	mockLLM := scriptedLLM(
		`{"collection":"students","operation":"aggregate","query":[{"$match":{"name":{"$regex":"anita","$options":"i"}}}],"explanation":"report","reportType":"attendanceReport"}`,
	)
	store := repositories.NewMockDocumentStore()
	store.AggregateFunc = func(ctx context.Context, collection string, pipeline []bson.M) ([]bson.M, error) {
		return []bson.M{
			{
				"subject": "Operating Systems", "totalClasses": int32(20), "classesAttended": int32(10),
				"attendancePercentage": 50.0, "studentName": "Anita Rao",
				"studentID": "U18ER24C0012", "stream": "BCA", "semester": int32(5),
			},
		}, nil
	}

	svc := newChatUnderTest(mockLLM, store)
	resp, err := svc.Answer(context.Background(), "anita's attendance report")
	require.NoError(t, err)

	assert.Contains(t, resp.Answer, "# Attendance Report for Anita Rao")
	assert.Contains(t, resp.Answer, "Need 20 more classes")
	assert.Equal(t, 1, resp.ResultCount)
}

func TestAnswer_AttendanceReportByLegacyExplanation(t *testing.T) {
	// No reportType tag; the explanation phrase alone selects the report.
	mockLLM := scriptedLLM(
		`{"collection":"students","operation":"aggregate","query":[{"$match":{"name":{"$regex":"anita","$options":"i"}}}],"explanation":"Detailed attendance for Anita"}`,
	)
	store := repositories.NewMockDocumentStore()
	store.AggregateFunc = func(ctx context.Context, collection string, pipeline []bson.M) ([]bson.M, error) {
		return []bson.M{
			{
				"subject": "Statistics", "totalClasses": int32(10), "classesAttended": int32(9),
				"attendancePercentage": 90.0, "studentName": "Anita Rao",
				"studentID": "U18ER24C0012", "stream": "BCA", "semester": int32(5),
			},
		}, nil
	}

	svc := newChatUnderTest(mockLLM, store)
	resp, err := svc.Answer(context.Background(), "detailed attendance for anita")
	require.NoError(t, err)
	assert.Contains(t, resp.Answer, "# Attendance Report for Anita Rao")
}

func TestAnswer_CountNarrated(t *testing.T) {
	mockLLM := scriptedLLM(
		`{"collection":"students","operation":"countDocuments","query":{"stream":"BCA"},"explanation":"BCA student count","reportType":"scalar"}`,
		"There are 42 students in BCA.",
	)
	store := repositories.NewMockDocumentStore()
	store.CountFunc = func(ctx context.Context, collection string, filter bson.M) (int64, error) {
		return 42, nil
	}

	svc := newChatUnderTest(mockLLM, store)
	resp, err := svc.Answer(context.Background(), "how many BCA students")
	require.NoError(t, err)

	assert.Equal(t, "There are 42 students in BCA.", resp.Answer)
	assert.Equal(t, 42, resp.ResultCount)
	assert.Nil(t, resp.RawData)
}

func TestAnswer_DistinctValues(t *testing.T) {
	mockLLM := scriptedLLM(
		`{"collection":"students","operation":"distinct","query":{"field":"stream","filter":{"isActive":true}},"explanation":"streams","reportType":"listing"}`,
	)
	store := repositories.NewMockDocumentStore()
	store.DistinctFunc = func(ctx context.Context, collection, field string, filter bson.M) ([]any, error) {
		return []any{"BCA", "BBA"}, nil
	}

	svc := newChatUnderTest(mockLLM, store)
	resp, err := svc.Answer(context.Background(), "what streams exist")
	require.NoError(t, err)

	assert.Contains(t, resp.Answer, "- BCA")
	assert.Contains(t, resp.Answer, "- BBA")
	assert.Equal(t, 2, resp.ResultCount)
}

func TestAnswer_IntentErrorBubbles(t *testing.T) {
	mockLLM := scriptedLLM("not json at all")
	svc := newChatUnderTest(mockLLM, repositories.NewMockDocumentStore())

	_, err := svc.Answer(context.Background(), "show students")
	var malformed *apperrors.MalformedIntentError
	assert.ErrorAs(t, err, &malformed)
}

func TestErrorAnswer(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			"overloaded llm",
			llm.NewError(llm.ErrorTypeOverloaded, "503 overloaded", true, nil),
			"## Service Overloaded",
		},
		{
			"other llm failure",
			llm.NewError(llm.ErrorTypeAuth, "invalid api key", false, nil),
			"## AI Service Issue",
		},
		{
			"malformed intent",
			&apperrors.MalformedIntentError{Raw: "garbage", Cause: errors.New("no JSON found")},
			"## Query Understanding Error",
		},
		{
			"database failure",
			errors.New("server selection error: mongodb://host unreachable"),
			"## Database Connection Issue",
		},
		{
			"anything else",
			errors.New("boom"),
			"Error Details:\nboom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answer := ErrorAnswer(tt.err)
			assert.Contains(t, answer, "## Error")
			assert.Contains(t, answer, tt.want)
		})
	}
}
