package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/campuskit/attendance-engine/pkg/apperrors"
	"github.com/campuskit/attendance-engine/pkg/llm"
	"github.com/campuskit/attendance-engine/pkg/logging"
	"github.com/campuskit/attendance-engine/pkg/models"
	"github.com/campuskit/attendance-engine/pkg/prompts"
)

// tableThreshold is the result count above which list answers switch from
// prose to a markdown table.
const tableThreshold = 3

// ChatService answers natural-language questions about the college database.
type ChatService interface {
	Answer(ctx context.Context, userText string) (*models.ChatResponse, error)
}

type chatService struct {
	generator QueryGenerator
	llmClient llm.LLMClient
	logger    *zap.Logger
}

// NewChatService creates a ChatService over a query generator and an LLM
// client for conversational replies.
func NewChatService(generator QueryGenerator, llmClient llm.LLMClient, logger *zap.Logger) ChatService {
	return &chatService{
		generator: generator,
		llmClient: llmClient,
		logger:    logger.Named("chat"),
	}
}

func (s *chatService) Answer(ctx context.Context, userText string) (*models.ChatResponse, error) {
	userText = strings.TrimSpace(userText)
	if userText == "" {
		return nil, apperrors.ErrEmptyMessage
	}

	s.logger.Info("chat message received",
		zap.String("message", logging.TruncateMessage(userText)))

	intent, err := s.generator.GenerateIntent(ctx, userText)
	if err != nil {
		return nil, err
	}

	if intent.IsConversational() {
		return s.answerConversational(ctx, userText, intent)
	}

	result, err := s.generator.Execute(ctx, intent)
	if err != nil {
		if resp := diagnosisResponse(err, intent); resp != nil {
			return resp, nil
		}
		return nil, err
	}

	if result.IsEmpty() {
		return &models.ChatResponse{
			Success:     true,
			Answer:      noResultsAnswer(intent.Collection),
			QueryInfo:   models.NewQueryInfo(intent, "No results found"),
			ResultCount: 0,
		}, nil
	}

	answer := s.renderAnswer(ctx, userText, intent, result)

	explanation := intent.Explanation
	if explanation == "" {
		explanation = "Query executed successfully"
	}
	resp := &models.ChatResponse{
		Success:     true,
		Answer:      strings.TrimSpace(answer),
		QueryInfo:   models.NewQueryInfo(intent, explanation),
		ResultCount: result.ResultCount(),
	}
	if len(result.Documents) > 1 {
		resp.RawData = result.Documents
	}
	return resp, nil
}

func (s *chatService) answerConversational(ctx context.Context, userText string, intent *models.QueryIntent) (*models.ChatResponse, error) {
	reply, err := s.llmClient.GenerateResponse(ctx, prompts.ConversationalReply(userText), "", narrateTemperature)
	if err != nil {
		return nil, fmt.Errorf("conversational reply: %w", err)
	}

	explanation := intent.Explanation
	if explanation == "" {
		explanation = "Conversational response"
	}
	return &models.ChatResponse{
		Success:     true,
		Answer:      strings.TrimSpace(reply),
		QueryInfo:   models.NewQueryInfo(intent, explanation),
		ResultCount: 0,
	}, nil
}

// renderAnswer picks the rendering strategy for a non-empty result: the
// attendance report, a table for long listings, or LLM narration with a
// deterministic fallback.
func (s *chatService) renderAnswer(ctx context.Context, userText string, intent *models.QueryIntent, result *models.QueryResult) string {
	switch result.Kind {
	case models.ResultKindCount:
		countDoc := []bson.M{{"count": result.Count}}
		answer, err := s.generator.GenerateNaturalResponse(ctx, userText, countDoc, intent)
		if err != nil {
			s.logger.Warn("narration failed, using fallback", zap.Error(err))
			return s.generator.FriendlyFormatResults(countDoc, userText, intent.Collection)
		}
		return answer

	case models.ResultKindValues:
		return FormatDistinctValues(result.Values, userText)
	}

	docs := result.Documents

	if intent.WantsAttendanceReport() {
		return FormatAttendanceReport(models.SubjectAttendanceRows(docs))
	}

	if len(docs) > tableThreshold {
		if table := s.generator.FormatAsTable(docs, intent.Collection); table != "" {
			return fmt.Sprintf("## Results (%d found)\n\n%s\n\n**Total Records:** %d",
				len(docs), table, len(docs))
		}
	}

	answer, err := s.generator.GenerateNaturalResponse(ctx, userText, docs, intent)
	if err != nil {
		s.logger.Warn("narration failed, using fallback", zap.Error(err))
		return s.generator.FriendlyFormatResults(docs, userText, intent.Collection)
	}
	return answer
}

// diagnosisResponse maps the recognizable execution failures onto guided
// answers. These are delivered as successful responses so the client renders
// them in the chat transcript.
func diagnosisResponse(err error, intent *models.QueryIntent) *models.ChatResponse {
	var notFound *apperrors.StudentNotFoundError
	if errors.As(err, &notFound) {
		return &models.ChatResponse{
			Success:   true,
			Answer:    studentNotFoundAnswer(notFound.Name),
			QueryInfo: models.NewQueryInfo(intent, "Student not found in database"),
		}
	}

	var noCohort *apperrors.NoCohortAttendanceError
	if errors.As(err, &noCohort) {
		return &models.ChatResponse{
			Success:   true,
			Answer:    noCohortAttendanceAnswer(noCohort),
			QueryInfo: models.NewQueryInfo(intent, "No attendance records for stream/semester"),
		}
	}

	var noAttendance *apperrors.StudentNoAttendanceError
	if errors.As(err, &noAttendance) {
		return &models.ChatResponse{
			Success:   true,
			Answer:    studentNoAttendanceAnswer(noAttendance),
			QueryInfo: models.NewQueryInfo(intent, "Student found but no attendance records"),
		}
	}

	var execErr *apperrors.ExecutionError
	if errors.As(err, &execErr) {
		return &models.ChatResponse{
			Success:   true,
			Answer:    executionErrorAnswer(execErr),
			QueryInfo: models.NewQueryInfo(intent, "Query execution failed"),
		}
	}

	return nil
}

func studentNotFoundAnswer(name string) string {
	return fmt.Sprintf(`## Student Not Found: "%s"

I couldn't find a student with that name in the database.

## Suggestions:

### Check the spelling of the name
- Make sure the name is spelled correctly
- Try using just the first name or last name

### Try using the student ID
- Student IDs follow a specific pattern
- Example: Search by ID if you know it

### Search by stream
- Show BBA students
- List BCA semester 5 students

### List all students
- List all students
- Show students in a specific stream

## Example Queries:

- Show students in BBA semester 5
- List all students
- Find student with ID U18ER23C0015`, name)
}

func noCohortAttendanceAnswer(e *apperrors.NoCohortAttendanceError) string {
	return fmt.Sprintf(`## Student Found: %s

Stream: %s | Semester: %d

## No Classes Conducted Yet

There are no attendance records for %s semester %d. This means:

- No classes have been conducted for this stream/semester
- Attendance marking hasn't started yet
- The semester may not have begun

### What you can do:

- Check other semesters
- View subjects for this stream
- See all students in this stream
- View recent classes`, e.StudentName, e.Stream, e.Semester, e.Stream, e.Semester)
}

func studentNoAttendanceAnswer(e *apperrors.StudentNoAttendanceError) string {
	return fmt.Sprintf(`## Student Found: %s

Student ID: %s
Stream: %s | Semester: %d

## No Attendance Records

This student is registered in the system but hasn't attended any classes yet, or attendance wasn't marked when they were present.

### Possible Reasons:

- The student hasn't attended any classes
- Attendance wasn't marked when student was present
- The student is newly enrolled
- Classes haven't started yet

### Suggestions:

- Check all %s students
- View subjects for this stream
- Check recent classes
- Try another student name`, e.StudentName, e.StudentID, e.Stream, e.Semester, e.Stream)
}

func executionErrorAnswer(e *apperrors.ExecutionError) string {
	return fmt.Sprintf(`## Database Query Error

I encountered an error while searching the database.

Error Details:
%s

## What to try:

- Rephrase your question
- Check your search criteria
- Use more specific terms
- Try a simpler query first

## Examples:

- List all students
- Show BBA subjects
- Today's attendance`, e.Error())
}

func noResultsAnswer(collection string) string {
	var b strings.Builder
	b.WriteString("## No Results Found\n\nI couldn't find any records matching your search.\n\n")

	switch collection {
	case "students":
		b.WriteString("## Suggestions for Student Search:\n\n")
		b.WriteString("- Check the spelling of the student name\n")
		b.WriteString("- Try using the student ID\n")
		b.WriteString("- Search by stream: Show BCA students\n")
		b.WriteString("- Search by semester: List BBA semester 5 students\n")
		b.WriteString("- View all: List all students\n")
	case "subjects":
		b.WriteString("## Suggestions for Subject Search:\n\n")
		b.WriteString("- Verify the stream name (BCA, BBA, BCOM)\n")
		b.WriteString("- Check the semester number (1-6)\n")
		b.WriteString("- Try: Show BBA semester 5 subjects\n")
		b.WriteString("- View all: List all subjects\n")
	case "attendance":
		b.WriteString("## Suggestions for Attendance Search:\n\n")
		b.WriteString("- Verify the date format\n")
		b.WriteString("- Check if attendance was recorded\n")
		b.WriteString("- Try: Show attendance on 2025-10-22\n")
		b.WriteString("- For student report: Show [student name] attendance\n")
		b.WriteString("- View recent: Show recent classes\n")
	default:
		b.WriteString("## General Suggestions:\n\n")
		b.WriteString("- Try rephrasing your question\n")
		b.WriteString("- Check your search criteria\n")
		b.WriteString("- Use simpler terms\n")
		b.WriteString("- Try: List all students or Show all subjects\n")
	}
	return b.String()
}

// ErrorAnswer maps an unrecoverable pipeline failure onto the guidance text
// shown to the user alongside a 500 status.
func ErrorAnswer(err error) string {
	var b strings.Builder
	b.WriteString("## Error\n\nI encountered an error processing your request.\n\n")

	var malformed *apperrors.MalformedIntentError
	var llmErr *llm.Error

	switch {
	case errors.As(err, &llmErr) && llmErr.Type == llm.ErrorTypeOverloaded:
		b.WriteString("## Service Overloaded\n\nThe AI service is experiencing high demand. Please try again in a moment.\n\n")
		b.WriteString("What to do:\n- Wait 10-15 seconds and try again\n- Try a simpler query\n- Contact support if the issue persists")

	case errors.As(err, &llmErr):
		b.WriteString("## AI Service Issue\n\nThere was an issue with the AI service. Please try again.\n\n")
		b.WriteString("What to do:\n- Wait a few seconds and try again\n- Try a simpler query\n- Contact support if the issue persists")

	case errors.As(err, &malformed):
		b.WriteString("## Query Understanding Error\n\nI had trouble understanding your query. Could you rephrase it?\n\n")
		b.WriteString("Examples:\n- List all students\n- Show BBA subjects\n- What is [student name]'s attendance?")

	case containsAny(err.Error(), "MongoDB", "mongodb", "database", "connection"):
		b.WriteString("## Database Connection Issue\n\nThere was a problem connecting to the database. Please try again.\n\n")
		b.WriteString("What to do:\n- Refresh the page\n- Try again in a few seconds\n- Contact support if the issue persists")

	default:
		fmt.Fprintf(&b, "Error Details:\n%s\n\n", err.Error())
		b.WriteString("What to try:\n- Rephrase your question\n- Try a simpler query\n- Check your spelling\n- Try again later")
	}
	return b.String()
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
