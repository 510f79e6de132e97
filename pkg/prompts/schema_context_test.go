package prompts

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func contextAt(t *testing.T) string {
	t.Helper()
	now := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)
	return SchemaContext(now)
}

func TestSchemaContext_Deterministic(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, SchemaContext(now), SchemaContext(now))
}

func TestSchemaContext_DatesResolved(t *testing.T) {
	ctx := contextAt(t)

	assert.Contains(t, ctx, "Current Date: 2026-03-15")
	assert.Contains(t, ctx, "Yesterday: 2026-03-14")
	assert.Contains(t, ctx, `"$gte":"2026-03-08"`, "last-7-days example uses the week-ago date")
	assert.NotContains(t, ctx, "{today}")
	assert.NotContains(t, ctx, "{yesterday}")
	assert.NotContains(t, ctx, "{weekAgo}")
}

func TestSchemaContext_EnumeratesAllCollections(t *testing.T) {
	ctx := contextAt(t)
	for _, collection := range []string{"students:", "subjects:", "teachers:", "attendance:", "streams:"} {
		assert.Contains(t, ctx, collection)
	}
}

// The formatters depend on these exact field names; renaming them in the
// context silently breaks report rendering.
func TestSchemaContext_LoadBearingFieldNames(t *testing.T) {
	ctx := contextAt(t)
	assert.Contains(t, ctx, `"attendancePercentage"`)
	assert.Contains(t, ctx, `"classesAttended"`)
	assert.Contains(t, ctx, `"totalClasses"`)
	assert.Contains(t, ctx, `{"$lt":75}`)
}

func TestSchemaContext_DocumentsReportTypeTag(t *testing.T) {
	ctx := contextAt(t)
	assert.Contains(t, ctx, `"reportType":"attendanceReport"`)
	assert.Contains(t, ctx, `attendanceReport|listing|scalar|none`)
}

func TestSchemaContext_ConversationalFallback(t *testing.T) {
	ctx := contextAt(t)
	assert.Contains(t, ctx, `{"collection":null,"operation":null`)
}

func TestConversationalReply_QuotesMessage(t *testing.T) {
	prompt := ConversationalReply("hello there")
	assert.Contains(t, prompt, `"hello there"`)
	assert.Contains(t, prompt, "DO NOT use emojis")
}

func TestNarration_TruncatesLongResultsWithInterpretation(t *testing.T) {
	results := make([]map[string]any, 15)
	for i := range results {
		results[i] = map[string]any{"name": "Student", "semester": i}
	}

	prompt := Narration("list students", results, "All active students")
	assert.Contains(t, prompt, "(and 5 more records)")
	assert.Contains(t, prompt, "All active students")
	assert.Equal(t, 10, strings.Count(prompt, `"name":"Student"`))
}
