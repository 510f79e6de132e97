package services

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// maxFriendlyItems caps the deterministic bullet-list fallback.
const maxFriendlyItems = 10

// tableColumn maps a markdown header to the document field backing it.
type tableColumn struct {
	header string
	field  string
}

var tableLayouts = map[string][]tableColumn{
	"students": {
		{"Student ID", "studentID"},
		{"Name", "name"},
		{"Stream", "stream"},
		{"Semester", "semester"},
		{"Parent Phone", "parentPhone"},
	},
	"subjects": {
		{"Subject", "name"},
		{"Code", "subjectCode"},
		{"Stream", "stream"},
		{"Semester", "semester"},
		{"Type", "subjectType"},
	},
	"teachers": {
		{"Name", "name"},
		{"Email", "email"},
	},
	"attendance": {
		{"Date", "date"},
		{"Time", "time"},
		{"Subject", "subject"},
		{"Stream", "stream"},
		{"Semester", "semester"},
		{"Present", "presentCount"},
		{"Absent", "absentCount"},
		{"Total", "totalStudents"},
	},
	"streams": {
		{"Stream", "name"},
		{"Code", "streamCode"},
	},
}

// attendancePercentageColumn is appended to the students layout when the
// documents carry a computed percentage (defaulter-style aggregations).
var attendancePercentageColumn = tableColumn{"Attendance %", "attendancePercentage"}

func (g *queryGenerator) FormatAsTable(docs []bson.M, collection string) string {
	if len(docs) == 0 {
		return ""
	}

	layout, ok := tableLayouts[collection]
	if !ok {
		return ""
	}

	if collection == "students" && hasField(docs, attendancePercentageColumn.field) {
		layout = append(append([]tableColumn{}, layout...), attendancePercentageColumn)
	}

	// Drop columns absent from every document so projected queries do not
	// produce walls of empty cells.
	columns := make([]tableColumn, 0, len(layout))
	for _, col := range layout {
		if hasField(docs, col.field) {
			columns = append(columns, col)
		}
	}
	if len(columns) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("|")
	for _, col := range columns {
		b.WriteString(" " + col.header + " |")
	}
	b.WriteString("\n|")
	for range columns {
		b.WriteString("---|")
	}
	b.WriteString("\n")

	for _, doc := range docs {
		b.WriteString("|")
		for _, col := range columns {
			b.WriteString(" " + cellValue(doc[col.field]) + " |")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func hasField(docs []bson.M, field string) bool {
	for _, doc := range docs {
		if _, ok := doc[field]; ok {
			return true
		}
	}
	return false
}

func cellValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "-"
	case string:
		if val == "" {
			return "-"
		}
		return val
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%.2f", val)
	case float32:
		return cellValue(float64(val))
	case int, int32, int64:
		return fmt.Sprintf("%d", val)
	case bool:
		if val {
			return "Yes"
		}
		return "No"
	default:
		return fmt.Sprintf("%v", val)
	}
}

func (g *queryGenerator) FriendlyFormatResults(docs []bson.M, userText string, collection string) string {
	if len(docs) == 0 {
		return "No matching records were found."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Here's what I found for \"%s\" (%d %s):\n\n",
		userText, len(docs), pluralize("record", len(docs)))

	shown := len(docs)
	if shown > maxFriendlyItems {
		shown = maxFriendlyItems
	}

	for _, doc := range docs[:shown] {
		b.WriteString("- " + summarizeDoc(doc, collection) + "\n")
	}
	if len(docs) > shown {
		fmt.Fprintf(&b, "\n...and %d more.", len(docs)-shown)
	}
	return strings.TrimRight(b.String(), "\n")
}

// summarizeDoc renders a one-line summary of a document, preferring the
// collection's headline fields and falling back to a key:value dump.
func summarizeDoc(doc bson.M, collection string) string {
	switch collection {
	case "students":
		return joinPresent(doc, []string{"name", "studentID", "stream"})
	case "subjects":
		return joinPresent(doc, []string{"name", "subjectCode", "stream"})
	case "teachers":
		return joinPresent(doc, []string{"name", "email"})
	case "attendance":
		return joinPresent(doc, []string{"subject", "date", "stream"})
	case "streams":
		return joinPresent(doc, []string{"name", "streamCode"})
	}

	parts := make([]string, 0, len(doc))
	for key, value := range doc {
		if key == "_id" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", key, cellValue(value)))
	}
	if len(parts) == 0 {
		return "(empty record)"
	}
	return strings.Join(parts, ", ")
}

func joinPresent(doc bson.M, fields []string) string {
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		if value, ok := doc[field]; ok {
			parts = append(parts, cellValue(value))
		}
	}
	if len(parts) == 0 {
		return summarizeDoc(doc, "")
	}
	return strings.Join(parts, " - ")
}

// FormatDistinctValues renders the values of a distinct query as a list.
func FormatDistinctValues(values []any, userText string) string {
	if len(values) == 0 {
		return "No matching values were found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d distinct %s:\n\n", len(values), pluralize("value", len(values)))
	for _, v := range values {
		b.WriteString("- " + cellValue(v) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func pluralize(word string, n int) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
