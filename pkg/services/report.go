package services

import (
	"fmt"
	"math"
	"strings"

	"github.com/campuskit/attendance-engine/pkg/models"
)

// defaulterThreshold is the minimum acceptable attendance percentage.
const defaulterThreshold = 75.0

// FormatAttendanceReport renders the per-subject attendance breakdown for a
// single student as markdown, with an overall summary and a shortage alert
// listing how many consecutive classes each lagging subject needs.
func FormatAttendanceReport(rows []models.SubjectAttendance) string {
	if len(rows) == 0 {
		return "No attendance data found for this student."
	}

	student := rows[0]
	var b strings.Builder
	fmt.Fprintf(&b, "# Attendance Report for %s\n\n", student.StudentName)
	fmt.Fprintf(&b, "Student ID: %s\n", student.StudentID)
	fmt.Fprintf(&b, "Stream: %s | Semester: %d\n\n", student.Stream, student.Semester)

	var totalClasses, totalAttended int
	for _, row := range rows {
		totalClasses += row.TotalClasses
		totalAttended += row.ClassesAttended
	}
	overallPercentage := 0.0
	if totalClasses > 0 {
		overallPercentage = float64(totalAttended) / float64(totalClasses) * 100
	}

	b.WriteString("## Overall Summary\n\n")
	fmt.Fprintf(&b, "- Total Classes: %d\n", totalClasses)
	fmt.Fprintf(&b, "- Classes Attended: %d\n", totalAttended)
	fmt.Fprintf(&b, "- Classes Absent: %d\n", totalClasses-totalAttended)
	fmt.Fprintf(&b, "- Overall Percentage: %.2f%%\n\n", overallPercentage)

	b.WriteString("## Subject-wise Breakdown\n\n")
	b.WriteString("| Subject | Attended | Total | Absent | Percentage |\n")
	b.WriteString("|---------|----------|-------|--------|------------|\n")

	var shortage []models.SubjectAttendance
	for _, row := range rows {
		status := "OK"
		if row.AttendancePercentage < defaulterThreshold {
			status = "LOW"
			shortage = append(shortage, row)
		}
		fmt.Fprintf(&b, "| %s | %d | %d | %d | %.2f%% (%s) |\n",
			row.Subject, row.ClassesAttended, row.TotalClasses, row.ClassesAbsent(),
			row.AttendancePercentage, status)
	}

	if len(shortage) > 0 {
		b.WriteString("\n## Attendance Shortage Alert\n\n")
		b.WriteString("The following subjects are below 75% attendance:\n\n")
		for _, row := range shortage {
			needed := ClassesNeeded(row.TotalClasses, row.ClassesAttended)
			noun := "classes"
			if needed == 1 {
				noun = "class"
			}
			fmt.Fprintf(&b, "- **%s:** %.2f%% (Need %d more %s)\n",
				row.Subject, row.AttendancePercentage, needed, noun)
		}
	} else if totalClasses > 0 {
		b.WriteString("\n## Excellent!\n\nAll subjects have adequate attendance (≥75%).\n")
	}

	return b.String()
}

// ClassesNeeded returns how many consecutive attended classes bring a subject
// back up to the 75% threshold. Solving (attended+n)/(total+n) >= 0.75 for n
// gives n = ceil((75*total - 100*attended) / 25), floored at zero.
func ClassesNeeded(totalClasses, classesAttended int) int {
	needed := math.Ceil(float64(75*totalClasses-100*classesAttended) / 25)
	if needed < 0 {
		return 0
	}
	return int(needed)
}
