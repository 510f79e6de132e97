package models

import (
	"go.mongodb.org/mongo-driver/bson"
)

// Student mirrors a document in the students collection. The pipeline only
// reads it; all mutation happens in unrelated CRUD surfaces.
type Student struct {
	StudentID       string `bson:"studentID" json:"studentID"`
	Name            string `bson:"name" json:"name"`
	Stream          string `bson:"stream" json:"stream"`
	Semester        int    `bson:"semester" json:"semester"`
	ParentPhone     string `bson:"parentPhone,omitempty" json:"parentPhone,omitempty"`
	LanguageSubject string `bson:"languageSubject,omitempty" json:"languageSubject,omitempty"`
	ElectiveSubject string `bson:"electiveSubject,omitempty" json:"electiveSubject,omitempty"`
	IsActive        bool   `bson:"isActive" json:"isActive"`
	AcademicYear    string `bson:"academicYear,omitempty" json:"academicYear,omitempty"`
}

// AttendanceRecord mirrors a document in the attendance collection: one
// marked session for a stream+semester+subject on a date.
type AttendanceRecord struct {
	Stream          string   `bson:"stream" json:"stream"`
	Semester        int      `bson:"semester" json:"semester"`
	Subject         string   `bson:"subject" json:"subject"`
	Date            string   `bson:"date" json:"date"` // ISO format
	Time            string   `bson:"time,omitempty" json:"time,omitempty"`
	TeacherEmail    string   `bson:"teacherEmail,omitempty" json:"teacherEmail,omitempty"`
	TeacherName     string   `bson:"teacherName,omitempty" json:"teacherName,omitempty"`
	StudentsPresent []string `bson:"studentsPresent" json:"studentsPresent"`
	TotalStudents   int      `bson:"totalStudents" json:"totalStudents"`
	PresentCount    int      `bson:"presentCount" json:"presentCount"`
	AbsentCount     int      `bson:"absentCount" json:"absentCount"`
}

// SubjectAttendance is one row of a per-student attendance report: the join
// of one student against their cohort's attendance, grouped by subject.
// Field names follow the aggregation projection the schema context fixes.
type SubjectAttendance struct {
	Subject              string  `bson:"subject" json:"subject"`
	TotalClasses         int     `bson:"totalClasses" json:"totalClasses"`
	ClassesAttended      int     `bson:"classesAttended" json:"classesAttended"`
	AttendancePercentage float64 `bson:"attendancePercentage" json:"attendancePercentage"`
	StudentName          string  `bson:"studentName" json:"studentName"`
	StudentID            string  `bson:"studentID" json:"studentID"`
	Stream               string  `bson:"stream" json:"stream"`
	Semester             int     `bson:"semester" json:"semester"`
}

// ClassesAbsent derives the absence count for the row.
func (s *SubjectAttendance) ClassesAbsent() int {
	absent := s.TotalClasses - s.ClassesAttended
	if absent < 0 {
		return 0
	}
	return absent
}

// SubjectAttendanceFromDoc converts a raw aggregation document into a typed
// report row. The driver decodes numbers as int32, int64, or float64
// depending on the stage that produced them.
func SubjectAttendanceFromDoc(doc bson.M) SubjectAttendance {
	return SubjectAttendance{
		Subject:              docString(doc, "subject"),
		TotalClasses:         docInt(doc, "totalClasses"),
		ClassesAttended:      docInt(doc, "classesAttended"),
		AttendancePercentage: docFloat(doc, "attendancePercentage"),
		StudentName:          docString(doc, "studentName"),
		StudentID:            docString(doc, "studentID"),
		Stream:               docString(doc, "stream"),
		Semester:             docInt(doc, "semester"),
	}
}

// SubjectAttendanceRows converts a result set of aggregation documents.
func SubjectAttendanceRows(docs []bson.M) []SubjectAttendance {
	rows := make([]SubjectAttendance, 0, len(docs))
	for _, doc := range docs {
		rows = append(rows, SubjectAttendanceFromDoc(doc))
	}
	return rows
}

func docString(doc bson.M, key string) string {
	if v, ok := doc[key].(string); ok {
		return v
	}
	return ""
}

func docInt(doc bson.M, key string) int {
	switch v := doc[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func docFloat(doc bson.M, key string) float64 {
	switch v := doc[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}
