package models

import "time"

// DashboardStats is the overview block served to the dashboard landing page.
type DashboardStats struct {
	TotalStudents        int64              `json:"totalStudents"`
	ActiveStudents       int64              `json:"activeStudents"`
	InactiveStudents     int64              `json:"inactiveStudents"`
	TotalStreams         int                `json:"totalStreams"`
	TotalSubjects        int64              `json:"totalSubjects"`
	AttendanceRate       int                `json:"attendanceRate"` // whole percent over recent records
	RecentStudents       []RecentStudent    `json:"recentStudents"`
	StreamDistribution   []StreamCount      `json:"streamDistribution"`
	SemesterDistribution []SemesterCount    `json:"semesterDistribution"`
	Timestamp            time.Time          `json:"timestamp"`
}

// RecentStudent is the projected student shape shown in the dashboard's
// recent-registrations list.
type RecentStudent struct {
	StudentID string    `json:"studentID"`
	Name      string    `json:"name"`
	Stream    string    `json:"stream"`
	Semester  int       `json:"semester"`
	CreatedAt time.Time `json:"createdAt"`
}

// StreamCount is one bucket of the active-students-per-stream distribution.
type StreamCount struct {
	Stream string `json:"stream"`
	Count  int    `json:"count"`
}

// SemesterCount is one bucket of the active-students-per-semester distribution.
type SemesterCount struct {
	Semester int `json:"semester"`
	Count    int `json:"count"`
}

// Activity is one entry in the recent-activity feed: a student registration
// or a marked attendance session.
type Activity struct {
	Type        string    `json:"type"` // student_registered | attendance_marked
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
	Badge       string    `json:"badge"`
	Avatar      string    `json:"avatar"`
}

// StreamStats summarizes one stream: student total and the semesters with
// active students.
type StreamStats struct {
	Stream        string `json:"stream"`
	TotalStudents int    `json:"totalStudents"`
	SemesterCount int    `json:"semesterCount"`
	Semesters     []int  `json:"semesters"`
}

// AttendanceStats aggregates marked sessions over an optional date window.
type AttendanceStats struct {
	TotalPresent   int          `json:"totalPresent"`
	TotalAbsent    int          `json:"totalAbsent"`
	TotalRecords   int          `json:"totalRecords"`
	AttendanceRate float64      `json:"attendanceRate"` // percent, 2 decimals
	DailyTrends    []DailyTrend `json:"dailyTrends"`
}

// DailyTrend is one day of the last-7-days present/absent trend.
type DailyTrend struct {
	Date    string `json:"date"`
	Present int    `json:"present"`
	Absent  int    `json:"absent"`
}

// QuickSummary is the fast-loading subset of DashboardStats.
type QuickSummary struct {
	TotalStudents  int64 `json:"totalStudents"`
	TotalStreams   int   `json:"totalStreams"`
	TotalSubjects  int64 `json:"totalSubjects"`
	AttendanceRate int   `json:"attendanceRate"`
}
