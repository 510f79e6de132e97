package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/campuskit/attendance-engine/pkg/models"
	"github.com/campuskit/attendance-engine/pkg/repositories"
)

const (
	defaultActivityLimit = 10
	recentSampleSize     = 100
	summarySampleSize    = 20
	trendWindowDays      = 7
)

// DashboardService serves the aggregate statistics behind the admin
// dashboard.
type DashboardService interface {
	Stats(ctx context.Context) (*models.DashboardStats, error)
	Activities(ctx context.Context, limit int) ([]models.Activity, error)
	StreamStats(ctx context.Context) ([]models.StreamStats, error)
	AttendanceStats(ctx context.Context, startDate, endDate string) (*models.AttendanceStats, error)
	Summary(ctx context.Context) (*models.QuickSummary, error)
	Ping(ctx context.Context) error
}

type dashboardService struct {
	store  repositories.DocumentStore
	now    func() time.Time
	logger *zap.Logger
}

// NewDashboardService creates a DashboardService over the document store.
func NewDashboardService(store repositories.DocumentStore, logger *zap.Logger) DashboardService {
	return &dashboardService{
		store:  store,
		now:    time.Now,
		logger: logger.Named("dashboard"),
	}
}

// statsFanout holds the independently fetched pieces of the overview stats.
type statsFanout struct {
	totalStudents  int64
	activeStudents int64
	streams        []any
	totalSubjects  int64
	recentStudents []bson.M
	attendanceData []bson.M
	errs           []error
	mu             sync.Mutex
}

func (f *statsFanout) fail(err error) {
	f.mu.Lock()
	f.errs = append(f.errs, err)
	f.mu.Unlock()
}

func (s *dashboardService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	fan := &statsFanout{}
	var wg sync.WaitGroup

	run := func(fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				fan.fail(err)
			}
		}()
	}

	run(func() (err error) {
		fan.totalStudents, err = s.store.Count(ctx, "students", bson.M{})
		return
	})
	run(func() (err error) {
		fan.activeStudents, err = s.store.Count(ctx, "students", bson.M{"isActive": true})
		return
	})
	run(func() (err error) {
		fan.streams, err = s.store.Distinct(ctx, "students", "stream", bson.M{"isActive": true})
		return
	})
	run(func() (err error) {
		fan.totalSubjects, err = s.store.Count(ctx, "subjects", bson.M{"isActive": true})
		return
	})
	run(func() (err error) {
		fan.recentStudents, err = s.store.Find(ctx, "students", bson.M{}, nil, &repositories.FindOptions{
			Sort:  bson.D{{Key: "createdAt", Value: -1}},
			Limit: defaultActivityLimit,
		})
		return
	})
	run(func() (err error) {
		fan.attendanceData, err = s.store.Find(ctx, "attendance", bson.M{}, nil, &repositories.FindOptions{
			Sort:  bson.D{{Key: "createdAt", Value: -1}},
			Limit: recentSampleSize,
		})
		return
	})
	wg.Wait()

	if len(fan.errs) > 0 {
		return nil, fmt.Errorf("dashboard stats: %w", fan.errs[0])
	}

	streamDistribution, err := s.store.Aggregate(ctx, "students", []bson.M{
		{"$match": bson.M{"isActive": true}},
		{"$group": bson.M{"_id": "$stream", "count": bson.M{"$sum": 1}}},
		{"$sort": bson.M{"count": -1}},
	})
	if err != nil {
		return nil, fmt.Errorf("stream distribution: %w", err)
	}

	semesterDistribution, err := s.store.Aggregate(ctx, "students", []bson.M{
		{"$match": bson.M{"isActive": true}},
		{"$group": bson.M{"_id": "$semester", "count": bson.M{"$sum": 1}}},
		{"$sort": bson.M{"_id": 1}},
	})
	if err != nil {
		return nil, fmt.Errorf("semester distribution: %w", err)
	}

	stats := &models.DashboardStats{
		TotalStudents:    fan.totalStudents,
		ActiveStudents:   fan.activeStudents,
		InactiveStudents: fan.totalStudents - fan.activeStudents,
		TotalStreams:     len(fan.streams),
		TotalSubjects:    fan.totalSubjects,
		AttendanceRate:   attendanceRate(fan.attendanceData),
		Timestamp:        s.now(),
	}

	recent := fan.recentStudents
	if len(recent) > 5 {
		recent = recent[:5]
	}
	for _, doc := range recent {
		stats.RecentStudents = append(stats.RecentStudents, models.RecentStudent{
			StudentID: fieldString(doc, "studentID"),
			Name:      fieldString(doc, "name"),
			Stream:    fieldString(doc, "stream"),
			Semester:  fieldInt(doc, "semester"),
			CreatedAt: fieldTime(doc, "createdAt", s.now()),
		})
	}

	for _, doc := range streamDistribution {
		stats.StreamDistribution = append(stats.StreamDistribution, models.StreamCount{
			Stream: fieldString(doc, "_id"),
			Count:  fieldInt(doc, "count"),
		})
	}
	for _, doc := range semesterDistribution {
		stats.SemesterDistribution = append(stats.SemesterDistribution, models.SemesterCount{
			Semester: fieldInt(doc, "_id"),
			Count:    fieldInt(doc, "count"),
		})
	}

	s.logger.Debug("dashboard stats calculated",
		zap.Int64("students", stats.TotalStudents),
		zap.Int("streams", stats.TotalStreams),
		zap.Int64("subjects", stats.TotalSubjects),
		zap.Int("attendanceRate", stats.AttendanceRate))

	return stats, nil
}

// attendanceRate computes the whole-percent present rate over a sample of
// attendance sessions. Older records without a presentCount fall back to the
// studentsPresent roster length.
func attendanceRate(records []bson.M) int {
	var present, marked int
	for _, record := range records {
		present += presentCount(record)
		marked += fieldInt(record, "totalStudents")
	}
	if marked == 0 {
		return 0
	}
	return int(math.Round(float64(present) / float64(marked) * 100))
}

func presentCount(record bson.M) int {
	if n := fieldInt(record, "presentCount"); n > 0 {
		return n
	}
	if roster, ok := record["studentsPresent"].(primitive.A); ok {
		return len(roster)
	}
	if roster, ok := record["studentsPresent"].([]any); ok {
		return len(roster)
	}
	return 0
}

func (s *dashboardService) Activities(ctx context.Context, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}

	opts := &repositories.FindOptions{
		Sort:  bson.D{{Key: "createdAt", Value: -1}},
		Limit: int64(limit),
	}

	recentStudents, err := s.store.Find(ctx, "students", bson.M{}, nil, opts)
	if err != nil {
		return nil, fmt.Errorf("recent students: %w", err)
	}
	recentAttendance, err := s.store.Find(ctx, "attendance", bson.M{}, nil, opts)
	if err != nil {
		return nil, fmt.Errorf("recent attendance: %w", err)
	}

	activities := make([]models.Activity, 0, len(recentStudents)+len(recentAttendance))
	for _, doc := range recentStudents {
		name := fieldString(doc, "name")
		activities = append(activities, models.Activity{
			Type:        "student_registered",
			Title:       name + " registered",
			Description: fmt.Sprintf("%s - Semester %d", fieldString(doc, "stream"), fieldInt(doc, "semester")),
			Timestamp:   fieldTime(doc, "createdAt", s.now()),
			Badge:       "new",
			Avatar:      avatarInitials(name),
		})
	}
	for _, doc := range recentAttendance {
		activities = append(activities, models.Activity{
			Type:        "attendance_marked",
			Title:       "Attendance marked",
			Description: fmt.Sprintf("%s - %s", orNA(fieldString(doc, "stream")), orNA(fieldString(doc, "subject"))),
			Timestamp:   fieldTime(doc, "createdAt", s.now()),
			Badge:       "completed",
			Avatar:      "AT",
		})
	}

	sort.SliceStable(activities, func(i, j int) bool {
		return activities[i].Timestamp.After(activities[j].Timestamp)
	})
	if len(activities) > limit {
		activities = activities[:limit]
	}
	return activities, nil
}

func (s *dashboardService) StreamStats(ctx context.Context) ([]models.StreamStats, error) {
	docs, err := s.store.Aggregate(ctx, "students", []bson.M{
		{"$match": bson.M{"isActive": true}},
		{"$group": bson.M{
			"_id":           "$stream",
			"totalStudents": bson.M{"$sum": 1},
			"semesters":     bson.M{"$addToSet": "$semester"},
		}},
		{"$sort": bson.M{"totalStudents": -1}},
	})
	if err != nil {
		return nil, fmt.Errorf("stream stats: %w", err)
	}

	stats := make([]models.StreamStats, 0, len(docs))
	for _, doc := range docs {
		semesters := fieldIntSlice(doc, "semesters")
		sort.Ints(semesters)
		stats = append(stats, models.StreamStats{
			Stream:        fieldString(doc, "_id"),
			TotalStudents: fieldInt(doc, "totalStudents"),
			SemesterCount: len(semesters),
			Semesters:     semesters,
		})
	}
	return stats, nil
}

func (s *dashboardService) AttendanceStats(ctx context.Context, startDate, endDate string) (*models.AttendanceStats, error) {
	filter := bson.M{}
	if startDate != "" || endDate != "" {
		dateRange := bson.M{}
		if startDate != "" {
			dateRange["$gte"] = startDate
		}
		if endDate != "" {
			dateRange["$lte"] = endDate
		}
		filter["date"] = dateRange
	}

	records, err := s.store.Find(ctx, "attendance", filter, nil, &repositories.FindOptions{
		Sort:  bson.D{{Key: "createdAt", Value: -1}},
		Limit: recentSampleSize,
	})
	if err != nil {
		return nil, fmt.Errorf("attendance records: %w", err)
	}

	var totalPresent, totalAbsent int
	for _, record := range records {
		totalPresent += presentCount(record)
		totalAbsent += fieldInt(record, "absentCount")
	}

	stats := &models.AttendanceStats{
		TotalPresent: totalPresent,
		TotalAbsent:  totalAbsent,
		TotalRecords: len(records),
	}
	if marked := totalPresent + totalAbsent; marked > 0 {
		stats.AttendanceRate = math.Round(float64(totalPresent)/float64(marked)*10000) / 100
	}

	sevenDaysAgo := s.now().AddDate(0, 0, -trendWindowDays).Format("2006-01-02")
	trends, err := s.store.Aggregate(ctx, "attendance", []bson.M{
		{"$match": bson.M{"date": bson.M{"$gte": sevenDaysAgo}}},
		{"$group": bson.M{
			"_id":     "$date",
			"present": bson.M{"$sum": bson.M{"$ifNull": []any{"$presentCount", 0}}},
			"absent":  bson.M{"$sum": bson.M{"$ifNull": []any{"$absentCount", 0}}},
		}},
		{"$sort": bson.M{"_id": 1}},
	})
	if err != nil {
		return nil, fmt.Errorf("daily trends: %w", err)
	}

	for _, doc := range trends {
		stats.DailyTrends = append(stats.DailyTrends, models.DailyTrend{
			Date:    fieldString(doc, "_id"),
			Present: fieldInt(doc, "present"),
			Absent:  fieldInt(doc, "absent"),
		})
	}
	return stats, nil
}

func (s *dashboardService) Summary(ctx context.Context) (*models.QuickSummary, error) {
	totalStudents, err := s.store.Count(ctx, "students", bson.M{"isActive": true})
	if err != nil {
		return nil, fmt.Errorf("student count: %w", err)
	}
	streams, err := s.store.Distinct(ctx, "students", "stream", bson.M{"isActive": true})
	if err != nil {
		return nil, fmt.Errorf("stream list: %w", err)
	}
	totalSubjects, err := s.store.Count(ctx, "subjects", bson.M{"isActive": true})
	if err != nil {
		return nil, fmt.Errorf("subject count: %w", err)
	}

	recent, err := s.store.Find(ctx, "attendance", bson.M{}, nil, &repositories.FindOptions{
		Sort:  bson.D{{Key: "createdAt", Value: -1}},
		Limit: summarySampleSize,
	})
	if err != nil {
		return nil, fmt.Errorf("recent attendance: %w", err)
	}

	return &models.QuickSummary{
		TotalStudents:  totalStudents,
		TotalStreams:   len(streams),
		TotalSubjects:  totalSubjects,
		AttendanceRate: attendanceRate(recent),
	}, nil
}

func (s *dashboardService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func avatarInitials(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "ST"
	}
	runes := []rune(name)
	if len(runes) == 1 {
		return strings.ToUpper(name)
	}
	return strings.ToUpper(string(runes[:2]))
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func fieldString(doc bson.M, key string) string {
	if v, ok := doc[key].(string); ok {
		return v
	}
	return ""
}

func fieldInt(doc bson.M, key string) int {
	return toInt(doc[key])
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func fieldIntSlice(doc bson.M, key string) []int {
	var raw []any
	switch v := doc[key].(type) {
	case primitive.A:
		raw = v
	case []any:
		raw = v
	default:
		return nil
	}
	out := make([]int, 0, len(raw))
	for _, item := range raw {
		out = append(out, toInt(item))
	}
	return out
}

func fieldTime(doc bson.M, key string, fallback time.Time) time.Time {
	switch v := doc[key].(type) {
	case time.Time:
		return v
	case primitive.DateTime:
		return v.Time()
	default:
		return fallback
	}
}
