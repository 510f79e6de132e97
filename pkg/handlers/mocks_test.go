package handlers

import (
	"context"

	"github.com/campuskit/attendance-engine/pkg/models"
	"github.com/campuskit/attendance-engine/pkg/services"
)

// mockChatService implements services.ChatService with a function field.
type mockChatService struct {
	AnswerFunc func(ctx context.Context, userText string) (*models.ChatResponse, error)
}

func (m *mockChatService) Answer(ctx context.Context, userText string) (*models.ChatResponse, error) {
	if m.AnswerFunc != nil {
		return m.AnswerFunc(ctx, userText)
	}
	return &models.ChatResponse{Success: true}, nil
}

var _ services.ChatService = (*mockChatService)(nil)

// mockDashboardService implements services.DashboardService with function
// fields; nil fields return empty values.
type mockDashboardService struct {
	StatsFunc           func(ctx context.Context) (*models.DashboardStats, error)
	ActivitiesFunc      func(ctx context.Context, limit int) ([]models.Activity, error)
	StreamStatsFunc     func(ctx context.Context) ([]models.StreamStats, error)
	AttendanceStatsFunc func(ctx context.Context, startDate, endDate string) (*models.AttendanceStats, error)
	SummaryFunc         func(ctx context.Context) (*models.QuickSummary, error)
	PingFunc            func(ctx context.Context) error
}

func (m *mockDashboardService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx)
	}
	return &models.DashboardStats{}, nil
}

func (m *mockDashboardService) Activities(ctx context.Context, limit int) ([]models.Activity, error) {
	if m.ActivitiesFunc != nil {
		return m.ActivitiesFunc(ctx, limit)
	}
	return nil, nil
}

func (m *mockDashboardService) StreamStats(ctx context.Context) ([]models.StreamStats, error) {
	if m.StreamStatsFunc != nil {
		return m.StreamStatsFunc(ctx)
	}
	return nil, nil
}

func (m *mockDashboardService) AttendanceStats(ctx context.Context, startDate, endDate string) (*models.AttendanceStats, error) {
	if m.AttendanceStatsFunc != nil {
		return m.AttendanceStatsFunc(ctx, startDate, endDate)
	}
	return &models.AttendanceStats{}, nil
}

func (m *mockDashboardService) Summary(ctx context.Context) (*models.QuickSummary, error) {
	if m.SummaryFunc != nil {
		return m.SummaryFunc(ctx)
	}
	return &models.QuickSummary{}, nil
}

func (m *mockDashboardService) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

var _ services.DashboardService = (*mockDashboardService)(nil)
