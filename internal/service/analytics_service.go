package service

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"asur-wears/internal/models"
	"asur-wears/internal/util"

	"go.uber.org/zap"
)

// Analytics ranges
const (
	DefaultAnalyticsDays = 7
	MaxAnalyticsDays     = 90
	EventPageView        = "page_view"
	dayLayout            = "2006-01-02"
)

var eventNamePattern = regexp.MustCompile(`^[a-z0-9_]{1,40}$`)

// AnalyticsService keeps daily traffic and sales counters
type AnalyticsService struct {
	days   AnalyticsStore
	logger *zap.Logger
	now    func() time.Time
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(days AnalyticsStore) *AnalyticsService {
	return &AnalyticsService{
		days:   days,
		logger: util.Named("analytics"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// TrackRequest records one storefront event
type TrackRequest struct {
	Event string `json:"event" binding:"required"`
	Path  string `json:"path" binding:"max=300"`
}

// Track counts a page view or a named action for today
func (s *AnalyticsService) Track(ctx context.Context, req *TrackRequest) error {
	if !eventNamePattern.MatchString(req.Event) {
		return invalid("event must match [a-z0-9_]{1,40}")
	}

	field := "actions." + req.Event
	if req.Event == EventPageView {
		field = "pageViews"
	}
	if err := s.days.IncrementDay(ctx, s.today(), map[string]interface{}{field: 1}); err != nil {
		return fmt.Errorf("failed to track event: %w", err)
	}
	return nil
}

// RecordOrder adds one order and its total to today's counters
func (s *AnalyticsService) RecordOrder(ctx context.Context, amount float64) error {
	return s.days.IncrementDay(ctx, s.today(), map[string]interface{}{
		"orders":  1,
		"revenue": amount,
	})
}

// Range returns one entry per day for the last n days, oldest first and
// ending today. Days without activity are zero-filled.
func (s *AnalyticsService) Range(ctx context.Context, n int) ([]models.DailyAnalytics, error) {
	if n == 0 {
		n = DefaultAnalyticsDays
	}
	if n < 1 || n > MaxAnalyticsDays {
		return nil, invalid("days must be between 1 and %d", MaxAnalyticsDays)
	}

	end := s.now()
	start := end.AddDate(0, 0, -(n - 1))
	stored, err := s.days.AnalyticsRange(ctx, start.Format(dayLayout), end.Format(dayLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to load analytics: %w", err)
	}

	byDate := make(map[string]models.DailyAnalytics, len(stored))
	for _, day := range stored {
		byDate[day.Date] = day
	}

	out := make([]models.DailyAnalytics, 0, n)
	for i := 0; i < n; i++ {
		date := start.AddDate(0, 0, i).Format(dayLayout)
		day, ok := byDate[date]
		if !ok {
			day = models.DailyAnalytics{Date: date}
		}
		if day.Actions == nil {
			day.Actions = map[string]int64{}
		}
		out = append(out, day)
	}
	return out, nil
}

// Today returns today's counters
func (s *AnalyticsService) Today(ctx context.Context) (models.DailyAnalytics, error) {
	days, err := s.Range(ctx, 1)
	if err != nil {
		return models.DailyAnalytics{}, err
	}
	return days[0], nil
}

func (s *AnalyticsService) today() string {
	return s.now().Format(dayLayout)
}
