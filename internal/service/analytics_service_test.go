package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"asur-wears/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnalytics() (*AnalyticsService, *fakeAnalytics) {
	days := newFakeAnalytics()
	svc := NewAnalyticsService(days)
	svc.now = func() time.Time { return time.Date(2026, 10, 19, 18, 0, 0, 0, time.UTC) }
	return svc, days
}

func TestTrack(t *testing.T) {
	svc, days := newTestAnalytics()
	ctx := context.Background()

	require.NoError(t, svc.Track(ctx, &TrackRequest{Event: "page_view", Path: "/"}))
	require.NoError(t, svc.Track(ctx, &TrackRequest{Event: "page_view", Path: "/shop"}))
	require.NoError(t, svc.Track(ctx, &TrackRequest{Event: "add_to_cart"}))

	day := days.days["2026-10-19"]
	require.NotNil(t, day)
	assert.Equal(t, int64(2), day.PageViews)
	assert.Equal(t, int64(1), day.Actions["add_to_cart"])

	for _, bad := range []string{"", "Add-To-Cart", "$set", "a.b", "this_event_name_is_far_too_long_to_be_accepted"} {
		err := svc.Track(ctx, &TrackRequest{Event: bad})
		assert.True(t, errors.Is(err, ErrInvalidInput), bad)
	}
}

func TestRecordOrder(t *testing.T) {
	svc, days := newTestAnalytics()

	require.NoError(t, svc.RecordOrder(context.Background(), 648))
	require.NoError(t, svc.RecordOrder(context.Background(), 1198.5))

	day := days.days["2026-10-19"]
	assert.Equal(t, int64(2), day.Orders)
	assert.Equal(t, 1846.5, day.Revenue)
}

func TestRangeZeroFills(t *testing.T) {
	svc, days := newTestAnalytics()
	days.days["2026-10-17"] = &models.DailyAnalytics{Date: "2026-10-17", PageViews: 40}
	days.days["2026-10-01"] = &models.DailyAnalytics{Date: "2026-10-01", PageViews: 99}

	out, err := svc.Range(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, out, DefaultAnalyticsDays)
	assert.Equal(t, "2026-10-13", out[0].Date)
	assert.Equal(t, "2026-10-19", out[6].Date)
	assert.Equal(t, int64(40), out[4].PageViews)
	assert.NotNil(t, out[0].Actions)

	_, err = svc.Range(context.Background(), MaxAnalyticsDays+1)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}
