package store

import (
	"context"
	"fmt"
	"time"

	"asur-wears/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// IncrementDay atomically adds the given counters to the analytics
// document for date, creating it on first use.
func (s *Store) IncrementDay(ctx context.Context, date string, inc map[string]interface{}) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := s.collection(models.CollectionAnalytics).UpdateOne(ctx,
		bson.M{"date": date},
		bson.M{
			"$inc": bson.M(inc),
			"$set": bson.M{"updatedAt": time.Now().UTC()},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to increment analytics for %s: %w", date, translate(err))
	}
	return nil
}

// AnalyticsRange returns the day documents with from <= date <= to, oldest first
func (s *Store) AnalyticsRange(ctx context.Context, from, to string) ([]models.DailyAnalytics, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	cursor, err := s.collection(models.CollectionAnalytics).Find(ctx,
		bson.M{"date": bson.M{"$gte": from, "$lte": to}},
		options.Find().SetSort(bson.D{{Key: "date", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query analytics: %w", err)
	}

	days := []models.DailyAnalytics{}
	if err := cursor.All(ctx, &days); err != nil {
		return nil, fmt.Errorf("failed to decode analytics: %w", err)
	}
	return days, nil
}
