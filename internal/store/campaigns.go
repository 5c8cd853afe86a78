package store

import (
	"context"
	"fmt"

	"asur-wears/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateCampaign records a sent campaign
func (s *Store) CreateCampaign(ctx context.Context, campaign *models.Campaign) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	campaign.ID = primitive.NewObjectID()
	if _, err := s.collection(models.CollectionCampaigns).InsertOne(ctx, campaign); err != nil {
		return fmt.Errorf("failed to insert campaign: %w", err)
	}
	return nil
}

// ListCampaigns returns the newest campaigns
func (s *Store) ListCampaigns(ctx context.Context, limit int64) ([]models.Campaign, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	cursor, err := s.collection(models.CollectionCampaigns).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query campaigns: %w", err)
	}

	campaigns := []models.Campaign{}
	if err := cursor.All(ctx, &campaigns); err != nil {
		return nil, fmt.Errorf("failed to decode campaigns: %w", err)
	}
	return campaigns, nil
}
