package service

import (
	"context"
	"errors"
	"testing"

	"asur-wears/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendCampaign(t *testing.T) {
	campaigns := &fakeCampaigns{
		users:     []string{"a@example.com", "B@example.com"},
		customers: []string{"c@example.com", "C@Example.com ", ""},
	}
	publisher := &fakePublisher{}
	svc := NewCampaignService(campaigns, publisher)

	campaign, err := svc.Send(context.Background(), &CampaignRequest{
		Subject:  "Diwali drop",
		Body:     "New limited tees are live.",
		Audience: models.AudienceCustomers,
	}, "admin@asurwears.in")
	require.NoError(t, err)

	assert.Equal(t, 1, campaign.Recipients)
	require.Len(t, publisher.notifications, 1)
	assert.Equal(t, "c@example.com", publisher.notifications[0].To)
	assert.Equal(t, models.NotificationCampaign, publisher.notifications[0].Kind)

	campaign, err = svc.Send(context.Background(), &CampaignRequest{Subject: "Hi", Body: "All of you"}, "admin@asurwears.in")
	require.NoError(t, err)
	assert.Equal(t, models.AudienceAll, campaign.Audience)
	assert.Equal(t, 2, campaign.Recipients)

	list, err := svc.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestSendCampaignRejects(t *testing.T) {
	svc := NewCampaignService(&fakeCampaigns{}, &fakePublisher{})

	_, err := svc.Send(context.Background(), &CampaignRequest{Subject: "Hi", Body: "x", Audience: "vips"}, "admin")
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = svc.Send(context.Background(), &CampaignRequest{Subject: "Hi", Body: "x"}, "admin")
	assert.True(t, errors.Is(err, ErrInvalidInput), "empty audience")
}

func TestSendCampaignBrokerDown(t *testing.T) {
	campaigns := &fakeCampaigns{users: []string{"a@example.com"}}
	svc := NewCampaignService(campaigns, &fakePublisher{failNotify: true})

	_, err := svc.Send(context.Background(), &CampaignRequest{Subject: "Hi", Body: "x"}, "admin")
	assert.Error(t, err)
	assert.Empty(t, campaigns.saved)
}
