package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"asur-wears/internal/models"
	"asur-wears/internal/notify"
	"asur-wears/internal/util"

	"go.uber.org/zap"
)

const defaultCampaignListSize = 20

// CampaignService sends marketing email to an audience
type CampaignService struct {
	campaigns CampaignStore
	publisher Publisher
	logger    *zap.Logger
}

// NewCampaignService creates a new campaign service
func NewCampaignService(campaigns CampaignStore, publisher Publisher) *CampaignService {
	return &CampaignService{
		campaigns: campaigns,
		publisher: publisher,
		logger:    util.Named("campaigns"),
	}
}

// CampaignRequest describes one send
type CampaignRequest struct {
	Subject  string          `json:"subject" binding:"required,max=200"`
	Body     string          `json:"body" binding:"required,max=20000"`
	Audience models.Audience `json:"audience"`
}

// Send queues one notification per recipient and records the campaign
func (s *CampaignService) Send(ctx context.Context, req *CampaignRequest, createdBy string) (*models.Campaign, error) {
	ctx, span := util.StartSpan(ctx, "CampaignService.Send")
	defer span.End()

	subject := strings.TrimSpace(req.Subject)
	body := strings.TrimSpace(req.Body)
	if subject == "" || body == "" {
		return nil, invalid("subject and body are required")
	}
	audience := req.Audience
	if audience == "" {
		audience = models.AudienceAll
	}

	recipients, err := s.recipients(ctx, audience)
	if err != nil {
		return nil, err
	}
	if len(recipients) == 0 {
		return nil, invalid("audience %s has no recipients", audience)
	}

	sent := 0
	for _, to := range recipients {
		msg := notify.Message{To: to, Subject: subject, Body: body}
		if err := s.publisher.PublishNotification(ctx, notificationEvent(models.NotificationCampaign, msg)); err != nil {
			s.logger.Warn("Failed to queue campaign email", zap.Error(err))
			continue
		}
		sent++
	}
	if sent == 0 {
		return nil, fmt.Errorf("failed to queue campaign for any of %d recipients", len(recipients))
	}

	campaign := &models.Campaign{
		Subject:    subject,
		Body:       body,
		Audience:   audience,
		Recipients: sent,
		CreatedBy:  createdBy,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.campaigns.CreateCampaign(ctx, campaign); err != nil {
		return nil, fromStore(err, "campaign")
	}

	s.logger.Info("Campaign queued",
		zap.String("audience", string(audience)),
		zap.Int("recipients", sent),
		zap.Int("skipped", len(recipients)-sent))
	return campaign, nil
}

// List returns the most recent campaigns
func (s *CampaignService) List(ctx context.Context, limit int) ([]models.Campaign, error) {
	if limit < 1 || limit > MaxPageSize {
		limit = defaultCampaignListSize
	}
	campaigns, err := s.campaigns.ListCampaigns(ctx, int64(limit))
	if err != nil {
		return nil, fromStore(err, "campaigns")
	}
	return campaigns, nil
}

func (s *CampaignService) recipients(ctx context.Context, audience models.Audience) ([]string, error) {
	var (
		emails []string
		err    error
	)
	switch audience {
	case models.AudienceAll:
		emails, err = s.campaigns.UserEmails(ctx)
	case models.AudienceCustomers:
		emails, err = s.campaigns.CustomerEmails(ctx)
	default:
		return nil, invalid("unknown audience %q", audience)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve audience: %w", err)
	}

	seen := make(map[string]bool, len(emails))
	out := make([]string, 0, len(emails))
	for _, email := range emails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" || seen[email] {
			continue
		}
		seen[email] = true
		out = append(out, email)
	}
	return out, nil
}
