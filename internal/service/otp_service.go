package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"asur-wears/internal/models"
	"asur-wears/internal/notify"
	"asur-wears/internal/store"
	"asur-wears/internal/util"

	"go.uber.org/zap"
)

// MaxOTPAttempts is the number of verification attempts a code allows
const MaxOTPAttempts = 5

// OTPConfig tunes code lifetime and send limits
type OTPConfig struct {
	TTL      time.Duration
	MaxSends int
	Window   time.Duration
}

// OTPService issues and verifies email one-time codes
type OTPService struct {
	otps      OTPStore
	accounts  *AuthService
	limiter   RateLimiter
	publisher Publisher
	cfg       OTPConfig
	logger    *zap.Logger
	now       func() time.Time
	generate  func() (string, error)
}

// NewOTPService creates a new OTP service
func NewOTPService(otps OTPStore, accounts *AuthService, limiter RateLimiter, publisher Publisher, cfg OTPConfig) *OTPService {
	return &OTPService{
		otps:      otps,
		accounts:  accounts,
		limiter:   limiter,
		publisher: publisher,
		cfg:       cfg,
		logger:    util.Named("otp"),
		now:       func() time.Time { return time.Now().UTC() },
		generate:  GenerateCode,
	}
}

// SendOTPRequest asks for a code by email
type SendOTPRequest struct {
	Email string         `json:"email" binding:"required,email"`
	Type  models.OTPType `json:"type"`
}

// VerifyOTPRequest redeems a code. NewPassword is required for resets and
// Name is used when a login creates an account.
type VerifyOTPRequest struct {
	Email       string         `json:"email" binding:"required,email"`
	OTP         string         `json:"otp" binding:"required,len=6,numeric"`
	Type        models.OTPType `json:"type"`
	NewPassword string         `json:"newPassword"`
	Name        string         `json:"name"`
}

// SendOTP issues a fresh code, invalidating earlier ones, and queues it
// for delivery. A reset for an email with no account succeeds without
// sending anything, so the response does not reveal which emails exist.
func (s *OTPService) SendOTP(ctx context.Context, req *SendOTPRequest) error {
	ctx, span := util.StartSpan(ctx, "OTPService.SendOTP")
	defer span.End()

	email, otpType, err := s.normalize(req.Email, req.Type)
	if err != nil {
		return err
	}

	allowed, err := s.limiter.Allow(ctx, "otp:"+email, s.cfg.MaxSends, s.cfg.Window)
	if err != nil {
		return fmt.Errorf("failed to check otp rate limit: %w", err)
	}
	if !allowed {
		return fmt.Errorf("%w: wait before requesting another code", ErrRateLimited)
	}

	if otpType == models.OTPTypeReset {
		exists, err := s.accounts.Exists(ctx, email)
		if err != nil {
			return err
		}
		if !exists {
			s.logger.Info("Reset requested for unknown email")
			return nil
		}
	}

	code, err := s.generate()
	if err != nil {
		return err
	}

	if err := s.otps.InvalidateOTPs(ctx, email, otpType); err != nil {
		return fmt.Errorf("failed to invalidate previous codes: %w", err)
	}
	now := s.now()
	otp := &models.OTP{
		Email:     email,
		Code:      code,
		Type:      otpType,
		ExpiresAt: now.Add(s.cfg.TTL),
		CreatedAt: now,
	}
	if err := s.otps.CreateOTP(ctx, otp); err != nil {
		return fromStore(err, "otp")
	}

	msg := notify.OTPMessage(email, code, otpType, s.cfg.TTL)
	if err := s.publisher.PublishNotification(ctx, notificationEvent(models.NotificationOTP, msg)); err != nil {
		return fmt.Errorf("failed to queue otp email: %w", err)
	}

	util.OTPSentTotal.WithLabelValues(string(otpType)).Inc()
	s.logger.Info("OTP issued", zap.String("type", string(otpType)))
	return nil
}

// VerifyOTP redeems a code. Login and signup codes return a session; a
// reset code sets the new password and also signs the user in.
func (s *OTPService) VerifyOTP(ctx context.Context, req *VerifyOTPRequest) (*Session, error) {
	ctx, span := util.StartSpan(ctx, "OTPService.VerifyOTP")
	defer span.End()

	email, otpType, err := s.normalize(req.Email, req.Type)
	if err != nil {
		return nil, err
	}
	if otpType == models.OTPTypeReset && len(req.NewPassword) < MinPasswordLength {
		return nil, invalid("newPassword must be at least %d characters", MinPasswordLength)
	}

	if _, err := s.otps.ConsumeOTP(ctx, email, otpType, req.OTP, s.now(), MaxOTPAttempts); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fromStore(err, "otp")
		}
		util.OTPVerifyTotal.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("%w: invalid or expired code", ErrUnauthorized)
	}
	util.OTPVerifyTotal.WithLabelValues("accepted").Inc()

	if otpType == models.OTPTypeReset {
		if err := s.accounts.ResetPassword(ctx, email, req.NewPassword); err != nil {
			return nil, err
		}
	}
	return s.accounts.SignInByEmail(ctx, email, req.Name)
}

func (s *OTPService) normalize(rawEmail string, otpType models.OTPType) (string, models.OTPType, error) {
	email, err := NormalizeEmail(rawEmail)
	if err != nil {
		return "", "", err
	}
	if otpType == "" {
		otpType = models.OTPTypeLogin
	}
	if !otpType.Valid() {
		return "", "", invalid("unknown otp type %q", otpType)
	}
	return email, otpType, nil
}

// GenerateCode returns a uniformly random six-digit code
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
