package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"asur-wears/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type otpFixture struct {
	svc       *OTPService
	otps      *fakeOTPs
	users     *fakeUsers
	redis     *fakeRedis
	publisher *fakePublisher
	clock     time.Time
}

func newOTPFixture(t *testing.T) *otpFixture {
	t.Helper()

	f := &otpFixture{
		otps:      &fakeOTPs{},
		users:     newFakeUsers(),
		redis:     newFakeRedis(),
		publisher: &fakePublisher{},
		clock:     time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC),
	}
	accounts, _ := newTestAuthService(f.users)
	f.svc = NewOTPService(f.otps, accounts, f.redis, f.publisher, OTPConfig{
		TTL:      10 * time.Minute,
		MaxSends: 5,
		Window:   15 * time.Minute,
	})
	f.svc.now = func() time.Time { return f.clock }
	f.svc.generate = func() (string, error) { return "482913", nil }
	return f
}

func TestSendAndVerifyOTP(t *testing.T) {
	f := newOTPFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SendOTP(ctx, &SendOTPRequest{Email: "Riya@Example.com"}))

	require.Len(t, f.publisher.notifications, 1)
	note := f.publisher.notifications[0]
	assert.Equal(t, models.NotificationOTP, note.Kind)
	assert.Equal(t, "riya@example.com", note.To)
	assert.Contains(t, note.Body, "482913")

	live := f.otps.live("riya@example.com")
	require.Len(t, live, 1)
	assert.Equal(t, models.OTPTypeLogin, live[0].Type)
	assert.Equal(t, f.clock.Add(10*time.Minute), live[0].ExpiresAt)

	session, err := f.svc.VerifyOTP(ctx, &VerifyOTPRequest{Email: "riya@example.com", OTP: "482913", Name: "Riya"})
	require.NoError(t, err)
	assert.Equal(t, "Riya", session.User.Name)
	assert.NotEmpty(t, session.Token)

	_, err = f.svc.VerifyOTP(ctx, &VerifyOTPRequest{Email: "riya@example.com", OTP: "482913"})
	assert.True(t, errors.Is(err, ErrUnauthorized), "codes work once")
}

func TestSendOTPInvalidatesPrevious(t *testing.T) {
	f := newOTPFixture(t)
	ctx := context.Background()

	codes := []string{"111111", "222222"}
	f.svc.generate = func() (string, error) {
		code := codes[0]
		codes = codes[1:]
		return code, nil
	}
	require.NoError(t, f.svc.SendOTP(ctx, &SendOTPRequest{Email: "a@example.com"}))
	require.NoError(t, f.svc.SendOTP(ctx, &SendOTPRequest{Email: "a@example.com"}))

	_, err := f.svc.VerifyOTP(ctx, &VerifyOTPRequest{Email: "a@example.com", OTP: "111111"})
	assert.True(t, errors.Is(err, ErrUnauthorized))
	_, err = f.svc.VerifyOTP(ctx, &VerifyOTPRequest{Email: "a@example.com", OTP: "222222"})
	assert.NoError(t, err)
}

func TestSendOTPRateLimited(t *testing.T) {
	f := newOTPFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, f.svc.SendOTP(ctx, &SendOTPRequest{Email: "a@example.com"}))
	}
	err := f.svc.SendOTP(ctx, &SendOTPRequest{Email: "a@example.com"})
	assert.True(t, errors.Is(err, ErrRateLimited))
}

func TestVerifyOTPExpired(t *testing.T) {
	f := newOTPFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SendOTP(ctx, &SendOTPRequest{Email: "a@example.com"}))
	f.clock = f.clock.Add(11 * time.Minute)

	_, err := f.svc.VerifyOTP(ctx, &VerifyOTPRequest{Email: "a@example.com", OTP: "482913"})
	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestVerifyOTPBurnsAfterMaxAttempts(t *testing.T) {
	f := newOTPFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SendOTP(ctx, &SendOTPRequest{Email: "a@example.com"}))
	for i := 0; i < MaxOTPAttempts; i++ {
		_, err := f.svc.VerifyOTP(ctx, &VerifyOTPRequest{Email: "a@example.com", OTP: "000000"})
		assert.True(t, errors.Is(err, ErrUnauthorized))
	}

	_, err := f.svc.VerifyOTP(ctx, &VerifyOTPRequest{Email: "a@example.com", OTP: "482913"})
	assert.True(t, errors.Is(err, ErrUnauthorized), "burned code must not verify")
}

func TestVerifyOTPConcurrentGuessesShareAttempts(t *testing.T) {
	f := newOTPFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.SendOTP(ctx, &SendOTPRequest{Email: "a@example.com"}))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = f.svc.VerifyOTP(ctx, &VerifyOTPRequest{Email: "a@example.com", OTP: fmt.Sprintf("1%05d", i)})
		}(i)
	}
	wg.Wait()

	_, err := f.svc.VerifyOTP(ctx, &VerifyOTPRequest{Email: "a@example.com", OTP: "482913"})
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.Empty(t, f.otps.live("a@example.com"))
}

func TestSendOTPResetUnknownEmail(t *testing.T) {
	f := newOTPFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SendOTP(ctx, &SendOTPRequest{Email: "ghost@example.com", Type: models.OTPTypeReset}))
	assert.Empty(t, f.publisher.notifications)
	assert.Empty(t, f.otps.live("ghost@example.com"))
}

func TestVerifyOTPReset(t *testing.T) {
	f := newOTPFixture(t)
	ctx := context.Background()
	accounts, _ := newTestAuthService(f.users)
	_, err := accounts.Signup(ctx, &SignupRequest{Name: "Riya", Email: "riya@example.com", Password: "old-password"})
	require.NoError(t, err)

	require.NoError(t, f.svc.SendOTP(ctx, &SendOTPRequest{Email: "riya@example.com", Type: models.OTPTypeReset}))

	_, err = f.svc.VerifyOTP(ctx, &VerifyOTPRequest{
		Email: "riya@example.com", OTP: "482913", Type: models.OTPTypeReset, NewPassword: "short",
	})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = f.svc.VerifyOTP(ctx, &VerifyOTPRequest{
		Email: "riya@example.com", OTP: "482913", Type: models.OTPTypeReset, NewPassword: "new-password",
	})
	require.NoError(t, err)

	user, err := f.users.GetUserByEmail(ctx, "riya@example.com")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("new-password")))
}

func TestSendOTPUnknownType(t *testing.T) {
	f := newOTPFixture(t)

	err := f.svc.SendOTP(context.Background(), &SendOTPRequest{Email: "a@example.com", Type: "magic"})
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestGenerateCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		assert.Regexp(t, `^[1-9][0-9]{5}$`, code)
	}
}
