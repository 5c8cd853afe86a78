package store

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"asur-wears/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateOTP stores a freshly issued code
func (s *Store) CreateOTP(ctx context.Context, otp *models.OTP) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	otp.ID = primitive.NewObjectID()
	if _, err := s.collection(models.CollectionOTPs).InsertOne(ctx, otp); err != nil {
		return fmt.Errorf("failed to insert otp: %w", err)
	}
	return nil
}

// InvalidateOTPs marks every unused code for email and type as used
func (s *Store) InvalidateOTPs(ctx context.Context, email string, otpType models.OTPType) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := s.collection(models.CollectionOTPs).UpdateMany(ctx,
		bson.M{"email": email, "type": otpType, "isUsed": false},
		bson.M{"$set": bson.M{"isUsed": true}},
	)
	return err
}

// ConsumeOTP spends one attempt on the newest live code for email and
// type, then marks it used if code matches. The attempt is counted before
// the comparison, so concurrent guesses share one budget of maxAttempts and
// a code with no attempts left never verifies. ErrNotFound means no live
// code remains or the guess was wrong.
func (s *Store) ConsumeOTP(ctx context.Context, email string, otpType models.OTPType, code string, now time.Time, maxAttempts int) (*models.OTP, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	coll := s.collection(models.CollectionOTPs)
	var otp models.OTP
	err := coll.FindOneAndUpdate(ctx,
		bson.M{
			"email":     email,
			"type":      otpType,
			"isUsed":    false,
			"expiresAt": bson.M{"$gt": now},
			"attempts":  bson.M{"$lt": maxAttempts},
		},
		bson.M{"$inc": bson.M{"attempts": 1}},
		options.FindOneAndUpdate().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetReturnDocument(options.After),
	).Decode(&otp)
	if err != nil {
		return nil, translate(err)
	}

	if subtle.ConstantTimeCompare([]byte(otp.Code), []byte(code)) != 1 {
		if otp.Attempts >= maxAttempts {
			if _, err := coll.UpdateOne(ctx, bson.M{"_id": otp.ID}, bson.M{"$set": bson.M{"isUsed": true}}); err != nil {
				return nil, fmt.Errorf("failed to burn otp: %w", err)
			}
		}
		return nil, ErrNotFound
	}

	res, err := coll.UpdateOne(ctx,
		bson.M{"_id": otp.ID, "isUsed": false},
		bson.M{"$set": bson.M{"isUsed": true}},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to mark otp used: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, ErrNotFound
	}
	otp.IsUsed = true
	return &otp, nil
}
