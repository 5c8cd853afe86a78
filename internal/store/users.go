package store

import (
	"context"
	"fmt"
	"time"

	"asur-wears/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CreateUser inserts a user; a taken email yields ErrDuplicate
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now().UTC()
	user.ID = primitive.NewObjectID()
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := s.collection(models.CollectionUsers).InsertOne(ctx, user); err != nil {
		return fmt.Errorf("failed to insert user: %w", translate(err))
	}
	return nil
}

// GetUserByEmail retrieves a user by email
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

// GetUserByID retrieves a user by ID
func (s *Store) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var user models.User
	if err := s.collection(models.CollectionUsers).FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// UpdatePassword replaces a user's password hash
func (s *Store) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := s.collection(models.CollectionUsers).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"password": hash, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CountUsers returns the number of registered users
func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return s.collection(models.CollectionUsers).CountDocuments(ctx, bson.M{})
}

// UserEmails returns the email of every registered user
func (s *Store) UserEmails(ctx context.Context) ([]string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	values, err := s.collection(models.CollectionUsers).Distinct(ctx, "email", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list user emails: %w", err)
	}
	return stringValues(values), nil
}
