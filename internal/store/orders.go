package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"asur-wears/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateOrder inserts a new order
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	if _, err := s.collection(models.CollectionOrders).InsertOne(ctx, order); err != nil {
		return fmt.Errorf("failed to insert order: %w", translate(err))
	}
	return nil
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	return s.findOrder(ctx, bson.M{"_id": id})
}

// GetOrderByNumber retrieves an order by its public order number
func (s *Store) GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	return s.findOrder(ctx, bson.M{"orderNumber": orderNumber})
}

// GetOrderByIdempotencyKey retrieves an order by idempotency key.
// It returns nil, nil when no order carries the key.
func (s *Store) GetOrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	order, err := s.findOrder(ctx, bson.M{"idempotencyKey": key})
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return order, err
}

func (s *Store) findOrder(ctx context.Context, filter bson.M) (*models.Order, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var order models.Order
	if err := s.collection(models.CollectionOrders).FindOne(ctx, filter).Decode(&order); err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

// ListOrders returns a page of orders, newest first, optionally filtered by status
func (s *Store) ListOrders(ctx context.Context, status models.OrderStatus, skip, limit int64) ([]models.Order, int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	coll := s.collection(models.CollectionOrders)
	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query orders: %w", err)
	}

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, 0, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, total, nil
}

// UpdateOrderStatus moves an order from one status to another. The write
// only applies while the order is still in status from, so concurrent
// updates cannot skip the transition check; a lost race yields ErrNotFound.
func (s *Store) UpdateOrderStatus(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus) (*models.Order, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now().UTC()
	var order models.Order
	err := s.collection(models.CollectionOrders).FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{
			"$set":  bson.M{"status": to, "updatedAt": now},
			"$push": bson.M{"statusHistory": models.StatusChange{Status: to, At: now}},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&order)
	if err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

// UpdatePaymentStatus sets the payment status of an order
func (s *Store) UpdatePaymentStatus(ctx context.Context, id primitive.ObjectID, status models.PaymentStatus) (*models.Order, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var order models.Order
	err := s.collection(models.CollectionOrders).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"paymentStatus": status, "updatedAt": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&order)
	if err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

// CountOrders counts orders, optionally restricted to one status
func (s *Store) CountOrders(ctx context.Context, status models.OrderStatus) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return s.collection(models.CollectionOrders).CountDocuments(ctx, filter)
}

// Revenue sums totalAmount over every order that was not cancelled
func (s *Store) Revenue(ctx context.Context) (float64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	pipeline := bson.A{
		bson.M{"$match": bson.M{"status": bson.M{"$ne": models.OrderStatusCancelled}}},
		bson.M{"$group": bson.M{"_id": nil, "revenue": bson.M{"$sum": "$totalAmount"}}},
	}
	cursor, err := s.collection(models.CollectionOrders).Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to aggregate revenue: %w", err)
	}

	var rows []struct {
		Revenue float64 `bson:"revenue"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, fmt.Errorf("failed to decode revenue: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Revenue, nil
}

// RecentOrders returns the n newest orders
func (s *Store) RecentOrders(ctx context.Context, n int64) ([]models.Order, error) {
	orders, _, err := s.ListOrders(ctx, "", 0, n)
	return orders, err
}

// CustomerEmails returns every distinct email given at checkout
func (s *Store) CustomerEmails(ctx context.Context) ([]string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	values, err := s.collection(models.CollectionOrders).Distinct(ctx, "customer.email",
		bson.M{"customer.email": bson.M{"$nin": bson.A{"", nil}}})
	if err != nil {
		return nil, fmt.Errorf("failed to list customer emails: %w", err)
	}
	return stringValues(values), nil
}

func stringValues(values []interface{}) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
