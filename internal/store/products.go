package store

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"asur-wears/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Product sort orders
const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortPopular   = "popular"
)

// ProductQuery filters and pages a catalogue listing
type ProductQuery struct {
	Category models.Category
	Featured *bool
	InStock  *bool
	Search   string
	Sort     string
	Skip     int64
	Limit    int64
}

// ProductPatch holds the fields of a partial product update. Nil fields
// are left untouched.
type ProductPatch struct {
	Name          *string
	Price         *float64
	OriginalPrice *float64
	Category      *models.Category
	Description   *string
	Images        *[]models.ProductImage
	Sizes         *[]models.Size
	InStock       *bool
	Featured      *bool
}

func (q ProductQuery) filter() bson.M {
	filter := bson.M{}
	if q.Category != "" {
		filter["category"] = q.Category
	}
	if q.Featured != nil {
		filter["featured"] = *q.Featured
	}
	if q.InStock != nil {
		filter["inStock"] = *q.InStock
	}
	if q.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"description": pattern},
		}
	}
	return filter
}

func (q ProductQuery) sort() bson.D {
	switch q.Sort {
	case SortPriceAsc:
		return bson.D{{Key: "price", Value: 1}, {Key: "_id", Value: 1}}
	case SortPriceDesc:
		return bson.D{{Key: "price", Value: -1}, {Key: "_id", Value: 1}}
	case SortPopular:
		return bson.D{{Key: "sales", Value: -1}, {Key: "views", Value: -1}, {Key: "_id", Value: 1}}
	default:
		return bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
	}
}

func (p ProductPatch) set() bson.M {
	set := bson.M{}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Price != nil {
		set["price"] = *p.Price
	}
	if p.OriginalPrice != nil {
		set["originalPrice"] = *p.OriginalPrice
	}
	if p.Category != nil {
		set["category"] = *p.Category
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Images != nil {
		set["images"] = *p.Images
	}
	if p.Sizes != nil {
		set["sizes"] = *p.Sizes
	}
	if p.InStock != nil {
		set["inStock"] = *p.InStock
	}
	if p.Featured != nil {
		set["featured"] = *p.Featured
	}
	return set
}

// CreateProduct inserts a product and assigns its ID
func (s *Store) CreateProduct(ctx context.Context, product *models.Product) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now().UTC()
	product.ID = primitive.NewObjectID()
	product.CreatedAt = now
	product.UpdatedAt = now
	if product.Images == nil {
		product.Images = []models.ProductImage{}
	}

	if _, err := s.collection(models.CollectionProducts).InsertOne(ctx, product); err != nil {
		return fmt.Errorf("failed to insert product: %w", translate(err))
	}
	return nil
}

// GetProduct retrieves a product by ID
func (s *Store) GetProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var product models.Product
	err := s.collection(models.CollectionProducts).FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

// GetProductAndCountView retrieves a product and increments its view counter
func (s *Store) GetProductAndCountView(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var product models.Product
	err := s.collection(models.CollectionProducts).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"views": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&product)
	if err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

// GetProductsByIDs retrieves multiple products by IDs
func (s *Store) GetProductsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	cursor, err := s.collection(models.CollectionProducts).Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, nil
}

// ListProducts returns one page of products matching q and the total match count
func (s *Store) ListProducts(ctx context.Context, q ProductQuery) ([]models.Product, int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	coll := s.collection(models.CollectionProducts)
	filter := q.filter()

	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	opts := options.Find().SetSort(q.sort()).SetSkip(q.Skip).SetLimit(q.Limit)
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query products: %w", err)
	}

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, total, nil
}

// UpdateProduct applies a partial update and returns the updated product
func (s *Store) UpdateProduct(ctx context.Context, id primitive.ObjectID, patch ProductPatch) (*models.Product, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	set := patch.set()
	set["updatedAt"] = time.Now().UTC()

	var product models.Product
	err := s.collection(models.CollectionProducts).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&product)
	if err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

// DeleteProduct removes a product and returns the removed document
func (s *Store) DeleteProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var product models.Product
	err := s.collection(models.CollectionProducts).FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&product)
	if err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

// IncrementSales adds quantity to a product's sales counter
func (s *Store) IncrementSales(ctx context.Context, id primitive.ObjectID, quantity int) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := s.collection(models.CollectionProducts).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"sales": quantity}},
	)
	return err
}

// CountProducts returns the catalogue size
func (s *Store) CountProducts(ctx context.Context) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return s.collection(models.CollectionProducts).CountDocuments(ctx, bson.M{})
}

// TopSellingProducts returns the n products with the most sales
func (s *Store) TopSellingProducts(ctx context.Context, n int64) ([]models.Product, error) {
	products, _, err := s.ListProducts(ctx, ProductQuery{Sort: SortPopular, Limit: n})
	return products, err
}
