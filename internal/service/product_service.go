package service

import (
	"context"
	"io"
	"math"
	"strings"

	"asur-wears/internal/models"
	"asur-wears/internal/store"
	"asur-wears/internal/util"

	"go.uber.org/zap"
)

// Listing defaults
const (
	DefaultPageSize = 12
	MaxPageSize     = 100
)

// ProductService handles catalogue business logic
type ProductService struct {
	products ProductStore
	images   ImageStore
	logger   *zap.Logger
}

// NewProductService creates a new product service
func NewProductService(products ProductStore, images ImageStore) *ProductService {
	return &ProductService{
		products: products,
		images:   images,
		logger:   util.Named("products"),
	}
}

// ListProductsRequest holds catalogue query parameters
type ListProductsRequest struct {
	Category string `form:"category"`
	Featured *bool  `form:"featured"`
	InStock  *bool  `form:"inStock"`
	Query    string `form:"q"`
	Sort     string `form:"sort"`
	Page     int    `form:"page"`
	Limit    int    `form:"limit"`
}

// ProductPage is one page of a catalogue listing
type ProductPage struct {
	Products   []models.Product `json:"products"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"totalPages"`
}

// ProductRequest is the body of a product create
type ProductRequest struct {
	Name          string                `json:"name" binding:"required,max=120"`
	Price         float64               `json:"price" binding:"required,gt=0"`
	OriginalPrice float64               `json:"originalPrice" binding:"omitempty,gt=0"`
	Category      models.Category       `json:"category" binding:"required"`
	Description   string                `json:"description" binding:"max=2000"`
	Images        []models.ProductImage `json:"images"`
	Sizes         []models.Size         `json:"sizes" binding:"required,min=1"`
	InStock       *bool                 `json:"inStock"`
	Featured      bool                  `json:"featured"`
}

// ProductUpdateRequest is the body of a partial product update
type ProductUpdateRequest struct {
	Name          *string                `json:"name" binding:"omitempty,max=120"`
	Price         *float64               `json:"price" binding:"omitempty,gt=0"`
	OriginalPrice *float64               `json:"originalPrice" binding:"omitempty,gte=0"`
	Category      *models.Category       `json:"category"`
	Description   *string                `json:"description" binding:"omitempty,max=2000"`
	Images        *[]models.ProductImage `json:"images"`
	Sizes         *[]models.Size         `json:"sizes"`
	InStock       *bool                  `json:"inStock"`
	Featured      *bool                  `json:"featured"`
}

// ListProducts returns a filtered, sorted page of the catalogue
func (s *ProductService) ListProducts(ctx context.Context, req ListProductsRequest) (*ProductPage, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.ListProducts")
	defer span.End()

	q := store.ProductQuery{
		Featured: req.Featured,
		InStock:  req.InStock,
		Search:   strings.TrimSpace(req.Query),
	}
	if req.Category != "" {
		category := models.Category(strings.ToLower(req.Category))
		if !category.Valid() {
			return nil, invalid("unknown category %q", req.Category)
		}
		q.Category = category
	}
	switch req.Sort {
	case "", store.SortNewest, store.SortPriceAsc, store.SortPriceDesc, store.SortPopular:
		q.Sort = req.Sort
	default:
		return nil, invalid("unknown sort %q", req.Sort)
	}

	page, limit := pageBounds(req.Page, req.Limit)
	q.Skip = int64((page - 1) * limit)
	q.Limit = int64(limit)

	products, total, err := s.products.ListProducts(ctx, q)
	if err != nil {
		return nil, fromStore(err, "products")
	}

	return &ProductPage{
		Products:   products,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	}, nil
}

// GetProduct returns a product and counts the view
func (s *ProductService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	oid, err := parseID(id, "product")
	if err != nil {
		return nil, err
	}
	product, err := s.products.GetProductAndCountView(ctx, oid)
	if err != nil {
		return nil, fromStore(err, "product")
	}
	return product, nil
}

// CreateProduct validates and stores a new product
func (s *ProductService) CreateProduct(ctx context.Context, req *ProductRequest) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.CreateProduct")
	defer span.End()

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalid("name is required")
	}
	if req.Price <= 0 {
		return nil, invalid("price must be greater than zero")
	}
	if req.OriginalPrice != 0 && req.OriginalPrice < req.Price {
		return nil, invalid("originalPrice must not be below price")
	}
	if !req.Category.Valid() {
		return nil, invalid("unknown category %q", req.Category)
	}
	if err := validateSizes(req.Sizes); err != nil {
		return nil, err
	}

	inStock := true
	if req.InStock != nil {
		inStock = *req.InStock
	}

	product := &models.Product{
		Name:          name,
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		Category:      req.Category,
		Description:   strings.TrimSpace(req.Description),
		Images:        req.Images,
		Sizes:         req.Sizes,
		InStock:       inStock,
		Featured:      req.Featured,
	}
	if err := s.products.CreateProduct(ctx, product); err != nil {
		return nil, fromStore(err, "product")
	}

	s.logger.Info("Product created",
		zap.String("product_id", product.ID.Hex()),
		zap.String("name", product.Name))
	return product, nil
}

// UpdateProduct applies a partial update. Price rules are checked against
// the merged result so a patch cannot leave originalPrice below price.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, req *ProductUpdateRequest) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.UpdateProduct")
	defer span.End()

	oid, err := parseID(id, "product")
	if err != nil {
		return nil, err
	}
	current, err := s.products.GetProduct(ctx, oid)
	if err != nil {
		return nil, fromStore(err, "product")
	}

	patch := store.ProductPatch{
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		Images:        req.Images,
		InStock:       req.InStock,
		Featured:      req.Featured,
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, invalid("name is required")
		}
		patch.Name = &name
	}
	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		patch.Description = &description
	}
	if req.Category != nil {
		if !req.Category.Valid() {
			return nil, invalid("unknown category %q", *req.Category)
		}
		patch.Category = req.Category
	}
	if req.Sizes != nil {
		if err := validateSizes(*req.Sizes); err != nil {
			return nil, err
		}
		patch.Sizes = req.Sizes
	}

	price, original := current.Price, current.OriginalPrice
	if req.Price != nil {
		if *req.Price <= 0 {
			return nil, invalid("price must be greater than zero")
		}
		price = *req.Price
	}
	if req.OriginalPrice != nil {
		original = *req.OriginalPrice
	}
	if original != 0 && original < price {
		return nil, invalid("originalPrice must not be below price")
	}

	product, err := s.products.UpdateProduct(ctx, oid, patch)
	if err != nil {
		return nil, fromStore(err, "product")
	}

	if req.Images != nil {
		s.dropImages(ctx, removedImages(current.Images, *req.Images))
	}
	return product, nil
}

// DeleteProduct removes a product and its stored images
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	oid, err := parseID(id, "product")
	if err != nil {
		return err
	}
	product, err := s.products.DeleteProduct(ctx, oid)
	if err != nil {
		return fromStore(err, "product")
	}

	s.dropImages(ctx, product.Images)
	s.logger.Info("Product deleted", zap.String("product_id", id))
	return nil
}

// UploadImage stores a product photo
func (s *ProductService) UploadImage(ctx context.Context, r io.Reader) (*models.ProductImage, error) {
	image, err := s.images.Save(ctx, r)
	if err != nil {
		util.ImageUploadsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}
	util.ImageUploadsTotal.WithLabelValues("stored").Inc()
	return image, nil
}

// DeleteImage removes a stored product photo
func (s *ProductService) DeleteImage(ctx context.Context, publicID string) error {
	return s.images.Delete(ctx, publicID)
}

// dropImages deletes images best effort; a product change never fails on cleanup
func (s *ProductService) dropImages(ctx context.Context, images []models.ProductImage) {
	for _, image := range images {
		if image.PublicID == "" {
			continue
		}
		if err := s.images.Delete(ctx, image.PublicID); err != nil {
			s.logger.Warn("Failed to delete product image",
				zap.String("public_id", image.PublicID),
				zap.Error(err))
		}
	}
}

func removedImages(before, after []models.ProductImage) []models.ProductImage {
	kept := make(map[string]bool, len(after))
	for _, image := range after {
		kept[image.PublicID] = true
	}
	var removed []models.ProductImage
	for _, image := range before {
		if !kept[image.PublicID] {
			removed = append(removed, image)
		}
	}
	return removed
}

func validateSizes(sizes []models.Size) error {
	if len(sizes) == 0 {
		return invalid("at least one size is required")
	}
	seen := make(map[models.Size]bool, len(sizes))
	for _, size := range sizes {
		if !size.Valid() {
			return invalid("unknown size %q", size)
		}
		if seen[size] {
			return invalid("size %s listed twice", size)
		}
		seen[size] = true
	}
	return nil
}

func pageBounds(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

func totalPages(total int64, limit int) int {
	if total == 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(limit)))
}
