package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"asur-wears/internal/models"
	"asur-wears/internal/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeProducts struct {
	mu       sync.Mutex
	products map[primitive.ObjectID]*models.Product
}

func newFakeProducts(products ...models.Product) *fakeProducts {
	f := &fakeProducts{products: map[primitive.ObjectID]*models.Product{}}
	for i := range products {
		p := products[i]
		if p.ID.IsZero() {
			p.ID = primitive.NewObjectID()
		}
		f.products[p.ID] = &p
	}
	return f
}

func (f *fakeProducts) CreateProduct(_ context.Context, p *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = primitive.NewObjectID()
	cp := *p
	f.products[p.ID] = &cp
	return nil
}

func (f *fakeProducts) GetProduct(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProducts) GetProductAndCountView(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	f.mu.Lock()
	if p, ok := f.products[id]; ok {
		p.Views++
	}
	f.mu.Unlock()
	return f.GetProduct(ctx, id)
}

func (f *fakeProducts) GetProductsByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Product{}
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProducts) ListProducts(_ context.Context, q store.ProductQuery) ([]models.Product, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []models.Product
	for _, p := range f.products {
		if q.Category != "" && p.Category != q.Category {
			continue
		}
		if q.Featured != nil && p.Featured != *q.Featured {
			continue
		}
		all = append(all, *p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Price < all[j].Price })

	total := int64(len(all))
	start := q.Skip
	if start > total {
		start = total
	}
	end := start + q.Limit
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (f *fakeProducts) UpdateProduct(_ context.Context, id primitive.ObjectID, patch store.ProductPatch) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.OriginalPrice != nil {
		p.OriginalPrice = *patch.OriginalPrice
	}
	if patch.Images != nil {
		p.Images = *patch.Images
	}
	if patch.Sizes != nil {
		p.Sizes = *patch.Sizes
	}
	if patch.InStock != nil {
		p.InStock = *patch.InStock
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProducts) DeleteProduct(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	delete(f.products, id)
	return p, nil
}

func (f *fakeProducts) IncrementSales(_ context.Context, id primitive.ObjectID, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.products[id]; ok {
		p.Sales += int64(quantity)
	}
	return nil
}

type fakeOrders struct {
	mu     sync.Mutex
	orders []*models.Order
}

func (f *fakeOrders) CreateOrder(_ context.Context, o *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.orders {
		if existing.OrderNumber == o.OrderNumber ||
			(o.IdempotencyKey != "" && existing.IdempotencyKey == o.IdempotencyKey) {
			return store.ErrDuplicate
		}
	}
	o.ID = primitive.NewObjectID()
	cp := *o
	f.orders = append(f.orders, &cp)
	return nil
}

func (f *fakeOrders) find(match func(*models.Order) bool) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if match(o) {
			cp := *o
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeOrders) GetOrderByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	return f.find(func(o *models.Order) bool { return o.ID == id })
}

func (f *fakeOrders) GetOrderByNumber(_ context.Context, n string) (*models.Order, error) {
	return f.find(func(o *models.Order) bool { return o.OrderNumber == n })
}

func (f *fakeOrders) GetOrderByIdempotencyKey(_ context.Context, key string) (*models.Order, error) {
	o, err := f.find(func(o *models.Order) bool { return o.IdempotencyKey == key })
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return o, err
}

func (f *fakeOrders) ListOrders(_ context.Context, status models.OrderStatus, skip, limit int64) ([]models.Order, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []models.Order
	for _, o := range f.orders {
		if status == "" || o.Status == status {
			all = append(all, *o)
		}
	}
	total := int64(len(all))
	if skip > total {
		skip = total
	}
	end := skip + limit
	if end > total {
		end = total
	}
	return all[skip:end], total, nil
}

func (f *fakeOrders) UpdateOrderStatus(_ context.Context, id primitive.ObjectID, from, to models.OrderStatus) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.ID == id && o.Status == from {
			o.Status = to
			o.StatusHistory = append(o.StatusHistory, models.StatusChange{Status: to, At: time.Now()})
			cp := *o
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeOrders) UpdatePaymentStatus(_ context.Context, id primitive.ObjectID, status models.PaymentStatus) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.ID == id {
			o.PaymentStatus = status
			cp := *o
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[string]*models.User{}}
}

func (f *fakeUsers) CreateUser(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[u.Email]; ok {
		return store.ErrDuplicate
	}
	u.ID = primitive.NewObjectID()
	cp := *u
	f.users[u.Email] = &cp
	return nil
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id primitive.ObjectID, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			u.Password = hash
			return nil
		}
	}
	return store.ErrNotFound
}

type fakeOTPs struct {
	mu   sync.Mutex
	otps []*models.OTP
}

func (f *fakeOTPs) CreateOTP(_ context.Context, otp *models.OTP) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	otp.ID = primitive.NewObjectID()
	cp := *otp
	f.otps = append(f.otps, &cp)
	return nil
}

func (f *fakeOTPs) InvalidateOTPs(_ context.Context, email string, t models.OTPType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.otps {
		if o.Email == email && o.Type == t {
			o.IsUsed = true
		}
	}
	return nil
}

func (f *fakeOTPs) ConsumeOTP(_ context.Context, email string, t models.OTPType, code string, now time.Time, max int) (*models.OTP, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.otps) - 1; i >= 0; i-- {
		o := f.otps[i]
		if o.Email != email || o.Type != t || o.IsUsed || !o.ExpiresAt.After(now) || o.Attempts >= max {
			continue
		}
		o.Attempts++
		if o.Code != code {
			if o.Attempts >= max {
				o.IsUsed = true
			}
			return nil, store.ErrNotFound
		}
		o.IsUsed = true
		cp := *o
		return &cp, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeOTPs) live(email string) []*models.OTP {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.OTP
	for _, o := range f.otps {
		if o.Email == email && !o.IsUsed {
			out = append(out, o)
		}
	}
	return out
}

type fakeAnalytics struct {
	mu   sync.Mutex
	days map[string]*models.DailyAnalytics
}

func newFakeAnalytics() *fakeAnalytics {
	return &fakeAnalytics{days: map[string]*models.DailyAnalytics{}}
}

func (f *fakeAnalytics) IncrementDay(_ context.Context, date string, inc map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	day, ok := f.days[date]
	if !ok {
		day = &models.DailyAnalytics{Date: date, Actions: map[string]int64{}}
		f.days[date] = day
	}
	for field, v := range inc {
		switch field {
		case "pageViews":
			day.PageViews += int64(v.(int))
		case "orders":
			day.Orders += int64(v.(int))
		case "revenue":
			day.Revenue += v.(float64)
		default:
			day.Actions[field[len("actions."):]] += int64(v.(int))
		}
	}
	return nil
}

func (f *fakeAnalytics) AnalyticsRange(_ context.Context, from, to string) ([]models.DailyAnalytics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.DailyAnalytics
	for date, day := range f.days {
		if date >= from && date <= to {
			out = append(out, *day)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

type fakeCampaigns struct {
	users     []string
	customers []string
	saved     []models.Campaign
}

func (f *fakeCampaigns) CreateCampaign(_ context.Context, c *models.Campaign) error {
	c.ID = primitive.NewObjectID()
	f.saved = append(f.saved, *c)
	return nil
}

func (f *fakeCampaigns) ListCampaigns(_ context.Context, limit int64) ([]models.Campaign, error) {
	if int64(len(f.saved)) > limit {
		return f.saved[:limit], nil
	}
	return f.saved, nil
}

func (f *fakeCampaigns) UserEmails(context.Context) ([]string, error)     { return f.users, nil }
func (f *fakeCampaigns) CustomerEmails(context.Context) ([]string, error) { return f.customers, nil }

type fakePublisher struct {
	mu            sync.Mutex
	created       []*models.OrderCreatedEvent
	statusChanges []*models.OrderStatusChangedEvent
	payments      []*models.PaymentUpdatedEvent
	notifications []*models.NotificationEvent
	failNotify    bool
}

func (f *fakePublisher) PublishOrderCreated(_ context.Context, e *models.OrderCreatedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, e)
	return nil
}

func (f *fakePublisher) PublishOrderStatusChanged(_ context.Context, e *models.OrderStatusChangedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusChanges = append(f.statusChanges, e)
	return nil
}

func (f *fakePublisher) PublishPaymentUpdated(_ context.Context, e *models.PaymentUpdatedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payments = append(f.payments, e)
	return nil
}

func (f *fakePublisher) PublishNotification(_ context.Context, e *models.NotificationEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNotify {
		return errors.New("broker down")
	}
	f.notifications = append(f.notifications, e)
	return nil
}

type fakeRedis struct {
	mu    sync.Mutex
	hits  map[string]int
	seq   map[string]int64
	locks map[string]string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{hits: map[string]int{}, seq: map[string]int64{}, locks: map[string]string{}}
}

func (f *fakeRedis) Allow(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hits[key]++
	return f.hits[key] <= limit, nil
}

func (f *fakeRedis) NextOrderSequence(_ context.Context, day string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq[day]++
	return f.seq[day], nil
}

func (f *fakeRedis) AcquireLock(_ context.Context, key string, _ time.Duration) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, held := f.locks[key]; held {
		return "", false, nil
	}
	token := fmt.Sprintf("token-%d", len(f.seq)+len(f.locks)+1)
	f.locks[key] = token
	return token, true, nil
}

func (f *fakeRedis) ReleaseLock(_ context.Context, key, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.locks[key] == token {
		delete(f.locks, key)
	}
	return nil
}

type fakeImages struct {
	deleted []string
}

func (f *fakeImages) Save(_ context.Context, r io.Reader) (*models.ProductImage, error) {
	if _, err := io.ReadAll(r); err != nil {
		return nil, err
	}
	return &models.ProductImage{URL: "/uploads/aw-1.png", PublicID: "aw-1"}, nil
}

func (f *fakeImages) Delete(_ context.Context, publicID string) error {
	f.deleted = append(f.deleted, publicID)
	return nil
}

type recorderFunc func(ctx context.Context, amount float64) error

func (f recorderFunc) RecordOrder(ctx context.Context, amount float64) error { return f(ctx, amount) }
