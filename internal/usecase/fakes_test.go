package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/pkg/e"
)

type inTxKey struct{}

// memStore — хранилище в памяти. Транзакции сериализуются общим мьютексом,
// что соответствует блокировке строк в PostgreSQL, и откатываются к снимку при ошибке.
type memStore struct {
	mu            sync.Mutex
	products      map[int64]domain.Product
	orders        map[int64]*domain.Order
	nextOrderID   int64
	nextProductID int64
	createOrdErr  error
}

func newMemStore(products ...domain.Product) *memStore {
	s := &memStore{
		products: make(map[int64]domain.Product),
		orders:   make(map[int64]*domain.Order),
	}
	for _, p := range products {
		s.products[p.ID] = p
		if p.ID > s.nextProductID {
			s.nextProductID = p.ID
		}
	}
	return s
}

type snapshot struct {
	products      map[int64]domain.Product
	orders        map[int64]domain.Order
	nextOrderID   int64
	nextProductID int64
}

func (s *memStore) snapshot() snapshot {
	snap := snapshot{
		products:      make(map[int64]domain.Product, len(s.products)),
		orders:        make(map[int64]domain.Order, len(s.orders)),
		nextOrderID:   s.nextOrderID,
		nextProductID: s.nextProductID,
	}
	for id, p := range s.products {
		snap.products[id] = p
	}
	for id, o := range s.orders {
		snap.orders[id] = copyOrder(o)
	}
	return snap
}

func (s *memStore) restore(snap snapshot) {
	s.products = snap.products
	s.orders = make(map[int64]*domain.Order, len(snap.orders))
	for id, o := range snap.orders {
		o := o
		s.orders[id] = &o
	}
	s.nextOrderID = snap.nextOrderID
	s.nextProductID = snap.nextProductID
}

// locked выполняет fn под мьютексом, если вызов пришёл не из транзакции.
func (s *memStore) locked(ctx context.Context, fn func()) {
	if ctx.Value(inTxKey{}) == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	fn()
}

func (s *memStore) stock(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id].Stock
}

func (s *memStore) order(id int64) domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyOrder(s.orders[id])
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func (s *memStore) putOrder(o domain.Order) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextOrderID++
	o.ID = s.nextOrderID
	s.orders[o.ID] = &o
	return o.ID
}

func copyOrder(o *domain.Order) domain.Order {
	c := *o
	c.Items = append([]domain.OrderItem(nil), o.Items...)
	return c
}

type fakeTxManager struct {
	s *memStore
}

func (f *fakeTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(inTxKey{}) != nil {
		return fn(ctx)
	}

	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	snap := f.s.snapshot()
	if err := fn(context.WithValue(ctx, inTxKey{}, true)); err != nil {
		f.s.restore(snap)
		return err
	}
	return nil
}

type fakeProductRepo struct {
	s *memStore
}

func (r *fakeProductRepo) GetByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	var res []domain.Product
	r.s.locked(ctx, func() {
		for _, id := range ids {
			if p, ok := r.s.products[id]; ok {
				res = append(res, p)
			}
		}
	})
	return res, nil
}

func (r *fakeProductRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	var (
		p  domain.Product
		ok bool
	)
	r.s.locked(ctx, func() { p, ok = r.s.products[id] })
	if !ok {
		return nil, e.ErrProductNotFound
	}
	return &p, nil
}

func (r *fakeProductRepo) list(ctx context.Context, onlyActive bool) []domain.Product {
	var res []domain.Product
	r.s.locked(ctx, func() {
		for _, p := range r.s.products {
			if !onlyActive || p.IsActive {
				res = append(res, p)
			}
		}
	})
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

func (r *fakeProductRepo) ListActive(ctx context.Context) ([]domain.Product, error) {
	return r.list(ctx, true), nil
}

func (r *fakeProductRepo) ListAll(ctx context.Context) ([]domain.Product, error) {
	return r.list(ctx, false), nil
}

func (r *fakeProductRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	exists := false
	r.s.locked(ctx, func() {
		for _, p := range r.s.products {
			if p.Slug == slug {
				exists = true
				return
			}
		}
	})
	return exists, nil
}

func (r *fakeProductRepo) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	var created domain.Product
	r.s.locked(ctx, func() {
		r.s.nextProductID++
		created = *product
		created.ID = r.s.nextProductID
		created.CreatedAt = time.Now()
		r.s.products[created.ID] = created
	})
	return &created, nil
}

func (r *fakeProductRepo) Update(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	var (
		updated domain.Product
		found   bool
	)
	r.s.locked(ctx, func() {
		cur, ok := r.s.products[product.ID]
		if !ok {
			return
		}
		found = true
		updated = *product
		updated.Slug = cur.Slug
		updated.CreatedAt = cur.CreatedAt
		r.s.products[product.ID] = updated
	})
	if !found {
		return nil, e.ErrProductNotFound
	}
	return &updated, nil
}

func (r *fakeProductRepo) SetActive(ctx context.Context, id int64, active bool) error {
	found := false
	r.s.locked(ctx, func() {
		if p, ok := r.s.products[id]; ok {
			found = true
			p.IsActive = active
			r.s.products[id] = p
		}
	})
	if !found {
		return e.ErrProductNotFound
	}
	return nil
}

func (r *fakeProductRepo) DecrementStock(ctx context.Context, productID int64, qty int) (bool, error) {
	ok := false
	r.s.locked(ctx, func() {
		p, found := r.s.products[productID]
		if !found || p.Stock < qty {
			return
		}
		p.Stock -= qty
		r.s.products[productID] = p
		ok = true
	})
	return ok, nil
}

type fakeOrderRepo struct {
	s *memStore
}

func (r *fakeOrderRepo) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	var (
		created domain.Order
		err     error
	)
	r.s.locked(ctx, func() {
		if r.s.createOrdErr != nil {
			err = r.s.createOrdErr
			return
		}
		for _, o := range r.s.orders {
			if o.GatewayRef == order.GatewayRef {
				err = e.ErrConcurrentUpdate
				return
			}
		}
		r.s.nextOrderID++
		created = copyOrder(order)
		created.ID = r.s.nextOrderID
		created.CreatedAt = time.Now()
		for i := range created.Items {
			created.Items[i].OrderID = created.ID
			created.Items[i].ID = int64(i + 1)
		}
		stored := copyOrder(&created)
		r.s.orders[created.ID] = &stored
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *fakeOrderRepo) find(ctx context.Context, match func(o *domain.Order) bool) (*domain.Order, error) {
	var found *domain.Order
	r.s.locked(ctx, func() {
		for _, o := range r.s.orders {
			if match(o) {
				c := copyOrder(o)
				found = &c
				return
			}
		}
	})
	if found == nil {
		return nil, e.ErrOrderNotFound
	}
	return found, nil
}

func (r *fakeOrderRepo) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	return r.find(ctx, func(o *domain.Order) bool { return o.ID == id })
}

func (r *fakeOrderRepo) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Order, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeOrderRepo) GetByGatewayRefForUpdate(ctx context.Context, ref string) (*domain.Order, error) {
	return r.find(ctx, func(o *domain.Order) bool { return o.GatewayRef == ref })
}

func (r *fakeOrderRepo) List(ctx context.Context) ([]domain.Order, error) {
	var res []domain.Order
	r.s.locked(ctx, func() {
		for _, o := range r.s.orders {
			res = append(res, copyOrder(o))
		}
	})
	sort.Slice(res, func(i, j int) bool { return res[i].ID > res[j].ID })
	return res, nil
}

func (r *fakeOrderRepo) UpdateStatus(ctx context.Context, req *UpdateStatusParams) error {
	var err error
	r.s.locked(ctx, func() {
		o, ok := r.s.orders[req.OrderID]
		if !ok {
			err = e.ErrOrderNotFound
			return
		}
		if o.Status != req.From {
			err = e.ErrConcurrentUpdate
			return
		}
		o.Status = req.To
		switch req.To {
		case domain.StatusShipped:
			o.TrackingRef = req.TrackingRef
			at := req.At
			o.ShippedAt = &at
		case domain.StatusDelivered:
			at := req.At
			o.DeliveredAt = &at
		}
	})
	return err
}

type fakeGateway struct {
	mu        sync.Mutex
	createErr error
	created   []CreateGatewayOrderReq
	nextID    int
	paymentOK bool
	webhookOK bool
}

func (g *fakeGateway) CreateOrder(_ context.Context, req *CreateGatewayOrderReq) (*GatewayOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.nextID++
	g.created = append(g.created, *req)
	return &GatewayOrder{
		ID:       "order_TEST" + string(rune('0'+g.nextID)),
		Amount:   req.Amount,
		Currency: req.Currency,
	}, nil
}

func (g *fakeGateway) VerifyPaymentSignature(_, _, _ string) bool { return g.paymentOK }

func (g *fakeGateway) VerifyWebhookSignature(_ []byte, _ string) bool { return g.webhookOK }

func (g *fakeGateway) KeyID() string { return "rzp_test_key" }

type fakeNotifier struct {
	mu   sync.Mutex
	sent []OrderNotification
}

func (n *fakeNotifier) SendOrderConfirmation(_ context.Context, notification *OrderNotification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, *notification)
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type nopMetrics struct{}

func (nopMetrics) OrderCreated(string)              {}
func (nopMetrics) PaymentReconciled(string, string) {}
func (nopMetrics) StatusChanged(string, string)     {}
func (nopMetrics) StockShortfall(string)            {}

// shortfallMetrics считает только нехватку остатка при подтверждении оплаты.
type shortfallMetrics struct {
	nopMetrics
	mu      sync.Mutex
	sources []string
}

func (m *shortfallMetrics) StockShortfall(source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources = append(m.sources, source)
}

type fakeCache struct {
	mu          sync.Mutex
	products    []domain.Product
	cached      bool
	invalidated int
}

func (c *fakeCache) GetActive(context.Context) ([]domain.Product, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.products, c.cached, nil
}

func (c *fakeCache) SetActive(_ context.Context, products []domain.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = products
	c.cached = true
	return nil
}

func (c *fakeCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = nil
	c.cached = false
	c.invalidated++
	return nil
}

type fakeImageRepo struct {
	keys []string
}

func (f *fakeImageRepo) PresignUpload(_ context.Context, objectKey string) (*PresignedUpload, error) {
	f.keys = append(f.keys, objectKey)
	return &PresignedUpload{
		UploadURL: "https://storage.test/upload/" + objectKey,
		ObjectKey: objectKey,
		PublicURL: "https://storage.test/" + objectKey,
		ExpiresAt: time.Now().Add(time.Minute),
	}, nil
}

func ghee(id int64, price int64, stock int) domain.Product {
	return domain.Product{
		ID:       id,
		Slug:     "ghee-" + string(rune('a'+id)),
		Name:     "Ghee " + string(rune('A'+id)),
		Price:    price,
		Stock:    stock,
		ImageURL: "https://img.test/ghee.jpg",
		IsActive: true,
	}
}

func testCustomer() domain.CustomerSnapshot {
	return domain.CustomerSnapshot{
		Name:  "Asha",
		Phone: "9876543210",
		Email: "asha@example.com",
		Address: domain.Address{
			Line1:   "12 MG Road",
			City:    "Pune",
			State:   "MH",
			Pincode: "411001",
		},
	}
}
