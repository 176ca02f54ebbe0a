package converter

import "time"

// ProductModel представляет запись таблицы products в PostgreSQL.
type ProductModel struct {
	ID          int64     `db:"id"`
	Slug        string    `db:"slug"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Price       int64     `db:"price"`
	ImageURL    string    `db:"image_url"`
	Stock       int       `db:"stock"`
	IsActive    bool      `db:"is_active"`
	CreatedAt   time.Time `db:"created_at"`
}

// OrderModel представляет запись таблицы orders в PostgreSQL.
type OrderModel struct {
	ID              int64      `db:"id"`
	GatewayRef      string     `db:"razorpay_order_id"`
	Amount          int64      `db:"amount"`
	Currency        string     `db:"currency"`
	Status          string     `db:"status"`
	PaymentMethod   string     `db:"payment_method"`
	CustomerDetails []byte     `db:"customer_details"` // JSONB
	TrackingID      *string    `db:"tracking_id"`
	ShippedAt       *time.Time `db:"shipped_at"`
	DeliveredAt     *time.Time `db:"delivered_at"`
	CreatedAt       time.Time  `db:"created_at"`
}

// OrderItemModel представляет запись таблицы order_items вместе с данными товара из JOIN.
type OrderItemModel struct {
	ID              int64   `db:"id"`
	OrderID         int64   `db:"order_id"`
	ProductID       int64   `db:"product_id"`
	Quantity        int     `db:"quantity"`
	PriceAtPurchase int64   `db:"price_at_purchase"`
	ProductName     *string `db:"product_name"`
	ProductImageURL *string `db:"product_image_url"`
}

// OutboxEventModel представляет запись таблицы outbox_events.
type OutboxEventModel struct {
	ID          int64      `db:"id"`
	EventID     string     `db:"event_id"`
	EventType   string     `db:"event_type"`
	AggregateID int64      `db:"aggregate_id"`
	Payload     []byte     `db:"payload"`
	Status      string     `db:"status"`
	Attempts    int        `db:"attempts"`
	CreatedAt   time.Time  `db:"created_at"`
	ProcessedAt *time.Time `db:"processed_at"`
}
