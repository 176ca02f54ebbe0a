package converter

import (
	"encoding/json"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/internal/usecase"
)

// ProductConverter преобразует Product между domain и моделью PostgreSQL.
type ProductConverter struct{}

func (ProductConverter) ToModel(entity *domain.Product) *ProductModel {
	return &ProductModel{
		ID:          entity.ID,
		Slug:        entity.Slug,
		Name:        entity.Name,
		Description: entity.Description,
		Price:       entity.Price,
		ImageURL:    entity.ImageURL,
		Stock:       entity.Stock,
		IsActive:    entity.IsActive,
		CreatedAt:   entity.CreatedAt,
	}
}

func (ProductConverter) ToEntity(model *ProductModel) *domain.Product {
	return &domain.Product{
		ID:          model.ID,
		Slug:        model.Slug,
		Name:        model.Name,
		Description: model.Description,
		Price:       model.Price,
		ImageURL:    model.ImageURL,
		Stock:       model.Stock,
		IsActive:    model.IsActive,
		CreatedAt:   model.CreatedAt,
	}
}

func (c ProductConverter) ToArrEntity(models []ProductModel) []domain.Product {
	res := make([]domain.Product, 0, len(models))
	for i := range models {
		res = append(res, *c.ToEntity(&models[i]))
	}
	return res
}

// OrderConverter преобразует Order между domain и моделью PostgreSQL.
// Снимок покупателя хранится в JSONB.
type OrderConverter struct{}

func (OrderConverter) ToModel(entity *domain.Order) (*OrderModel, error) {
	customer, err := json.Marshal(entity.Customer)
	if err != nil {
		return nil, err
	}

	return &OrderModel{
		ID:              entity.ID,
		GatewayRef:      entity.GatewayRef,
		Amount:          entity.Amount,
		Currency:        entity.Currency,
		Status:          entity.Status.String(),
		PaymentMethod:   string(entity.PaymentMethod),
		CustomerDetails: customer,
		TrackingID:      entity.TrackingRef,
		ShippedAt:       entity.ShippedAt,
		DeliveredAt:     entity.DeliveredAt,
		CreatedAt:       entity.CreatedAt,
	}, nil
}

// ToEntity собирает заказ. Нераспознанный статус становится domain.StatusUnknown.
func (OrderConverter) ToEntity(model *OrderModel, items []OrderItemModel) (*domain.Order, error) {
	var customer domain.CustomerSnapshot
	if len(model.CustomerDetails) > 0 {
		if err := json.Unmarshal(model.CustomerDetails, &customer); err != nil {
			return nil, err
		}
	}

	order := &domain.Order{
		ID:            model.ID,
		GatewayRef:    model.GatewayRef,
		Amount:        model.Amount,
		Currency:      model.Currency,
		Status:        domain.ParseOrderStatus(model.Status),
		PaymentMethod: domain.PaymentMethod(model.PaymentMethod),
		Customer:      customer,
		TrackingRef:   model.TrackingID,
		ShippedAt:     model.ShippedAt,
		DeliveredAt:   model.DeliveredAt,
		CreatedAt:     model.CreatedAt,
		Items:         make([]domain.OrderItem, 0, len(items)),
	}

	for _, it := range items {
		item := domain.OrderItem{
			ID:              it.ID,
			OrderID:         it.OrderID,
			ProductID:       it.ProductID,
			Quantity:        it.Quantity,
			PriceAtPurchase: it.PriceAtPurchase,
		}
		if it.ProductName != nil {
			item.ProductName = *it.ProductName
		}
		if it.ProductImageURL != nil {
			item.ProductImageURL = *it.ProductImageURL
		}
		order.Items = append(order.Items, item)
	}

	return order, nil
}

// OutboxEventConverter преобразует OutboxEvent между usecase и моделью PostgreSQL.
type OutboxEventConverter struct{}

func (OutboxEventConverter) ToModel(entity *usecase.OutboxEvent) *OutboxEventModel {
	return &OutboxEventModel{
		ID:          entity.ID,
		EventID:     entity.EventID,
		EventType:   entity.EventType,
		AggregateID: entity.AggregateID,
		Payload:     entity.Payload,
		Status:      string(entity.Status),
		Attempts:    entity.Attempts,
		CreatedAt:   entity.CreatedAt,
		ProcessedAt: entity.ProcessedAt,
	}
}

func (OutboxEventConverter) ToEntity(model *OutboxEventModel) *usecase.OutboxEvent {
	return &usecase.OutboxEvent{
		ID:          model.ID,
		EventID:     model.EventID,
		EventType:   model.EventType,
		AggregateID: model.AggregateID,
		Payload:     model.Payload,
		Status:      usecase.OutboxStatus(model.Status),
		Attempts:    model.Attempts,
		CreatedAt:   model.CreatedAt,
		ProcessedAt: model.ProcessedAt,
	}
}

func (c OutboxEventConverter) ToArrEntity(models []*OutboxEventModel) []*usecase.OutboxEvent {
	res := make([]*usecase.OutboxEvent, 0, len(models))
	for _, m := range models {
		res = append(res, c.ToEntity(m))
	}
	return res
}
