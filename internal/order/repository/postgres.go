package repository

import (
	"context"
	"fmt"

	"github.com/fekuna/omnipos-order-service/internal/apperror"
	"github.com/fekuna/omnipos-order-service/internal/model"
	"github.com/fekuna/omnipos-order-service/internal/order/dto"
	"github.com/fekuna/omnipos-order-service/internal/pkg/postgres"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB sqlx.ExtContext
}

func NewPGRepository(db sqlx.ExtContext) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, o *model.Order) error {
	query := `
        INSERT INTO orders (
            business_id, order_number, customer_id, type, status, subtotal, tax_amount,
            discount_amount, shipping_amount, total, currency, is_pre_order, notes,
            delivery_address, expected_delivery_date, created_by
        )
        VALUES (
            :business_id, :order_number, :customer_id, :type, :status, :subtotal, :tax_amount,
            :discount_amount, :shipping_amount, :total, :currency, :is_pre_order, :notes,
            :delivery_address, :expected_delivery_date, :created_by
        )
        RETURNING id, business_id, created_at, updated_at
    `
	if err := postgres.NamedGet(ctx, r.DB, &o.BaseModel, query, o); err != nil {
		if postgres.IsUniqueViolation(err, "orders_business_number_key") {
			return apperror.Conflict("order number %s already exists", o.OrderNumber)
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *PGRepository) GetByID(ctx context.Context, businessID string, id int64) (*model.Order, error) {
	return postgres.GetOne[model.Order](ctx, r.DB,
		`SELECT * FROM orders WHERE business_id = $1 AND id = $2`, businessID, id)
}

func (r *PGRepository) Lock(ctx context.Context, businessID string, id int64) (*model.Order, error) {
	return postgres.GetOne[model.Order](ctx, r.DB,
		`SELECT * FROM orders WHERE business_id = $1 AND id = $2 FOR UPDATE`, businessID, id)
}

func (r *PGRepository) UpdateStatus(ctx context.Context, o *model.Order) error {
	query := `
        UPDATE orders
        SET status = :status, delivered_at = :delivered_at, cancelled_at = :cancelled_at,
            cancellation_reason = :cancellation_reason, updated_at = NOW()
        WHERE business_id = :business_id AND id = :id
        RETURNING updated_at
    `
	if err := postgres.NamedGet(ctx, r.DB, &o.UpdatedAt, query, o); err != nil {
		if postgres.IsNoRows(err) {
			return apperror.NotFound("order", o.ID)
		}
		return fmt.Errorf("update order: %w", err)
	}
	return nil
}

func (r *PGRepository) List(ctx context.Context, f *dto.OrderFilters) ([]model.Order, int, error) {
	w := postgres.NewWhere().And("business_id = :business_id", "business_id", f.BusinessID)
	if f.Status != "" {
		w.And("status = :status", "status", f.Status)
	}
	if f.CustomerID != 0 {
		w.And("customer_id = :customer_id", "customer_id", f.CustomerID)
	}
	if f.Search != "" {
		w.And("order_number LIKE :search", "search", f.Search+"%")
	}
	if f.From != nil {
		w.And("created_at >= :from", "from", *f.From)
	}
	if f.To != nil {
		w.And("created_at <= :to", "to", *f.To)
	}

	count, err := postgres.NamedCount(ctx, r.DB, "orders", w)
	if err != nil {
		return nil, 0, err
	}

	var orders []model.Order
	query := "SELECT * FROM orders" + w.String() + " ORDER BY id DESC" + postgres.Page(f.Page, f.PageSize)
	if err := postgres.NamedSelect(ctx, r.DB, &orders, query, w.Args); err != nil {
		return nil, 0, err
	}
	return orders, count, nil
}

func (r *PGRepository) CreateItem(ctx context.Context, item *model.OrderItem) error {
	query := `
        INSERT INTO order_items (
            business_id, order_id, item_id, item_sku, item_name, quantity, unit_price,
            discount_amount, line_total, currency, is_pre_order, reserved_quantity,
            fulfilled_quantity, notes
        )
        VALUES (
            :business_id, :order_id, :item_id, :item_sku, :item_name, :quantity, :unit_price,
            :discount_amount, :line_total, :currency, :is_pre_order, :reserved_quantity,
            :fulfilled_quantity, :notes
        )
        RETURNING id, business_id, created_at, updated_at
    `
	if err := postgres.NamedGet(ctx, r.DB, &item.BaseModel, query, item); err != nil {
		return fmt.Errorf("insert order item: %w", err)
	}
	return nil
}

func (r *PGRepository) ListItems(ctx context.Context, businessID string, orderID int64) ([]model.OrderItem, error) {
	var items []model.OrderItem
	err := sqlx.SelectContext(ctx, r.DB, &items,
		`SELECT * FROM order_items WHERE business_id = $1 AND order_id = $2 ORDER BY id`, businessID, orderID)
	return items, err
}

func (r *PGRepository) GetItems(ctx context.Context, businessID string, ids []int64) ([]model.OrderItem, error) {
	if len(ids) == 0 {
		return []model.OrderItem{}, nil
	}
	q, args, err := postgres.In(r.DB,
		`SELECT * FROM order_items WHERE business_id = ? AND id IN (?) ORDER BY id FOR UPDATE`, businessID, ids)
	if err != nil {
		return nil, err
	}
	var items []model.OrderItem
	err = sqlx.SelectContext(ctx, r.DB, &items, q, args...)
	return items, err
}

func (r *PGRepository) UpdateItemAllocation(ctx context.Context, item *model.OrderItem) error {
	query := `
        UPDATE order_items
        SET reserved_quantity = :reserved_quantity, fulfilled_quantity = :fulfilled_quantity, updated_at = NOW()
        WHERE business_id = :business_id AND id = :id
        RETURNING updated_at
    `
	if err := postgres.NamedGet(ctx, r.DB, &item.UpdatedAt, query, item); err != nil {
		if postgres.IsNoRows(err) {
			return apperror.NotFound("order item", item.ID)
		}
		return fmt.Errorf("update order item: %w", err)
	}
	return nil
}
