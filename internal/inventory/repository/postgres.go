package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-order-service/internal/apperror"
	"github.com/fekuna/omnipos-order-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-order-service/internal/model"
	"github.com/fekuna/omnipos-order-service/internal/pkg/postgres"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB sqlx.ExtContext
}

// NewPGRepository binds the repository to a pool or to an open transaction.
func NewPGRepository(db sqlx.ExtContext) *PGRepository {
	return &PGRepository{DB: db}
}

const reservationColumns = `id, business_id, item_id, order_item_id, quantity, fulfilled_quantity, type, status,
    customer_name, customer_phone, reference, notes, expected_date, expiry_date, reserved_by,
    fulfilled_at, fulfilled_by, created_at, updated_at`

func (r *PGRepository) CreateItem(ctx context.Context, item *model.Item) error {
	query := `
        INSERT INTO items (
            business_id, sku, name, model_no, description, category, brand, barcode, unit,
            cost_price, selling_price, discount_price, currency, total_stock, reserved_stock,
            minimum_stock, status, track_stock, allow_pre_order, created_by
        )
        VALUES (
            :business_id, :sku, :name, :model_no, :description, :category, :brand, :barcode, :unit,
            :cost_price, :selling_price, :discount_price, :currency, :total_stock, :reserved_stock,
            :minimum_stock, :status, :track_stock, :allow_pre_order, :created_by
        )
        RETURNING id, business_id, created_at, updated_at
    `
	if err := postgres.NamedGet(ctx, r.DB, &item.BaseModel, query, item); err != nil {
		if postgres.IsUniqueViolation(err, "items_business_sku_key") {
			return apperror.Conflict("sku %s already exists", item.SKU)
		}
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

func (r *PGRepository) GetItem(ctx context.Context, businessID string, id int64) (*model.Item, error) {
	return postgres.GetOne[model.Item](ctx, r.DB,
		`SELECT * FROM items WHERE business_id = $1 AND id = $2`, businessID, id)
}

func (r *PGRepository) GetItems(ctx context.Context, businessID string, ids []int64) ([]model.Item, error) {
	return r.selectItems(ctx, `SELECT * FROM items WHERE business_id = ? AND id IN (?) ORDER BY id`, businessID, ids)
}

func (r *PGRepository) selectItems(ctx context.Context, query string, businessID string, ids []int64) ([]model.Item, error) {
	if len(ids) == 0 {
		return []model.Item{}, nil
	}
	q, args, err := postgres.In(r.DB, query, businessID, ids)
	if err != nil {
		return nil, err
	}
	var items []model.Item
	if err := sqlx.SelectContext(ctx, r.DB, &items, q, args...); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *PGRepository) ListItems(ctx context.Context, f *dto.ItemFilters) ([]model.Item, int, error) {
	w := postgres.NewWhere().And("business_id = :business_id", "business_id", f.BusinessID)
	if f.Search != "" {
		w.And("(name ILIKE :search OR sku ILIKE :search)", "search", "%"+f.Search+"%")
	}
	if f.Category != "" {
		w.And("category = :category", "category", f.Category)
	}
	if f.Status != "" {
		w.And("status = :status", "status", f.Status)
	}
	if f.LowStock {
		w.And("total_stock <= minimum_stock AND minimum_stock > 0", "", nil)
	}

	count, err := postgres.NamedCount(ctx, r.DB, "items", w)
	if err != nil {
		return nil, 0, err
	}

	var items []model.Item
	query := "SELECT * FROM items" + w.String() + " ORDER BY id DESC" + postgres.Page(f.Page, f.PageSize)
	if err := postgres.NamedSelect(ctx, r.DB, &items, query, w.Args); err != nil {
		return nil, 0, err
	}
	return items, count, nil
}

func (r *PGRepository) IsSKUTaken(ctx context.Context, businessID, sku string) (bool, error) {
	var taken bool
	err := sqlx.GetContext(ctx, r.DB, &taken,
		`SELECT EXISTS (SELECT 1 FROM items WHERE business_id = $1 AND sku = $2)`, businessID, sku)
	return taken, err
}

func (r *PGRepository) LockItem(ctx context.Context, businessID string, id int64) (*model.Item, error) {
	return postgres.GetOne[model.Item](ctx, r.DB,
		`SELECT * FROM items WHERE business_id = $1 AND id = $2 FOR UPDATE`, businessID, id)
}

// LockItems takes the row locks in id order so concurrent orders over the
// same items cannot deadlock.
func (r *PGRepository) LockItems(ctx context.Context, businessID string, ids []int64) ([]model.Item, error) {
	return r.selectItems(ctx, `SELECT * FROM items WHERE business_id = ? AND id IN (?) ORDER BY id FOR UPDATE`, businessID, ids)
}

func (r *PGRepository) UpdateItemStock(ctx context.Context, item *model.Item) error {
	query := `
        UPDATE items
        SET total_stock = :total_stock, reserved_stock = :reserved_stock, updated_at = NOW()
        WHERE business_id = :business_id AND id = :id
        RETURNING updated_at
    `
	if err := postgres.NamedGet(ctx, r.DB, &item.UpdatedAt, query, item); err != nil {
		return notFoundOr(err, "item", item.ID)
	}
	return nil
}

func (r *PGRepository) CreateStockEntry(ctx context.Context, e *model.StockEntry) error {
	query := `
        INSERT INTO stock_entries (
            business_id, item_id, type, quantity, previous_stock, new_stock, unit_cost, reference,
            notes, supplier, batch_number, expiry_date, status, processed_by, processed_at
        )
        VALUES (
            :business_id, :item_id, :type, :quantity, :previous_stock, :new_stock, :unit_cost, :reference,
            :notes, :supplier, :batch_number, :expiry_date, :status, :processed_by, :processed_at
        )
        RETURNING id, business_id, created_at, updated_at
    `
	if err := postgres.NamedGet(ctx, r.DB, &e.BaseModel, query, e); err != nil {
		return fmt.Errorf("insert stock entry: %w", err)
	}
	return nil
}

func (r *PGRepository) ListStockEntries(ctx context.Context, f *dto.StockEntryFilters) ([]model.StockEntry, int, error) {
	w := postgres.NewWhere().And("business_id = :business_id", "business_id", f.BusinessID)
	if f.ItemID != 0 {
		w.And("item_id = :item_id", "item_id", f.ItemID)
	}
	if f.Type != "" {
		w.And("type = :type", "type", f.Type)
	}
	if f.StartDate != nil {
		w.And("created_at >= :start_date", "start_date", *f.StartDate)
	}
	if f.EndDate != nil {
		w.And("created_at <= :end_date", "end_date", *f.EndDate)
	}

	count, err := postgres.NamedCount(ctx, r.DB, "stock_entries", w)
	if err != nil {
		return nil, 0, err
	}

	var entries []model.StockEntry
	query := "SELECT * FROM stock_entries" + w.String() + " ORDER BY created_at DESC, id DESC" + postgres.Page(f.Page, f.PageSize)
	if err := postgres.NamedSelect(ctx, r.DB, &entries, query, w.Args); err != nil {
		return nil, 0, err
	}
	return entries, count, nil
}

func (r *PGRepository) CreateReservation(ctx context.Context, res *model.Reservation) error {
	query := `
        INSERT INTO reservations (
            business_id, item_id, order_item_id, quantity, fulfilled_quantity, type, status,
            customer_name, customer_phone, reference, notes, expected_date, expiry_date,
            reserved_by, fulfilled_at, fulfilled_by
        )
        VALUES (
            :business_id, :item_id, :order_item_id, :quantity, :fulfilled_quantity, :type, :status,
            :customer_name, :customer_phone, :reference, :notes, :expected_date, :expiry_date,
            :reserved_by, :fulfilled_at, :fulfilled_by
        )
        RETURNING id, business_id, created_at, updated_at
    `
	if err := postgres.NamedGet(ctx, r.DB, &res.BaseModel, query, res); err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

func (r *PGRepository) GetReservation(ctx context.Context, businessID string, id int64) (*model.Reservation, error) {
	return postgres.GetOne[model.Reservation](ctx, r.DB,
		`SELECT `+reservationColumns+` FROM reservations WHERE business_id = $1 AND id = $2`, businessID, id)
}

func (r *PGRepository) UpdateReservation(ctx context.Context, res *model.Reservation) error {
	query := `
        UPDATE reservations
        SET fulfilled_quantity = :fulfilled_quantity, status = :status, notes = :notes,
            fulfilled_at = :fulfilled_at, fulfilled_by = :fulfilled_by, updated_at = NOW()
        WHERE business_id = :business_id AND id = :id
        RETURNING updated_at
    `
	if err := postgres.NamedGet(ctx, r.DB, &res.UpdatedAt, query, res); err != nil {
		return notFoundOr(err, "reservation", res.ID)
	}
	return nil
}

// ListActiveReservations returns the item's Active reservations in
// allocation order, oldest first with ties broken by id.
func (r *PGRepository) ListActiveReservations(ctx context.Context, businessID string, itemID int64) ([]model.Reservation, error) {
	var out []model.Reservation
	err := sqlx.SelectContext(ctx, r.DB, &out,
		`SELECT `+reservationColumns+` FROM reservations
        WHERE business_id = $1 AND item_id = $2 AND status = 'Active'
        ORDER BY created_at ASC, id ASC
        FOR UPDATE`, businessID, itemID)
	return out, err
}

func (r *PGRepository) ListReservationsByOrderItems(ctx context.Context, businessID string, orderItemIDs []int64) ([]model.Reservation, error) {
	if len(orderItemIDs) == 0 {
		return []model.Reservation{}, nil
	}
	q, args, err := postgres.In(r.DB,
		`SELECT `+reservationColumns+` FROM reservations
        WHERE business_id = ? AND order_item_id IN (?)
        ORDER BY created_at ASC, id ASC
        FOR UPDATE`, businessID, orderItemIDs)
	if err != nil {
		return nil, err
	}
	var out []model.Reservation
	err = sqlx.SelectContext(ctx, r.DB, &out, q, args...)
	return out, err
}

func (r *PGRepository) ListReservations(ctx context.Context, f *dto.ReservationFilters) ([]model.Reservation, int, error) {
	w := postgres.NewWhere().And("business_id = :business_id", "business_id", f.BusinessID)
	if f.ItemID != 0 {
		w.And("item_id = :item_id", "item_id", f.ItemID)
	}
	if f.Status != "" {
		w.And("status = :status", "status", f.Status)
	}
	if f.Reference != "" {
		w.And("reference = :reference", "reference", f.Reference)
	}

	count, err := postgres.NamedCount(ctx, r.DB, "reservations", w)
	if err != nil {
		return nil, 0, err
	}

	var out []model.Reservation
	query := "SELECT " + reservationColumns + " FROM reservations" + w.String() + " ORDER BY created_at ASC, id ASC" + postgres.Page(f.Page, f.PageSize)
	if err := postgres.NamedSelect(ctx, r.DB, &out, query, w.Args); err != nil {
		return nil, 0, err
	}
	return out, count, nil
}

func (r *PGRepository) ListExpiredReservations(ctx context.Context, businessID string, now time.Time) ([]model.Reservation, error) {
	var out []model.Reservation
	err := sqlx.SelectContext(ctx, r.DB, &out,
		`SELECT `+reservationColumns+` FROM reservations
        WHERE business_id = $1 AND status = 'Active' AND expiry_date IS NOT NULL AND expiry_date < $2
        ORDER BY item_id, created_at, id`, businessID, now)
	return out, err
}

func (r *PGRepository) BusinessesWithExpiredReservations(ctx context.Context, now time.Time) ([]string, error) {
	var out []string
	err := sqlx.SelectContext(ctx, r.DB, &out,
		`SELECT DISTINCT business_id FROM reservations
        WHERE status = 'Active' AND expiry_date IS NOT NULL AND expiry_date < $1
        ORDER BY business_id`, now)
	return out, err
}

func notFoundOr(err error, entity string, id int64) error {
	if postgres.IsNoRows(err) {
		return apperror.NotFound(entity, id)
	}
	return fmt.Errorf("update %s: %w", entity, err)
}
