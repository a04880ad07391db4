package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/fekuna/omnipos-order-service/internal/apperror"
	"github.com/fekuna/omnipos-order-service/internal/model"
	"github.com/fekuna/omnipos-order-service/internal/order/dto"
)

type orderRepo struct{ v *view }

func (r *orderRepo) Create(ctx context.Context, o *model.Order) error {
	return r.v.write(func(st *state) error {
		for _, existing := range st.orders {
			if existing.BusinessID == o.BusinessID && existing.OrderNumber == o.OrderNumber {
				return apperror.Conflict("order number %s already exists", o.OrderNumber)
			}
		}
		now := r.v.now()
		o.ID = st.nextID()
		o.CreatedAt, o.UpdatedAt = now, now
		row := *o
		row.Items = nil
		st.orders[o.ID] = row
		return nil
	})
}

func (r *orderRepo) GetByID(ctx context.Context, businessID string, id int64) (*model.Order, error) {
	var out *model.Order
	r.v.read(func(st *state) {
		if o, ok := st.orders[id]; ok && o.BusinessID == businessID {
			out = &o
		}
	})
	return out, nil
}

func (r *orderRepo) Lock(ctx context.Context, businessID string, id int64) (*model.Order, error) {
	return r.GetByID(ctx, businessID, id)
}

func (r *orderRepo) UpdateStatus(ctx context.Context, o *model.Order) error {
	return r.v.write(func(st *state) error {
		cur, ok := st.orders[o.ID]
		if !ok || cur.BusinessID != o.BusinessID {
			return apperror.NotFound("order", o.ID)
		}
		cur.Status = o.Status
		cur.DeliveredAt = o.DeliveredAt
		cur.CancelledAt = o.CancelledAt
		cur.CancellationReason = o.CancellationReason
		cur.UpdatedAt = r.v.now()
		o.UpdatedAt = cur.UpdatedAt
		st.orders[o.ID] = cur
		return nil
	})
}

func (r *orderRepo) List(ctx context.Context, f *dto.OrderFilters) ([]model.Order, int, error) {
	var out []model.Order
	r.v.read(func(st *state) {
		for _, o := range st.orders {
			if o.BusinessID != f.BusinessID {
				continue
			}
			if f.Status != "" && o.Status != f.Status {
				continue
			}
			if f.CustomerID != 0 && o.CustomerID != f.CustomerID {
				continue
			}
			if f.Search != "" && !strings.HasPrefix(o.OrderNumber, f.Search) {
				continue
			}
			if f.From != nil && o.CreatedAt.Before(*f.From) {
				continue
			}
			if f.To != nil && o.CreatedAt.After(*f.To) {
				continue
			}
			out = append(out, o)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, f.Page, f.PageSize), len(out), nil
}

func (r *orderRepo) CreateItem(ctx context.Context, item *model.OrderItem) error {
	return r.v.write(func(st *state) error {
		now := r.v.now()
		item.ID = st.nextID()
		item.CreatedAt, item.UpdatedAt = now, now
		st.orderItems[item.ID] = *item
		return nil
	})
}

func (r *orderRepo) ListItems(ctx context.Context, businessID string, orderID int64) ([]model.OrderItem, error) {
	var out []model.OrderItem
	r.v.read(func(st *state) {
		for _, it := range st.orderItems {
			if it.BusinessID == businessID && it.OrderID == orderID {
				out = append(out, it)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *orderRepo) GetItems(ctx context.Context, businessID string, ids []int64) ([]model.OrderItem, error) {
	var out []model.OrderItem
	r.v.read(func(st *state) {
		for _, id := range ids {
			if it, ok := st.orderItems[id]; ok && it.BusinessID == businessID {
				out = append(out, it)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *orderRepo) UpdateItemAllocation(ctx context.Context, item *model.OrderItem) error {
	return r.v.write(func(st *state) error {
		cur, ok := st.orderItems[item.ID]
		if !ok || cur.BusinessID != item.BusinessID {
			return apperror.NotFound("order item", item.ID)
		}
		cur.ReservedQuantity = item.ReservedQuantity
		cur.FulfilledQuantity = item.FulfilledQuantity
		cur.UpdatedAt = r.v.now()
		item.UpdatedAt = cur.UpdatedAt
		st.orderItems[item.ID] = cur
		return nil
	})
}
