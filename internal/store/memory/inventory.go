package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/fekuna/omnipos-order-service/internal/apperror"
	"github.com/fekuna/omnipos-order-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-order-service/internal/model"
)

type inventoryRepo struct{ v *view }

func (r *inventoryRepo) CreateItem(ctx context.Context, item *model.Item) error {
	return r.v.write(func(st *state) error {
		for _, it := range st.items {
			if it.BusinessID == item.BusinessID && it.SKU == item.SKU {
				return apperror.Conflict("sku %s already exists", item.SKU)
			}
		}
		now := r.v.now()
		item.ID = st.nextID()
		item.CreatedAt, item.UpdatedAt = now, now
		st.items[item.ID] = *item
		return nil
	})
}

func (r *inventoryRepo) GetItem(ctx context.Context, businessID string, id int64) (*model.Item, error) {
	var out *model.Item
	r.v.read(func(st *state) {
		if it, ok := st.items[id]; ok && it.BusinessID == businessID {
			out = &it
		}
	})
	return out, nil
}

func (r *inventoryRepo) GetItems(ctx context.Context, businessID string, ids []int64) ([]model.Item, error) {
	var out []model.Item
	r.v.read(func(st *state) {
		for _, id := range ids {
			if it, ok := st.items[id]; ok && it.BusinessID == businessID && !slices.ContainsFunc(out, func(x model.Item) bool { return x.ID == id }) {
				out = append(out, it)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *inventoryRepo) ListItems(ctx context.Context, f *dto.ItemFilters) ([]model.Item, int, error) {
	var out []model.Item
	search := strings.ToLower(f.Search)
	r.v.read(func(st *state) {
		for _, it := range st.items {
			if it.BusinessID != f.BusinessID {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(it.Name), search) && !strings.Contains(strings.ToLower(it.SKU), search) {
				continue
			}
			if f.Category != "" && (it.Category == nil || *it.Category != f.Category) {
				continue
			}
			if f.Status != "" && it.Status != f.Status {
				continue
			}
			if f.LowStock && !it.IsLowStock() {
				continue
			}
			out = append(out, it)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, f.Page, f.PageSize), len(out), nil
}

func (r *inventoryRepo) IsSKUTaken(ctx context.Context, businessID, sku string) (bool, error) {
	taken := false
	r.v.read(func(st *state) {
		for _, it := range st.items {
			if it.BusinessID == businessID && it.SKU == sku {
				taken = true
				return
			}
		}
	})
	return taken, nil
}

func (r *inventoryRepo) LockItem(ctx context.Context, businessID string, id int64) (*model.Item, error) {
	return r.GetItem(ctx, businessID, id)
}

func (r *inventoryRepo) LockItems(ctx context.Context, businessID string, ids []int64) ([]model.Item, error) {
	return r.GetItems(ctx, businessID, ids)
}

func (r *inventoryRepo) UpdateItemStock(ctx context.Context, item *model.Item) error {
	return r.v.write(func(st *state) error {
		cur, ok := st.items[item.ID]
		if !ok || cur.BusinessID != item.BusinessID {
			return apperror.NotFound("item", item.ID)
		}
		cur.TotalStock = item.TotalStock
		cur.ReservedStock = item.ReservedStock
		cur.UpdatedAt = r.v.now()
		item.UpdatedAt = cur.UpdatedAt
		st.items[item.ID] = cur
		return nil
	})
}

func (r *inventoryRepo) CreateStockEntry(ctx context.Context, e *model.StockEntry) error {
	return r.v.write(func(st *state) error {
		now := r.v.now()
		e.ID = st.nextID()
		e.CreatedAt, e.UpdatedAt = now, now
		st.entries[e.ID] = *e
		return nil
	})
}

func (r *inventoryRepo) ListStockEntries(ctx context.Context, f *dto.StockEntryFilters) ([]model.StockEntry, int, error) {
	var out []model.StockEntry
	r.v.read(func(st *state) {
		for _, e := range st.entries {
			if e.BusinessID != f.BusinessID || (f.ItemID != 0 && e.ItemID != f.ItemID) {
				continue
			}
			if f.Type != "" && e.Type != f.Type {
				continue
			}
			if f.StartDate != nil && e.CreatedAt.Before(*f.StartDate) {
				continue
			}
			if f.EndDate != nil && e.CreatedAt.After(*f.EndDate) {
				continue
			}
			out = append(out, e)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, f.Page, f.PageSize), len(out), nil
}

func (r *inventoryRepo) CreateReservation(ctx context.Context, res *model.Reservation) error {
	return r.v.write(func(st *state) error {
		now := r.v.now()
		res.ID = st.nextID()
		res.CreatedAt, res.UpdatedAt = now, now
		st.reservations[res.ID] = *res
		return nil
	})
}

func (r *inventoryRepo) GetReservation(ctx context.Context, businessID string, id int64) (*model.Reservation, error) {
	var out *model.Reservation
	r.v.read(func(st *state) {
		if res, ok := st.reservations[id]; ok && res.BusinessID == businessID {
			out = &res
		}
	})
	return out, nil
}

func (r *inventoryRepo) UpdateReservation(ctx context.Context, res *model.Reservation) error {
	return r.v.write(func(st *state) error {
		cur, ok := st.reservations[res.ID]
		if !ok || cur.BusinessID != res.BusinessID {
			return apperror.NotFound("reservation", res.ID)
		}
		res.UpdatedAt = r.v.now()
		res.CreatedAt = cur.CreatedAt
		st.reservations[res.ID] = *res
		return nil
	})
}

func (r *inventoryRepo) filterReservations(keep func(model.Reservation) bool) []model.Reservation {
	var out []model.Reservation
	r.v.read(func(st *state) {
		for _, res := range st.reservations {
			if keep(res) {
				out = append(out, res)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *inventoryRepo) ListActiveReservations(ctx context.Context, businessID string, itemID int64) ([]model.Reservation, error) {
	return r.filterReservations(func(res model.Reservation) bool {
		return res.BusinessID == businessID && res.ItemID == itemID && res.Status == model.ReservationActive
	}), nil
}

func (r *inventoryRepo) ListReservationsByOrderItems(ctx context.Context, businessID string, orderItemIDs []int64) ([]model.Reservation, error) {
	return r.filterReservations(func(res model.Reservation) bool {
		return res.BusinessID == businessID && res.OrderItemID != nil && slices.Contains(orderItemIDs, *res.OrderItemID)
	}), nil
}

func (r *inventoryRepo) ListReservations(ctx context.Context, f *dto.ReservationFilters) ([]model.Reservation, int, error) {
	out := r.filterReservations(func(res model.Reservation) bool {
		if res.BusinessID != f.BusinessID || (f.ItemID != 0 && res.ItemID != f.ItemID) {
			return false
		}
		if f.Status != "" && res.Status != f.Status {
			return false
		}
		return f.Reference == "" || (res.Reference != nil && *res.Reference == f.Reference)
	})
	return paginate(out, f.Page, f.PageSize), len(out), nil
}

func (r *inventoryRepo) ListExpiredReservations(ctx context.Context, businessID string, now time.Time) ([]model.Reservation, error) {
	return r.filterReservations(func(res model.Reservation) bool {
		return res.BusinessID == businessID && res.Status == model.ReservationActive && res.IsExpired(now)
	}), nil
}

func (r *inventoryRepo) BusinessesWithExpiredReservations(ctx context.Context, now time.Time) ([]string, error) {
	seen := map[string]struct{}{}
	for _, res := range r.filterReservations(func(res model.Reservation) bool {
		return res.Status == model.ReservationActive && res.IsExpired(now)
	}) {
		seen[res.BusinessID] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}
