// Package allocator holds the stock arithmetic of the ledger and the
// reservation allocator as pure functions over model records.
package allocator

import (
	"sort"
	"time"

	"github.com/fekuna/omnipos-order-service/internal/apperror"
	"github.com/fekuna/omnipos-order-service/internal/model"
)

// Snapshot is the before/after view of one totalStock mutation.
type Snapshot struct {
	PreviousStock int64
	NewStock      int64
	// ReservedStock is the reserved counter, never above NewStock.
	ReservedStock int64
}

// Adjust validates a signed stock delta against item and computes the
// resulting counters. It does not mutate item.
func Adjust(item model.Item, entryType model.StockEntryType, delta int64) (Snapshot, error) {
	if !entryType.Valid() {
		return Snapshot{}, apperror.Validation("unknown stock entry type %q", entryType)
	}
	if delta == 0 {
		return Snapshot{}, apperror.Validation("quantity must not be zero")
	}
	if delta < 0 && !item.TrackStock && entryType != model.StockEntryAdjustment {
		return Snapshot{}, apperror.Validation("item %s does not track stock; only adjustments may decrease it", item.SKU)
	}

	next := item.TotalStock + delta
	if next < 0 {
		next = 0
	}
	// Committed units belong to reservations and order lines; a decrease may
	// only take what is still available.
	if item.TrackStock && next < item.ReservedStock {
		return Snapshot{}, apperror.Validation("item %s has %d units committed; stock cannot drop to %d",
			item.SKU, item.ReservedStock, next)
	}
	return Snapshot{PreviousStock: item.TotalStock, NewStock: next, ReservedStock: item.ReservedStock}, nil
}

// Plan is how much of a request current stock can cover.
type Plan struct {
	Requested int64
	Covered   int64
	Shortfall int64
}

func (p Plan) FullyCovered() bool { return p.Shortfall == 0 }

// Reserve plans a reservation of quantity units against item. Items that do
// not track stock are always fully covered.
func Reserve(item model.Item, quantity int64) (Plan, error) {
	if quantity <= 0 {
		return Plan{}, apperror.Validation("quantity must be positive")
	}
	if !item.TrackStock {
		return Plan{Requested: quantity, Covered: quantity}, nil
	}

	available := item.AvailableStock()
	covered := min(available, quantity)
	plan := Plan{Requested: quantity, Covered: covered, Shortfall: quantity - covered}
	if plan.Shortfall > 0 && !item.AllowPreOrder {
		return Plan{}, apperror.InsufficientStock(item.Name, available, quantity)
	}
	return plan, nil
}

// Commit applies a plan to the item's counters.
func Commit(item *model.Item, plan Plan) {
	if item.TrackStock {
		item.ReservedStock += plan.Covered
	}
}

// Release gives back units previously committed against item.
func Release(item *model.Item, quantity int64) {
	if !item.TrackStock || quantity <= 0 {
		return
	}
	item.ReservedStock -= quantity
	if item.ReservedStock < 0 {
		item.ReservedStock = 0
	}
}

// Fulfillment is one step of a replay pass.
type Fulfillment struct {
	ReservationID int64
	OrderItemID   *int64
	Quantity      int64
	Completed     bool
}

// SortFIFO orders reservations oldest first, breaking ties by id.
func SortFIFO(reservations []model.Reservation) {
	sort.SliceStable(reservations, func(i, j int) bool {
		a, b := reservations[i], reservations[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// Replay walks the active reservations of one item oldest first and hands
// each as much of available as it still needs. The slice is sorted and the
// reservations are updated in place; the returned total is the number of
// units newly committed.
func Replay(available int64, reservations []model.Reservation, now time.Time, actor *string) ([]Fulfillment, int64) {
	SortFIFO(reservations)

	var (
		steps     []Fulfillment
		committed int64
	)
	for i := range reservations {
		if available <= 0 {
			break
		}
		r := &reservations[i]
		if !r.CanFulfill(now) {
			continue
		}

		qty := min(r.RemainingQuantity(), available)
		if qty <= 0 {
			continue
		}
		r.FulfilledQuantity += qty
		r.UpdatedAt = now
		available -= qty
		committed += qty

		if r.IsFullyFulfilled() {
			r.Status = model.ReservationFulfilled
			r.FulfilledAt = &now
			r.FulfilledBy = actor
		}
		steps = append(steps, Fulfillment{
			ReservationID: r.ID,
			OrderItemID:   r.OrderItemID,
			Quantity:      qty,
			Completed:     r.Status == model.ReservationFulfilled,
		})
	}
	return steps, committed
}
