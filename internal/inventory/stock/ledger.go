// Package stock runs the stock ledger and the reservation allocator against a
// unit of work. Callers must hold the item row lock (Repository.LockItem or
// LockItems) in the same transaction before calling any Ledger method.
package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-order-service/internal/apperror"
	"github.com/fekuna/omnipos-order-service/internal/inventory/allocator"
	"github.com/fekuna/omnipos-order-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-order-service/internal/model"
	"github.com/fekuna/omnipos-order-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-order-service/internal/store"
	"go.uber.org/zap"
)

// Movement describes one signed change of an item's physical stock.
type Movement struct {
	Type        model.StockEntryType
	Quantity    int64
	UnitCost    *int64
	Reference   *string
	Notes       *string
	Supplier    *string
	BatchNumber *string
	ExpiryDate  *time.Time
	// ReleaseReserved consumes previously committed units together with a
	// decrease, so a sale of reserved goods leaves availability unchanged.
	ReleaseReserved bool
	Actor           *string
}

// Hold is the outcome of reserving stock for one consumer.
type Hold struct {
	Plan allocator.Plan
	// Reservation is set when a record was persisted for the request.
	Reservation *model.Reservation
}

type Ledger struct {
	logger logger.ZapLogger
}

func NewLedger(log logger.ZapLogger) *Ledger {
	return &Ledger{logger: log}
}

// Adjust books m against item, persists the stock entry and replays waiting
// reservations when stock increased. item is updated in place.
func (l *Ledger) Adjust(ctx context.Context, tx store.Tx, item *model.Item, m Movement, now time.Time) (*model.StockEntry, []dto.Fulfillment, error) {
	if m.ReleaseReserved && m.Quantity < 0 {
		allocator.Release(item, -m.Quantity)
	}

	snap, err := allocator.Adjust(*item, m.Type, m.Quantity)
	if err != nil {
		return nil, nil, err
	}

	entry := &model.StockEntry{
		BaseModel:     model.BaseModel{BusinessID: item.BusinessID},
		ItemID:        item.ID,
		Type:          m.Type,
		Quantity:      m.Quantity,
		PreviousStock: snap.PreviousStock,
		NewStock:      snap.NewStock,
		UnitCost:      m.UnitCost,
		Reference:     m.Reference,
		Notes:         m.Notes,
		Supplier:      m.Supplier,
		BatchNumber:   m.BatchNumber,
		ExpiryDate:    m.ExpiryDate,
		Status:        model.StockEntryStatusCompleted,
		ProcessedBy:   m.Actor,
		ProcessedAt:   &now,
	}
	if err := tx.Inventory().CreateStockEntry(ctx, entry); err != nil {
		return nil, nil, fmt.Errorf("create stock entry: %w", err)
	}

	item.TotalStock = snap.NewStock
	item.ReservedStock = snap.ReservedStock

	var fulfilled []dto.Fulfillment
	if m.Quantity > 0 && item.TrackStock {
		fulfilled, err = l.replay(ctx, tx, item, now, m.Actor)
		if err != nil {
			return nil, nil, err
		}
	}

	if err := tx.Inventory().UpdateItemStock(ctx, item); err != nil {
		return nil, nil, fmt.Errorf("update item stock: %w", err)
	}

	l.logger.Debug("stock adjusted",
		zap.String("business_id", item.BusinessID),
		zap.Int64("item_id", item.ID),
		zap.String("type", string(m.Type)),
		zap.Int64("quantity", m.Quantity),
		zap.Int64("previous_stock", snap.PreviousStock),
		zap.Int64("new_stock", snap.NewStock),
		zap.Int("fulfilled", len(fulfilled)),
	)
	return entry, fulfilled, nil
}

// replay hands newly available units to Active reservations oldest first and
// keeps the order lines behind them in step.
func (l *Ledger) replay(ctx context.Context, tx store.Tx, item *model.Item, now time.Time, actor *string) ([]dto.Fulfillment, error) {
	reservations, err := tx.Inventory().ListActiveReservations(ctx, item.BusinessID, item.ID)
	if err != nil {
		return nil, fmt.Errorf("list active reservations: %w", err)
	}
	if len(reservations) == 0 {
		return nil, nil
	}

	steps, committed := allocator.Replay(item.AvailableStock(), reservations, now, actor)
	if len(steps) == 0 {
		return nil, nil
	}
	item.ReservedStock += committed

	byID := make(map[int64]*model.Reservation, len(reservations))
	for i := range reservations {
		byID[reservations[i].ID] = &reservations[i]
	}

	var (
		out      = make([]dto.Fulfillment, 0, len(steps))
		lineIDs  []int64
		lineQtys = map[int64]int64{}
	)
	for _, step := range steps {
		if err := tx.Inventory().UpdateReservation(ctx, byID[step.ReservationID]); err != nil {
			return nil, fmt.Errorf("update reservation %d: %w", step.ReservationID, err)
		}
		if step.OrderItemID != nil {
			if _, seen := lineQtys[*step.OrderItemID]; !seen {
				lineIDs = append(lineIDs, *step.OrderItemID)
			}
			lineQtys[*step.OrderItemID] += step.Quantity
		}
		out = append(out, dto.Fulfillment{
			ReservationID: step.ReservationID,
			OrderItemID:   step.OrderItemID,
			Quantity:      step.Quantity,
			Completed:     step.Completed,
		})
	}

	if len(lineIDs) > 0 {
		lines, err := tx.Orders().GetItems(ctx, item.BusinessID, lineIDs)
		if err != nil {
			return nil, fmt.Errorf("load order lines: %w", err)
		}
		for i := range lines {
			line := &lines[i]
			qty := lineQtys[line.ID]
			line.ReservedQuantity = min(line.ReservedQuantity+qty, line.Quantity)
			line.FulfilledQuantity = min(line.FulfilledQuantity+qty, line.Quantity)
			if err := tx.Orders().UpdateItemAllocation(ctx, line); err != nil {
				return nil, fmt.Errorf("update order line %d: %w", line.ID, err)
			}
		}
	}

	l.logger.Info("reservations fulfilled from new stock",
		zap.String("business_id", item.BusinessID),
		zap.Int64("item_id", item.ID),
		zap.Int64("committed", committed),
		zap.Int("reservations", len(out)),
	)
	return out, nil
}

// Reserve commits what current stock covers of quantity and, when a shortfall
// remains, persists an Active reservation for it. tmpl carries the
// reservation metadata; its quantity fields are ignored.
//
// With standalone set the reservation records the whole request (covered
// part included, Fulfilled when nothing is short). Otherwise only a
// shortfall is persisted, as a reservation for the missing units.
func (l *Ledger) Reserve(ctx context.Context, tx store.Tx, item *model.Item, quantity int64, tmpl model.Reservation, standalone bool, now time.Time) (*Hold, error) {
	plan, err := allocator.Reserve(*item, quantity)
	if err != nil {
		return nil, err
	}
	allocator.Commit(item, plan)

	hold := &Hold{Plan: plan}
	if standalone || !plan.FullyCovered() {
		r := tmpl
		r.BusinessID = item.BusinessID
		r.ItemID = item.ID
		r.Status = model.ReservationActive
		if standalone {
			r.Quantity = plan.Requested
			r.FulfilledQuantity = plan.Covered
		} else {
			r.Quantity = plan.Shortfall
		}
		if r.IsFullyFulfilled() {
			r.Status = model.ReservationFulfilled
			r.FulfilledAt = &now
			r.FulfilledBy = r.ReservedBy
		}
		if err := tx.Inventory().CreateReservation(ctx, &r); err != nil {
			return nil, fmt.Errorf("create reservation: %w", err)
		}
		hold.Reservation = &r
	}

	if plan.Covered > 0 && item.TrackStock {
		if err := tx.Inventory().UpdateItemStock(ctx, item); err != nil {
			return nil, fmt.Errorf("update item stock: %w", err)
		}
	}
	return hold, nil
}

// Close ends an Active reservation as Cancelled or Expired and gives back
// the units it already holds. With release unset the units stay committed,
// for reservations whose units are accounted on an order line.
func (l *Ledger) Close(ctx context.Context, tx store.Tx, item *model.Item, r *model.Reservation, status model.ReservationStatus, note string, release bool) error {
	if r.Status != model.ReservationActive {
		return apperror.InvalidTransition("reservation", string(r.Status), string(status))
	}
	r.Status = status
	if note != "" {
		r.Notes = appendNote(r.Notes, note)
	}
	if err := tx.Inventory().UpdateReservation(ctx, r); err != nil {
		return fmt.Errorf("update reservation %d: %w", r.ID, err)
	}

	if release && r.FulfilledQuantity > 0 && item.TrackStock {
		allocator.Release(item, r.FulfilledQuantity)
		if err := tx.Inventory().UpdateItemStock(ctx, item); err != nil {
			return fmt.Errorf("update item stock: %w", err)
		}
	}
	return nil
}

// Unreserve gives back quantity committed units without closing anything.
func (l *Ledger) Unreserve(ctx context.Context, tx store.Tx, item *model.Item, quantity int64) error {
	if quantity <= 0 || !item.TrackStock {
		return nil
	}
	allocator.Release(item, quantity)
	if err := tx.Inventory().UpdateItemStock(ctx, item); err != nil {
		return fmt.Errorf("update item stock: %w", err)
	}
	return nil
}

func appendNote(notes *string, line string) *string {
	if notes == nil || *notes == "" {
		return &line
	}
	joined := *notes + "\n" + line
	return &joined
}
