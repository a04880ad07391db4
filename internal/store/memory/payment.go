package memory

import (
	"context"
	"sort"
	"time"

	"github.com/fekuna/omnipos-order-service/internal/apperror"
	"github.com/fekuna/omnipos-order-service/internal/model"
	"github.com/fekuna/omnipos-order-service/internal/payment/dto"
)

type paymentRepo struct{ v *view }

func (r *paymentRepo) CreateInvoice(ctx context.Context, inv *model.Invoice) error {
	return r.v.write(func(st *state) error {
		for _, existing := range st.invoices {
			if existing.BusinessID != inv.BusinessID {
				continue
			}
			if existing.InvoiceNumber == inv.InvoiceNumber {
				return apperror.Conflict("invoice number %s already exists", inv.InvoiceNumber)
			}
			if existing.OrderID == inv.OrderID {
				return apperror.Conflict("order %d already has an invoice", inv.OrderID)
			}
		}
		now := r.v.now()
		inv.ID = st.nextID()
		inv.CreatedAt, inv.UpdatedAt = now, now
		st.invoices[inv.ID] = *inv
		return nil
	})
}

func (r *paymentRepo) GetInvoice(ctx context.Context, businessID string, id int64) (*model.Invoice, error) {
	var out *model.Invoice
	r.v.read(func(st *state) {
		if inv, ok := st.invoices[id]; ok && inv.BusinessID == businessID {
			out = &inv
		}
	})
	return out, nil
}

func (r *paymentRepo) GetInvoiceByOrder(ctx context.Context, businessID string, orderID int64) (*model.Invoice, error) {
	var out *model.Invoice
	r.v.read(func(st *state) {
		for _, inv := range st.invoices {
			if inv.BusinessID == businessID && inv.OrderID == orderID {
				out = &inv
				return
			}
		}
	})
	return out, nil
}

func (r *paymentRepo) LockInvoice(ctx context.Context, businessID string, id int64) (*model.Invoice, error) {
	return r.GetInvoice(ctx, businessID, id)
}

func (r *paymentRepo) UpdateInvoice(ctx context.Context, inv *model.Invoice) error {
	return r.v.write(func(st *state) error {
		cur, ok := st.invoices[inv.ID]
		if !ok || cur.BusinessID != inv.BusinessID {
			return apperror.NotFound("invoice", inv.ID)
		}
		inv.CreatedAt = cur.CreatedAt
		inv.UpdatedAt = r.v.now()
		st.invoices[inv.ID] = *inv
		return nil
	})
}

func (r *paymentRepo) ListInvoices(ctx context.Context, f *dto.InvoiceFilters) ([]model.Invoice, int, error) {
	var out []model.Invoice
	r.v.read(func(st *state) {
		for _, inv := range st.invoices {
			if inv.BusinessID != f.BusinessID {
				continue
			}
			if f.Status != "" && inv.Status != f.Status {
				continue
			}
			if f.CustomerID != 0 && inv.CustomerID != f.CustomerID {
				continue
			}
			out = append(out, inv)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, f.Page, f.PageSize), len(out), nil
}

func (r *paymentRepo) ListOverdueInvoices(ctx context.Context, businessID string, now time.Time) ([]model.Invoice, error) {
	var out []model.Invoice
	r.v.read(func(st *state) {
		for _, inv := range st.invoices {
			if inv.BusinessID == businessID && inv.IsOverdue(now) {
				out = append(out, inv)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *paymentRepo) CreatePayment(ctx context.Context, p *model.Payment) error {
	return r.v.write(func(st *state) error {
		for _, existing := range st.payments {
			if existing.BusinessID == p.BusinessID && existing.PaymentNumber == p.PaymentNumber {
				return apperror.Conflict("payment number %s already exists", p.PaymentNumber)
			}
		}
		now := r.v.now()
		p.ID = st.nextID()
		p.CreatedAt, p.UpdatedAt = now, now
		st.payments[p.ID] = *p
		return nil
	})
}

func (r *paymentRepo) GetPayment(ctx context.Context, businessID string, id int64) (*model.Payment, error) {
	var out *model.Payment
	r.v.read(func(st *state) {
		if p, ok := st.payments[id]; ok && p.BusinessID == businessID {
			out = &p
		}
	})
	return out, nil
}

func (r *paymentRepo) LockPayment(ctx context.Context, businessID string, id int64) (*model.Payment, error) {
	return r.GetPayment(ctx, businessID, id)
}

func (r *paymentRepo) UpdatePayment(ctx context.Context, p *model.Payment) error {
	return r.v.write(func(st *state) error {
		cur, ok := st.payments[p.ID]
		if !ok || cur.BusinessID != p.BusinessID {
			return apperror.NotFound("payment", p.ID)
		}
		p.CreatedAt = cur.CreatedAt
		p.UpdatedAt = r.v.now()
		st.payments[p.ID] = *p
		return nil
	})
}

func (r *paymentRepo) ListPayments(ctx context.Context, businessID string, invoiceID int64) ([]model.Payment, error) {
	var out []model.Payment
	r.v.read(func(st *state) {
		for _, p := range st.payments {
			if p.BusinessID == businessID && p.InvoiceID == invoiceID {
				out = append(out, p)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *paymentRepo) CreateSchedules(ctx context.Context, schedules []model.PaymentSchedule) error {
	return r.v.write(func(st *state) error {
		now := r.v.now()
		for i := range schedules {
			s := &schedules[i]
			for _, existing := range st.schedules {
				if existing.InvoiceID == s.InvoiceID && existing.InstallmentNumber == s.InstallmentNumber {
					return apperror.Conflict("installment %d already exists for invoice %d", s.InstallmentNumber, s.InvoiceID)
				}
			}
			s.ID = st.nextID()
			s.CreatedAt, s.UpdatedAt = now, now
			st.schedules[s.ID] = *s
		}
		return nil
	})
}

func (r *paymentRepo) filterSchedules(keep func(model.PaymentSchedule) bool) []model.PaymentSchedule {
	var out []model.PaymentSchedule
	r.v.read(func(st *state) {
		for _, s := range st.schedules {
			if keep(s) {
				out = append(out, s)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].InvoiceID != out[j].InvoiceID {
			return out[i].InvoiceID < out[j].InvoiceID
		}
		return out[i].InstallmentNumber < out[j].InstallmentNumber
	})
	return out
}

func (r *paymentRepo) ListSchedules(ctx context.Context, businessID string, invoiceID int64) ([]model.PaymentSchedule, error) {
	return r.filterSchedules(func(s model.PaymentSchedule) bool {
		return s.BusinessID == businessID && s.InvoiceID == invoiceID
	}), nil
}

func (r *paymentRepo) LockSchedules(ctx context.Context, businessID string, invoiceID int64) ([]model.PaymentSchedule, error) {
	return r.ListSchedules(ctx, businessID, invoiceID)
}

func (r *paymentRepo) UpdateSchedule(ctx context.Context, s *model.PaymentSchedule) error {
	return r.v.write(func(st *state) error {
		cur, ok := st.schedules[s.ID]
		if !ok || cur.BusinessID != s.BusinessID {
			return apperror.NotFound("payment schedule", s.ID)
		}
		s.CreatedAt = cur.CreatedAt
		s.UpdatedAt = r.v.now()
		st.schedules[s.ID] = *s
		return nil
	})
}

func (r *paymentRepo) ListOverdueSchedules(ctx context.Context, businessID string, now time.Time) ([]model.PaymentSchedule, error) {
	return r.filterSchedules(func(s model.PaymentSchedule) bool {
		return s.BusinessID == businessID && s.Status != model.SchedulePaid && s.Status != model.ScheduleOverdue && s.IsOverdue(now)
	}), nil
}

func (r *paymentRepo) BusinessesWithOverdue(ctx context.Context, now time.Time) ([]string, error) {
	seen := map[string]struct{}{}
	r.v.read(func(st *state) {
		for _, s := range st.schedules {
			if s.Status != model.SchedulePaid && s.Status != model.ScheduleOverdue && s.IsOverdue(now) {
				seen[s.BusinessID] = struct{}{}
			}
		}
		for _, inv := range st.invoices {
			if inv.IsOverdue(now) {
				seen[inv.BusinessID] = struct{}{}
			}
		}
	})
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}
