package installment

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fekuna/omnipos-order-service/internal/apperror"
	"github.com/fekuna/omnipos-order-service/internal/model"
	"github.com/fekuna/omnipos-order-service/internal/pkg/money"
)

type Result struct {
	Applied          int64
	Excess           int64
	Updated          []model.PaymentSchedule
	InvoiceFullyPaid bool
	// TargetFound is false when a target installment was requested but is
	// not outstanding, in which case distribution started at the first one.
	TargetFound bool
}

// RecomputeStatus derives a schedule's status from its amounts and due date.
func RecomputeStatus(s *model.PaymentSchedule, now time.Time) {
	switch {
	case s.IsFullyPaid():
		s.Status = model.SchedulePaid
		if s.PaidAt == nil {
			s.PaidAt = &now
		}
	case s.IsPartiallyPaid():
		s.Status = model.SchedulePartialPaid
	case s.IsOverdue(now):
		s.Status = model.ScheduleOverdue
	default:
		s.Status = model.SchedulePending
	}
}

// Distribute applies amount to the outstanding schedules of one invoice in
// ascending installment order, starting from target when it is outstanding.
// schedules must hold every schedule of the invoice; they are updated in place.
func Distribute(schedules []model.PaymentSchedule, amount int64, target int, now time.Time) Result {
	sort.SliceStable(schedules, func(i, j int) bool {
		return schedules[i].InstallmentNumber < schedules[j].InstallmentNumber
	})

	var outstanding []int
	for i := range schedules {
		if schedules[i].Status.IsOutstanding() {
			outstanding = append(outstanding, i)
		}
	}
	if len(outstanding) == 0 {
		return Result{Excess: amount, InvoiceFullyPaid: true, TargetFound: target == 0}
	}

	start, found := 0, target == 0
	if target != 0 {
		for pos, idx := range outstanding {
			if schedules[idx].InstallmentNumber == target {
				start, found = pos, true
				break
			}
		}
	}

	res := Result{TargetFound: found}
	left := amount
	for _, idx := range outstanding[start:] {
		if left <= 0 {
			break
		}
		s := &schedules[idx]
		applied := min(left, s.RemainingBalance())
		s.AmountPaid += applied
		s.LastPaymentAt = &now
		s.UpdatedAt = now
		RecomputeStatus(s, now)
		left -= applied
		res.Updated = append(res.Updated, *s)
	}

	res.Applied = amount - left
	res.Excess = left
	res.InvoiceFullyPaid = true
	for _, s := range schedules {
		if !s.IsFullyPaid() {
			res.InvoiceFullyPaid = false
			break
		}
	}
	return res
}

// TotalPaid sums amountPaid across schedules.
func TotalPaid(schedules []model.PaymentSchedule) int64 {
	var total int64
	for _, s := range schedules {
		total += s.AmountPaid
	}
	return total
}

// MarkOverdue moves every unpaid schedule past its due date to Overdue and
// returns the ones that changed.
func MarkOverdue(schedules []model.PaymentSchedule, now time.Time) []model.PaymentSchedule {
	var changed []model.PaymentSchedule
	for i := range schedules {
		s := &schedules[i]
		if s.Status == model.ScheduleOverdue || s.Status == model.SchedulePaid || !s.IsOverdue(now) {
			continue
		}
		s.Status = model.ScheduleOverdue
		s.UpdatedAt = now
		changed = append(changed, *s)
	}
	return changed
}

// CarryShortfall moves shortfall from installment number onto the next
// outstanding installment. It returns the two updated schedules.
func CarryShortfall(schedules []model.PaymentSchedule, number int, shortfall int64, currency string, now time.Time) (from, to model.PaymentSchedule, err error) {
	if shortfall <= 0 {
		return from, to, apperror.Validation("shortfall must be positive")
	}
	sort.SliceStable(schedules, func(i, j int) bool {
		return schedules[i].InstallmentNumber < schedules[j].InstallmentNumber
	})

	src, dst := -1, -1
	for i := range schedules {
		switch {
		case schedules[i].InstallmentNumber == number:
			src = i
		case src >= 0 && schedules[i].InstallmentNumber > number &&
			(schedules[i].Status == model.SchedulePending || schedules[i].Status == model.SchedulePartialPaid):
			dst = i
		}
		if dst >= 0 {
			break
		}
	}
	if src < 0 {
		return from, to, apperror.NotFound("installment", number)
	}
	if dst < 0 {
		return from, to, apperror.Validation("installment %d has no later open installment to carry a shortfall onto", number)
	}
	s, d := &schedules[src], &schedules[dst]
	if shortfall > s.RemainingBalance() {
		return from, to, apperror.Validation("shortfall %d exceeds the %d still owed on installment %d", shortfall, s.RemainingBalance(), number)
	}

	s.AmountDue -= shortfall
	s.Notes = appendNote(s.Notes, fmt.Sprintf("Moved %s shortfall to installment %d", money.Format(shortfall, currency), d.InstallmentNumber))
	s.UpdatedAt = now
	RecomputeStatus(s, now)

	d.AmountDue += shortfall
	d.Notes = appendNote(d.Notes, fmt.Sprintf("Added %s shortfall from installment %d", money.Format(shortfall, currency), number))
	d.UpdatedAt = now
	RecomputeStatus(d, now)

	return *s, *d, nil
}

// Summary renders a one-line description of a distribution.
func Summary(res Result, amount int64, currency string) string {
	var b strings.Builder
	b.WriteString("Payment of " + money.Format(amount, currency) + " distributed")
	if n := len(res.Updated); n > 0 {
		plural := ""
		if n > 1 {
			plural = "s"
		}
		fmt.Fprintf(&b, " across %d installment%s", n, plural)
	}
	if res.Excess > 0 {
		b.WriteString(". Overpayment of " + money.Format(res.Excess, currency) + " recorded")
	}
	if res.InvoiceFullyPaid {
		b.WriteString(". Invoice is now fully paid")
	}
	b.WriteString(".")
	return b.String()
}

func appendNote(notes *string, line string) *string {
	if notes == nil || *notes == "" {
		return &line
	}
	joined := *notes + "\n" + line
	return &joined
}
