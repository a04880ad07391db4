// Package installment generates installment schedules and distributes
// payments over them. Everything here is pure; callers persist the results.
package installment

import (
	"time"

	"github.com/fekuna/omnipos-order-service/internal/apperror"
	"github.com/fekuna/omnipos-order-service/internal/model"
)

const (
	MinInstallments = 2
	MaxInstallments = 24
)

type Plan struct {
	Total        int64
	DownPayment  int64
	Frequency    model.InstallmentFrequency
	Installments int // 0 picks a default count
	StartDate    time.Time
}

// DefaultCount picks an installment count from the financed amount: one
// period per 500.00 daily (max 30), 2,000.00 weekly (max 12) or 5,000.00
// monthly (max 6).
func DefaultCount(amount int64, freq model.InstallmentFrequency) int {
	var per int64
	var limit int
	switch freq {
	case model.FrequencyDaily:
		per, limit = 50000, 30
	case model.FrequencyWeekly:
		per, limit = 200000, 12
	case model.FrequencyMonthly:
		per, limit = 500000, 6
	default:
		return 4
	}
	n := int((amount + per - 1) / per)
	if n < 1 {
		n = 1
	}
	return min(n, limit)
}

// DueDate offsets start by n frequency periods. Monthly offsets clamp to the
// last day of the target month.
func DueDate(start time.Time, n int, freq model.InstallmentFrequency) time.Time {
	switch freq {
	case model.FrequencyDaily:
		return start.AddDate(0, 0, n)
	case model.FrequencyWeekly:
		return start.AddDate(0, 0, 7*n)
	default:
		y, m, d := start.Date()
		first := time.Date(y, m+time.Month(n), 1, start.Hour(), start.Minute(), start.Second(), start.Nanosecond(), start.Location())
		last := first.AddDate(0, 1, -1).Day()
		return first.AddDate(0, 0, min(d, last)-1)
	}
}

// Split divides remaining into count shares rounded half up; the last share
// absorbs the remainder. When rounding up would leave the last share empty,
// the shares are floored instead.
func Split(remaining int64, count int) []int64 {
	n := int64(count)
	share := (2*remaining + n) / (2 * n)
	if remaining-share*(n-1) < 1 {
		share = remaining / n
	}

	shares := make([]int64, count)
	for i := range shares {
		shares[i] = share
	}
	shares[count-1] = remaining - share*(n-1)
	return shares
}

// Generate builds the schedule for the amount left after the down payment.
func Generate(plan Plan) ([]model.PaymentSchedule, error) {
	if !plan.Frequency.Valid() {
		return nil, apperror.Validation("installment frequency %q is not supported", plan.Frequency)
	}
	remaining := plan.Total - plan.DownPayment
	if remaining <= 0 {
		return nil, apperror.Validation("nothing left to finance after down payment")
	}

	count := plan.Installments
	if count == 0 {
		count = DefaultCount(remaining, plan.Frequency)
	}
	if count < 1 {
		return nil, apperror.Validation("installment count must be positive")
	}
	if int64(count) > remaining {
		return nil, apperror.Validation("cannot split %d into %d installments", remaining, count)
	}

	shares := Split(remaining, count)
	schedules := make([]model.PaymentSchedule, count)
	for i, amount := range shares {
		schedules[i] = model.PaymentSchedule{
			InstallmentNumber: i + 1,
			DueDate:           DueDate(plan.StartDate, i+1, plan.Frequency),
			AmountDue:         amount,
			Status:            model.SchedulePending,
		}
	}
	return schedules, nil
}

// ValidatePlan checks the caller-facing installment rules before any stock
// or money is touched.
func ValidatePlan(total, downPayment int64, freq model.InstallmentFrequency, count int) error {
	if err := ValidateTerms(downPayment, freq, count); err != nil {
		return err
	}
	if downPayment >= total {
		return apperror.Validation("down payment must be less than the order total")
	}
	return nil
}

// ValidateTerms checks the parts of a plan that do not depend on the order
// total.
func ValidateTerms(downPayment int64, freq model.InstallmentFrequency, count int) error {
	if freq == "" {
		return apperror.Validation("installment frequency is required")
	}
	if !freq.Valid() {
		return apperror.Validation("installment frequency %q is not supported", freq)
	}
	if count < MinInstallments || count > MaxInstallments {
		return apperror.Validation("number of installments must be between %d and %d", MinInstallments, MaxInstallments)
	}
	if downPayment <= 0 {
		return apperror.Validation("down payment must be greater than zero")
	}
	return nil
}
