package installment

import (
	"testing"
	"time"

	"github.com/fekuna/omnipos-order-service/internal/apperror"
	"github.com/fekuna/omnipos-order-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

func fourMonthly(t *testing.T) []model.PaymentSchedule {
	t.Helper()
	schedules, err := Generate(Plan{
		Total:        100000,
		DownPayment:  20000,
		Frequency:    model.FrequencyMonthly,
		Installments: 4,
		StartDate:    now,
	})
	require.NoError(t, err)
	return schedules
}

func TestDistributeOverpayment(t *testing.T) {
	schedules := fourMonthly(t)

	res := Distribute(schedules, 95000, 0, now)

	assert.Equal(t, int64(80000), res.Applied)
	assert.Equal(t, int64(15000), res.Excess)
	assert.Equal(t, int64(95000), res.Applied+res.Excess)
	assert.True(t, res.InvoiceFullyPaid)
	assert.Len(t, res.Updated, 4)
	for _, s := range schedules {
		assert.Equal(t, model.SchedulePaid, s.Status)
		assert.NotNil(t, s.PaidAt)
	}
	assert.Equal(t, int64(80000), TotalPaid(schedules))
}

func TestDistributePartial(t *testing.T) {
	schedules := fourMonthly(t)

	res := Distribute(schedules, 30000, 0, now)

	assert.Equal(t, int64(30000), res.Applied)
	assert.Zero(t, res.Excess)
	assert.False(t, res.InvoiceFullyPaid)
	assert.Equal(t, model.SchedulePaid, schedules[0].Status)
	assert.Equal(t, model.SchedulePartialPaid, schedules[1].Status)
	assert.Equal(t, int64(10000), schedules[1].AmountPaid)
	assert.Equal(t, model.SchedulePending, schedules[2].Status)

	// second payment resumes on the partially paid installment
	res = Distribute(schedules, 10000, 0, now)
	require.Len(t, res.Updated, 1)
	assert.Equal(t, 2, res.Updated[0].InstallmentNumber)
	assert.Equal(t, model.SchedulePaid, schedules[1].Status)
}

func TestDistributeFromTarget(t *testing.T) {
	schedules := fourMonthly(t)

	res := Distribute(schedules, 25000, 3, now)

	assert.True(t, res.TargetFound)
	assert.Equal(t, int64(25000), res.Applied)
	assert.Zero(t, schedules[0].AmountPaid)
	assert.Equal(t, int64(20000), schedules[2].AmountPaid)
	assert.Equal(t, int64(5000), schedules[3].AmountPaid)
}

func TestDistributeMissingTargetFallsBack(t *testing.T) {
	schedules := fourMonthly(t)
	Distribute(schedules, 20000, 0, now)

	res := Distribute(schedules, 5000, 1, now)

	assert.False(t, res.TargetFound)
	require.Len(t, res.Updated, 1)
	assert.Equal(t, 2, res.Updated[0].InstallmentNumber)
}

func TestDistributeNothingOutstanding(t *testing.T) {
	res := Distribute(nil, 700, 0, now)
	assert.Equal(t, Result{Excess: 700, InvoiceFullyPaid: true, TargetFound: true}, res)
}

func TestDistributeOverdueStatus(t *testing.T) {
	schedules := fourMonthly(t)
	late := schedules[3].DueDate.Add(24 * time.Hour)

	changed := MarkOverdue(schedules, late)
	assert.Len(t, changed, 4)

	Distribute(schedules, 20000, 0, late)
	assert.Equal(t, model.SchedulePaid, schedules[0].Status)
	assert.Equal(t, model.ScheduleOverdue, schedules[1].Status)
}

func TestMarkOverdueSkipsPaidAndFuture(t *testing.T) {
	schedules := fourMonthly(t)
	Distribute(schedules, 20000, 0, now)
	afterSecond := schedules[1].DueDate.Add(time.Hour)

	changed := MarkOverdue(schedules, afterSecond)
	require.Len(t, changed, 1)
	assert.Equal(t, 2, changed[0].InstallmentNumber)
	assert.Empty(t, MarkOverdue(schedules, afterSecond))
}

func TestCarryShortfall(t *testing.T) {
	schedules := fourMonthly(t)
	Distribute(schedules, 15000, 0, now)

	from, to, err := CarryShortfall(schedules, 1, 5000, "NGN", now)
	require.NoError(t, err)

	assert.Equal(t, int64(15000), from.AmountDue)
	assert.Equal(t, model.SchedulePaid, from.Status)
	assert.Equal(t, 2, to.InstallmentNumber)
	assert.Equal(t, int64(25000), to.AmountDue)
	assert.Equal(t, "Added ₦50.00 shortfall from installment 1", *to.Notes)

	var due int64
	for _, s := range schedules {
		due += s.AmountDue
	}
	assert.Equal(t, int64(80000), due)
}

func TestCarryShortfallRejects(t *testing.T) {
	schedules := fourMonthly(t)

	_, _, err := CarryShortfall(schedules, 4, 100, "NGN", now)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, _, err = CarryShortfall(schedules, 9, 100, "NGN", now)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, _, err = CarryShortfall(schedules, 1, 30000, "NGN", now)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestSummary(t *testing.T) {
	schedules := fourMonthly(t)
	res := Distribute(schedules, 95000, 0, now)

	assert.Equal(t, "Payment of ₦950.00 distributed across 4 installments. Overpayment of ₦150.00 recorded. Invoice is now fully paid.",
		Summary(res, 95000, "NGN"))

	one := Result{Updated: make([]model.PaymentSchedule, 1)}
	assert.Equal(t, "Payment of ₦10.00 distributed across 1 installment.", Summary(one, 1000, "NGN"))
}
