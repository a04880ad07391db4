package installment

import (
	"testing"
	"time"

	"github.com/fekuna/omnipos-order-service/internal/apperror"
	"github.com/fekuna/omnipos-order-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2026, 1, 31, 9, 0, 0, 0, time.UTC)

func sum(xs []int64) int64 {
	var total int64
	for _, x := range xs {
		total += x
	}
	return total
}

func TestSplit(t *testing.T) {
	tests := []struct {
		remaining int64
		count     int
		want      []int64
	}{
		{80000, 4, []int64{20000, 20000, 20000, 20000}},
		{100000, 3, []int64{33333, 33333, 33334}},
		{10, 4, []int64{3, 3, 3, 1}},
		{6, 4, []int64{1, 1, 1, 3}},
		{7, 2, []int64{4, 3}},
	}
	for _, tt := range tests {
		got := Split(tt.remaining, tt.count)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.remaining, sum(got))
	}
}

func TestSplitAlwaysConserves(t *testing.T) {
	for remaining := int64(2); remaining < 400; remaining += 7 {
		for count := 2; count <= 24 && int64(count) <= remaining; count++ {
			shares := Split(remaining, count)
			require.Equal(t, remaining, sum(shares), "remaining=%d count=%d", remaining, count)
			for _, s := range shares {
				require.Positive(t, s, "remaining=%d count=%d", remaining, count)
			}
		}
	}
}

func TestDefaultCount(t *testing.T) {
	assert.Equal(t, 2, DefaultCount(60000, model.FrequencyDaily))
	assert.Equal(t, 30, DefaultCount(10_000_000, model.FrequencyDaily))
	assert.Equal(t, 1, DefaultCount(200000, model.FrequencyWeekly))
	assert.Equal(t, 12, DefaultCount(90_000_000, model.FrequencyWeekly))
	assert.Equal(t, 3, DefaultCount(1_200_000, model.FrequencyMonthly))
	assert.Equal(t, 6, DefaultCount(90_000_000, model.FrequencyMonthly))
	assert.Equal(t, 4, DefaultCount(100, "Yearly"))
}

func TestDueDate(t *testing.T) {
	assert.Equal(t, time.Date(2026, 2, 3, 9, 0, 0, 0, time.UTC), DueDate(start, 3, model.FrequencyDaily))
	assert.Equal(t, time.Date(2026, 2, 14, 9, 0, 0, 0, time.UTC), DueDate(start, 2, model.FrequencyWeekly))
	assert.Equal(t, time.Date(2026, 2, 28, 9, 0, 0, 0, time.UTC), DueDate(start, 1, model.FrequencyMonthly))
	assert.Equal(t, time.Date(2026, 3, 31, 9, 0, 0, 0, time.UTC), DueDate(start, 2, model.FrequencyMonthly))
	assert.Equal(t, time.Date(2027, 1, 31, 9, 0, 0, 0, time.UTC), DueDate(start, 12, model.FrequencyMonthly))
}

func TestGenerateMonthlyPlan(t *testing.T) {
	schedules, err := Generate(Plan{
		Total:        100000,
		DownPayment:  20000,
		Frequency:    model.FrequencyMonthly,
		Installments: 4,
		StartDate:    start,
	})
	require.NoError(t, err)
	require.Len(t, schedules, 4)

	var total int64
	for i, s := range schedules {
		assert.Equal(t, i+1, s.InstallmentNumber)
		assert.Equal(t, model.SchedulePending, s.Status)
		assert.Zero(t, s.AmountPaid)
		assert.Equal(t, DueDate(start, i+1, model.FrequencyMonthly), s.DueDate)
		total += s.AmountDue
	}
	assert.Equal(t, int64(80000), total)
}

func TestGenerateDefaultsCount(t *testing.T) {
	schedules, err := Generate(Plan{Total: 600000, DownPayment: 100000, Frequency: model.FrequencyWeekly, StartDate: start})
	require.NoError(t, err)
	assert.Len(t, schedules, 3)
}

func TestGenerateRejects(t *testing.T) {
	_, err := Generate(Plan{Total: 100, DownPayment: 100, Frequency: model.FrequencyDaily})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = Generate(Plan{Total: 5, DownPayment: 1, Frequency: model.FrequencyDaily, Installments: 10})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = Generate(Plan{Total: 500, DownPayment: 1, Frequency: "Hourly", Installments: 2})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestValidatePlan(t *testing.T) {
	tests := []struct {
		name  string
		down  int64
		freq  model.InstallmentFrequency
		count int
		ok    bool
	}{
		{"valid", 20000, model.FrequencyMonthly, 4, true},
		{"missing frequency", 20000, "", 4, false},
		{"too few", 20000, model.FrequencyMonthly, 1, false},
		{"too many", 20000, model.FrequencyMonthly, 25, false},
		{"upper bound", 20000, model.FrequencyDaily, 24, true},
		{"zero down payment", 0, model.FrequencyWeekly, 4, false},
		{"down payment equals total", 100000, model.FrequencyWeekly, 4, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePlan(100000, tt.down, tt.freq, tt.count)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, apperror.ErrValidation)
			}
		})
	}
}

func TestValidateTermsIgnoresTotal(t *testing.T) {
	assert.NoError(t, ValidateTerms(500000, model.FrequencyWeekly, 2))
	assert.ErrorIs(t, ValidateTerms(20000, "Yearly", 4), apperror.ErrValidation)
	assert.ErrorIs(t, ValidatePlan(100000, 500000, model.FrequencyWeekly, 2), apperror.ErrValidation)
}
