package mortgage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ps-vitor/immo-sys/backend/internal/mortgage"
)

func TestMonthlyPayment(t *testing.T) {
	// 200 000 at 3.5 % over 20 years
	p, err := mortgage.MonthlyPayment(200000, 3.5, 20)
	require.NoError(t, err)
	assert.InDelta(t, 1159.92, p, 0.05)
}

func TestZeroRate(t *testing.T) {
	s, err := mortgage.Compute(120000, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, s.MonthlyPayment)
	assert.Equal(t, 120, s.Months)
	assert.Zero(t, s.TotalInterest)
}

func TestInvalidInput(t *testing.T) {
	for _, tc := range []struct {
		principal, rate float64
		years           int
	}{
		{0, 3, 20}, {100000, -1, 20}, {100000, 3, 0},
	} {
		_, err := mortgage.MonthlyPayment(tc.principal, tc.rate, tc.years)
		assert.ErrorIs(t, err, mortgage.ErrInvalidInput)
	}
}
