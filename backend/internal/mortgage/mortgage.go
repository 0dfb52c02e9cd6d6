package mortgage

import (
	"errors"
	"math"
)

var ErrInvalidInput = errors.New("principal and duration must be positive and rate non-negative")

// Schedule summarises a fixed-rate amortised loan.
type Schedule struct {
	MonthlyPayment float64 `json:"monthly_payment"`
	TotalCost      float64 `json:"total_cost"`
	TotalInterest  float64 `json:"total_interest"`
	Months         int     `json:"months"`
}

// MonthlyPayment returns the constant monthly instalment for principal borrowed at
// annualRatePercent over years, rounded to the cent.
func MonthlyPayment(principal, annualRatePercent float64, years int) (float64, error) {
	s, err := Compute(principal, annualRatePercent, years)
	return s.MonthlyPayment, err
}

func Compute(principal, annualRatePercent float64, years int) (Schedule, error) {
	if principal <= 0 || years <= 0 || annualRatePercent < 0 || math.IsNaN(principal) || math.IsNaN(annualRatePercent) {
		return Schedule{}, ErrInvalidInput
	}
	months := years * 12
	r := annualRatePercent / 100 / 12

	var payment float64
	if r == 0 {
		payment = principal / float64(months)
	} else {
		payment = principal * r / (1 - math.Pow(1+r, -float64(months)))
	}

	payment = round2(payment)
	total := round2(payment * float64(months))
	return Schedule{
		MonthlyPayment: payment,
		TotalCost:      total,
		TotalInterest:  round2(total - principal),
		Months:         months,
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
