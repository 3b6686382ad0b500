package calculator

import (
	"errors"
	"math"
	"time"
)

// PriceRange scans values and returns the high and low.
func PriceRange(values []float64) (high, low float64, err error) {
	if len(values) == 0 {
		return 0, 0, errors.New("no values provided")
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, v := range values {
		if v > high {
			high = v
		}
		if v < low {
			low = v
		}
	}
	return high, low, nil
}

// DateRange returns the earliest and latest of dates.
func DateRange(dates []time.Time) (first, last time.Time, err error) {
	if len(dates) == 0 {
		return time.Time{}, time.Time{}, errors.New("no dates provided")
	}
	first, last = dates[0], dates[0]
	for _, d := range dates[1:] {
		if d.Before(first) {
			first = d
		}
		if d.After(last) {
			last = d
		}
	}
	return first, last, nil
}
