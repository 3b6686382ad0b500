package calculator

import (
	"errors"

	"gonum.org/v1/gonum/stat"
)

// RollingSMA returns the trailing simple moving average of values over the
// given period, aligned with values. Entries without a full window are nil.
// Each window is averaged on its own, so a NaN or Inf only affects the
// windows that contain it.
func RollingSMA(values []float64, period int) ([]*float64, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	out := make([]*float64, len(values))
	for i := period - 1; i < len(values); i++ {
		v := stat.Mean(values[i-period+1:i+1], nil)
		out[i] = &v
	}
	return out, nil
}
