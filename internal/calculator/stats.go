package calculator

import (
	"github.com/markcheno/go-talib"

	"finadvisor/pkg/errors"
)

// MinReturnObservations is the shortest history ReturnStats accepts
const MinReturnObservations = 2

// ReturnStats estimates an annual return distribution from a series of annual
// returns (decimals, oldest first) over the trailing window. window <= 0 uses
// the whole series. StdDev is the population deviation over the window.
func ReturnStats(returns []float64, window int) (ReturnAssumption, error) {
	if len(returns) < MinReturnObservations {
		return ReturnAssumption{}, errors.Wrapf(errors.ErrInsufficientData,
			"need at least %d annual returns, got %d", MinReturnObservations, len(returns))
	}

	period := window
	if period <= 0 || period > len(returns) {
		period = len(returns)
	}
	if period < MinReturnObservations {
		period = MinReturnObservations
	}

	last := len(returns) - 1
	mean := talib.Sma(returns, period)[last]
	stdDev := talib.StdDev(returns, period, 1.0)[last]

	return ReturnAssumption{Mean: mean, StdDev: stdDev}, nil
}
