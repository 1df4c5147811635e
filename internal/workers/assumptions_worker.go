package workers

import (
	"context"
	"time"

	"finadvisor/internal/calculator"
	"finadvisor/internal/domain/profile"
	"finadvisor/internal/metrics"
	"finadvisor/pkg/errors"
)

// AssumptionsRefreshWorker re-estimates capital market assumptions from
// stored index returns and swaps them into the live AssumptionSet.
// A class without enough history keeps its current assumption.
type AssumptionsRefreshWorker struct {
	*BaseWorker
	series profile.ReturnSeries
	set    *calculator.AssumptionSet
	window int
}

// NewAssumptionsRefreshWorker creates the refresh worker; window <= 0 uses all history
func NewAssumptionsRefreshWorker(series profile.ReturnSeries, set *calculator.AssumptionSet, window int, interval time.Duration, enabled bool) *AssumptionsRefreshWorker {
	return &AssumptionsRefreshWorker{
		BaseWorker: NewBaseWorker("assumptions_refresh", interval, enabled),
		series:     series,
		set:        set,
		window:     window,
	}
}

// Run refreshes every asset class
func (w *AssumptionsRefreshWorker) Run(ctx context.Context) error {
	var errs errors.MultiError
	updated := 0

	for _, class := range calculator.AssetClasses() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		ok, err := w.refresh(ctx, class)
		if err != nil {
			errs.Add(err)
			continue
		}
		if ok {
			updated++
		}
	}

	w.Log().Infow("Capital market assumptions refreshed",
		"updated", updated,
		"window", w.window,
		"failed", len(errs.Errors),
	)
	return errs.ToError()
}

func (w *AssumptionsRefreshWorker) refresh(ctx context.Context, class calculator.AssetClass) (bool, error) {
	returns, err := w.series.AnnualReturns(ctx, string(class), w.window)
	if err != nil {
		return false, errors.Wrapf(err, "load %s returns", class)
	}

	a, err := calculator.ReturnStats(returns, w.window)
	if errors.Is(err, errors.ErrInsufficientData) {
		w.Log().Debugw("Keeping current assumption", "asset_class", class, "observations", len(returns))
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "estimate %s returns", class)
	}

	w.set.Update(class, a)
	metrics.RecordAssumption(string(class), a.Mean, a.StdDev)
	return true, nil
}
