package postgres

import (
	"context"
	"time"

	"finadvisor/internal/domain/profile"
	"finadvisor/internal/metrics"
	"finadvisor/pkg/errors"
)

var _ profile.ReturnSeries = (*ReturnSeriesRepository)(nil)

// ReturnSeriesRepository reads historical annual index returns
type ReturnSeriesRepository struct {
	db DBTX
}

// NewReturnSeriesRepository creates a new return series repository
func NewReturnSeriesRepository(db DBTX) *ReturnSeriesRepository {
	return &ReturnSeriesRepository{db: db}
}

// AnnualReturns returns the latest `years` annual returns for an asset class,
// oldest first. years <= 0 returns the full history.
func (r *ReturnSeriesRepository) AnnualReturns(ctx context.Context, assetClass string, years int) (_ []float64, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("postgres", "annual_returns", time.Since(start), err) }()

	var returns []float64
	if years > 0 {
		err = r.db.SelectContext(ctx, &returns, `
			SELECT annual_return FROM (
				SELECT year, annual_return
				FROM market_index_returns
				WHERE asset_class = $1
				ORDER BY year DESC
				LIMIT $2
			) latest
			ORDER BY year ASC`, assetClass, years)
	} else {
		err = r.db.SelectContext(ctx, &returns, `
			SELECT annual_return
			FROM market_index_returns
			WHERE asset_class = $1
			ORDER BY year ASC`, assetClass)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load annual returns: asset_class=%s", assetClass)
	}
	return returns, nil
}

// SaveAnnualReturn upserts one year of history
func (r *ReturnSeriesRepository) SaveAnnualReturn(ctx context.Context, assetClass string, year int, annualReturn float64) error {
	query := `
		INSERT INTO market_index_returns (asset_class, year, annual_return)
		VALUES ($1, $2, $3)
		ON CONFLICT (asset_class, year) DO UPDATE
		SET annual_return = EXCLUDED.annual_return`

	if _, err := r.db.ExecContext(ctx, query, assetClass, year, annualReturn); err != nil {
		return errors.Wrapf(err, "failed to save annual return: asset_class=%s year=%d", assetClass, year)
	}
	return nil
}
