package profile

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines read/write access to stored client profiles.
// The advice pipeline only reads; Save exists for onboarding and tests.
type Repository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*ClientProfile, error)
	Save(ctx context.Context, userID uuid.UUID, p *ClientProfile) error
}

// ReturnSeries provides historical annual returns per asset class, oldest first
type ReturnSeries interface {
	AnnualReturns(ctx context.Context, assetClass string, years int) ([]float64, error)
}
