package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"finadvisor/internal/domain/profile"
	"finadvisor/internal/metrics"
	"finadvisor/pkg/errors"
)

// Compile-time check that we implement the interface
var _ profile.Repository = (*ProfileRepository)(nil)

// ProfileRepository stores client profiles as JSONB documents
type ProfileRepository struct {
	db DBTX
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db DBTX) *ProfileRepository {
	return &ProfileRepository{db: db}
}

type profileRow struct {
	UserID    uuid.UUID `db:"user_id"`
	Profile   []byte    `db:"profile"`
	UpdatedAt time.Time `db:"updated_at"`
}

// GetByUserID loads the stored profile for a user
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*profile.ClientProfile, error) {
	stored, err := r.GetStored(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &stored.Profile, nil
}

// GetStored loads the profile together with its update time
func (r *ProfileRepository) GetStored(ctx context.Context, userID uuid.UUID) (_ *profile.Stored, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("postgres", "get_profile", time.Since(start), ignoreNotFound(err)) }()

	query := `
		SELECT user_id, profile, updated_at
		FROM client_profiles
		WHERE user_id = $1`

	var row profileRow
	err = r.db.GetContext(ctx, &row, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(errors.ErrNotFound, "profile not found: user_id=%s", userID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get profile: user_id=%s", userID)
	}

	stored := &profile.Stored{UserID: row.UserID, UpdatedAt: row.UpdatedAt}
	if err := json.Unmarshal(row.Profile, &stored.Profile); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal profile: user_id=%s", userID)
	}
	return stored, nil
}

// Save upserts the profile document for a user
func (r *ProfileRepository) Save(ctx context.Context, userID uuid.UUID, p *profile.ClientProfile) (err error) {
	if p == nil {
		return errors.Wrap(errors.ErrInvalidInput, "nil profile")
	}
	if err := p.Validate(); err != nil {
		return err
	}

	start := time.Now()
	defer func() { metrics.RecordDBQuery("postgres", "save_profile", time.Since(start), err) }()

	data, err := json.Marshal(p)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal profile: user_id=%s", userID)
	}

	query := `
		INSERT INTO client_profiles (user_id, profile, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET profile = EXCLUDED.profile, updated_at = NOW()`

	if _, err = r.db.ExecContext(ctx, query, userID, data); err != nil {
		return errors.Wrapf(err, "failed to save profile: user_id=%s", userID)
	}
	return nil
}

// Delete removes a stored profile
func (r *ProfileRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM client_profiles WHERE user_id = $1`, userID)
	if err != nil {
		return errors.Wrapf(err, "failed to delete profile: user_id=%s", userID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(errors.ErrNotFound, "profile not found: user_id=%s", userID)
	}
	return nil
}

func ignoreNotFound(err error) error {
	if errors.Is(err, errors.ErrNotFound) {
		return nil
	}
	return err
}
