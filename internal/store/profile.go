package store

import (
	"context"
	"fmt"
	"time"

	"github.com/pharmarawasy-del/Delala/internal/utils"
	"github.com/pharmarawasy-del/Delala/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const profileTableName = "profiles"

var profileColumns = utils.StructTagValues(types.Profile{})

type ProfileRepository struct {
	pool *pgxpool.Pool
}

func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

func (r *ProfileRepository) Profile(ctx context.Context, userID string) (*types.Profile, error) {

	query, args, err := psql().Select(profileColumns...).From(profileTableName).
		Where(sq.Eq{"id": userID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate profile query: %w", err)
	}

	var profile = new(types.Profile)
	err = pgxscan.Get(ctx, r.pool, profile, query, args...)
	if err != nil && !pgxscan.NotFound(err) {
		return nil, err
	}

	if err != nil {
		return nil, types.ErrProfileNotFound
	}

	return profile, nil
}

// UpsertProfile creates or updates the row keyed by the auth user id,
// mirroring how the profile row is lazily created on first save.
func (r *ProfileRepository) UpsertProfile(ctx context.Context, profile *types.Profile) error {

	profile.UpdatedAt = time.Now()

	query := `
		INSERT INTO profiles (id, first_name, last_name, profile_picture_url, is_admin, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id)
		DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			profile_picture_url = EXCLUDED.profile_picture_url,
			updated_at = EXCLUDED.updated_at`

	_, err := r.pool.Exec(ctx, query,
		profile.ID,
		profile.FirstName,
		nullable(profile.LastName),
		profile.ProfilePictureURL,
		profile.IsAdmin,
		profile.UpdatedAt,
	)

	return utils.ErrorWrapOrNil(err, "failed to upsert profile")
}

func (r *ProfileRepository) CountProfiles(ctx context.Context) (int64, error) {

	query, args, err := psql().Select("count(*)").From(profileTableName).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to generate count profiles query: %w", err)
	}

	var count int64
	err = pgxscan.Get(ctx, r.pool, &count, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to count profiles: %w", err)
	}

	return count, nil
}
