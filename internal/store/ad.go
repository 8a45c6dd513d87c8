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

const adTableName = "ads"

var adColumns = utils.StructTagValues(types.Ad{})

type AdRepository struct {
	pool *pgxpool.Pool
}

func NewAdRepository(pool *pgxpool.Pool) *AdRepository {
	return &AdRepository{pool: pool}
}

func (r *AdRepository) Ad(ctx context.Context, adID string) (*types.Ad, error) {

	query, args, err := psql().Select(adColumns...).From(adTableName).
		Where(sq.Eq{"id": adID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ad query: %w", err)
	}

	var ad = new(types.Ad)
	err = pgxscan.Get(ctx, r.pool, ad, query, args...)
	if err != nil && !pgxscan.NotFound(err) {
		return nil, err
	}

	if err != nil {
		return nil, types.ErrAdNotFound
	}

	return ad, nil
}

// Ads returns one feed page, newest first. Category filters by equality,
// search by case-insensitive title match.
func (r *AdRepository) Ads(ctx context.Context, filter types.FeedFilter, offset, limit uint64) ([]*types.Ad, error) {

	builder := psql().Select(adColumns...).From(adTableName).
		OrderBy("created_at DESC").
		Offset(offset).
		Limit(limit)

	if filter.Category != "" {
		builder = builder.Where(sq.Eq{"category": filter.Category})
	}

	if filter.Search != "" {
		builder = builder.Where(sq.ILike{"title": "%" + filter.Search + "%"})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ads feed query: %w", err)
	}

	var ads = make([]*types.Ad, 0)
	err = pgxscan.Select(ctx, r.pool, &ads, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ads feed: %w", err)
	}

	return ads, nil
}

func (r *AdRepository) AdsByUser(ctx context.Context, userID string) ([]*types.Ad, error) {

	query, args, err := psql().Select(adColumns...).From(adTableName).
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ads by user query: %w", err)
	}

	var ads = make([]*types.Ad, 0)
	err = pgxscan.Select(ctx, r.pool, &ads, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ads for user %s: %w", userID, err)
	}

	return ads, nil
}

func (r *AdRepository) RecentAds(ctx context.Context, limit uint64) ([]*types.Ad, error) {

	query, args, err := psql().Select(adColumns...).From(adTableName).
		OrderBy("created_at DESC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate recent ads query: %w", err)
	}

	var ads = make([]*types.Ad, 0)
	err = pgxscan.Select(ctx, r.pool, &ads, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent ads: %w", err)
	}

	return ads, nil
}

func (r *AdRepository) CreateAd(ctx context.Context, ad *types.Ad) error {

	if ad.ID == "" {
		ad.ID = utils.NanoID()
	}
	ad.CreatedAt = time.Now()

	adMap := utils.StructToMap(ad)

	query, args, err := psql().Insert(adTableName).SetMap(adMap).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert ad query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create ad")

}

func (r *AdRepository) DeleteAd(ctx context.Context, adID string) error {

	query, args, err := psql().Delete(adTableName).Where(sq.Eq{"id": adID}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate delete ad query for ad %s: %w", adID, err)
	}

	_, err = r.pool.Exec(ctx, query, args...)

	return utils.ErrorWrapOrNil(err, "failed to delete ad")

}

func (r *AdRepository) CountAds(ctx context.Context) (int64, error) {

	query, args, err := psql().Select("count(*)").From(adTableName).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to generate count ads query: %w", err)
	}

	var count int64
	err = pgxscan.Get(ctx, r.pool, &count, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to count ads: %w", err)
	}

	return count, nil
}
