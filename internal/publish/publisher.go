package publish

import (
	"context"
	"errors"
	"fmt"

	"github.com/pharmarawasy-del/Delala/internal/images"
	"github.com/pharmarawasy-del/Delala/internal/utils"
	"github.com/pharmarawasy-del/Delala/pkg/types"

	"github.com/sirupsen/logrus"
)

// PlaceholderImageURL is substituted when a published ad ends up with no
// usable image so the feed never renders an empty gallery.
const PlaceholderImageURL = "https://placehold.co/600x400?text=No+Image"

type ObjectStore interface {
	Upload(ctx context.Context, bucket, path string, data []byte, contentType string) (string, error)
	PublicURL(bucket, path string) string
}

type AdCreator interface {
	CreateAd(ctx context.Context, ad *types.Ad) error
}

type ProfileGetter interface {
	Profile(ctx context.Context, userID string) (*types.Profile, error)
}

type ImageNormalizer interface {
	Normalize(name string, data []byte) images.NormalizedFile
}

// Result reports a completed publish. Failed > 0 means the ad went live but
// some of its images did not.
type Result struct {
	AdID      string
	Attempted int
	Uploaded  int
	Failed    int
}

func (r Result) Partial() bool {
	return r.Failed > 0
}

// Publisher runs the ad submission pipeline: normalize each selected image,
// upload them one at a time, then write the listing row in a single insert.
// Only that final insert can fail the operation.
type Publisher struct {
	logger     *logrus.Logger
	storage    ObjectStore
	ads        AdCreator
	profiles   ProfileGetter
	normalizer ImageNormalizer
	bucket     string
}

func New(
	logger *logrus.Logger,
	storage ObjectStore,
	ads AdCreator,
	profiles ProfileGetter,
	normalizer ImageNormalizer,
	bucket string,
) *Publisher {
	return &Publisher{
		logger:     logger,
		storage:    storage,
		ads:        ads,
		profiles:   profiles,
		normalizer: normalizer,
		bucket:     bucket,
	}
}

func (p *Publisher) Publish(ctx context.Context, draft *types.DraftAd, userID string) (*Result, error) {

	result := &Result{Attempted: len(draft.Images)}

	urls := p.uploadImages(ctx, draft.Images, result)

	if len(urls) == 0 {
		urls = []string{PlaceholderImageURL}
	}

	ad := &types.Ad{
		Title:       draft.Title,
		Price:       draft.Price,
		City:        draft.City,
		Category:    draft.Category,
		Phone:       draft.Phone,
		Description: draft.Description,
		Images:      urls,
		UserName:    p.lookupUserName(ctx, userID),
	}
	if userID != "" {
		ad.UserID = utils.StringPtr(userID)
	}

	if err := p.ads.CreateAd(ctx, ad); err != nil {
		return nil, fmt.Errorf("create ad: %w", err)
	}

	result.AdID = ad.ID

	p.logger.WithFields(logrus.Fields{
		"ad_id":    ad.ID,
		"uploaded": result.Uploaded,
		"failed":   result.Failed,
	}).Info("ad published")

	return result, nil
}

// uploadImages pushes the normalized images to storage strictly one at a
// time. A failed upload is recorded and skipped; the batch continues, so the
// returned URLs are in success order with gaps where uploads failed.
//
// Sequential on purpose: one upload in flight bounds bandwidth and memory on
// poor mobile connections and keeps partial-failure reporting simple.
func (p *Publisher) uploadImages(ctx context.Context, selected []types.SelectedImage, result *Result) []string {

	urls := make([]string, 0, len(selected))

	for _, img := range selected {
		file := p.normalizer.Normalize(img.Name, img.Data)

		key, err := p.storage.Upload(ctx, p.bucket, file.Name, file.Data, file.ContentType)
		if err != nil {
			result.Failed++
			p.logger.WithError(err).WithField("file", file.Name).Warn("image upload failed, continuing batch")
			continue
		}

		result.Uploaded++
		urls = append(urls, p.storage.PublicURL(p.bucket, key))
	}

	return urls
}

// lookupUserName resolves the denormalized display-name snapshot stored on
// the ad. A missing or unreadable profile degrades to an empty name.
func (p *Publisher) lookupUserName(ctx context.Context, userID string) string {
	if userID == "" {
		return ""
	}

	profile, err := p.profiles.Profile(ctx, userID)
	if err != nil {
		if !errors.Is(err, types.ErrProfileNotFound) {
			p.logger.WithError(err).WithField("user_id", userID).Warn("profile lookup failed for ad author")
		}
		return ""
	}

	return profile.DisplayName()
}
