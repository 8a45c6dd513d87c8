package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/pharmarawasy-del/Delala/internal/images"
	"github.com/pharmarawasy-del/Delala/pkg/types"

	"github.com/sirupsen/logrus"
)

type fakeStorage struct {
	failNames map[string]bool
	failAll   bool
	inFlight  int
	uploads   []string
}

func (f *fakeStorage) Upload(_ context.Context, _, path string, _ []byte, _ string) (string, error) {
	f.inFlight++
	defer func() { f.inFlight-- }()
	if f.inFlight > 1 {
		panic("concurrent upload detected")
	}

	if f.failAll || f.failNames[path] {
		return "", errors.New("storage unavailable")
	}

	f.uploads = append(f.uploads, path)
	return path, nil
}

func (f *fakeStorage) PublicURL(bucket, path string) string {
	return fmt.Sprintf("https://cdn.test/%s/%s", bucket, path)
}

type fakeAds struct {
	created []*types.Ad
	err     error
}

func (f *fakeAds) CreateAd(_ context.Context, ad *types.Ad) error {
	if f.err != nil {
		return f.err
	}
	ad.ID = fmt.Sprintf("ad-%03d", len(f.created)+1)
	f.created = append(f.created, ad)
	return nil
}

type fakeProfiles struct {
	profile *types.Profile
	err     error
}

func (f *fakeProfiles) Profile(_ context.Context, _ string) (*types.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

// identityNormalizer keeps the payload and renames predictably so uploads
// can be failed by name in tests.
type identityNormalizer struct{}

func (identityNormalizer) Normalize(name string, data []byte) images.NormalizedFile {
	return images.NormalizedFile{Name: name, ContentType: "image/jpeg", Data: data}
}

func newTestPublisher(storage *fakeStorage, ads *fakeAds, profiles *fakeProfiles) *Publisher {
	logger := logrus.New()
	logger.SetOutput(bytes.NewBuffer(nil))
	return New(logger, storage, ads, profiles, identityNormalizer{}, "images")
}

func selection(names ...string) []types.SelectedImage {
	out := make([]types.SelectedImage, 0, len(names))
	for _, n := range names {
		out = append(out, types.SelectedImage{Name: n, Data: []byte(n)})
	}
	return out
}

func testDraft(imgs []types.SelectedImage) *types.DraftAd {
	return &types.DraftAd{
		Category:    types.CategoryVehicles,
		Title:       "Toyota Hilux 2020",
		Price:       5000000,
		City:        "الخرطوم",
		Phone:       "0912345678",
		Description: "بحالة ممتازة",
		Images:      imgs,
	}
}

func TestPublishAllUploadsSucceed(t *testing.T) {
	storage := &fakeStorage{}
	ads := &fakeAds{}
	profiles := &fakeProfiles{profile: &types.Profile{ID: "u-1", FirstName: "محمد", LastName: "أحمد"}}
	p := newTestPublisher(storage, ads, profiles)

	result, err := p.Publish(context.Background(), testDraft(selection("a.jpg", "b.jpg", "c.jpg")), "u-1")
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	if result.Uploaded != 3 || result.Failed != 0 || result.Partial() {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(ads.created) != 1 {
		t.Fatalf("expected exactly one persisted record, got %d", len(ads.created))
	}

	ad := ads.created[0]
	if len(ad.Images) != 3 {
		t.Fatalf("expected 3 image urls, got %d", len(ad.Images))
	}
	if ad.UserName != "محمد أحمد" {
		t.Fatalf("expected denormalized author name, got %q", ad.UserName)
	}
	if ad.UserID == nil || *ad.UserID != "u-1" {
		t.Fatal("expected author reference on ad")
	}
}

func TestPublishAllUploadsFailSubstitutesPlaceholder(t *testing.T) {
	storage := &fakeStorage{failAll: true}
	ads := &fakeAds{}
	p := newTestPublisher(storage, ads, &fakeProfiles{err: types.ErrProfileNotFound})

	result, err := p.Publish(context.Background(), testDraft(selection("a.jpg", "b.jpg", "c.jpg")), "u-1")
	if err != nil {
		t.Fatalf("upload failures must not fail the publish: %v", err)
	}

	if result.Failed != 3 || !result.Partial() {
		t.Fatalf("unexpected result %+v", result)
	}

	ad := ads.created[0]
	if len(ad.Images) != 1 || ad.Images[0] != PlaceholderImageURL {
		t.Fatalf("expected single placeholder url, got %v", ad.Images)
	}
}

func TestPublishPartialFailureSkipsWithoutGapFillers(t *testing.T) {
	storage := &fakeStorage{failNames: map[string]bool{"b.jpg": true}}
	ads := &fakeAds{}
	p := newTestPublisher(storage, ads, &fakeProfiles{err: types.ErrProfileNotFound})

	result, err := p.Publish(context.Background(), testDraft(selection("a.jpg", "b.jpg", "c.jpg")), "")
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	if result.Uploaded != 2 || result.Failed != 1 {
		t.Fatalf("unexpected result %+v", result)
	}

	ad := ads.created[0]
	if len(ad.Images) != 2 {
		t.Fatalf("expected 2 urls with no placeholder gaps, got %v", ad.Images)
	}
	for _, u := range ad.Images {
		if strings.Contains(u, "b.jpg") {
			t.Fatalf("failed upload leaked into result: %v", ad.Images)
		}
	}
}

func TestPublishEmptySelection(t *testing.T) {
	for size := 0; size <= 10; size++ {
		names := make([]string, 0, size)
		for i := 0; i < size; i++ {
			names = append(names, fmt.Sprintf("img-%d.jpg", i))
		}

		storage := &fakeStorage{}
		ads := &fakeAds{}
		p := newTestPublisher(storage, ads, &fakeProfiles{err: types.ErrProfileNotFound})

		result, err := p.Publish(context.Background(), testDraft(selection(names...)), "")
		if err != nil {
			t.Fatalf("batch size %d: %v", size, err)
		}
		if result.Attempted != size {
			t.Fatalf("batch size %d: attempted %d", size, result.Attempted)
		}

		imgs := ads.created[0].Images
		if len(imgs) == 0 {
			t.Fatalf("batch size %d: images array must never be empty", size)
		}
		if size == 0 && imgs[0] != PlaceholderImageURL {
			t.Fatalf("empty batch must persist the placeholder, got %v", imgs)
		}
	}
}

func TestPublishRecordWriteFailureIsTerminal(t *testing.T) {
	storage := &fakeStorage{}
	ads := &fakeAds{err: errors.New("row level security violation")}
	p := newTestPublisher(storage, ads, &fakeProfiles{err: types.ErrProfileNotFound})

	_, err := p.Publish(context.Background(), testDraft(selection("a.jpg")), "")
	if err == nil {
		t.Fatal("record write failure must abort the publish")
	}
	if len(ads.created) != 0 {
		t.Fatal("no partial record may be created")
	}
}

func TestPublishUploadsSequentially(t *testing.T) {
	// fakeStorage panics when two uploads overlap; a large batch exercises
	// the one-at-a-time guarantee.
	storage := &fakeStorage{}
	ads := &fakeAds{}
	p := newTestPublisher(storage, ads, &fakeProfiles{err: types.ErrProfileNotFound})

	names := make([]string, 10)
	for i := range names {
		names[i] = fmt.Sprintf("img-%d.jpg", i)
	}

	if _, err := p.Publish(context.Background(), testDraft(selection(names...)), ""); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(storage.uploads) != 10 {
		t.Fatalf("expected 10 uploads, got %d", len(storage.uploads))
	}
	for i, name := range storage.uploads {
		if name != names[i] {
			t.Fatalf("uploads out of order: %v", storage.uploads)
		}
	}
}
