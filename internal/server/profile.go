package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pharmarawasy-del/Delala/pkg/types"

	"github.com/alexedwards/flow"
)

func (s *Service) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := s.userFromContext(ctx)
	if err != nil {
		s.logger.WithError(err).Error("user not found in context")
		s.internalServerError(w)
		return
	}

	data := &types.ProfilePageData{
		BasePageData: types.BasePageData{Title: "حسابي"},
		Notice:       strings.TrimSpace(r.URL.Query().Get("notice")),
		Error:        strings.TrimSpace(r.URL.Query().Get("error")),
		Email:        user.Email,
	}

	if user.Profile != nil {
		data.FirstName = user.Profile.FirstName
		data.LastName = user.Profile.LastName
		if user.Profile.ProfilePictureURL != nil {
			data.AvatarURL = *user.Profile.ProfilePictureURL
		}
	}

	if err := s.renderTemplate(w, r, "page.profile", data); err != nil {
		s.logger.WithError(err).Error("failed to render profile page")
		s.internalServerError(w)
		return
	}
}

func (s *Service) handlePostProfile(w http.ResponseWriter, r *http.Request) {
	s.saveProfile(w, r, "/profile")
}

func (s *Service) handleGetProfileSetup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := s.userFromContext(ctx)
	if err != nil {
		s.redirectToLogin(w, r)
		return
	}

	data := &types.ProfilePageData{
		BasePageData: types.BasePageData{Title: "أكمل ملفك الشخصي"},
		Email:        user.Email,
	}

	if err := s.renderTemplate(w, r, "page.profile-setup", data); err != nil {
		s.logger.WithError(err).Error("failed to render profile setup page")
		s.internalServerError(w)
		return
	}
}

func (s *Service) handlePostProfileSetup(w http.ResponseWriter, r *http.Request) {
	s.saveProfile(w, r, "/")
}

// saveProfile upserts names and, when provided, the avatar. A failed avatar
// upload keeps the previous picture rather than failing the whole save.
func (s *Service) saveProfile(w http.ResponseWriter, r *http.Request, successPath string) {
	ctx := r.Context()

	user, err := s.userFromContext(ctx)
	if err != nil {
		s.redirectToLogin(w, r)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.redirectWithError(w, r, "/profile", "نموذج غير صالح")
		return
	}

	firstName := strings.TrimSpace(r.FormValue("first_name"))
	lastName := strings.TrimSpace(r.FormValue("last_name"))

	if !required(firstName) {
		s.redirectWithError(w, r, "/profile", "الاسم الأول مطلوب")
		return
	}

	profile := &types.Profile{
		ID:        user.ID,
		FirstName: firstName,
		LastName:  lastName,
	}
	if user.Profile != nil {
		profile.IsAdmin = user.Profile.IsAdmin
		profile.ProfilePictureURL = user.Profile.ProfilePictureURL
	}

	if avatarURL := s.uploadAvatar(r, user.ID); avatarURL != "" {
		profile.ProfilePictureURL = &avatarURL
	}

	if err := s.profilesRepo.UpsertProfile(ctx, profile); err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Error("failed to save profile")
		s.redirectWithError(w, r, "/profile", "تعذر حفظ الملف الشخصي")
		return
	}

	s.redirectWithNotice(w, r, successPath, "تم حفظ ملفك الشخصي")
}

func (s *Service) uploadAvatar(r *http.Request, userID string) string {
	file, header, err := r.FormFile("avatar")
	if err != nil {
		return ""
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.logger.WithError(err).Warn("failed to read avatar upload")
		return ""
	}

	normalized := s.normalizer.Normalize(header.Filename, data)

	path := fmt.Sprintf("%s/%s", userID, normalized.Name)
	key, err := s.storage.Upload(r.Context(), s.config.AvatarsBucket, path, normalized.Data, normalized.ContentType)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("failed to upload avatar")
		return ""
	}

	return s.storage.PublicURL(s.config.AvatarsBucket, key)
}

func (s *Service) handleGetMyAds(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := s.userFromContext(ctx)
	if err != nil {
		s.redirectToLogin(w, r)
		return
	}

	ads, err := s.adsRepo.AdsByUser(ctx, user.ID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Error("failed to fetch user ads")
		s.internalServerError(w)
		return
	}

	data := &types.MyAdsPageData{
		BasePageData: types.BasePageData{Title: "إعلاناتي"},
		Notice:       strings.TrimSpace(r.URL.Query().Get("notice")),
		Error:        strings.TrimSpace(r.URL.Query().Get("error")),
		Ads:          ads,
	}

	if err := s.renderTemplate(w, r, "page.my-ads", data); err != nil {
		s.logger.WithError(err).Error("failed to render my ads page")
		s.internalServerError(w)
		return
	}
}

func (s *Service) handlePostMyAdDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := s.userFromContext(ctx)
	if err != nil {
		s.redirectToLogin(w, r)
		return
	}

	adID := strings.TrimSpace(flow.Param(ctx, "id"))

	ad, err := s.adsRepo.Ad(ctx, adID)
	if err != nil {
		if errors.Is(err, types.ErrAdNotFound) {
			s.redirectWithError(w, r, "/my-ads", "الإعلان غير موجود")
			return
		}
		s.logger.WithError(err).WithField("ad_id", adID).Error("failed to load ad for delete")
		s.internalServerError(w)
		return
	}

	if ad.UserID == nil || *ad.UserID != user.ID {
		s.redirectWithError(w, r, "/my-ads", "لا تملك صلاحية حذف هذا الإعلان")
		return
	}

	s.deleteAdImages(r, ad)

	if err := s.adsRepo.DeleteAd(ctx, adID); err != nil {
		s.logger.WithError(err).WithField("ad_id", adID).Error("failed to delete ad")
		s.internalServerError(w)
		return
	}

	s.redirectWithNotice(w, r, "/my-ads", "تم حذف الإعلان")
}

// deleteAdImages removes the ad's stored images best effort. Orphaned
// objects are cheaper than blocking the delete on storage.
func (s *Service) deleteAdImages(r *http.Request, ad *types.Ad) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	for _, imageURL := range ad.Images {
		path, ok := s.storage.ObjectPath(s.config.AdImagesBucket, imageURL)
		if !ok {
			continue
		}

		if err := s.storage.Delete(ctx, s.config.AdImagesBucket, path); err != nil {
			s.logger.WithError(err).
				WithField("ad_id", ad.ID).
				WithField("path", path).
				Warn("failed to delete ad image from storage")
		}
	}
}
