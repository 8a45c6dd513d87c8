package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/pharmarawasy-del/Delala/pkg/types"

	"github.com/alexedwards/flow"
)

const adminRecentLimit = 10

func (s *Service) handleGetAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	data := &types.AdminPageData{
		BasePageData: types.BasePageData{Title: "لوحة الإدارة"},
		Notice:       strings.TrimSpace(r.URL.Query().Get("notice")),
		Error:        strings.TrimSpace(r.URL.Query().Get("error")),
	}

	var err error

	data.UsersCount, err = s.profilesRepo.CountProfiles(ctx)
	if err != nil {
		s.logger.WithError(err).Error("failed to count profiles")
		s.internalServerError(w)
		return
	}

	data.AdsCount, err = s.adsRepo.CountAds(ctx)
	if err != nil {
		s.logger.WithError(err).Error("failed to count ads")
		s.internalServerError(w)
		return
	}

	data.MessagesCount, err = s.messagesRepo.CountMessages(ctx)
	if err != nil {
		s.logger.WithError(err).Error("failed to count messages")
		s.internalServerError(w)
		return
	}

	data.RecentAds, err = s.adsRepo.RecentAds(ctx, adminRecentLimit)
	if err != nil {
		s.logger.WithError(err).Error("failed to fetch recent ads")
		s.internalServerError(w)
		return
	}

	data.RecentMessages, err = s.messagesRepo.RecentMessages(ctx, adminRecentLimit)
	if err != nil {
		s.logger.WithError(err).Error("failed to fetch recent messages")
		s.internalServerError(w)
		return
	}

	if err := s.renderTemplate(w, r, "page.admin", data); err != nil {
		s.logger.WithError(err).Error("failed to render admin page")
		s.internalServerError(w)
		return
	}
}

// handlePostAdminAdDelete removes any ad regardless of owner. Moderators
// use it to pull listings that violate the rules.
func (s *Service) handlePostAdminAdDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	adID := strings.TrimSpace(flow.Param(ctx, "id"))

	ad, err := s.adsRepo.Ad(ctx, adID)
	if err != nil {
		if errors.Is(err, types.ErrAdNotFound) {
			s.redirectWithError(w, r, "/admin", "الإعلان غير موجود")
			return
		}
		s.logger.WithError(err).WithField("ad_id", adID).Error("failed to load ad for admin delete")
		s.internalServerError(w)
		return
	}

	s.deleteAdImages(r, ad)

	if err := s.adsRepo.DeleteAd(ctx, adID); err != nil {
		s.logger.WithError(err).WithField("ad_id", adID).Error("failed to delete ad as admin")
		s.internalServerError(w)
		return
	}

	s.logger.WithField("ad_id", adID).Info("ad removed by admin")

	s.redirectWithNotice(w, r, "/admin", "تم حذف الإعلان")
}
